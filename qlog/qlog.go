// Package qlog traces connection events as newline-delimited JSON,
// encoded with gojay.
package qlog

import (
	"io"
	"sync"
	"time"

	"github.com/francoispqt/gojay"

	"github.com/quivc/quivc/internal/protocol"
)

// A Tracer writes connection events to an io.Writer.
type Tracer struct {
	mx sync.Mutex
	w  io.Writer

	enc       *gojay.Encoder
	reference time.Time
}

// NewTracer creates a Tracer. The writer is not closed by the tracer.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{
		w:         w,
		enc:       gojay.NewEncoder(w),
		reference: time.Now(),
	}
}

type qlogEvent struct {
	relativeTime time.Duration
	category     string
	name         string
	data         gojay.MarshalerJSONObject
}

var _ gojay.MarshalerJSONObject = &qlogEvent{}

func (e *qlogEvent) IsNil() bool { return e == nil }

func (e *qlogEvent) MarshalJSONObject(enc *gojay.Encoder) {
	enc.Float64Key("time", float64(e.relativeTime.Nanoseconds())/1e6)
	enc.StringKey("name", e.category+":"+e.name)
	enc.ObjectKey("data", e.data)
}

func (t *Tracer) record(category, name string, data gojay.MarshalerJSONObject) {
	t.mx.Lock()
	defer t.mx.Unlock()
	ev := &qlogEvent{
		relativeTime: time.Since(t.reference),
		category:     category,
		name:         name,
		data:         data,
	}
	if err := t.enc.EncodeObject(ev); err != nil {
		return
	}
	t.w.Write([]byte{'\n'})
}

type connectionStartedEvent struct {
	perspective string
	local, peer string
}

func (e connectionStartedEvent) IsNil() bool { return false }
func (e connectionStartedEvent) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("vantage_point", e.perspective)
	enc.StringKey("src_cid", e.local)
	enc.StringKey("dst_cid", e.peer)
}

type packetEvent struct {
	packetType   string
	packetNumber int64
	size         int64
}

func (e packetEvent) IsNil() bool { return false }
func (e packetEvent) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("packet_type", e.packetType)
	enc.Int64Key("packet_number", e.packetNumber)
	enc.Int64Key("raw_length", e.size)
}

type stateEvent struct{ state string }

func (e stateEvent) IsNil() bool { return false }
func (e stateEvent) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("new", e.state)
}

type closeEvent struct{ reason string }

func (e closeEvent) IsNil() bool { return false }
func (e closeEvent) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("trigger", e.reason)
}

// StartedConnection records the creation of a connection.
func (t *Tracer) StartedConnection(p protocol.Perspective, local, peer protocol.ConnectionID) {
	t.record("transport", "connection_started", connectionStartedEvent{
		perspective: p.String(),
		local:       local.String(),
		peer:        peer.String(),
	})
}

// SentPacket records a sent packet.
func (t *Tracer) SentPacket(typ protocol.PacketType, pn protocol.PacketNumber, size protocol.ByteCount) {
	t.record("transport", "packet_sent", packetEvent{
		packetType:   typ.String(),
		packetNumber: int64(pn),
		size:         int64(size),
	})
}

// ReceivedPacket records a received packet.
func (t *Tracer) ReceivedPacket(typ protocol.PacketType, pn protocol.PacketNumber, size protocol.ByteCount) {
	t.record("transport", "packet_received", packetEvent{
		packetType:   typ.String(),
		packetNumber: int64(pn),
		size:         int64(size),
	})
}

// UpdatedState records a state machine transition.
func (t *Tracer) UpdatedState(state string) {
	t.record("connectivity", "connection_state_updated", stateEvent{state: state})
}

// ClosedConnection records the end of a connection.
func (t *Tracer) ClosedConnection(reason string) {
	t.record("connectivity", "connection_closed", closeEvent{reason: reason})
}
