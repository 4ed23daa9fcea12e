package quivc

import (
	"errors"
	"testing"

	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/utils"
	"github.com/quivc/quivc/internal/wire"

	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	types  []wire.FrameType
	frames []wire.Frame
	err    error
}

func (h *recordingHandler) Interests() []wire.FrameType { return h.types }
func (h *recordingHandler) HandleFrame(_ protocol.EncryptionLevel, f wire.Frame) error {
	h.frames = append(h.frames, f)
	return h.err
}

func framesToPayload(t *testing.T, frames ...wire.Frame) []byte {
	t.Helper()
	var b []byte
	var err error
	for _, f := range frames {
		b, err = f.Append(b, protocol.VersionDraft13)
		require.NoError(t, err)
	}
	return b
}

func TestDispatcherRoutesByInterest(t *testing.T) {
	d := newFrameDispatcher(protocol.VersionDraft13, utils.DefaultLogger)
	maxData := &recordingHandler{types: []wire.FrameType{wire.FrameTypeMaxData}}
	ping := &recordingHandler{types: []wire.FrameType{wire.FrameTypePing}}
	d.AddHandler(maxData)
	d.AddHandler(ping)

	payload := framesToPayload(t, &wire.MaxDataFrame{MaximumData: 100}, &wire.PingFrame{})
	shouldAck, flowControlled, err := d.ReceiveFrames(protocol.Encryption1RTT, payload)
	require.NoError(t, err)
	require.True(t, shouldAck)
	require.False(t, flowControlled)
	require.Len(t, maxData.frames, 1)
	require.Len(t, ping.frames, 1)
}

func TestDispatcherAckOnlyPacketDoesNotElicitAck(t *testing.T) {
	d := newFrameDispatcher(protocol.VersionDraft13, utils.DefaultLogger)
	h := &recordingHandler{types: []wire.FrameType{wire.FrameTypeAck}}
	d.AddHandler(h)

	payload := framesToPayload(t, &wire.AckFrame{AckRanges: []wire.AckRange{{Smallest: 0, Largest: 3}}})
	// trailing padding doesn't change anything
	payload = append(payload, 0x00, 0x00, 0x00)

	shouldAck, flowControlled, err := d.ReceiveFrames(protocol.EncryptionInitial, payload)
	require.NoError(t, err)
	require.False(t, shouldAck)
	require.False(t, flowControlled)
	require.Len(t, h.frames, 1)
}

func TestDispatcherFlagsStreamData(t *testing.T) {
	d := newFrameDispatcher(protocol.VersionDraft13, utils.DefaultLogger)
	h := &recordingHandler{types: []wire.FrameType{wire.FrameTypeStream}}
	d.AddHandler(h)

	payload := framesToPayload(t, &wire.StreamFrame{StreamID: 4, Data: []byte("data"), DataLenPresent: true})
	shouldAck, flowControlled, err := d.ReceiveFrames(protocol.Encryption1RTT, payload)
	require.NoError(t, err)
	require.True(t, shouldAck)
	require.True(t, flowControlled)
}

func TestDispatcherStopsOnHandlerError(t *testing.T) {
	d := newFrameDispatcher(protocol.VersionDraft13, utils.DefaultLogger)
	failing := &recordingHandler{types: []wire.FrameType{wire.FrameTypePing}, err: errors.New("boom")}
	after := &recordingHandler{types: []wire.FrameType{wire.FrameTypeMaxData}}
	d.AddHandler(failing)
	d.AddHandler(after)

	payload := framesToPayload(t, &wire.PingFrame{}, &wire.MaxDataFrame{MaximumData: 1})
	_, _, err := d.ReceiveFrames(protocol.Encryption1RTT, payload)
	require.EqualError(t, err, "boom")
	require.Empty(t, after.frames)
}

func TestDispatcherRejectsMalformedFrame(t *testing.T) {
	d := newFrameDispatcher(protocol.VersionDraft13, utils.DefaultLogger)
	_, _, err := d.ReceiveFrames(protocol.Encryption1RTT, []byte{0xff})
	require.Error(t, err)
}

func TestDispatcherIgnoresUnhandledTypes(t *testing.T) {
	d := newFrameDispatcher(protocol.VersionDraft13, utils.DefaultLogger)
	payload := framesToPayload(t, &wire.PingFrame{})
	shouldAck, _, err := d.ReceiveFrames(protocol.Encryption1RTT, payload)
	require.NoError(t, err)
	require.True(t, shouldAck)
}
