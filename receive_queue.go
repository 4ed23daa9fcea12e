package quivc

import (
	"net"
	"sync"
	"time"

	"github.com/quivc/quivc/internal/handshake"
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/utils"
	"github.com/quivc/quivc/internal/wire"
)

// A receivedDatagram is a raw UDP payload waiting to be decrypted.
type receivedDatagram struct {
	data    []byte
	from    net.Addr
	rcvTime time.Time
}

// The packetReceiveQueue buffers raw datagrams between the demultiplexer
// thread and the connection's event loop. Enqueue is safe to call from
// any thread; Dequeue runs on the event loop and performs header parsing
// and decryption.
type packetReceiveQueue struct {
	mx        sync.Mutex
	datagrams []*receivedDatagram

	// remainder holds the unconsumed tail of a coalesced datagram.
	remainder *receivedDatagram

	protection *packetProtection
	connIDLen  func() int
	logger     utils.Logger
}

func newPacketReceiveQueue(protection *packetProtection, connIDLen func() int, logger utils.Logger) *packetReceiveQueue {
	return &packetReceiveQueue{
		protection: protection,
		connIDLen:  connIDLen,
		logger:     logger,
	}
}

// Enqueue adds a raw datagram. It is called by the demultiplexer and may
// run on any thread. It reports whether the datagram was accepted.
func (q *packetReceiveQueue) Enqueue(data []byte, from net.Addr) bool {
	q.mx.Lock()
	defer q.mx.Unlock()
	if len(q.datagrams) >= protocol.MaxReceiveQueueLen {
		return false
	}
	q.datagrams = append(q.datagrams, &receivedDatagram{data: data, from: from, rcvTime: time.Now()})
	return true
}

// Size returns the number of datagrams waiting, including a coalesced
// remainder.
func (q *packetReceiveQueue) Size() int {
	q.mx.Lock()
	defer q.mx.Unlock()
	n := len(q.datagrams)
	if q.remainder != nil {
		n++
	}
	return n
}

// Reset drops all buffered datagrams. Used after a Retry.
func (q *packetReceiveQueue) Reset() {
	q.mx.Lock()
	defer q.mx.Unlock()
	q.datagrams = nil
	q.remainder = nil
}

func (q *packetReceiveQueue) pop() *receivedDatagram {
	q.mx.Lock()
	defer q.mx.Unlock()
	if q.remainder != nil {
		d := q.remainder
		q.remainder = nil
		return d
	}
	if len(q.datagrams) == 0 {
		return nil
	}
	d := q.datagrams[0]
	q.datagrams = q.datagrams[1:]
	return d
}

// Dequeue takes the next packet off the queue and decrypts it.
func (q *packetReceiveQueue) Dequeue() (*ReceivedPacket, PacketCreationResult) {
	d := q.pop()
	if d == nil {
		return nil, PacketCreationNoPacket
	}

	hdr, packet, rest, err := wire.ParsePacket(d.data, q.connIDLen())
	if len(rest) > 0 {
		q.mx.Lock()
		q.remainder = &receivedDatagram{data: rest, from: d.from, rcvTime: d.rcvTime}
		q.mx.Unlock()
	}
	if err == wire.ErrUnsupportedVersion {
		return &ReceivedPacket{
			Type:             hdr.Type,
			DestConnectionID: hdr.DestConnectionID,
			SrcConnectionID:  hdr.SrcConnectionID,
			Size:             protocol.ByteCount(len(d.data)),
			From:             d.from,
			RcvTime:          d.rcvTime,
		}, PacketCreationUnsupported
	}
	if err != nil {
		q.logger.Debugf("error parsing packet: %s", err)
		return nil, PacketCreationIgnored
	}

	if hdr.Type == protocol.PacketTypeVersionNegotiation {
		return &ReceivedPacket{
			Type:              hdr.Type,
			DestConnectionID:  hdr.DestConnectionID,
			SrcConnectionID:   hdr.SrcConnectionID,
			SupportedVersions: hdr.SupportedVersions,
			Size:              protocol.ByteCount(len(packet)),
			From:              d.from,
			RcvTime:           d.rcvTime,
		}, PacketCreationSuccess
	}

	opener, err := q.protection.opener(hdr.Type.EncryptionLevel())
	if err == handshake.ErrKeysNotYetAvailable {
		return nil, PacketCreationNotReady
	}
	if err != nil {
		return nil, PacketCreationFailed
	}

	unprotectPacketNumber(packet, hdr.PacketNumberOffset(), opener)
	if err := hdr.ReadPacketNumber(packet); err != nil {
		return nil, PacketCreationFailed
	}
	payload, err := opener.Open(nil, packet[hdr.PayloadOffset():], hdr.PacketNumber, packet[:hdr.PayloadOffset()])
	if err != nil {
		return nil, PacketCreationFailed
	}

	return &ReceivedPacket{
		Type:             hdr.Type,
		PacketNumber:     hdr.PacketNumber,
		DestConnectionID: hdr.DestConnectionID,
		SrcConnectionID:  hdr.SrcConnectionID,
		Payload:          payload,
		Size:             protocol.ByteCount(len(packet)),
		From:             d.from,
		RcvTime:          d.rcvTime,
	}, PacketCreationSuccess
}
