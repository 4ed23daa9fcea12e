package ackhandler

import (
	"fmt"
	"time"

	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/utils"
	"github.com/quivc/quivc/internal/wire"
)

// packetThreshold is the reordering distance after which an unacked
// packet is declared lost.
const packetThreshold = 3

// CongestionFeedback is the congestion controller surface the loss
// detector reports into.
type CongestionFeedback interface {
	OnPacketSent(protocol.ByteCount)
	OnPacketAcked(protocol.ByteCount)
	OnPacketLost(protocol.ByteCount)
}

// The LossDetector tracks the ack-eliciting packets of one packet number
// space, detects losses from received ACK frames and feeds the congestion
// controller. Frames of lost packets are handed to the retransmission
// callback.
type LossDetector struct {
	space protocol.PacketNumberSpace

	packets      []*Packet // sent, not yet acked, ascending packet numbers
	largestAcked protocol.PacketNumber
	largestSent  protocol.PacketNumber

	rttStats     *utils.RTTStats
	congestion   CongestionFeedback
	onFramesLost func(protocol.EncryptionLevel, []wire.Frame)

	logger utils.Logger
}

// NewLossDetector creates a loss detector for one packet number space.
func NewLossDetector(
	space protocol.PacketNumberSpace,
	rttStats *utils.RTTStats,
	congestion CongestionFeedback,
	onFramesLost func(protocol.EncryptionLevel, []wire.Frame),
	logger utils.Logger,
) *LossDetector {
	return &LossDetector{
		space:        space,
		largestAcked: protocol.InvalidPacketNumber,
		largestSent:  protocol.InvalidPacketNumber,
		rttStats:     rttStats,
		congestion:   congestion,
		onFramesLost: onFramesLost,
		logger:       logger,
	}
}

// OnPacketSent records a sent packet. Packet numbers must be strictly
// increasing within the space.
func (d *LossDetector) OnPacketSent(p *Packet) {
	if p.PacketNumber <= d.largestSent {
		panic(fmt.Sprintf("non-monotonic packet number in %s space: %d after %d", d.space, p.PacketNumber, d.largestSent))
	}
	d.largestSent = p.PacketNumber
	if !p.AckEliciting {
		return
	}
	d.packets = append(d.packets, p)
	d.congestion.OnPacketSent(p.Length)
}

// LargestAckedPacketNumber returns the largest packet number the peer
// acknowledged in this space.
func (d *LossDetector) LargestAckedPacketNumber() protocol.PacketNumber {
	return d.largestAcked
}

// CurrentRTOPeriod returns the retransmission timeout period.
func (d *LossDetector) CurrentRTOPeriod() time.Duration {
	return d.rttStats.RTO()
}

// Interests registers the loss detector for ACK frames.
func (d *LossDetector) Interests() []wire.FrameType {
	return []wire.FrameType{wire.FrameTypeAck}
}

// HandleFrame processes an ACK frame received at an encryption level
// belonging to this packet number space. ACKs of other spaces are
// ignored.
func (d *LossDetector) HandleFrame(level protocol.EncryptionLevel, f wire.Frame) error {
	ack, ok := f.(*wire.AckFrame)
	if !ok {
		return nil
	}
	if protocol.SpaceFromEncryptionLevel(level) != d.space {
		return nil
	}
	d.onAckReceived(ack, time.Now())
	return nil
}

func (d *LossDetector) onAckReceived(ack *wire.AckFrame, rcvTime time.Time) {
	if ack.LargestAcked() > d.largestAcked {
		d.largestAcked = ack.LargestAcked()
	}

	remaining := d.packets[:0]
	var lost []*Packet
	for _, p := range d.packets {
		switch {
		case ack.AcksPacket(p.PacketNumber):
			if p.PacketNumber == ack.LargestAcked() {
				d.rttStats.UpdateRTT(rcvTime.Sub(p.SendTime), ack.DelayTime)
			}
			d.congestion.OnPacketAcked(p.Length)
		case p.PacketNumber+packetThreshold <= d.largestAcked:
			lost = append(lost, p)
		default:
			remaining = append(remaining, p)
		}
	}
	d.packets = remaining

	for _, p := range lost {
		if d.logger.Debug() {
			d.logger.Debugf("declaring %s packet %d lost", d.space, p.PacketNumber)
		}
		d.congestion.OnPacketLost(p.Length)
		if d.onFramesLost != nil && len(p.Frames) > 0 {
			d.onFramesLost(p.EncryptionLevel, p.Frames)
		}
	}
}

// Reset discards the tracked packets, keeping the packet number state, so
// that restarting the handshake after Version Negotiation or Retry does
// not reuse packet numbers.
func (d *LossDetector) Reset() {
	d.packets = nil
	d.largestAcked = protocol.InvalidPacketNumber
}

// Shutdown releases the detector. It must not be used afterwards.
func (d *LossDetector) Shutdown() {
	d.packets = nil
	d.onFramesLost = nil
}
