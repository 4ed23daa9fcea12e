package ackhandler

import (
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/wire"
)

// The AckFrameCreator tracks received packets in all three packet number
// spaces and emits ACK frames during packetization.
type AckFrameCreator struct {
	trackers [protocol.NumPacketNumberSpaces]receivedPacketTracker
}

// NewAckFrameCreator creates a new AckFrameCreator.
func NewAckFrameCreator() *AckFrameCreator {
	return &AckFrameCreator{}
}

// Update records a received packet for the packet number space of the
// given encryption level.
func (c *AckFrameCreator) Update(level protocol.EncryptionLevel, pn protocol.PacketNumber, shouldSendAck bool) {
	c.trackers[protocol.SpaceFromEncryptionLevel(level)].ReceivedPacket(pn, shouldSendAck)
}

// LargestObserved returns the largest packet number received in the packet
// number space of the given encryption level.
func (c *AckFrameCreator) LargestObserved(level protocol.EncryptionLevel) protocol.PacketNumber {
	t := &c.trackers[protocol.SpaceFromEncryptionLevel(level)]
	if len(t.ranges) == 0 {
		return protocol.InvalidPacketNumber
	}
	return t.ranges[len(t.ranges)-1].Largest
}

// WillGenerateFrame says if an ACK frame is due for this level, i.e. an
// ack-eliciting packet was received since the last ACK was emitted.
func (c *AckFrameCreator) WillGenerateFrame(level protocol.EncryptionLevel) bool {
	return c.trackers[protocol.SpaceFromEncryptionLevel(level)].AckRequired()
}

// GenerateFrame returns an ACK frame for this level, or nil if nothing
// was received yet or the frame doesn't fit.
func (c *AckFrameCreator) GenerateFrame(level protocol.EncryptionLevel, _ uint16, maxSize protocol.ByteCount) wire.Frame {
	t := &c.trackers[protocol.SpaceFromEncryptionLevel(level)]
	f := t.GetAckFrame()
	if f == nil {
		return nil
	}
	if f.Length(protocol.VersionDraft13) > maxSize {
		t.ackQueued = true // try again in the next packet
		return nil
	}
	return f
}
