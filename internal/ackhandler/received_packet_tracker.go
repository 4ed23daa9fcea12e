package ackhandler

import (
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/wire"
)

// The receivedPacketTracker records the packet numbers received in one
// packet number space and generates ACK frames for them.
type receivedPacketTracker struct {
	ranges    []wire.AckRange // sorted ascending by packet number
	ackQueued bool
}

func (t *receivedPacketTracker) ReceivedPacket(pn protocol.PacketNumber, ackEliciting bool) {
	t.insert(pn)
	if ackEliciting {
		t.ackQueued = true
	}
}

func (t *receivedPacketTracker) insert(pn protocol.PacketNumber) {
	for i := len(t.ranges) - 1; i >= 0; i-- {
		r := &t.ranges[i]
		if pn >= r.Smallest && pn <= r.Largest { // duplicate
			return
		}
		if pn == r.Largest+1 {
			r.Largest++
			// merge with the next range if they now touch
			if i+1 < len(t.ranges) && t.ranges[i+1].Smallest == r.Largest+1 {
				r.Largest = t.ranges[i+1].Largest
				t.ranges = append(t.ranges[:i+1], t.ranges[i+2:]...)
			}
			return
		}
		if pn == r.Smallest-1 {
			r.Smallest--
			if i > 0 && t.ranges[i-1].Largest == r.Smallest-1 {
				r.Smallest = t.ranges[i-1].Smallest
				t.ranges = append(t.ranges[:i-1], t.ranges[i:]...)
			}
			return
		}
		if pn > r.Largest {
			// insert a new range behind i
			t.ranges = append(t.ranges, wire.AckRange{})
			copy(t.ranges[i+2:], t.ranges[i+1:])
			t.ranges[i+1] = wire.AckRange{Smallest: pn, Largest: pn}
			return
		}
	}
	t.ranges = append([]wire.AckRange{{Smallest: pn, Largest: pn}}, t.ranges...)
}

// AckRequired says if an ACK frame should be sent even if the packetizer
// produced no other frame.
func (t *receivedPacketTracker) AckRequired() bool {
	return t.ackQueued
}

// GetAckFrame builds an ACK frame covering everything received so far.
// It returns nil if no packet was received yet.
func (t *receivedPacketTracker) GetAckFrame() *wire.AckFrame {
	if len(t.ranges) == 0 {
		return nil
	}
	// the ACK frame wants the ranges in descending order
	ranges := make([]wire.AckRange, 0, len(t.ranges))
	for i := len(t.ranges) - 1; i >= 0; i-- {
		ranges = append(ranges, t.ranges[i])
	}
	t.ackQueued = false
	return &wire.AckFrame{AckRanges: ranges}
}
