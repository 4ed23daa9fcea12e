package wire

import (
	"errors"
	"time"

	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/quicvarint"
)

const ackDelayExponent = 3

// An AckFrame is an ACK frame
type AckFrame struct {
	// AckRanges sorted in descending order
	AckRanges []AckRange
	DelayTime time.Duration
}

func parseAckFrame(b []byte, _ protocol.Version) (*AckFrame, int, error) {
	startLen := len(b)
	frame := &AckFrame{}

	la, l, err := quicvarint.Parse(b)
	if err != nil {
		return nil, 0, err
	}
	b = b[l:]
	largestAcked := protocol.PacketNumber(la)

	delay, l, err := quicvarint.Parse(b)
	if err != nil {
		return nil, 0, err
	}
	b = b[l:]
	frame.DelayTime = time.Duration(delay*1<<ackDelayExponent) * time.Microsecond

	numBlocks, l, err := quicvarint.Parse(b)
	if err != nil {
		return nil, 0, err
	}
	b = b[l:]

	// read the first ACK range
	ab, l, err := quicvarint.Parse(b)
	if err != nil {
		return nil, 0, err
	}
	b = b[l:]
	ackBlock := protocol.PacketNumber(ab)
	if ackBlock > largestAcked {
		return nil, 0, errors.New("invalid first ACK range")
	}
	smallest := largestAcked - ackBlock
	frame.AckRanges = append(frame.AckRanges, AckRange{Smallest: smallest, Largest: largestAcked})

	for i := uint64(0); i < numBlocks; i++ {
		g, l, err := quicvarint.Parse(b)
		if err != nil {
			return nil, 0, err
		}
		b = b[l:]
		gap := protocol.PacketNumber(g)

		ab, l, err := quicvarint.Parse(b)
		if err != nil {
			return nil, 0, err
		}
		b = b[l:]
		ackBlock := protocol.PacketNumber(ab)

		largest := smallest - gap - 2
		if ackBlock > largest {
			return nil, 0, errors.New("invalid ACK range")
		}
		smallest = largest - ackBlock
		frame.AckRanges = append(frame.AckRanges, AckRange{Smallest: smallest, Largest: largest})
	}

	if !frame.validateAckRanges() {
		return nil, 0, errors.New("ACK frame: ranges not ordered")
	}
	return frame, startLen - len(b), nil
}

// Append appends an ACK frame.
func (f *AckFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = quicvarint.Append(b, uint64(FrameTypeAck))
	b = quicvarint.Append(b, uint64(f.LargestAcked()))
	b = quicvarint.Append(b, uint64(f.DelayTime.Microseconds()>>ackDelayExponent))
	b = quicvarint.Append(b, uint64(len(f.AckRanges)-1))

	// write the first range
	firstRange := f.AckRanges[0]
	b = quicvarint.Append(b, uint64(firstRange.Largest-firstRange.Smallest))

	// write all the other ranges
	lowest := firstRange.Smallest
	for _, r := range f.AckRanges[1:] {
		b = quicvarint.Append(b, uint64(lowest-r.Largest-2))
		b = quicvarint.Append(b, uint64(r.Largest-r.Smallest))
		lowest = r.Smallest
	}
	return b, nil
}

// Length of a written frame
func (f *AckFrame) Length(_ protocol.Version) protocol.ByteCount {
	largestAcked := f.AckRanges[0].Largest
	length := 1 + quicvarint.Len(uint64(largestAcked)) + quicvarint.Len(uint64(f.DelayTime.Microseconds()>>ackDelayExponent))
	length += quicvarint.Len(uint64(len(f.AckRanges) - 1))
	lowestInFirstRange := f.AckRanges[0].Smallest
	length += quicvarint.Len(uint64(largestAcked - lowestInFirstRange))
	lowest := lowestInFirstRange
	for _, r := range f.AckRanges[1:] {
		length += quicvarint.Len(uint64(lowest - r.Largest - 2))
		length += quicvarint.Len(uint64(r.Largest - r.Smallest))
		lowest = r.Smallest
	}
	return protocol.ByteCount(length)
}

// HasMissingRanges returns if this frame reports any missing packets
func (f *AckFrame) HasMissingRanges() bool {
	return len(f.AckRanges) > 1
}

func (f *AckFrame) validateAckRanges() bool {
	if len(f.AckRanges) == 0 {
		return false
	}
	// check the validity of every single ACK range
	for _, ackRange := range f.AckRanges {
		if ackRange.Smallest > ackRange.Largest {
			return false
		}
	}
	// check the consistency for ACK with multiple NACK ranges
	for i, ackRange := range f.AckRanges {
		if i == 0 {
			continue
		}
		lastAckRange := f.AckRanges[i-1]
		if lastAckRange.Smallest <= ackRange.Smallest {
			return false
		}
		if lastAckRange.Smallest <= ackRange.Largest+1 {
			return false
		}
	}
	return true
}

// LargestAcked is the largest acked packet number
func (f *AckFrame) LargestAcked() protocol.PacketNumber {
	return f.AckRanges[0].Largest
}

// LowestAcked is the lowest acked packet number
func (f *AckFrame) LowestAcked() protocol.PacketNumber {
	return f.AckRanges[len(f.AckRanges)-1].Smallest
}

// AcksPacket determines if this ACK frame acks a certain packet number
func (f *AckFrame) AcksPacket(p protocol.PacketNumber) bool {
	if p < f.LowestAcked() || p > f.LargestAcked() {
		return false
	}
	for _, r := range f.AckRanges {
		if p >= r.Smallest && p <= r.Largest {
			return true
		}
	}
	return false
}
