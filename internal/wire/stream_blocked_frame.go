package wire

import (
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/quicvarint"
)

// A StreamBlockedFrame is a STREAM_BLOCKED frame
type StreamBlockedFrame struct {
	StreamID uint64
	Offset   protocol.ByteCount
}

func parseStreamBlockedFrame(b []byte, _ protocol.Version) (*StreamBlockedFrame, int, error) {
	startLen := len(b)
	sid, l, err := quicvarint.Parse(b)
	if err != nil {
		return nil, 0, err
	}
	b = b[l:]
	offset, l, err := quicvarint.Parse(b)
	if err != nil {
		return nil, 0, err
	}
	b = b[l:]
	return &StreamBlockedFrame{
		StreamID: sid,
		Offset:   protocol.ByteCount(offset),
	}, startLen - len(b), nil
}

// Append appends a STREAM_BLOCKED frame.
func (f *StreamBlockedFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = quicvarint.Append(b, uint64(FrameTypeStreamBlocked))
	b = quicvarint.Append(b, f.StreamID)
	b = quicvarint.Append(b, uint64(f.Offset))
	return b, nil
}

// Length of a written frame
func (f *StreamBlockedFrame) Length(_ protocol.Version) protocol.ByteCount {
	return protocol.ByteCount(1 + quicvarint.Len(f.StreamID) + quicvarint.Len(uint64(f.Offset)))
}
