package wire

import (
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/quicvarint"
)

// A MaxStreamDataFrame is a MAX_STREAM_DATA frame
type MaxStreamDataFrame struct {
	StreamID          uint64
	MaximumStreamData protocol.ByteCount
}

func parseMaxStreamDataFrame(b []byte, _ protocol.Version) (*MaxStreamDataFrame, int, error) {
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
	return &MaxStreamDataFrame{
		StreamID:          sid,
		MaximumStreamData: protocol.ByteCount(offset),
	}, startLen - len(b), nil
}

// Append appends a MAX_STREAM_DATA frame.
func (f *MaxStreamDataFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = quicvarint.Append(b, uint64(FrameTypeMaxStreamData))
	b = quicvarint.Append(b, f.StreamID)
	b = quicvarint.Append(b, uint64(f.MaximumStreamData))
	return b, nil
}

// Length of a written frame
func (f *MaxStreamDataFrame) Length(_ protocol.Version) protocol.ByteCount {
	return protocol.ByteCount(1 + quicvarint.Len(f.StreamID) + quicvarint.Len(uint64(f.MaximumStreamData)))
}
