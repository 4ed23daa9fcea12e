package wire

import (
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/quicvarint"
)

// A MaxDataFrame carries connection-level flow control information
type MaxDataFrame struct {
	MaximumData protocol.ByteCount
}

func parseMaxDataFrame(b []byte, _ protocol.Version) (*MaxDataFrame, int, error) {
	v, l, err := quicvarint.Parse(b)
	if err != nil {
		return nil, 0, err
	}
	return &MaxDataFrame{MaximumData: protocol.ByteCount(v)}, l, nil
}

// Append appends a MAX_DATA frame.
func (f *MaxDataFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = quicvarint.Append(b, uint64(FrameTypeMaxData))
	b = quicvarint.Append(b, uint64(f.MaximumData))
	return b, nil
}

// Length of a written frame
func (f *MaxDataFrame) Length(_ protocol.Version) protocol.ByteCount {
	return protocol.ByteCount(1 + quicvarint.Len(uint64(f.MaximumData)))
}
