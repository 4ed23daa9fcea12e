package wire

import (
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/quicvarint"
)

// A BlockedFrame signals that we'd like to send data, but the connection
// flow control credit is exhausted.
type BlockedFrame struct {
	Offset protocol.ByteCount
}

func parseBlockedFrame(b []byte, _ protocol.Version) (*BlockedFrame, int, error) {
	offset, l, err := quicvarint.Parse(b)
	if err != nil {
		return nil, 0, err
	}
	return &BlockedFrame{Offset: protocol.ByteCount(offset)}, l, nil
}

// Append appends a BLOCKED frame.
func (f *BlockedFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = quicvarint.Append(b, uint64(FrameTypeBlocked))
	b = quicvarint.Append(b, uint64(f.Offset))
	return b, nil
}

// Length of a written frame
func (f *BlockedFrame) Length(_ protocol.Version) protocol.ByteCount {
	return protocol.ByteCount(1 + quicvarint.Len(uint64(f.Offset)))
}
