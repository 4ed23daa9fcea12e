package wire

import (
	"fmt"
	"io"

	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/quicvarint"
)

// A NewConnectionIDFrame is a NEW_CONNECTION_ID frame
type NewConnectionIDFrame struct {
	SequenceNumber      uint64
	ConnectionID        protocol.ConnectionID
	StatelessResetToken protocol.StatelessResetToken
}

func parseNewConnectionIDFrame(b []byte, _ protocol.Version) (*NewConnectionIDFrame, int, error) {
	startLen := len(b)
	seq, l, err := quicvarint.Parse(b)
	if err != nil {
		return nil, 0, err
	}
	b = b[l:]
	if len(b) < 1 {
		return nil, 0, io.EOF
	}
	connIDLen := int(b[0])
	b = b[1:]
	if connIDLen > protocol.MaxConnectionIDLength {
		return nil, 0, fmt.Errorf("invalid connection ID length: %d", connIDLen)
	}
	if len(b) < connIDLen+16 {
		return nil, 0, io.EOF
	}
	frame := &NewConnectionIDFrame{
		SequenceNumber: seq,
		ConnectionID:   protocol.ConnectionID(append([]byte{}, b[:connIDLen]...)),
	}
	b = b[connIDLen:]
	copy(frame.StatelessResetToken[:], b[:16])
	b = b[16:]
	return frame, startLen - len(b), nil
}

// Append appends a NEW_CONNECTION_ID frame.
func (f *NewConnectionIDFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = append(b, byte(FrameTypeNewConnectionID))
	b = quicvarint.Append(b, f.SequenceNumber)
	b = append(b, byte(f.ConnectionID.Len()))
	b = append(b, f.ConnectionID.Bytes()...)
	b = append(b, f.StatelessResetToken[:]...)
	return b, nil
}

// Length of a written frame
func (f *NewConnectionIDFrame) Length(_ protocol.Version) protocol.ByteCount {
	return protocol.ByteCount(1 + quicvarint.Len(f.SequenceNumber) + 1 + f.ConnectionID.Len() + 16)
}
