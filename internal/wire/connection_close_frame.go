package wire

import (
	"io"

	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/quicvarint"
)

// A ConnectionCloseFrame is a CONNECTION_CLOSE frame carrying a transport
// error code.
type ConnectionCloseFrame struct {
	ErrorCode    uint16
	FrameType    uint64
	ReasonPhrase string
}

func parseConnectionCloseFrame(b []byte, _ protocol.Version) (*ConnectionCloseFrame, int, error) {
	startLen := len(b)
	if len(b) < 2 {
		return nil, 0, io.EOF
	}
	f := &ConnectionCloseFrame{ErrorCode: uint16(b[0])<<8 | uint16(b[1])}
	b = b[2:]
	ft, l, err := quicvarint.Parse(b)
	if err != nil {
		return nil, 0, err
	}
	b = b[l:]
	f.FrameType = ft
	reasonPhraseLen, l, err := quicvarint.Parse(b)
	if err != nil {
		return nil, 0, err
	}
	b = b[l:]
	if int(reasonPhraseLen) > len(b) {
		return nil, 0, io.EOF
	}
	f.ReasonPhrase = string(b[:reasonPhraseLen])
	b = b[reasonPhraseLen:]
	return f, startLen - len(b), nil
}

// Append appends a CONNECTION_CLOSE frame.
func (f *ConnectionCloseFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = append(b, byte(FrameTypeConnectionClose))
	b = append(b, byte(f.ErrorCode>>8), byte(f.ErrorCode))
	b = quicvarint.Append(b, f.FrameType)
	b = quicvarint.Append(b, uint64(len(f.ReasonPhrase)))
	b = append(b, f.ReasonPhrase...)
	return b, nil
}

// Length of a written frame
func (f *ConnectionCloseFrame) Length(_ protocol.Version) protocol.ByteCount {
	return protocol.ByteCount(1 + 2 + quicvarint.Len(f.FrameType) + quicvarint.Len(uint64(len(f.ReasonPhrase))) + len(f.ReasonPhrase))
}
