package wire

import (
	"io"

	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/quicvarint"
)

// An ApplicationCloseFrame is an APPLICATION_CLOSE frame carrying an
// application protocol error code.
type ApplicationCloseFrame struct {
	ErrorCode    uint16
	ReasonPhrase string
}

func parseApplicationCloseFrame(b []byte, _ protocol.Version) (*ApplicationCloseFrame, int, error) {
	startLen := len(b)
	if len(b) < 2 {
		return nil, 0, io.EOF
	}
	f := &ApplicationCloseFrame{ErrorCode: uint16(b[0])<<8 | uint16(b[1])}
	b = b[2:]
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

// Append appends an APPLICATION_CLOSE frame.
func (f *ApplicationCloseFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = append(b, byte(FrameTypeApplicationClose))
	b = append(b, byte(f.ErrorCode>>8), byte(f.ErrorCode))
	b = quicvarint.Append(b, uint64(len(f.ReasonPhrase)))
	b = append(b, f.ReasonPhrase...)
	return b, nil
}

// Length of a written frame
func (f *ApplicationCloseFrame) Length(_ protocol.Version) protocol.ByteCount {
	return protocol.ByteCount(1 + 2 + quicvarint.Len(uint64(len(f.ReasonPhrase))) + len(f.ReasonPhrase))
}
