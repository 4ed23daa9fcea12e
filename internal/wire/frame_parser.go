package wire

import (
	"fmt"

	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/qerr"
)

// The FrameParser parses QUIC frames, one by one.
type FrameParser struct {
	version protocol.Version
}

// NewFrameParser creates a new frame parser.
func NewFrameParser(v protocol.Version) *FrameParser {
	return &FrameParser{version: v}
}

// ParseNext parses the next frame.
// It skips PADDING frames.
// It returns nil (and the number of PADDING bytes skipped) if no more
// frames are left in the payload.
func (p *FrameParser) ParseNext(data []byte) (Frame, int, error) {
	var parsed int
	for len(data) != 0 {
		typeByte := data[0]
		if typeByte == byte(FrameTypePadding) { // skip PADDING frames
			parsed++
			data = data[1:]
			continue
		}

		f, l, err := p.parseFrame(typeByte, data[1:])
		if err != nil {
			return nil, 0, qerr.NewTransportFrameError(qerr.FrameEncodingError, uint64(typeByte), err.Error())
		}
		return f, parsed + 1 + l, nil
	}
	return nil, parsed, nil
}

func (p *FrameParser) parseFrame(typeByte byte, data []byte) (Frame, int, error) {
	if FrameType(typeByte) >= FrameTypeStream && FrameType(typeByte) < FrameTypeCrypto {
		return parseStreamFrame(typeByte, data, p.version)
	}
	switch FrameType(typeByte) {
	case FrameTypeConnectionClose:
		return parseConnectionCloseFrame(data, p.version)
	case FrameTypeApplicationClose:
		return parseApplicationCloseFrame(data, p.version)
	case FrameTypeMaxData:
		return parseMaxDataFrame(data, p.version)
	case FrameTypeMaxStreamData:
		return parseMaxStreamDataFrame(data, p.version)
	case FrameTypePing:
		return &PingFrame{}, 0, nil
	case FrameTypeBlocked:
		return parseBlockedFrame(data, p.version)
	case FrameTypeStreamBlocked:
		return parseStreamBlockedFrame(data, p.version)
	case FrameTypeNewConnectionID:
		return parseNewConnectionIDFrame(data, p.version)
	case FrameTypeAck:
		return parseAckFrame(data, p.version)
	case FrameTypePathChallenge:
		return parsePathChallengeFrame(data, p.version)
	case FrameTypePathResponse:
		return parsePathResponseFrame(data, p.version)
	case FrameTypeCrypto:
		return parseCryptoFrame(data, p.version)
	case FrameTypeRetireConnectionID:
		return parseRetireConnectionIDFrame(data, p.version)
	default:
		return nil, 0, fmt.Errorf("unknown frame type: %#x", typeByte)
	}
}
