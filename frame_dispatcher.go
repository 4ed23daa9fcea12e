package quivc

import (
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/utils"
	"github.com/quivc/quivc/internal/wire"
)

// The frameDispatcher parses a decrypted payload and routes every frame
// to the handlers registered for its type.
type frameDispatcher struct {
	handlers map[wire.FrameType][]FrameHandler
	parser   *wire.FrameParser
	logger   utils.Logger
}

func newFrameDispatcher(version protocol.Version, logger utils.Logger) *frameDispatcher {
	return &frameDispatcher{
		handlers: make(map[wire.FrameType][]FrameHandler),
		parser:   wire.NewFrameParser(version),
		logger:   logger,
	}
}

// AddHandler registers a handler for all frame types it is interested in.
func (d *frameDispatcher) AddHandler(h FrameHandler) {
	for _, t := range h.Interests() {
		d.handlers[t] = append(d.handlers[t], h)
	}
}

// ReceiveFrames dispatches all frames in payload.
// It reports whether an ACK should be sent for the packet, and whether
// any frame consumed connection flow control credit.
func (d *frameDispatcher) ReceiveFrames(level protocol.EncryptionLevel, payload []byte) (shouldSendAck, isFlowControlled bool, err error) {
	for len(payload) > 0 {
		frame, l, ferr := d.parser.ParseNext(payload)
		if ferr != nil {
			return shouldSendAck, isFlowControlled, ferr
		}
		payload = payload[l:]
		if frame == nil { // only PADDING was left
			break
		}

		if wire.IsAckElicitingFrame(frame) {
			shouldSendAck = true
		}
		if sf, ok := frame.(*wire.StreamFrame); ok && sf.DataLen() > 0 {
			isFlowControlled = true
		}

		t := wire.TypeOf(frame)
		handlers := d.handlers[t]
		if len(handlers) == 0 {
			d.logger.Debugf("no handler for frame type %#x", uint64(t))
			continue
		}
		for _, h := range handlers {
			if herr := h.HandleFrame(level, frame); herr != nil {
				return shouldSendAck, isFlowControlled, herr
			}
		}
	}
	return shouldSendAck, isFlowControlled, nil
}
