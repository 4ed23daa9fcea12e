package wire

import (
	"github.com/quivc/quivc/internal/protocol"
)

// A Frame in QUIC
type Frame interface {
	Append(b []byte, version protocol.Version) ([]byte, error)
	Length(version protocol.Version) protocol.ByteCount
}

// A FrameType identifies a QUIC frame on the wire.
type FrameType uint64

// Frame types of the draft-13 wire image. RETIRE_CONNECTION_ID is
// backported from draft-14.
const (
	FrameTypePadding           FrameType = 0x00
	FrameTypeConnectionClose   FrameType = 0x02
	FrameTypeApplicationClose  FrameType = 0x03
	FrameTypeMaxData           FrameType = 0x04
	FrameTypeMaxStreamData     FrameType = 0x05
	FrameTypePing              FrameType = 0x07
	FrameTypeBlocked           FrameType = 0x08
	FrameTypeStreamBlocked     FrameType = 0x09
	FrameTypeNewConnectionID   FrameType = 0x0b
	FrameTypeStopSending       FrameType = 0x0c
	FrameTypeAck               FrameType = 0x0d
	FrameTypePathChallenge     FrameType = 0x0e
	FrameTypePathResponse      FrameType = 0x0f
	FrameTypeStream            FrameType = 0x10 // 0x10 - 0x17
	FrameTypeCrypto            FrameType = 0x18
	FrameTypeRetireConnectionID FrameType = 0x1b
)

// TypeOf returns the wire type of a frame.
func TypeOf(f Frame) FrameType {
	switch f.(type) {
	case *ConnectionCloseFrame:
		return FrameTypeConnectionClose
	case *ApplicationCloseFrame:
		return FrameTypeApplicationClose
	case *MaxDataFrame:
		return FrameTypeMaxData
	case *MaxStreamDataFrame:
		return FrameTypeMaxStreamData
	case *PingFrame:
		return FrameTypePing
	case *BlockedFrame:
		return FrameTypeBlocked
	case *StreamBlockedFrame:
		return FrameTypeStreamBlocked
	case *NewConnectionIDFrame:
		return FrameTypeNewConnectionID
	case *AckFrame:
		return FrameTypeAck
	case *PathChallengeFrame:
		return FrameTypePathChallenge
	case *PathResponseFrame:
		return FrameTypePathResponse
	case *StreamFrame:
		return FrameTypeStream
	case *CryptoFrame:
		return FrameTypeCrypto
	case *RetireConnectionIDFrame:
		return FrameTypeRetireConnectionID
	}
	panic("unknown frame")
}

// IsProbingFrame says if a frame may be sent on an unvalidated path.
func IsProbingFrame(f Frame) bool {
	switch f.(type) {
	case *PathChallengeFrame, *PathResponseFrame, *NewConnectionIDFrame:
		return true
	}
	return false
}

// IsAckElicitingFrame says if a frame causes the recipient to queue an
// acknowledgement. Only ACK frames (and PADDING, which is not represented
// as a frame) don't.
func IsAckElicitingFrame(f Frame) bool {
	_, isAck := f.(*AckFrame)
	return !isAck
}
