package qerr

import "fmt"

// A TransportErrorCode is a QUIC transport-level error code.
type TransportErrorCode uint16

// The error codes defined by the QUIC transport draft
const (
	NoError                 TransportErrorCode = 0x0
	InternalError           TransportErrorCode = 0x1
	ServerBusy              TransportErrorCode = 0x2
	FlowControlError        TransportErrorCode = 0x3
	StreamIDError           TransportErrorCode = 0x4
	StreamStateError        TransportErrorCode = 0x5
	FinalOffsetError        TransportErrorCode = 0x6
	FrameEncodingError      TransportErrorCode = 0x7
	TransportParameterError TransportErrorCode = 0x8
	VersionNegotiationError TransportErrorCode = 0x9
	ProtocolViolation       TransportErrorCode = 0xa
	InvalidMigration        TransportErrorCode = 0xc
)

func (e TransportErrorCode) String() string {
	switch e {
	case NoError:
		return "NO_ERROR"
	case InternalError:
		return "INTERNAL_ERROR"
	case ServerBusy:
		return "SERVER_BUSY"
	case FlowControlError:
		return "FLOW_CONTROL_ERROR"
	case StreamIDError:
		return "STREAM_ID_ERROR"
	case StreamStateError:
		return "STREAM_STATE_ERROR"
	case FinalOffsetError:
		return "FINAL_OFFSET_ERROR"
	case FrameEncodingError:
		return "FRAME_ENCODING_ERROR"
	case TransportParameterError:
		return "TRANSPORT_PARAMETER_ERROR"
	case VersionNegotiationError:
		return "VERSION_NEGOTIATION_ERROR"
	case ProtocolViolation:
		return "PROTOCOL_VIOLATION"
	case InvalidMigration:
		return "INVALID_MIGRATION"
	default:
		return fmt.Sprintf("unknown error code: %#x", uint16(e))
	}
}
