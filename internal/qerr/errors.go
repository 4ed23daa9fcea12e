package qerr

import "fmt"

// ErrorClass says whether an error originates from the transport or from
// the application protocol.
type ErrorClass uint8

const (
	// ClassTransport is a QUIC transport error
	ClassTransport ErrorClass = iota
	// ClassApplication is an application protocol error
	ClassApplication
)

func (c ErrorClass) String() string {
	switch c {
	case ClassTransport:
		return "TRANSPORT"
	case ClassApplication:
		return "APPLICATION"
	}
	return "unknown"
}

// A ConnectionError is the error that drives the transition into the
// closing (or draining) state. At most one connection error is recorded
// per connection.
type ConnectionError struct {
	Class     ErrorClass
	Code      uint16
	FrameType uint64 // the type of the offending frame, if any
	Message   string
}

var _ error = &ConnectionError{}

func (e *ConnectionError) Error() string {
	s := fmt.Sprintf("%s (%#x)", e.Class, e.Code)
	if e.Class == ClassTransport {
		s = fmt.Sprintf("%s: %s", e.Class, TransportErrorCode(e.Code))
	}
	if e.Message == "" {
		return s
	}
	return s + ": " + e.Message
}

// IsApplicationError says if this is an application protocol error.
func (e *ConnectionError) IsApplicationError() bool {
	return e.Class == ClassApplication
}

// NewTransportError returns a transport-class connection error.
func NewTransportError(code TransportErrorCode, msg string) *ConnectionError {
	return &ConnectionError{Class: ClassTransport, Code: uint16(code), Message: msg}
}

// NewTransportFrameError returns a transport-class connection error
// carrying the type of the offending frame.
func NewTransportFrameError(code TransportErrorCode, frameType uint64, msg string) *ConnectionError {
	return &ConnectionError{Class: ClassTransport, Code: uint16(code), FrameType: frameType, Message: msg}
}

// NewApplicationError returns an application-class connection error.
func NewApplicationError(code uint16, msg string) *ConnectionError {
	return &ConnectionError{Class: ClassApplication, Code: code, Message: msg}
}

// NewIdleTimeoutError returns the synthetic error used when the
// inactivity timeout fires.
func NewIdleTimeoutError() *ConnectionError {
	return NewTransportError(NoError, "Idle Timeout")
}
