package quivc

// An event drives the connection state machine. All events are handled on
// the connection's event loop.
type event uint8

const (
	// eventPacketReadReady signals that datagrams are queued in the
	// receive queue.
	eventPacketReadReady event = iota
	// eventPacketWriteReady runs the packetizer.
	eventPacketWriteReady
	// eventPathValidationTimeout checks the path validation result.
	eventPathValidationTimeout
	// eventClosingTimeout moves a closing or draining connection to
	// closed.
	eventClosingTimeout
	// eventShutdown performs the final teardown.
	eventShutdown
	// eventImmediate is the idle timeout. It is produced only by the
	// inactivity timer.
	eventImmediate
)

func (e event) String() string {
	switch e {
	case eventPacketReadReady:
		return "PACKET_READ_READY"
	case eventPacketWriteReady:
		return "PACKET_WRITE_READY"
	case eventPathValidationTimeout:
		return "PATH_VALIDATION_TIMEOUT"
	case eventClosingTimeout:
		return "CLOSING_TIMEOUT"
	case eventShutdown:
		return "SHUTDOWN"
	case eventImmediate:
		return "IMMEDIATE"
	}
	return "UNKNOWN"
}

// connState is the state of the connection state machine. Each state owns
// its transition table in the corresponding state handler; events not
// listed there are rejected with an error log.
type connState uint8

const (
	statePreHandshake connState = iota
	stateHandshake
	stateEstablished
	stateClosing
	stateDraining
	stateClosed
)

func (s connState) String() string {
	switch s {
	case statePreHandshake:
		return "pre_handshake"
	case stateHandshake:
		return "handshake"
	case stateEstablished:
		return "established"
	case stateClosing:
		return "closing"
	case stateDraining:
		return "draining"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}
