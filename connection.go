package quivc

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/quivc/quivc/internal/ackhandler"
	"github.com/quivc/quivc/internal/flowcontrol"
	"github.com/quivc/quivc/internal/handshake"
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/qerr"
	"github.com/quivc/quivc/internal/utils"
	"github.com/quivc/quivc/internal/wire"
)

// A FiveTuple identifies the UDP path of the connection. The remote side
// is updated on an accepted path migration.
type FiveTuple struct {
	Local  net.Addr
	Remote net.Addr
}

// A remoteAltCID is an unused connection ID the peer issued via
// NEW_CONNECTION_ID.
type remoteAltCID struct {
	seq   uint64
	id    protocol.ConnectionID
	token protocol.StatelessResetToken
}

// A Conn owns a single QUIC connection's lifetime, from handshake through
// established data transfer, migration, and closure. It is thread-affine:
// all state transitions run on its event loop. The only cross-thread
// entry points are HandleReceivedPacket, Close and RemoveConnectionIDs.
type Conn struct {
	perspective protocol.Perspective
	version     protocol.Version
	config      *Config

	localCID         protocol.ConnectionID
	peerCID          protocol.ConnectionID
	originalCID      protocol.ConnectionID
	resetToken       protocol.StatelessResetToken
	remoteAltCIDs    []remoteAltCID
	activePeerCIDSeq int64 // sequence number of the adopted peer CID, -1 for the handshake CID
	retiredLocalCIDs []protocol.ConnectionID

	fiveTuple FiveTuple
	pmtu      protocol.ByteCount

	table  *ConnTable
	sender PacketHandler

	engine        HandshakeEngine
	streams       StreamManager
	protection    *packetProtection
	dispatcher    *frameDispatcher
	lossDetectors [protocol.NumPacketNumberSpaces]LossDetector
	congestion    CongestionController
	retransmitter *retransmissionQueue
	localFC       *flowcontrol.LocalFlowController
	remoteFC      *flowcontrol.RemoteFlowController
	validator     *pathValidator
	altCIDs       *altConnIDManager
	ackCreator    *ackhandler.AckFrameCreator
	recvQueue     *packetReceiveQueue
	rttStats      *utils.RTTStats
	rnd           *utils.Rand

	state   connState
	connErr *qerr.ConnectionError

	// pnSpaces holds the next packet number per packet number space.
	pnSpaces [protocol.NumPacketNumberSpaces]protocol.PacketNumber

	// packetTxMutex protects the packetizer state and the write-ready
	// timer; frameTxMutex serializes frame emission. Lock ordering:
	// packetTxMutex before frameTxMutex, always.
	packetTxMutex sync.Mutex
	frameTxMutex  sync.Mutex

	calls      chan func()
	readReadyC chan struct{}
	shutdownC  chan struct{}
	done       chan struct{}
	runStopped chan struct{}

	writeReadyTimer     *utils.Timer
	writeReadyArmed     bool
	closingTimer        *utils.Timer
	closingTimerArmed   bool
	pathValidationTimer *utils.Timer
	pathValidationArmed bool
	idleTimer           *utils.Timer
	idleTimeout         time.Duration

	srcAddrVerified        bool
	shutdownDone           bool
	handshakePacketsSent   int
	streamFramesSent       uint32
	closingRecvPacketCount uint32
	closingRecvPacketWind  uint32
	closingPacketsSent     int
	finalPacket            []byte
	migrationInitiated     bool
	applicationStarted     bool
	creationTime           time.Time
	lastReceivedPacketType protocol.PacketType
	flowControlBufferSize  protocol.ByteCount

	cids   string
	logger utils.Logger
}

// Accept creates a server-side connection for the first Initial packet of
// a new connection. originalCID is the destination connection ID of that
// Initial; peerCID its source connection ID. Initialization may run on
// the demultiplexer thread; Start binds the connection to its event loop.
func Accept(peerCID, originalCID protocol.ConnectionID, local, remote net.Addr, sender PacketHandler, table *ConnTable, conf *Config) (*Conn, error) {
	return newConnection(protocol.PerspectiveServer, peerCID, originalCID, local, remote, sender, table, conf)
}

// Dial creates a client-side connection. The original connection ID, used
// as the destination of the first Initial and as input to the Initial key
// derivation, is generated randomly.
func Dial(local, remote net.Addr, sender PacketHandler, table *ConnTable, conf *Config) (*Conn, error) {
	originalCID, err := protocol.GenerateConnectionID(protocol.DefaultConnectionIDLength)
	if err != nil {
		return nil, err
	}
	return newConnection(protocol.PerspectiveClient, nil, originalCID, local, remote, sender, table, conf)
}

func newConnection(pers protocol.Perspective, peerCID, originalCID protocol.ConnectionID, local, remote net.Addr, sender PacketHandler, table *ConnTable, conf *Config) (*Conn, error) {
	localCID, err := protocol.GenerateConnectionID(protocol.DefaultConnectionIDLength)
	if err != nil {
		return nil, err
	}
	c := &Conn{
		perspective:           pers,
		version:               protocol.VersionDraft13,
		config:                populateConfig(conf),
		localCID:              localCID,
		peerCID:               peerCID,
		originalCID:           originalCID,
		activePeerCIDSeq:      -1,
		fiveTuple:             FiveTuple{Local: local, Remote: remote},
		pmtu:                  1280,
		table:                 table,
		sender:                sender,
		retransmitter:         newRetransmissionQueue(),
		rttStats:              &utils.RTTStats{},
		rnd:                   utils.NewRand(),
		ackCreator:            ackhandler.NewAckFrameCreator(),
		state:                 statePreHandshake,
		calls:                 make(chan func(), 16),
		readReadyC:            make(chan struct{}, 1),
		shutdownC:             make(chan struct{}, 1),
		done:                  make(chan struct{}),
		runStopped:            make(chan struct{}),
		writeReadyTimer:       utils.NewTimer(),
		closingTimer:          utils.NewTimer(),
		pathValidationTimer:   utils.NewTimer(),
		idleTimer:             utils.NewTimer(),
		closingRecvPacketWind: 1,
		creationTime:          time.Now(),
		srcAddrVerified:       pers == protocol.PerspectiveClient,
		flowControlBufferSize: protocol.DefaultConnectionFlowControlWindow,
	}
	c.updateCIDs()

	if c.table != nil {
		c.table.Insert(c.localCID, c)
		c.table.Insert(c.originalCID, c)
	}

	c.logger.Debugf("dcid=%s scid=%s", c.peerCID, c.localCID)
	return c, nil
}

// Start wires up the subsidiary components and moves the connection onto
// its event loop. It must be called exactly once.
func (c *Conn) Start() error {
	if err := c.setup(); err != nil {
		return err
	}
	go c.run()
	c.scheduleWriteReady(false)
	return nil
}

// setup constructs and cross-registers the subsidiary components.
func (c *Conn) setup() error {
	if c.config.NewHandshakeEngine == nil {
		return errors.New("quivc: config must provide a handshake engine")
	}
	if c.config.NewStreamManager == nil {
		return errors.New("quivc: config must provide a stream manager")
	}

	if c.perspective == protocol.PerspectiveServer {
		c.resetToken = handshake.GenerateStatelessResetToken(c.localCID, c.config.ServerID)
		c.engine = c.config.NewHandshakeEngine(c, c.config.ServerTLSConfig)
	} else {
		c.engine = c.config.NewHandshakeEngine(c, c.config.ClientTLSConfig)
	}
	if err := c.engine.InitializeKeyMaterials(c.originalCID); err != nil {
		return err
	}

	c.protection = &packetProtection{engine: c.engine}
	c.recvQueue = newPacketReceiveQueue(c.protection, func() int { return c.localCID.Len() }, c.logger)
	c.dispatcher = newFrameDispatcher(c.version, c.logger)
	c.congestion = c.config.NewCongestionController(c)
	c.localFC = flowcontrol.NewLocalFlowController(protocol.DefaultConnectionFlowControlWindow, c.logger)
	c.remoteFC = flowcontrol.NewRemoteFlowController(protocol.DefaultConnectionFlowControlWindow, c.logger)
	c.validator = newPathValidator(c.rnd, c.logger)
	c.streams = c.config.NewStreamManager(c)

	for _, space := range protocol.PacketNumberSpaces {
		ld := c.config.NewLossDetector(c, space)
		c.lossDetectors[space] = ld
		c.dispatcher.AddHandler(ld)
	}
	c.dispatcher.AddHandler(c)
	c.dispatcher.AddHandler(c.streams)
	c.dispatcher.AddHandler(c.validator)
	c.dispatcher.AddHandler(c.engine)

	if c.perspective == protocol.PerspectiveClient {
		if err := c.engine.Start(nil); err != nil {
			return err
		}
		if err := c.engine.DoHandshake(); err != nil {
			return err
		}
	}

	if c.config.Metrics != nil {
		c.config.Metrics.ConnectionStarted(c.perspective)
	}
	if c.config.Tracer != nil {
		c.config.Tracer.StartedConnection(c.perspective, c.localCID, c.peerCID)
	}
	return nil
}

// run is the connection's event loop. All state transitions happen here.
func (c *Conn) run() {
	defer close(c.runStopped)
	for {
		select {
		case <-c.done:
			return
		case f := <-c.calls:
			f()
		case <-c.readReadyC:
			c.handleEvent(eventPacketReadReady)
		case <-c.writeReadyTimer.Chan():
			c.writeReadyTimer.SetRead()
			c.handleEvent(eventPacketWriteReady)
		case <-c.closingTimer.Chan():
			c.closingTimer.SetRead()
			c.handleEvent(eventClosingTimeout)
		case <-c.pathValidationTimer.Chan():
			c.pathValidationTimer.SetRead()
			c.handleEvent(eventPathValidationTimeout)
		case <-c.idleTimer.Chan():
			c.idleTimer.SetRead()
			c.handleEvent(eventImmediate)
		case <-c.shutdownC:
			c.handleEvent(eventShutdown)
		}
		select {
		case <-c.done:
			return
		default:
		}
	}
}

// handleEvent dispatches an event to the current state's handler.
func (c *Conn) handleEvent(ev event) {
	switch c.state {
	case statePreHandshake:
		c.statePreHandshake(ev)
	case stateHandshake:
		c.stateHandshake(ev)
	case stateEstablished:
		c.stateEstablished(ev)
	case stateClosing:
		c.stateClosing(ev)
	case stateDraining:
		c.stateDraining(ev)
	case stateClosed:
		c.stateClosed(ev)
	}
}

// HandleReceivedPacket enqueues a raw datagram for this connection. It
// may be called from the demultiplexer thread.
func (c *Conn) HandleReceivedPacket(data []byte, from net.Addr) {
	if !c.recvQueue.Enqueue(data, from) {
		if c.config.Metrics != nil {
			c.config.Metrics.PacketDropped("receive_queue_full")
		}
		return
	}
	select {
	case c.readReadyC <- struct{}{}:
	default:
	}
}

// Close closes the connection with an error. The CLOSE frame is flushed
// from the event loop; calling Close again while closing, draining or
// closed is a no-op. Close may be called from any thread.
func (c *Conn) Close(err *qerr.ConnectionError) {
	select {
	case c.calls <- func() { c.close(err) }:
	case <-c.done:
	}
}

func (c *Conn) close(err *qerr.ConnectionError) {
	switch c.state {
	case stateClosing, stateDraining, stateClosed:
		// do nothing
	default:
		c.switchToClosing(err)
	}
}

// RemoveConnectionIDs removes this connection's bindings from the
// demultiplexer table. It may be called from the demultiplexer thread on
// shutdown.
func (c *Conn) RemoveConnectionIDs() {
	if c.altCIDs != nil {
		c.altCIDs.InvalidateAltConnections()
	}
	if c.table != nil {
		c.table.Erase(c.originalCID, c)
		c.table.Erase(c.localCID, c)
		for _, id := range c.retiredLocalCIDs {
			c.table.Erase(id, c)
		}
	}
}

// ----- accessors -----

// Perspective says if this is a server or a client connection.
func (c *Conn) Perspective() protocol.Perspective { return c.perspective }

// LocalConnectionID is the connection ID the peer addresses us with.
func (c *Conn) LocalConnectionID() protocol.ConnectionID { return c.localCID }

// PeerConnectionID is the connection ID we address the peer with.
func (c *Conn) PeerConnectionID() protocol.ConnectionID { return c.peerCID }

// OriginalConnectionID is the destination connection ID of the first
// Initial packet.
func (c *Conn) OriginalConnectionID() protocol.ConnectionID { return c.originalCID }

// FiveTuple returns the current UDP path.
func (c *Conn) FiveTuple() FiveTuple { return c.fiveTuple }

// IsClosed says if the connection reached the closed state.
func (c *Conn) IsClosed() bool { return c.state == stateClosed }

// CIDs returns the abbreviated dcid-scid pair used as the log prefix.
func (c *Conn) CIDs() string { return c.cids }

// StatelessResetToken is the reset token bound to the current local
// connection ID. The handshake engine advertises it in the transport
// parameters.
func (c *Conn) StatelessResetToken() protocol.StatelessResetToken { return c.resetToken }

// StatelessRetryEnabled says if the server performs a stateless retry.
// Consulted by the handshake engine.
func (c *Conn) StatelessRetryEnabled() bool { return c.config.StatelessRetry }

// VNExerciseEnabled says if a client offers an unsupported version first
// to exercise version negotiation. Consulted by the handshake engine.
func (c *Conn) VNExerciseEnabled() bool { return c.config.VNExerciseEnabled }

// LargestAckedPacketNumber returns the largest acked packet number in the
// packet number space of the given encryption level.
func (c *Conn) LargestAckedPacketNumber(level protocol.EncryptionLevel) protocol.PacketNumber {
	return c.lossDetectors[protocol.SpaceFromEncryptionLevel(level)].LargestAckedPacketNumber()
}

func (c *Conn) congestionFeedback() ackhandler.CongestionFeedback {
	if fb, ok := c.congestion.(ackhandler.CongestionFeedback); ok {
		return fb
	}
	return nopCongestionFeedback{}
}

type nopCongestionFeedback struct{}

func (nopCongestionFeedback) OnPacketSent(protocol.ByteCount)  {}
func (nopCongestionFeedback) OnPacketAcked(protocol.ByteCount) {}
func (nopCongestionFeedback) OnPacketLost(protocol.ByteCount)  {}

// ----- state handlers -----

func (c *Conn) statePreHandshake(ev event) {
	if c.perspective == protocol.PerspectiveServer {
		c.setIdleTimeout(c.config.NoActivityTimeoutIn)
	} else {
		c.setIdleTimeout(c.config.NoActivityTimeoutOut)
	}
	c.switchToHandshake()
	c.handleEvent(ev)
}

func (c *Conn) stateHandshake(ev event) {
	if c.engine != nil && c.engine.IsCompleted() {
		if c.switchToEstablished() {
			c.handleEvent(ev)
			return
		}
	}

	var err *qerr.ConnectionError

	switch ev {
	case eventPacketReadReady:
		c.onNetActivity()
		for {
			var result PacketCreationResult
			var p *ReceivedPacket
			p, result = c.dequeueRecvPacket()
			switch result {
			case PacketCreationNotReady:
				err = nil
			case PacketCreationFailed:
				err = qerr.NewTransportError(qerr.InternalError, "packet decryption failed")
			case PacketCreationSuccess, PacketCreationUnsupported:
				err = c.stateHandshakeProcessPacket(p)
			}

			// if the handshake completed, switch to established
			if c.engine != nil && c.engine.IsCompleted() {
				if c.switchToEstablished() {
					c.handleEvent(ev)
					return
				}
			}

			if !(err == nil && (result == PacketCreationSuccess || result == PacketCreationIgnored)) {
				break
			}
		}
	case eventPacketWriteReady:
		c.clearWriteReady()
		err = c.sendPackets()
		c.scheduleWriteReady(true)
	case eventPathValidationTimeout:
		c.handlePathValidationTimeout()
	case eventImmediate:
		// immediate close because of the idle timeout
		c.handleIdleTimeout()
	default:
		c.logger.Errorf("unexpected event in %s: %s", c.state, ev)
	}

	if err != nil {
		c.handleError(err)
	}
}

func (c *Conn) stateEstablished(ev event) {
	var err *qerr.ConnectionError
	switch ev {
	case eventPacketReadReady:
		err = c.stateEstablishedReceivePackets()
	case eventPacketWriteReady:
		c.clearWriteReady()
		err = c.sendPackets()
		c.scheduleWriteReady(true)
	case eventPathValidationTimeout:
		c.handlePathValidationTimeout()
	case eventImmediate:
		// immediate close because of the idle timeout
		c.handleIdleTimeout()
	default:
		c.logger.Errorf("unexpected event in %s: %s", c.state, ev)
	}

	if err != nil {
		c.logger.Debugf("connection error: cls=%s, code=%#x", err.Class, err.Code)
		c.handleError(err)
	}
}

func (c *Conn) stateClosing(ev event) {
	switch ev {
	case eventPacketReadReady:
		c.stateClosingReceivePackets()
	case eventPacketWriteReady:
		c.clearWriteReady()
		c.stateClosingSendPacket()
	case eventPathValidationTimeout:
		c.handlePathValidationTimeout()
	case eventClosingTimeout:
		c.closingTimerArmed = false
		c.switchToClosed()
	default:
		c.logger.Errorf("unexpected event in %s: %s", c.state, ev)
	}
}

func (c *Conn) stateDraining(ev event) {
	switch ev {
	case eventPacketReadReady:
		c.stateDrainingReceivePackets()
	case eventPacketWriteReady:
		// Do not send any packets in this state.
		// This is the only difference between draining and closing.
		c.clearWriteReady()
	case eventPathValidationTimeout:
		c.handlePathValidationTimeout()
	case eventClosingTimeout:
		c.closingTimerArmed = false
		c.switchToClosed()
	default:
		c.logger.Errorf("unexpected event in %s: %s", c.state, ev)
	}
}

func (c *Conn) stateClosed(ev event) {
	switch ev {
	case eventShutdown:
		if c.shutdownDone {
			return
		}
		c.shutdownDone = true
		c.unscheduleWriteReady()
		c.unscheduleClosingTimeout()
		c.unschedulePathValidationTimeout()
		c.setIdleTimeout(0)

		// teardown in reverse construction order
		for _, space := range protocol.PacketNumberSpaces {
			if ld := c.lossDetectors[space]; ld != nil {
				ld.Shutdown()
			}
		}
		c.RemoveConnectionIDs()
		if c.config.Metrics != nil {
			reason := "error"
			if c.connErr == nil || qerr.TransportErrorCode(c.connErr.Code) == qerr.NoError {
				reason = "clean"
			}
			c.config.Metrics.ConnectionClosed(c.perspective, reason)
		}
		if c.config.Tracer != nil {
			reason := ""
			if c.connErr != nil {
				reason = c.connErr.Error()
			}
			c.config.Tracer.ClosedConnection(reason)
		}
		if c.sender != nil {
			c.sender.CloseConnection(c)
		}
		close(c.done)
	case eventPacketWriteReady:
		c.clearWriteReady()
	default:
		c.logger.Errorf("unexpected event in %s: %s", c.state, ev)
	}
}

// ----- handshake state packet processing -----

func (c *Conn) stateHandshakeProcessPacket(p *ReceivedPacket) *qerr.ConnectionError {
	switch p.Type {
	case protocol.PacketTypeVersionNegotiation:
		return c.stateHandshakeProcessVersionNegotiationPacket(p)
	case protocol.PacketTypeInitial:
		return c.stateHandshakeProcessInitialPacket(p)
	case protocol.PacketTypeRetry:
		return c.stateHandshakeProcessRetryPacket(p)
	case protocol.PacketTypeHandshake:
		return c.stateHandshakeProcessHandshakePacket(p)
	case protocol.PacketType0RTT:
		return c.stateHandshakeProcessZeroRTTPacket(p)
	default:
		c.logger.Debugf("ignoring %s packet in handshake state", p.Type)
		return qerr.NewTransportError(qerr.InternalError, "")
	}
}

func (c *Conn) stateHandshakeProcessVersionNegotiationPacket(p *ReceivedPacket) *qerr.ConnectionError {
	if !p.DestConnectionID.Equal(c.localCID) {
		c.logger.Debugf("ignoring Version Negotiation packet")
		return nil
	}
	if c.engine.IsVersionNegotiated() {
		c.logger.Debugf("ignoring Version Negotiation packet, version already negotiated")
		return nil
	}

	if err := c.engine.NegotiateVersion(p.SupportedVersions); err != nil {
		return qerr.NewTransportError(qerr.VersionNegotiationError, err.Error())
	}

	// discard all transport state except packet numbers
	for _, space := range protocol.PacketNumberSpaces {
		c.lossDetectors[space].Reset()
	}
	c.congestion.Reset()
	c.packetTxMutex.Lock()
	c.retransmitter.Reset()
	c.packetTxMutex.Unlock()

	// start the handshake over
	c.engine.Reset()
	if err := c.engine.DoHandshake(); err != nil {
		return qerr.NewTransportError(qerr.InternalError, err.Error())
	}
	c.scheduleWriteReady(false)
	return nil
}

func (c *Conn) stateHandshakeProcessInitialPacket(p *ReceivedPacket) *qerr.ConnectionError {
	if c.perspective == protocol.PerspectiveServer {
		if err := c.engine.Start(p); err != nil {
			return qerr.NewTransportError(qerr.InternalError, err.Error())
		}
		// If version negotiation failed, a Version Negotiation packet was
		// sent and there is nothing left to do.
		if !c.engine.IsVersionNegotiated() {
			return nil
		}
		if err := c.recvAndAck(p); err != nil {
			return err
		}
		if !c.engine.HasRemoteTransportParameters() {
			return qerr.NewTransportError(qerr.TransportParameterError, "")
		}
		return nil
	}
	// on the client side the handshake is already started, process the
	// packet like a Handshake packet
	return c.recvAndAck(p)
}

func (c *Conn) stateHandshakeProcessRetryPacket(p *ReceivedPacket) *qerr.ConnectionError {
	// discard all transport state
	c.engine.Reset()
	for _, space := range protocol.PacketNumberSpaces {
		c.lossDetectors[space].Reset()
	}
	c.congestion.Reset()
	c.packetTxMutex.Lock()
	c.retransmitter.Reset()
	c.packetTxMutex.Unlock()

	err := c.recvAndAck(p)

	c.recvQueue.Reset()

	// the next Initial uses a newly randomized original connection ID,
	// and the Initial keys are re-derived from it
	if rerr := c.rerandomizeOriginalCID(); rerr != nil {
		return qerr.NewTransportError(qerr.InternalError, rerr.Error())
	}
	if kerr := c.engine.InitializeKeyMaterials(c.originalCID); kerr != nil {
		return qerr.NewTransportError(qerr.InternalError, kerr.Error())
	}
	return err
}

func (c *Conn) stateHandshakeProcessHandshakePacket(p *ReceivedPacket) *qerr.ConnectionError {
	// The source address is verified by receiving any message from the
	// client encrypted using the Handshake keys.
	if c.perspective == protocol.PerspectiveServer && !c.srcAddrVerified {
		c.srcAddrVerified = true
	}
	return c.recvAndAck(p)
}

func (c *Conn) stateHandshakeProcessZeroRTTPacket(p *ReceivedPacket) *qerr.ConnectionError {
	c.streams.InitFlowControlParams(c.engine.LocalTransportParameters(), c.engine.RemoteTransportParameters())
	c.startApplication()
	return c.recvAndAck(p)
}

// ----- established state packet processing -----

func (c *Conn) stateEstablishedReceivePackets() *qerr.ConnectionError {
	var err *qerr.ConnectionError
	c.onNetActivity()
	for {
		p, result := c.dequeueRecvPacket()
		switch result {
		case PacketCreationFailed:
			return qerr.NewTransportError(qerr.InternalError, "packet decryption failed")
		case PacketCreationNoPacket, PacketCreationNotReady:
			return err
		case PacketCreationIgnored, PacketCreationUnsupported:
			continue
		}

		switch p.Type {
		case protocol.PacketTypeProtected:
			// migrate the connection if required
			err = c.stateEstablishedMigrateConnection(p)
			if err != nil {
				break
			}
			if c.perspective == protocol.PerspectiveClient {
				c.stateEstablishedInitiateConnectionMigration()
			}
			err = c.recvAndAck(p)
		case protocol.PacketTypeInitial, protocol.PacketTypeHandshake, protocol.PacketType0RTT:
			// ack the packet; stale stream data is discarded by offset
			// mismatch in the stream manager
			err = c.recvAndAck(p)
		default:
			c.logger.Debugf("unexpected packet type in established state: %s", p.Type)
			err = qerr.NewTransportError(qerr.InternalError, "")
		}

		if err != nil {
			return err
		}
	}
}

func (c *Conn) stateClosingReceivePackets() {
	for c.recvQueue.Size() > 0 {
		p, result := c.dequeueRecvPacket()
		if result == PacketCreationSuccess {
			switch p.Type {
			case protocol.PacketTypeVersionNegotiation:
				// ignore Version Negotiation packets in the closing state
			default:
				c.recvAndAck(p)
			}
		}
		c.closingRecvPacketCount++

		// A packet containing the closing frame MAY be re-emitted in
		// response to incoming packets, with backoff: the receive window
		// doubles after each emission.
		if c.closingRecvPacketWind < protocol.MaxClosingRecvWindow &&
			c.closingRecvPacketCount >= c.closingRecvPacketWind {
			c.closingRecvPacketCount = 0
			c.closingRecvPacketWind <<= 1

			c.scheduleWriteReady(true)
			break
		}
	}
}

func (c *Conn) stateDrainingReceivePackets() {
	for c.recvQueue.Size() > 0 {
		p, result := c.dequeueRecvPacket()
		if result == PacketCreationSuccess {
			c.recvAndAck(p)
			// An endpoint in the draining state MUST NOT send any packets,
			// so no write is scheduled here.
		}
	}
}

// ----- frame handling (connection level) -----

// Interests registers the connection for the connection-level frames.
func (c *Conn) Interests() []wire.FrameType {
	return []wire.FrameType{
		wire.FrameTypeApplicationClose,
		wire.FrameTypeConnectionClose,
		wire.FrameTypeBlocked,
		wire.FrameTypeMaxData,
		wire.FrameTypeNewConnectionID,
		wire.FrameTypePing,
	}
}

// HandleFrame processes a connection-level frame.
func (c *Conn) HandleFrame(_ protocol.EncryptionLevel, frame wire.Frame) error {
	switch f := frame.(type) {
	case *wire.MaxDataFrame:
		c.remoteFC.ForwardLimit(f.MaximumData)
		c.logger.Debugf("[REMOTE] %d/%d", c.remoteFC.CurrentOffset(), c.remoteFC.CurrentLimit())
		c.scheduleWriteReady(false)
	case *wire.PingFrame:
		// nothing to do
	case *wire.BlockedFrame:
		// the BLOCKED frame is informational, nothing to do
	case *wire.NewConnectionIDFrame:
		return c.handleNewConnectionIDFrame(f)
	case *wire.ApplicationCloseFrame:
		if c.state == stateClosed || c.state == stateDraining {
			return nil
		}
		c.switchToDraining(qerr.NewApplicationError(f.ErrorCode, f.ReasonPhrase))
	case *wire.ConnectionCloseFrame:
		if c.state == stateClosed || c.state == stateDraining {
			return nil
		}
		c.switchToDraining(qerr.NewTransportError(qerr.TransportErrorCode(f.ErrorCode), f.ReasonPhrase))
	default:
		c.logger.Debugf("unexpected frame type: %#x", uint64(wire.TypeOf(frame)))
	}
	return nil
}

func (c *Conn) handleNewConnectionIDFrame(f *wire.NewConnectionIDFrame) error {
	if f.ConnectionID.Len() == 0 {
		return qerr.NewTransportFrameError(qerr.ProtocolViolation, uint64(wire.FrameTypeNewConnectionID), "received zero-length cid")
	}
	c.remoteAltCIDs = append(c.remoteAltCIDs, remoteAltCID{
		seq:   f.SequenceNumber,
		id:    f.ConnectionID,
		token: f.StatelessResetToken,
	})
	return nil
}

// ----- receive plumbing -----

// recvAndAck dispatches the frames of a packet, performs the
// connection-level flow control accounting and updates the ack creator.
func (c *Conn) recvAndAck(p *ReceivedPacket) *qerr.ConnectionError {
	level := p.EncryptionLevel()

	shouldSendAck, isFlowControlled, err := c.dispatcher.ReceiveFrames(level, p.Payload)
	if err != nil {
		return asConnError(err)
	}

	// a Retry packet never elicits an ack
	if p.Type == protocol.PacketTypeRetry {
		shouldSendAck = false
	}

	if isFlowControlled {
		if err := c.localFC.Update(c.streams.TotalOffsetReceived()); err != nil {
			return asConnError(err)
		}
		c.logger.Debugf("[LOCAL] %d/%d", c.localFC.CurrentOffset(), c.localFC.CurrentLimit())

		c.localFC.ForwardLimit(c.streams.TotalReorderedBytes() + c.flowControlBufferSize)
	}

	c.ackCreator.Update(level, p.PacketNumber, shouldSendAck)
	return nil
}

// dequeueRecvPacket takes the next packet off the receive queue.
func (c *Conn) dequeueRecvPacket() (*ReceivedPacket, PacketCreationResult) {
	p, result := c.recvQueue.Dequeue()

	if result == PacketCreationSuccess {
		if c.perspective == protocol.PerspectiveClient {
			// adopt the connection ID a server sent back
			if p.SrcConnectionID.Len() > 0 && !p.SrcConnectionID.Equal(c.peerCID) {
				c.updatePeerCID(p.SrcConnectionID)
			}
		}
		c.lastReceivedPacketType = p.Type

		if c.config.Metrics != nil {
			c.config.Metrics.PacketReceived(p.Size)
		}
		if c.config.Tracer != nil {
			c.config.Tracer.ReceivedPacket(p.Type, p.PacketNumber, p.Size)
		}
		c.logger.Debugf("[RX] %s packet #%d size=%d", p.Type, p.PacketNumber, p.Size)
	}
	return p, result
}

// ----- handshake completion & application -----

// completeHandshakeIfPossible initializes the flow control limits and
// starts the application, provided the handshake actually completed.
func (c *Conn) completeHandshakeIfPossible() bool {
	if c.state != stateHandshake {
		return c.state == stateEstablished
	}
	if c.engine == nil || !c.engine.IsCompleted() {
		return false
	}
	if c.perspective == protocol.PerspectiveClient && !c.engine.HasRemoteTransportParameters() {
		return false
	}

	c.initFlowControlParams(c.engine.LocalTransportParameters(), c.engine.RemoteTransportParameters())
	c.startApplication()
	return true
}

func (c *Conn) initFlowControlParams(local, remote *handshake.TransportParameters) {
	c.streams.InitFlowControlParams(local, remote)

	if local != nil && local.InitialMaxData > 0 {
		c.flowControlBufferSize = local.InitialMaxData
		c.localFC.SetLimit(local.InitialMaxData)
	}
	if remote != nil {
		c.remoteFC.SetLimit(remote.InitialMaxData)
	}
	c.logger.Debugf("[LOCAL] %d/%d", c.localFC.CurrentOffset(), c.localFC.CurrentLimit())
	c.logger.Debugf("[REMOTE] %d/%d", c.remoteFC.CurrentOffset(), c.remoteFC.CurrentLimit())
}

func (c *Conn) startApplication() {
	if c.applicationStarted {
		return
	}
	c.applicationStarted = true

	name := c.engine.NegotiatedApplication()
	app, ok := c.config.Applications[name]
	if !ok {
		app = c.config.Applications[""]
	}
	if app == nil {
		c.handleError(qerr.NewTransportError(qerr.VersionNegotiationError, fmt.Sprintf("no endpoint for application protocol %q", name)))
		return
	}

	if c.perspective == protocol.PerspectiveServer {
		app.HandleAccept(c)
	} else {
		app.HandleOpen(c)
	}
}

// ----- state transitions -----

func (c *Conn) setState(s connState) {
	c.state = s
	if c.config.Tracer != nil {
		c.config.Tracer.UpdatedState(s.String())
	}
}

func (c *Conn) switchToHandshake() {
	c.logger.Debugf("entering state %s", stateHandshake)
	c.setState(stateHandshake)
}

func (c *Conn) switchToEstablished() bool {
	if !c.completeHandshakeIfPossible() {
		return false
	}
	c.logger.Debugf("entering state %s", stateEstablished)
	c.logger.Debugf("negotiated cipher suite: %s", c.engine.NegotiatedCipherSuite())
	c.setState(stateEstablished)

	if c.config.Metrics != nil {
		c.config.Metrics.HandshakeCompleted(c.perspective, time.Since(c.creationTime))
	}

	remoteTP := c.engine.RemoteTransportParameters()
	migrationDisabled := remoteTP != nil && remoteTP.DisableMigration
	if c.perspective == protocol.PerspectiveServer || (c.config.CMExerciseEnabled && !migrationDisabled) {
		altCIDs, err := newAltConnIDManager(c, c.table, c.config.NumAltConnectionIDs, c.config.ServerID, c.logger)
		if err != nil {
			c.logger.Errorf("failed to install the alt connection ID manager: %s", err)
		} else {
			c.altCIDs = altCIDs
		}
	}
	return true
}

func (c *Conn) switchToClosing(err *qerr.ConnectionError) {
	if !c.completeHandshakeIfPossible() {
		c.logger.Debugf("switching state without handshake completion")
	}
	if err.Message != "" {
		c.logger.Debugf("close reason: %s", err.Message)
	}

	c.connErr = err
	c.scheduleWriteReady(false)

	c.setIdleTimeout(0)

	rto := c.currentRTOPeriod()

	c.logger.Debugf("entering state %s", stateClosing)
	c.setState(stateClosing)
	c.closingRecvPacketCount = 0
	c.closingRecvPacketWind = 1

	// the closing state persists for three times the current
	// retransmission timeout
	c.scheduleClosingTimeout(3 * rto)
}

func (c *Conn) switchToDraining(err *qerr.ConnectionError) {
	if !c.completeHandshakeIfPossible() {
		c.logger.Debugf("switching state without handshake completion")
	}
	if err.Message != "" {
		c.logger.Debugf("draining reason: %s", err.Message)
	}

	c.connErr = err
	c.setIdleTimeout(0)

	rto := c.currentRTOPeriod()

	c.logger.Debugf("entering state %s", stateDraining)
	c.setState(stateDraining)

	c.scheduleClosingTimeout(3 * rto)
}

func (c *Conn) switchToClosed() {
	c.unscheduleClosingTimeout()
	c.unschedulePathValidationTimeout()

	if !c.completeHandshakeIfPossible() {
		c.logger.Debugf("switching state without handshake completion")
	}
	c.logger.Debugf("entering state %s", stateClosed)
	c.setState(stateClosed)
	c.scheduleClosedEvent()
}

func (c *Conn) currentRTOPeriod() time.Duration {
	level := protocol.Encryption1RTT
	if c.engine != nil {
		level = c.engine.CurrentEncryptionLevel()
	}
	ld := c.lossDetectors[protocol.SpaceFromEncryptionLevel(level)]
	if ld == nil {
		return utils.MinRTOTimeout
	}
	return ld.CurrentRTOPeriod()
}

func (c *Conn) handleError(err *qerr.ConnectionError) {
	if err.IsApplicationError() {
		c.logger.Errorf("connection error: %s, APPLICATION ERROR (%#x)", err.Class, err.Code)
	} else {
		c.logger.Errorf("connection error: %s, %s (%#x)", err.Class, qerr.TransportErrorCode(err.Code), err.Code)
	}
	c.close(err)
}

func (c *Conn) handleIdleTimeout() {
	c.switchToDraining(qerr.NewIdleTimeoutError())
}

func (c *Conn) handlePathValidationTimeout() {
	c.pathValidationArmed = false
	if !c.validator.IsValidated() {
		c.switchToClosed()
	}
}

// ----- connection migration -----

func (c *Conn) stateEstablishedMigrateConnection(p *ReceivedPacket) *qerr.ConnectionError {
	dcid := p.DestConnectionID
	if dcid.Equal(c.localCID) {
		return nil
	}
	if c.altCIDs == nil {
		return nil
	}

	if c.perspective == protocol.PerspectiveServer {
		if len(c.remoteAltCIDs) == 0 {
			c.logger.Debugf("ignoring connection migration, the peer initiated it before sending NEW_CONNECTION_ID frames")
			return nil
		}
		c.logger.Debugf("connection migration initiated by the peer")
	}

	token, ok := c.altCIDs.MigrateTo(dcid)
	if !ok {
		c.logger.Debugf("connection migration failed, cid=%s", dcid)
		return nil
	}
	c.resetToken = token
	c.updateLocalCID(dcid)

	// on the client side there is nothing more to do
	if c.perspective == protocol.PerspectiveServer {
		c.fiveTuple.Remote = p.From
		c.adoptNextPeerAltCID()
		c.validateNewPath()
	}
	return nil
}

// stateEstablishedInitiateConnectionMigration is the client-side
// connection migration exercise.
func (c *Conn) stateEstablishedInitiateConnectionMigration() {
	remoteTP := c.engine.RemoteTransportParameters()
	migrationDisabled := remoteTP != nil && remoteTP.DisableMigration

	if !c.config.CMExerciseEnabled || c.migrationInitiated || migrationDisabled ||
		len(c.remoteAltCIDs) == 0 ||
		(c.altCIDs != nil && c.altCIDs.WillGenerateFrame(protocol.Encryption1RTT)) {
		return
	}

	c.logger.Debugf("initiating connection migration")
	c.migrationInitiated = true

	c.adoptNextPeerAltCID()
	c.validateNewPath()
}

// adoptNextPeerAltCID consumes the front of the peer's alternative
// connection IDs as the new peer connection ID and schedules retirement
// of the previous one.
func (c *Conn) adoptNextPeerAltCID() {
	next := c.remoteAltCIDs[0]
	c.remoteAltCIDs = c.remoteAltCIDs[1:]
	if c.activePeerCIDSeq >= 0 && c.altCIDs != nil {
		c.altCIDs.QueueRetirement(uint64(c.activePeerCIDSeq))
	}
	c.activePeerCIDSeq = int64(next.seq)
	c.updatePeerCID(next.id)
}

func (c *Conn) validateNewPath() {
	c.validator.Validate()
	// Not sure how long we should wait. The spec says just "enough time".
	// Use the same amount as the closing timeout.
	c.schedulePathValidationTimeout(3 * c.currentRTOPeriod())
}

// ----- CID bookkeeping -----

func (c *Conn) updateCIDs() {
	c.cids = fmt.Sprintf("%08x-%08x", c.peerCID.High32(), c.localCID.High32())
	base := utils.DefaultLogger
	if c.config != nil && c.config.Logger != nil {
		base = c.config.Logger
	}
	c.logger = base.WithPrefix("[" + c.cids + "]")
}

func (c *Conn) updatePeerCID(newCID protocol.ConnectionID) {
	c.logger.Debugf("dcid: %s -> %s", c.peerCID, newCID)
	c.peerCID = newCID
	c.updateCIDs()
}

func (c *Conn) updateLocalCID(newCID protocol.ConnectionID) {
	c.logger.Debugf("scid: %s -> %s", c.localCID, newCID)
	c.retiredLocalCIDs = append(c.retiredLocalCIDs, c.localCID)
	c.localCID = newCID
	c.updateCIDs()
}

func (c *Conn) rerandomizeOriginalCID() error {
	newCID, err := protocol.GenerateConnectionID(protocol.DefaultConnectionIDLength)
	if err != nil {
		return err
	}
	c.logger.Debugf("original cid: %s -> %s", c.originalCID, newCID)
	if c.table != nil {
		c.table.Erase(c.originalCID, c)
		c.table.Insert(newCID, c)
	}
	c.originalCID = newCID
	return nil
}

// ----- timers -----

func (c *Conn) onNetActivity() {
	if c.idleTimeout > 0 {
		c.idleTimer.Reset(time.Now().Add(c.idleTimeout))
	}
}

func (c *Conn) setIdleTimeout(d time.Duration) {
	c.idleTimeout = d
	if d > 0 {
		c.idleTimer.Reset(time.Now().Add(d))
	} else {
		c.idleTimer.Reset(time.Time{})
	}
}

func (c *Conn) scheduleWriteReady(delay bool) {
	c.packetTxMutex.Lock()
	defer c.packetTxMutex.Unlock()
	if c.writeReadyArmed {
		return
	}
	c.writeReadyArmed = true
	if delay {
		c.writeReadyTimer.Reset(time.Now().Add(protocol.WriteReadyInterval))
	} else {
		c.writeReadyTimer.Reset(time.Now())
	}
}

func (c *Conn) clearWriteReady() {
	c.packetTxMutex.Lock()
	defer c.packetTxMutex.Unlock()
	c.writeReadyArmed = false
}

func (c *Conn) unscheduleWriteReady() {
	c.packetTxMutex.Lock()
	defer c.packetTxMutex.Unlock()
	c.writeReadyArmed = false
	c.writeReadyTimer.Reset(time.Time{})
}

func (c *Conn) scheduleClosingTimeout(d time.Duration) {
	if c.closingTimerArmed {
		return
	}
	c.closingTimerArmed = true
	c.logger.Debugf("scheduling %s in %s", eventClosingTimeout, d)
	c.closingTimer.Reset(time.Now().Add(d))
}

func (c *Conn) unscheduleClosingTimeout() {
	c.closingTimerArmed = false
	c.closingTimer.Reset(time.Time{})
}

func (c *Conn) schedulePathValidationTimeout(d time.Duration) {
	if c.pathValidationArmed {
		return
	}
	c.pathValidationArmed = true
	c.logger.Debugf("scheduling %s in %s", eventPathValidationTimeout, d)
	c.pathValidationTimer.Reset(time.Now().Add(d))
}

func (c *Conn) unschedulePathValidationTimeout() {
	c.pathValidationArmed = false
	c.pathValidationTimer.Reset(time.Time{})
}

func (c *Conn) scheduleClosedEvent() {
	select {
	case c.shutdownC <- struct{}{}:
	default:
	}
}

// ----- helpers -----

func asConnError(err error) *qerr.ConnectionError {
	var connErr *qerr.ConnectionError
	if errors.As(err, &connErr) {
		return connErr
	}
	return qerr.NewTransportError(qerr.InternalError, err.Error())
}
