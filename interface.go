package quivc

import (
	"time"

	"github.com/quivc/quivc/internal/ackhandler"
	"github.com/quivc/quivc/internal/handshake"
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/wire"
)

// A FrameProducer contributes frames during packetization. The packetizer
// queries every producer in a fixed priority order, each until it
// declines or the packet budget is exhausted.
type FrameProducer interface {
	WillGenerateFrame(level protocol.EncryptionLevel) bool
	GenerateFrame(level protocol.EncryptionLevel, maxFrames uint16, maxSize protocol.ByteCount) wire.Frame
}

// A FrameHandler is registered with the frame dispatcher for the frame
// types it returns from Interests.
type FrameHandler interface {
	Interests() []wire.FrameType
	HandleFrame(level protocol.EncryptionLevel, frame wire.Frame) error
}

// The HandshakeEngine runs the cryptographic handshake. It consumes and
// produces CRYPTO frames at each encryption level and exposes the
// negotiated keys, transport parameters and application protocol.
type HandshakeEngine interface {
	FrameProducer
	FrameHandler

	// Start begins the handshake. On the server, packet is the Initial
	// packet that opened the connection; on the client it is nil.
	Start(packet *ReceivedPacket) error
	DoHandshake() error
	IsCompleted() bool

	IsVersionNegotiated() bool
	// NegotiateVersion processes a Version Negotiation packet listing the
	// versions supported by the peer.
	NegotiateVersion(versions []protocol.Version) error

	HasRemoteTransportParameters() bool
	LocalTransportParameters() *handshake.TransportParameters
	RemoteTransportParameters() *handshake.TransportParameters

	CurrentEncryptionLevel() protocol.EncryptionLevel
	NegotiatedCipherSuite() string
	// NegotiatedApplication returns the application protocol name selected
	// by ALPN, or an empty string.
	NegotiatedApplication() string

	// InitializeKeyMaterials re-derives the Initial keys from a connection
	// ID. Called at startup and again after a Retry re-randomized the
	// original connection ID.
	InitializeKeyMaterials(connID protocol.ConnectionID) error
	// Sealer and Opener return the packet protection for an encryption
	// level, or handshake.ErrKeysNotYetAvailable.
	Sealer(level protocol.EncryptionLevel) (handshake.Sealer, error)
	Opener(level protocol.EncryptionLevel) (handshake.Opener, error)

	// Reset discards the handshake state so that it can be started over.
	Reset()
}

// The StreamManager owns per-stream buffers and stream-level flow
// control. The connection core treats it as a frame producer and
// consumer plus three byte counters.
type StreamManager interface {
	FrameHandler

	WillGenerateFrame(level protocol.EncryptionLevel) bool
	// GenerateFrame produces the next STREAM, MAX_STREAM_DATA or
	// STREAM_BLOCKED frame. Unlike the other producers it is bounded by
	// the connection flow control credit: STREAM frames must not carry
	// more than credit bytes of data.
	GenerateFrame(level protocol.EncryptionLevel, credit, maxSize protocol.ByteCount) wire.Frame

	// InitFlowControlParams installs the stream-level limits once the
	// transport parameters are known.
	InitFlowControlParams(local, remote *handshake.TransportParameters)

	// TotalOffsetReceived is the sum of the highest received offsets over
	// all streams.
	TotalOffsetReceived() protocol.ByteCount
	// TotalOffsetSent is the sum of the highest sent offsets over all
	// streams.
	TotalOffsetSent() protocol.ByteCount
	// TotalReorderedBytes is the number of stream bytes delivered to the
	// application in order.
	TotalReorderedBytes() protocol.ByteCount
}

// The LossDetector performs time-driven recovery for one packet number
// space. It is fed every sent packet and the received ACK frames of its
// space.
type LossDetector interface {
	FrameHandler

	OnPacketSent(p *ackhandler.Packet)
	LargestAckedPacketNumber() protocol.PacketNumber
	CurrentRTOPeriod() time.Duration
	// Reset discards the transport state but keeps packet numbers
	// monotonic.
	Reset()
	Shutdown()
}

// The CongestionController provides the send budget.
type CongestionController interface {
	OpenWindow() protocol.ByteCount
	Reset()
}

// The PacketHandler is the UDP I/O and demultiplexing layer. It delivers
// incoming datagrams keyed on connection ID and accepts outgoing
// datagrams.
type PacketHandler interface {
	SendPacket(c *Conn, payload []byte)
	CloseConnection(c *Conn)
}

// An Application is the next-protocol endpoint above the connection. On
// entering the established state, a server connection signals
// HandleAccept, a client connection HandleOpen.
type Application interface {
	HandleAccept(c *Conn)
	HandleOpen(c *Conn)
}
