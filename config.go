package quivc

import (
	"crypto/tls"
	"time"

	"github.com/quivc/quivc/internal/ackhandler"
	"github.com/quivc/quivc/internal/congestion"
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/utils"
	"github.com/quivc/quivc/internal/wire"
)

// Config contains the host configuration of a connection.
type Config struct {
	// NoActivityTimeoutIn is the inactivity timeout for accepted
	// connections.
	NoActivityTimeoutIn time.Duration
	// NoActivityTimeoutOut is the inactivity timeout for dialed
	// connections.
	NoActivityTimeoutOut time.Duration

	// ServerTLSConfig is handed to the handshake engine of accepted
	// connections.
	ServerTLSConfig *tls.Config
	// ClientTLSConfig is handed to the handshake engine of dialed
	// connections.
	ClientTLSConfig *tls.Config

	// ServerID keys the stateless reset token derivation.
	ServerID []byte

	// StatelessRetry enables the stateless retry mechanism on the server.
	StatelessRetry bool
	// VNExerciseEnabled makes a client offer an unsupported version first
	// to exercise version negotiation.
	VNExerciseEnabled bool
	// CMExerciseEnabled makes a client initiate a connection migration
	// once established.
	CMExerciseEnabled bool

	// NumAltConnectionIDs is the number of alternative connection IDs
	// issued to the peer when migration is permitted.
	NumAltConnectionIDs int

	// NewHandshakeEngine constructs the TLS handshake engine.
	NewHandshakeEngine func(c *Conn, tlsConf *tls.Config) HandshakeEngine
	// NewStreamManager constructs the stream layer.
	NewStreamManager func(c *Conn) StreamManager
	// NewLossDetector constructs the loss detector of one packet number
	// space. If nil, the built-in detector is used.
	NewLossDetector func(c *Conn, space protocol.PacketNumberSpace) LossDetector
	// NewCongestionController constructs the congestion controller. If
	// nil, the built-in window-based controller is used.
	NewCongestionController func(c *Conn) CongestionController

	// Applications maps negotiated application protocol names to
	// endpoints. The empty key is the fallback.
	Applications map[string]Application

	// Tracer, if set, receives connection events.
	Tracer ConnectionTracer
	// Metrics, if set, receives connection metrics.
	Metrics ConnectionMetrics

	Logger utils.Logger
}

// A ConnectionTracer traces connection events. The qlog package provides
// an implementation.
type ConnectionTracer interface {
	StartedConnection(p protocol.Perspective, local, peer protocol.ConnectionID)
	SentPacket(t protocol.PacketType, pn protocol.PacketNumber, size protocol.ByteCount)
	ReceivedPacket(t protocol.PacketType, pn protocol.PacketNumber, size protocol.ByteCount)
	UpdatedState(state string)
	ClosedConnection(reason string)
}

// ConnectionMetrics counts connection events. The metrics package
// provides a Prometheus implementation.
type ConnectionMetrics interface {
	ConnectionStarted(p protocol.Perspective)
	ConnectionClosed(p protocol.Perspective, reason string)
	HandshakeCompleted(p protocol.Perspective, d time.Duration)
	PacketSent(size protocol.ByteCount)
	PacketReceived(size protocol.ByteCount)
	PacketDropped(reason string)
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	copied := *c
	return &copied
}

func populateConfig(c *Config) *Config {
	if c == nil {
		c = &Config{}
	} else {
		c = c.Clone()
	}
	if c.NoActivityTimeoutIn == 0 {
		c.NoActivityTimeoutIn = protocol.DefaultIdleTimeout
	}
	if c.NoActivityTimeoutOut == 0 {
		c.NoActivityTimeoutOut = protocol.DefaultIdleTimeout
	}
	if c.NumAltConnectionIDs == 0 {
		c.NumAltConnectionIDs = 4
	}
	if c.Logger == nil {
		c.Logger = utils.DefaultLogger
	}
	if c.NewLossDetector == nil {
		c.NewLossDetector = func(conn *Conn, space protocol.PacketNumberSpace) LossDetector {
			return ackhandler.NewLossDetector(space, conn.rttStats, conn.congestionFeedback(), func(level protocol.EncryptionLevel, frames []wire.Frame) {
				conn.retransmitter.AddLostFrames(level, frames)
			}, conn.logger)
		}
	}
	if c.NewCongestionController == nil {
		c.NewCongestionController = func(*Conn) CongestionController {
			return congestion.NewController()
		}
	}
	return c
}
