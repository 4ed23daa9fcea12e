package handshake

import (
	"time"

	"github.com/quivc/quivc/internal/protocol"
)

// TransportParameters are the transport parameters negotiated during the
// handshake. They are exchanged inside the TLS handshake by the handshake
// engine; the connection core only reads the decoded values.
type TransportParameters struct {
	InitialMaxData       protocol.ByteCount
	InitialMaxStreamData protocol.ByteCount
	MaxPacketSize        protocol.ByteCount
	IdleTimeout          time.Duration

	// DisableMigration is set by a peer that will not accept connection
	// migration.
	DisableMigration bool

	StatelessResetToken *protocol.StatelessResetToken
}
