package quivc

import (
	"net"
	"time"

	"github.com/quivc/quivc/internal/protocol"
)

// PacketCreationResult is the outcome of dequeueing one datagram from the
// receive queue. It is not elevated to a connection error; the receive
// pipeline decides per state what to do with it.
type PacketCreationResult uint8

const (
	// PacketCreationSuccess is a successfully decrypted packet.
	PacketCreationSuccess PacketCreationResult = iota
	// PacketCreationNoPacket means the queue is empty.
	PacketCreationNoPacket
	// PacketCreationNotReady means the keys for this packet are not yet
	// available.
	PacketCreationNotReady
	// PacketCreationFailed means the packet could not be decrypted.
	PacketCreationFailed
	// PacketCreationIgnored means the packet was skipped.
	PacketCreationIgnored
	// PacketCreationUnsupported means the packet carries an unsupported
	// version.
	PacketCreationUnsupported
)

func (r PacketCreationResult) String() string {
	switch r {
	case PacketCreationSuccess:
		return "SUCCESS"
	case PacketCreationNoPacket:
		return "NO_PACKET"
	case PacketCreationNotReady:
		return "NOT_READY"
	case PacketCreationFailed:
		return "FAILED"
	case PacketCreationIgnored:
		return "IGNORED"
	case PacketCreationUnsupported:
		return "UNSUPPORTED"
	}
	return "unknown"
}

// A ReceivedPacket is a decrypted inbound packet.
type ReceivedPacket struct {
	Type             protocol.PacketType
	PacketNumber     protocol.PacketNumber
	DestConnectionID protocol.ConnectionID
	SrcConnectionID  protocol.ConnectionID
	Payload          []byte
	Size             protocol.ByteCount

	// SupportedVersions is set on Version Negotiation packets.
	SupportedVersions []protocol.Version

	From    net.Addr
	RcvTime time.Time
}

// EncryptionLevel returns the encryption level that protected the packet.
func (p *ReceivedPacket) EncryptionLevel() protocol.EncryptionLevel {
	return p.Type.EncryptionLevel()
}
