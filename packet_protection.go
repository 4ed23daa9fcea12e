package quivc

import (
	"github.com/quivc/quivc/internal/handshake"
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/wire"
)

// packetProtection adapts the handshake engine's per-level keys to the
// packet codec: sealing and opening payloads and applying the
// packet-number protection over serialized packets.
type packetProtection struct {
	engine HandshakeEngine
}

func (p *packetProtection) sealer(level protocol.EncryptionLevel) (handshake.Sealer, error) {
	return p.engine.Sealer(level)
}

func (p *packetProtection) opener(level protocol.EncryptionLevel) (handshake.Opener, error) {
	return p.engine.Opener(level)
}

// protectPacketNumber applies the header protection in place. packet is
// the fully serialized (sealed) packet, pnOffset the offset of the
// 4-byte packet number field.
func protectPacketNumber(packet []byte, pnOffset protocol.ByteCount, sealer handshake.Sealer) {
	sampleOffset := pnOffset + wire.PacketNumberLen
	if int(sampleOffset)+handshake.SampleLen > len(packet) {
		return // too short to sample, leave unprotected
	}
	sample := packet[sampleOffset : sampleOffset+handshake.SampleLen]
	sealer.EncryptHeader(sample, packet[pnOffset:pnOffset+wire.PacketNumberLen])
}

// unprotectPacketNumber removes the header protection in place.
func unprotectPacketNumber(packet []byte, pnOffset protocol.ByteCount, opener handshake.Opener) {
	sampleOffset := pnOffset + wire.PacketNumberLen
	if int(sampleOffset)+handshake.SampleLen > len(packet) {
		return
	}
	sample := packet[sampleOffset : sampleOffset+handshake.SampleLen]
	opener.DecryptHeader(sample, packet[pnOffset:pnOffset+wire.PacketNumberLen])
}
