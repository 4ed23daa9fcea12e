package handshake

import (
	"errors"

	"github.com/quivc/quivc/internal/protocol"
)

// ErrKeysNotYetAvailable is returned when an opener or sealer is
// requested for an encryption level, but the corresponding keys are not
// yet available.
var ErrKeysNotYetAvailable = errors.New("keys not yet available")

// ErrDecryptionFailed is returned when the AEAD fails to authenticate the
// packet.
var ErrDecryptionFailed = errors.New("decryption failed")

// A Sealer seals a packet and protects its packet number field.
type Sealer interface {
	Seal(dst, src []byte, packetNumber protocol.PacketNumber, associatedData []byte) []byte
	EncryptHeader(sample []byte, pnBytes []byte)
	Overhead() int
}

// An Opener opens a packet and removes the packet number protection.
type Opener interface {
	Open(dst, src []byte, packetNumber protocol.PacketNumber, associatedData []byte) ([]byte, error)
	DecryptHeader(sample []byte, pnBytes []byte)
}
