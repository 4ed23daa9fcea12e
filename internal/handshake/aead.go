package handshake

import (
	"crypto/cipher"
	"encoding/binary"

	"github.com/quivc/quivc/internal/protocol"
)

func createNonce(iv []byte, packetNumber protocol.PacketNumber) []byte {
	nonce := make([]byte, len(iv))
	binary.BigEndian.PutUint64(nonce[len(nonce)-8:], uint64(packetNumber))
	for i := range nonce {
		nonce[i] ^= iv[i]
	}
	return nonce
}

type aeadSealer struct {
	aead      cipher.AEAD
	iv        []byte
	protector *headerProtector
}

var _ Sealer = &aeadSealer{}

// NewSealer creates a Sealer from an AEAD, its IV, and the packet-number
// protection key.
func NewSealer(aead cipher.AEAD, iv, hpKey []byte) (Sealer, error) {
	p, err := newHeaderProtector(hpKey)
	if err != nil {
		return nil, err
	}
	return &aeadSealer{aead: aead, iv: iv, protector: p}, nil
}

func (s *aeadSealer) Seal(dst, src []byte, pn protocol.PacketNumber, ad []byte) []byte {
	return s.aead.Seal(dst, createNonce(s.iv, pn), src, ad)
}

func (s *aeadSealer) EncryptHeader(sample, pnBytes []byte) {
	s.protector.apply(sample, pnBytes)
}

func (s *aeadSealer) Overhead() int {
	return s.aead.Overhead()
}

type aeadOpener struct {
	aead      cipher.AEAD
	iv        []byte
	protector *headerProtector
}

var _ Opener = &aeadOpener{}

// NewOpener creates an Opener from an AEAD, its IV, and the packet-number
// protection key.
func NewOpener(aead cipher.AEAD, iv, hpKey []byte) (Opener, error) {
	p, err := newHeaderProtector(hpKey)
	if err != nil {
		return nil, err
	}
	return &aeadOpener{aead: aead, iv: iv, protector: p}, nil
}

func (o *aeadOpener) Open(dst, src []byte, pn protocol.PacketNumber, ad []byte) ([]byte, error) {
	dec, err := o.aead.Open(dst, createNonce(o.iv, pn), src, ad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return dec, nil
}

func (o *aeadOpener) DecryptHeader(sample, pnBytes []byte) {
	o.protector.apply(sample, pnBytes)
}
