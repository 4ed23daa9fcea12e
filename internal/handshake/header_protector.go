package handshake

import (
	"crypto/aes"
	"crypto/cipher"
)

// SampleLen is the number of ciphertext bytes sampled for packet-number
// protection. The sample is taken directly behind the packet number field.
const SampleLen = 16

// headerProtector applies and removes the packet-number protection.
// Draft-13 encrypts the packet number field with AES-CTR, keyed with the
// pn key and using a ciphertext sample as the counter block. The same
// operation removes the protection, so it's a bijection by construction.
type headerProtector struct {
	block cipher.Block
}

func newHeaderProtector(key []byte) (*headerProtector, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &headerProtector{block: block}, nil
}

func (p *headerProtector) apply(sample, pnBytes []byte) {
	if len(sample) != SampleLen {
		panic("invalid sample size")
	}
	stream := cipher.NewCTR(p.block, sample)
	stream.XORKeyStream(pnBytes, pnBytes)
}
