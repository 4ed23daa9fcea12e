package handshake

import (
	"crypto"
	"encoding/binary"

	"golang.org/x/crypto/hkdf"
)

// hkdfExpandLabel HKDF expands a label as defined in RFC 8446, section 7.1.
func hkdfExpandLabel(hash crypto.Hash, secret []byte, label string, length int) []byte {
	b := make([]byte, 3, 3+6+len(label))
	binary.BigEndian.PutUint16(b, uint16(length))
	b[2] = uint8(6 + len(label))
	b = append(b, []byte("tls13 ")...)
	b = append(b, []byte(label)...)
	b = append(b, 0)

	out := make([]byte, length)
	n, err := hkdf.Expand(hash.New, secret, b).Read(out)
	if err != nil || n != length {
		panic("quivc: HKDF-Expand-Label invocation failed unexpectedly")
	}
	return out
}
