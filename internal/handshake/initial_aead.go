package handshake

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"

	"golang.org/x/crypto/hkdf"

	"github.com/quivc/quivc/internal/protocol"
)

// the salt of the draft QUIC version this endpoint targets
var quicDraftSalt = []byte{0x9c, 0x10, 0x8f, 0x98, 0x52, 0x0a, 0x5c, 0x5c, 0x32, 0x96, 0x8e, 0x95, 0x0e, 0x8a, 0x2c, 0x5f, 0xe0, 0x6d, 0x6c, 0x38}

// NewInitialAEAD creates the AEAD for Initial encryption / decryption.
// The keys are derived from the destination connection ID of the client's
// first Initial packet.
func NewInitialAEAD(connID protocol.ConnectionID, pers protocol.Perspective) (Sealer, Opener, error) {
	clientSecret, serverSecret := computeSecrets(connID)
	var mySecret, otherSecret []byte
	if pers == protocol.PerspectiveClient {
		mySecret = clientSecret
		otherSecret = serverSecret
	} else {
		mySecret = serverSecret
		otherSecret = clientSecret
	}
	myKey, myHPKey, myIV := computeInitialKeyAndIV(mySecret)
	otherKey, otherHPKey, otherIV := computeInitialKeyAndIV(otherSecret)

	encrypter, err := aeadAESGCM(myKey)
	if err != nil {
		return nil, nil, err
	}
	decrypter, err := aeadAESGCM(otherKey)
	if err != nil {
		return nil, nil, err
	}
	sealer, err := NewSealer(encrypter, myIV, myHPKey)
	if err != nil {
		return nil, nil, err
	}
	opener, err := NewOpener(decrypter, otherIV, otherHPKey)
	if err != nil {
		return nil, nil, err
	}
	return sealer, opener, nil
}

func computeSecrets(connID protocol.ConnectionID) (clientSecret, serverSecret []byte) {
	initialSecret := hkdf.Extract(crypto.SHA256.New, connID, quicDraftSalt)
	clientSecret = hkdfExpandLabel(crypto.SHA256, initialSecret, "client in", crypto.SHA256.Size())
	serverSecret = hkdfExpandLabel(crypto.SHA256, initialSecret, "server in", crypto.SHA256.Size())
	return
}

func computeInitialKeyAndIV(secret []byte) (key, hpKey, iv []byte) {
	key = hkdfExpandLabel(crypto.SHA256, secret, "quic key", 16)
	hpKey = hkdfExpandLabel(crypto.SHA256, secret, "quic pn", 16)
	iv = hkdfExpandLabel(crypto.SHA256, secret, "quic iv", 12)
	return
}

func aeadAESGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
