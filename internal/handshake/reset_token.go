package handshake

import (
	"crypto"

	"golang.org/x/crypto/hkdf"

	"github.com/quivc/quivc/internal/protocol"
)

// GenerateStatelessResetToken derives the stateless reset token for a
// connection ID. The server ID keys the derivation so that tokens can be
// recomputed statelessly by any process holding it.
func GenerateStatelessResetToken(connID protocol.ConnectionID, serverID []byte) protocol.StatelessResetToken {
	secret := hkdf.Extract(crypto.SHA256.New, connID, serverID)
	out := hkdfExpandLabel(crypto.SHA256, secret, "stateless reset", 16)
	var token protocol.StatelessResetToken
	copy(token[:], out)
	return token
}
