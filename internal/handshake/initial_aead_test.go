package handshake

import (
	"testing"

	"github.com/quivc/quivc/internal/protocol"

	"github.com/stretchr/testify/require"
)

var connID = protocol.ConnectionID{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa}

func TestInitialAEADSealAndOpen(t *testing.T) {
	clientSealer, clientOpener, err := NewInitialAEAD(connID, protocol.PerspectiveClient)
	require.NoError(t, err)
	serverSealer, serverOpener, err := NewInitialAEAD(connID, protocol.PerspectiveServer)
	require.NoError(t, err)

	ad := []byte("associated data")
	clientMsg := clientSealer.Seal(nil, []byte("foobar"), 42, ad)
	opened, err := serverOpener.Open(nil, clientMsg, 42, ad)
	require.NoError(t, err)
	require.Equal(t, []byte("foobar"), opened)

	serverMsg := serverSealer.Seal(nil, []byte("raboof"), 99, ad)
	opened, err = clientOpener.Open(nil, serverMsg, 99, ad)
	require.NoError(t, err)
	require.Equal(t, []byte("raboof"), opened)
}

func TestInitialAEADFailsWithDifferentConnIDs(t *testing.T) {
	c1 := protocol.ConnectionID{1, 2, 3, 4, 5, 6, 7, 8}
	c2 := protocol.ConnectionID{8, 7, 6, 5, 4, 3, 2, 1}
	clientSealer, _, err := NewInitialAEAD(c1, protocol.PerspectiveClient)
	require.NoError(t, err)
	_, serverOpener, err := NewInitialAEAD(c2, protocol.PerspectiveServer)
	require.NoError(t, err)

	msg := clientSealer.Seal(nil, []byte("foobar"), 0x1337, nil)
	_, err = serverOpener.Open(nil, msg, 0x1337, nil)
	require.Equal(t, ErrDecryptionFailed, err)
}

func TestInitialAEADFailsWithWrongPacketNumber(t *testing.T) {
	clientSealer, _, err := NewInitialAEAD(connID, protocol.PerspectiveClient)
	require.NoError(t, err)
	_, serverOpener, err := NewInitialAEAD(connID, protocol.PerspectiveServer)
	require.NoError(t, err)

	msg := clientSealer.Seal(nil, []byte("foobar"), 1, nil)
	_, err = serverOpener.Open(nil, msg, 2, nil)
	require.Equal(t, ErrDecryptionFailed, err)
}

func TestHeaderProtectionIsABijection(t *testing.T) {
	sealer, _, err := NewInitialAEAD(connID, protocol.PerspectiveClient)
	require.NoError(t, err)
	_, serverOpener, err := NewInitialAEAD(connID, protocol.PerspectiveServer)
	require.NoError(t, err)

	sample := make([]byte, SampleLen)
	for i := range sample {
		sample[i] = byte(i)
	}
	pn := []byte{0xc0, 0x00, 0x13, 0x37}
	orig := append([]byte{}, pn...)

	sealer.EncryptHeader(sample, pn)
	require.NotEqual(t, orig, pn)
	serverOpener.DecryptHeader(sample, pn)
	require.Equal(t, orig, pn)
}

func TestResetTokenDeterministic(t *testing.T) {
	t1 := GenerateStatelessResetToken(connID, []byte("server-1"))
	t2 := GenerateStatelessResetToken(connID, []byte("server-1"))
	require.Equal(t, t1, t2)
	t3 := GenerateStatelessResetToken(connID, []byte("server-2"))
	require.NotEqual(t, t1, t3)
}
