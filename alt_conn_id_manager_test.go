package quivc

import (
	"testing"

	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/utils"
	"github.com/quivc/quivc/internal/wire"

	"github.com/stretchr/testify/require"
)

func newTestAltManager(t *testing.T, count int) (*altConnIDManager, *Conn, *ConnTable) {
	t.Helper()
	table := NewConnTable()
	conn := &Conn{}
	m, err := newAltConnIDManager(conn, table, count, []byte("server-id"), utils.DefaultLogger)
	require.NoError(t, err)
	return m, conn, table
}

func TestAltManagerIssuesConnectionIDs(t *testing.T) {
	m, conn, table := newTestAltManager(t, 3)
	require.Equal(t, 3, table.Len())
	for _, alt := range m.alts {
		require.Equal(t, conn, table.Lookup(alt.id))
	}

	require.True(t, m.WillGenerateFrame(protocol.Encryption1RTT))
	seen := make(map[uint64]bool)
	for i := 0; i < 3; i++ {
		f := m.GenerateFrame(protocol.Encryption1RTT, 1, 1200)
		require.NotNil(t, f)
		ncid := f.(*wire.NewConnectionIDFrame)
		require.Equal(t, protocol.DefaultConnectionIDLength, ncid.ConnectionID.Len())
		require.False(t, seen[ncid.SequenceNumber])
		seen[ncid.SequenceNumber] = true
	}
	require.False(t, m.WillGenerateFrame(protocol.Encryption1RTT))
	require.Nil(t, m.GenerateFrame(protocol.Encryption1RTT, 1, 1200))
}

func TestAltManagerOnlyAt1RTT(t *testing.T) {
	m, _, _ := newTestAltManager(t, 1)
	require.False(t, m.WillGenerateFrame(protocol.EncryptionInitial))
	require.Nil(t, m.GenerateFrame(protocol.EncryptionHandshake, 1, 1200))
}

func TestAltManagerMigrateTo(t *testing.T) {
	m, _, _ := newTestAltManager(t, 2)
	target := m.alts[1]

	token, ok := m.MigrateTo(target.id)
	require.True(t, ok)
	require.Equal(t, target.token, token)
	require.Len(t, m.alts, 1)

	// a connection ID we never issued is refused
	_, ok = m.MigrateTo(protocol.ConnectionID{1, 2, 3, 4, 5, 6, 7, 8})
	require.False(t, ok)
}

func TestAltManagerRetirement(t *testing.T) {
	m, _, _ := newTestAltManager(t, 0)
	require.False(t, m.WillGenerateFrame(protocol.Encryption1RTT))

	m.QueueRetirement(7)
	require.True(t, m.WillGenerateFrame(protocol.Encryption1RTT))
	f := m.GenerateFrame(protocol.Encryption1RTT, 1, 1200)
	retire, ok := f.(*wire.RetireConnectionIDFrame)
	require.True(t, ok)
	require.Equal(t, uint64(7), retire.SequenceNumber)
	require.False(t, m.WillGenerateFrame(protocol.Encryption1RTT))
}

func TestAltManagerInvalidate(t *testing.T) {
	m, _, table := newTestAltManager(t, 4)
	require.Equal(t, 4, table.Len())
	m.InvalidateAltConnections()
	require.Zero(t, table.Len())
	require.Empty(t, m.alts)
}

func TestAltManagerDistinctResetTokens(t *testing.T) {
	m, _, _ := newTestAltManager(t, 2)
	require.NotEqual(t, m.alts[0].token, m.alts[1].token)
}
