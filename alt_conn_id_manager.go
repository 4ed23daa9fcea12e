package quivc

import (
	"github.com/quivc/quivc/internal/handshake"
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/utils"
	"github.com/quivc/quivc/internal/wire"
)

// An altConnID is a connection ID we issued to the peer as an alternative
// to the current one.
type altConnID struct {
	seq        uint64
	id         protocol.ConnectionID
	token      protocol.StatelessResetToken
	advertised bool
}

// The altConnIDManager issues alternative connection IDs to the peer and
// adopts one of them as the new local connection ID when the peer
// migrates. It is installed on entering the established state: always on a
// server, and on a client only when CMExerciseEnabled is set and the peer
// did not disable migration.
type altConnIDManager struct {
	conn  *Conn
	table *ConnTable

	alts        []altConnID
	nextSeq     uint64
	retireQueue []uint64 // sequence numbers of peer CIDs to retire

	logger utils.Logger
}

func newAltConnIDManager(conn *Conn, table *ConnTable, count int, serverID []byte, logger utils.Logger) (*altConnIDManager, error) {
	m := &altConnIDManager{
		conn:    conn,
		table:   table,
		nextSeq: 1,
		logger:  logger,
	}
	for i := 0; i < count; i++ {
		id, err := protocol.GenerateConnectionID(protocol.DefaultConnectionIDLength)
		if err != nil {
			return nil, err
		}
		alt := altConnID{
			seq:   m.nextSeq,
			id:    id,
			token: handshake.GenerateStatelessResetToken(id, serverID),
		}
		m.nextSeq++
		m.alts = append(m.alts, alt)
		m.table.Insert(id, conn)
	}
	return m, nil
}

// MigrateTo adopts dcid as the new local connection ID if it is one of
// the issued alternatives. It reports whether the migration was accepted
// and returns the reset token bound to the new connection ID.
func (m *altConnIDManager) MigrateTo(dcid protocol.ConnectionID) (protocol.StatelessResetToken, bool) {
	for i, alt := range m.alts {
		if alt.id.Equal(dcid) {
			m.alts = append(m.alts[:i], m.alts[i+1:]...)
			return alt.token, true
		}
	}
	return protocol.StatelessResetToken{}, false
}

// QueueRetirement schedules a RETIRE_CONNECTION_ID frame for a
// peer-issued connection ID we stopped using.
func (m *altConnIDManager) QueueRetirement(seq uint64) {
	m.retireQueue = append(m.retireQueue, seq)
}

// InvalidateAltConnections removes all issued alternative connection IDs
// from the demultiplexer table.
func (m *altConnIDManager) InvalidateAltConnections() {
	for _, alt := range m.alts {
		m.table.Erase(alt.id, m.conn)
	}
	m.alts = nil
}

// WillGenerateFrame says if a NEW_CONNECTION_ID or RETIRE_CONNECTION_ID
// frame is pending.
func (m *altConnIDManager) WillGenerateFrame(level protocol.EncryptionLevel) bool {
	if level != protocol.Encryption1RTT {
		return false
	}
	if len(m.retireQueue) > 0 {
		return true
	}
	for _, alt := range m.alts {
		if !alt.advertised {
			return true
		}
	}
	return false
}

// GenerateFrame emits pending RETIRE_CONNECTION_ID frames first, then
// unadvertised NEW_CONNECTION_ID frames.
func (m *altConnIDManager) GenerateFrame(level protocol.EncryptionLevel, _ uint16, maxSize protocol.ByteCount) wire.Frame {
	if level != protocol.Encryption1RTT {
		return nil
	}
	if len(m.retireQueue) > 0 {
		f := &wire.RetireConnectionIDFrame{SequenceNumber: m.retireQueue[0]}
		if f.Length(protocol.VersionDraft13) > maxSize {
			return nil
		}
		m.retireQueue = m.retireQueue[1:]
		return f
	}
	for i := range m.alts {
		alt := &m.alts[i]
		if alt.advertised {
			continue
		}
		f := &wire.NewConnectionIDFrame{
			SequenceNumber:      alt.seq,
			ConnectionID:        alt.id,
			StatelessResetToken: alt.token,
		}
		if f.Length(protocol.VersionDraft13) > maxSize {
			return nil
		}
		alt.advertised = true
		return f
	}
	return nil
}
