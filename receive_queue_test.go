package quivc

import (
	"sync"
	"testing"

	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/wire"

	"github.com/stretchr/testify/require"
)

func TestReceiveQueueEmpty(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	p, result := tc.conn.recvQueue.Dequeue()
	require.Nil(t, p)
	require.Equal(t, PacketCreationNoPacket, result)
}

func TestReceiveQueueDecryptsPacket(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	payload := cryptoPayload(t, []byte("hello"))
	datagram := sealPeerPacket(t, tc, protocol.PacketTypeInitial,
		tc.conn.OriginalConnectionID(), protocol.ConnectionID{9, 9, 9, 9, 9, 9, 9, 9}, 7, payload)

	require.True(t, tc.conn.recvQueue.Enqueue(datagram, testRemoteAddr))
	require.Equal(t, 1, tc.conn.recvQueue.Size())

	p, result := tc.conn.recvQueue.Dequeue()
	require.Equal(t, PacketCreationSuccess, result)
	require.Equal(t, protocol.PacketTypeInitial, p.Type)
	require.Equal(t, protocol.PacketNumber(7), p.PacketNumber)
	require.Equal(t, payload, p.Payload)
	require.Equal(t, testRemoteAddr, p.From)
	require.Zero(t, tc.conn.recvQueue.Size())
}

func TestReceiveQueueCoalescedDatagram(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	tc.engine.installAllLevelKeys()

	first := sealPeerPacket(t, tc, protocol.PacketTypeInitial,
		tc.conn.OriginalConnectionID(), protocol.ConnectionID{9, 9, 9, 9, 9, 9, 9, 9}, 0, cryptoPayload(t, []byte("one")))
	second := sealPeerPacket(t, tc, protocol.PacketTypeHandshake,
		tc.conn.LocalConnectionID(), protocol.ConnectionID{9, 9, 9, 9, 9, 9, 9, 9}, 1, cryptoPayload(t, []byte("two")))
	datagram := append(append([]byte{}, first...), second...)

	require.True(t, tc.conn.recvQueue.Enqueue(datagram, testRemoteAddr))

	p, result := tc.conn.recvQueue.Dequeue()
	require.Equal(t, PacketCreationSuccess, result)
	require.Equal(t, protocol.PacketTypeInitial, p.Type)
	// the remainder counts as a queued packet
	require.Equal(t, 1, tc.conn.recvQueue.Size())

	p, result = tc.conn.recvQueue.Dequeue()
	require.Equal(t, PacketCreationSuccess, result)
	require.Equal(t, protocol.PacketTypeHandshake, p.Type)
	require.Zero(t, tc.conn.recvQueue.Size())
}

func TestReceiveQueueNotReadyWithoutKeys(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	// no 1-RTT keys are installed yet
	short := &wire.Header{
		Type:             protocol.PacketTypeProtected,
		DestConnectionID: tc.conn.LocalConnectionID(),
		PacketNumber:     0,
	}
	raw, err := short.Append(nil, protocol.VersionDraft13)
	require.NoError(t, err)
	raw = append(raw, make([]byte, 32)...)

	require.True(t, tc.conn.recvQueue.Enqueue(raw, testRemoteAddr))
	p, result := tc.conn.recvQueue.Dequeue()
	require.Nil(t, p)
	require.Equal(t, PacketCreationNotReady, result)
}

func TestReceiveQueueFailsOnBadCiphertext(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	datagram := sealPeerPacket(t, tc, protocol.PacketTypeInitial,
		tc.conn.OriginalConnectionID(), protocol.ConnectionID{9, 9, 9, 9, 9, 9, 9, 9}, 0, cryptoPayload(t, []byte("hello")))
	datagram[len(datagram)-1] ^= 0xff

	require.True(t, tc.conn.recvQueue.Enqueue(datagram, testRemoteAddr))
	_, result := tc.conn.recvQueue.Dequeue()
	require.Equal(t, PacketCreationFailed, result)
}

func TestReceiveQueueUnsupportedVersion(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	hdr := &wire.Header{
		Type:             protocol.PacketTypeInitial,
		Version:          protocol.Version(0xff000001),
		DestConnectionID: tc.conn.OriginalConnectionID(),
		SrcConnectionID:  protocol.ConnectionID{9, 9, 9, 9, 9, 9, 9, 9},
		Length:           wire.PacketNumberLen,
	}
	raw, err := hdr.Append(nil, protocol.VersionDraft13)
	require.NoError(t, err)

	require.True(t, tc.conn.recvQueue.Enqueue(raw, testRemoteAddr))
	p, result := tc.conn.recvQueue.Dequeue()
	require.Equal(t, PacketCreationUnsupported, result)
	require.Equal(t, protocol.PacketTypeInitial, p.Type)
}

func TestReceiveQueueIgnoresGarbage(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	require.True(t, tc.conn.recvQueue.Enqueue([]byte{0x80, 0x01}, testRemoteAddr))
	_, result := tc.conn.recvQueue.Dequeue()
	require.Equal(t, PacketCreationIgnored, result)
}

func TestReceiveQueueBounded(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	for i := 0; i < protocol.MaxReceiveQueueLen; i++ {
		require.True(t, tc.conn.recvQueue.Enqueue([]byte{0x00}, testRemoteAddr))
	}
	require.False(t, tc.conn.recvQueue.Enqueue([]byte{0x00}, testRemoteAddr))
}

func TestReceiveQueueConcurrentEnqueue(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 16; j++ {
				tc.conn.recvQueue.Enqueue([]byte{0x00}, testRemoteAddr)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 128, tc.conn.recvQueue.Size())
}

func TestClientAdoptsServerConnectionID(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveClient, nil)
	serverCID := protocol.ConnectionID{0x5e, 1, 2, 3, 4, 5, 6, 7}
	datagram := sealPeerPacket(t, tc, protocol.PacketTypeInitial,
		tc.conn.LocalConnectionID(), serverCID, 0, cryptoPayload(t, []byte("ServerHello")))

	require.True(t, tc.conn.recvQueue.Enqueue(datagram, testRemoteAddr))
	p, result := tc.conn.dequeueRecvPacket()
	require.Equal(t, PacketCreationSuccess, result)
	require.True(t, tc.conn.PeerConnectionID().Equal(serverCID))
	require.Equal(t, protocol.PacketTypeInitial, tc.conn.lastReceivedPacketType)
	require.Equal(t, p.Type, tc.conn.lastReceivedPacketType)
}
