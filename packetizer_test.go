package quivc

import (
	"testing"

	"github.com/quivc/quivc/internal/handshake"
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/wire"

	"github.com/stretchr/testify/require"
)

func TestPacketizeFramesRespectsMinimumBudget(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	tc.makeEstablished(t)
	tc.engine.cryptoOut[protocol.Encryption1RTT] = []byte("data")

	payload, _, _, _ := tc.conn.packetizeFrames(protocol.Encryption1RTT, protocol.MaxPacketOverhead)
	require.Empty(t, payload)

	payload, _, _, _ = tc.conn.packetizeFrames(protocol.Encryption1RTT, protocol.MaxPacketOverhead+16)
	require.NotEmpty(t, payload)
}

func TestPacketizeFramesPriorityOrder(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveClient, func(conf *Config) {
		conf.CMExerciseEnabled = true
	})
	tc.makeEstablished(t)
	require.NotNil(t, tc.conn.altCIDs)

	// make every producer contribute one frame
	tc.engine.cryptoOut[protocol.Encryption1RTT] = []byte("ticket")
	require.NoError(t, tc.conn.validator.HandleFrame(protocol.Encryption1RTT, &wire.PathChallengeFrame{Data: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}}))
	tc.conn.retransmitter.AddLostFrames(protocol.Encryption1RTT, []wire.Frame{&wire.PingFrame{}})
	tc.conn.localFC.ForwardLimit(1 << 20)
	tc.streams.frames = []wire.Frame{&wire.StreamFrame{StreamID: 4, Data: []byte("stream data"), DataLenPresent: true}}
	tc.conn.ackCreator.Update(protocol.Encryption1RTT, 0, true)

	payload, frames, ackOnly, probing := tc.conn.packetizeFrames(protocol.Encryption1RTT, 1200)
	require.NotEmpty(t, payload)
	require.False(t, ackOnly)
	require.True(t, probing) // NEW_CONNECTION_ID frames are probing

	var order []wire.FrameType
	for _, f := range frames {
		order = append(order, wire.TypeOf(f))
	}
	// strict priority: CRYPTO, path frames, connection ID frames, lost
	// frames, MAX_DATA, STREAM, ACK
	require.Equal(t, wire.FrameTypeCrypto, order[0])
	require.Equal(t, wire.FrameTypePathResponse, order[1])
	require.Equal(t, wire.FrameTypeNewConnectionID, order[2])
	// the alt-CID manager drains all pending NEW_CONNECTION_ID frames
	idx := 2
	for order[idx] == wire.FrameTypeNewConnectionID {
		idx++
	}
	require.Equal(t, wire.FrameTypePing, order[idx])
	require.Equal(t, wire.FrameTypeMaxData, order[idx+1])
	require.Equal(t, wire.FrameTypeStream, order[idx+2])
	require.Equal(t, wire.FrameTypeAck, order[idx+3])

	// the serialized payload parses back to the same frame sequence
	parsed := drainFrames(t, payload)
	require.Len(t, parsed, len(frames))
	for i := range parsed {
		require.Equal(t, order[i], wire.TypeOf(parsed[i]))
	}
}

func TestPacketizeFramesAckOnly(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	tc.makeEstablished(t)
	tc.drainAltCIDFrames(t)

	tc.conn.ackCreator.Update(protocol.Encryption1RTT, 7, true)
	payload, frames, ackOnly, probing := tc.conn.packetizeFrames(protocol.Encryption1RTT, 1200)
	// server packets are padded, but the ACK stays the only frame
	require.NotEmpty(t, payload)
	require.True(t, ackOnly)
	require.False(t, probing)
	require.Len(t, frames, 1)
	require.Equal(t, wire.FrameTypeAck, wire.TypeOf(frames[0]))
}

func TestPacketizeFramesNoAckWithoutElicitation(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	tc.makeEstablished(t)
	tc.drainAltCIDFrames(t)

	// a non-ack-eliciting packet was received, no ACK is due on its own
	tc.conn.ackCreator.Update(protocol.Encryption1RTT, 3, false)
	payload, _, _, _ := tc.conn.packetizeFrames(protocol.Encryption1RTT, 1200)
	require.Empty(t, payload)
}

func TestStreamFramesGatedDuringPathValidation(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	tc.makeEstablished(t)
	tc.streams.frames = []wire.Frame{&wire.StreamFrame{StreamID: 4, Data: []byte("data"), DataLenPresent: true}}

	tc.conn.validator.Validate()
	payload, frames, _, _ := tc.conn.packetizeFrames(protocol.Encryption1RTT, 1200)
	// the PATH_CHALLENGE and the pending connection ID frames go out, but
	// no STREAM frames on an unvalidated path
	require.NotEmpty(t, payload)
	for _, f := range frames {
		require.NotEqual(t, wire.FrameTypeStream, wire.TypeOf(f))
	}
}

func TestStreamAccountingAdvancesRemoteOffset(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	tc.makeEstablished(t)
	tc.streams.frames = []wire.Frame{&wire.StreamFrame{StreamID: 4, Data: []byte("0123456789"), DataLenPresent: true}}

	payload, _, _, _ := tc.conn.packetizeFrames(protocol.Encryption1RTT, 1200)
	require.NotEmpty(t, payload)
	require.Equal(t, protocol.ByteCount(10), tc.conn.remoteFC.CurrentOffset())
}

func TestClientInitialIsPadded(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveClient, nil)
	tc.engine.cryptoOut[protocol.EncryptionInitial] = []byte("ClientHello")

	tc.conn.statePreHandshake(eventPacketWriteReady)

	require.NotEmpty(t, tc.sender.datagrams)
	require.GreaterOrEqual(t, len(tc.sender.datagrams[0]), int(protocol.MinInitialPacketSize))
}

func TestServerAntiAmplification(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	tc.engine.cryptoOut[protocol.EncryptionInitial] = []byte("ServerHello")
	tc.conn.state = stateHandshake
	tc.conn.handshakePacketsSent = protocol.MaxPacketsWithoutAddressValidation

	require.Nil(t, tc.conn.sendPackets())
	require.Empty(t, tc.sender.datagrams)

	// receipt of a Handshake packet verifies the address and unblocks
	// sending
	tc.conn.srcAddrVerified = true
	require.Nil(t, tc.conn.sendPackets())
	require.NotEmpty(t, tc.sender.datagrams)
}

func TestSendPacketsStopsOnEmptyWindow(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	tc.makeEstablished(t)
	tc.engine.cryptoOut[protocol.Encryption1RTT] = []byte("data")
	tc.conn.congestion = zeroWindowController{}

	require.Nil(t, tc.conn.sendPackets())
	require.Empty(t, tc.sender.datagrams)
}

func TestPacketNumbersStrictlyIncreasing(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	tc.makeEstablished(t)
	tc.conn.srcAddrVerified = true

	var pns []protocol.PacketNumber
	for i := 0; i < 3; i++ {
		tc.engine.cryptoOut[protocol.Encryption1RTT] = []byte("data")
		raw, sent := tc.conn.packetizePacket(protocol.Encryption1RTT, 1200)
		require.NotNil(t, raw)
		pns = append(pns, sent.PacketNumber)
	}
	require.Equal(t, []protocol.PacketNumber{0, 1, 2}, pns)
}

func TestBuiltPacketRoundTrips(t *testing.T) {
	tc := newTestConn(t, protocol.PerspectiveServer, nil)
	tc.makeEstablished(t)
	tc.conn.srcAddrVerified = true
	tc.engine.cryptoOut[protocol.EncryptionHandshake] = []byte("EncryptedExtensions")
	tc.conn.ackCreator.Update(protocol.EncryptionHandshake, 0, true)

	raw, sent := tc.conn.packetizePacket(protocol.EncryptionHandshake, 1200)
	require.NotNil(t, raw)
	require.True(t, sent.AckEliciting)

	// the peer can parse and decrypt the packet
	hdr, packet, rest, err := wire.ParsePacket(raw, 0)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, protocol.PacketTypeHandshake, hdr.Type)

	// the fake engine keys every level with the Initial AEAD, so the
	// peer's opener is derived from the same connection ID
	_, peerOpener, err := handshake.NewInitialAEAD(tc.engine.keyCID, tc.conn.perspective.Opposite())
	require.NoError(t, err)
	unprotectPacketNumber(packet, hdr.PacketNumberOffset(), peerOpener)
	require.NoError(t, hdr.ReadPacketNumber(packet))
	require.Equal(t, sent.PacketNumber, hdr.PacketNumber)

	payload, err := peerOpener.Open(nil, packet[hdr.PayloadOffset():], hdr.PacketNumber, packet[:hdr.PayloadOffset()])
	require.NoError(t, err)

	frames := drainFrames(t, payload)
	require.Len(t, frames, 2)
	require.Equal(t, wire.FrameTypeCrypto, wire.TypeOf(frames[0]))
	require.Equal(t, wire.FrameTypeAck, wire.TypeOf(frames[1]))
}

type zeroWindowController struct{}

func (zeroWindowController) OpenWindow() protocol.ByteCount { return 0 }
func (zeroWindowController) Reset()                         {}
