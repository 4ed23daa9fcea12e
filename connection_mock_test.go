package quivc

import (
	"testing"

	"github.com/quivc/quivc/internal/ackhandler"
	"github.com/quivc/quivc/internal/mocks"
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/wire"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSentPacketsReportedToLossDetector(t *testing.T) {
	ctrl := gomock.NewController(t)
	ld := mocks.NewMockLossDetector(ctrl)
	ld.EXPECT().Interests().Return([]wire.FrameType{wire.FrameTypeAck}).AnyTimes()

	tc := newTestConn(t, protocol.PerspectiveServer, func(conf *Config) {
		conf.NewLossDetector = func(_ *Conn, space protocol.PacketNumberSpace) LossDetector {
			if space == protocol.PacketNumberSpaceApplication {
				return ld
			}
			return &stubLossDetector{}
		}
	})
	tc.makeEstablished(t)
	tc.conn.srcAddrVerified = true
	tc.engine.cryptoOut[protocol.Encryption1RTT] = []byte("session ticket")

	ld.EXPECT().OnPacketSent(gomock.Any()).Do(func(p *ackhandler.Packet) {
		require.Equal(t, protocol.PacketNumber(0), p.PacketNumber)
		require.Equal(t, protocol.Encryption1RTT, p.EncryptionLevel)
		require.True(t, p.AckEliciting)
	})

	require.Nil(t, tc.conn.sendPackets())
	require.Len(t, tc.sender.datagrams, 1)
}

func TestStreamManagerQueriedWithRemainingCredit(t *testing.T) {
	ctrl := gomock.NewController(t)
	sm := mocks.NewMockStreamManager(ctrl)
	sm.EXPECT().Interests().Return([]wire.FrameType{wire.FrameTypeStream}).AnyTimes()
	sm.EXPECT().InitFlowControlParams(gomock.Any(), gomock.Any())

	tc := newTestConn(t, protocol.PerspectiveServer, func(conf *Config) {
		conf.NewStreamManager = func(*Conn) StreamManager { return sm }
	})
	tc.makeEstablished(t)
	// drain the freshly installed alt-CID manager first
	for tc.conn.altCIDs.WillGenerateFrame(protocol.Encryption1RTT) {
		require.NotNil(t, tc.conn.altCIDs.GenerateFrame(protocol.Encryption1RTT, 1, 1200))
	}

	credit := tc.conn.remoteFC.Credit()
	sm.EXPECT().GenerateFrame(protocol.Encryption1RTT, credit, gomock.Any()).Return(nil)
	sm.EXPECT().WillGenerateFrame(protocol.Encryption1RTT).Return(false).AnyTimes()

	payload, _, _, _ := tc.conn.packetizeFrames(protocol.Encryption1RTT, 1200)
	require.Empty(t, payload)
}

func TestCongestionWindowBoundsPacketization(t *testing.T) {
	ctrl := gomock.NewController(t)
	cc := mocks.NewMockCongestionController(ctrl)

	tc := newTestConn(t, protocol.PerspectiveServer, func(conf *Config) {
		conf.NewCongestionController = func(*Conn) CongestionController { return cc }
	})
	tc.makeEstablished(t)
	tc.conn.srcAddrVerified = true
	tc.engine.cryptoOut[protocol.Encryption1RTT] = []byte("data")

	gomock.InOrder(
		cc.EXPECT().OpenWindow().Return(protocol.ByteCount(1280)),
		cc.EXPECT().OpenWindow().Return(protocol.ByteCount(0)),
	)

	require.Nil(t, tc.conn.sendPackets())
	require.Len(t, tc.sender.datagrams, 1)
}
