package flowcontrol

import (
	"testing"

	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/utils"
	"github.com/quivc/quivc/internal/wire"

	"github.com/stretchr/testify/require"
)

func TestLocalFlowControlViolation(t *testing.T) {
	fc := NewLocalFlowController(100, utils.DefaultLogger)
	require.NoError(t, fc.Update(50))
	require.Equal(t, protocol.ByteCount(50), fc.CurrentOffset())
	require.NoError(t, fc.Update(100))
	err := fc.Update(101)
	require.Error(t, err)
}

func TestLocalLimitIsMonotonic(t *testing.T) {
	fc := NewLocalFlowController(100, utils.DefaultLogger)
	fc.ForwardLimit(200)
	require.Equal(t, protocol.ByteCount(200), fc.CurrentLimit())
	fc.ForwardLimit(150) // ignored
	require.Equal(t, protocol.ByteCount(200), fc.CurrentLimit())
}

func TestLocalAdvertisesMaxData(t *testing.T) {
	fc := NewLocalFlowController(100, utils.DefaultLogger)
	require.False(t, fc.WillGenerateFrame(protocol.Encryption1RTT))
	fc.ForwardLimit(300)
	require.False(t, fc.WillGenerateFrame(protocol.EncryptionInitial))
	require.True(t, fc.WillGenerateFrame(protocol.Encryption1RTT))
	f := fc.GenerateFrame(protocol.Encryption1RTT, 1, 100)
	require.NotNil(t, f)
	require.Equal(t, protocol.ByteCount(300), f.(*wire.MaxDataFrame).MaximumData)
	// the limit was advertised, no new frame is due
	require.False(t, fc.WillGenerateFrame(protocol.Encryption1RTT))
}

func TestRemoteCredit(t *testing.T) {
	fc := NewRemoteFlowController(100, utils.DefaultLogger)
	require.Equal(t, protocol.ByteCount(100), fc.Credit())
	require.NoError(t, fc.Update(60))
	require.Equal(t, protocol.ByteCount(40), fc.Credit())
	fc.ForwardLimit(200)
	require.Equal(t, protocol.ByteCount(140), fc.Credit())
	fc.ForwardLimit(50) // ignored, limits don't move backwards
	require.Equal(t, protocol.ByteCount(200), fc.CurrentLimit())
}

func TestRemoteUpdateViolation(t *testing.T) {
	fc := NewRemoteFlowController(100, utils.DefaultLogger)
	require.NoError(t, fc.Update(100))
	require.Error(t, fc.Update(101))
}

func TestRemoteBlockedOncePerLimit(t *testing.T) {
	fc := NewRemoteFlowController(100, utils.DefaultLogger)
	require.NoError(t, fc.Update(100))
	require.True(t, fc.WillGenerateFrame(protocol.Encryption1RTT))
	f := fc.GenerateFrame(protocol.Encryption1RTT, 1, 100)
	require.NotNil(t, f)
	require.Equal(t, protocol.ByteCount(100), f.(*wire.BlockedFrame).Offset)
	// a second BLOCKED frame for the same limit is suppressed
	require.False(t, fc.WillGenerateFrame(protocol.Encryption1RTT))
	// raising the limit and exhausting it again re-arms the frame
	fc.ForwardLimit(200)
	require.NoError(t, fc.Update(200))
	require.True(t, fc.WillGenerateFrame(protocol.Encryption1RTT))
}
