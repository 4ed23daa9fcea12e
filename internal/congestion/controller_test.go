package congestion

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWindowAccounting(t *testing.T) {
	c := NewController()
	initial := c.OpenWindow()
	require.Equal(t, defaultInitialWindow, initial)

	c.OnPacketSent(1000)
	require.Equal(t, initial-1000, c.OpenWindow())

	c.OnPacketAcked(1000)
	// slow start grows the window by the acked bytes
	require.Equal(t, initial+1000, c.OpenWindow())
}

func TestWindowClosedWhenFull(t *testing.T) {
	c := NewController()
	c.OnPacketSent(c.OpenWindow())
	require.Zero(t, c.OpenWindow())
	c.OnPacketSent(1000)
	require.Zero(t, c.OpenWindow())
}

func TestLossHalvesWindow(t *testing.T) {
	c := NewController()
	initial := c.OpenWindow()
	c.OnPacketSent(1000)
	c.OnPacketLost(1000)
	require.Equal(t, initial/2, c.OpenWindow())
}

func TestWindowNeverBelowMinimum(t *testing.T) {
	c := NewController()
	for i := 0; i < 20; i++ {
		c.OnPacketSent(100)
		c.OnPacketLost(100)
	}
	require.Equal(t, defaultMinimumWindow, c.OpenWindow())
}

func TestWindowCapped(t *testing.T) {
	c := NewController()
	for i := 0; i < 1000; i++ {
		c.OnPacketSent(10000)
		c.OnPacketAcked(10000)
	}
	require.Equal(t, defaultMaximumWindow, c.OpenWindow())
}

func TestReset(t *testing.T) {
	c := NewController()
	c.OnPacketSent(5000)
	c.OnPacketLost(5000)
	c.Reset()
	require.Equal(t, defaultInitialWindow, c.OpenWindow())
	require.Zero(t, c.bytesInFlight)
}
