package congestion

import (
	"github.com/quivc/quivc/internal/protocol"
)

const (
	defaultInitialWindow protocol.ByteCount = 32 * 1460
	defaultMinimumWindow protocol.ByteCount = 2 * 1460
	defaultMaximumWindow protocol.ByteCount = 1 << 20
)

// The Controller is a window-based congestion controller: slow start up
// to a maximum window, multiplicative decrease on loss.
type Controller struct {
	initialWindow protocol.ByteCount
	maxWindow     protocol.ByteCount

	congestionWindow protocol.ByteCount
	bytesInFlight    protocol.ByteCount
}

// NewController creates a congestion controller with the default windows.
func NewController() *Controller {
	return &Controller{
		initialWindow:    defaultInitialWindow,
		maxWindow:        defaultMaximumWindow,
		congestionWindow: defaultInitialWindow,
	}
}

// OpenWindow returns the number of bytes that may currently be sent.
func (c *Controller) OpenWindow() protocol.ByteCount {
	if c.bytesInFlight >= c.congestionWindow {
		return 0
	}
	return c.congestionWindow - c.bytesInFlight
}

// OnPacketSent is called for every ack-eliciting packet sent.
func (c *Controller) OnPacketSent(length protocol.ByteCount) {
	c.bytesInFlight += length
}

// OnPacketAcked grows the window (slow start) and releases the bytes.
func (c *Controller) OnPacketAcked(length protocol.ByteCount) {
	c.release(length)
	if c.congestionWindow < c.maxWindow {
		c.congestionWindow += length
		if c.congestionWindow > c.maxWindow {
			c.congestionWindow = c.maxWindow
		}
	}
}

// OnPacketLost halves the window and releases the bytes.
func (c *Controller) OnPacketLost(length protocol.ByteCount) {
	c.release(length)
	c.congestionWindow /= 2
	if c.congestionWindow < defaultMinimumWindow {
		c.congestionWindow = defaultMinimumWindow
	}
}

func (c *Controller) release(length protocol.ByteCount) {
	if length > c.bytesInFlight {
		c.bytesInFlight = 0
		return
	}
	c.bytesInFlight -= length
}

// Reset restores the initial state. Used when the transport state is
// discarded after Version Negotiation or Retry.
func (c *Controller) Reset() {
	c.congestionWindow = c.initialWindow
	c.bytesInFlight = 0
}
