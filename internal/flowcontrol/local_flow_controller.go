package flowcontrol

import (
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/qerr"
	"github.com/quivc/quivc/internal/utils"
	"github.com/quivc/quivc/internal/wire"
)

// The LocalFlowController enforces the connection-level limit we imposed
// on the peer and advertises limit increases via MAX_DATA frames.
type LocalFlowController struct {
	currentOffset   protocol.ByteCount // highest total of stream bytes received
	limit           protocol.ByteCount
	advertisedLimit protocol.ByteCount

	logger utils.Logger
}

// NewLocalFlowController creates a flow controller for data received on
// this connection.
func NewLocalFlowController(limit protocol.ByteCount, logger utils.Logger) *LocalFlowController {
	return &LocalFlowController{
		limit:           limit,
		advertisedLimit: limit,
		logger:          logger,
	}
}

// SetLimit installs the limit negotiated in the transport parameters.
// Unlike ForwardLimit it replaces the pre-handshake limit.
func (c *LocalFlowController) SetLimit(limit protocol.ByteCount) {
	c.limit = limit
	c.advertisedLimit = limit
}

// Update records the total number of stream bytes received so far.
// Exceeding the limit is a flow control violation by the peer.
func (c *LocalFlowController) Update(totalReceived protocol.ByteCount) error {
	if totalReceived < c.currentOffset {
		return nil
	}
	c.currentOffset = totalReceived
	if c.currentOffset > c.limit {
		return qerr.NewTransportError(qerr.FlowControlError, "peer exceeded the connection flow control limit")
	}
	return nil
}

// ForwardLimit advances the limit. The limit never moves backwards.
func (c *LocalFlowController) ForwardLimit(limit protocol.ByteCount) {
	if limit <= c.limit {
		return
	}
	c.limit = limit
}

// CurrentOffset returns the highest received offset total.
func (c *LocalFlowController) CurrentOffset() protocol.ByteCount { return c.currentOffset }

// CurrentLimit returns the current limit.
func (c *LocalFlowController) CurrentLimit() protocol.ByteCount { return c.limit }

// WillGenerateFrame says if there is a limit increase to advertise.
func (c *LocalFlowController) WillGenerateFrame(level protocol.EncryptionLevel) bool {
	if level != protocol.Encryption1RTT {
		return false
	}
	return c.limit > c.advertisedLimit
}

// GenerateFrame returns a MAX_DATA frame advertising the current limit,
// or nil.
func (c *LocalFlowController) GenerateFrame(level protocol.EncryptionLevel, _ uint16, maxSize protocol.ByteCount) wire.Frame {
	if !c.WillGenerateFrame(level) {
		return nil
	}
	f := &wire.MaxDataFrame{MaximumData: c.limit}
	if f.Length(protocol.VersionDraft13) > maxSize {
		return nil
	}
	c.advertisedLimit = c.limit
	if c.logger.Debug() {
		c.logger.Debugf("[LOCAL] advertising MAX_DATA %d", c.limit)
	}
	return f
}
