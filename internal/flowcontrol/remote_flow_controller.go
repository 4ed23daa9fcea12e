package flowcontrol

import (
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/qerr"
	"github.com/quivc/quivc/internal/utils"
	"github.com/quivc/quivc/internal/wire"
)

// The RemoteFlowController enforces the connection-level limit the peer
// imposed on us and reports exhausted credit via BLOCKED frames.
type RemoteFlowController struct {
	currentOffset protocol.ByteCount // highest total of stream bytes sent
	limit         protocol.ByteCount
	blockedAt     protocol.ByteCount // offset a BLOCKED frame was last sent for

	logger utils.Logger
}

// NewRemoteFlowController creates a flow controller for data sent on this
// connection.
func NewRemoteFlowController(limit protocol.ByteCount, logger utils.Logger) *RemoteFlowController {
	return &RemoteFlowController{limit: limit, logger: logger}
}

// SetLimit installs the limit negotiated in the transport parameters.
// Unlike ForwardLimit it replaces the pre-handshake limit.
func (c *RemoteFlowController) SetLimit(limit protocol.ByteCount) {
	c.limit = limit
}

// ForwardLimit advances the limit on a received MAX_DATA frame. The limit
// never moves backwards.
func (c *RemoteFlowController) ForwardLimit(limit protocol.ByteCount) {
	if limit <= c.limit {
		return
	}
	c.limit = limit
}

// Update records the total number of stream bytes sent so far. The
// packetizer never asks the stream manager for more than Credit bytes, so
// the limit cannot be exceeded.
func (c *RemoteFlowController) Update(totalSent protocol.ByteCount) error {
	if totalSent < c.currentOffset {
		return nil
	}
	c.currentOffset = totalSent
	if c.currentOffset > c.limit {
		return qerr.NewTransportError(qerr.InternalError, "exceeded the connection flow control limit imposed by the peer")
	}
	return nil
}

// Credit returns the number of bytes that may still be sent.
func (c *RemoteFlowController) Credit() protocol.ByteCount {
	return c.limit - c.currentOffset
}

// CurrentOffset returns the highest sent offset total.
func (c *RemoteFlowController) CurrentOffset() protocol.ByteCount { return c.currentOffset }

// CurrentLimit returns the current limit.
func (c *RemoteFlowController) CurrentLimit() protocol.ByteCount { return c.limit }

// WillGenerateFrame says if a BLOCKED frame for the current limit is due.
// The caller additionally checks that a stream actually has data queued.
func (c *RemoteFlowController) WillGenerateFrame(level protocol.EncryptionLevel) bool {
	if level != protocol.Encryption1RTT {
		return false
	}
	return c.Credit() == 0 && c.blockedAt != c.limit
}

// GenerateFrame returns a BLOCKED frame, or nil. At most one BLOCKED
// frame is sent per limit.
func (c *RemoteFlowController) GenerateFrame(level protocol.EncryptionLevel, _ uint16, maxSize protocol.ByteCount) wire.Frame {
	if !c.WillGenerateFrame(level) {
		return nil
	}
	f := &wire.BlockedFrame{Offset: c.limit}
	if f.Length(protocol.VersionDraft13) > maxSize {
		return nil
	}
	c.blockedAt = c.limit
	if c.logger.Debug() {
		c.logger.Debugf("[REMOTE] blocked at %d", c.limit)
	}
	return f
}
