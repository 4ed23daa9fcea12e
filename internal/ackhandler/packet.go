package ackhandler

import (
	"time"

	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/wire"
)

// A Packet is a packet handed to the loss detector when it is sent.
type Packet struct {
	PacketNumber    protocol.PacketNumber
	EncryptionLevel protocol.EncryptionLevel
	Frames          []wire.Frame
	Length          protocol.ByteCount
	AckEliciting    bool
	Probing         bool
	SendTime        time.Time
}
