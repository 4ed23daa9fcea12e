package protocol

import (
	"fmt"
	"time"
)

// A PacketNumber in QUIC
type PacketNumber int64

// InvalidPacketNumber is a packet number that is never sent.
// In the ACK frame, we need to send the smallest unacked packet number.
// If all packets are acked, no packet number is valid here.
const InvalidPacketNumber PacketNumber = -1

// A ByteCount in QUIC
type ByteCount int64

// MaxByteCount is the maximum value of a ByteCount
const MaxByteCount = ByteCount(1<<62 - 1)

// A StatelessResetToken is issued per connection ID so a peer with lost
// state can kill the connection.
type StatelessResetToken [16]byte

func (t StatelessResetToken) String() string { return fmt.Sprintf("%x", t[:]) }

// MaxPacketOverhead is the maximum long header length, exclusive of the
// token field of an Initial packet, inclusive of the AEAD tag.
const MaxPacketOverhead ByteCount = 62

// MaxStreamFrameOverhead is the maximum size of the non-data part of a
// STREAM frame.
const MaxStreamFrameOverhead ByteCount = 24

// MinInitialPacketSize is the minimum size of the first Initial packet
// sent by a client.
const MinInitialPacketSize ByteCount = 1200

// MaxPacketsPerWriteEvent bounds the number of packets built per
// write-ready event.
const MaxPacketsPerWriteEvent = 32

// MaxConsecutiveStreamFrames is the number of consecutive STREAM frames
// after which packetization is interrupted to give ACK frames a chance.
const MaxConsecutiveStreamFrames = 8

// MaxPacketsWithoutAddressValidation is the number of handshake packets a
// server may send before the client's source address is verified.
const MaxPacketsWithoutAddressValidation = 3

// MaxClosingSendPackets is the maximum number of packets carrying a
// closing frame that are sent while in the closing state.
const MaxClosingSendPackets = 8

// MaxClosingRecvWindow is the largest receive window used by the closing
// state's response backoff.
const MaxClosingRecvWindow = 1 << MaxClosingSendPackets

// WriteReadyInterval is the self-rearming interval of the write-ready
// timer.
const WriteReadyInterval = 20 * time.Millisecond

// DefaultIdleTimeout is used when the configuration doesn't set an
// inactivity timeout.
const DefaultIdleTimeout = 30 * time.Second

// MaxReceiveQueueLen is the maximum number of datagrams buffered in the
// receive queue before packets are dropped.
const MaxReceiveQueueLen = 256

// DefaultConnectionFlowControlWindow is the connection-level flow control
// window used when the handshake doesn't supply transport parameters.
const DefaultConnectionFlowControlWindow ByteCount = 1 << 16
