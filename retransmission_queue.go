package quivc

import (
	"sync"

	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/wire"
)

// The retransmissionQueue buffers frames of packets the loss detectors
// declared lost, per encryption level, and re-emits them during
// packetization. The loss detector may report losses from a background
// timer, so the queue is locked.
type retransmissionQueue struct {
	mx     sync.Mutex
	queues [4][]wire.Frame // indexed by protocol.EncryptionLevel
}

func newRetransmissionQueue() *retransmissionQueue {
	return &retransmissionQueue{}
}

// AddLostFrames queues the frames of a lost packet for retransmission.
// ACK frames are never retransmitted.
func (q *retransmissionQueue) AddLostFrames(level protocol.EncryptionLevel, frames []wire.Frame) {
	q.mx.Lock()
	defer q.mx.Unlock()
	for _, f := range frames {
		if _, ok := f.(*wire.AckFrame); ok {
			continue
		}
		q.queues[level] = append(q.queues[level], f)
	}
}

// WillGenerateFrame says if lost frames are queued for this level.
func (q *retransmissionQueue) WillGenerateFrame(level protocol.EncryptionLevel) bool {
	q.mx.Lock()
	defer q.mx.Unlock()
	return len(q.queues[level]) > 0
}

// GenerateFrame pops the next lost frame fitting in maxSize, splitting
// CRYPTO frames if necessary.
func (q *retransmissionQueue) GenerateFrame(level protocol.EncryptionLevel, _ uint16, maxSize protocol.ByteCount) wire.Frame {
	q.mx.Lock()
	defer q.mx.Unlock()
	queue := q.queues[level]
	if len(queue) == 0 {
		return nil
	}
	f := queue[0]
	if cf, ok := f.(*wire.CryptoFrame); ok {
		newFrame, needsSplit := cf.MaybeSplitOffFrame(maxSize, protocol.VersionDraft13)
		if newFrame == nil && !needsSplit { // the whole frame fits
			q.queues[level] = queue[1:]
			return cf
		}
		if newFrame != nil { // the frame was split, the rest stays queued
			return newFrame
		}
		return nil
	}
	if f.Length(protocol.VersionDraft13) > maxSize {
		return nil
	}
	q.queues[level] = queue[1:]
	return f
}

// Reset drops all queued frames. Used when the transport state is
// discarded after Version Negotiation or Retry.
func (q *retransmissionQueue) Reset() {
	q.mx.Lock()
	defer q.mx.Unlock()
	for i := range q.queues {
		q.queues[i] = nil
	}
}
