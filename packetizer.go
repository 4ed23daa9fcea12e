package quivc

import (
	"math"
	"time"

	"github.com/quivc/quivc/internal/ackhandler"
	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/internal/qerr"
	"github.com/quivc/quivc/internal/wire"
)

// minimumQUICPacketSize returns the padding target of a packet. The first
// Initial of a client must be at least 1200 bytes; a server pads
// protected packets to a randomized 32-95 bytes as a minor
// traffic-analysis countermeasure.
func (c *Conn) minimumQUICPacketSize() protocol.ByteCount {
	if c.perspective == protocol.PerspectiveClient {
		return protocol.MinInitialPacketSize
	}
	return 32 + protocol.ByteCount(c.rnd.Uint32()&0x3f)
}

// maximumQUICPacketSize returns the maximum UDP payload we produce.
func (c *Conn) maximumQUICPacketSize() protocol.ByteCount {
	return c.pmtu
}

// maximumStreamFrameDataSize caps the frame area of a packet. The
// constant is calibrated for long headers; short header packets get a
// slightly conservative budget.
func (c *Conn) maximumStreamFrameDataSize() protocol.ByteCount {
	return c.maximumQUICPacketSize() - protocol.MaxStreamFrameOverhead - protocol.MaxPacketOverhead
}

// sendPackets runs the packetizer: per write-ready event it builds at
// most MaxPacketsPerWriteEvent packets, each datagram bounded by the
// congestion window and the PMTU.
func (c *Conn) sendPackets() *qerr.ConnectionError {
	var packetCount int
	var stop bool
	for !stop && packetCount < protocol.MaxPacketsPerWriteEvent {
		window := c.congestion.OpenWindow()
		if window == 0 {
			break
		}
		budget := min(window, c.maximumQUICPacketSize())

		var datagram []byte
		for _, level := range protocol.EncryptionLevels {
			// server-side anti-amplification: stop emitting once three
			// handshake packets were sent to an unverified source address
			if c.perspective == protocol.PerspectiveServer && !c.srcAddrVerified &&
				c.handshakePacketsSent >= protocol.MaxPacketsWithoutAddressValidation {
				stop = true
				break
			}

			maxPacketSize := budget - protocol.ByteCount(len(datagram))
			raw, sent := c.packetizePacket(level, maxPacketSize)
			if raw == nil {
				continue
			}

			if c.perspective == protocol.PerspectiveServer &&
				(sent.EncryptionLevel == protocol.EncryptionInitial || sent.EncryptionLevel == protocol.EncryptionHandshake) {
				c.handshakePacketsSent++
			}

			datagram = append(datagram, raw...)
			c.logger.Debugf("[TX] %s packet #%d size=%d", protocol.PacketTypeFromEncryptionLevel(level), sent.PacketNumber, len(raw))

			c.lossDetectors[protocol.SpaceFromEncryptionLevel(level)].OnPacketSent(sent)
			if c.config.Metrics != nil {
				c.config.Metrics.PacketSent(sent.Length)
			}
			if c.config.Tracer != nil {
				c.config.Tracer.SentPacket(protocol.PacketTypeFromEncryptionLevel(level), sent.PacketNumber, sent.Length)
			}
			packetCount++
		}

		if len(datagram) > 0 {
			c.sender.SendPacket(c, datagram)
		} else {
			break
		}
	}

	if packetCount > 0 {
		c.onNetActivity()
	}
	return nil
}

// packetizePacket builds one sealed packet of the given encryption level
// into at most maxPacketSize bytes. It returns nil if there is nothing to
// send at this level, or if the keys are not yet available.
func (c *Conn) packetizePacket(level protocol.EncryptionLevel, maxPacketSize protocol.ByteCount) ([]byte, *ackhandler.Packet) {
	if _, err := c.protection.sealer(level); err != nil {
		return nil, nil
	}

	payload, frames, ackOnly, probing := c.packetizeFrames(level, maxPacketSize)
	if len(payload) == 0 {
		return nil, nil
	}

	// a packet is ack-eliciting unless the ACK was its only frame
	return c.buildPacket(level, payload, frames, !ackOnly, probing)
}

// packetizeFrames queries every frame producer in strict priority order,
// each until it declines or the budget is exhausted, and returns the
// serialized frame area of the packet.
func (c *Conn) packetizeFrames(level protocol.EncryptionLevel, maxPacketSize protocol.ByteCount) (payload []byte, frames []wire.Frame, ackOnly, probing bool) {
	if maxPacketSize <= protocol.MaxPacketOverhead {
		return nil, nil, false, false
	}

	maxFrameSize := maxPacketSize - protocol.MaxPacketOverhead
	maxFrameSize = min(maxFrameSize, c.maximumStreamFrameDataSize())

	c.packetTxMutex.Lock()
	defer c.packetTxMutex.Unlock()
	c.frameTxMutex.Lock()
	defer c.frameTxMutex.Unlock()

	var frameCount int
	store := func(f wire.Frame) {
		b, err := f.Append(payload, c.version)
		if err != nil {
			c.logger.Errorf("failed to serialize frame: %s", err)
			return
		}
		payload = b
		maxFrameSize -= f.Length(c.version)
		frameCount++
		probing = probing || wire.IsProbingFrame(f)
		frames = append(frames, f)
	}

	// CRYPTO
	for maxFrameSize > 0 {
		f := c.engine.GenerateFrame(level, math.MaxUint16, maxFrameSize)
		if f == nil {
			break
		}
		store(f)
	}

	// PATH_CHALLENGE, PATH_RESPONSE
	for maxFrameSize > 0 {
		f := c.validator.GenerateFrame(level, math.MaxUint16, maxFrameSize)
		if f == nil {
			break
		}
		store(f)
	}

	// NEW_CONNECTION_ID, RETIRE_CONNECTION_ID
	if c.altCIDs != nil {
		for maxFrameSize > 0 {
			f := c.altCIDs.GenerateFrame(level, math.MaxUint16, maxFrameSize)
			if f == nil {
				break
			}
			store(f)
		}
	}

	// lost frames
	for maxFrameSize > 0 {
		f := c.retransmitter.GenerateFrame(level, math.MaxUint16, maxFrameSize)
		if f == nil {
			break
		}
		store(f)
	}

	// MAX_DATA
	if maxFrameSize > 0 {
		if f := c.localFC.GenerateFrame(level, math.MaxUint16, maxFrameSize); f != nil {
			store(f)
		}
	}

	// BLOCKED
	if maxFrameSize > 0 && c.remoteFC.Credit() == 0 && c.streams.WillGenerateFrame(level) {
		if f := c.remoteFC.GenerateFrame(level, math.MaxUint16, maxFrameSize); f != nil {
			store(f)
		}
	}

	// STREAM, MAX_STREAM_DATA, STREAM_BLOCKED
	if !c.validator.IsValidating() {
		for maxFrameSize > 0 {
			f := c.streams.GenerateFrame(level, c.remoteFC.Credit(), maxFrameSize)
			if f == nil {
				break
			}
			if _, ok := f.(*wire.StreamFrame); ok {
				// the stream manager was asked for no more than the
				// remaining credit, so this must not fail
				if err := c.remoteFC.Update(c.streams.TotalOffsetSent()); err != nil {
					c.logger.Errorf("stream manager exceeded the connection flow control credit: %s", err)
				}
				c.logger.Debugf("[REMOTE] %d/%d", c.remoteFC.CurrentOffset(), c.remoteFC.CurrentLimit())
			}
			store(f)

			c.streamFramesSent++
			if c.streamFramesSent%protocol.MaxConsecutiveStreamFrames == 0 {
				// interrupt the stream frames to give the ACK a chance in
				// the next packet
				break
			}
		}
	}

	// ACK
	var ack wire.Frame
	if frameCount == 0 {
		if c.ackCreator.WillGenerateFrame(level) {
			ack = c.ackCreator.GenerateFrame(level, math.MaxUint16, maxFrameSize)
		}
	} else if maxFrameSize > 0 {
		ack = c.ackCreator.GenerateFrame(level, math.MaxUint16, maxFrameSize)
	}
	if ack != nil {
		if frameCount == 0 {
			ackOnly = true
		}
		store(ack)
	}

	if len(payload) == 0 {
		return nil, nil, false, false
	}

	// pad the first flight of a client and, with a randomized target,
	// protected server packets
	var padTo protocol.ByteCount
	if level == protocol.EncryptionInitial && c.perspective == protocol.PerspectiveClient {
		padTo = min(c.minimumQUICPacketSize(), maxPacketSize)
	} else if level == protocol.Encryption1RTT && c.perspective == protocol.PerspectiveServer {
		padTo = min(c.minimumQUICPacketSize(), maxPacketSize)
	}
	if padTo > protocol.ByteCount(len(payload)) {
		payload = append(payload, make([]byte, padTo-protocol.ByteCount(len(payload)))...)
	}

	return payload, frames, ackOnly, probing
}

// buildPacket assigns the next packet number of the level's packet number
// space, serializes the header, seals the payload and applies the
// packet-number protection.
func (c *Conn) buildPacket(level protocol.EncryptionLevel, payload []byte, frames []wire.Frame, ackEliciting, probing bool) ([]byte, *ackhandler.Packet) {
	sealer, err := c.protection.sealer(level)
	if err != nil {
		return nil, nil
	}

	space := protocol.SpaceFromEncryptionLevel(level)
	pn := c.pnSpaces[space]
	typ := protocol.PacketTypeFromEncryptionLevel(level)

	hdr := &wire.Header{
		Type:         typ,
		Version:      c.version,
		PacketNumber: pn,
	}
	switch typ {
	case protocol.PacketTypeProtected:
		hdr.DestConnectionID = c.peerCID
	case protocol.PacketTypeInitial:
		// the client addresses its Initial packets with the original
		// connection ID until the server's choice is known
		if c.perspective == protocol.PerspectiveClient {
			hdr.DestConnectionID = c.originalCID
		} else {
			hdr.DestConnectionID = c.peerCID
		}
		hdr.SrcConnectionID = c.localCID
	default:
		hdr.DestConnectionID = c.peerCID
		hdr.SrcConnectionID = c.localCID
	}
	hdr.Length = wire.PacketNumberLen + protocol.ByteCount(len(payload)) + protocol.ByteCount(sealer.Overhead())

	raw, herr := hdr.Append(nil, c.version)
	if herr != nil {
		c.logger.Errorf("failed to serialize header: %s", herr)
		return nil, nil
	}
	pnOffset := protocol.ByteCount(len(raw)) - wire.PacketNumberLen

	raw = sealer.Seal(raw, payload, pn, raw[:len(raw):len(raw)])
	protectPacketNumber(raw, pnOffset, sealer)

	c.pnSpaces[space]++

	return raw, &ackhandler.Packet{
		PacketNumber:    pn,
		EncryptionLevel: level,
		Frames:          frames,
		Length:          protocol.ByteCount(len(raw)),
		AckEliciting:    ackEliciting,
		Probing:         probing,
		SendTime:        time.Now(),
	}
}

// packetizeClosingFrame builds the single packet that carries the CLOSE
// frame. The same packet may be re-emitted while closing.
func (c *Conn) packetizeClosingFrame() {
	c.packetTxMutex.Lock()
	defer c.packetTxMutex.Unlock()
	c.frameTxMutex.Lock()
	defer c.frameTxMutex.Unlock()

	if c.connErr == nil || c.finalPacket != nil {
		return
	}

	var frame wire.Frame
	if c.connErr.IsApplicationError() {
		frame = &wire.ApplicationCloseFrame{ErrorCode: c.connErr.Code, ReasonPhrase: c.connErr.Message}
	} else {
		frame = &wire.ConnectionCloseFrame{ErrorCode: c.connErr.Code, FrameType: c.connErr.FrameType, ReasonPhrase: c.connErr.Message}
	}

	level := c.engine.CurrentEncryptionLevel()
	if level == protocol.Encryption0RTT {
		level = protocol.Encryption1RTT
	}

	payload, err := frame.Append(nil, c.version)
	if err != nil {
		c.logger.Errorf("failed to serialize the closing frame: %s", err)
		return
	}

	raw, _ := c.buildPacket(level, payload, []wire.Frame{frame}, false, false)
	c.finalPacket = raw
}

// stateClosingSendPacket re-emits the closing packet, bounded by the hard
// transmission cap.
func (c *Conn) stateClosingSendPacket() {
	c.packetizeClosingFrame()

	if c.finalPacket == nil || c.closingPacketsSent >= protocol.MaxClosingSendPackets {
		return
	}
	c.closingPacketsSent++
	c.sender.SendPacket(c, c.finalPacket)
	if c.config.Metrics != nil {
		c.config.Metrics.PacketSent(protocol.ByteCount(len(c.finalPacket)))
	}
}
