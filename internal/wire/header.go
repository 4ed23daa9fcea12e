package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/quicvarint"
)

// ErrUnsupportedVersion is returned when parsing a long header packet of
// an unknown version. The invariant part of the header is parsed anyway.
var ErrUnsupportedVersion = errors.New("unsupported version")

const (
	firstByteInitial   = 0xff
	firstByteRetry     = 0xfe
	firstByteHandshake = 0xfd
	firstByte0RTT      = 0xfc
	firstByteShort     = 0x30
)

// PacketNumberLen is the number of bytes the packet number field occupies
// on the wire. We always emit the 4-byte encoding; all three encodings are
// accepted when parsing.
const PacketNumberLen = 4

// IsLongHeader says if a packet is a long header packet.
func IsLongHeader(firstByte byte) bool {
	return firstByte&0x80 > 0
}

// ParseDestConnectionID parses the destination connection ID of a packet.
// It uses the data slice for the connection ID.
func ParseDestConnectionID(data []byte, shortHeaderConnIDLen int) (protocol.ConnectionID, error) {
	if len(data) == 0 {
		return nil, io.EOF
	}
	if !IsLongHeader(data[0]) {
		if len(data) < shortHeaderConnIDLen+1 {
			return nil, io.EOF
		}
		return protocol.ConnectionID(data[1 : 1+shortHeaderConnIDLen]), nil
	}
	if len(data) < 6 {
		return nil, io.EOF
	}
	dcil := decodeCIDLen(data[5] >> 4)
	if len(data) < 6+dcil {
		return nil, io.EOF
	}
	return protocol.ConnectionID(data[6 : 6+dcil]), nil
}

// The Header of a QUIC packet.
type Header struct {
	Type    protocol.PacketType
	Version protocol.Version

	DestConnectionID protocol.ConnectionID
	SrcConnectionID  protocol.ConnectionID

	// Length is the length of the packet number plus the protected
	// payload (long header packets only).
	Length protocol.ByteCount

	PacketNumber    protocol.PacketNumber
	PacketNumberLen int

	// SupportedVersions are the versions listed in a Version Negotiation
	// packet.
	SupportedVersions []protocol.Version

	pnOffset  protocol.ByteCount
	parsedLen protocol.ByteCount
}

func encodeCIDLen(l int) byte {
	if l == 0 {
		return 0
	}
	return byte(l - 3)
}

func decodeCIDLen(b byte) int {
	if b == 0 {
		return 0
	}
	return int(b) + 3
}

// ParsePacket parses a packet from the beginning of data.
// For coalesced datagrams it returns the bytes belonging to this packet
// and the rest of the datagram. A short header packet consumes the whole
// datagram.
func ParsePacket(data []byte, shortHeaderConnIDLen int) (*Header, []byte /* packet */, []byte /* rest */, error) {
	if len(data) == 0 {
		return nil, nil, nil, io.EOF
	}
	if !IsLongHeader(data[0]) {
		hdr, err := parseShortHeader(data, shortHeaderConnIDLen)
		if err != nil {
			return nil, nil, nil, err
		}
		return hdr, data, nil, nil
	}
	hdr, err := parseLongHeader(data)
	if err != nil {
		if err == ErrUnsupportedVersion {
			return hdr, data, nil, err
		}
		return nil, nil, nil, err
	}
	if hdr.Type == protocol.PacketTypeVersionNegotiation {
		return hdr, data, nil, nil
	}
	packetLen := hdr.pnOffset + hdr.Length
	if protocol.ByteCount(len(data)) < packetLen {
		return nil, nil, nil, fmt.Errorf("packet length (%d bytes) is smaller than the expected length (%d bytes)", len(data), packetLen)
	}
	return hdr, data[:packetLen], data[packetLen:], nil
}

func parseLongHeader(data []byte) (*Header, error) {
	if len(data) < 6 {
		return nil, io.EOF
	}
	h := &Header{}
	typeByte := data[0]
	h.Version = protocol.Version(binary.BigEndian.Uint32(data[1:5]))
	dcil := decodeCIDLen(data[5] >> 4)
	scil := decodeCIDLen(data[5] & 0xf)
	pos := 6
	if len(data) < pos+dcil+scil {
		return nil, io.EOF
	}
	h.DestConnectionID = protocol.ConnectionID(append([]byte{}, data[pos:pos+dcil]...))
	pos += dcil
	h.SrcConnectionID = protocol.ConnectionID(append([]byte{}, data[pos:pos+scil]...))
	pos += scil

	if h.Version == 0 { // Version Negotiation packet
		h.Type = protocol.PacketTypeVersionNegotiation
		if len(data[pos:]) == 0 || len(data[pos:])%4 != 0 {
			return nil, errors.New("Version Negotiation packet has an invalid version list")
		}
		for b := data[pos:]; len(b) > 0; b = b[4:] {
			h.SupportedVersions = append(h.SupportedVersions, protocol.Version(binary.BigEndian.Uint32(b)))
		}
		h.parsedLen = protocol.ByteCount(len(data))
		return h, nil
	}

	switch typeByte {
	case firstByteInitial:
		h.Type = protocol.PacketTypeInitial
	case firstByteRetry:
		h.Type = protocol.PacketTypeRetry
	case firstByteHandshake:
		h.Type = protocol.PacketTypeHandshake
	case firstByte0RTT:
		h.Type = protocol.PacketType0RTT
	default:
		return nil, fmt.Errorf("invalid long header type: %#x", typeByte)
	}

	if !protocol.IsSupportedVersion(protocol.SupportedVersions, h.Version) {
		h.parsedLen = protocol.ByteCount(pos)
		return h, ErrUnsupportedVersion
	}

	length, l, err := quicvarint.Parse(data[pos:])
	if err != nil {
		return nil, err
	}
	pos += l
	h.Length = protocol.ByteCount(length)
	h.pnOffset = protocol.ByteCount(pos)
	h.parsedLen = protocol.ByteCount(pos)
	return h, nil
}

func parseShortHeader(data []byte, connIDLen int) (*Header, error) {
	if len(data) < 1+connIDLen {
		return nil, io.EOF
	}
	h := &Header{Type: protocol.PacketTypeProtected}
	h.DestConnectionID = protocol.ConnectionID(append([]byte{}, data[1:1+connIDLen]...))
	h.pnOffset = protocol.ByteCount(1 + connIDLen)
	h.parsedLen = h.pnOffset
	h.Length = protocol.ByteCount(len(data)) - h.pnOffset
	return h, nil
}

// ParsedLen returns the number of bytes that were consumed when parsing
// the header.
func (h *Header) ParsedLen() protocol.ByteCount { return h.parsedLen }

// PacketNumberOffset returns the offset of the (protected) packet number
// field within the packet.
func (h *Header) PacketNumberOffset() protocol.ByteCount { return h.pnOffset }

// PayloadOffset returns the offset of the protected payload. It is only
// valid after the packet number was parsed.
func (h *Header) PayloadOffset() protocol.ByteCount {
	return h.pnOffset + protocol.ByteCount(h.PacketNumberLen)
}

// ReadPacketNumber decodes the (unprotected) packet number field.
// packet is the whole packet, starting at the first header byte.
func (h *Header) ReadPacketNumber(packet []byte) error {
	if protocol.ByteCount(len(packet)) < h.pnOffset+1 {
		return io.EOF
	}
	b := packet[h.pnOffset:]
	switch {
	case b[0]&0x80 == 0: // 1 byte, 7 bits
		h.PacketNumber = protocol.PacketNumber(b[0] & 0x7f)
		h.PacketNumberLen = 1
	case b[0]&0xc0 == 0x80: // 2 bytes, 14 bits
		if len(b) < 2 {
			return io.EOF
		}
		h.PacketNumber = protocol.PacketNumber(binary.BigEndian.Uint16(b) & 0x3fff)
		h.PacketNumberLen = 2
	default: // 4 bytes, 30 bits
		if len(b) < 4 {
			return io.EOF
		}
		h.PacketNumber = protocol.PacketNumber(binary.BigEndian.Uint32(b) & 0x3fffffff)
		h.PacketNumberLen = 4
	}
	return nil
}

// Append serializes the header, including the 4-byte encoding of the
// packet number. For long header packets, Length must be set before.
func (h *Header) Append(b []byte, _ protocol.Version) ([]byte, error) {
	if h.Type == protocol.PacketTypeProtected {
		b = append(b, firstByteShort)
		b = append(b, h.DestConnectionID.Bytes()...)
		return appendPacketNumber(b, h.PacketNumber), nil
	}

	var typeByte byte
	switch h.Type {
	case protocol.PacketTypeInitial:
		typeByte = firstByteInitial
	case protocol.PacketTypeRetry:
		typeByte = firstByteRetry
	case protocol.PacketTypeHandshake:
		typeByte = firstByteHandshake
	case protocol.PacketType0RTT:
		typeByte = firstByte0RTT
	default:
		return nil, fmt.Errorf("cannot serialize packet type %s", h.Type)
	}
	b = append(b, typeByte)
	b = binary.BigEndian.AppendUint32(b, uint32(h.Version))
	b = append(b, encodeCIDLen(h.DestConnectionID.Len())<<4|encodeCIDLen(h.SrcConnectionID.Len()))
	b = append(b, h.DestConnectionID.Bytes()...)
	b = append(b, h.SrcConnectionID.Bytes()...)
	b = quicvarint.Append(b, uint64(h.Length))
	return appendPacketNumber(b, h.PacketNumber), nil
}

// HeaderLen returns the number of bytes Append will produce, including the
// packet number field.
func (h *Header) HeaderLen() protocol.ByteCount {
	if h.Type == protocol.PacketTypeProtected {
		return protocol.ByteCount(1 + h.DestConnectionID.Len() + PacketNumberLen)
	}
	return protocol.ByteCount(1+4+1+h.DestConnectionID.Len()+h.SrcConnectionID.Len()+quicvarint.Len(uint64(h.Length))) + PacketNumberLen
}

func appendPacketNumber(b []byte, pn protocol.PacketNumber) []byte {
	return binary.BigEndian.AppendUint32(b, uint32(pn)&0x3fffffff|0xc0000000)
}
