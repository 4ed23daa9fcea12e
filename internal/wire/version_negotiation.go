package wire

import (
	"encoding/binary"

	"github.com/quivc/quivc/internal/protocol"
)

// ComposeVersionNegotiation composes a Version Negotiation packet.
func ComposeVersionNegotiation(destConnID, srcConnID protocol.ConnectionID, versions []protocol.Version) []byte {
	b := make([]byte, 0, 6+destConnID.Len()+srcConnID.Len()+4*len(versions))
	// The most significant bit must be set; the remaining bits of the
	// first byte are not interpreted by the recipient.
	b = append(b, 0x80|0x55)
	b = binary.BigEndian.AppendUint32(b, 0) // version 0 marks Version Negotiation
	b = append(b, encodeCIDLen(destConnID.Len())<<4|encodeCIDLen(srcConnID.Len()))
	b = append(b, destConnID.Bytes()...)
	b = append(b, srcConnID.Bytes()...)
	for _, v := range versions {
		b = binary.BigEndian.AppendUint32(b, uint32(v))
	}
	return b
}
