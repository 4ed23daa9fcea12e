package wire

import (
	"io"

	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/quicvarint"
)

// A CryptoFrame is a CRYPTO frame
type CryptoFrame struct {
	Offset protocol.ByteCount
	Data   []byte
}

func parseCryptoFrame(b []byte, _ protocol.Version) (*CryptoFrame, int, error) {
	startLen := len(b)
	offset, l, err := quicvarint.Parse(b)
	if err != nil {
		return nil, 0, err
	}
	b = b[l:]
	frame := &CryptoFrame{Offset: protocol.ByteCount(offset)}
	dataLen, l, err := quicvarint.Parse(b)
	if err != nil {
		return nil, 0, err
	}
	b = b[l:]
	if dataLen > uint64(len(b)) {
		return nil, 0, io.EOF
	}
	if dataLen != 0 {
		frame.Data = make([]byte, dataLen)
		copy(frame.Data, b)
		b = b[dataLen:]
	}
	return frame, startLen - len(b), nil
}

// Append appends a CRYPTO frame.
func (f *CryptoFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	b = append(b, byte(FrameTypeCrypto))
	b = quicvarint.Append(b, uint64(f.Offset))
	b = quicvarint.Append(b, uint64(len(f.Data)))
	b = append(b, f.Data...)
	return b, nil
}

// Length of a written frame
func (f *CryptoFrame) Length(_ protocol.Version) protocol.ByteCount {
	return protocol.ByteCount(1 + quicvarint.Len(uint64(f.Offset)) + quicvarint.Len(uint64(len(f.Data))) + len(f.Data))
}

// DataLen gives the length of data in bytes
func (f *CryptoFrame) DataLen() protocol.ByteCount {
	return protocol.ByteCount(len(f.Data))
}

// MaxDataLen returns the maximum data length
// If 0 is returned, this means that no data can be written.
func (f *CryptoFrame) MaxDataLen(maxSize protocol.ByteCount) protocol.ByteCount {
	headerLen := protocol.ByteCount(1 + quicvarint.Len(uint64(f.Offset)))
	// pretend that the data size will be 1 byte
	// if it turns out that varint encoding the length is longer, we
	// cut the data
	headerLen++
	if headerLen > maxSize {
		return 0
	}
	maxDataLen := maxSize - headerLen
	if protocol.ByteCount(quicvarint.Len(uint64(maxDataLen))) != 1 {
		maxDataLen--
	}
	return maxDataLen
}

// MaybeSplitOffFrame splits a frame such that it is not bigger than n
// bytes. It returns if the frame was actually split. The frame might not
// be split if the frame is alreay small enough.
func (f *CryptoFrame) MaybeSplitOffFrame(maxSize protocol.ByteCount, v protocol.Version) (*CryptoFrame, bool /* was splitting required */) {
	if f.Length(v) <= maxSize {
		return nil, false
	}

	n := f.MaxDataLen(maxSize)
	if n == 0 {
		return nil, true
	}

	new := &CryptoFrame{
		Offset: f.Offset,
		Data:   f.Data[:n],
	}
	f.Data = f.Data[n:]
	f.Offset += n

	return new, true
}
