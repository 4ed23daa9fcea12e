package wire

import (
	"errors"
	"io"

	"github.com/quivc/quivc/internal/protocol"
	"github.com/quivc/quivc/quicvarint"
)

// A StreamFrame of QUIC
type StreamFrame struct {
	StreamID       uint64
	Offset         protocol.ByteCount
	Data           []byte
	Fin            bool
	DataLenPresent bool
}

func parseStreamFrame(typeByte byte, b []byte, _ protocol.Version) (*StreamFrame, int, error) {
	startLen := len(b)
	hasOffset := typeByte&0x4 > 0
	fin := typeByte&0x1 > 0
	hasDataLen := typeByte&0x2 > 0

	frame := &StreamFrame{Fin: fin, DataLenPresent: hasDataLen}

	sid, l, err := quicvarint.Parse(b)
	if err != nil {
		return nil, 0, err
	}
	b = b[l:]
	frame.StreamID = sid

	if hasOffset {
		offset, l, err := quicvarint.Parse(b)
		if err != nil {
			return nil, 0, err
		}
		b = b[l:]
		frame.Offset = protocol.ByteCount(offset)
	}

	dataLen := uint64(len(b))
	if hasDataLen {
		var l int
		dataLen, l, err = quicvarint.Parse(b)
		if err != nil {
			return nil, 0, err
		}
		b = b[l:]
		if dataLen > uint64(len(b)) {
			return nil, 0, io.EOF
		}
	}
	if dataLen != 0 {
		frame.Data = make([]byte, dataLen)
		copy(frame.Data, b)
		b = b[dataLen:]
	}
	if frame.Offset+frame.DataLen() > protocol.MaxByteCount {
		return nil, 0, errors.New("stream data overflows maximum offset")
	}
	return frame, startLen - len(b), nil
}

// Append appends a STREAM frame.
func (f *StreamFrame) Append(b []byte, _ protocol.Version) ([]byte, error) {
	if len(f.Data) == 0 && !f.Fin {
		return nil, errors.New("StreamFrame: attempting to write empty frame without FIN")
	}

	typeByte := byte(FrameTypeStream)
	if f.Fin {
		typeByte ^= 0x1
	}
	hasOffset := f.Offset != 0
	if f.DataLenPresent {
		typeByte ^= 0x2
	}
	if hasOffset {
		typeByte ^= 0x4
	}
	b = append(b, typeByte)
	b = quicvarint.Append(b, f.StreamID)
	if hasOffset {
		b = quicvarint.Append(b, uint64(f.Offset))
	}
	if f.DataLenPresent {
		b = quicvarint.Append(b, uint64(f.DataLen()))
	}
	b = append(b, f.Data...)
	return b, nil
}

// Length returns the total length of the STREAM frame
func (f *StreamFrame) Length(_ protocol.Version) protocol.ByteCount {
	length := 1 + quicvarint.Len(f.StreamID)
	if f.Offset != 0 {
		length += quicvarint.Len(uint64(f.Offset))
	}
	if f.DataLenPresent {
		length += quicvarint.Len(uint64(f.DataLen()))
	}
	return protocol.ByteCount(length) + f.DataLen()
}

// DataLen gives the length of data in bytes
func (f *StreamFrame) DataLen() protocol.ByteCount {
	return protocol.ByteCount(len(f.Data))
}
