package persistence

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the codec applied to the raw blob format.
type Compression uint8

const (
	// CompressionNone stores the payload uncompressed.
	CompressionNone Compression = 0
	// CompressionLZ4 favors decode speed.
	CompressionLZ4 Compression = 1
	// CompressionZSTD favors ratio and is the default.
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionLZ4:
		return "LZ4"
	case CompressionZSTD:
		return "ZSTD"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// EncodeBlob produces the raw blob representation of an index: a single
// codec tag byte followed by the (optionally compressed) binary artifact.
// For a memory-mapped index this forces a full materialization of the
// vector data into process memory.
func EncodeBlob(wt io.WriterTo, c Compression) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(c))

	switch c {
	case CompressionNone:
		if _, err := wt.WriteTo(&buf); err != nil {
			return nil, err
		}

	case CompressionLZ4:
		zw := lz4.NewWriter(&buf)
		if _, err := wt.WriteTo(zw); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}

	case CompressionZSTD:
		zw, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		if _, err := wt.WriteTo(zw); err != nil {
			zw.Close()
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("persistence: unknown compression codec: %d", c)
	}

	return buf.Bytes(), nil
}

// DecodeBlob reverses EncodeBlob, returning the binary artifact bytes.
// The blob format always loads fully into memory.
func DecodeBlob(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("persistence: empty blob")
	}

	c := Compression(data[0])
	payload := data[1:]

	switch c {
	case CompressionNone:
		return payload, nil

	case CompressionLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(payload)))

	case CompressionZSTD:
		zr, err := zstd.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)

	default:
		return nil, fmt.Errorf("persistence: unknown compression codec: %d", c)
	}
}
