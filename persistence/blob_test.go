package persistence

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bytesWriterTo adapts a byte slice to io.WriterTo.
type bytesWriterTo []byte

func (b bytesWriterTo) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b)
	return int64(n), err
}

func TestBlobRoundTrip(t *testing.T) {
	payload := []byte("the binary artifact payload, repeated for compressibility: " +
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			blob, err := EncodeBlob(bytesWriterTo(payload), c)
			require.NoError(t, err)

			// First byte is the codec tag.
			assert.Equal(t, byte(c), blob[0])

			got, err := DecodeBlob(blob)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestBlobCompressionShrinks(t *testing.T) {
	payload := make([]byte, 64*1024)
	for i := range payload {
		payload[i] = byte(i % 7)
	}

	raw, err := EncodeBlob(bytesWriterTo(payload), CompressionNone)
	require.NoError(t, err)

	zstd, err := EncodeBlob(bytesWriterTo(payload), CompressionZSTD)
	require.NoError(t, err)

	assert.Less(t, len(zstd), len(raw))
}

func TestDecodeBlobErrors(t *testing.T) {
	t.Run("empty blob", func(t *testing.T) {
		_, err := DecodeBlob(nil)
		require.Error(t, err)
	})

	t.Run("unknown codec", func(t *testing.T) {
		_, err := DecodeBlob([]byte{0xFF, 1, 2, 3})
		require.Error(t, err)
	})
}

func TestEncodeBlobUnknownCodec(t *testing.T) {
	_, err := EncodeBlob(bytesWriterTo("x"), Compression(99))
	require.Error(t, err)
}
