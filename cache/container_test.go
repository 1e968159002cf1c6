package cache

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeContainerUncompressed(t *testing.T) {
	payload := []byte("hello world")
	raw := append([]byte{byte(CompressionNone)}, sizeBytes(uint32(len(payload)))...)
	raw = append(raw, payload...)

	out, err := decodeContainer(raw)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestDecodeContainerGzip(t *testing.T) {
	payload := []byte("a repeating repeating repeating payload")
	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	_, err := gz.Write(payload)
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	raw := []byte{byte(CompressionGzip)}
	raw = append(raw, sizeBytes(uint32(compressed.Len()))...)
	raw = append(raw, sizeBytes(uint32(len(payload)))...)
	raw = append(raw, compressed.Bytes()...)

	out, err := decodeContainer(raw)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestDecodeContainerUnsupportedCompression(t *testing.T) {
	raw := []byte{0x09, 0, 0, 0, 0}
	_, err := decodeContainer(raw)
	require.ErrorIs(t, err, ErrUnsupportedCompression)
}

func TestDecodeContainerTruncatedHeader(t *testing.T) {
	_, err := decodeContainer([]byte{0x00, 0x00})
	require.ErrorIs(t, err, ErrInvalidContainer)
}

func sizeBytes(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}
