package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironspire/coreserver/cache"
)

func TestParseJS5FrameFileRequest(t *testing.T) {
	frame, err := ParseJS5Frame(uint8(JS5FileUrgent), [3]byte{7, 0x01, 0x02})
	require.NoError(t, err)
	require.NotNil(t, frame.FileRequest)
	require.True(t, frame.FileRequest.Urgent)
	require.Equal(t, cache.IndexId(7), frame.FileRequest.Index)
	require.Equal(t, cache.ArchiveId(0x0102), frame.FileRequest.Archive)
}

func TestParseJS5FrameEncryptionKey(t *testing.T) {
	frame, err := ParseJS5Frame(uint8(JS5EncryptionKey), [3]byte{9, 0, 0})
	require.NoError(t, err)
	require.NotNil(t, frame.EncryptionKey)
	require.Equal(t, uint8(9), *frame.EncryptionKey)
}

func TestParseJS5FrameStateChange(t *testing.T) {
	frame, err := ParseJS5Frame(uint8(JS5StateChangeC), [3]byte{0, 0, 0})
	require.NoError(t, err)
	require.Nil(t, frame.FileRequest)
	require.Nil(t, frame.EncryptionKey)
	require.Equal(t, JS5StateChangeC, frame.StateChange)
	require.True(t, frame.StateChange.IsStateChange())
}

func TestParseJS5FrameInvalidOpcode(t *testing.T) {
	_, err := ParseJS5Frame(99, [3]byte{0, 0, 0})
	require.ErrorIs(t, err, ErrInvalidRequestOpcode)
}

func TestEncodeJS5ResponseSingleChunk(t *testing.T) {
	container := append([]byte{0}, make([]byte, 100)...)
	out := EncodeJS5Response(cache.IndexId(3), cache.ArchiveId(0x1234), container, true)

	require.Equal(t, uint8(3), out[0])
	require.Equal(t, uint8(0x12), out[1])
	require.Equal(t, uint8(0x34), out[2])
	require.Equal(t, uint8(0), out[3])
	require.Len(t, out, 4+100)
}

func TestEncodeJS5ResponseNotUrgentSetsHighBit(t *testing.T) {
	container := append([]byte{2}, make([]byte, 10)...)
	out := EncodeJS5Response(cache.IndexId(0), cache.ArchiveId(0), container, false)
	require.Equal(t, uint8(0x82), out[3])
}

func TestEncodeJS5ResponseMultiChunkBoundary(t *testing.T) {
	// exactly firstChunkSize bytes: no continuation markers at all.
	container := append([]byte{0}, make([]byte, firstChunkSize)...)
	out := EncodeJS5Response(cache.IndexId(0), cache.ArchiveId(0), container, true)
	require.Len(t, out, 4+firstChunkSize)

	// one byte past the boundary: exactly one marker plus one byte of data.
	container2 := append([]byte{0}, make([]byte, firstChunkSize+1)...)
	out2 := EncodeJS5Response(cache.IndexId(0), cache.ArchiveId(0), container2, true)
	require.Len(t, out2, 4+firstChunkSize+1+1)
	require.Equal(t, uint8(blockMarker), out2[4+firstChunkSize])
}

func TestEncodeJS5ResponseMultipleContinuations(t *testing.T) {
	dataLen := firstChunkSize + continuationSize + 5
	container := append([]byte{0}, make([]byte, dataLen)...)
	out := EncodeJS5Response(cache.IndexId(0), cache.ArchiveId(0), container, true)

	require.Len(t, out, 4+dataLen+2)
	require.Equal(t, uint8(blockMarker), out[4+firstChunkSize])
	require.Equal(t, uint8(blockMarker), out[4+firstChunkSize+1+continuationSize])
}

func TestEncodeJS5ResponseEmpty(t *testing.T) {
	require.Nil(t, EncodeJS5Response(cache.IndexId(0), cache.ArchiveId(0), nil, true))
}

func TestXorEncode(t *testing.T) {
	data := []byte{1, 2, 3}
	require.Equal(t, data, XorEncode(data, 0))

	out := XorEncode(data, 0xFF)
	require.Equal(t, []byte{0xFE, 0xFD, 0xFC}, out)
}
