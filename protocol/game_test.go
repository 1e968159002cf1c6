package protocol

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironspire/coreserver/gamecipher"
)

func TestSizesTableKnownEntries(t *testing.T) {
	require.Equal(t, int16(4), sizes[25])
	require.Equal(t, int16(-1), sizes[50])
	require.Equal(t, int16(18), sizes[59])
	require.Equal(t, int16(0), sizes[69])
	require.Equal(t, int16(15), sizes[16])
	require.Equal(t, illegalSize, sizes[255])
	require.Equal(t, int16(-1), sizes[0])
}

func TestGameEncodeDecodeFixedSize(t *testing.T) {
	pair := gamecipher.NewPair(1, 2)

	enc := NewGameEncoder(pair.Out)
	msg := GameMessage{Opcode: 25, Kind: SizeFixed, Payload: []byte{1, 2, 3, 4}}
	wire := enc.Encode(msg)

	decPair := gamecipher.NewPair(1, 2)
	dec := NewGameDecoder(bufio.NewReader(bytes.NewReader(wire)), decPair.Out)
	got, err := dec.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, msg, got)
}

func TestGameEncodeDecodeByteSize(t *testing.T) {
	pair := gamecipher.NewPair(5, 6)
	enc := NewGameEncoder(pair.Out)
	msg := GameMessage{Opcode: 50, Kind: SizeByte, Payload: []byte("hello")}
	wire := enc.Encode(msg)

	decPair := gamecipher.NewPair(5, 6)
	dec := NewGameDecoder(bufio.NewReader(bytes.NewReader(wire)), decPair.Out)
	got, err := dec.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, msg, got)
}

func TestGameEncodeDecodeShortSize(t *testing.T) {
	// The transcribed table has no short-sized (-2) opcode, so mark an
	// otherwise illegal one as short-sized for the duration of this test.
	const shortOpcode = 200
	orig := sizes[shortOpcode]
	sizes[shortOpcode] = -2
	t.Cleanup(func() { sizes[shortOpcode] = orig })

	pair := gamecipher.NewPair(7, 8)
	enc := NewGameEncoder(pair.Out)
	payload := make([]byte, 300)
	msg := GameMessage{Opcode: shortOpcode, Kind: SizeShort, Payload: payload}
	wire := enc.Encode(msg)

	decPair := gamecipher.NewPair(7, 8)
	dec := NewGameDecoder(bufio.NewReader(bytes.NewReader(wire)), decPair.Out)
	got, err := dec.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, msg.Opcode, got.Opcode)
	require.Equal(t, msg.Kind, got.Kind)
	require.Equal(t, msg.Payload, got.Payload)
}

func TestGameDecoderRejectsIllegalOpcode(t *testing.T) {
	pair := gamecipher.NewPair(1, 2)
	keystreamByte := pair.In.Next()

	frame := []byte{200 + keystreamByte} // opcode 200 has sizes[200] == illegalSize
	decPair := gamecipher.NewPair(1, 2)
	dec := NewGameDecoder(bufio.NewReader(bytes.NewReader(frame)), decPair.In)

	_, err := dec.ReadMessage()
	require.Error(t, err)
	var target *InvalidMessageSizeError
	require.ErrorAs(t, err, &target)
	require.Equal(t, uint8(200), target.Opcode)
}
