package protocol

import (
	"bufio"
	"encoding/binary"
	"io"
	"strconv"

	"github.com/ironspire/coreserver/gamecipher"
)

// MessageSizeKind distinguishes how a game message's payload length was
// carried on the wire.
type MessageSizeKind uint8

const (
	SizeFixed MessageSizeKind = iota
	SizeByte
	SizeShort
)

// GameMessage is one decoded or outbound frame on the game channel.
type GameMessage struct {
	Opcode  uint8
	Kind    MessageSizeKind
	Payload []byte
}

const illegalSize int16 = -3

// sizes maps a deobfuscated opcode to its frame shape: -3 means the opcode
// is illegal, -1 means a trailing byte carries the payload length, -2
// means a trailing u16 BE carries it, and any value ≥0 is the fixed
// payload size. Transcribed verbatim from
// original_source/net/src/codec/game.rs's SIZES table.
var sizes = buildSizes()

func buildSizes() [256]int16 {
	var a [256]int16
	for i := range a {
		a[i] = illegalSize
	}

	a[25] = 4
	a[19] = 2
	a[14] = 7
	a[66] = 8
	a[38] = 8
	a[50] = -1
	a[21] = -1
	a[1] = 2
	a[28] = 8
	a[49] = 6
	a[54] = 12
	a[5] = 5
	a[40] = 3
	a[81] = 4
	a[53] = -1
	a[72] = -1
	a[26] = 7
	a[68] = 3
	a[4] = -1
	a[75] = 16
	a[47] = 3
	a[8] = 8
	a[44] = -1
	a[6] = 8
	a[15] = -1
	a[39] = 7
	a[56] = -1
	a[23] = 3
	a[64] = 8
	a[80] = 7
	a[71] = 2
	a[13] = 3
	a[76] = 3
	a[18] = 6
	a[55] = 16
	a[52] = -1
	a[41] = 3
	a[61] = 2
	a[20] = 8
	a[70] = 8
	a[31] = 3
	a[69] = 0
	a[9] = -1
	a[73] = 2
	a[34] = 11
	a[59] = 18
	a[3] = -1
	a[65] = 3
	a[30] = 3
	a[42] = -1
	a[32] = -1
	a[45] = 3
	a[51] = 4
	a[33] = 11
	a[43] = 2
	a[12] = 4
	a[0] = -1
	a[77] = 7
	a[37] = 15
	a[24] = -1
	a[48] = 1
	a[79] = -1
	a[63] = -1
	a[62] = 8
	a[7] = 7
	a[10] = 7
	a[2] = -1
	a[11] = 7
	a[78] = -1
	a[60] = 3
	a[29] = 7
	a[35] = 3
	a[27] = -1
	a[74] = 0
	a[67] = 7
	a[22] = 4
	a[36] = 3
	a[17] = 0
	a[58] = 6
	a[57] = 4
	a[46] = 8
	a[16] = 15

	return a
}

// GameDecoder decodes the inbound game channel: opcode (obfuscated by
// subtracting the stream cipher's next byte), an optional trailing size
// field, then the payload.
type GameDecoder struct {
	r      *bufio.Reader
	cipher *gamecipher.ISAAC
}

// NewGameDecoder wraps r with the given inbound keystream.
func NewGameDecoder(r *bufio.Reader, cipher *gamecipher.ISAAC) *GameDecoder {
	return &GameDecoder{r: r, cipher: cipher}
}

// ReadMessage blocks for exactly one game message, deobfuscating the
// opcode and reading whatever trailing size field and payload its SIZES
// entry calls for.
func (d *GameDecoder) ReadMessage() (GameMessage, error) {
	encrypted, err := d.r.ReadByte()
	if err != nil {
		return GameMessage{}, err
	}
	opcode := encrypted - d.cipher.Next()

	marker := sizes[opcode]
	if marker == illegalSize {
		return GameMessage{}, &InvalidMessageSizeError{Opcode: opcode}
	}

	var kind MessageSizeKind
	var size int

	switch {
	case marker >= 0:
		kind = SizeFixed
		size = int(marker)
	case marker == -1:
		kind = SizeByte
		b, err := d.r.ReadByte()
		if err != nil {
			return GameMessage{}, err
		}
		size = int(b)
	case marker == -2:
		kind = SizeShort
		var b [2]byte
		if _, err := io.ReadFull(d.r, b[:]); err != nil {
			return GameMessage{}, err
		}
		size = int(binary.BigEndian.Uint16(b[:]))
	}

	payload := make([]byte, size)
	if size > 0 {
		if _, err := io.ReadFull(d.r, payload); err != nil {
			return GameMessage{}, err
		}
	}

	return GameMessage{Opcode: opcode, Kind: kind, Payload: payload}, nil
}

// GameEncoder encodes outbound game messages with the per-connection
// keystream added to the opcode.
type GameEncoder struct {
	cipher *gamecipher.ISAAC
}

// NewGameEncoder wraps the given outbound keystream.
func NewGameEncoder(cipher *gamecipher.ISAAC) *GameEncoder {
	return &GameEncoder{cipher: cipher}
}

// Encode builds the wire bytes for msg: the obfuscated opcode, the size
// field matching msg.Kind, then the payload.
func (e *GameEncoder) Encode(msg GameMessage) []byte {
	out := make([]byte, 0, 3+len(msg.Payload))
	out = append(out, msg.Opcode+e.cipher.Next())

	switch msg.Kind {
	case SizeByte:
		out = append(out, uint8(len(msg.Payload)))
	case SizeShort:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(len(msg.Payload)))
		out = append(out, b[:]...)
	}

	out = append(out, msg.Payload...)
	return out
}

// InvalidMessageSizeError reports an opcode whose SIZES entry is illegal.
type InvalidMessageSizeError struct{ Opcode uint8 }

func (e *InvalidMessageSizeError) Error() string {
	return "protocol: invalid game message opcode " + strconv.Itoa(int(e.Opcode))
}
