package protocol

import (
	"github.com/ironspire/coreserver/cache"
)

// JS5RequestOpcode is the first byte of a 4-byte JS5 request frame.
type JS5RequestOpcode uint8

const (
	JS5FileNormal    JS5RequestOpcode = 0
	JS5FileUrgent    JS5RequestOpcode = 1
	JS5StateChangeA  JS5RequestOpcode = 2
	JS5StateChangeB  JS5RequestOpcode = 3
	JS5EncryptionKey JS5RequestOpcode = 4
	JS5StateChangeC  JS5RequestOpcode = 6
	JS5StateChangeD  JS5RequestOpcode = 7
)

// StateChangeName maps the state-change opcodes to the named transition the
// client signals, purely for observability — the payload is still read and
// discarded, never queued as a request.
var StateChangeName = map[JS5RequestOpcode]string{
	JS5StateChangeA: "LoggedIn",
	JS5StateChangeB: "LoggedOut",
	JS5StateChangeC: "Connected",
	JS5StateChangeD: "Disconnected",
}

// IsStateChange reports whether opcode is one of the four state-change
// opcodes.
func (o JS5RequestOpcode) IsStateChange() bool {
	_, ok := StateChangeName[o]
	return ok
}

// JS5FileRequest is a decoded file-request frame.
type JS5FileRequest struct {
	Urgent  bool
	Index   cache.IndexId
	Archive cache.ArchiveId
}

// JS5Frame is one decoded JS5 reader-side message: exactly one of a file
// request, an encryption-key update, or a state change (named for logging,
// never queued as a request).
type JS5Frame struct {
	FileRequest   *JS5FileRequest
	EncryptionKey *uint8
	StateChange   JS5RequestOpcode // zero value when not a state change
}

// ParseJS5Frame decodes one JS5 request frame. body must be exactly the 3
// bytes that follow the opcode (index, archive-hi, archive-lo for file
// requests; the key byte then two padding bytes for key updates; 3
// arbitrary padding/argument bytes otherwise).
func ParseJS5Frame(opcode uint8, body [3]byte) (JS5Frame, error) {
	op := JS5RequestOpcode(opcode)
	switch op {
	case JS5FileNormal, JS5FileUrgent:
		return JS5Frame{FileRequest: &JS5FileRequest{
			Urgent:  op == JS5FileUrgent,
			Index:   cache.IndexId(body[0]),
			Archive: cache.ArchiveId(uint16(body[1])<<8 | uint16(body[2])),
		}}, nil

	case JS5EncryptionKey:
		key := body[0]
		return JS5Frame{EncryptionKey: &key}, nil

	case JS5StateChangeA, JS5StateChangeB, JS5StateChangeC, JS5StateChangeD:
		return JS5Frame{StateChange: op}, nil

	default:
		return JS5Frame{}, ErrInvalidRequestOpcode
	}
}

const (
	blockMarker      = 0xFF
	firstChunkSize   = 508
	continuationSize = 511
)

// EncodeJS5Response builds the wire bytes for a cache read: index, archive,
// the compression byte (tag, or tag|0x80 when not urgent), and the
// container payload with its leading compression-tag byte stripped, split
// into a 508-byte first chunk and 511-byte continuations each prefixed by
// the 0xFF block marker. Returns nil for empty containerData (callers must
// never frame an empty response).
func EncodeJS5Response(index cache.IndexId, archive cache.ArchiveId, containerData []byte, urgent bool) []byte {
	if len(containerData) == 0 {
		return nil
	}

	compression := containerData[0]
	compressionByte := compression
	if !urgent {
		compressionByte |= 0x80
	}

	payload := containerData[1:]
	dataLen := len(payload)

	numMarkers := 0
	if dataLen > firstChunkSize {
		numMarkers = 1 + (dataLen-firstChunkSize-1)/continuationSize
	}

	out := make([]byte, 0, 4+dataLen+numMarkers)
	out = append(out, uint8(index), uint8(archive>>8), uint8(archive), compressionByte)

	firstSize := dataLen
	if firstSize > firstChunkSize {
		firstSize = firstChunkSize
	}
	out = append(out, payload[:firstSize]...)

	offset := firstSize
	for offset < dataLen {
		out = append(out, blockMarker)
		chunkSize := dataLen - offset
		if chunkSize > continuationSize {
			chunkSize = continuationSize
		}
		out = append(out, payload[offset:offset+chunkSize]...)
		offset += chunkSize
	}

	return out
}

// XorEncode returns data XORed with key byte-for-byte. A zero key disables
// obfuscation and returns data unmodified (no copy).
func XorEncode(data []byte, key uint8) []byte {
	if key == 0 {
		return data
	}
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key
	}
	return out
}
