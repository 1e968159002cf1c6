package protocol

import (
	"bufio"
	"encoding/binary"
	"io"
)

// HandshakeOpcode is the first byte of a connection, selecting its dialect.
type HandshakeOpcode uint8

const (
	OpcodeJS5       HandshakeOpcode = 15
	OpcodeWorldList HandshakeOpcode = 23
	OpcodeLogin     HandshakeOpcode = 14
)

func handshakeOpcodeFromByte(b uint8) (HandshakeOpcode, bool) {
	switch HandshakeOpcode(b) {
	case OpcodeJS5, OpcodeWorldList, OpcodeLogin:
		return HandshakeOpcode(b), true
	default:
		return 0, false
	}
}

// HandshakeResponse is the single byte the server replies with for a JS5
// handshake.
type HandshakeResponse uint8

const (
	HandshakeSuccess   HandshakeResponse = 0
	HandshakeOutOfDate HandshakeResponse = 6
)

// JS5Handshake carries the client version that followed a JS5 opcode byte.
type JS5Handshake struct {
	ClientVersion uint32
}

// WorldListHandshake carries the full-update flag that followed a WorldList
// opcode byte.
type WorldListHandshake struct {
	FullUpdate bool
}

// LoginHandshake carries the username hash byte that followed a Login
// opcode byte.
type LoginHandshake struct {
	Hash uint8
}

// ReadHandshake consumes the dialect-selecting opcode byte and its
// fixed-size trailer, returning exactly one of the three handshake structs.
func ReadHandshake(r *bufio.Reader) (opcode HandshakeOpcode, js5 JS5Handshake, worldList WorldListHandshake, login LoginHandshake, err error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, JS5Handshake{}, WorldListHandshake{}, LoginHandshake{}, err
	}

	opcode, ok := handshakeOpcodeFromByte(b)
	if !ok {
		return 0, JS5Handshake{}, WorldListHandshake{}, LoginHandshake{}, &InvalidHandshakeOpcodeError{Opcode: b}
	}

	switch opcode {
	case OpcodeJS5:
		var versionBytes [4]byte
		if _, err := io.ReadFull(r, versionBytes[:]); err != nil {
			return 0, JS5Handshake{}, WorldListHandshake{}, LoginHandshake{}, err
		}
		js5.ClientVersion = binary.BigEndian.Uint32(versionBytes[:])

	case OpcodeWorldList:
		flag, err := r.ReadByte()
		if err != nil {
			return 0, JS5Handshake{}, WorldListHandshake{}, LoginHandshake{}, err
		}
		worldList.FullUpdate = flag == 0

	case OpcodeLogin:
		hash, err := r.ReadByte()
		if err != nil {
			return 0, JS5Handshake{}, WorldListHandshake{}, LoginHandshake{}, err
		}
		login.Hash = hash
	}

	return opcode, js5, worldList, login, nil
}
