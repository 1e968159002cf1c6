package protocol

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/ironspire/coreserver/wire"
)

const (
	loginTypeReconnect uint8 = 16
	loginTypeNew       uint8 = 18

	encryptedLoginType uint8 = 10
	crcCount                 = 31
	uidLength                = 24
)

// LoginRequest is a fully decoded and RSA-unwrapped login attempt.
type LoginRequest struct {
	Version     uint32
	DisplayMode uint8
	UID         [uidLength]int8
	CRC         [crcCount]uint32
	ClientKey   int64
	ServerKey   int64
	Username    string
	Password    string
}

// ReadLoginHeader reads the 3-byte login frame header (type, u16 BE size).
// Types 16 (reconnect) and 18 (new session) are the only valid values.
func ReadLoginHeader(r *bufio.Reader) (loginType uint8, size uint16, err error) {
	loginType, err = r.ReadByte()
	if err != nil {
		return 0, 0, err
	}
	if loginType != loginTypeReconnect && loginType != loginTypeNew {
		return 0, 0, ErrInvalidLoginType
	}

	var sizeBytes [2]byte
	if _, err := io.ReadFull(r, sizeBytes[:]); err != nil {
		return 0, 0, err
	}
	size = binary.BigEndian.Uint16(sizeBytes[:])
	return loginType, size, nil
}

// ParseLoginPayload decodes the plaintext login block and RSA-decrypts its
// trailing encrypted block, matching
// original_source/net/src/codec/login.rs's Decoder::decode field order
// exactly. expectedHash is the username hash byte read off the handshake;
// it must match the low 5 bits of (encoded_username >> 16).
func ParseLoginPayload(payload []byte, expectedHash uint8, key RSAKey) (*LoginRequest, error) {
	r := wire.NewReader(payload)

	version, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if _, err := r.ReadU8(); err != nil { // discarded
		return nil, err
	}
	displayMode, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(2); err != nil { // discarded u16
		return nil, err
	}
	if err := r.Skip(2); err != nil { // discarded u16
		return nil, err
	}
	if _, err := r.ReadU8(); err != nil { // discarded
		return nil, err
	}

	var uid [uidLength]int8
	for i := range uid {
		v, err := r.ReadI8()
		if err != nil {
			return nil, err
		}
		uid[i] = v
	}

	if _, err := r.ReadString(); err != nil { // discarded
		return nil, err
	}
	if _, err := r.ReadU32(); err != nil { // discarded
		return nil, err
	}

	toolkitSize, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(int(toolkitSize)); err != nil {
		return nil, err
	}

	if err := r.Skip(2); err != nil { // discarded u16
		return nil, err
	}

	var crc [crcCount]uint32
	for i := range crc {
		v, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		crc[i] = v
	}

	encryptedSize, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	encryptedBlock, err := r.ReadBytes(int(encryptedSize))
	if err != nil {
		return nil, err
	}

	plain := key.Decrypt(encryptedBlock)
	secure := wire.NewReader(plain)

	encryptedType, err := secure.ReadU8()
	if err != nil {
		return nil, err
	}
	if encryptedType != encryptedLoginType {
		return nil, ErrInvalidEncryptedType
	}

	clientKey, err := secure.ReadI64()
	if err != nil {
		return nil, err
	}
	serverKey, err := secure.ReadI64()
	if err != nil {
		return nil, err
	}
	encodedUsername, err := secure.ReadI64()
	if err != nil {
		return nil, err
	}
	password, err := secure.ReadString()
	if err != nil {
		return nil, err
	}

	usernameHash := uint8((encodedUsername >> 16) & 31)
	if usernameHash != expectedHash {
		return nil, ErrUsernameHashMismatch
	}

	return &LoginRequest{
		Version:     version,
		DisplayMode: displayMode,
		UID:         uid,
		CRC:         crc,
		ClientKey:   clientKey,
		ServerKey:   serverKey,
		Username:    DecodeBase37(encodedUsername),
		Password:    password,
	}, nil
}

// LoginStatus is the single status byte every login response begins with.
// Outcomes other than OK carry no payload.
type LoginStatus uint8

const (
	LoginStatusSessionKey   LoginStatus = 0
	LoginStatusOK           LoginStatus = 2
	LoginStatusInvalidCreds LoginStatus = 3
	LoginStatusGameUpdated  LoginStatus = 6
	LoginStatusBadSessionID LoginStatus = 10
)

// EncodeSessionKey builds the server's first login-phase reply: a status
// byte of 0 followed by the freshly generated i64 session key.
func EncodeSessionKey(sessionKey int64) []byte {
	w := wire.NewWriter(9)
	w.WriteU8(uint8(LoginStatusSessionKey))
	w.WriteBytes(int64ToBytes(sessionKey))
	return w.Bytes()
}

// EncodeLoginFailure builds a bare status-byte failure response (no
// trailing payload), used for the invalid-credentials / out-of-date /
// world-full family of outcomes.
func EncodeLoginFailure(status LoginStatus) []byte {
	return []byte{uint8(status)}
}

// EncodeLoginSuccess builds a successful login response: the status byte
// followed by the caller-supplied payload (player index, display mode,
// flagged privileges, etc. — composed by the caller since that layout is
// a game-layer concern, not a frame-codec one).
func EncodeLoginSuccess(status LoginStatus, payload []byte) []byte {
	out := make([]byte, 0, 1+len(payload))
	out = append(out, uint8(status))
	out = append(out, payload...)
	return out
}

func int64ToBytes(v int64) []byte {
	w := wire.NewWriter(8)
	w.WriteI64(v)
	return w.Bytes()
}
