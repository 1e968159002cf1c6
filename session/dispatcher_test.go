package session

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ironspire/coreserver/accounts"
	"github.com/ironspire/coreserver/protocol"
	"github.com/ironspire/coreserver/world"
)

func TestDispatchWorldList(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	payload := protocol.WorldListPayload{
		Worlds: []protocol.World{{ID: 1, PlayerCount: 3}},
	}
	cfg := Config{
		WorldList: func(fullUpdate bool) protocol.WorldListPayload {
			require.True(t, fullUpdate)
			return payload
		},
	}

	done := make(chan error, 1)
	go func() { done <- Dispatch(context.Background(), serverConn, cfg) }()

	_, err := clientConn.Write([]byte{byte(protocol.OpcodeWorldList), 0x00}) // 0x00 == full update
	require.NoError(t, err)

	expected := protocol.EncodeWorldList(payload)
	got := make([]byte, len(expected))
	_, err = io.ReadFull(clientConn, got)
	require.NoError(t, err)
	require.Equal(t, expected, got)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch did not return")
	}
}

func TestDispatchJS5VersionMismatch(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	cfg := Config{ClientVersion: 500}

	done := make(chan error, 1)
	go func() { done <- Dispatch(context.Background(), serverConn, cfg) }()

	var versionBytes [4]byte
	binary.BigEndian.PutUint32(versionBytes[:], 1)
	frame := append([]byte{byte(protocol.OpcodeJS5)}, versionBytes[:]...)
	_, err := clientConn.Write(frame)
	require.NoError(t, err)

	var resp [1]byte
	_, err = io.ReadFull(clientConn, resp[:])
	require.NoError(t, err)
	require.Equal(t, uint8(protocol.HandshakeOutOfDate), resp[0])

	select {
	case err := <-done:
		var mismatch *protocol.VersionMismatchError
		require.ErrorAs(t, err, &mismatch)
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch did not return")
	}
}

func TestDispatchInvalidOpcode(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	cfg := Config{}

	done := make(chan error, 1)
	go func() { done <- Dispatch(context.Background(), serverConn, cfg) }()

	_, err := clientConn.Write([]byte{0xFF})
	require.NoError(t, err)

	select {
	case err := <-done:
		var invalid *protocol.InvalidHandshakeOpcodeError
		require.ErrorAs(t, err, &invalid)
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch did not return")
	}
}

func TestDispatchLogin(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	acctSvc := accounts.NewMemoryService()
	acctSvc.AddAccount("bob", "hunter2", 0, false)
	registry := world.NewInMemoryRegistry(10)

	cfg := Config{
		ClientVersion: 500,
		RSAKey:        identityRSAKey(),
		Accounts:      acctSvc,
		Players:       registry,
	}

	done := make(chan error, 1)
	go func() { done <- Dispatch(context.Background(), serverConn, cfg) }()

	hash := uint8((protocol.EncodeBase37("bob") >> 16) & 31)
	_, err := clientConn.Write([]byte{byte(protocol.OpcodeLogin), hash})
	require.NoError(t, err)

	sessionKey := readSessionKey(t, clientConn)

	encrypted := buildEncryptedBlock(11, sessionKey, "bob", "hunter2")
	frame := buildLoginFrame(500, encrypted)
	_, err = clientConn.Write(frame)
	require.NoError(t, err)

	var resp [11]byte
	_, err = io.ReadFull(clientConn, resp[:])
	require.NoError(t, err)
	require.Equal(t, uint8(protocol.LoginStatusOK), resp[0])

	clientConn.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch did not return after client disconnect")
	}
}
