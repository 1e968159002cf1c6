// Package session implements the per-connection dispatch and dialect
// handlers (C9-C12): handshake-driven dispatch into JS5 streaming,
// world-list response, or login + game channel.
package session

import (
	"bufio"
	"context"
	"net"

	"k8s.io/klog/v2"

	"github.com/ironspire/coreserver/accounts"
	"github.com/ironspire/coreserver/protocol"
	"github.com/ironspire/coreserver/world"
)

// Config carries everything the dispatcher needs beyond the raw socket,
// grounded on original_source/net/src/connection.rs's Connection fields
// plus the login engine's WorldLoginService dependencies.
type Config struct {
	ClientVersion     uint32
	RequestBufferSize int
	RSAKey            protocol.RSAKey
	FileService       *FileService
	WorldList         WorldListSource
	Accounts          accounts.Service
	Players           world.PlayerRegistry
}

// Dispatch accepts one already-connected socket and drives it through the
// handshake and into whichever terminal dialect it selects, matching
// original_source/net/src/connection.rs's Connection::accept state
// machine (collapsed here into a straight-line handshake-then-dispatch,
// since Go has no separate enum-driven state loop to model).
func Dispatch(ctx context.Context, conn net.Conn, cfg Config) error {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			klog.V(4).Infof("set nodelay failed: %v", err)
		}
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)

	opcode, js5, worldList, login, err := protocol.ReadHandshake(r)
	if err != nil {
		if isExpectedDisconnect(err) {
			return nil
		}
		return err
	}

	switch opcode {
	case protocol.OpcodeJS5:
		response := protocol.HandshakeSuccess
		if js5.ClientVersion != cfg.ClientVersion {
			response = protocol.HandshakeOutOfDate
		}
		if _, err := w.Write([]byte{uint8(response)}); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if response != protocol.HandshakeSuccess {
			return &protocol.VersionMismatchError{Got: js5.ClientVersion, Want: cfg.ClientVersion}
		}
		return RunJS5(ctx, r, w, cfg.FileService, cfg.RequestBufferSize)

	case protocol.OpcodeWorldList:
		return RunWorldList(w, worldList.FullUpdate, cfg.WorldList)

	case protocol.OpcodeLogin:
		loginCfg := LoginConfig{ClientVersion: cfg.ClientVersion, RSAKey: cfg.RSAKey}
		return RunLogin(ctx, r, w, login.Hash, loginCfg, cfg.Accounts, cfg.Players)

	default:
		return &protocol.InvalidHandshakeOpcodeError{Opcode: uint8(opcode)}
	}
}
