package session

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/binary"
	"io"

	"k8s.io/klog/v2"

	"github.com/ironspire/coreserver/accounts"
	"github.com/ironspire/coreserver/gamecipher"
	"github.com/ironspire/coreserver/protocol"
	"github.com/ironspire/coreserver/world"
)

// LoginConfig carries the server-side values the login engine validates
// the client's request against, grounded on
// original_source/game/src/service/login.rs's WorldLoginService.
type LoginConfig struct {
	ClientVersion uint32
	RSAKey        protocol.RSAKey
}

// RunLogin drives the Login Engine (C11) to completion: send a fresh
// session key, decode and validate the client's login frame, authenticate
// against accountSvc, register the player, and on success start the game
// channel pump. Returns nil for any outcome that ends in a clean refusal
// response (bad session id, version mismatch, invalid credentials, and a
// login block that fails to decode or RSA-unwrap, which is refused as
// invalid credentials); only I/O errors and an invalid login frame header
// are returned as errors.
func RunLogin(ctx context.Context, r *bufio.Reader, w *bufio.Writer, hash uint8, cfg LoginConfig, accountSvc accounts.Service, registry world.PlayerRegistry) error {
	sessionKey, err := randomSessionKey()
	if err != nil {
		return err
	}

	if _, err := w.Write(protocol.EncodeSessionKey(sessionKey)); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, size, err := protocol.ReadLoginHeader(r)
	if err != nil {
		if isExpectedDisconnect(err) {
			return nil
		}
		return err
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if isExpectedDisconnect(err) {
			return nil
		}
		return err
	}

	req, err := protocol.ParseLoginPayload(payload, hash, cfg.RSAKey)
	if err != nil {
		return refuse(w, protocol.LoginStatusInvalidCreds)
	}

	if req.ServerKey != sessionKey {
		return refuse(w, protocol.LoginStatusBadSessionID)
	}
	if req.Version != cfg.ClientVersion {
		return refuse(w, protocol.LoginStatusGameUpdated)
	}

	account, err := accountSvc.LoadAccountByUsername(ctx, req.Username)
	if err != nil {
		return refuse(w, protocol.LoginStatusInvalidCreds)
	}
	if err := accountSvc.VerifyPassword(ctx, account, req.Password); err != nil {
		return refuse(w, protocol.LoginStatusInvalidCreds)
	}

	registration, err := registry.Register(account, req.DisplayMode)
	if err != nil {
		return refuse(w, protocol.LoginStatusInvalidCreds)
	}
	registry.OnPlayerLogin(registration.Index)

	successPayload := buildLoginSuccessPayload(account.Rights, registration.Index, account.Member)
	if _, err := w.Write(protocol.EncodeLoginSuccess(protocol.LoginStatusOK, successPayload)); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	klog.V(2).Infof("player %q logged in as index %d", account.Username, registration.Index)

	cipher := gamecipher.NewPair(req.ClientKey, req.ServerKey)
	err = RunGame(ctx, r, w, cipher, registration.Inbox, registration.Outbound)
	registry.Unregister(registration.Index)
	return err
}

func refuse(w *bufio.Writer, status protocol.LoginStatus) error {
	if _, err := w.Write(protocol.EncodeLoginFailure(status)); err != nil {
		return err
	}
	return w.Flush()
}

// buildLoginSuccessPayload matches spec.md §4.8's success payload layout:
// rights(u8) ‖ five zero bytes ‖ player_index(u16 BE) ‖ 0x01 ‖ members(0/1).
func buildLoginSuccessPayload(rights uint8, playerIndex uint16, member bool) []byte {
	payload := make([]byte, 0, 10)
	payload = append(payload, rights, 0, 0, 0, 0, 0)
	payload = binary.BigEndian.AppendUint16(payload, playerIndex)
	payload = append(payload, 0x01)
	if member {
		payload = append(payload, 1)
	} else {
		payload = append(payload, 0)
	}
	return payload
}

func randomSessionKey() (int64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}
