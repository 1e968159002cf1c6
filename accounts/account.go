// Package accounts defines the credential-lookup boundary the login engine
// delegates to, and ships a minimal in-memory implementation so the server
// is runnable and testable standalone. Production deployments are expected
// to supply their own Service backed by real persistence.
package accounts

import (
	"context"
	"errors"
)

// ErrAccountNotFound is returned by Service.LoadAccountByUsername when no
// account matches.
var ErrAccountNotFound = errors.New("accounts: account not found")

// ErrInvalidPassword is returned by Service.VerifyPassword on mismatch.
var ErrInvalidPassword = errors.New("accounts: invalid password")

// Account is the minimal credential record the login engine needs:
// identity, display rights, and enough to decide membership status.
type Account struct {
	ID       uint32
	Username string
	Rights   uint8
	Member   bool

	passwordHash string
}

// Service is the account store abstraction, grounded on
// original_source/game/src/service/login.rs's WorldLoginService private
// helpers (load_account_by_username / verify_password), promoted to a
// named interface so the login engine doesn't hardcode one scheme.
type Service interface {
	LoadAccountByUsername(ctx context.Context, username string) (Account, error)
	VerifyPassword(ctx context.Context, account Account, password string) error
}
