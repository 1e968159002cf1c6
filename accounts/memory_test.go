package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryServiceLoadAndVerify(t *testing.T) {
	svc := NewMemoryService()
	created := svc.AddAccount("bob", "hunter2", 2, true)

	account, err := svc.LoadAccountByUsername(context.Background(), "bob")
	require.NoError(t, err)
	require.Equal(t, created.ID, account.ID)
	require.Equal(t, uint8(2), account.Rights)
	require.True(t, account.Member)

	require.NoError(t, svc.VerifyPassword(context.Background(), account, "hunter2"))
	require.ErrorIs(t, svc.VerifyPassword(context.Background(), account, "wrong"), ErrInvalidPassword)
}

func TestMemoryServiceUnknownUsername(t *testing.T) {
	svc := NewMemoryService()
	_, err := svc.LoadAccountByUsername(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMemoryServiceAssignsIncrementingIDs(t *testing.T) {
	svc := NewMemoryService()
	a := svc.AddAccount("a", "pw", 0, false)
	b := svc.AddAccount("b", "pw", 0, false)
	require.Equal(t, a.ID+1, b.ID)
}
