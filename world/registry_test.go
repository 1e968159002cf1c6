package world

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironspire/coreserver/accounts"
)

func TestRegisterAssignsIncrementingIndices(t *testing.T) {
	reg := NewInMemoryRegistry(10)

	r1, err := reg.Register(accounts.Account{Username: "a"}, 1)
	require.NoError(t, err)
	require.Equal(t, uint16(1), r1.Index)

	r2, err := reg.Register(accounts.Account{Username: "b"}, 1)
	require.NoError(t, err)
	require.Equal(t, uint16(2), r2.Index)

	require.Equal(t, 2, reg.Count())
}

func TestUnregisterRecyclesIndex(t *testing.T) {
	reg := NewInMemoryRegistry(2)

	r1, err := reg.Register(accounts.Account{Username: "a"}, 1)
	require.NoError(t, err)

	reg.Unregister(r1.Index)
	require.Equal(t, 0, reg.Count())

	r2, err := reg.Register(accounts.Account{Username: "b"}, 1)
	require.NoError(t, err)
	require.Equal(t, r1.Index, r2.Index)
}

func TestRegisterRejectsOverCapacity(t *testing.T) {
	reg := NewInMemoryRegistry(1)

	_, err := reg.Register(accounts.Account{Username: "a"}, 1)
	require.NoError(t, err)

	_, err = reg.Register(accounts.Account{Username: "b"}, 1)
	require.ErrorIs(t, err, ErrWorldFull)
}

func TestUnregisterUnknownIndexIsNoop(t *testing.T) {
	reg := NewInMemoryRegistry(5)
	reg.Unregister(99)
	require.Equal(t, 0, reg.Count())
}

func TestRegistrationChannelsAreUsable(t *testing.T) {
	reg := NewInMemoryRegistry(5)
	r, err := reg.Register(accounts.Account{Username: "a"}, 1)
	require.NoError(t, err)

	require.NotNil(t, r.Inbox)
	require.NotNil(t, r.Outbound)
}
