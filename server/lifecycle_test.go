package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManagerRunWaitsForReadinessThenJoins(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager(ctx)

	var readyOrder []string
	started := make(chan struct{})

	m.Spawn("alpha", func(ctx context.Context, ready func()) error {
		ready()
		<-ctx.Done()
		return nil
	})
	m.Spawn("beta", func(ctx context.Context, ready func()) error {
		close(started)
		ready()
		<-ctx.Done()
		return nil
	})

	onReadyCalled := make(chan struct{})
	go func() {
		err := m.Run(func() {
			readyOrder = append(readyOrder, "ready")
			close(onReadyCalled)
		})
		require.NoError(t, err)
	}()

	<-started
	select {
	case <-onReadyCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("onReady was never invoked")
	}
	require.Equal(t, []string{"ready"}, readyOrder)

	cancel()
}

func TestManagerPropagatesServiceError(t *testing.T) {
	ctx := context.Background()
	m := NewManager(ctx)

	boom := errors.New("boom")
	m.Spawn("failing", func(ctx context.Context, ready func()) error {
		ready()
		return boom
	})

	err := m.Run(nil)
	require.ErrorIs(t, err, boom)
}

func TestManagerServiceWithoutExplicitReadyStillUnblocksWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager(ctx)
	m.Spawn("quick", func(ctx context.Context, ready func()) error {
		return nil
	})

	done := make(chan struct{})
	go func() {
		_ = m.Run(nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return for a service that never called ready")
	}
}
