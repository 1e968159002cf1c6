package server

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcceptorDispatchesConnections(t *testing.T) {
	var handled int32
	handledCh := make(chan struct{}, 4)

	acceptor, err := Listen("127.0.0.1:0", 2, func(ctx context.Context, conn net.Conn) error {
		defer conn.Close()
		atomic.AddInt32(&handled, 1)
		handledCh <- struct{}{}
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() { serveErr <- acceptor.Serve(ctx) }()

	for i := 0; i < 3; i++ {
		conn, err := net.Dial("tcp", acceptor.Addr().String())
		require.NoError(t, err)
		conn.Close()
	}

	for i := 0; i < 3; i++ {
		select {
		case <-handledCh:
		case <-time.After(2 * time.Second):
			t.Fatalf("connection %d was never dispatched", i)
		}
	}
	require.EqualValues(t, 3, atomic.LoadInt32(&handled))

	cancel()
	select {
	case err := <-serveErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestAcceptorBoundsConcurrency(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 4)

	acceptor, err := Listen("127.0.0.1:0", 1, func(ctx context.Context, conn net.Conn) error {
		defer conn.Close()
		entered <- struct{}{}
		<-release
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go acceptor.Serve(ctx)

	conn1, err := net.Dial("tcp", acceptor.Addr().String())
	require.NoError(t, err)
	defer conn1.Close()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first connection was never admitted")
	}

	conn2, err := net.Dial("tcp", acceptor.Addr().String())
	require.NoError(t, err)
	defer conn2.Close()

	select {
	case <-entered:
		t.Fatal("second connection was admitted before the first released its permit")
	case <-time.After(200 * time.Millisecond):
	}

	close(release)

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("second connection was never admitted after the permit freed")
	}
}
