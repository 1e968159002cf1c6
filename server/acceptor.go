package server

import (
	"context"
	"errors"
	"net"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"k8s.io/klog/v2"
)

// DispatchFunc handles one accepted connection to completion.
type DispatchFunc func(ctx context.Context, conn net.Conn) error

// Acceptor binds one TCP listener and admits connections under a counted
// semaphore, grounded on spec.md §4.13 and the teacher's ListenAndServeGRPC
// net.Listen call (generalized here from grpc.Server.Serve's internal
// admission loop into an explicit bounded one, since spec.md requires the
// bound to be observable and configurable rather than left to the
// underlying server implementation).
type Acceptor struct {
	listener net.Listener
	sem      *semaphore.Weighted
	dispatch DispatchFunc
}

// Listen binds bindAddr and returns an Acceptor that admits at most
// maxConnections simultaneous sessions, each handled by dispatch.
func Listen(bindAddr string, maxConnections int, dispatch DispatchFunc) (*Acceptor, error) {
	listener, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	return &Acceptor{
		listener: listener,
		sem:      semaphore.NewWeighted(int64(maxConnections)),
		dispatch: dispatch,
	}, nil
}

// Addr returns the bound local address, useful for tests that bind to
// port 0.
func (a *Acceptor) Addr() net.Addr { return a.listener.Addr() }

// Serve runs the accept loop until ctx is cancelled or the listener fails
// unrecoverably. For each accepted socket a permit is acquired, a session
// goroutine is spawned, and the permit is released on completion, exactly
// per spec.md §4.13's ordering.
func (a *Acceptor) Serve(ctx context.Context) error {
	defer a.listener.Close()

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			a.listener.Close()
		case <-stopped:
		}
	}()

	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return err
		}

		if err := a.sem.Acquire(ctx, 1); err != nil {
			conn.Close()
			return nil
		}

		connectionsActive.Inc()
		sessionID := uuid.NewString()

		go func() {
			defer a.sem.Release(1)
			defer connectionsActive.Dec()

			if err := a.dispatch(ctx, conn); err != nil {
				klog.V(2).Infof("session %s (%s) ended: %v", sessionID, conn.RemoteAddr(), err)
				return
			}
			klog.V(4).Infof("session %s (%s) closed", sessionID, conn.RemoteAddr())
		}()
	}
}
