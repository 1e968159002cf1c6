// Package server implements the two outermost components (C13-C14): the
// TCP acceptor that admits and bounds concurrent sessions, and the service
// lifecycle manager that starts, watches readiness of, and cancels every
// long-running piece of the process.
package server

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// ServiceFunc is one long-running piece of the process. It must call ready
// once it has finished any setup and is prepared to do real work, and
// should return promptly once ctx is cancelled.
type ServiceFunc func(ctx context.Context, ready func()) error

// Manager owns cancellation and readiness tracking across every spawned
// service, grounded on original_source/game/src/service/manager.rs's
// ServiceManager/ServiceMonitor pair (collapsed here into one type, since
// Go has no separate builder-step equivalent to the Rust
// ServiceMonitor::on_ready chain). Signal handling itself is hoisted to
// the process entry point (cmd/coreserver/main.go), matching the
// teacher's own main.go convention, rather than spawned here as the
// original's ServiceManager::new does — Manager only needs an already
// cancelable context.Context.
type Manager struct {
	g   *errgroup.Group
	ctx context.Context

	mu      sync.Mutex
	names   []string
	readyCh []chan struct{}
}

// NewManager returns a Manager whose services observe cancellation of ctx
// (and of each other, via errgroup.WithContext: the first service error
// cancels the rest).
func NewManager(ctx context.Context) *Manager {
	g, ctx := errgroup.WithContext(ctx)
	return &Manager{g: g, ctx: ctx}
}

// Spawn starts fn immediately in its own goroutine under name, used only
// for log lines and readiness-wait diagnostics.
func (m *Manager) Spawn(name string, fn ServiceFunc) {
	ready := make(chan struct{})

	m.mu.Lock()
	m.names = append(m.names, name)
	m.readyCh = append(m.readyCh, ready)
	m.mu.Unlock()

	m.g.Go(func() error {
		var once sync.Once
		signalReady := func() { once.Do(func() { close(ready) }) }

		err := fn(m.ctx, signalReady)
		signalReady() // a service that returns without signaling still unblocks the wait

		if err != nil {
			klog.Errorf("service %q failed: %v", name, err)
			return err
		}
		klog.Infof("service %q stopped gracefully", name)
		return nil
	})
}

// Run blocks until every spawned service has signaled readiness, invokes
// onReady (if non-nil), then blocks until all services have terminated
// (by cancellation or by completing). Returns the first non-nil error any
// service returned, per errgroup.Group.Wait's contract.
func (m *Manager) Run(onReady func()) error {
	m.awaitReady()
	if onReady != nil {
		onReady()
	}
	return m.g.Wait()
}

func (m *Manager) awaitReady() {
	klog.Info("waiting for services to initialize")

	m.mu.Lock()
	chans := append([]chan struct{}(nil), m.readyCh...)
	names := append([]string(nil), m.names...)
	m.mu.Unlock()

	for i, ch := range chans {
		<-ch
		klog.Infof("service %q is ready", names[i])
	}
}
