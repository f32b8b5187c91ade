// Package process handles OS signals and ordered shutdown for pipeline runs
package process

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/shepherdjerred/conductor/pkg/logger"
)

// Manager turns an interrupt into an ordered shutdown: registered handlers
// run in reverse registration order, so later-acquired resources release
// first. A run that finishes normally calls Stop and no handler fires.
type Manager struct {
	logger   logger.Logger
	handlers []func()
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewManager creates a process manager
func NewManager(log logger.Logger) *Manager {
	return &Manager{logger: log}
}

// RegisterShutdownHandler adds a handler invoked on interrupt or context end
func (m *Manager) RegisterShutdownHandler(handler func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

// Start begins watching for SIGINT/SIGTERM until ctx ends or Stop is called
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer signal.Stop(sigChan)

		select {
		case <-ctx.Done():
		case sig := <-sigChan:
			m.logger.Info("Received signal, shutting down", logger.WithField("signal", sig))
			m.shutdown()
		}
	}()
}

// Stop ends signal watching without invoking the handlers
func (m *Manager) Stop(cancel context.CancelFunc) {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) shutdown() {
	m.mu.Lock()
	handlers := make([]func(), len(m.handlers))
	copy(handlers, m.handlers)
	m.running = false
	m.mu.Unlock()

	for i := len(handlers) - 1; i >= 0; i-- {
		handlers[i]()
	}
}
