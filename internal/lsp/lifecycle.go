package lsp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeintel/engine/internal/cerrors"
)

// HealthStatus is the structured state reported by LifecycleManager
// (spec §4.6, "Lifecycle manager").
type HealthStatus string

const (
	HealthNotStarted HealthStatus = "not_started"
	HealthStarting   HealthStatus = "starting"
	HealthHealthy    HealthStatus = "healthy"
	HealthCrashed    HealthStatus = "crashed"
	HealthError      HealthStatus = "error"
)

// Health is the snapshot returned by LifecycleManager.HealthCheck.
type Health struct {
	Status       HealthStatus
	Running      bool
	Initialized  bool
	RestartCount int
	ExitCode     int
}

// DefaultMaxRestarts is the ceiling on automatic restarts before
// LifecycleManager gives up and surfaces a crashed error (grounded on
// lsp_lifecycle_manager.py's default of 3).
const DefaultMaxRestarts = 3

// LifecycleManager wraps a Client with auto-restart and exponential
// backoff (spec §4.6, "Lifecycle manager"; grounded on
// original_source's lsp_lifecycle_manager.py).
type LifecycleManager struct {
	newClient    func() *Client
	maxRestarts  int
	log          *slog.Logger

	mu           sync.Mutex
	client       *Client
	restartCount int
	starting     bool
}

// NewLifecycleManager takes a factory so a fresh *Client (new subprocess)
// is created on every (re)start.
func NewLifecycleManager(newClient func() *Client, maxRestarts int, log *slog.Logger) *LifecycleManager {
	if maxRestarts <= 0 {
		maxRestarts = DefaultMaxRestarts
	}
	if log == nil {
		log = slog.Default()
	}
	return &LifecycleManager{newClient: newClient, maxRestarts: maxRestarts, log: log}
}

// Start launches the wrapped client, retrying with 2^attempt second
// backoff up to maxRestarts attempts.
func (m *LifecycleManager) Start(ctx context.Context) error {
	m.mu.Lock()
	m.starting = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.starting = false
		m.mu.Unlock()
	}()

	var lastErr error
	for attempt := 1; attempt <= m.maxRestarts; attempt++ {
		client := m.newClient()
		if err := client.Start(ctx); err != nil {
			lastErr = err
			m.log.Warn("lsp client start failed", slog.Int("attempt", attempt), slog.String("error", err.Error()))
			select {
			case <-time.After(time.Duration(1<<uint(attempt)) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		m.mu.Lock()
		m.client = client
		m.restartCount = 0
		m.mu.Unlock()
		return nil
	}

	return cerrors.New(cerrors.ErrCodeLSPUnavailable, "language server failed to start after retries", lastErr)
}

// EnsureRunning restarts the client if it has crashed or was never
// started, up to maxRestarts total restarts across the manager's
// lifetime.
func (m *LifecycleManager) EnsureRunning(ctx context.Context) error {
	m.mu.Lock()
	client := m.client
	m.mu.Unlock()

	if client != nil && client.IsAlive() {
		return nil
	}

	m.mu.Lock()
	m.restartCount++
	count := m.restartCount
	m.mu.Unlock()

	if count > m.maxRestarts {
		return cerrors.New(cerrors.ErrCodeLSPCrashed, fmt.Sprintf("language server exceeded %d restart attempts", m.maxRestarts), nil)
	}
	return m.Start(ctx)
}

// Restart forces a fresh client regardless of current health.
func (m *LifecycleManager) Restart(ctx context.Context) error {
	m.mu.Lock()
	client := m.client
	m.restartCount++
	m.mu.Unlock()

	if client != nil {
		_ = client.Shutdown(ctx)
	}
	return m.Start(ctx)
}

// Shutdown best-effort stops the wrapped client and clears it.
func (m *LifecycleManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	client := m.client
	m.client = nil
	m.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Shutdown(ctx)
}

// HealthCheck reports a structured snapshot of the wrapped client.
func (m *LifecycleManager) HealthCheck() Health {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		if m.starting {
			return Health{Status: HealthStarting, RestartCount: m.restartCount}
		}
		return Health{Status: HealthNotStarted, RestartCount: m.restartCount}
	}

	if !m.client.IsAlive() {
		return Health{
			Status:       HealthCrashed,
			Running:      false,
			Initialized:  m.client.IsInitialized(),
			RestartCount: m.restartCount,
			ExitCode:     m.client.ExitCode(),
		}
	}

	return Health{
		Status:       HealthHealthy,
		Running:      true,
		Initialized:  m.client.IsInitialized(),
		RestartCount: m.restartCount,
		ExitCode:     -1,
	}
}

// IsHealthy is a synchronous quick check equivalent to is_healthy() in
// lsp_lifecycle_manager.py.
func (m *LifecycleManager) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client != nil && m.client.IsAlive() && m.client.IsInitialized()
}

// Client exposes the wrapped client, or nil if not running.
func (m *LifecycleManager) Client() *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}
