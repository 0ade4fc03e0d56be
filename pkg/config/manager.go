package config

import (
	"context"
	"sync/atomic"
	"time"
)

const defaultDebounce = 100 * time.Millisecond

// Manager owns the process-wide view of Config, loaded once per CLI
// invocation and stored atomically so concurrent readers (e.g. a bulk
// command's worker pool) never race with the load.
type Manager struct {
	Service  *Service
	debounce time.Duration
	current  atomic.Pointer[Config]
}

// NewManager builds a Manager around service, or a fresh Service if nil.
func NewManager(service *Service) *Manager {
	if service == nil {
		service = NewService()
	}
	return &Manager{Service: service, debounce: defaultDebounce}
}

// SetDebounce sets the debounce interval stored on the Manager. Manager
// never calls a Provider's Watch and never reloads, so the interval has
// no effect on Load or Get.
func (m *Manager) SetDebounce(d time.Duration) {
	m.debounce = d
}

// Load merges providers and stores the result as the current Config.
func (m *Manager) Load(ctx context.Context, providers ...Provider) (*Config, error) {
	cfg, err := m.Service.Load(ctx, providers...)
	if err != nil {
		return nil, err
	}
	m.current.Store(cfg)
	return cfg, nil
}

// Get returns the last successfully loaded Config, or nil if Load has
// never been called.
func (m *Manager) Get() *Config {
	return m.current.Load()
}

// Close releases any resources the Manager holds. It never fails; the
// signature matches other lifecycle-managed components so Manager can
// be registered with internal/lifecycle.Runner.RegisterCleanup directly.
func (m *Manager) Close(_ context.Context) error {
	return nil
}

type managerCtxKey struct{}

var managerKey = managerCtxKey{}

// ContextWithManager attaches m to ctx.
func ContextWithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, managerKey, m)
}

// FromContext returns the Manager attached to ctx, or nil if none was
// attached. Callers that require configuration to be present should
// treat a nil return as a programming error, not a recoverable state.
func FromContext(ctx context.Context) *Manager {
	if ctx == nil {
		return nil
	}
	m, _ := ctx.Value(managerKey).(*Manager)
	return m
}
