package config

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gitacompanion/companion/pkg/logger"
)

const defaultDebounce = 100 * time.Millisecond

// Manager keeps the active configuration and republishes it when a watched
// source changes.
type Manager struct {
	Service Service

	current   atomic.Pointer[Config]
	sources   []Source
	reloadMu  sync.Mutex
	callbacks []func(*Config)
	cbMu      sync.RWMutex

	debounce    time.Duration
	timerMu     sync.Mutex
	timer       *time.Timer
	watchCancel context.CancelFunc
	closeOnce   sync.Once
}

func NewManager(service Service) *Manager {
	if service == nil {
		service = NewService()
	}
	return &Manager{Service: service, debounce: defaultDebounce}
}

// SetDebounce must be called before Load.
func (m *Manager) SetDebounce(d time.Duration) {
	m.debounce = d
}

// Load resolves the configuration and starts watching sources that support it.
func (m *Manager) Load(ctx context.Context, sources ...Source) (*Config, error) {
	m.reloadMu.Lock()
	m.sources = append([]Source(nil), sources...)
	m.reloadMu.Unlock()

	cfg, err := m.Service.Load(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	m.apply(cfg)

	if m.watchCancel != nil {
		m.watchCancel()
	}
	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.watchCancel = cancel
	log := logger.FromContext(ctx)
	for _, src := range sources {
		if src == nil {
			continue
		}
		if err := src.Watch(watchCtx, func() { m.scheduleReload(watchCtx) }); err != nil {
			log.Warn("Config source cannot be watched", "source", src.Type(), "error", err)
		}
	}
	return cfg, nil
}

func (m *Manager) scheduleReload(ctx context.Context) {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		if err := m.Reload(ctx); err != nil {
			logger.FromContext(ctx).Error("Failed to reload configuration", "error", err)
		}
	})
}

// Reload re-reads every source. An invalid result leaves the current config in place.
func (m *Manager) Reload(ctx context.Context) error {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()
	cfg, err := m.Service.Load(ctx, m.sources...)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	m.apply(cfg)
	return nil
}

func (m *Manager) Get() *Config {
	return m.current.Load()
}

// OnChange registers a callback invoked after each effective change.
func (m *Manager) OnChange(callback func(*Config)) {
	if callback == nil {
		return
	}
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

func (m *Manager) apply(cfg *Config) {
	old := m.current.Swap(cfg)
	if old == nil || reflect.DeepEqual(old, cfg) {
		return
	}
	m.cbMu.RLock()
	callbacks := slices.Clone(m.callbacks)
	m.cbMu.RUnlock()
	for _, cb := range callbacks {
		cb(cfg)
	}
}

// Close stops watching and closes every source.
func (m *Manager) Close(ctx context.Context) error {
	m.closeOnce.Do(func() {
		if m.watchCancel != nil {
			m.watchCancel()
		}
		m.timerMu.Lock()
		if m.timer != nil {
			m.timer.Stop()
		}
		m.timerMu.Unlock()
		m.reloadMu.Lock()
		sources := append([]Source(nil), m.sources...)
		m.reloadMu.Unlock()
		for _, src := range sources {
			if src == nil {
				continue
			}
			if err := src.Close(); err != nil {
				logger.FromContext(ctx).Error("Failed to close configuration source", "error", err)
			}
		}
	})
	return nil
}
