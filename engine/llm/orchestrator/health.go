package orchestrator

import (
	"sync"
	"time"
)

// Health is the last observed state of one backend.
type Health struct {
	Healthy     bool      `json:"healthy"`
	LastError   string    `json:"last_error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// healthTracker is last-writer-wins per backend.
type healthTracker struct {
	mu      sync.Mutex
	entries map[string]Health
}

func newHealthTracker(names []string) *healthTracker {
	entries := make(map[string]Health, len(names))
	for _, name := range names {
		entries[name] = Health{Healthy: true}
	}
	return &healthTracker{entries: entries}
}

func (h *healthTracker) markOK(name string, at time.Time) {
	h.mu.Lock()
	h.entries[name] = Health{Healthy: true, LastChecked: at}
	h.mu.Unlock()
}

func (h *healthTracker) markFailed(name, reason string, at time.Time) {
	h.mu.Lock()
	h.entries[name] = Health{Healthy: false, LastError: reason, LastChecked: at}
	h.mu.Unlock()
}

func (h *healthTracker) snapshot() map[string]Health {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]Health, len(h.entries))
	for name, entry := range h.entries {
		out[name] = entry
	}
	return out
}
