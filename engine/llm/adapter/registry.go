package llmadapter

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrGeneratorNil indicates a nil generator registration attempt.
	ErrGeneratorNil = errors.New("generator must not be nil")
	// ErrBackendNameEmpty indicates a registration with an empty backend name.
	ErrBackendNameEmpty = errors.New("backend name must not be empty")
	// ErrBackendAlreadyRegistered indicates duplicate registration.
	ErrBackendAlreadyRegistered = errors.New("backend already registered")
)

// Registry keeps generators of one operation kind in registration order.
type Registry[T any] struct {
	mu      sync.RWMutex
	names   []string
	entries map[string]T
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[string]T)}
}

// Register adds a generator, guarding against duplicates.
func (r *Registry[T]) Register(name string, gen T) error {
	key := CanonicalName(name)
	if key == "" {
		return ErrBackendNameEmpty
	}
	if any(gen) == nil {
		return ErrGeneratorNil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[key]; exists {
		return fmt.Errorf("%w: %s", ErrBackendAlreadyRegistered, name)
	}
	r.entries[key] = gen
	r.names = append(r.names, key)
	return nil
}

func (r *Registry[T]) Resolve(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gen, ok := r.entries[CanonicalName(name)]
	return gen, ok
}

// Names returns backend names in registration order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// CanonicalName is the registry key for a backend name.
func CanonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
