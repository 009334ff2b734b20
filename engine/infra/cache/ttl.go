package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value  V
	expiry time.Time
}

// TTLCache is an in-process cache. Expired entries are evicted lazily on
// lookup; there is no background sweeper.
type TTLCache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     Clock
	entries map[string]entry[V]
	name    string
}

func NewTTLCache[V any](name string, ttl time.Duration, clock Clock) *TTLCache[V] {
	if clock == nil {
		clock = time.Now
	}
	return &TTLCache[V]{
		ttl:     ttl,
		now:     clock,
		entries: make(map[string]entry[V]),
		name:    name,
	}
}

// Get returns the value iff now is strictly before its expiry.
func (c *TTLCache[V]) Get(ctx context.Context, key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		recordLookup(ctx, c.name, "memory", false)
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expiry) {
		delete(c.entries, key)
		recordLookup(ctx, c.name, "memory", false)
		var zero V
		return zero, false
	}
	recordLookup(ctx, c.name, "memory", true)
	return e.value, true
}

func (c *TTLCache[V]) Set(_ context.Context, key string, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiry: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *TTLCache[V]) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.mu.Unlock()
}

// Len counts stored entries, expired ones included until looked up.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
