// Package cache memoizes verified answers by request key.
package cache

import (
	"context"
	"time"
)

// Cache is a keyed memo with per-entry expiry. Lookups never fail: backend
// errors are reported as misses.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V)
	Delete(ctx context.Context, keys ...string)
}

// Clock returns the current time. Tests inject fixed clocks.
type Clock func() time.Time
