package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gitacompanion/companion/pkg/logger"
)

const defaultPingTimeout = 5 * time.Second

// NewRedisClient parses url and verifies connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging Redis server (timeout=%s): %w", defaultPingTimeout, err)
	}
	logger.FromContext(ctx).Info("Redis connection established", "addr", opt.Addr, "db", opt.DB)
	return client, nil
}

// RedisCache stores JSON encoded values with SET EX so expiry is enforced by
// the server. Any Redis or decode failure is a miss.
type RedisCache[V any] struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	name   string
}

func NewRedisCache[V any](name string, client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCache[V] {
	return &RedisCache[V]{client: client, prefix: prefix, ttl: ttl, name: name}
}

func (c *RedisCache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.FromContext(ctx).Warn("Cache read failed", "cache", c.name, "error", err)
		}
		recordLookup(ctx, c.name, "redis", false)
		return zero, false
	}
	var value V
	if err := json.Unmarshal(raw, &value); err != nil {
		logger.FromContext(ctx).Warn("Cache entry is corrupt", "cache", c.name, "error", err)
		recordLookup(ctx, c.name, "redis", false)
		return zero, false
	}
	recordLookup(ctx, c.name, "redis", true)
	return value, true
}

func (c *RedisCache[V]) Set(ctx context.Context, key string, value V) {
	if c.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		logger.FromContext(ctx).Warn("Cache entry not encodable", "cache", c.name, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		logger.FromContext(ctx).Warn("Cache write failed", "cache", c.name, "error", err)
	}
}

func (c *RedisCache[V]) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = c.prefix + key
	}
	if err := c.client.Del(ctx, prefixed...).Err(); err != nil {
		logger.FromContext(ctx).Warn("Cache delete failed", "cache", c.name, "error", err)
	}
}
