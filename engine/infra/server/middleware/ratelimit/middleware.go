package ratelimit

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.opentelemetry.io/otel"

	"github.com/gitacompanion/companion/engine/infra/server/router"
	"github.com/gitacompanion/companion/pkg/logger"
)

const (
	headerLimit     = "X-RateLimit-Limit"
	headerRemaining = "X-RateLimit-Remaining"
	headerReset     = "X-RateLimit-Reset"
	// CodeRateLimited is the problem code for blocked requests.
	CodeRateLimited = "rate_limited"
)

// Manager owns one limiter per configured route. Requests are keyed by route
// and client IP.
type Manager struct {
	config   *Config
	limiters map[string]*limiter.Limiter
	driver   string
}

// NewManager builds limiters on a Redis store when client is non-nil and on
// an in-process store otherwise.
func NewManager(cfg *Config, client redis.UniversalClient) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit config: %w", err)
	}
	opts := limiter.StoreOptions{
		Prefix:          cfg.Prefix,
		CleanUpInterval: cfg.CleanUpInterval,
	}
	if opts.CleanUpInterval <= 0 {
		opts.CleanUpInterval = limiter.DefaultCleanUpInterval
	}
	var store limiter.Store
	driver := "memory"
	if client != nil {
		var err error
		store, err = redisstore.NewStoreWithOptions(client, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
		driver = "redis"
	} else {
		store = memory.NewStoreWithOptions(opts)
	}
	if err := InitMetrics(otel.GetMeterProvider().Meter("gita.ratelimit")); err != nil {
		return nil, fmt.Errorf("failed to initialize rate limit metrics: %w", err)
	}
	limiters := make(map[string]*limiter.Limiter, len(cfg.RouteRates))
	for route, rate := range cfg.RouteRates {
		if rate.Disabled {
			continue
		}
		limiters[route] = limiter.New(store, rate.ToLimiterRate())
	}
	return &Manager{config: cfg, limiters: limiters, driver: driver}, nil
}

// Driver names the backing store.
func (m *Manager) Driver() string {
	return m.driver
}

// Middleware enforces the limit of the matched route. Unlisted routes pass.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		lim, ok := m.limiters[route]
		if !ok {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if slices.Contains(m.config.ExcludedIPs, ip) {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		result, err := lim.Get(ctx, route+":"+ip)
		if err != nil {
			// Fail open: the store being down must not take the API with it.
			logger.FromContext(ctx).Warn("Rate limit store unavailable", "route", route, "error", err)
			c.Next()
			return
		}
		if !m.config.DisableHeaders {
			c.Header(headerLimit, strconv.FormatInt(result.Limit, 10))
			c.Header(headerRemaining, strconv.FormatInt(result.Remaining, 10))
			c.Header(headerReset, strconv.FormatInt(result.Reset, 10))
		}
		if result.Reached {
			IncrementBlockedRequests(ctx, route)
			router.RespondProblemWithCode(c, http.StatusTooManyRequests, CodeRateLimited,
				"rate limit exceeded, try again later")
			return
		}
		c.Next()
	}
}
