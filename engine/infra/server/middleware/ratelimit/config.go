package ratelimit

import (
	"fmt"
	"strings"
	"time"

	"github.com/ulule/limiter/v3"

	"github.com/gitacompanion/companion/pkg/config"
)

// Config represents rate limiting configuration
type Config struct {
	// Per-route limits keyed by the gin route template (e.g. "/ask").
	RouteRates map[string]RateConfig

	Prefix          string
	CleanUpInterval time.Duration

	DisableHeaders bool

	ExcludedIPs []string
}

// RateConfig represents a single rate limit configuration
type RateConfig struct {
	Period   time.Duration
	Limit    int64
	Disabled bool
}

// DefaultConfig returns the per-route limits used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		RouteRates: map[string]RateConfig{
			"/ask":              {Limit: 20, Period: time.Minute},
			"/moods/guidance":   {Limit: 20, Period: time.Minute},
			"/chat":             {Limit: 30, Period: time.Minute},
			"/chat/stream":      {Limit: 30, Period: time.Minute},
			"/morning-greeting": {Limit: 30, Period: time.Minute},
		},
		Prefix:          "gita:ratelimit:",
		CleanUpInterval: time.Minute,
		ExcludedIPs:     []string{},
	}
}

// FromAppConfig converts the formatted per-route rates ("20-M") of the
// service configuration. An empty rate disables limiting for that route.
func FromAppConfig(cfg *config.Config) (*Config, error) {
	out := DefaultConfig()
	if cfg == nil {
		return out, nil
	}
	if prefix := strings.TrimSpace(cfg.Redis.Prefix); prefix != "" {
		out.Prefix = prefix + "ratelimit:"
	}
	routes := []struct {
		paths     []string
		formatted string
	}{
		{[]string{"/ask"}, cfg.RateLimit.Ask},
		{[]string{"/moods/guidance"}, cfg.RateLimit.Mood},
		{[]string{"/chat", "/chat/stream", "/morning-greeting"}, cfg.RateLimit.Chat},
	}
	for _, route := range routes {
		rate := RateConfig{Disabled: true}
		if strings.TrimSpace(route.formatted) != "" {
			parsed, err := limiter.NewRateFromFormatted(route.formatted)
			if err != nil {
				return nil, fmt.Errorf("invalid rate %q for %s: %w", route.formatted, route.paths[0], err)
			}
			rate = RateConfig{Limit: parsed.Limit, Period: parsed.Period}
		}
		for _, path := range route.paths {
			out.RouteRates[path] = rate
		}
	}
	return out, nil
}

// ToLimiterRate converts RateConfig to limiter.Rate
func (rc RateConfig) ToLimiterRate() limiter.Rate {
	return limiter.Rate{
		Period: rc.Period,
		Limit:  rc.Limit,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	for route, rate := range c.RouteRates {
		if rate.Disabled {
			continue
		}
		if rate.Limit <= 0 {
			return fmt.Errorf("route rate limit for %s must be positive", route)
		}
		if rate.Period <= 0 {
			return fmt.Errorf("route rate period for %s must be positive", route)
		}
	}
	return nil
}
