package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	guidancerouter "github.com/gitacompanion/companion/engine/guidance/router"
	"github.com/gitacompanion/companion/engine/infra/server/appstate"
	"github.com/gitacompanion/companion/engine/infra/server/middleware/auth"
	"github.com/gitacompanion/companion/engine/infra/server/middleware/ratelimit"
	"github.com/gitacompanion/companion/engine/infra/server/middleware/size"
	"github.com/gitacompanion/companion/engine/infra/server/routes"
	"github.com/gitacompanion/companion/pkg/logger"
	"github.com/gitacompanion/companion/pkg/version"
)

const (
	hostAny      = "0.0.0.0"
	hostLoopback = "127.0.0.1"
)

// NewRouter builds the gin engine serving the guidance API over deps.
func NewRouter(ctx context.Context, deps *Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	state, err := appstate.NewState(deps.Guidance, deps.Orchestrator, cfg)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(TimeoutMiddleware(cfg.Server.Timeout))
	r.Use(deps.Monitoring.GinMiddleware())
	r.Use(CORSMiddleware(cfg.Server.CORSOrigins))
	r.Use(appstate.StateMiddleware(state))
	authManager := auth.NewManager(cfg.Server.APIKey.Value(), routes.PublicPaths(deps.Monitoring.Path())...)
	r.Use(authManager.Middleware())
	r.Use(size.BodySizeLimiter(size.DefaultBodyLimit))
	if cfg.RateLimit.Enabled {
		limitCfg, err := ratelimit.FromAppConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("invalid rate limit configuration: %w", err)
		}
		var client redis.UniversalClient
		if deps.Redis != nil {
			client = deps.Redis
		}
		manager, err := ratelimit.NewManager(limitCfg, client)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rate limiting: %w", err)
		}
		r.Use(manager.Middleware())
		log.Info("Rate limiter initialized", "driver", manager.Driver(), "routes", len(limitCfg.RouteRates))
	}
	if deps.Monitoring.IsInitialized() {
		r.GET(deps.Monitoring.Path(), gin.WrapH(deps.Monitoring.ExporterHandler()))
	}
	r.GET(routes.Health, healthHandler)
	r.GET(routes.ModelStatus, modelStatusHandler)
	guidancerouter.Register(r)
	log.Debug("Routes registered", "auth", authManager.Enabled())
	return r, nil
}

func logStartupBanner(ctx context.Context, host string, port int, metricsPath string) {
	httpURL := fmt.Sprintf("http://%s:%d", friendlyHost(host), port)
	lines := []string{
		fmt.Sprintf("Gita Companion %s", version.Get().Version),
		fmt.Sprintf("  API           > %s", httpURL),
		fmt.Sprintf("  Health        > %s%s", httpURL, routes.Health),
		fmt.Sprintf("  Model status  > %s%s", httpURL, routes.ModelStatus),
	}
	if metricsPath != "" {
		lines = append(lines, fmt.Sprintf("  Metrics       > %s%s", httpURL, metricsPath))
	}
	logger.FromContext(ctx).Info("\n" + strings.Join(lines, "\n"))
}

func friendlyHost(h string) string {
	if h == hostAny || h == "::" || h == "" {
		return hostLoopback
	}
	return h
}
