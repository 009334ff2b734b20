package monitoring

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"

	"github.com/gitacompanion/companion/pkg/config"
)

func TestConfig(t *testing.T) {
	t.Run("Should map the service configuration", func(t *testing.T) {
		cfg := FromAppConfig(&config.MonitoringConfig{Enabled: true, Path: "/prom"})
		assert.True(t, cfg.Enabled)
		assert.Equal(t, "/prom", cfg.Path)
		assert.Equal(t, "/metrics", FromAppConfig(&config.MonitoringConfig{}).Path)
	})

	t.Run("Should reject invalid paths", func(t *testing.T) {
		for _, path := range []string{"", "metrics", "/api/metrics", "/metrics?x=1"} {
			assert.Error(t, (&Config{Enabled: true, Path: path}).Validate(), path)
		}
		assert.NoError(t, DefaultConfig().Validate())
	})
}

func TestService(t *testing.T) {
	ctx := context.Background()

	t.Run("Should expose metrics in Prometheus format", func(t *testing.T) {
		ResetSystemMetricsForTesting()
		svc, err := NewMonitoringService(ctx, &Config{Enabled: true, Path: "/metrics"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = svc.Shutdown(ctx) })
		require.True(t, svc.IsInitialized())
		counter, err := svc.Meter().Int64Counter("gita_test_events_total")
		require.NoError(t, err)
		counter.Add(ctx, 2, metric.WithAttributes())

		w := httptest.NewRecorder()
		svc.ExporterHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
		body, err := io.ReadAll(w.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "gita_test_events_total")
		assert.Contains(t, string(body), "gita_uptime_seconds")
	})

	t.Run("Should answer 503 when disabled", func(t *testing.T) {
		svc, err := NewMonitoringService(ctx, DefaultConfig())
		require.NoError(t, err)
		assert.False(t, svc.IsInitialized())
		w := httptest.NewRecorder()
		svc.ExporterHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("Should fall back to a no-op service on invalid config", func(t *testing.T) {
		svc := NewMonitoringServiceWithFallback(ctx, &Config{Enabled: true, Path: "bad"})
		assert.False(t, svc.IsInitialized())
		assert.Error(t, svc.InitializationError())
		assert.NotNil(t, svc.Meter())
	})
}
