package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitacompanion/companion/pkg/config"
)

func buildRouterForTest(t *testing.T, cfg *Config, client redis.UniversalClient) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	m, err := NewManager(cfg, client)
	require.NoError(t, err)
	r.Use(m.Middleware())
	r.POST("/ask", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/moods", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func doReq(r *gin.Engine, method, path, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, http.NoBody)
	if ip != "" {
		req.Header.Set("X-Real-IP", ip)
	}
	r.ServeHTTP(w, req)
	return w
}

func singleRoute(limit int64, period time.Duration) *Config {
	return &Config{
		RouteRates: map[string]RateConfig{"/ask": {Limit: limit, Period: period}},
		Prefix:     "test:ratelimit:",
	}
}

func TestManager_Memory(t *testing.T) {
	t.Run("Should block the second request from the same client", func(t *testing.T) {
		r := buildRouterForTest(t, singleRoute(1, time.Second), nil)
		require.Equal(t, http.StatusOK, doReq(r, http.MethodPost, "/ask", "1.2.3.4").Code)
		res := doReq(r, http.MethodPost, "/ask", "1.2.3.4")
		require.Equal(t, http.StatusTooManyRequests, res.Code)
		assert.Contains(t, res.Body.String(), `"code":"rate_limited"`)
	})

	t.Run("Should key limits by client", func(t *testing.T) {
		r := buildRouterForTest(t, singleRoute(1, time.Minute), nil)
		require.Equal(t, http.StatusOK, doReq(r, http.MethodPost, "/ask", "1.1.1.1").Code)
		assert.Equal(t, http.StatusOK, doReq(r, http.MethodPost, "/ask", "2.2.2.2").Code)
	})

	t.Run("Should refill after the period", func(t *testing.T) {
		r := buildRouterForTest(t, singleRoute(1, 100*time.Millisecond), nil)
		require.Equal(t, http.StatusOK, doReq(r, http.MethodPost, "/ask", "5.6.7.8").Code)
		require.Equal(t, http.StatusTooManyRequests, doReq(r, http.MethodPost, "/ask", "5.6.7.8").Code)
		time.Sleep(150 * time.Millisecond)
		assert.Equal(t, http.StatusOK, doReq(r, http.MethodPost, "/ask", "5.6.7.8").Code)
	})

	t.Run("Should set rate limit headers", func(t *testing.T) {
		r := buildRouterForTest(t, singleRoute(2, time.Minute), nil)
		res := doReq(r, http.MethodPost, "/ask", "9.9.9.9")
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "2", res.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", res.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, res.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("Should leave unlisted routes alone", func(t *testing.T) {
		r := buildRouterForTest(t, singleRoute(1, time.Minute), nil)
		for range 3 {
			res := doReq(r, http.MethodGet, "/moods", "3.3.3.3")
			require.Equal(t, http.StatusOK, res.Code)
			assert.Empty(t, res.Header().Get("X-RateLimit-Limit"))
		}
	})

	t.Run("Should skip excluded IPs", func(t *testing.T) {
		cfg := singleRoute(1, time.Minute)
		cfg.ExcludedIPs = []string{"10.0.0.1"}
		r := buildRouterForTest(t, cfg, nil)
		for range 3 {
			require.Equal(t, http.StatusOK, doReq(r, http.MethodPost, "/ask", "10.0.0.1").Code)
		}
	})
}

func TestManager_Redis(t *testing.T) {
	t.Run("Should share counters through redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		cfg := singleRoute(1, time.Minute)
		first := buildRouterForTest(t, cfg, client)
		second := buildRouterForTest(t, cfg, client)
		require.Equal(t, http.StatusOK, doReq(first, http.MethodPost, "/ask", "4.4.4.4").Code)
		assert.Equal(t, http.StatusTooManyRequests, doReq(second, http.MethodPost, "/ask", "4.4.4.4").Code)
	})
}

func TestFromAppConfig(t *testing.T) {
	t.Run("Should parse formatted rates per route", func(t *testing.T) {
		cfg, err := FromAppConfig(config.Default())
		require.NoError(t, err)
		assert.Equal(t, RateConfig{Limit: 20, Period: time.Minute}, cfg.RouteRates["/ask"])
		assert.Equal(t, RateConfig{Limit: 30, Period: time.Minute}, cfg.RouteRates["/chat/stream"])
		assert.Equal(t, RateConfig{Limit: 30, Period: time.Minute}, cfg.RouteRates["/morning-greeting"])
		assert.Equal(t, "gita:ratelimit:", cfg.Prefix)
	})

	t.Run("Should disable routes with an empty rate", func(t *testing.T) {
		appCfg := config.Default()
		appCfg.RateLimit.Mood = ""
		cfg, err := FromAppConfig(appCfg)
		require.NoError(t, err)
		assert.True(t, cfg.RouteRates["/moods/guidance"].Disabled)
		require.NoError(t, cfg.Validate())
	})

	t.Run("Should reject malformed rates", func(t *testing.T) {
		appCfg := config.Default()
		appCfg.RateLimit.Ask = "fast"
		_, err := FromAppConfig(appCfg)
		assert.Error(t, err)
	})

	t.Run("Should reject non-positive limits", func(t *testing.T) {
		cfg := &Config{RouteRates: map[string]RateConfig{"/ask": {Limit: 0, Period: time.Minute}}}
		assert.Error(t, cfg.Validate())
	})
}
