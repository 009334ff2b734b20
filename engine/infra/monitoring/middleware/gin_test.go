package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func newRouter(t *testing.T) (*gin.Engine, *sdkmetric.ManualReader) {
	t.Helper()
	ResetMetricsForTesting()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(HTTPMetrics(provider.Meter("test")))
	router.GET("/verses/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.POST("/ask", func(c *gin.Context) {
		c.Status(http.StatusServiceUnavailable)
	})
	return router, reader
}

func TestHTTPMetrics(t *testing.T) {
	t.Run("Should record the route template instead of the raw path", func(t *testing.T) {
		router, reader := newRouter(t)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/verses/42", http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)

		got := collect(t, reader)
		total, ok := got["gita_http_requests_total"]
		require.True(t, ok)
		sum, ok := total.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, sum.DataPoints, 1)
		attrs := sum.DataPoints[0].Attributes.ToSlice()
		assert.Contains(t, attrs, attribute.String("method", "GET"))
		assert.Contains(t, attrs, attribute.String("path", "/verses/:id"))
		assert.Contains(t, attrs, attribute.String("status_code", "200"))
		assert.Contains(t, got, "gita_http_request_duration_seconds")
		assert.Contains(t, got, "gita_http_requests_in_flight")
	})

	t.Run("Should record failing statuses", func(t *testing.T) {
		router, reader := newRouter(t)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ask", http.NoBody))
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		sum := collect(t, reader)["gita_http_requests_total"].Data.(metricdata.Sum[int64])
		assert.Contains(t, sum.DataPoints[0].Attributes.ToSlice(), attribute.String("status_code", "503"))
	})

	t.Run("Should label unknown routes as unmatched", func(t *testing.T) {
		router, reader := newRouter(t)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope/123", http.NoBody))
		require.Equal(t, http.StatusNotFound, w.Code)
		sum := collect(t, reader)["gita_http_requests_total"].Data.(metricdata.Sum[int64])
		assert.Contains(t, sum.DataPoints[0].Attributes.ToSlice(), attribute.String("path", "unmatched"))
	})

	t.Run("Should pass requests through with a nil meter", func(t *testing.T) {
		ResetMetricsForTesting()
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(HTTPMetrics(nil))
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
