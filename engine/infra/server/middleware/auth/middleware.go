// Package auth guards the API with a single shared client key.
package auth

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/gitacompanion/companion/engine/infra/monitoring/metrics"
	"github.com/gitacompanion/companion/engine/infra/server/router"
	"github.com/gitacompanion/companion/pkg/logger"
)

// HeaderAPIKey is the header clients send the key in. A bearer
// Authorization header is accepted too.
const HeaderAPIKey = "X-API-Key"

var (
	authAttempts metric.Int64Counter
	metricsOnce  sync.Once
)

func recordAttempt(c *gin.Context, outcome string) {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("gita.auth")
		var err error
		authAttempts, err = meter.Int64Counter(
			metrics.MetricNameWithSubsystem("auth", "attempts_total"),
			metric.WithDescription("API key checks by outcome"),
		)
		if err != nil {
			logger.FromContext(c.Request.Context()).Error("Failed to create auth attempts counter", "error", err)
		}
	})
	if authAttempts != nil {
		authAttempts.Add(c.Request.Context(), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

// Manager handles authentication middleware
type Manager struct {
	key         []byte
	publicPaths []string
}

// NewManager creates the middleware manager. An empty key leaves the API open.
func NewManager(apiKey string, publicPaths ...string) *Manager {
	return &Manager{key: []byte(strings.TrimSpace(apiKey)), publicPaths: publicPaths}
}

// Enabled reports whether a key is configured.
func (m *Manager) Enabled() bool {
	return len(m.key) > 0
}

// Middleware rejects requests without the configured key. Public paths and
// CORS preflights always pass.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.Enabled() || c.Request.Method == http.MethodOptions ||
			slices.Contains(m.publicPaths, c.Request.URL.Path) {
			c.Next()
			return
		}
		provided, err := extractKey(c)
		if err != nil {
			logger.FromContext(c.Request.Context()).Debug("Authentication failed", "reason", err.Error())
			recordAttempt(c, "fail")
			m.handleAuthError(c, err)
			return
		}
		if subtle.ConstantTimeCompare(provided, m.key) != 1 {
			recordAttempt(c, "fail")
			m.handleAuthError(c, &authError{message: "key mismatch"})
			return
		}
		recordAttempt(c, "success")
		c.Next()
	}
}

func extractKey(c *gin.Context) ([]byte, error) {
	if key := strings.TrimSpace(c.GetHeader(HeaderAPIKey)); key != "" {
		return []byte(key), nil
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, &authError{message: "no credentials"}
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, &authError{message: "invalid format", public: true}
	}
	return []byte(parts[1]), nil
}

// handleAuthError sends appropriate error response
func (m *Manager) handleAuthError(c *gin.Context, err error) {
	detail := "Invalid or missing API key"
	if authErr, ok := err.(*authError); ok && authErr.public {
		detail = "Invalid authorization header format"
	}
	router.RespondProblemWithCode(c, http.StatusUnauthorized, router.ErrUnauthorizedCode, detail)
}

// authError represents an authentication error
type authError struct {
	message string
	public  bool // whether error details can be shown publicly
}

func (e *authError) Error() string {
	return e.message
}
