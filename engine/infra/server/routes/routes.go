// Package routes names the service-level paths that sit outside the
// guidance API.
package routes

import "slices"

const (
	// Health reports liveness and the registered backends.
	Health = "/health"
	// ModelStatus reports per-backend health.
	ModelStatus = "/api/model-status"
	// DefaultMetrics is where the Prometheus exporter is mounted unless configured.
	DefaultMetrics = "/metrics"
)

// PublicPaths lists the paths served without an API key.
func PublicPaths(metricsPath string) []string {
	paths := []string{Health}
	if metricsPath == "" {
		metricsPath = DefaultMetrics
	}
	if !slices.Contains(paths, metricsPath) {
		paths = append(paths, metricsPath)
	}
	return paths
}
