package cache

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/gitacompanion/companion/engine/infra/monitoring/metrics"
)

var (
	metricsOnce   sync.Once
	lookupCounter metric.Int64Counter
)

func recordLookup(ctx context.Context, name, backend string, hit bool) {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("gita.cache")
		counter, err := meter.Int64Counter(
			metrics.MetricNameWithSubsystem("cache", "lookups_total"),
			metric.WithDescription("Response cache lookups by outcome"),
			metric.WithUnit("1"),
		)
		if err == nil {
			lookupCounter = counter
		}
	})
	if lookupCounter == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	lookupCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache", name),
		attribute.String("backend", backend),
		attribute.String("outcome", outcome),
	))
}
