package router

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/gitacompanion/companion/engine/infra/monitoring/metrics"
)

var (
	metricsOnce     sync.Once
	decisionCounter metric.Int64Counter
)

func recordDecision(ctx context.Context, d Decision) {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("gita.llm.router")
		counter, err := meter.Int64Counter(
			metrics.MetricNameWithSubsystem("router", "decisions_total"),
			metric.WithDescription("Routing decisions by chosen backend"),
			metric.WithUnit("1"),
		)
		if err == nil {
			decisionCounter = counter
		}
	})
	if decisionCounter == nil {
		return
	}
	decisionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", d.Backend),
		attribute.Bool("default", d.Default),
	))
}
