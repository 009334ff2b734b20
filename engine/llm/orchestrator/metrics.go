package orchestrator

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/gitacompanion/companion/engine/infra/monitoring/metrics"
)

var (
	metricsOnce      sync.Once
	metricsInitErr   error
	decisionCounter  metric.Int64Counter
	responseTimeHist metric.Float64Histogram
	attemptCounter   metric.Int64Counter
)

// MetricsSink exports decisions as otel instruments.
type MetricsSink struct{}

func (MetricsSink) Record(ctx context.Context, d Decision) error {
	if err := ensureMetrics(); err != nil {
		return err
	}
	attrs := metric.WithAttributes(
		attribute.String("endpoint", d.Endpoint),
		attribute.String("model", d.ModelUsed),
		attribute.String("routed_to", d.RoutedTo),
		attribute.Bool("success", d.Success),
	)
	decisionCounter.Add(ctx, 1, attrs)
	responseTimeHist.Record(ctx, d.ResponseTimeMS/1000, attrs)
	return nil
}

func recordAttempt(ctx context.Context, endpoint, backend, outcome string) {
	if err := ensureMetrics(); err != nil || attemptCounter == nil {
		return
	}
	attemptCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("backend", backend),
		attribute.String("outcome", outcome),
	))
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("gita.llm.orchestrator")
		metricsInitErr = initMetrics(meter)
	})
	return metricsInitErr
}

func initMetrics(meter metric.Meter) error {
	var err error
	decisionCounter, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("llm", "decisions_total"),
		metric.WithDescription("Orchestrated generations by endpoint, backend and outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	responseTimeHist, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("llm", "response_seconds"),
		metric.WithDescription("Wall time from first attempt to final outcome"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.GenerationDurationBuckets...),
	)
	if err != nil {
		return err
	}
	attemptCounter, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("llm", "backend_attempts_total"),
		metric.WithDescription("Individual backend calls by outcome"),
		metric.WithUnit("1"),
	)
	return err
}
