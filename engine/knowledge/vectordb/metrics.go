package vectordb

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	monitoringmetrics "github.com/gitacompanion/companion/engine/infra/monitoring/metrics"
)

var (
	vectorMetricsOnce   sync.Once
	vectorMetricsErr    error
	vectorSearchLatency metric.Float64Histogram
	vectorResultsCount  metric.Float64Histogram
	vectorErrorsTotal   metric.Int64Counter
)

func ensureVectorMetrics() error {
	vectorMetricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("gita.knowledge.vector")
		var err error
		vectorSearchLatency, err = meter.Float64Histogram(
			monitoringmetrics.MetricNameWithSubsystem("vectordb", "similarity_search_seconds"),
			metric.WithDescription("Vector similarity search latency"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2),
		)
		if err != nil {
			vectorMetricsErr = err
			return
		}
		vectorResultsCount, err = meter.Float64Histogram(
			monitoringmetrics.MetricNameWithSubsystem("vectordb", "similarity_results_per_search"),
			metric.WithDescription("Number of passages returned per search"),
			metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 5, 10),
		)
		if err != nil {
			vectorMetricsErr = err
			return
		}
		vectorErrorsTotal, err = meter.Int64Counter(
			monitoringmetrics.MetricNameWithSubsystem("vectordb", "store_errors_total"),
			metric.WithDescription("Vector store operation errors"),
		)
		vectorMetricsErr = err
	})
	return vectorMetricsErr
}

func recordVectorSearch(ctx context.Context, backend string, topK int, duration time.Duration, results int) {
	if err := ensureVectorMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.Int("top_k", topK),
	)
	vectorSearchLatency.Record(ctx, duration.Seconds(), attrs)
	vectorResultsCount.Record(ctx, float64(results), attrs)
}

func recordVectorError(ctx context.Context, backend, operation string) {
	if err := ensureVectorMetrics(); err != nil || vectorErrorsTotal == nil {
		return
	}
	vectorErrorsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("operation", operation),
	))
}
