package knowledge

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/gitacompanion/companion/engine/infra/monitoring/metrics"
)

// Retrieval stages reported in metrics and logs.
const (
	StageVector  = "vector"
	StageLexical = "lexical"
)

var (
	metricsOnce             sync.Once
	metricsMu               sync.Mutex
	metricsInitErr          error
	queryLatencyHist        metric.Float64Histogram
	retrievalAttemptCounter metric.Int64Counter
	retrievalEmptyCounter   metric.Int64Counter
	degradationCounter      metric.Int64Counter
	embeddingCacheCounter   metric.Int64Counter
)

func RecordQueryLatency(ctx context.Context, stage string, d time.Duration) {
	if err := ensureMetrics(); err != nil || queryLatencyHist == nil {
		return
	}
	queryLatencyHist.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

func RecordRetrievalAttempt(ctx context.Context, stage string) {
	if err := ensureMetrics(); err != nil || retrievalAttemptCounter == nil {
		return
	}
	retrievalAttemptCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

func RecordRetrievalEmpty(ctx context.Context, stage string) {
	if err := ensureMetrics(); err != nil || retrievalEmptyCounter == nil {
		return
	}
	retrievalEmptyCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordDegradation counts vector-path failures that forced lexical fallback.
func RecordDegradation(ctx context.Context, reason string) {
	if err := ensureMetrics(); err != nil || degradationCounter == nil {
		return
	}
	degradationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func RecordEmbeddingCache(ctx context.Context, provider string, hit bool) {
	if err := ensureMetrics(); err != nil || embeddingCacheCounter == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	embeddingCacheCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
}

func ResetMetricsForTesting() {
	metricsMu.Lock()
	metricsOnce = sync.Once{}
	metricsInitErr = nil
	queryLatencyHist = nil
	retrievalAttemptCounter = nil
	retrievalEmptyCounter = nil
	degradationCounter = nil
	embeddingCacheCounter = nil
	metricsMu.Unlock()
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("gita.knowledge")
		metricsInitErr = initRetrievalMetrics(meter)
	})
	return metricsInitErr
}

func initRetrievalMetrics(meter metric.Meter) error {
	var err error
	queryLatencyHist, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("knowledge", "query_latency_seconds"),
		metric.WithDescription("Latency of passage retrieval by stage"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.RetrievalDurationBuckets...),
	)
	if err != nil {
		return err
	}
	retrievalAttemptCounter, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("knowledge", "retrieval_attempt_total"),
		metric.WithDescription("Number of retrieval attempts performed by stage"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	retrievalEmptyCounter, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("knowledge", "retrieval_empty_total"),
		metric.WithDescription("Number of retrieval stages that returned no passages"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	degradationCounter, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("knowledge", "vector_degraded_total"),
		metric.WithDescription("Vector search failures recovered by lexical fallback"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	embeddingCacheCounter, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("knowledge", "embedding_cache_total"),
		metric.WithDescription("Embedding cache lookups by outcome"),
		metric.WithUnit("1"),
	)
	return err
}
