package metrics

// HTTPDurationBuckets defines latency buckets for HTTP request duration metrics.
var HTTPDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// RetrievalDurationBuckets covers embedding plus vector search.
var RetrievalDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

// GenerationDurationBuckets covers backend calls bounded by the per-call timeout.
var GenerationDurationBuckets = []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 45, 60}
