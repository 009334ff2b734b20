package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricName(t *testing.T) {
	t.Run("Should add the prefix", func(t *testing.T) {
		assert.Equal(t, "gita_requests_total", MetricName("requests_total"))
	})
	t.Run("Should keep an existing prefix", func(t *testing.T) {
		assert.Equal(t, "gita_custom_metric", MetricName("gita_custom_metric"))
	})
	t.Run("Should return the bare prefix for blank names", func(t *testing.T) {
		assert.Equal(t, "gita_", MetricName(""))
	})
}

func TestMetricNameWithSubsystem(t *testing.T) {
	tests := []struct {
		name      string
		subsystem string
		metric    string
		expected  string
	}{
		{name: "Should join subsystem and name", subsystem: "llm", metric: "calls_total", expected: "gita_llm_calls_total"},
		{name: "Should trim underscores", subsystem: "_knowledge_", metric: "retries_total", expected: "gita_knowledge_retries_total"},
		{name: "Should allow an empty name", subsystem: "cache", metric: "", expected: "gita_cache"},
		{name: "Should keep prefixed names without subsystem", subsystem: "", metric: "gita_existing", expected: "gita_existing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MetricNameWithSubsystem(tt.subsystem, tt.metric))
		})
	}
}
