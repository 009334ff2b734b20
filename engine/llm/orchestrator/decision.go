package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"
)

// Operation kinds recorded in the decision log endpoint field.
const (
	EndpointGuidance = "guidance"
	EndpointChat     = "chat"
)

// ModelNone marks decisions where no backend produced a result.
const ModelNone = "none"

const queryPreviewLimit = 100

// Decision is one append-only routing record.
type Decision struct {
	TS             float64 `json:"ts"`
	Endpoint       string  `json:"endpoint"`
	QueryPreview   string  `json:"query_preview"`
	RoutedTo       string  `json:"routed_to"`
	ModelUsed      string  `json:"model_used"`
	ResponseTimeMS float64 `json:"response_time_ms"`
	Success        bool    `json:"success"`
}

// Time returns the record timestamp.
func (d *Decision) Time() time.Time {
	sec, frac := math.Modf(d.TS)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

func newDecision(at time.Time, endpoint, query, routedTo, model string, elapsed time.Duration, ok bool) Decision {
	return Decision{
		TS:             float64(at.UnixNano()) / float64(time.Second),
		Endpoint:       endpoint,
		QueryPreview:   preview(query),
		RoutedTo:       routedTo,
		ModelUsed:      model,
		ResponseTimeMS: math.Round(float64(elapsed.Microseconds())/10) / 100,
		Success:        ok,
	}
}

func preview(query string) string {
	if utf8.RuneCountInString(query) <= queryPreviewLimit {
		return query
	}
	runes := []rune(query)
	return string(runes[:queryPreviewLimit])
}

// DecisionSink persists decisions. Failures are logged by the caller and
// never fail the request.
type DecisionSink interface {
	Record(ctx context.Context, d Decision) error
}

// NopSink discards decisions.
type NopSink struct{}

func (NopSink) Record(context.Context, Decision) error { return nil }

// FileSink appends one JSON object per line.
type FileSink struct {
	mu   sync.Mutex
	path string
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Path() string { return s.path }

func (s *FileSink) Record(_ context.Context, d Decision) error {
	line, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	line = append(line, '\n')
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create decision log dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open decision log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("write decision log: %w", err)
	}
	return f.Close()
}

// MemorySink keeps decisions in process. Used by tests and the offline CLI.
type MemorySink struct {
	mu        sync.Mutex
	decisions []Decision
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) Record(_ context.Context, d Decision) error {
	s.mu.Lock()
	s.decisions = append(s.decisions, d)
	s.mu.Unlock()
	return nil
}

func (s *MemorySink) Decisions() []Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Decision(nil), s.decisions...)
}

// MultiSink fans a decision out to every sink and joins their errors.
type MultiSink []DecisionSink

func (m MultiSink) Record(ctx context.Context, d Decision) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Record(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
