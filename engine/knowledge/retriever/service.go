package retriever

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gitacompanion/companion/engine/knowledge"
	"github.com/gitacompanion/companion/engine/knowledge/embedder"
	"github.com/gitacompanion/companion/engine/knowledge/vectordb"
	"github.com/gitacompanion/companion/engine/passage"
	"github.com/gitacompanion/companion/pkg/logger"
)

// Service finds the passages that ground a query. Vector search is tried
// first; lexical keyword overlap takes over when it errors or finds nothing.
type Service struct {
	embedder embedder.Embedder
	store    vectordb.Store
	tracer   trace.Tracer
}

func NewService(emb embedder.Embedder, store vectordb.Store) (*Service, error) {
	if emb == nil {
		return nil, errors.New("knowledge: retriever embedder is required")
	}
	if store == nil {
		return nil, errors.New("knowledge: retriever passage store is required")
	}
	return &Service{
		embedder: emb,
		store:    store,
		tracer:   otel.Tracer("gita.knowledge.retriever"),
	}, nil
}

// Retrieve returns at most k passages. It never fails: store and embedder
// errors are logged as degradation and an empty slice means no grounding.
func (s *Service) Retrieve(ctx context.Context, query string, k int) []passage.Passage {
	ctx, span := s.tracer.Start(ctx, "gita.knowledge.retriever.retrieve", trace.WithAttributes(
		attribute.Int("top_k", k),
		attribute.Int("query_length", len(query)),
	))
	defer span.End()
	log := logger.FromContext(ctx)
	if k <= 0 {
		return []passage.Passage{}
	}

	start := time.Now()
	knowledge.RecordRetrievalAttempt(ctx, knowledge.StageVector)
	results, err := s.vectorSearch(ctx, query, k)
	knowledge.RecordQueryLatency(ctx, knowledge.StageVector, time.Since(start))
	switch {
	case err != nil:
		log.Warn("Vector retrieval degraded, falling back to keyword search", "error", err)
		knowledge.RecordDegradation(ctx, "error")
		span.RecordError(err)
	case len(results) == 0:
		knowledge.RecordRetrievalEmpty(ctx, knowledge.StageVector)
	default:
		span.SetAttributes(attribute.String("stage", knowledge.StageVector), attribute.Int("results", len(results)))
		log.Debug("Retrieved passages", "stage", knowledge.StageVector, "results", len(results))
		return results
	}

	start = time.Now()
	knowledge.RecordRetrievalAttempt(ctx, knowledge.StageLexical)
	results = s.lexicalSearch(ctx, query, k)
	knowledge.RecordQueryLatency(ctx, knowledge.StageLexical, time.Since(start))
	if len(results) == 0 {
		knowledge.RecordRetrievalEmpty(ctx, knowledge.StageLexical)
	}
	span.SetAttributes(attribute.String("stage", knowledge.StageLexical), attribute.Int("results", len(results)))
	log.Debug("Retrieved passages", "stage", knowledge.StageLexical, "results", len(results))
	return results
}

func (s *Service) vectorSearch(ctx context.Context, query string, k int) ([]passage.Passage, error) {
	spanCtx, span := s.tracer.Start(ctx, "gita.knowledge.retriever.vector_search")
	defer span.End()
	vector, err := s.embedder.EmbedQuery(spanCtx, query)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	results, err := s.store.Search(spanCtx, vector, k)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return results, nil
}

type lexicalMatch struct {
	passage passage.Passage
	score   float64
}

func (s *Service) lexicalSearch(ctx context.Context, query string, k int) []passage.Passage {
	spanCtx, span := s.tracer.Start(ctx, "gita.knowledge.retriever.lexical_search")
	defer span.End()
	all, err := s.store.All(spanCtx)
	if err != nil {
		logger.FromContext(ctx).Warn("Keyword retrieval unavailable", "error", err)
		span.SetStatus(codes.Error, err.Error())
		return []passage.Passage{}
	}
	return RankLexical(query, all, k)
}

// RankLexical scores every passage by keyword overlap, drops zero scores and
// returns the best k. Ties keep the input order.
func RankLexical(query string, passages []passage.Passage, k int) []passage.Passage {
	matches := make([]lexicalMatch, 0, len(passages))
	for i := range passages {
		score := knowledge.KeywordScore(query, passages[i].LexicalFields())
		if score <= 0 {
			continue
		}
		matches = append(matches, lexicalMatch{passage: passages[i], score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	out := make([]passage.Passage, len(matches))
	for i := range matches {
		out[i] = matches[i].passage
	}
	return out
}
