// Package guidance runs the request flows behind the HTTP surface: validate,
// look up the cache, retrieve grounding, generate through the orchestrator,
// verify and memoize.
package guidance

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/gitacompanion/companion/engine/infra/cache"
	"github.com/gitacompanion/companion/engine/knowledge/vectordb"
	llmadapter "github.com/gitacompanion/companion/engine/llm/adapter"
	"github.com/gitacompanion/companion/engine/passage"
	"github.com/gitacompanion/companion/engine/verification"
	"github.com/gitacompanion/companion/pkg/logger"
)

const (
	defaultTopK    = 3
	defaultWorkers = 16
	minChapter     = 1
	maxChapter     = 18
)

// Retriever finds grounding passages. An empty result means no grounding.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) []passage.Passage
}

// Generator produces answers through backends in failover order and reports
// the backend that answered.
type Generator interface {
	Guidance(ctx context.Context, in llmadapter.GuidanceInput, routingQuery string) (
		*llmadapter.GuidanceResult, string, error)
	Chat(ctx context.Context, in llmadapter.ChatInput, routingQuery string) (*llmadapter.ChatResult, string, error)
}

// Catalog reads stored passages for browsing endpoints.
type Catalog interface {
	All(ctx context.Context) ([]passage.Passage, error)
	Get(ctx context.Context, id int) (*passage.Passage, error)
}

type Options struct {
	Retriever     Retriever
	Generator     Generator
	Catalog       Catalog
	GuidanceCache cache.Cache[*GuidanceResponse]
	ChatCache     cache.Cache[*ChatResponse]
	VerseCache    cache.Cache[[]passage.Passage]
	ChapterCache  cache.Cache[[]ChapterSummary]
	MorningCache  cache.Cache[*MorningGreetingResponse]
	Favorites     FavoriteStore
	TopK          int
	Workers       int64
	Clock         func() time.Time
}

type Service struct {
	retriever     Retriever
	generator     Generator
	catalog       Catalog
	guidanceCache cache.Cache[*GuidanceResponse]
	chatCache     cache.Cache[*ChatResponse]
	verseCache    cache.Cache[[]passage.Passage]
	chapterCache  cache.Cache[[]ChapterSummary]
	morningCache  cache.Cache[*MorningGreetingResponse]
	favorites     FavoriteStore
	topK          int
	pool          *semaphore.Weighted
	now           func() time.Time
}

func NewService(opts *Options) (*Service, error) {
	if opts == nil {
		return nil, errors.New("guidance: options are required")
	}
	if opts.Retriever == nil || opts.Generator == nil || opts.Catalog == nil {
		return nil, errors.New("guidance: retriever, generator and catalog are required")
	}
	s := &Service{
		retriever:     opts.Retriever,
		generator:     opts.Generator,
		catalog:       opts.Catalog,
		guidanceCache: opts.GuidanceCache,
		chatCache:     opts.ChatCache,
		verseCache:    opts.VerseCache,
		chapterCache:  opts.ChapterCache,
		morningCache:  opts.MorningCache,
		favorites:     opts.Favorites,
		topK:          opts.TopK,
		now:           opts.Clock,
	}
	if s.guidanceCache == nil {
		s.guidanceCache = cache.NewTTLCache[*GuidanceResponse]("guidance", 0, nil)
	}
	if s.chatCache == nil {
		s.chatCache = cache.NewTTLCache[*ChatResponse]("chat", 0, nil)
	}
	if s.verseCache == nil {
		s.verseCache = cache.NewTTLCache[[]passage.Passage]("verses", 0, nil)
	}
	if s.chapterCache == nil {
		s.chapterCache = cache.NewTTLCache[[]ChapterSummary]("chapters", 0, nil)
	}
	if s.morningCache == nil {
		s.morningCache = cache.NewTTLCache[*MorningGreetingResponse]("morning", 0, nil)
	}
	if s.topK <= 0 {
		s.topK = defaultTopK
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	s.pool = semaphore.NewWeighted(workers)
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Ask answers a free-form question.
func (s *Service) Ask(ctx context.Context, req *AskRequest) (*GuidanceResponse, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	return s.guidance(ctx, AskKey(req), req.Question, req.Mode, req.Language)
}

// MoodGuidance answers a mood check-in.
func (s *Service) MoodGuidance(ctx context.Context, req *MoodRequest) (*GuidanceResponse, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	return s.guidance(ctx, MoodKey(req), req.Topic(), req.Mode, req.Language)
}

func (s *Service) guidance(
	ctx context.Context,
	key, topic string,
	mode llmadapter.Mode,
	language string,
) (*GuidanceResponse, error) {
	log := logger.FromContext(ctx).With("cache_key_kind", keyKind(key))
	if cached, ok := s.guidanceCache.Get(ctx, key); ok {
		log.Debug("Guidance served from cache")
		return cached, nil
	}
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	verses := s.retriever.Retrieve(ctx, topic, s.topK)
	if len(verses) == 0 {
		return nil, ErrNoGrounding
	}
	result, backend, err := s.generator.Guidance(ctx, llmadapter.GuidanceInput{
		Topic:    topic,
		Mode:     mode,
		Language: language,
		Verses:   verses,
	}, topic)
	if err != nil {
		return nil, fmt.Errorf("guidance: generate: %w", err)
	}
	verdict := verification.Verify(result.GroundingText(), result.Verses, verses)
	resp := &GuidanceResponse{
		GuidanceResult: *result,
		Verified:       newVerified(result.GroundingText(), &verdict, backend),
	}
	s.guidanceCache.Set(ctx, key, resp)
	log.Info("Guidance generated", "model_used", backend, "verification_level", verdict.Level)
	return resp, nil
}

// Chat answers one message in a conversation.
func (s *Service) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	key := ChatKey(req)
	log := logger.FromContext(ctx).With("cache_key_kind", keyKind(key))
	if cached, ok := s.chatCache.Get(ctx, key); ok {
		log.Debug("Chat reply served from cache")
		return cached, nil
	}
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	query := req.RetrievalQuery()
	verses := s.retriever.Retrieve(ctx, query, s.topK)
	if len(verses) == 0 {
		return nil, ErrNoGrounding
	}
	result, backend, err := s.generator.Chat(ctx, llmadapter.ChatInput{
		Message:  req.Message,
		Mode:     req.Mode,
		Language: req.Language,
		History:  req.History,
		Verses:   verses,
	}, query)
	if err != nil {
		return nil, fmt.Errorf("guidance: chat: %w", err)
	}
	verdict := verification.Verify(result.GroundingText(), result.Verses, verses)
	resp := &ChatResponse{
		ChatResult: *result,
		Verified:   newVerified(result.GroundingText(), &verdict, backend),
	}
	s.chatCache.Set(ctx, key, resp)
	log.Info("Chat reply generated", "model_used", backend, "verification_level", verdict.Level)
	return resp, nil
}

// Moods lists the mood options in display order.
func (s *Service) Moods() MoodsResponse {
	return MoodsResponse{Moods: slices.Clone(Moods)}
}

// Verses lists passages in canonical order, optionally for one chapter.
// chapter 0 means every chapter.
func (s *Service) Verses(ctx context.Context, chapter int) ([]passage.Passage, error) {
	if chapter != 0 && (chapter < minChapter || chapter > maxChapter) {
		return nil, fmt.Errorf("%w: chapter must be between %d and %d", ErrInvalidQuery, minChapter, maxChapter)
	}
	key := versesKey(chapter)
	if cached, ok := s.verseCache.Get(ctx, key); ok {
		return cached, nil
	}
	all, err := s.catalog.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("guidance: list verses: %w", err)
	}
	out := make([]passage.Passage, 0, len(all))
	for i := range all {
		if chapter == 0 || all[i].Chapter == chapter {
			out = append(out, all[i])
		}
	}
	passage.SortCanonical(out)
	s.verseCache.Set(ctx, key, out)
	return out, nil
}

func (s *Service) Verse(ctx context.Context, id int) (*passage.Passage, error) {
	p, err := s.catalog.Get(ctx, id)
	if errors.Is(err, vectordb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrVerseNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("guidance: get verse %d: %w", id, err)
	}
	return p, nil
}

// DailyVerse picks the passage at day-of-year modulo the corpus size, over
// passages ordered by id.
func (s *Service) DailyVerse(ctx context.Context) (*passage.Passage, error) {
	all, err := s.catalog.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("guidance: daily verse: %w", err)
	}
	if len(all) == 0 {
		return nil, ErrEmptyCatalog
	}
	byID := slices.Clone(all)
	slices.SortFunc(byID, func(a, b passage.Passage) int { return a.ID - b.ID })
	picked := byID[s.now().YearDay()%len(byID)]
	return &picked, nil
}

// InvalidateCatalog drops every memo derived from the stored passages. Call
// it after the catalog is replaced.
func (s *Service) InvalidateCatalog(ctx context.Context) {
	keys := make([]string, 0, maxChapter+1)
	keys = append(keys, versesKey(0))
	for ch := minChapter; ch <= maxChapter; ch++ {
		keys = append(keys, versesKey(ch))
	}
	s.verseCache.Delete(ctx, keys...)
	s.chapterCache.Delete(ctx, chaptersKey)
	today := s.now()
	morning := make([]string, 0, len(morningModes)*len(llmadapter.SupportedLanguages()))
	for _, mode := range morningModes {
		for _, lang := range llmadapter.SupportedLanguages() {
			morning = append(morning, MorningKey(today, &MorningRequest{Mode: mode, Language: lang}))
		}
	}
	s.morningCache.Delete(ctx, morning...)
	logger.FromContext(ctx).Info("Catalog memos invalidated")
}

func versesKey(chapter int) string {
	if chapter == 0 {
		return "verses:all"
	}
	return "verses:" + strconv.Itoa(chapter)
}

func (s *Service) acquire(ctx context.Context) (func(), error) {
	if err := s.pool.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("guidance: acquire worker: %w", err)
	}
	return func() { s.pool.Release(1) }, nil
}

func keyKind(key string) string {
	for i := range len(key) {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}
