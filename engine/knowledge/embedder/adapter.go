package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tmc/langchaingo/embeddings"

	"github.com/gitacompanion/companion/engine/knowledge"
)

// Adapter wraps a langchaingo embedder, enforcing the configured dimension
// and memoizing query vectors in an LRU cache.
type Adapter struct {
	provider  Provider
	model     string
	dimension int
	impl      embeddings.Embedder
	cacheMu   sync.Mutex
	cache     *lru.Cache[string, []float32]
}

// Wrap adapts an existing langchaingo embedder.
func Wrap(cfg *Config, impl embeddings.Embedder) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New("embedder config is required")
	}
	if impl == nil {
		return nil, fmt.Errorf("embedder %q: implementation is required", cfg.Provider)
	}
	if cfg.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	a := &Adapter{
		provider:  cfg.Provider,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		impl:      impl,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, []float32](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("embedder %q: init cache: %w", cfg.Provider, err)
		}
		a.cache = cache
	}
	return a, nil
}

func (a *Adapter) Dimension() int {
	return a.dimension
}

func (a *Adapter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if vector, ok := a.lookup(key); ok {
		knowledge.RecordEmbeddingCache(ctx, string(a.provider), true)
		return vector, nil
	}
	if a.cache != nil {
		knowledge.RecordEmbeddingCache(ctx, string(a.provider), false)
	}
	vector, err := a.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, a.withContext(err)
	}
	if err := a.checkDimension(vector); err != nil {
		return nil, err
	}
	a.store(key, vector)
	return cloneVector(vector), nil
}

func (a *Adapter) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := a.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, a.withContext(err)
	}
	if len(vectors) != len(texts) {
		return nil, a.withContext(fmt.Errorf("received %d embeddings for %d texts", len(vectors), len(texts)))
	}
	for i := range vectors {
		if err := a.checkDimension(vectors[i]); err != nil {
			return nil, err
		}
	}
	return vectors, nil
}

func (a *Adapter) checkDimension(vector []float32) error {
	if len(vector) != a.dimension {
		return a.withContext(fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), a.dimension))
	}
	return nil
}

func (a *Adapter) lookup(key string) ([]float32, bool) {
	if a.cache == nil {
		return nil, false
	}
	a.cacheMu.Lock()
	value, ok := a.cache.Get(key)
	a.cacheMu.Unlock()
	if !ok {
		return nil, false
	}
	return cloneVector(value), true
}

func (a *Adapter) store(key string, vector []float32) {
	if a.cache == nil || len(vector) == 0 {
		return
	}
	a.cacheMu.Lock()
	a.cache.Add(key, cloneVector(vector))
	a.cacheMu.Unlock()
}

func (a *Adapter) withContext(err error) error {
	return fmt.Errorf("embedder %s/%s: %w", a.provider, a.model, err)
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func cloneVector(src []float32) []float32 {
	if len(src) == 0 {
		return nil
	}
	dst := make([]float32, len(src))
	copy(dst, src)
	return dst
}
