package embedder

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLangchainEmbedder struct {
	vector     []float32
	err        error
	queryCalls int
}

func (s *stubLangchainEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = append([]float32(nil), s.vector...)
	}
	return out, nil
}

func (s *stubLangchainEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	s.queryCalls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]float32(nil), s.vector...), nil
}

func l2(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestHash(t *testing.T) {
	ctx := context.Background()

	t.Run("Should be deterministic and normalized", func(t *testing.T) {
		h := NewHash(64)
		a, err := h.EmbedQuery(ctx, "Karma yoga and duty")
		require.NoError(t, err)
		b, err := h.EmbedQuery(ctx, "karma YOGA and duty!")
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Len(t, a, 64)
		assert.InDelta(t, 1.0, l2(a), 1e-5)
	})

	t.Run("Should return the zero vector for text without tokens", func(t *testing.T) {
		v, err := NewHash(8).EmbedQuery(ctx, "   ...   ")
		require.NoError(t, err)
		assert.Equal(t, make([]float32, 8), v)
	})

	t.Run("Should embed documents in order", func(t *testing.T) {
		h := NewHash(16)
		docs, err := h.EmbedDocuments(ctx, []string{"peace", "fear"})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		single, _ := h.EmbedQuery(ctx, "fear")
		assert.Equal(t, single, docs[1])
	})

	t.Run("Should honour a canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewHash(8).EmbedQuery(canceled, "peace")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("Should cache query vectors", func(t *testing.T) {
		stub := &stubLangchainEmbedder{vector: []float32{0.1, 0.2, 0.3}}
		a, err := Wrap(&Config{Provider: ProviderOllama, Model: "all-minilm", Dimension: 3, CacheSize: 4}, stub)
		require.NoError(t, err)
		first, err := a.EmbedQuery(ctx, "duty")
		require.NoError(t, err)
		first[0] = 42
		second, err := a.EmbedQuery(ctx, "duty")
		require.NoError(t, err)
		assert.Equal(t, 1, stub.queryCalls)
		assert.Equal(t, float32(0.1), second[0])
	})

	t.Run("Should reject vectors of the wrong dimension", func(t *testing.T) {
		stub := &stubLangchainEmbedder{vector: []float32{1, 2}}
		a, err := Wrap(&Config{Provider: ProviderOpenAI, Model: "m", Dimension: 3}, stub)
		require.NoError(t, err)
		_, err = a.EmbedQuery(ctx, "duty")
		assert.ErrorIs(t, err, ErrDimensionMismatch)
		_, err = a.EmbedDocuments(ctx, []string{"duty"})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("Should wrap provider errors", func(t *testing.T) {
		boom := errors.New("connection refused")
		a, err := Wrap(&Config{Provider: ProviderOllama, Model: "m", Dimension: 3}, &stubLangchainEmbedder{err: boom})
		require.NoError(t, err)
		_, err = a.EmbedQuery(ctx, "duty")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("Should require an implementation", func(t *testing.T) {
		_, err := Wrap(&Config{Provider: ProviderOllama, Dimension: 3}, nil)
		assert.Error(t, err)
	})
}

func TestNew(t *testing.T) {
	t.Run("Should build the hash embedder", func(t *testing.T) {
		emb, err := New(&Config{Provider: ProviderHash, Dimension: 384})
		require.NoError(t, err)
		assert.Equal(t, 384, emb.Dimension())
	})

	t.Run("Should reject unknown providers", func(t *testing.T) {
		_, err := New(&Config{Provider: "word2vec", Dimension: 384})
		assert.ErrorIs(t, err, ErrUnknownProvider)
	})

	t.Run("Should reject a zero dimension", func(t *testing.T) {
		_, err := New(&Config{Provider: ProviderHash})
		assert.ErrorIs(t, err, ErrInvalidDimension)
	})

	t.Run("Should fall back to hash embeddings", func(t *testing.T) {
		emb := NewWithFallback(context.Background(), &Config{Provider: "word2vec", Dimension: 32})
		_, ok := emb.(*Hash)
		assert.True(t, ok)
		assert.Equal(t, 32, emb.Dimension())
	})
}
