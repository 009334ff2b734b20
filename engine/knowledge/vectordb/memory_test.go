package vectordb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitacompanion/companion/engine/passage"
)

func fixturePassages() []passage.Passage {
	return []passage.Passage{
		{ID: 3, Chapter: 6, Verse: 5, Ref: "6.5", Translation: "mind", Embedding: []float32{0, 0, 1}},
		{ID: 1, Chapter: 2, Verse: 47, Ref: "2.47", Translation: "duty", Embedding: []float32{1, 0, 0}},
		{ID: 2, Chapter: 2, Verse: 48, Ref: "2.48", Translation: "yoga", Embedding: []float32{0.8, 0.6, 0}},
		{ID: 4, Chapter: 18, Verse: 66, Ref: "18.66", Translation: "surrender"},
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Should rank by ascending cosine distance and skip passages without embeddings", func(t *testing.T) {
		store := NewMemoryStore(3)
		require.NoError(t, store.Upsert(ctx, fixturePassages()))
		got, err := store.Search(ctx, []float32{1, 0.1, 0}, 10)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, passage.IDs(got))
	})

	t.Run("Should limit results to k", func(t *testing.T) {
		store := NewMemoryStore(3)
		require.NoError(t, store.Upsert(ctx, fixturePassages()))
		got, err := store.Search(ctx, []float32{0, 1, 0}, 1)
		require.NoError(t, err)
		assert.Equal(t, []int{2}, passage.IDs(got))
	})

	t.Run("Should return nothing for a zero query vector", func(t *testing.T) {
		store := NewMemoryStore(3)
		require.NoError(t, store.Upsert(ctx, fixturePassages()))
		got, err := store.Search(ctx, []float32{0, 0, 0}, 3)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Should fail on query dimension mismatch", func(t *testing.T) {
		store := NewMemoryStore(3)
		_, err := store.Search(ctx, []float32{1, 0}, 3)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("Should fail upsert on embedding dimension mismatch", func(t *testing.T) {
		store := NewMemoryStore(3)
		err := store.Upsert(ctx, []passage.Passage{{ID: 9, Chapter: 1, Verse: 1, Embedding: []float32{1}}})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
		count, _ := store.Count(ctx)
		assert.Zero(t, count)
	})

	t.Run("Should list all passages in canonical order", func(t *testing.T) {
		store := NewMemoryStore(3)
		require.NoError(t, store.Upsert(ctx, fixturePassages()))
		all, err := store.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4}, passage.IDs(all))
		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, count)
	})

	t.Run("Should replace an existing id on upsert", func(t *testing.T) {
		store := NewMemoryStore(3)
		require.NoError(t, store.Upsert(ctx, fixturePassages()))
		require.NoError(t, store.Upsert(ctx, []passage.Passage{{ID: 1, Chapter: 2, Verse: 47, Translation: "updated"}}))
		got, err := store.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "updated", got.Translation)
		count, _ := store.Count(ctx)
		assert.Equal(t, 4, count)
	})

	t.Run("Should return ErrNotFound for unknown ids", func(t *testing.T) {
		_, err := NewMemoryStore(3).Get(ctx, 42)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Should isolate callers from internal state", func(t *testing.T) {
		store := NewMemoryStore(3)
		require.NoError(t, store.Upsert(ctx, fixturePassages()))
		got, _ := store.Get(ctx, 1)
		got.Embedding[0] = 0
		again, _ := store.Get(ctx, 1)
		assert.Equal(t, float32(1), again.Embedding[0])
	})

	t.Run("Should swap content on replace", func(t *testing.T) {
		store := NewMemoryStore(3)
		require.NoError(t, store.Upsert(ctx, fixturePassages()))
		require.NoError(t, store.Replace([]passage.Passage{{ID: 7, Chapter: 3, Verse: 35}}))
		assert.Equal(t, []int{7}, store.IDs())
	})
}

func TestCosineDistance(t *testing.T) {
	t.Run("Should be zero for identical directions", func(t *testing.T) {
		assert.InDelta(t, 0, CosineDistance([]float32{1, 2}, []float32{2, 4}), 1e-9)
	})
	t.Run("Should be one for orthogonal vectors", func(t *testing.T) {
		assert.InDelta(t, 1, CosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})
	t.Run("Should treat zero vectors as unrelated", func(t *testing.T) {
		assert.Equal(t, 1.0, CosineDistance([]float32{0, 0}, []float32{0, 1}))
	})
}

func TestNew(t *testing.T) {
	t.Run("Should default to the memory store", func(t *testing.T) {
		store, err := New(context.Background(), &Config{Dimension: 8})
		require.NoError(t, err)
		_, ok := store.(*MemoryStore)
		assert.True(t, ok)
	})
	t.Run("Should require a dimension", func(t *testing.T) {
		_, err := New(context.Background(), &Config{})
		assert.Error(t, err)
	})
	t.Run("Should require a dsn for pgvector", func(t *testing.T) {
		_, err := New(context.Background(), &Config{Provider: ProviderPGVector, Dimension: 8})
		assert.ErrorIs(t, err, errMissingDSN)
	})
}
