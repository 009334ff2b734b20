package ingest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitacompanion/companion/engine/knowledge/embedder"
	"github.com/gitacompanion/companion/engine/knowledge/vectordb"
	"github.com/gitacompanion/companion/engine/passage"
)

func passages(n int) []passage.Passage {
	out := make([]passage.Passage, n)
	for i := range out {
		out[i] = passage.Passage{
			ID: i + 1, Chapter: 2, Verse: i + 1, Ref: passage.FormatRef(2, i+1),
			Translation: "verse text", Tags: []string{"duty"},
		}
	}
	return out
}

type countingEmbedder struct {
	*embedder.Hash
	calls atomic.Int32
	fail  bool
}

func (c *countingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(1)
	if c.fail {
		return nil, errors.New("model offline")
	}
	return c.Hash.EmbedDocuments(ctx, texts)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()

	t.Run("Should embed in batches and store every passage", func(t *testing.T) {
		emb := &countingEmbedder{Hash: embedder.NewHash(8)}
		store := vectordb.NewMemoryStore(8)
		res, err := Seed(ctx, emb, store, passages(10), &Options{BatchSize: 3, Concurrency: 2})
		require.NoError(t, err)
		assert.Equal(t, 10, res.Passages)
		assert.Equal(t, 10, res.Stored)
		assert.Equal(t, int32(4), emb.calls.Load())
		all, err := store.All(ctx)
		require.NoError(t, err)
		for i := range all {
			assert.Len(t, all[i].Embedding, 8)
		}
	})

	t.Run("Should fail without storing when embedding fails", func(t *testing.T) {
		emb := &countingEmbedder{Hash: embedder.NewHash(8), fail: true}
		store := vectordb.NewMemoryStore(8)
		_, err := Seed(ctx, emb, store, passages(5), nil)
		require.Error(t, err)
		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("Should re-embed stored passages", func(t *testing.T) {
		store := vectordb.NewMemoryStore(8)
		require.NoError(t, store.Upsert(ctx, passages(3)))
		res, err := Reembed(ctx, embedder.NewHash(8), store, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Passages)
		got, err := store.Get(ctx, 2)
		require.NoError(t, err)
		assert.True(t, got.HasEmbedding())
	})
}

func TestSeedFile(t *testing.T) {
	ctx := context.Background()

	t.Run("Should load and seed a catalog file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/data/verses.json", []byte(`[
			{"chapter": 2, "verse": 47, "sanskrit": "karmany", "translation": "duty", "tags": ["duty"]},
			{"chapter": 6, "verse": 35, "translation": "mind", "tags": ["mind"]}
		]`), 0o644))
		store := vectordb.NewMemoryStore(8)
		res, err := SeedFile(ctx, fs, "/data/verses.json", embedder.NewHash(8), store, nil)
		require.NoError(t, err)
		assert.Equal(t, "/data/verses.json", res.Source)
		assert.Equal(t, 2, res.Stored)
	})

	t.Run("Should report a missing catalog", func(t *testing.T) {
		_, err := SeedFile(ctx, afero.NewMemMapFs(), "/nope.json", embedder.NewHash(8), vectordb.NewMemoryStore(8), nil)
		assert.ErrorIs(t, err, passage.ErrCatalogNotFound)
	})
}
