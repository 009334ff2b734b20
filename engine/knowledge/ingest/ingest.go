// Package ingest loads the verse catalog into a passage store, embedding
// every passage on a bounded worker group.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/gitacompanion/companion/engine/knowledge/embedder"
	"github.com/gitacompanion/companion/engine/knowledge/vectordb"
	"github.com/gitacompanion/companion/engine/passage"
	"github.com/gitacompanion/companion/pkg/logger"
)

const (
	defaultBatchSize   = 32
	defaultConcurrency = 4
)

type Options struct {
	BatchSize   int
	Concurrency int
}

func (o *Options) normalized() Options {
	out := Options{BatchSize: defaultBatchSize, Concurrency: defaultConcurrency}
	if o == nil {
		return out
	}
	if o.BatchSize > 0 {
		out.BatchSize = o.BatchSize
	}
	if o.Concurrency > 0 {
		out.Concurrency = o.Concurrency
	}
	return out
}

// Result summarizes one ingestion run.
type Result struct {
	Source   string        `json:"source,omitempty"`
	Passages int           `json:"passages"`
	Stored   int           `json:"stored"`
	Duration time.Duration `json:"duration"`
}

// Embed fills the embedding of every passage in place. Batches run
// concurrently up to opts.Concurrency; the first failure cancels the rest.
func Embed(ctx context.Context, emb embedder.Embedder, passages []passage.Passage, opts *Options) error {
	o := opts.normalized()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Concurrency)
	for start := 0; start < len(passages); start += o.BatchSize {
		end := min(start+o.BatchSize, len(passages))
		batch := passages[start:end]
		g.Go(func() error {
			texts := make([]string, len(batch))
			for i := range batch {
				texts[i] = batch[i].EmbeddingText()
			}
			vectors, err := emb.EmbedDocuments(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed passages %d-%d: %w", batch[0].ID, batch[len(batch)-1].ID, err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embed passages: got %d vectors for %d texts", len(vectors), len(batch))
			}
			for i := range batch {
				batch[i].Embedding = vectors[i]
			}
			return nil
		})
	}
	return g.Wait()
}

// Seed embeds passages and upserts them into store.
func Seed(
	ctx context.Context,
	emb embedder.Embedder,
	store vectordb.Store,
	passages []passage.Passage,
	opts *Options,
) (*Result, error) {
	start := time.Now()
	if err := Embed(ctx, emb, passages, opts); err != nil {
		return nil, err
	}
	if err := store.Upsert(ctx, passages); err != nil {
		return nil, fmt.Errorf("store passages: %w", err)
	}
	stored, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count passages: %w", err)
	}
	res := &Result{Passages: len(passages), Stored: stored, Duration: time.Since(start)}
	logger.FromContext(ctx).Info("Passages seeded",
		"passages", res.Passages,
		"stored", res.Stored,
		"duration", res.Duration,
	)
	return res, nil
}

// SeedFile loads the catalog at path (or the first default location when
// path is empty) and seeds it.
func SeedFile(
	ctx context.Context,
	fs afero.Fs,
	path string,
	emb embedder.Embedder,
	store vectordb.Store,
	opts *Options,
) (*Result, error) {
	resolved, err := passage.ResolveCatalogPath(fs, path)
	if err != nil {
		return nil, err
	}
	passages, err := passage.LoadCatalog(fs, resolved)
	if err != nil {
		return nil, err
	}
	res, err := Seed(ctx, emb, store, passages, opts)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", resolved, err)
	}
	res.Source = resolved
	return res, nil
}

// Reembed recomputes embeddings for every stored passage, for example after
// switching embedding providers.
func Reembed(ctx context.Context, emb embedder.Embedder, store vectordb.Store, opts *Options) (*Result, error) {
	passages, err := store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list passages: %w", err)
	}
	return Seed(ctx, emb, store, passages, opts)
}
