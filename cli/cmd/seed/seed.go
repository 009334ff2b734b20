// Package seed loads the verse catalog into the passage store.
package seed

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/gitacompanion/companion/cli/cmd"
	"github.com/gitacompanion/companion/cli/helpers"
	"github.com/gitacompanion/companion/engine/knowledge/embedder"
	"github.com/gitacompanion/companion/engine/knowledge/ingest"
	"github.com/gitacompanion/companion/engine/knowledge/vectordb"
	"github.com/gitacompanion/companion/pkg/config"
	"github.com/gitacompanion/companion/pkg/logger"
)

const labelWidth = 10

type options struct {
	file        string
	reembed     bool
	concurrency int
	fs          afero.Fs
}

func NewCommand() *cobra.Command {
	opts := &options{fs: afero.NewOsFs()}
	c := &cobra.Command{
		Use:   "seed",
		Short: "Embed the verse catalog and store it",
		Long: `Load the verse catalog, embed every passage in batches and upsert the
result into the configured passage store. With --reembed the stored passages
are embedded again instead, for example after switching embedding models.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ModeHandlers{
				JSON: func(ctx context.Context, c *cobra.Command, cfg *config.Config, _ []string) error {
					res, err := run(ctx, cfg, opts)
					if err != nil {
						return err
					}
					return helpers.WriteJSON(c.OutOrStdout(), res)
				},
				Text: func(ctx context.Context, c *cobra.Command, cfg *config.Config, _ []string) error {
					res, err := run(ctx, cfg, opts)
					if err != nil {
						return err
					}
					writeText(c.OutOrStdout(), res)
					return nil
				},
			}, args)
		},
	}
	c.Flags().StringVar(&opts.file, "file", "", "catalog file (defaults to the configured or bundled catalog)")
	c.Flags().BoolVar(&opts.reembed, "reembed", false, "re-embed stored passages instead of loading a file")
	c.Flags().IntVar(&opts.concurrency, "concurrency", 0, "embedding batches in flight")
	c.Flags().Int("batch-size", 0, "passages per embedding request")
	cmd.BindConfigFlag(c, "batch-size", "embedding.batch_size")
	return c
}

func run(ctx context.Context, cfg *config.Config, opts *options) (*ingest.Result, error) {
	emb, err := embedder.New(embedder.FromAppConfig(&cfg.Embedding))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	store, err := vectordb.New(ctx, vectordb.FromAppConfig(&cfg.Database, emb.Dimension()))
	if err != nil {
		return nil, fmt.Errorf("failed to open passage store: %w", err)
	}
	defer func() {
		if err := store.Close(context.WithoutCancel(ctx)); err != nil {
			logger.FromContext(ctx).Warn("Failed to close passage store", "error", err)
		}
	}()
	ingestOpts := &ingest.Options{BatchSize: cfg.Embedding.BatchSize, Concurrency: opts.concurrency}
	if opts.reembed {
		return ingest.Reembed(ctx, emb, store, ingestOpts)
	}
	file := opts.file
	if file == "" {
		file = cfg.Retrieval.CatalogPath
	}
	if cfg.Database.ConnString.IsEmpty() {
		logger.FromContext(ctx).Warn("No database configured; passages are embedded into a throwaway in-process store")
	}
	return ingest.SeedFile(ctx, opts.fs, file, emb, store, ingestOpts)
}

func writeText(w io.Writer, res *ingest.Result) {
	helpers.Title(w, "Seed complete")
	if res.Source != "" {
		helpers.Field(w, "source", res.Source, labelWidth)
	}
	helpers.Field(w, "passages", res.Passages, labelWidth)
	helpers.Field(w, "stored", res.Stored, labelWidth)
	helpers.Field(w, "duration", res.Duration.Round(1e6), labelWidth)
}
