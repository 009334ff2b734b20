package seed

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitacompanion/companion/cli/cmd"
	"github.com/gitacompanion/companion/engine/knowledge/ingest"
	"github.com/gitacompanion/companion/pkg/config"
)

const catalog = `[
	{"chapter": 2, "verse": 47, "translation": "duty", "tags": ["duty"]},
	{"chapter": 6, "verse": 35, "translation": "mind", "tags": ["mind"]}
]`

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Embedding.Dimension = 16
	return cfg
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("Should seed the given catalog", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "verses.json", []byte(catalog), 0o644))
		res, err := run(ctx, testConfig(), &options{file: "verses.json", fs: fs})
		require.NoError(t, err)
		assert.Equal(t, "verses.json", res.Source)
		assert.Equal(t, 2, res.Passages)
		assert.Equal(t, 2, res.Stored)
	})

	t.Run("Should fall back to the configured catalog path", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/srv/catalog.json", []byte(catalog), 0o644))
		cfg := testConfig()
		cfg.Retrieval.CatalogPath = "/srv/catalog.json"
		res, err := run(ctx, cfg, &options{fs: fs})
		require.NoError(t, err)
		assert.Equal(t, "/srv/catalog.json", res.Source)
	})

	t.Run("Should report a missing catalog", func(t *testing.T) {
		_, err := run(ctx, testConfig(), &options{file: "nope.json", fs: afero.NewMemMapFs()})
		assert.Error(t, err)
	})
}

func TestWriteText(t *testing.T) {
	t.Run("Should print the seed summary", func(t *testing.T) {
		var out bytes.Buffer
		writeText(&out, &ingest.Result{Source: "verses.json", Passages: 2, Stored: 2, Duration: 1500 * time.Millisecond})
		assert.Contains(t, out.String(), "Seed complete")
		assert.Contains(t, out.String(), "verses.json")
		assert.Contains(t, out.String(), "1.5s")
	})
}

func TestNewCommand(t *testing.T) {
	t.Run("Should bind batch size to the embedding config", func(t *testing.T) {
		c := NewCommand()
		require.NoError(t, c.Flags().Set("batch-size", "8"))
		assert.Equal(t, map[string]any{"embedding.batch_size": "8"}, cmd.FlagOverrides(c))
	})
}
