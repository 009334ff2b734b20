package ask

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitacompanion/companion/cli/cmd"
	"github.com/gitacompanion/companion/engine/guidance"
	llmadapter "github.com/gitacompanion/companion/engine/llm/adapter"
	"github.com/gitacompanion/companion/engine/verification"
	"github.com/gitacompanion/companion/pkg/config"
)

const catalog = `[
	{"id": 1, "chapter": 2, "verse": 47, "translation": "You have a right to your duty, not to the fruits of action.",
	 "tags": ["duty", "action", "results"]},
	{"id": 2, "chapter": 6, "verse": 35, "translation": "The restless mind is controlled by practice.",
	 "tags": ["mind", "anxiety"]}
]`

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Monitoring.Enabled = false
	cfg.LLM.UseMock = true
	cfg.LLM.DecisionLog = ""
	cfg.LLM.DecisionDB = ""
	cfg.Embedding.Dimension = 32
	cfg.Retrieval.CatalogPath = "/data/verses.json"
	return cfg
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("Should answer through the mock backend", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/data/verses.json", []byte(catalog), 0o644))
		resp, err := run(ctx, testConfig(), &options{fs: fs}, "I worry about the results of my work")
		require.NoError(t, err)
		assert.Equal(t, "mock", resp.ModelUsed)
		assert.NotEmpty(t, resp.Verses)
		assert.Equal(t, llmadapter.ModeClarity, resp.Mode)
	})

	t.Run("Should reject an empty question", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/data/verses.json", []byte(catalog), 0o644))
		_, err := run(ctx, testConfig(), &options{fs: fs}, "   ")
		assert.ErrorIs(t, err, guidance.ErrInvalidQuery)
	})

	t.Run("Should report missing grounding on an empty corpus", func(t *testing.T) {
		_, err := run(ctx, testConfig(), &options{fs: afero.NewMemMapFs()}, "what is duty")
		assert.ErrorIs(t, err, guidance.ErrNoGrounding)
	})
}

func TestWriteText(t *testing.T) {
	t.Run("Should render verses and practice", func(t *testing.T) {
		resp := &guidance.GuidanceResponse{
			GuidanceResult: llmadapter.GuidanceResult{
				GuidanceShort: "Act without clinging.",
				Verses:        []llmadapter.Citation{{Ref: "2.47", Translation: "Your right is to action."}},
				MicroPractice: llmadapter.MicroPractice{Title: "Pause", Steps: []string{"Breathe"}, DurationMinutes: 2},
			},
			Verified: guidance.Verified{ModelUsed: "mock", VerificationLevel: verification.LevelReviewed},
		}
		var out bytes.Buffer
		writeText(&out, resp)
		assert.Contains(t, out.String(), "2.47")
		assert.Contains(t, out.String(), "1. Breathe")
		assert.Contains(t, out.String(), "mock")
	})
}

func TestNewCommand(t *testing.T) {
	t.Run("Should bind mock and catalog flags to configuration", func(t *testing.T) {
		c := NewCommand()
		require.NoError(t, c.Flags().Set("mock", "true"))
		require.NoError(t, c.Flags().Set("catalog", "verses.json"))
		assert.Equal(t, map[string]any{
			"llm.use_mock":           "true",
			"retrieval.catalog_path": "verses.json",
		}, cmd.FlagOverrides(c))
	})
}
