package status

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitacompanion/companion/cli/helpers"
	"github.com/gitacompanion/companion/engine/infra/sqlite"
	"github.com/gitacompanion/companion/engine/llm/orchestrator"
	"github.com/gitacompanion/companion/pkg/config"
)

func seedDecisions(t *testing.T, path string, decisions ...orchestrator.Decision) {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.NewStore(ctx, &sqlite.Config{Path: path})
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close(ctx)) }()
	repo := sqlite.NewDecisionRepo(store.DB())
	for _, d := range decisions {
		require.NoError(t, repo.Record(ctx, d))
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("Should summarize recorded decisions", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "decisions.db")
		seedDecisions(t, path,
			orchestrator.Decision{TS: 1, Endpoint: "ask", RoutedTo: "claude", ModelUsed: "claude", ResponseTimeMS: 100, Success: true},
			orchestrator.Decision{TS: 2, Endpoint: "ask", RoutedTo: "claude", ModelUsed: "mock", ResponseTimeMS: 5, Success: true},
			orchestrator.Decision{TS: 3, Endpoint: "chat", RoutedTo: "claude", ModelUsed: "claude", ResponseTimeMS: 300, Success: true},
		)
		report, err := run(ctx, config.Default(), &options{db: path, recent: 2})
		require.NoError(t, err)
		require.Len(t, report.Backends, 2)
		assert.Equal(t, "claude", report.Backends[0].Model)
		assert.Equal(t, 2, report.Backends[0].Total)
		require.Len(t, report.Recent, 2)
		assert.Equal(t, "chat", report.Recent[0].Endpoint)
	})

	t.Run("Should use the configured database", func(t *testing.T) {
		cfg := config.Default()
		cfg.LLM.DecisionDB = filepath.Join(t.TempDir(), "decisions.db")
		report, err := run(ctx, cfg, &options{})
		require.NoError(t, err)
		assert.Empty(t, report.Backends)
		assert.Equal(t, cfg.LLM.DecisionDB, report.Database)
	})

	t.Run("Should require a database path", func(t *testing.T) {
		cfg := config.Default()
		cfg.LLM.DecisionDB = ""
		_, err := run(ctx, cfg, &options{})
		var cliErr *helpers.CliError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, "NO_DECISION_DB", cliErr.Code)
	})
}

func TestWriteText(t *testing.T) {
	t.Run("Should render success rates", func(t *testing.T) {
		var out bytes.Buffer
		writeText(&out, &Report{
			Database: "d.db",
			Backends: []sqlite.BackendSummary{{Model: "gemini", Total: 4, Successes: 3, AvgResponseMS: 250}},
			Recent:   []orchestrator.Decision{{TS: 1, Endpoint: "ask", RoutedTo: "gemini", ModelUsed: "gemini", Success: false}},
		})
		assert.Contains(t, out.String(), "75.0% ok")
		assert.Contains(t, out.String(), "250ms")
		assert.Contains(t, out.String(), "failed")
	})

	t.Run("Should note an empty history", func(t *testing.T) {
		var out bytes.Buffer
		writeText(&out, &Report{Database: "d.db"})
		assert.Contains(t, out.String(), "no decisions recorded in d.db")
	})
}
