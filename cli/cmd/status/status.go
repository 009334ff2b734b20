// Package status reports backend routing history from the decision database.
package status

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitacompanion/companion/cli/cmd"
	"github.com/gitacompanion/companion/cli/helpers"
	"github.com/gitacompanion/companion/engine/infra/sqlite"
	"github.com/gitacompanion/companion/engine/llm/orchestrator"
	"github.com/gitacompanion/companion/pkg/config"
)

const defaultRecent = 10

// Report is the rendered status output.
type Report struct {
	Database string                  `json:"database"`
	Backends []sqlite.BackendSummary `json:"backends"`
	Recent   []orchestrator.Decision `json:"recent"`
}

type options struct {
	db     string
	recent int
}

func NewCommand() *cobra.Command {
	opts := &options{}
	c := &cobra.Command{
		Use:   "status",
		Short: "Show backend success rates and recent routing decisions",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ModeHandlers{
				JSON: func(ctx context.Context, c *cobra.Command, cfg *config.Config, _ []string) error {
					report, err := run(ctx, cfg, opts)
					if err != nil {
						return err
					}
					return helpers.WriteJSON(c.OutOrStdout(), report)
				},
				Text: func(ctx context.Context, c *cobra.Command, cfg *config.Config, _ []string) error {
					report, err := run(ctx, cfg, opts)
					if err != nil {
						return err
					}
					writeText(c.OutOrStdout(), report)
					return nil
				},
			}, args)
		},
	}
	c.Flags().StringVar(&opts.db, "db", "", "decision database (defaults to llm.decision_db)")
	c.Flags().IntVar(&opts.recent, "recent", defaultRecent, "number of recent decisions to show")
	return c
}

func run(ctx context.Context, cfg *config.Config, opts *options) (*Report, error) {
	path := opts.db
	if path == "" {
		path = cfg.LLM.DecisionDB
	}
	if path == "" {
		return nil, helpers.NewCliError("NO_DECISION_DB", "No decision database configured",
			"set llm.decision_db or pass --db")
	}
	store, err := sqlite.NewStore(ctx, &sqlite.Config{Path: path})
	if err != nil {
		return nil, fmt.Errorf("failed to open decision database: %w", err)
	}
	defer func() { _ = store.Close(ctx) }()
	repo := sqlite.NewDecisionRepo(store.DB())
	summary, err := repo.Summary(ctx)
	if err != nil {
		return nil, err
	}
	report := &Report{Database: path, Backends: summary, Recent: []orchestrator.Decision{}}
	if opts.recent > 0 {
		recent, err := repo.Recent(ctx, opts.recent)
		if err != nil {
			return nil, err
		}
		report.Recent = recent
	}
	return report, nil
}

func writeText(w io.Writer, r *Report) {
	helpers.Title(w, "Backends")
	if len(r.Backends) == 0 {
		helpers.Muted(w, "no decisions recorded in "+r.Database)
		return
	}
	for i := range r.Backends {
		b := &r.Backends[i]
		rate := 0.0
		if b.Total > 0 {
			rate = float64(b.Successes) / float64(b.Total) * 100
		}
		fmt.Fprintf(w, "  %-10s %4d calls  %5.1f%% ok  avg %s\n",
			b.Model, b.Total, rate, time.Duration(b.AvgResponseMS*float64(time.Millisecond)).Round(time.Millisecond))
	}
	if len(r.Recent) == 0 {
		return
	}
	fmt.Fprintln(w)
	helpers.Title(w, "Recent decisions")
	for i := range r.Recent {
		d := &r.Recent[i]
		outcome := "ok"
		if !d.Success {
			outcome = "failed"
		}
		fmt.Fprintf(w, "  %s  %-8s %-8s -> %-8s %6s  %s\n",
			d.Time().Format(time.DateTime), d.Endpoint, d.RoutedTo, d.ModelUsed, outcome,
			strconv.Quote(d.QueryPreview))
	}
}
