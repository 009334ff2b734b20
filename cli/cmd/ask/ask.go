// Package ask answers one question from the terminal using the same
// pipeline the HTTP server runs.
package ask

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/gitacompanion/companion/cli/cmd"
	"github.com/gitacompanion/companion/cli/helpers"
	"github.com/gitacompanion/companion/engine/guidance"
	"github.com/gitacompanion/companion/engine/infra/server"
	llmadapter "github.com/gitacompanion/companion/engine/llm/adapter"
	"github.com/gitacompanion/companion/pkg/config"
)

const labelWidth = 12

type options struct {
	mode     string
	language string
	fs       afero.Fs
}

func NewCommand() *cobra.Command {
	opts := &options{fs: afero.NewOsFs()}
	c := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask for verse-grounded guidance",
		Example: `  gita-companion ask "How do I stop worrying about results?"
  gita-companion ask --mode comfort --format json "I feel lost"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ModeHandlers{
				JSON: func(ctx context.Context, c *cobra.Command, cfg *config.Config, args []string) error {
					resp, err := run(ctx, cfg, opts, strings.Join(args, " "))
					if err != nil {
						return err
					}
					return helpers.WriteJSON(c.OutOrStdout(), resp)
				},
				Text: func(ctx context.Context, c *cobra.Command, cfg *config.Config, args []string) error {
					resp, err := run(ctx, cfg, opts, strings.Join(args, " "))
					if err != nil {
						return err
					}
					writeText(c.OutOrStdout(), resp)
					return nil
				},
			}, args)
		},
	}
	c.Flags().StringVar(&opts.mode, "mode", "", "answer style (comfort, clarity, traditional)")
	c.Flags().StringVar(&opts.language, "language", "", "answer language code")
	c.Flags().Bool("mock", false, "answer with the offline mock backend only")
	c.Flags().String("catalog", "", "verse catalog file")
	cmd.BindConfigFlag(c, "mock", "llm.use_mock")
	cmd.BindConfigFlag(c, "catalog", "retrieval.catalog_path")
	return c
}

func run(ctx context.Context, cfg *config.Config, opts *options, question string) (*guidance.GuidanceResponse, error) {
	deps, err := server.BuildDependencies(ctx, cfg, opts.fs)
	if err != nil {
		return nil, err
	}
	defer deps.Close(context.WithoutCancel(ctx))
	return deps.Guidance.Ask(ctx, &guidance.AskRequest{
		Question: question,
		Mode:     llmadapter.Mode(opts.mode),
		Language: opts.language,
	})
}

func writeText(w io.Writer, resp *guidance.GuidanceResponse) {
	helpers.Title(w, resp.GuidanceShort)
	for i := range resp.Verses {
		v := &resp.Verses[i]
		fmt.Fprintf(w, "\n%s  %s\n", v.Ref, v.Translation)
		if v.WhyThis != "" {
			helpers.Muted(w, "  "+v.WhyThis)
		}
	}
	if resp.GuidanceLong != "" {
		fmt.Fprintf(w, "\n%s\n", resp.GuidanceLong)
	}
	if mp := resp.MicroPractice; mp.Title != "" {
		fmt.Fprintf(w, "\n%s (%d min)\n", mp.Title, mp.DurationMinutes)
		for i, step := range mp.Steps {
			fmt.Fprintf(w, "  %d. %s\n", i+1, step)
		}
	}
	if resp.ReflectionPrompt != "" {
		fmt.Fprintln(w)
		helpers.Field(w, "reflect", resp.ReflectionPrompt, labelWidth)
	}
	fmt.Fprintln(w)
	helpers.Field(w, "model", resp.ModelUsed, labelWidth)
	helpers.Field(w, "verification", resp.VerificationLevel, labelWidth)
}
