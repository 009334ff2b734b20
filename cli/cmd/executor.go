// Package cmd holds the shared plumbing for CLI subcommands.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gitacompanion/companion/cli/helpers"
	"github.com/gitacompanion/companion/engine/guidance"
	"github.com/gitacompanion/companion/engine/llm/orchestrator"
	"github.com/gitacompanion/companion/engine/passage"
	"github.com/gitacompanion/companion/pkg/config"
)

// configKeyAnnotation marks flags that override a configuration key.
const configKeyAnnotation = "config_key"

// HandlerFunc defines the signature for command handlers.
type HandlerFunc func(ctx context.Context, cmd *cobra.Command, cfg *config.Config, args []string) error

// ModeHandlers contains handlers for different output modes. A nil Text
// handler falls back to JSON.
type ModeHandlers struct {
	JSON HandlerFunc
	Text HandlerFunc
}

// ExecuteCommand resolves the configuration and runs the handler for the
// detected mode, rendering any error consistently.
func ExecuteCommand(cmd *cobra.Command, handlers ModeHandlers, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	mode := helpers.DetectMode(cmd)
	cfg := config.FromContext(ctx)
	handler := handlers.JSON
	if mode == helpers.ModeText && handlers.Text != nil {
		handler = handlers.Text
	}
	if handler == nil {
		return HandleCommonErrors(cmd, fmt.Errorf("%s output is not supported by %s", mode, cmd.Name()), mode)
	}
	return HandleCommonErrors(cmd, handler(ctx, cmd, cfg, args), mode)
}

// HandleCommonErrors provides consistent error handling across all commands.
func HandleCommonErrors(cmd *cobra.Command, err error, mode helpers.Mode) error {
	if err == nil {
		return nil
	}
	if cliErr := categorizeError(err); cliErr != nil {
		err = cliErr
	}
	helpers.OutputError(cmd.ErrOrStderr(), err, mode)
	return err
}

func categorizeError(err error) *helpers.CliError {
	var cliErr *helpers.CliError
	switch {
	case errors.As(err, &cliErr):
		return cliErr
	case errors.Is(err, context.Canceled):
		return helpers.NewCliError("OPERATION_CANCELED", "Operation was canceled by user").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return helpers.NewCliError("OPERATION_TIMEOUT", "Operation timed out").WithCause(err)
	case errors.Is(err, guidance.ErrInvalidQuery):
		return helpers.NewCliError("INVALID_INPUT", "Invalid input", err.Error()).WithCause(err)
	case errors.Is(err, guidance.ErrNoGrounding):
		return helpers.NewCliError("NO_GROUNDING", "No verses found", "seed the catalog or rephrase").WithCause(err)
	case errors.Is(err, orchestrator.ErrAllBackendsFailed), errors.Is(err, orchestrator.ErrNoBackends):
		return helpers.NewCliError("ALL_BACKENDS_FAILED", "No backend could answer", err.Error()).WithCause(err)
	case errors.Is(err, passage.ErrCatalogNotFound):
		return helpers.NewCliError("CATALOG_NOT_FOUND", "Verse catalog not found", err.Error()).WithCause(err)
	default:
		return nil
	}
}

// BindConfigFlag makes flag name override configuration key when set.
func BindConfigFlag(cmd *cobra.Command, name, key string) {
	if err := cmd.Flags().SetAnnotation(name, configKeyAnnotation, []string{key}); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}

// FlagOverrides collects the configuration keys of every changed bound flag.
func FlagOverrides(cmd *cobra.Command) map[string]any {
	out := make(map[string]any)
	visit := func(f *pflag.Flag) {
		if keys, ok := f.Annotations[configKeyAnnotation]; ok && len(keys) > 0 {
			out[keys[0]] = f.Value.String()
		}
	}
	cmd.Flags().Visit(visit)
	cmd.InheritedFlags().Visit(visit)
	return out
}
