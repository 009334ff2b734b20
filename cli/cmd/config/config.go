// Package config implements the configuration inspection commands.
package config

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/gitacompanion/companion/cli/cmd"
	"github.com/gitacompanion/companion/cli/helpers"
	appconfig "github.com/gitacompanion/companion/pkg/config"
)

const labelWidth = 28

func NewCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "config",
		Short: "Configuration inspection",
	}
	root.AddCommand(showCommand(), validateCommand())
	return root
}

func showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ModeHandlers{JSON: showJSON, Text: showText}, args)
		},
	}
}

func validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ModeHandlers{
				JSON: func(_ context.Context, c *cobra.Command, _ *appconfig.Config, _ []string) error {
					return helpers.WriteJSON(c.OutOrStdout(), map[string]any{"valid": true})
				},
				Text: func(_ context.Context, c *cobra.Command, _ *appconfig.Config, _ []string) error {
					fmt.Fprintln(c.OutOrStdout(), "✓ configuration is valid")
					return nil
				},
			}, args)
		},
	}
}

// flatten exposes the configuration under its koanf keys. Sensitive values
// keep their type so they render redacted.
func flatten(cfg *appconfig.Config) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return k, nil
}

func showJSON(_ context.Context, c *cobra.Command, cfg *appconfig.Config, _ []string) error {
	k, err := flatten(cfg)
	if err != nil {
		return err
	}
	return helpers.WriteJSON(c.OutOrStdout(), k.Raw())
}

func showText(_ context.Context, c *cobra.Command, cfg *appconfig.Config, _ []string) error {
	k, err := flatten(cfg)
	if err != nil {
		return err
	}
	w := c.OutOrStdout()
	helpers.Title(w, "Configuration")
	for _, key := range k.Keys() {
		helpers.Field(w, key, k.Get(key), labelWidth)
	}
	return nil
}
