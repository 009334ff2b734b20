// Package cli wires the cobra command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gitacompanion/companion/cli/cmd"
	"github.com/gitacompanion/companion/cli/cmd/ask"
	configcmd "github.com/gitacompanion/companion/cli/cmd/config"
	"github.com/gitacompanion/companion/cli/cmd/seed"
	"github.com/gitacompanion/companion/cli/cmd/serve"
	"github.com/gitacompanion/companion/cli/cmd/status"
	"github.com/gitacompanion/companion/cli/helpers"
	"github.com/gitacompanion/companion/pkg/config"
	"github.com/gitacompanion/companion/pkg/logger"
	"github.com/gitacompanion/companion/pkg/version"
)

const (
	defaultConfigFile = "companion.yaml"
	defaultEnvFile    = ".env"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "gita-companion",
		Short:             "Grounded Bhagavad Gita guidance service",
		Version:           version.Get().Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupRuntime,
		PersistentPostRunE: func(c *cobra.Command, _ []string) error {
			return config.ManagerFromContext(c.Context()).Close(c.Context())
		},
	}
	root.PersistentFlags().String("config", defaultConfigFile, "path to the YAML configuration file")
	root.PersistentFlags().String("env-file", defaultEnvFile, "path to an environment file loaded before configuration")
	root.PersistentFlags().String(helpers.FlagFormat, string(helpers.ModeText), "output format (text, json)")
	logger.AddFlags(root)
	root.AddCommand(
		serve.NewCommand(),
		seed.NewCommand(),
		ask.NewCommand(),
		status.NewCommand(),
		configcmd.NewCommand(),
	)
	return root
}

// setupRuntime loads the env file and configuration, then installs the
// logger and config manager on the command context.
func setupRuntime(c *cobra.Command, _ []string) error {
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	envFile, err := c.Flags().GetString("env-file")
	if err != nil {
		return err
	}
	if err := loadEnvFile(envFile); err != nil {
		return err
	}
	manager, err := loadConfig(ctx, c)
	if err != nil {
		return cmd.HandleCommonErrors(c, err, helpers.DetectMode(c))
	}
	level, logJSON, logSource, err := logger.GetLoggerConfig(c)
	if err != nil {
		return err
	}
	if !c.Flags().Changed("log-level") {
		level = manager.Get().Runtime.LogLevel
	}
	log := logger.SetupLogger(level, logJSON, logSource)
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithManager(ctx, manager)
	c.SetContext(ctx)
	return nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func loadConfig(ctx context.Context, c *cobra.Command) (*config.Manager, error) {
	configFile, err := c.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	sources := make([]config.Source, 0, 2)
	if configFile != "" {
		if _, statErr := os.Stat(configFile); statErr == nil || c.Flags().Changed("config") {
			sources = append(sources, config.NewYAMLProvider(configFile))
		}
	}
	if overrides := cmd.FlagOverrides(c); len(overrides) > 0 {
		sources = append(sources, config.NewCLIProvider(overrides))
	}
	manager := config.NewManager(config.NewService())
	if _, err := manager.Load(ctx, sources...); err != nil {
		return nil, err
	}
	return manager, nil
}
