// Package serve starts the HTTP API.
package serve

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/gitacompanion/companion/cli/cmd"
	"github.com/gitacompanion/companion/engine/infra/server"
	"github.com/gitacompanion/companion/pkg/config"
	"github.com/gitacompanion/companion/pkg/logger"
)

const (
	productionEnvironment = "production"
	portProbeTimeout      = time.Second
)

func NewCommand() *cobra.Command {
	c := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the guidance API server",
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ModeHandlers{JSON: run}, args)
		},
	}
	c.Flags().String("host", "", "interface to bind")
	c.Flags().Int("port", 0, "port to listen on")
	c.Flags().Bool("mock", false, "answer with the offline mock backend only")
	cmd.BindConfigFlag(c, "host", "server.host")
	cmd.BindConfigFlag(c, "port", "server.port")
	cmd.BindConfigFlag(c, "mock", "llm.use_mock")
	return c
}

func run(ctx context.Context, _ *cobra.Command, cfg *config.Config, _ []string) error {
	log := logger.FromContext(ctx)
	if cfg.Runtime.Environment == productionEnvironment {
		gin.SetMode(gin.ReleaseMode)
		logProductionWarnings(ctx, cfg)
	}
	if !portAvailable(ctx, cfg.Server.Host, cfg.Server.Port) {
		return fmt.Errorf("port %d is not available on host %s", cfg.Server.Port, cfg.Server.Host)
	}
	log.Info("Starting Gita Companion server", "environment", cfg.Runtime.Environment, "mock_mode", cfg.LLM.UseMock)
	srv, err := server.NewServer(ctx, config.ManagerFromContext(ctx), afero.NewOsFs())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Run()
}

func logProductionWarnings(ctx context.Context, cfg *config.Config) {
	log := logger.FromContext(ctx)
	if cfg.Server.APIKey.IsEmpty() {
		log.Warn("No client API key configured; the API is open to every caller")
	}
	if cfg.LLM.UseMock {
		log.Warn("Mock mode is enabled in production; answers will not come from a real model")
	}
}

func portAvailable(ctx context.Context, host string, port int) bool {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	lc := net.ListenConfig{}
	probeCtx, cancel := context.WithTimeout(ctx, portProbeTimeout)
	defer cancel()
	ln, err := lc.Listen(probeCtx, "tcp", addr)
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}
