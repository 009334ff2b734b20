package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/gitacompanion/companion/pkg/config"
	"github.com/gitacompanion/companion/pkg/logger"
)

const (
	serverShutdownTimeout = 5 * time.Second
	httpReadTimeout       = 15 * time.Second
	httpIdleTimeout       = 60 * time.Second
	writeTimeoutMargin    = 5 * time.Second
)

type Server struct {
	ctx        context.Context
	cancel     context.CancelFunc
	deps       *Dependencies
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer builds the dependency graph and router for the configuration
// held by manager.
func NewServer(ctx context.Context, manager *config.Manager, fs afero.Fs) (*Server, error) {
	if manager == nil {
		return nil, errors.New("server: config manager is required")
	}
	serverCtx, cancel := context.WithCancel(ctx)
	cfg := manager.Get()
	deps, err := BuildDependencies(serverCtx, cfg, fs)
	if err != nil {
		cancel()
		return nil, err
	}
	deps.WatchConfig(serverCtx, manager)
	r, err := NewRouter(serverCtx, deps)
	if err != nil {
		deps.Close(serverCtx)
		cancel()
		return nil, fmt.Errorf("failed to build router: %w", err)
	}
	return &Server{
		ctx:    serverCtx,
		cancel: cancel,
		deps:   deps,
		router: r,
	}, nil
}

func (s *Server) Router() *gin.Engine { return s.router }

func (s *Server) Dependencies() *Dependencies { return s.deps }

// Run serves until ctx is done or SIGINT/SIGTERM arrives, then shuts down
// gracefully and releases dependencies.
func (s *Server) Run() error {
	defer s.deps.Close(context.WithoutCancel(s.ctx))
	defer s.cancel()
	cfg := s.deps.Config
	srv := s.createHTTPServer(cfg)
	s.httpServer = srv
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	metricsPath := ""
	if s.deps.Monitoring.IsInitialized() {
		metricsPath = s.deps.Monitoring.Path()
	}
	logStartupBanner(s.ctx, cfg.Server.Host, cfg.Server.Port, metricsPath)
	return s.handleGracefulShutdown(srv, errCh)
}

func (s *Server) createHTTPServer(cfg *config.Config) *http.Server {
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	logger.FromContext(s.ctx).Info("Starting HTTP server", "address", fmt.Sprintf("http://%s", addr))
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: httpReadTimeout,
		ReadTimeout:       httpReadTimeout,
		WriteTimeout:      cfg.Server.Timeout + writeTimeoutMargin,
		IdleTimeout:       httpIdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return s.ctx },
	}
}

func (s *Server) handleGracefulShutdown(srv *http.Server, errCh <-chan error) error {
	log := logger.FromContext(s.ctx)
	sigCtx, stop := signal.NotifyContext(s.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}
	log.Debug("Received shutdown signal, initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), serverShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("Server shutdown completed successfully")
	return nil
}
