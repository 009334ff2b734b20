package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	"github.com/gitacompanion/companion/engine/guidance"
	"github.com/gitacompanion/companion/engine/infra/cache"
	"github.com/gitacompanion/companion/engine/infra/monitoring"
	"github.com/gitacompanion/companion/engine/infra/sqlite"
	"github.com/gitacompanion/companion/engine/knowledge/embedder"
	"github.com/gitacompanion/companion/engine/knowledge/ingest"
	"github.com/gitacompanion/companion/engine/knowledge/retriever"
	"github.com/gitacompanion/companion/engine/knowledge/vectordb"
	llmadapter "github.com/gitacompanion/companion/engine/llm/adapter"
	"github.com/gitacompanion/companion/engine/llm/orchestrator"
	"github.com/gitacompanion/companion/engine/passage"
	"github.com/gitacompanion/companion/pkg/config"
	"github.com/gitacompanion/companion/pkg/logger"
)

const (
	cacheBackendRedis      = "redis"
	driverNone             = "none"
	defaultCleanupTimeout  = 10 * time.Second
	monitoringShutdownWait = 5 * time.Second
)

// Dependencies holds every long-lived component behind the guidance API.
// Close releases them in reverse construction order.
type Dependencies struct {
	Config       *config.Config
	Monitoring   *monitoring.Service
	Redis        *redis.Client
	Embedder     embedder.Embedder
	Store        vectordb.Store
	Orchestrator *orchestrator.Orchestrator
	Decisions    *sqlite.DecisionRepo
	Favorites    *sqlite.FavoriteRepo
	Guidance     *guidance.Service

	fs             afero.Fs
	cleanups       []func()
	cacheDriver    string
	decisionDriver string
	catalogPath    string
	catalogMissing bool
}

// BuildDependencies wires the service graph from cfg. Optional pieces such
// as Redis, the catalog file and the decision database degrade with a
// warning instead of failing startup.
func BuildDependencies(ctx context.Context, cfg *config.Config, fs afero.Fs) (*Dependencies, error) {
	if cfg == nil {
		return nil, errors.New("server: config is required")
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	start := time.Now()
	d := &Dependencies{Config: cfg, fs: fs, cacheDriver: driverNone, decisionDriver: driverNone}
	steps := []func(context.Context) error{
		d.setupMonitoring,
		d.setupRedis,
		d.setupKnowledge,
		d.setupOrchestrator,
		d.setupFavorites,
		d.setupGuidance,
		d.setupCatalogWatch,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			d.Close(ctx)
			return nil, err
		}
	}
	d.emitStartupSummary(ctx, time.Since(start))
	return d, nil
}

func (d *Dependencies) setupMonitoring(ctx context.Context) error {
	svc := monitoring.NewMonitoringServiceWithFallback(ctx, monitoring.FromAppConfig(&d.Config.Monitoring))
	d.Monitoring = svc
	if !svc.IsInitialized() {
		return nil
	}
	svc.SetAsGlobal()
	d.appendCleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), monitoringShutdownWait)
		defer cancel()
		if err := svc.Shutdown(shutdownCtx); err != nil {
			logger.FromContext(ctx).Error("Failed to shutdown monitoring service", "error", err)
		}
	})
	return nil
}

func (d *Dependencies) setupRedis(ctx context.Context) error {
	url := d.Config.Redis.URL.Value()
	if url == "" {
		return nil
	}
	client, err := cache.NewRedisClient(ctx, url)
	if err != nil {
		logger.FromContext(ctx).Warn("Redis unavailable, continuing with in-process cache and limiter", "error", err)
		return nil
	}
	d.Redis = client
	d.appendCleanup(func() {
		if err := client.Close(); err != nil {
			logger.FromContext(ctx).Error("Failed to close Redis client", "error", err)
		}
	})
	return nil
}

func (d *Dependencies) setupKnowledge(ctx context.Context) error {
	d.Embedder = embedder.NewWithFallback(ctx, embedder.FromAppConfig(&d.Config.Embedding))
	store, err := vectordb.New(ctx, vectordb.FromAppConfig(&d.Config.Database, d.Embedder.Dimension()))
	if err != nil {
		return fmt.Errorf("failed to initialize passage store: %w", err)
	}
	d.Store = store
	d.appendCleanup(func() {
		if err := store.Close(context.WithoutCancel(ctx)); err != nil {
			logger.FromContext(ctx).Error("Failed to close passage store", "error", err)
		}
	})
	return d.seedCatalog(ctx)
}

// seedCatalog fills an empty store from the catalog file and remembers
// which file was used for setupCatalogWatch.
func (d *Dependencies) seedCatalog(ctx context.Context) error {
	log := logger.FromContext(ctx)
	count, err := d.Store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count stored passages: %w", err)
	}
	path := d.Config.Retrieval.CatalogPath
	if count == 0 {
		res, err := ingest.SeedFile(ctx, d.fs, path, d.Embedder, d.Store, d.ingestOptions())
		switch {
		case errors.Is(err, passage.ErrCatalogNotFound):
			log.Warn("No verse catalog found, starting with an empty corpus", "path", path)
			d.catalogMissing = true
			return nil
		case err != nil:
			return fmt.Errorf("failed to seed verse catalog: %w", err)
		}
		path = res.Source
	} else {
		log.Info("Passage store already populated", "passages", count)
	}
	d.catalogPath = path
	return nil
}

// setupCatalogWatch reloads the in-process store when the catalog file
// changes and drops the guidance memos built from the old content.
func (d *Dependencies) setupCatalogWatch(ctx context.Context) error {
	if !d.Config.Retrieval.WatchCatalog || d.catalogMissing {
		return nil
	}
	log := logger.FromContext(ctx)
	mem, ok := d.Store.(*vectordb.MemoryStore)
	if !ok {
		log.Warn("Catalog watching only applies to the in-process store")
		return nil
	}
	resolved, err := passage.ResolveCatalogPath(d.fs, d.catalogPath)
	if err != nil {
		log.Warn("Catalog watch skipped", "error", err)
		return nil
	}
	watcher, err := passage.WatchCatalog(ctx, d.fs, resolved, func(passages []passage.Passage) {
		d.reloadCatalog(ctx, mem, passages)
	})
	if err != nil {
		log.Warn("Catalog watch unavailable", "error", err)
		return nil
	}
	d.appendCleanup(func() { _ = watcher.Close() })
	return nil
}

func (d *Dependencies) reloadCatalog(ctx context.Context, mem *vectordb.MemoryStore, passages []passage.Passage) {
	log := logger.FromContext(ctx)
	if err := ingest.Embed(ctx, d.Embedder, passages, d.ingestOptions()); err != nil {
		log.Warn("Catalog reload not embedded", "error", err)
		return
	}
	if err := mem.Replace(passages); err != nil {
		log.Warn("Catalog reload rejected", "error", err)
		return
	}
	d.Guidance.InvalidateCatalog(ctx)
}

func (d *Dependencies) ingestOptions() *ingest.Options {
	return &ingest.Options{BatchSize: d.Config.Embedding.BatchSize}
}

func (d *Dependencies) setupOrchestrator(ctx context.Context) error {
	regs, err := llmadapter.BuildRegistries(ctx, d.Config)
	if err != nil {
		return fmt.Errorf("failed to build backend registries: %w", err)
	}
	sinks := orchestrator.MultiSink{orchestrator.MetricsSink{}}
	if path := d.Config.LLM.DecisionLog; path != "" {
		sinks = append(sinks, orchestrator.NewFileSink(path))
	}
	if path := d.Config.LLM.DecisionDB; path != "" {
		db, err := sqlite.NewStore(ctx, &sqlite.Config{Path: path})
		if err != nil {
			logger.FromContext(ctx).Warn("Decision database unavailable", "path", path, "error", err)
		} else {
			d.Decisions = sqlite.NewDecisionRepo(db.DB())
			d.decisionDriver = "sqlite"
			sinks = append(sinks, d.Decisions)
			d.appendCleanup(func() {
				if err := db.Close(context.WithoutCancel(ctx)); err != nil {
					logger.FromContext(ctx).Error("Failed to close decision database", "error", err)
				}
			})
		}
	}
	orch, err := orchestrator.New(regs, &orchestrator.Config{
		DefaultBackend: d.Config.LLM.Default,
		CallTimeout:    d.Config.LLM.CallTimeout,
		MaxRetries:     d.Config.LLM.MaxRetries,
		RetryBackoff:   d.Config.LLM.RetryBackoff,
		Sink:           sinks,
	})
	if err != nil {
		return fmt.Errorf("failed to build orchestrator: %w", err)
	}
	d.Orchestrator = orch
	return nil
}

// setupFavorites opens the favorites database, in memory when no path is set.
func (d *Dependencies) setupFavorites(ctx context.Context) error {
	path := d.Config.Database.FavoritesDB
	if path == "" {
		path = ":memory:"
	}
	db, err := sqlite.NewStore(ctx, &sqlite.Config{Path: path})
	if err != nil {
		logger.FromContext(ctx).Warn("Favorites database unavailable", "path", path, "error", err)
		return nil
	}
	d.Favorites = sqlite.NewFavoriteRepo(db.DB())
	d.appendCleanup(func() {
		if err := db.Close(context.WithoutCancel(ctx)); err != nil {
			logger.FromContext(ctx).Error("Failed to close favorites database", "error", err)
		}
	})
	return nil
}

func (d *Dependencies) setupGuidance(_ context.Context) error {
	retr, err := retriever.NewService(d.Embedder, d.Store)
	if err != nil {
		return err
	}
	opts := &guidance.Options{
		Retriever: retr,
		Generator: d.Orchestrator,
		Catalog:   d.Store,
		TopK:      d.Config.Retrieval.TopK,
		Workers:   d.Config.LLM.Workers,
	}
	if d.Favorites != nil {
		opts.Favorites = d.Favorites
	}
	ttl := d.Config.Cache.TTL
	if d.Config.Cache.Backend == cacheBackendRedis && d.Redis != nil {
		prefix := d.Config.Redis.Prefix
		opts.GuidanceCache = cache.NewRedisCache[*guidance.GuidanceResponse]("guidance", d.Redis, prefix, ttl)
		opts.ChatCache = cache.NewRedisCache[*guidance.ChatResponse]("chat", d.Redis, prefix, ttl)
		opts.VerseCache = cache.NewRedisCache[[]passage.Passage]("verses", d.Redis, prefix, ttl)
		opts.ChapterCache = cache.NewRedisCache[[]guidance.ChapterSummary]("chapters", d.Redis, prefix, ttl)
		opts.MorningCache = cache.NewRedisCache[*guidance.MorningGreetingResponse]("morning", d.Redis, prefix, ttl)
		d.cacheDriver = cacheBackendRedis
	} else {
		opts.GuidanceCache = cache.NewTTLCache[*guidance.GuidanceResponse]("guidance", ttl, nil)
		opts.ChatCache = cache.NewTTLCache[*guidance.ChatResponse]("chat", ttl, nil)
		opts.VerseCache = cache.NewTTLCache[[]passage.Passage]("verses", ttl, nil)
		opts.ChapterCache = cache.NewTTLCache[[]guidance.ChapterSummary]("chapters", ttl, nil)
		opts.MorningCache = cache.NewTTLCache[*guidance.MorningGreetingResponse]("morning", ttl, nil)
		d.cacheDriver = "memory"
	}
	svc, err := guidance.NewService(opts)
	if err != nil {
		return fmt.Errorf("failed to build guidance service: %w", err)
	}
	d.Guidance = svc
	return nil
}

// WatchConfig applies default backend changes from reloaded configuration.
func (d *Dependencies) WatchConfig(ctx context.Context, manager *config.Manager) {
	if manager == nil {
		return
	}
	manager.OnChange(func(cfg *config.Config) {
		if llmadapter.CanonicalName(cfg.LLM.Default) == d.Orchestrator.Default() {
			return
		}
		logger.FromContext(ctx).Info("Default backend changed",
			"from", d.Orchestrator.Default(),
			"to", cfg.LLM.Default,
		)
		d.Orchestrator.SetDefault(cfg.LLM.Default)
	})
}

func (d *Dependencies) emitStartupSummary(ctx context.Context, total time.Duration) {
	logger.FromContext(ctx).Info("Server dependencies setup completed",
		"total_duration", total,
		"embedder_dimension", d.Embedder.Dimension(),
		"cache_driver", d.cacheDriver,
		"decision_store", d.decisionDriver,
		"favorites", d.Favorites != nil,
		"backends", d.Orchestrator.Backends(),
		"default_llm", d.Orchestrator.RegisteredDefault(),
		"monitoring", d.Monitoring.IsInitialized(),
	)
}

func (d *Dependencies) appendCleanup(cleanup func()) {
	if cleanup == nil {
		return
	}
	d.cleanups = append(d.cleanups, cleanup)
}

// Close runs every cleanup in reverse order. Safe to call more than once.
func (d *Dependencies) Close(ctx context.Context) {
	log := logger.FromContext(ctx)
	cleanups := d.cleanups
	d.cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		idx := len(cleanups) - 1 - i
		log.Debug("Running cleanup function", "index", idx, "total", len(cleanups))
		runCleanupWithTimeout(ctx, cleanups[i], defaultCleanupTimeout, idx)
	}
}

func runCleanupWithTimeout(ctx context.Context, fn func(), timeout time.Duration, index int) {
	log := logger.FromContext(ctx)
	done := make(chan struct{})
	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Cleanup function panicked", "index", index, "panic", r)
			}
			close(done)
		}()
		fn()
	}()
	select {
	case <-done:
		log.Debug("Cleanup function completed", "index", index, "duration", time.Since(start))
	case <-time.After(timeout):
		log.Warn("Cleanup function exceeded timeout", "index", index, "timeout", timeout, "elapsed", time.Since(start))
	}
}
