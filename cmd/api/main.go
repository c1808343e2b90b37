package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"threatscope-lab/internal/api"
	"threatscope-lab/internal/api/handlers"
	"threatscope-lab/internal/config"
	"threatscope-lab/internal/domain/services"
	"threatscope-lab/internal/generators"
	"threatscope-lab/internal/infrastructure/cache"
	"threatscope-lab/internal/infrastructure/database"
	"threatscope-lab/internal/infrastructure/database/repository"
	"threatscope-lab/internal/intel"
	"threatscope-lab/internal/observability"
	"threatscope-lab/internal/streaming"
	"threatscope-lab/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting ThreatScope Lab")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	// Initialize infrastructure
	db, redisCache, err := initInfrastructure(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize infrastructure")
	}
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// Result store: Redis when available, in-memory otherwise
	var store cache.ResultStore
	if redisCache != nil {
		store = redisCache
	} else {
		memStore := cache.NewMemoryStore(log)
		defer memStore.Close()
		store = memStore
		log.Warn().Msg("running without Redis - results cached in memory only")
	}

	// Analysis history repository
	var repo *repository.AnalysisRepository
	if db != nil {
		repo = repository.NewAnalysisRepository(db.Pool())
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare analysis schema")
		}
		log.Info().Msg("analysis repository initialized with database")
	} else {
		log.Warn().Msg("running without database - analysis history unavailable")
	}

	// Initialize streaming infrastructure
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		var err error
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing without real-time streaming")
		} else {
			log.Info().Str("url", cfg.NATS.URL).Msg("connected to NATS")
		}
	}

	eventBus := streaming.NewEventBus(natsPublisher, log)
	defer eventBus.Close()
	log.Info().Bool("nats_enabled", natsPublisher != nil).Msg("event bus initialized")

	// WebSocket hub for dashboard real-time updates
	wsHub := streaming.NewWebSocketHub(log)
	wsHub.SetGauge(metrics.ActiveStreams)
	eventBus.AttachHub(wsHub)
	go wsHub.Run(ctx)
	go eventBus.Run(ctx)

	// Register intelligence providers
	intelRegistry := intel.NewRegistry(log)
	if cfg.Intel.Enabled {
		if err := intelRegistry.Register(intel.NewStaticProvider(log)); err != nil {
			log.Fatal().Err(err).Msg("failed to register static intel provider")
		}
		if cfg.Intel.FeedURL != "" {
			feed := intel.NewHTTPFeedProvider(intel.ProviderConfig{
				Enabled: true,
				FeedURL: cfg.Intel.FeedURL,
				APIKey:  cfg.Intel.APIKey,
				Timeout: cfg.Intel.FetchTimeout,
			}, log)
			if err := intelRegistry.Register(feed); err != nil {
				log.Fatal().Err(err).Msg("failed to register http feed provider")
			}
		}
	}
	log.Info().Int("providers", intelRegistry.Count()).Msg("intelligence providers registered")

	// Register threat generators
	genRegistry := generators.NewRegistry(log)
	ceiling := cfg.Analysis.ConfidenceCeiling
	for _, gen := range []generators.Generator{
		generators.NewIndustryGenerator(ceiling, log),
		generators.NewEmergingGenerator(ceiling, log),
		generators.NewPredictiveGenerator(ceiling, log),
		generators.NewFreeformGenerator(nil, ceiling, log),
	} {
		if err := genRegistry.Register(gen); err != nil {
			log.Fatal().Err(err).Str("generator", gen.Slug()).Msg("failed to register generator")
		}
	}
	genRegistry.SetFailureCounter(metrics)
	log.Info().Int("generators", genRegistry.Count()).Msg("threat generators registered")

	// Rule engine: builtin tables unless a custom ruleset file is configured
	var ruleset *services.Ruleset
	if cfg.Analysis.RulesetPath != "" {
		ruleset, err = services.LoadRuleset(cfg.Analysis.RulesetPath, log)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Analysis.RulesetPath).Msg("failed to load ruleset file")
		}
	} else {
		ruleset = services.NewDefaultRuleset(log)
	}
	ruleCount, chainCount := ruleset.Counts()
	log.Info().Int("rules", ruleCount).Int("chains", chainCount).Msg("ruleset loaded")

	// Core analysis service
	serviceDeps := services.AnalysisServiceDeps{
		Ruleset:      ruleset,
		Generators:   genRegistry,
		Intel:        intelRegistry,
		Store:        store,
		Bus:          eventBus,
		Metrics:      metrics,
		IntelTimeout: cfg.Intel.FetchTimeout,
	}
	if repo != nil {
		serviceDeps.Archive = repo
	}
	analysisService := services.NewAnalysisService(cfg.Analysis, serviceDeps, log)

	// Initialize handlers
	h := handlers.NewHandlers(handlers.Dependencies{
		Config:     *cfg,
		Service:    analysisService,
		Ruleset:    ruleset,
		Generators: genRegistry,
		Intel:      intelRegistry,
		Cache:      redisCache,
		DB:         db,
		Repo:       repo,
		Logger:     log,
	})

	// Create router
	router := api.NewRouter(*cfg, h, redisCache, wsHub, metrics, log)
	httpHandler := router.Setup()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	// Cancel context to stop background services
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// initInfrastructure connects to PostgreSQL and Redis. Both are optional;
// the service degrades to in-memory operation when they are absent.
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache, error) {
	var db *database.PostgresDB
	if cfg.Database.Enabled {
		var err error
		db, err = database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without persistence")
			db = nil
		}
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		var err error
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without shared cache")
			redisCache = nil
		}
	}

	return db, redisCache, nil
}
