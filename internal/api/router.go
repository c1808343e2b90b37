package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"threatscope-lab/internal/api/handlers"
	apimiddleware "threatscope-lab/internal/api/middleware"
	"threatscope-lab/internal/config"
	"threatscope-lab/internal/infrastructure/cache"
	"threatscope-lab/internal/observability"
	"threatscope-lab/internal/streaming"
	"threatscope-lab/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	cache    *cache.RedisCache
	hub      *streaming.WebSocketHub
	metrics  *observability.Metrics
	logger   *logger.Logger
}

// NewRouter creates a new Router instance
func NewRouter(cfg config.Config, h *handlers.Handlers, c *cache.RedisCache, hub *streaming.WebSocketHub, m *observability.Metrics, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		cache:    c,
		hub:      hub,
		metrics:  m,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	if r.metrics != nil {
		router.Use(apimiddleware.Metrics(r.metrics))
	}

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Rate limiting
	if r.config.RateLimit.Enabled && r.cache != nil {
		router.Use(apimiddleware.RateLimiter(r.cache, r.config.RateLimit))
	}

	// Public routes
	router.Group(func(pub chi.Router) {
		pub.Get("/health", r.handlers.Health.Check)
		pub.Get("/ready", r.handlers.Health.Ready)

		if r.metrics != nil {
			pub.Method(http.MethodGet, "/metrics", r.metrics.Handler())
		}

		pub.Get("/api/v1/stats", r.handlers.Stats.Get)
	})

	// API v1 routes (authenticated)
	router.Route("/api/v1", func(api chi.Router) {
		api.Use(apimiddleware.APIKeyAuth(r.config.Auth.APIKey))

		// Analysis endpoints
		api.Route("/analysis", func(analysis chi.Router) {
			analysis.Post("/analyze-threats", r.handlers.Analysis.Analyze)
			analysis.Post("/quick-assessment", r.handlers.Analysis.QuickAssess)
			analysis.Get("/", r.handlers.Analysis.List)
			analysis.Get("/{id}", r.handlers.Analysis.Get)
		})

		// Engine introspection
		api.Get("/capabilities", r.handlers.Capabilities.Get)
		api.Route("/rules", func(rules chi.Router) {
			rules.Get("/", r.handlers.Rules.List)
			rules.Get("/chains", r.handlers.Rules.ListChains)
		})

		// Live event stream
		if r.hub != nil {
			api.Get("/stream", r.hub.ServeWebSocket)
		}
	})

	return router
}
