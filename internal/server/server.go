// Package server provides the HTTP server that wires all services together.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tracefind/trace-search/internal/bus"
	"github.com/tracefind/trace-search/internal/cache"
	"github.com/tracefind/trace-search/internal/config"
	"github.com/tracefind/trace-search/internal/correlate"
	"github.com/tracefind/trace-search/internal/fanout"
	"github.com/tracefind/trace-search/internal/index"
	"github.com/tracefind/trace-search/internal/leakstore"
	"github.com/tracefind/trace-search/internal/metrics"
	"github.com/tracefind/trace-search/internal/pkg/logger"
	"github.com/tracefind/trace-search/internal/pkg/middleware"
	"github.com/tracefind/trace-search/internal/provider"
	"github.com/tracefind/trace-search/internal/query"
	"github.com/tracefind/trace-search/internal/scoring"
	"github.com/tracefind/trace-search/internal/search"
)

// Server is the main HTTP server that wires all services together.
type Server struct {
	cfg        *config.Config
	log        *logger.Logger
	httpServer *http.Server

	// Services
	bus      bus.Bus
	cache    cache.Gateway
	index    index.Gateway
	leaks    *leakstore.Store
	registry *provider.Registry
	search   *search.Service

	// Handlers
	handler *search.Handler

	mu      sync.RWMutex
	started bool
}

// New creates a new server with all dependencies.
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	s := &Server{
		cfg: cfg,
		log: log,
	}

	// Initialize event bus
	eventBus, err := bus.NewBus(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("failed to create bus: %w", err)
	}
	s.bus = eventBus

	// Initialize response cache
	responseCache, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	s.cache = responseCache

	// Initialize full-text index
	textIndex, err := index.New(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	s.index = textIndex

	// Initialize provider registry
	s.registry = provider.NewRegistry()

	if cfg.Providers.DirectoryPath != "" {
		dir, err := provider.LoadDirectory(cfg.Providers.DirectoryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load directory provider: %w", err)
		}
		s.registry.Register(dir)
	}

	if cfg.Providers.EnableLeakStore {
		leaks, err := leakstore.NewStore(cfg.LeakStore.RedisURL)
		if err != nil {
			// The leak store is one provider of many; start degraded.
			log.Warn("Leak store unavailable, continuing without it", "error", err)
		} else {
			s.leaks = leaks
			s.registry.Register(leakstore.NewProvider(leaks))
		}
	}

	// Initialize pipeline components
	m := metrics.New()

	coordinator := fanout.NewCoordinator(s.registry, fanout.Config{
		DispatchDelay: cfg.Providers.DispatchDelay,
		CallTimeout:   cfg.Providers.CallTimeout,
	}, log, m, s.bus)

	correlator := correlate.NewEngine(cfg.Correlation.MatchThreshold, log)

	scorer := scoring.NewEngine(scoring.Config{
		QualityWeight:      cfg.Scoring.QualityWeight,
		RelevanceWeight:    cfg.Scoring.RelevanceWeight,
		ReliabilityWeight:  cfg.Scoring.ReliabilityWeight,
		Reliability:        cfg.Scoring.Reliability,
		DefaultReliability: cfg.Scoring.DefaultReliability,
	}, log)

	s.search = search.NewService(cfg, search.Deps{
		Normalizer: query.NewNormalizer(log),
		Fanout:     coordinator,
		Correlator: correlator,
		Scorer:     scorer,
		Cache:      s.cache,
		Index:      s.index,
		Bus:        s.bus,
		Metrics:    m,
	}, log)

	healthChecker := search.NewHealthChecker(s.cache, s.index, s.registry)
	s.handler = search.NewHandler(s.search, healthChecker, log)

	return s, nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.started = true
	s.mu.Unlock()

	router := s.setupRoutes()

	addr := s.cfg.Address()
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	}

	s.log.Info("Starting HTTP server", "addr", addr, "providers", s.registry.Len())
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("HTTP shutdown error", "error", err)
	}

	// Close services
	if s.leaks != nil {
		s.leaks.Close()
	}
	if s.index != nil {
		s.index.Close()
	}
	if s.cache != nil {
		s.cache.Close()
	}
	if s.bus != nil {
		s.bus.Close()
	}

	s.started = false
	s.log.Info("Server stopped")

	return nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(s.log))

	if s.cfg.Security.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: s.cfg.Security.RateLimit,
			Burst:             int(s.cfg.Security.RateLimit) * 2,
			CleanupInterval:   time.Minute,
		})
		r.Use(limiter.Middleware)
	}

	// Unauthenticated surface
	r.Get("/healthz", s.handler.HandleHealth)
	if s.cfg.Observability.MetricsEnabled {
		r.Handle(s.cfg.Observability.MetricsPath, promhttp.Handler())
	}

	// API surface
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.APIKey(s.cfg.Security.APIKey))

		r.Post("/search", s.handler.HandleSearch)
		r.Get("/search/{query_id}", s.handler.HandleGet)
		r.Get("/index/lookup", s.handler.HandleLookup)
	})

	return r
}

// requestLogger logs each request at debug level.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Debug("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}
