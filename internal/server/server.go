// Package server provides the HTTP API and web pages for biokgvec.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/biokgvec/internal/config"
	"github.com/hyperjump/biokgvec/internal/metrics"
	"github.com/hyperjump/biokgvec/internal/query"
)

// Server is the HTTP server for the biokgvec API.
type Server struct {
	svc     *query.Service
	config  *config.Config
	logger  *zap.Logger
	metrics *metrics.Recorder
	pages   *pages
	limiter *rate.Limiter
	server  *http.Server
}

// NewServer creates a server with the given dependencies. rec may be nil to disable the
// metrics endpoint.
func NewServer(svc *query.Service, cfg *config.Config, logger *zap.Logger, rec *metrics.Recorder) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	s := &Server{
		svc:     svc,
		config:  cfg,
		logger:  logger,
		metrics: rec,
		pages:   p,
	}
	if rl := cfg.Server.RateLimit; rl.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), rl.Burst)
	}
	return s, nil
}

// Router builds the HTTP handler with every route and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.limiter != nil {
		r.Use(s.rateLimit)
	}
	r.Use(middleware.Timeout(time.Duration(s.config.Server.RequestTimeout) * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/models", s.handleModelInfo)
	if s.metrics != nil && s.config.Metrics.EnabledOrDefault() {
		r.Method(http.MethodGet, s.config.Metrics.Path, s.metrics.Handler())
	}

	r.Route("/rest", func(r chi.Router) {
		r.Get("/models", s.handleModels)
		r.Post("/calculate-similarity-go", s.similarityFor("GO"))
		r.Post("/calculate-similarity-hp", s.similarityFor("HP"))
		r.Post("/closest-go", s.closestFor("GO"))
		r.Post("/closest-hp", s.closestFor("HP"))
		r.Post("/{ontology}/similarity", s.handleSimilarity)
		r.Post("/{ontology}/closest", s.handleClosest)
		r.Get("/{ontology}/labels", s.handleLabels)
	})

	r.Get("/download_direct/{filename}", s.handleDownloadDirect)
	r.Get("/download_folder/{ontology}/{version}/{filename}", s.handleDownloadFolder)

	r.Get("/", s.handlePage)
	r.Get("/{page}", s.handlePage)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			s.respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
