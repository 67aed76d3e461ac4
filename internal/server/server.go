// Package server exposes the recommendation dashboard as a JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/house-rocket/internal/geo"
	"github.com/sells-group/house-rocket/internal/model"
	"github.com/sells-group/house-rocket/internal/pipeline"
	"github.com/sells-group/house-rocket/internal/store"
)

// DefaultZoom is the marker clustering zoom when the request names none.
const DefaultZoom = 15

// Runner computes a pipeline result; *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
	Path() string
}

// BoundarySource supplies zipcode boundaries; *dataset.Loader implements it.
type BoundarySource interface {
	Boundaries(ctx context.Context, source string) (*geo.Boundaries, error)
}

// RunHistory persists runs; store.Store implements it.
type RunHistory interface {
	RecordRun(ctx context.Context, run *model.RunSummary, recs []model.RunRecommendation) error
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.RunSummary, error)
	GetRun(ctx context.Context, runID string) (*model.RunDetail, error)
}

// Config holds the HTTP settings.
type Config struct {
	BoundarySource string
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// Server serves the API.
type Server struct {
	runner     Runner
	boundaries BoundarySource
	history    RunHistory
	metrics    *Metrics
	validate   *validator.Validate
	cfg        Config
	log        *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRunHistory enables the /api/runs routes.
func WithRunHistory(h RunHistory) Option {
	return func(s *Server) { s.history = h }
}

// WithMetrics shares m with the pipeline observer.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a Server.
func New(runner Runner, boundaries BoundarySource, cfg Config, opts ...Option) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	s := &Server{
		runner:     runner,
		boundaries: boundaries,
		validate:   newValidator(),
		cfg:        cfg,
		log:        zap.L().With(zap.String("component", "server")),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/filters", s.filters)
		r.Get("/recommendations", s.recommendations)
		r.Get("/profit", s.profit)
		r.Get("/maps/listings", s.listingsMap)
		r.Get("/maps/gain", s.gainMap)
		r.Get("/stats", s.stats)
		r.Get("/hypotheses", s.hypotheses)

		if s.history != nil {
			r.Route("/runs", func(r chi.Router) {
				r.Get("/", s.listRuns)
				r.Post("/", s.recordRun)
				r.Get("/{runID}", s.getRun)
			})
		}
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "server: listen")
	case <-ctx.Done():
		s.log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return eris.Wrap(srv.Shutdown(shutdownCtx), "server: shutdown")
	}
}
