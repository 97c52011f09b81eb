// Package server exposes the solvers as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/experiment"
)

const (
	solveTimeout    = 30 * time.Second
	sweepTimeout    = 2 * time.Minute
	shutdownTimeout = 10 * time.Second
	maxBodyBytes    = 4 << 20
)

type Server struct {
	reg     *experiment.Registry
	cfg     config.ServerConfig
	logger  *zap.Logger
	metrics *Collector

	// Workers bounds concurrent solves per sweep; 0 uses GOMAXPROCS.
	Workers int
}

func New(reg *experiment.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		reg:     reg,
		cfg:     reg.Config().Server,
		logger:  logger,
		metrics: NewCollector("popdyn"),
	}
}

func (s *Server) Metrics() *Collector { return s.metrics }

// Handler builds the router with all middleware and routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(RequestID)
	r.Use(Logger(s.logger, s.metrics))
	r.Use(chimiddleware.Recoverer)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/models", s.listModels)
		r.Get("/presets/{model}", s.listPresets)
		r.Post("/solve/{model}", s.solve)
		r.Post("/solve/{model}/chart", s.solveChart)
		r.Post("/field", s.field)
		r.Post("/fit", s.fit)
		r.Post("/sweep/{model}", s.sweep)
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = s.cfg.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
