// Package server exposes TalentTrack over HTTP with a chi router.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/filestore"
	"github.com/koustreak/talenttrack/internal/hr"
	"github.com/koustreak/talenttrack/internal/logger"
)

// Config holds the HTTP listener settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig listens on :5000.
func DefaultConfig() Config {
	return Config{
		Addr:            ":5000",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// ErrorLog records a failure and returns its record id.
type ErrorLog interface {
	LogOnce(ctx context.Context, err error) string
}

type nopErrorLog struct{}

func (nopErrorLog) LogOnce(context.Context, error) string { return "" }

// Options wires the server's collaborators.
type Options struct {
	Manager *database.Manager

	// Files serves document downloads. Nil disables the download route.
	Files      filestore.Store
	PresignTTL time.Duration

	ErrorLog    ErrorLog
	Logger      *logger.Logger
	Development bool
	Version     string
}

// Server is the HTTP front of TalentTrack.
type Server struct {
	db         *database.Manager
	store      *hr.Store
	files      filestore.Store
	presignTTL time.Duration
	errlog     ErrorLog
	log        *logger.Logger
	dev        bool
	version    string
	router     *chi.Mux
}

// New builds the router.
func New(opts Options) *Server {
	s := &Server{
		db:         opts.Manager,
		store:      hr.NewStore(opts.Manager),
		files:      opts.Files,
		presignTTL: opts.PresignTTL,
		errlog:     opts.ErrorLog,
		log:        opts.Logger,
		dev:        opts.Development,
		version:    opts.Version,
		router:     chi.NewRouter(),
	}
	if s.errlog == nil {
		s.errlog = nopErrorLog{}
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.presignTTL <= 0 {
		s.presignTTL = filestore.DefaultConfig().PresignTTL
	}
	if s.version == "" {
		s.version = "dev"
	}
	s.setupRoutes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(captureRequest)
	r.Use(s.requestLogger)
	r.Use(instrument)
	r.Use(s.recoverer)

	r.NotFound(s.handle(s.notFound))
	r.MethodNotAllowed(s.handle(s.methodNotAllowed))

	r.Get("/health", s.handle(s.health))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handle(s.apiInfo))
		r.Get("/status", s.handle(s.status))

		r.Route("/departments", func(r chi.Router) {
			r.Get("/", s.handle(s.listDepartments))
			r.Post("/", s.handle(s.createDepartment))
			r.Get("/{id}", s.handle(s.getDepartment))
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", s.handle(s.listEmployees))
			r.Post("/", s.handle(s.createEmployee))
			r.Get("/{id}", s.handle(s.getEmployee))
		})

		r.Get("/documents/{id}", s.handle(s.getDocument))
		r.Get("/documents/{id}/download", s.handle(s.downloadDocument))
	})
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.With().Str("addr", cfg.Addr).Logger().Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
