// Package httpserver wires the mdredirect HTTP API onto a chi router and runs it.
package httpserver

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdredirect/internal/docs"
	derrors "git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
	"git.home.luguber.info/inful/mdredirect/internal/logfields"
	"git.home.luguber.info/inful/mdredirect/internal/metrics"
	"git.home.luguber.info/inful/mdredirect/internal/server/handlers"
	smw "git.home.luguber.info/inful/mdredirect/internal/server/middleware"
)

// Default limits used when Options leaves them unset.
const (
	DefaultMaxBody         = 1 << 20
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Options configures the server.
type Options struct {
	Addr    string
	MaxBody int64
	// Gatherer exposes /metrics when set.
	Gatherer prom.Gatherer
	// Recorder observes request durations.
	Recorder        metrics.Recorder
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Server serves the rewrite API.
type Server struct {
	router chi.Router
	opts   Options
	logger *slog.Logger

	errorAdapter       *derrors.HTTPErrorAdapter
	rewriteHandlers    *handlers.RewriteHandlers
	monitoringHandlers *handlers.MonitoringHandlers
}

// New constructs the server and its routes.
func New(processor *docs.Processor, opts Options) (*Server, error) {
	if processor == nil {
		return nil, derrors.ValidationError("processor is required").Build()
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		opts:               opts,
		logger:             opts.Logger,
		errorAdapter:       derrors.NewHTTPErrorAdapter(opts.Logger),
		rewriteHandlers:    handlers.NewRewriteHandlers(processor, opts.MaxBody, opts.Logger),
		monitoringHandlers: handlers.NewMonitoringHandlers(time.Now()),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(smw.Chain(s.logger, s.errorAdapter, s.opts.Recorder))

	r.Get("/healthz", s.monitoringHandlers.HandleHealthCheck)
	r.Post("/v1/rewrite", s.rewriteHandlers.HandleRewrite)
	if s.opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.HTTPHandler(s.opts.Gatherer))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		s.errorAdapter.WriteErrorResponse(w, req, derrors.ValidationError("route not found").
			WithContext("status", http.StatusNotFound).
			WithContext("path", req.URL.Path).
			Build())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		s.errorAdapter.WriteErrorResponse(w, req, derrors.ValidationError("invalid HTTP method").
			WithContext("status", http.StatusMethodNotAllowed).
			WithContext("method", req.Method).
			Build())
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe binds opts.Addr and serves until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryNetwork, "http startup failed").
			WithContext("addr", s.opts.Addr).
			Build()
	}
	return s.Serve(ctx, ln)
}

// Serve runs the server on a pre-bound listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("HTTP server started", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown failed", logfields.Error(err))
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
