// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jmylchreest/pagewash/internal/logger"
	"github.com/jmylchreest/pagewash/pkg/pipeline"
)

// Runner processes one URL. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, url string) (*pipeline.Result, error)
}

// RequestObserver records finished HTTP requests. *metrics.Metrics implements it.
type RequestObserver interface {
	ObserveRequest(route, method string, code int, d time.Duration)
}

// Options configures the HTTP server.
type Options struct {
	Addr         string
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// DistinctStatus maps fetch and model failures to 502 instead of 500.
	DistinctStatus bool

	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	// Observer receives one call per request when set.
	Observer RequestObserver
}

const (
	defaultMaxBodyBytes = 1 << 20
	shutdownTimeout     = 30 * time.Second
)

// Server routes requests to the pipeline.
type Server struct {
	runner   Runner
	opts     Options
	validate *validator.Validate
	handler  http.Handler
}

// New builds the router and middleware chain.
func New(runner Runner, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	s := &Server{
		runner:   runner,
		opts:     opts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /scrape", s.handleScrape)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	s.handler = requestID(s.logRequests(mux))
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to 30 seconds.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		// In-flight requests keep running while Shutdown drains them.
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
