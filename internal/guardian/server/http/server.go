package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/guardian/internal/pkg/metrics"
	"github.com/autopeer-io/guardian/pkg/log"
	"github.com/autopeer-io/guardian/pkg/options"
)

const shutdownTimeout = 5 * time.Second

// ReadyFunc reports whether the process can serve traffic. A nil error
// means ready.
type ReadyFunc func() error

// StatusFunc returns the value served as JSON by /status.
type StatusFunc func() any

type Server struct {
	server  *http.Server
	options *options.HttpOptions
	logger  log.Logger
}

// NewServer builds the probe, metrics and status endpoints.
func NewServer(opts *options.HttpOptions, ready ReadyFunc, status StatusFunc, logger log.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           NewRouter(ready, status),
			ReadHeaderTimeout: opts.Timeout,
			WriteTimeout:      opts.Timeout,
		},
		options: opts,
		logger:  logger,
	}
}

// NewRouter returns the handler tree of the server.
func NewRouter(ready ReadyFunc, status StatusFunc) *mux.Router {
	r := mux.NewRouter()

	// Liveness
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil {
			if err := ready(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{
		Registry: metrics.Registry,
	})).Methods(http.MethodGet)

	if status != nil {
		r.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(status()); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}).Methods(http.MethodGet)
	}

	return r
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen(s.options.Network, s.server.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("Starting HTTP server", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down HTTP server")
		return s.server.Shutdown(shutdownCtx)
	}
}
