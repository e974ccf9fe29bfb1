// Package server exposes metrics and failure diagnostics of the client on a
// local HTTP listener.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// New creates a new server instance
func New(c *Config, failures FailureSource) (*Server, error) {
	if c == nil || c.ListenAddr == "" {
		return nil, errors.New("No listen address provided")
	}
	if failures == nil {
		return nil, errors.New("No failure source provided")
	}
	if c.Gatherer == nil {
		c.Gatherer = prometheus.DefaultGatherer
	}

	return &Server{
		c:        c,
		failures: failures,
	}, nil
}

// Server represents a server instance
type Server struct {
	c        *Config
	failures FailureSource
}

// Router returns the routes served by the server
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	h := newHandlers(s.failures)

	r.Handle("/metrics", promhttp.HandlerFor(s.c.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	r.HandleFunc("/health", h.HealthHandler).Methods("GET")
	r.HandleFunc("/debug/last-error", h.LastErrorHandler).Methods("GET")

	return r
}

// ListenAndServe serves until ctx is cancelled or the listener fails
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.c.ListenAddr,
		Handler: s.Router(),
	}

	errc := make(chan error, 1)
	go func() {
		log.Infof("diagnostics server listening on: http://%s", getAddrString(s.c.ListenAddr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "diagnostics server stopped")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		return errors.Wrap(err, "failed to shut down diagnostics server")
	}
	return nil
}

func getAddrString(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = fmt.Sprintf("0.0.0.0%s", addr)
	}
	return addr
}
