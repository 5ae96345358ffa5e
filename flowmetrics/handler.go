package flowmetrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pothosware/flowcore/flowerr"
)

// Server exposes a Registry's collectors over HTTP for Prometheus scraping,
// grounded on metric/handler.go, trimmed to a plain (non-TLS) listener since
// the dataflow runtime's Non-goals (spec.md §1) exclude security/auth.
type Server struct {
	addr     string
	path     string
	registry *Registry

	mu     sync.Mutex
	server *http.Server
}

// NewServer builds a metrics HTTP server bound to addr (e.g. ":9090"),
// serving registry's collectors at path (default "/metrics").
func NewServer(addr, path string, registry *Registry) *Server {
	if path == "" {
		path = "/metrics"
	}
	return &Server{addr: addr, path: path, registry: registry}
}

// Start binds the listener synchronously, returning any listen error, then
// serves in a background goroutine; errors from serving after that point
// are dropped, so Start itself never blocks past listener setup.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return flowerr.WrapInvalid(fmt.Errorf("server already running"), "Server", "Start", "start twice")
	}

	mux := http.NewServeMux()
	mux.Handle(s.path, promhttp.HandlerFor(s.registry.PrometheusRegistry(), promhttp.HandlerOpts{EnableOpenMetrics: true}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return flowerr.WrapFatal(err, "Server", "Start", "listen")
	}
	srv := &http.Server{Addr: s.addr, Handler: mux}
	s.server = srv
	go func() {
		_ = srv.Serve(ln)
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	s.server = nil
	if err != nil {
		return flowerr.WrapTransient(err, "Server", "Stop", "graceful shutdown")
	}
	return nil
}
