// Package web provides the HTTP surface of the traffic-light daemon: the
// status page, its JSON twin, Prometheus metrics and a small REST API.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/traffic-light/internal/events"
	"github.com/sweeney/traffic-light/internal/logging"
	"github.com/sweeney/traffic-light/internal/metrics"
	"github.com/sweeney/traffic-light/internal/status"
)

var log = logging.GetLogger("web")

// Options wires the server to the rest of the daemon. Submit and Tracker
// are required; a nil Bus disables /api/events and a nil Gatherer
// disables /metrics.
type Options struct {
	Tracker  *status.Tracker
	Submit   func(line string) bool
	Bus      *events.Bus
	Gatherer prometheus.Gatherer
}

// Server serves the status page and API over HTTP.
type Server struct {
	httpServer *http.Server
	api        huma.API
	opts       Options
}

// New creates a Server listening on addr.
func New(addr string, opts Options) *Server {
	s := &Server{opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	if opts.Gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(opts.Gatherer))
	}

	config := huma.DefaultConfig("Traffic Light API", "1.0.0")
	config.Info.Description = "Status and commands for the traffic-light controller"
	config.Servers = []*huma.Server{}
	s.api = humago.New(mux, config)
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	log.Info("HTTP server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.opts.Tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap); err != nil {
		log.Warn("Failed to render status page", "error", err)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.opts.Tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}
