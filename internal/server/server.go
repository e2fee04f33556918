// Package server provides the HTTP server of repcoach.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/grindsens/repcoach/internal/app"
	"github.com/grindsens/repcoach/internal/metrics"
	"github.com/grindsens/repcoach/internal/server/api"
	"github.com/grindsens/repcoach/internal/store"
	"github.com/grindsens/repcoach/internal/tracker"
)

// Config holds the server configuration.
type Config struct {
	StaticDir         string
	Store             *store.Store
	Registry          *tracker.Registry
	Metrics           *metrics.Manager
	Gatherer          prometheus.Gatherer
	DefaultTargetReps int

	// App enables the camera routes when set.
	App *app.App
}

// Server represents the HTTP server for the repcoach application.
type Server struct {
	config     Config
	router     chi.Router
	start      time.Time
	httpServer *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Registry == nil {
		config.Registry = tracker.NewRegistry(tracker.DefaultThresholds())
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NewTestManager()
	}

	s := &Server{
		config: config,
		router: chi.NewRouter(),
		start:  time.Now(),
	}
	s.routes()
	return s
}

// routes configures all HTTP routes for the server.
func (s *Server) routes() {
	s.router.Use(RequestMetrics(s.config.Metrics))

	s.router.Get("/api/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/api/trackers", api.NewTrackerHandler(s.config.Registry))

	if s.config.Gatherer != nil {
		s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}

	if s.config.Store != nil {
		s.router.Mount("/api/exercises", api.NewExerciseHandler(s.config.Store, s.config.Registry).Routes())
		s.router.Mount("/api/logs", api.NewLogHandler(s.config.Store).Routes())
		s.router.Method(http.MethodGet, "/ws/supervision/{exerciseID}", NewSupervisionHandler(SupervisionConfig{
			Store:             s.config.Store,
			Registry:          s.config.Registry,
			Metrics:           s.config.Metrics,
			DefaultTargetReps: s.config.DefaultTargetReps,
		}))
	}

	if s.config.App != nil {
		s.router.Method(http.MethodGet, "/api/stream", NewStreamHandler(s.config.App))
		s.router.Method(http.MethodGet, "/api/landmarks", NewLandmarksHandler(s.config.App))
		s.router.Mount("/api/session", NewSessionHandler(s.config.App).Routes())
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.router.NotFound(fs.ServeHTTP)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.App != nil {
		if snap, ok := s.config.App.Active(); ok {
			response["active"] = snap
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// Serve starts listening on addr in the background.
func (s *Server) Serve(addr string) {
	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s,
		ReadTimeout: time.Minute,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", addr)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %s", err)
		}
	}()
}

// Shutdown stops the HTTP server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
