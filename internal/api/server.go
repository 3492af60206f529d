// Package api provides the HTTP server for lumen: catalog and policy
// surfaces, one-shot selection, override plans, the decision journal,
// and a live websocket feed of decisions.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumen-display/lumen/internal/health"
	"github.com/lumen-display/lumen/internal/infra/layers"
	"github.com/lumen-display/lumen/internal/infra/modes"
	"github.com/lumen-display/lumen/internal/infra/policy"
	"github.com/lumen-display/lumen/internal/infra/refresh"
	"github.com/lumen-display/lumen/internal/infra/selection"
	"github.com/lumen-display/lumen/internal/infra/sqlite"
)

// Server is the lumen HTTP API server.
type Server struct {
	catalog  *modes.Catalog
	policies *policy.Store
	engine   *refresh.Engine
	coord    *selection.Coordinator
	tracker  *layers.Tracker
	db       *sqlite.DB

	health         *health.Checker
	feed           *FeedHub
	metricsEnabled bool
	version        string
}

// NewServer creates a new API server.
func NewServer(catalog *modes.Catalog, policies *policy.Store, engine *refresh.Engine,
	coord *selection.Coordinator, tracker *layers.Tracker, db *sqlite.DB) *Server {
	return &Server{
		catalog:  catalog,
		policies: policies,
		engine:   engine,
		coord:    coord,
		tracker:  tracker,
		db:       db,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHealth attaches the background health checker.
func (s *Server) SetHealth(h *health.Checker) { s.health = h }

// SetFeed attaches the live decision feed hub.
func (s *Server) SetFeed(f *FeedHub) { s.feed = f }

// SetVersion sets the version string reported by /version.
func (s *Server) SetVersion(v string) { s.version = v }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Minute))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if s.health != nil && !s.health.IsHealthy() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"checks": s.health.Statuses(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/modes", s.handleModes)
		r.Get("/policy", s.handleGetPolicy)
		r.Put("/policy", s.handlePutPolicy)
		r.Delete("/policy", s.handleClearOverridePolicy)
		r.Post("/select", s.handleSelect)
		r.Get("/overrides", s.handleOverrides)
		r.Get("/idle-timer", s.handleIdleTimer)
		r.Get("/divider", s.handleDivider)
		r.Get("/journal", s.handleJournal)

		r.Post("/surfaces", s.handleRegisterSurface)
		r.Delete("/surfaces/{handle}", s.handleUnregisterSurface)
		r.Post("/surfaces/{handle}/vote", s.handleSurfaceVote)
		r.Post("/surfaces/{handle}/focus", s.handleSurfaceFocus)

		if s.feed != nil {
			r.Get("/feed", s.feed.HandleFeed)
		}
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
