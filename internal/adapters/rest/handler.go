// Package rest exposes artist profiles and resolution progress over HTTP.
package rest

import (
	"net/http"

	"github.com/ewilliams-labs/timbre/internal/core/ports"
	"github.com/ewilliams-labs/timbre/internal/core/services"
	"github.com/ewilliams-labs/timbre/internal/worker"
)

// Handler manages the HTTP interface for our application.
type Handler struct {
	profiles *services.ProfileService
	progress ports.ProgressTracker
	pool     *worker.Pool         // optional; without it async requests run inline
	tracks   ports.SingleProvider // optional; backs the single-track lookup
	router   *http.ServeMux
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(profiles *services.ProfileService, tracker ports.ProgressTracker, pool *worker.Pool, tracks ports.SingleProvider) *Handler {
	h := &Handler{
		profiles: profiles,
		progress: tracker,
		pool:     pool,
		tracks:   tracks,
		router:   http.NewServeMux(),
	}

	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.HandleFunc("GET /health", h.HealthCheck)

	h.router.HandleFunc("GET /artists/{id}/progress", h.GetProgress)
	h.router.HandleFunc("GET /artists/{id}/features", h.GetArtistFeatures)
	h.router.HandleFunc("POST /artists/{id}/features", h.ResolveArtistFeatures)

	h.router.HandleFunc("GET /tracks/{id}/features", h.GetTrackFeatures)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Timbre is live"})
}
