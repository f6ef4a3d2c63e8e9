package rest

import (
	"net/http"
	"strconv"

	"github.com/ewilliams-labs/timbre/internal/core/domain"
	"github.com/ewilliams-labs/timbre/internal/core/services"
	"github.com/ewilliams-labs/timbre/internal/progress"
	"github.com/ewilliams-labs/timbre/internal/worker"
)

type featuresResponse struct {
	domain.ArtistProfile
	Cache services.CacheStatus `json:"cache,omitempty"`
}

type queuedResponse struct {
	Status   string `json:"status"`
	ArtistID string `json:"artistId"`
	Progress string `json:"progress"`
}

// GetProgress handles GET /artists/{id}/progress
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	artistID, ok := artistIDParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.progress.Get(artistID))
}

// GetArtistFeatures handles GET /artists/{id}/features and only serves
// what is already cached.
func (h *Handler) GetArtistFeatures(w http.ResponseWriter, r *http.Request) {
	artistID, ok := artistIDParam(w, r)
	if !ok {
		return
	}

	profile, err := h.profiles.Cached(r.Context(), artistID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, featuresResponse{ArtistProfile: profile, Cache: services.CacheHit})
}

// ResolveArtistFeatures handles POST /artists/{id}/features?limit=&refresh=&async=
func (h *Handler) ResolveArtistFeatures(w http.ResponseWriter, r *http.Request) {
	artistID, ok := artistIDParam(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	refresh, err := boolParam(q.Get("refresh"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "refresh must be a boolean")
		return
	}
	async, err := boolParam(q.Get("async"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "async must be a boolean")
		return
	}

	if async && h.pool != nil {
		if !refresh {
			if profile, ok := h.profiles.Fresh(r.Context(), artistID); ok {
				writeJSON(w, http.StatusOK, featuresResponse{ArtistProfile: profile, Cache: services.CacheHit})
				return
			}
		}
		// A queued run starts from a clean record.
		h.progress.Set(artistID,
			progress.Run(""),
			progress.Phase(domain.PhaseIdle),
			progress.Position(0),
			progress.Total(0),
			progress.Track(""),
			progress.Message("queued"),
		)
		if !h.pool.Submit(worker.Job{ArtistID: artistID, Limit: limit, Force: refresh}) {
			h.progress.Set(artistID, progress.Message("resolution queue is full"))
			writeErrorWithCode(w, http.StatusServiceUnavailable, "resolution queue is full", errCodeQueueFull)
			return
		}
		location := "/artists/" + artistID + "/progress"
		w.Header().Set("Location", location)
		writeJSON(w, http.StatusAccepted, queuedResponse{Status: "queued", ArtistID: artistID, Progress: location})
		return
	}

	profile, status, err := h.profiles.Profile(r.Context(), artistID, limit, refresh)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, featuresResponse{ArtistProfile: profile, Cache: status})
}

func artistIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if !domain.ValidID(id) {
		writeErrorWithCode(w, http.StatusBadRequest, "invalid artist id", errCodeInvalidID)
		return "", false
	}
	return id, true
}

func boolParam(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}
