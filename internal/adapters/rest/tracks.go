package rest

import (
	"net/http"

	"github.com/ewilliams-labs/timbre/internal/core/domain"
	"github.com/ewilliams-labs/timbre/internal/normalize"
)

type trackFeaturesResponse struct {
	OK       bool                 `json:"ok"`
	Via      string               `json:"via"`
	Features domain.AudioFeatures `json:"features"`
}

// GetTrackFeatures handles GET /tracks/{id}/features
func (h *Handler) GetTrackFeatures(w http.ResponseWriter, r *http.Request) {
	trackID := r.PathValue("id")
	if !domain.ValidID(trackID) {
		writeErrorWithCode(w, http.StatusBadRequest, "invalid track id", errCodeInvalidID)
		return
	}
	if h.tracks == nil {
		writeErrorWithCode(w, http.StatusServiceUnavailable, "no single-track provider configured", errCodeNotConfigured)
		return
	}

	payload, err := h.tracks.FetchOne(r.Context(), trackID)
	if err != nil {
		writeProviderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, trackFeaturesResponse{
		OK:       true,
		Via:      h.tracks.Name(),
		Features: normalize.Features(payload),
	})
}
