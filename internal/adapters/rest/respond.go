package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ewilliams-labs/timbre/internal/core/domain"
	"github.com/ewilliams-labs/timbre/internal/core/ports"
	"github.com/ewilliams-labs/timbre/internal/core/services"
)

const (
	errCodeInvalidID     = "INVALID_ID"
	errCodeNotFound      = "NOT_FOUND"
	errCodeUpstream      = "UPSTREAM_UNAVAILABLE"
	errCodeNotConfigured = "PROVIDER_NOT_CONFIGURED"
	errCodeQueueFull     = "QUEUE_FULL"
	errCodeTimeout       = "TIMEOUT"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("WARN rest: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeErrorWithCode(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeServiceError maps service and provider errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeErrorWithCode(w, http.StatusNotFound, err.Error(), errCodeNotFound)
	case errors.Is(err, ports.ErrProviderUnavailable):
		writeErrorWithCode(w, http.StatusServiceUnavailable, err.Error(), errCodeNotConfigured)
	case errors.Is(err, services.ErrCatalogUnavailable):
		writeErrorWithCode(w, http.StatusBadGateway, err.Error(), errCodeUpstream)
	case errors.Is(err, context.DeadlineExceeded):
		writeErrorWithCode(w, http.StatusGatewayTimeout, err.Error(), errCodeTimeout)
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeProviderError is writeServiceError for direct provider calls, where
// any failure other than a missing configuration means the upstream is down.
func writeProviderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrProviderUnavailable), errors.Is(err, context.DeadlineExceeded):
		writeServiceError(w, err)
	default:
		writeErrorWithCode(w, http.StatusBadGateway, err.Error(), errCodeUpstream)
	}
}
