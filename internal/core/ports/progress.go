package ports

import "github.com/ewilliams-labs/timbre/internal/core/domain"

// ProgressUpdate mutates one field group of a progress record.
type ProgressUpdate func(*domain.Progress)

// ProgressTracker records resolution progress per artist for polling.
type ProgressTracker interface {
	Set(artistID string, updates ...ProgressUpdate)
	Get(artistID string) domain.Progress
}
