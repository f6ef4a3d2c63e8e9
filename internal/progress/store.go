// Package progress keeps the pollable resolution state of each artist.
package progress

import (
	"sync"
	"time"

	"github.com/ewilliams-labs/timbre/internal/core/domain"
	"github.com/ewilliams-labs/timbre/internal/core/ports"
)

// Store is a concurrency-safe map from artist id to progress record.
// Records are never deleted; a new run overwrites the previous one.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.Progress
	now     func() time.Time
}

var _ ports.ProgressTracker = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		records: make(map[string]domain.Progress),
		now:     time.Now,
	}
}

// Set merges the updates into the artist's record, creating an idle record
// first if none exists, and refreshes UpdatedAt.
func (s *Store) Set(artistID string, updates ...ports.ProgressUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[artistID]
	if !ok {
		rec = domain.Progress{Phase: domain.PhaseIdle}
	}
	for _, apply := range updates {
		apply(&rec)
	}
	rec.UpdatedAt = s.now()
	s.records[artistID] = rec
}

// Get returns the artist's record or an idle/0/0 record.
func (s *Store) Get(artistID string) domain.Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.records[artistID]; ok {
		return rec
	}
	return domain.Progress{Phase: domain.PhaseIdle}
}

// Phase sets the phase.
func Phase(p domain.Phase) ports.ProgressUpdate {
	return func(rec *domain.Progress) { rec.Phase = p }
}

// Position sets the 1-based position in the track subset.
func Position(n int) ports.ProgressUpdate {
	return func(rec *domain.Progress) { rec.Position = n }
}

// Total sets the subset size.
func Total(n int) ports.ProgressUpdate {
	return func(rec *domain.Progress) { rec.Total = n }
}

// Track sets the current track name; an empty name clears it.
func Track(name string) ports.ProgressUpdate {
	return func(rec *domain.Progress) { rec.CurrentTrackName = name }
}

// Message sets the free-form status message; an empty message clears it.
func Message(msg string) ports.ProgressUpdate {
	return func(rec *domain.Progress) { rec.Message = msg }
}

// Run stamps the id of the run that owns the record.
func Run(runID string) ports.ProgressUpdate {
	return func(rec *domain.Progress) { rec.RunID = runID }
}
