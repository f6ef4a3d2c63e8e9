package domain

import "time"

// Phase is a coarse label for where a resolution run currently is.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseFetching  Phase = "fetching"
	PhaseAnalyzing Phase = "analyzing"
	PhaseAveraging Phase = "averaging"
	PhaseDone      Phase = "done"
	PhaseError     Phase = "error"
)

// Progress is the pollable state of the latest resolution run for an artist.
type Progress struct {
	Phase            Phase     `json:"phase"`
	Position         int       `json:"position"`
	Total            int       `json:"total"`
	CurrentTrackName string    `json:"currentTrackName,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt"`
	Message          string    `json:"message,omitempty"`
	RunID            string    `json:"runId,omitempty"`
}

// Source names the tier that produced an aggregate.
type Source string

const (
	SourceProvider  Source = "provider"
	SourceHeuristic Source = "heuristic"
	SourceSynthetic Source = "synthetic"
	SourceDefault   Source = "default"
)

// Aggregate is the result of one resolution run.
type Aggregate struct {
	Features     AudioFeatures `json:"features"`
	Contributors int           `json:"contributors"`
	Requested    int           `json:"requested"`
	Source       Source        `json:"source"`
	RunID        string        `json:"runId"`
}
