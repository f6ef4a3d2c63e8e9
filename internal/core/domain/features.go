package domain

import "math"

// AudioFeatures is the canonical feature vector for one track or for an
// artist aggregate. Fractions are in [0,1], loudness is in dB and tempo in BPM.
type AudioFeatures struct {
	Acousticness     float64 `json:"acousticness" yaml:"acousticness"`
	Danceability     float64 `json:"danceability" yaml:"danceability"`
	Energy           float64 `json:"energy" yaml:"energy"`
	Instrumentalness float64 `json:"instrumentalness" yaml:"instrumentalness"`
	Liveness         float64 `json:"liveness" yaml:"liveness"`
	Loudness         float64 `json:"loudness" yaml:"loudness"`
	Speechiness      float64 `json:"speechiness" yaml:"speechiness"`
	Tempo            float64 `json:"tempo" yaml:"tempo"`
	Valence          float64 `json:"valence" yaml:"valence"`
	Key              int     `json:"key" yaml:"key"`
	Mode             int     `json:"mode" yaml:"mode"`
	TimeSignature    int     `json:"time_signature" yaml:"time_signature"`

	// Extras are only reported by some providers.
	Popularity *float64 `json:"popularity,omitempty" yaml:"popularity,omitempty"`
	DurationMs *float64 `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
}

// DefaultTempo is used whenever no usable tempo is known.
const DefaultTempo = 120.0

// DefaultAggregate is the artist aggregate reported when no track vector
// could be obtained at all.
func DefaultAggregate() AudioFeatures {
	return AudioFeatures{
		Acousticness:     0.5,
		Danceability:     0.7,
		Energy:           0.6,
		Instrumentalness: 0.1,
		Liveness:         0.2,
		Loudness:         -8,
		Speechiness:      0.1,
		Tempo:            DefaultTempo,
		Valence:          0.6,
		Key:              5,
		Mode:             1,
		TimeSignature:    4,
	}
}

// Sanitized returns a copy with every field forced into its valid domain.
func (f AudioFeatures) Sanitized() AudioFeatures {
	f.Acousticness = Clamp01(f.Acousticness)
	f.Danceability = Clamp01(f.Danceability)
	f.Energy = Clamp01(f.Energy)
	f.Instrumentalness = Clamp01(f.Instrumentalness)
	f.Liveness = Clamp01(f.Liveness)
	f.Speechiness = Clamp01(f.Speechiness)
	f.Valence = Clamp01(f.Valence)
	if !(f.Tempo > 0) || math.IsInf(f.Tempo, 0) {
		f.Tempo = DefaultTempo
	}
	if math.IsNaN(f.Loudness) || math.IsInf(f.Loudness, 0) {
		f.Loudness = -8
	}
	f.Key = SnapKey(float64(f.Key))
	f.Mode = SnapMode(float64(f.Mode))
	f.TimeSignature = SnapTimeSignature(float64(f.TimeSignature))
	return f
}

// SnapKey rounds an averaged pitch class and clamps it to 0..11.
func SnapKey(key float64) int {
	if math.IsNaN(key) {
		return 0
	}
	k := math.Round(key)
	if k < 0 {
		return 0
	}
	if k > 11 {
		return 11
	}
	return int(k)
}

// SnapMode maps an averaged mode to major (1) or minor (0).
func SnapMode(mode float64) int {
	if mode >= 0.5 {
		return 1
	}
	return 0
}

// SnapTimeSignature keeps 3 or 4 and maps everything else to 4.
func SnapTimeSignature(ts float64) int {
	switch math.Round(ts) {
	case 3:
		return 3
	case 4:
		return 4
	default:
		return 4
	}
}

// Clamp01 limits v to [0,1]; NaN becomes 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PartialFeatures carries whatever subset of a vector a heuristic source
// could determine. Nil fields are unknown.
type PartialFeatures struct {
	Tempo         *float64
	Key           *int
	Mode          *int
	TimeSignature *int
	Energy        *float64
	Loudness      *float64
}

// Empty reports whether no field is known.
func (p PartialFeatures) Empty() bool {
	return p.Tempo == nil && p.Key == nil && p.Mode == nil &&
		p.TimeSignature == nil && p.Energy == nil && p.Loudness == nil
}

// Merge returns p with unknown fields taken from other.
func (p PartialFeatures) Merge(other PartialFeatures) PartialFeatures {
	if p.Tempo == nil {
		p.Tempo = other.Tempo
	}
	if p.Key == nil {
		p.Key = other.Key
	}
	if p.Mode == nil {
		p.Mode = other.Mode
	}
	if p.TimeSignature == nil {
		p.TimeSignature = other.TimeSignature
	}
	if p.Energy == nil {
		p.Energy = other.Energy
	}
	if p.Loudness == nil {
		p.Loudness = other.Loudness
	}
	return p
}

// Apply overlays the known fields on base and sanitizes the result.
func (p PartialFeatures) Apply(base AudioFeatures) AudioFeatures {
	if p.Tempo != nil {
		base.Tempo = *p.Tempo
	}
	if p.Key != nil {
		base.Key = *p.Key
	}
	if p.Mode != nil {
		base.Mode = *p.Mode
	}
	if p.TimeSignature != nil {
		base.TimeSignature = *p.TimeSignature
	}
	if p.Energy != nil {
		base.Energy = *p.Energy
	}
	if p.Loudness != nil {
		base.Loudness = *p.Loudness
	}
	return base.Sanitized()
}
