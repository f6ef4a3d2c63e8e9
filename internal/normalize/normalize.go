// Package normalize converts raw provider payloads into domain feature
// vectors. It performs no I/O and never fails: anything it cannot read is
// replaced by a per-field default describing a generic mid-energy pop track.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/ewilliams-labs/timbre/internal/core/domain"
)

// Per-field fallbacks.
const (
	DefaultAcousticness     = 0.3
	DefaultDanceability     = 0.6
	DefaultEnergy           = 0.6
	DefaultInstrumentalness = 0.1
	DefaultLiveness         = 0.2
	DefaultSpeechiness      = 0.15
	DefaultValence          = 0.55
	DefaultTempo            = domain.DefaultTempo
	DefaultLoudness         = -8.0
	DefaultKey              = 0
	DefaultMode             = 1
	DefaultTimeSignature    = 4
)

var pitchClasses = map[string]int{
	"C":  0,
	"C#": 1,
	"Db": 1,
	"D":  2,
	"D#": 3,
	"Eb": 3,
	"E":  4,
	"F":  5,
	"F#": 6,
	"Gb": 6,
	"G":  7,
	"G#": 8,
	"Ab": 8,
	"A":  9,
	"A#": 10,
	"Bb": 10,
	"B":  11,
}

// Features normalizes one provider payload.
func Features(payload map[string]any) domain.AudioFeatures {
	valence, ok := payload["valence"]
	if !ok || valence == nil {
		valence = payload["happiness"]
	}

	f := domain.AudioFeatures{
		Acousticness:     fraction(payload["acousticness"], DefaultAcousticness),
		Danceability:     fraction(payload["danceability"], DefaultDanceability),
		Energy:           fraction(payload["energy"], DefaultEnergy),
		Instrumentalness: fraction(payload["instrumentalness"], DefaultInstrumentalness),
		Liveness:         fraction(payload["liveness"], DefaultLiveness),
		Speechiness:      fraction(payload["speechiness"], DefaultSpeechiness),
		Valence:          fraction(valence, DefaultValence),
		Tempo:            tempo(payload["tempo"]),
		Loudness:         loudness(payload["loudness"]),
		Key:              key(payload["key"]),
		Mode:             mode(payload["mode"]),
		TimeSignature:    timeSignature(payload["time_signature"]),
	}

	if pop, ok := number(payload["popularity"]); ok {
		pop = math.Max(0, math.Min(100, pop))
		f.Popularity = &pop
	}
	if dur, ok := number(payload["duration_ms"]); ok && dur > 0 {
		f.DurationMs = &dur
	}

	return f
}

// Defaults returns the vector produced for an empty payload.
func Defaults() domain.AudioFeatures {
	return Features(nil)
}

// PitchClass maps a note name such as "F#" or "Bb" to 0..11.
func PitchClass(note string) (int, bool) {
	pc, ok := pitchClasses[strings.TrimSpace(note)]
	return pc, ok
}

func fraction(raw any, fallback float64) float64 {
	v, ok := number(raw)
	if !ok {
		return fallback
	}
	if v > 1 {
		v /= 100
	}
	return domain.Clamp01(v)
}

func tempo(raw any) float64 {
	v, ok := number(raw)
	if !ok || v <= 0 {
		return DefaultTempo
	}
	return v
}

func loudness(raw any) float64 {
	if s, isString := raw.(string); isString {
		s = strings.TrimSpace(s)
		if len(s) >= 2 && strings.EqualFold(s[len(s)-2:], "db") {
			s = strings.TrimSpace(s[:len(s)-2])
		}
		raw = s
	}
	v, ok := number(raw)
	if !ok {
		return DefaultLoudness
	}
	return v
}

func key(raw any) int {
	if s, isString := raw.(string); isString {
		if pc, ok := PitchClass(s); ok {
			return pc
		}
	}
	v, ok := number(raw)
	if !ok {
		return DefaultKey
	}
	k := math.Round(v)
	if k < 0 || k > 11 {
		return DefaultKey
	}
	return int(k)
}

func mode(raw any) int {
	if s, isString := raw.(string); isString {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "major":
			return 1
		case "minor":
			return 0
		}
	}
	v, ok := number(raw)
	if !ok {
		return DefaultMode
	}
	switch math.Round(v) {
	case 0:
		return 0
	case 1:
		return 1
	default:
		return DefaultMode
	}
}

func timeSignature(raw any) int {
	v, ok := number(raw)
	if !ok {
		return DefaultTimeSignature
	}
	switch math.Round(v) {
	case 3:
		return 3
	case 4:
		return 4
	default:
		return DefaultTimeSignature
	}
}

// number reads JSON numbers and numeric strings ("65", "65%", " 120.5 ").
func number(raw any) (float64, bool) {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(n), "%")
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		v = parsed
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
