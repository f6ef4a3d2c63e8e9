// Package aggregate averages per-track feature vectors into one artist vector.
package aggregate

import "github.com/ewilliams-labs/timbre/internal/core/domain"

// Accumulator keeps a running mean of every feature. The zero value is ready
// to use.
type Accumulator struct {
	n   int
	acc [12]float64

	popularity runningMean
	duration   runningMean
}

type runningMean struct {
	n   int
	acc float64
}

func (m *runningMean) add(v float64) {
	m.acc = step(m.acc, v, m.n)
	m.n++
}

// step folds v into a mean of i values.
func step(acc, v float64, i int) float64 {
	return (acc*float64(i) + v) / float64(i+1)
}

// Add folds one vector into the mean.
func (a *Accumulator) Add(v domain.AudioFeatures) {
	fields := [12]float64{
		v.Acousticness,
		v.Danceability,
		v.Energy,
		v.Instrumentalness,
		v.Liveness,
		v.Loudness,
		v.Speechiness,
		v.Tempo,
		v.Valence,
		float64(v.Key),
		float64(v.Mode),
		float64(v.TimeSignature),
	}
	for i, f := range fields {
		a.acc[i] = step(a.acc[i], f, a.n)
	}
	a.n++

	if v.Popularity != nil {
		a.popularity.add(*v.Popularity)
	}
	if v.DurationMs != nil {
		a.duration.add(*v.DurationMs)
	}
}

// Count returns the number of vectors added so far.
func (a *Accumulator) Count() int {
	return a.n
}

// Result returns the sanitized mean, or the sanitized default aggregate when
// nothing was added.
func (a *Accumulator) Result() domain.AudioFeatures {
	if a.n == 0 {
		return domain.DefaultAggregate().Sanitized()
	}

	out := domain.AudioFeatures{
		Acousticness:     a.acc[0],
		Danceability:     a.acc[1],
		Energy:           a.acc[2],
		Instrumentalness: a.acc[3],
		Liveness:         a.acc[4],
		Loudness:         a.acc[5],
		Speechiness:      a.acc[6],
		Tempo:            a.acc[7],
		Valence:          a.acc[8],
		Key:              domain.SnapKey(a.acc[9]),
		Mode:             domain.SnapMode(a.acc[10]),
		TimeSignature:    domain.SnapTimeSignature(a.acc[11]),
	}
	if a.popularity.n > 0 {
		pop := a.popularity.acc
		out.Popularity = &pop
	}
	if a.duration.n > 0 {
		dur := a.duration.acc
		out.DurationMs = &dur
	}
	return out.Sanitized()
}

// Mean averages the non-nil vectors and reports how many contributed.
func Mean(vectors []*domain.AudioFeatures) (domain.AudioFeatures, int) {
	var acc Accumulator
	for _, v := range vectors {
		if v != nil {
			acc.Add(*v)
		}
	}
	return acc.Result(), acc.Count()
}
