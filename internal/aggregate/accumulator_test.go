package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/timbre/internal/core/domain"
	"github.com/ewilliams-labs/timbre/internal/normalize"
)

func vector(energy float64) domain.AudioFeatures {
	v := normalize.Defaults()
	v.Energy = energy
	return v
}

func ptr(v float64) *float64 { return &v }

func TestEmptyReturnsDefaultAggregate(t *testing.T) {
	var acc Accumulator

	assert.Equal(t, domain.DefaultAggregate(), acc.Result())
	assert.Zero(t, acc.Count())

	mean, n := Mean(nil)
	assert.Equal(t, domain.DefaultAggregate(), mean)
	assert.Zero(t, n)
}

func TestMeanOfEnergies(t *testing.T) {
	a, b, c := vector(0.2), vector(0.4), vector(0.6)

	mean, n := Mean([]*domain.AudioFeatures{&a, nil, &b, &c})

	require.Equal(t, 3, n)
	assert.InDelta(t, 0.4, mean.Energy, 1e-9)
	assert.InDelta(t, normalize.DefaultDanceability, mean.Danceability, 1e-9)
}

func TestRunningMeanMatchesArithmeticMean(t *testing.T) {
	tempos := []float64{90, 128, 140, 101.5, 174, 60, 122, 99}
	var acc Accumulator
	sum := 0.0
	for _, tempo := range tempos {
		v := normalize.Defaults()
		v.Tempo = tempo
		v.Loudness = -tempo / 10
		acc.Add(v)
		sum += tempo
	}

	got := acc.Result()
	want := sum / float64(len(tempos))
	assert.Equal(t, len(tempos), acc.Count())
	assert.InDelta(t, want, got.Tempo, 1e-9)
	assert.InDelta(t, -want/10, got.Loudness, 1e-9)
}

func TestDiscreteFieldsSnap(t *testing.T) {
	tests := []struct {
		name   string
		keys   []int
		modes  []int
		meters []int
		key    int
		mode   int
		meter  int
	}{
		{
			name:   "key rounds up",
			keys:   []int{11, 11, 10},
			modes:  []int{1, 0, 0},
			meters: []int{3, 3, 4},
			key:    11,
			mode:   0,
			meter:  3,
		},
		{
			name:   "tie goes major and to four",
			keys:   []int{0, 1},
			modes:  []int{0, 1},
			meters: []int{3, 4},
			key:    1,
			mode:   1,
			meter:  4,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var acc Accumulator
			for i := range tc.keys {
				v := normalize.Defaults()
				v.Key = tc.keys[i]
				v.Mode = tc.modes[i]
				v.TimeSignature = tc.meters[i]
				acc.Add(v)
			}

			got := acc.Result()
			assert.Equal(t, tc.key, got.Key)
			assert.Equal(t, tc.mode, got.Mode)
			assert.Equal(t, tc.meter, got.TimeSignature)
		})
	}
}

func TestExtrasUseOwnCounts(t *testing.T) {
	a := vector(0.5)
	a.Popularity = ptr(80)
	a.DurationMs = ptr(200000)
	b := vector(0.5)
	b.Popularity = ptr(40)
	c := vector(0.5)

	mean, n := Mean([]*domain.AudioFeatures{&a, &b, &c})

	require.Equal(t, 3, n)
	require.NotNil(t, mean.Popularity)
	require.NotNil(t, mean.DurationMs)
	assert.InDelta(t, 60, *mean.Popularity, 1e-9)
	assert.InDelta(t, 200000, *mean.DurationMs, 1e-9)
}

func TestExtrasAbsentWhenNobodyReports(t *testing.T) {
	a, b := vector(0.1), vector(0.3)

	mean, _ := Mean([]*domain.AudioFeatures{&a, &b})

	assert.Nil(t, mean.Popularity)
	assert.Nil(t, mean.DurationMs)
}
