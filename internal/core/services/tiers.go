package services

import (
	"github.com/ewilliams-labs/timbre/internal/core/ports"
	"github.com/ewilliams-labs/timbre/internal/worker"
)

// Tier is one step of the provider chain. The concrete types are
// BatchTier, SingleTier, HeuristicTier and SyntheticTier.
type Tier interface {
	tierName() string
}

// BatchTier resolves many tracks per call.
type BatchTier struct {
	Provider ports.BatchProvider
}

// SingleTier resolves one track per call. Lookups for tracks earlier tiers
// missed are started together through Dispatcher and consumed in order.
type SingleTier struct {
	Provider   ports.SingleProvider
	Dispatcher *worker.Dispatcher
}

// HeuristicTier estimates tempo, key and mode from a title search and,
// when a preview clip is known, energy and loudness from the audio. It only
// runs when no per-track tier produced anything.
type HeuristicTier struct {
	Provider ports.HeuristicProvider
	Preview  ports.PreviewAnalyzer
}

// SyntheticTier generates plausible vectors as a last resort.
type SyntheticTier struct {
	Generator ports.FeatureGenerator
}

func (t BatchTier) tierName() string  { return t.Provider.Name() }
func (t SingleTier) tierName() string { return t.Provider.Name() }
func (t SyntheticTier) tierName() string {
	return "synthetic"
}

func (t HeuristicTier) tierName() string {
	if t.Provider != nil {
		return t.Provider.Name()
	}
	return "preview"
}

func (t SingleTier) dispatcher() *worker.Dispatcher {
	if t.Dispatcher == nil {
		return worker.NewDispatcher(0, nil)
	}
	return t.Dispatcher
}
