package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/ewilliams-labs/timbre/internal/core/domain"
)

// ErrProviderUnavailable indicates a provider cannot serve any request in
// this process, e.g. because its credentials are not configured.
var ErrProviderUnavailable = errors.New("provider unavailable")

// ProviderUnavailableError names the provider and why it was skipped.
type ProviderUnavailableError struct {
	Provider string
	Reason   string
}

func (e ProviderUnavailableError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s", e.Provider, ErrProviderUnavailable)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, ErrProviderUnavailable, e.Reason)
}

func (e ProviderUnavailableError) Is(target error) bool {
	return target == ErrProviderUnavailable
}

// Payload is one provider's raw, untyped feature object.
type Payload = map[string]any

// BatchResult holds the payloads a batch call returned, keyed by track id,
// and the requested ids it did not answer.
type BatchResult struct {
	Payloads map[string]Payload
	Missing  []string
}

// BatchProvider resolves features for many track ids in one call.
type BatchProvider interface {
	Name() string
	MaxBatch() int
	FetchBatch(ctx context.Context, ids []string) (BatchResult, error)
}

// SingleProvider resolves features for one track id per call.
type SingleProvider interface {
	Name() string
	FetchOne(ctx context.Context, id string) (Payload, error)
}

// HeuristicProvider looks a track up by title and artist and returns
// whatever subset of features it can find.
type HeuristicProvider interface {
	Name() string
	Lookup(ctx context.Context, title, artist string) (domain.PartialFeatures, error)
}

// PreviewAnalyzer derives partial features from a track's audio preview.
type PreviewAnalyzer interface {
	Analyze(ctx context.Context, previewURL string) (domain.PartialFeatures, error)
}

// FeatureGenerator produces plausible synthetic vectors.
type FeatureGenerator interface {
	Generate(seed string, n int) []domain.AudioFeatures
}
