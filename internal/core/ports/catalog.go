package ports

import (
	"context"

	"github.com/ewilliams-labs/timbre/internal/core/domain"
)

// Catalog supplies an artist's metadata and ordered top tracks.
type Catalog interface {
	TopTracks(ctx context.Context, artistID string) ([]domain.TrackRef, error)
	Artist(ctx context.Context, artistID string) (domain.Artist, error)
}
