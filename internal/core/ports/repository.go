package ports

import (
	"context"

	"github.com/ewilliams-labs/timbre/internal/core/domain"
)

// ProfileRepository persists artist aggregates.
type ProfileRepository interface {
	GetProfile(ctx context.Context, artistID string) (domain.ArtistProfile, error)
	SaveProfile(ctx context.Context, p domain.ArtistProfile) (domain.ArtistProfile, error)
}
