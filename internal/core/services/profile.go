package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ewilliams-labs/timbre/internal/core/domain"
	"github.com/ewilliams-labs/timbre/internal/core/ports"
	"github.com/ewilliams-labs/timbre/internal/progress"
)

// DefaultProfileTTL is how long a cached profile is served without refresh.
const DefaultProfileTTL = 24 * time.Hour

// CacheStatus says where a profile came from.
type CacheStatus string

const (
	CacheHit   CacheStatus = "hit"
	CacheMiss  CacheStatus = "miss"
	CacheStale CacheStatus = "stale"
)

// Resolver produces an aggregate for an artist.
type Resolver interface {
	Resolve(ctx context.Context, artistID string, limit int) (domain.Aggregate, error)
}

// ProfileService serves artist profiles from the repository and refreshes
// them through the Resolver once they are older than the TTL.
type ProfileService struct {
	repo     ports.ProfileRepository
	catalog  ports.Catalog
	resolver Resolver
	progress ports.ProgressTracker
	ttl      time.Duration
	now      func() time.Time
}

// NewProfileService constructs a ProfileService. ttl <= 0 uses the default.
func NewProfileService(repo ports.ProfileRepository, catalog ports.Catalog, resolver Resolver, tracker ports.ProgressTracker, ttl time.Duration) *ProfileService {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &ProfileService{
		repo:     repo,
		catalog:  catalog,
		resolver: resolver,
		progress: tracker,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Cached returns the stored profile without refreshing it.
func (s *ProfileService) Cached(ctx context.Context, artistID string) (domain.ArtistProfile, error) {
	p, err := s.repo.GetProfile(ctx, artistID)
	if err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("service: failed to load profile: %w", err)
	}
	return p, nil
}

// Fresh returns the stored profile when it is younger than the TTL.
func (s *ProfileService) Fresh(ctx context.Context, artistID string) (domain.ArtistProfile, bool) {
	p, err := s.repo.GetProfile(ctx, artistID)
	if err != nil || p.Stale(s.now(), s.ttl) {
		return domain.ArtistProfile{}, false
	}
	return p, true
}

// Profile returns a fresh profile, resolving a new one when none is cached,
// the cached one is older than the TTL, or force is set. If the refresh
// fails and an older profile exists, that profile is returned instead.
func (s *ProfileService) Profile(ctx context.Context, artistID string, limit int, force bool) (domain.ArtistProfile, CacheStatus, error) {
	cached, err := s.repo.GetProfile(ctx, artistID)
	haveCached := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Printf("WARN service: failed to read cached profile for %s: %v", artistID, err)
	}
	if haveCached && !force && !cached.Stale(s.now(), s.ttl) {
		return cached, CacheHit, nil
	}

	fresh, err := s.Refresh(ctx, artistID, limit)
	if err != nil {
		if haveCached {
			log.Printf("WARN service: refresh failed for %s, serving cached profile: %v", artistID, err)
			return cached, CacheStale, nil
		}
		return domain.ArtistProfile{}, CacheMiss, err
	}
	return fresh, CacheMiss, nil
}

// Ensure is Profile for background jobs. No run starts on a cache hit, so
// the hit itself marks the artist's progress done.
func (s *ProfileService) Ensure(ctx context.Context, artistID string, limit int, force bool) (domain.ArtistProfile, error) {
	p, status, err := s.Profile(ctx, artistID, limit, force)
	if err != nil {
		return domain.ArtistProfile{}, err
	}
	if status == CacheHit && s.progress != nil {
		s.progress.Set(artistID, progress.Phase(domain.PhaseDone), progress.Message("served from cache"))
	}
	return p, nil
}

// Refresh fetches artist metadata, resolves a new aggregate and stores it.
func (s *ProfileService) Refresh(ctx context.Context, artistID string, limit int) (domain.ArtistProfile, error) {
	if s.progress != nil {
		s.progress.Set(artistID,
			progress.Run(""),
			progress.Phase(domain.PhaseFetching),
			progress.Position(0),
			progress.Total(0),
			progress.Track(""),
			progress.Message(""),
		)
	}
	artist, err := s.catalog.Artist(ctx, artistID)
	if err != nil {
		if s.progress != nil {
			s.progress.Set(artistID, progress.Phase(domain.PhaseError), progress.Message(err.Error()))
		}
		return domain.ArtistProfile{}, fmt.Errorf("service: failed to fetch artist: %w", errors.Join(ErrCatalogUnavailable, err))
	}
	if artist.ID == "" {
		artist.ID = artistID
	}

	agg, err := s.resolver.Resolve(ctx, artistID, limit)
	if err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("service: failed to resolve features: %w", err)
	}

	saved, err := s.repo.SaveProfile(ctx, domain.ArtistProfile{
		Artist:    artist,
		Aggregate: agg,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("service: failed to save profile: %w", err)
	}
	return saved, nil
}
