package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ewilliams-labs/timbre/internal/core/domain"
	"github.com/ewilliams-labs/timbre/internal/progress"
)

func TestProfileService_Profile(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fresh := domain.ArtistProfile{ID: "p1", Artist: domain.Artist{ID: "a1", Name: "Cached"}, UpdatedAt: now.Add(-time.Hour)}
	stale := domain.ArtistProfile{ID: "p1", Artist: domain.Artist{ID: "a1", Name: "Cached"}, UpdatedAt: now.Add(-25 * time.Hour)}
	resolved := domain.Aggregate{Features: domain.DefaultAggregate(), Contributors: 8, Requested: 8, Source: domain.SourceProvider}

	tests := []struct {
		name        string
		cached      *domain.ArtistProfile
		force       bool
		resolverErr error
		artistErr   error
		wantStatus  CacheStatus
		wantName    string
		wantErr     bool
		wantResolve int
	}{
		{
			name:        "fresh cache is served",
			cached:      &fresh,
			wantStatus:  CacheHit,
			wantName:    "Cached",
			wantResolve: 0,
		},
		{
			name:        "stale cache is refreshed",
			cached:      &stale,
			wantStatus:  CacheMiss,
			wantName:    "Live",
			wantResolve: 1,
		},
		{
			name:        "force refreshes fresh cache",
			cached:      &fresh,
			force:       true,
			wantStatus:  CacheMiss,
			wantName:    "Live",
			wantResolve: 1,
		},
		{
			name:        "no cache resolves",
			wantStatus:  CacheMiss,
			wantName:    "Live",
			wantResolve: 1,
		},
		{
			name:        "refresh failure falls back to stale cache",
			cached:      &stale,
			resolverErr: ErrCatalogUnavailable,
			wantStatus:  CacheStale,
			wantName:    "Cached",
			wantResolve: 1,
		},
		{
			name:        "refresh failure without cache is an error",
			resolverErr: ErrCatalogUnavailable,
			wantErr:     true,
			wantResolve: 1,
		},
		{
			name:        "unknown artist",
			artistErr:   domain.ErrNotFound,
			wantErr:     true,
			wantResolve: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockRepo{profiles: map[string]domain.ArtistProfile{}}
			if tc.cached != nil {
				repo.profiles["a1"] = *tc.cached
			}
			resolver := &mockResolver{agg: resolved, err: tc.resolverErr}
			catalog := &mockCatalog{artist: domain.Artist{ID: "a1", Name: "Live"}, artistErr: tc.artistErr}

			svc := NewProfileService(repo, catalog, resolver, newRecordingTracker(), 0)
			svc.now = func() time.Time { return now }

			got, status, err := svc.Profile(context.Background(), "a1", 8, tc.force)
			if (err != nil) != tc.wantErr {
				t.Fatalf("error: got %v, wantErr %v", err, tc.wantErr)
			}
			if resolver.calls != tc.wantResolve {
				t.Errorf("resolve calls: got %d, want %d", resolver.calls, tc.wantResolve)
			}
			if tc.wantErr {
				return
			}
			if status != tc.wantStatus {
				t.Errorf("status: got %s, want %s", status, tc.wantStatus)
			}
			if got.Artist.Name != tc.wantName {
				t.Errorf("artist: got %q, want %q", got.Artist.Name, tc.wantName)
			}
		})
	}
}

func TestProfileService_RefreshStoresProfile(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := &mockRepo{}
	agg := domain.Aggregate{Features: domain.DefaultAggregate(), Contributors: 3, Requested: 8, Source: domain.SourceProvider, RunID: "run-1"}
	svc := NewProfileService(repo, &mockCatalog{artist: domain.Artist{Name: "Live", Genres: []string{"pop"}}}, &mockResolver{agg: agg}, nil, time.Hour)
	svc.now = func() time.Time { return now }

	got, err := svc.Refresh(context.Background(), "a1", 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.saves != 1 {
		t.Fatalf("saves: got %d, want 1", repo.saves)
	}
	if got.Artist.ID != "a1" || got.Aggregate.RunID != "run-1" || !got.UpdatedAt.Equal(now) {
		t.Errorf("profile: got %+v", got)
	}

	cached, err := svc.Cached(context.Background(), "a1")
	if err != nil {
		t.Fatalf("cached: %v", err)
	}
	if cached.ID != got.ID {
		t.Errorf("cached id: got %q, want %q", cached.ID, got.ID)
	}
}

func TestProfileService_ArtistFailureMarksProgress(t *testing.T) {
	tracker := newRecordingTracker()
	svc := NewProfileService(&mockRepo{}, &mockCatalog{artistErr: errors.New("token expired")}, &mockResolver{}, tracker, 0)

	_, err := svc.Refresh(context.Background(), "a1", 8)
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
	if got := tracker.Get("a1"); got.Phase != domain.PhaseError || got.Message == "" {
		t.Errorf("progress: got %+v", got)
	}
}

func TestProfileService_CachedMissing(t *testing.T) {
	svc := NewProfileService(&mockRepo{}, &mockCatalog{}, &mockResolver{}, nil, 0)

	_, err := svc.Cached(context.Background(), "nobody")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProfileService_RefreshResetsProgressBeforeCatalog(t *testing.T) {
	tracker := newRecordingTracker()
	tracker.Set("a1", progress.Run("old"), progress.Phase(domain.PhaseDone), progress.Total(8), progress.Position(8))

	var seen domain.Progress
	catalog := &mockCatalog{onArtist: func(id string) { seen = tracker.Get(id) }}
	svc := NewProfileService(&mockRepo{}, catalog, &mockResolver{}, tracker, 0)

	if _, err := svc.Refresh(context.Background(), "a1", 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen.Phase != domain.PhaseFetching || seen.Position != 0 || seen.Total != 0 || seen.RunID != "" {
		t.Errorf("progress during artist lookup: got %+v", seen)
	}
}

func TestProfileService_Ensure(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fresh := domain.ArtistProfile{ID: "p1", Artist: domain.Artist{ID: "a1", Name: "Cached"}, UpdatedAt: now.Add(-time.Hour)}

	tests := []struct {
		name        string
		force       bool
		wantName    string
		wantResolve int
		wantMessage string
	}{
		{name: "fresh cache is served", wantName: "Cached", wantResolve: 0, wantMessage: "served from cache"},
		{name: "force resolves", force: true, wantName: "Live", wantResolve: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockRepo{profiles: map[string]domain.ArtistProfile{"a1": fresh}}
			resolver := &mockResolver{agg: domain.Aggregate{Features: domain.DefaultAggregate(), Source: domain.SourceProvider}}
			tracker := newRecordingTracker()
			tracker.Set("a1", progress.Phase(domain.PhaseIdle), progress.Message("queued"))

			svc := NewProfileService(repo, &mockCatalog{artist: domain.Artist{Name: "Live"}}, resolver, tracker, time.Hour)
			svc.now = func() time.Time { return now }

			got, err := svc.Ensure(context.Background(), "a1", 8, tc.force)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Artist.Name != tc.wantName {
				t.Errorf("artist: got %q, want %q", got.Artist.Name, tc.wantName)
			}
			if resolver.calls != tc.wantResolve {
				t.Errorf("resolve calls: got %d, want %d", resolver.calls, tc.wantResolve)
			}
			if tc.wantResolve == 0 {
				if p := tracker.Get("a1"); p.Phase != domain.PhaseDone || p.Message != tc.wantMessage {
					t.Errorf("progress: got %+v", p)
				}
			}
		})
	}
}
