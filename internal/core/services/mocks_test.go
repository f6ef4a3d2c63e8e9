package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/ewilliams-labs/timbre/internal/core/domain"
	"github.com/ewilliams-labs/timbre/internal/core/ports"
	"github.com/ewilliams-labs/timbre/internal/progress"
)

// --- Catalog ---

type mockCatalog struct {
	tracks    []domain.TrackRef
	err       error
	artist    domain.Artist
	artistErr error
	// onArtist runs at the start of every Artist call.
	onArtist func(artistID string)
}

func (m *mockCatalog) TopTracks(ctx context.Context, artistID string) ([]domain.TrackRef, error) {
	return m.tracks, m.err
}

func (m *mockCatalog) Artist(ctx context.Context, artistID string) (domain.Artist, error) {
	if m.onArtist != nil {
		m.onArtist(artistID)
	}
	if m.artistErr != nil {
		return domain.Artist{}, m.artistErr
	}
	a := m.artist
	if a.ID == "" {
		a.ID = artistID
	}
	return a, nil
}

func makeTracks(n int) []domain.TrackRef {
	tracks := make([]domain.TrackRef, n)
	for i := range tracks {
		tracks[i] = domain.TrackRef{
			ID:         fmt.Sprintf("t%d", i+1),
			Name:       fmt.Sprintf("Song %d", i+1),
			ArtistName: "Artist",
			PreviewURL: fmt.Sprintf("https://p/%d.mp3", i+1),
		}
	}
	return tracks
}

// payloadFor gives every track a distinct, already canonical payload.
func payloadFor(id string) ports.Payload {
	var n int
	_, _ = fmt.Sscanf(id, "t%d", &n)
	return ports.Payload{
		"energy":       0.1 * float64(n%10),
		"danceability": 0.05 * float64(n),
		"tempo":        100.0 + float64(n),
		"loudness":     -float64(n),
		"key":          float64(n % 12),
		"mode":         float64(n % 2),
	}
}

// --- Providers ---

type mockBatch struct {
	mu      sync.Mutex
	answer  map[string]bool // ids answered; nil answers all
	err     error
	calls   [][]string
	maxSize int
}

func (m *mockBatch) Name() string { return "batch" }

func (m *mockBatch) MaxBatch() int {
	if m.maxSize == 0 {
		return 40
	}
	return m.maxSize
}

func (m *mockBatch) FetchBatch(ctx context.Context, ids []string) (ports.BatchResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), ids...))
	m.mu.Unlock()

	res := ports.BatchResult{Payloads: map[string]ports.Payload{}}
	if m.err != nil {
		return res, m.err
	}
	for _, id := range ids {
		if m.answer == nil || m.answer[id] {
			res.Payloads[id] = payloadFor(id)
		} else {
			res.Missing = append(res.Missing, id)
		}
	}
	return res, nil
}

type mockSingle struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (m *mockSingle) Name() string { return "single" }

func (m *mockSingle) FetchOne(ctx context.Context, id string) (ports.Payload, error) {
	m.mu.Lock()
	m.calls = append(m.calls, id)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return payloadFor(id), nil
}

func (m *mockSingle) called() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type mockHeuristic struct {
	partial domain.PartialFeatures
	err     error
	calls   int
}

func (m *mockHeuristic) Name() string { return "heuristic" }

func (m *mockHeuristic) Lookup(ctx context.Context, title, artist string) (domain.PartialFeatures, error) {
	m.calls++
	return m.partial, m.err
}

type mockPreview struct {
	partial domain.PartialFeatures
	err     error
	calls   int
}

func (m *mockPreview) Analyze(ctx context.Context, previewURL string) (domain.PartialFeatures, error) {
	m.calls++
	return m.partial, m.err
}

// --- Progress ---

// recordingTracker keeps a real store and remembers every distinct phase
// and position it saw, in order.
type recordingTracker struct {
	store     *progress.Store
	mu        sync.Mutex
	phases    []domain.Phase
	positions []int
}

func newRecordingTracker() *recordingTracker {
	return &recordingTracker{store: progress.New()}
}

func (r *recordingTracker) Set(artistID string, updates ...ports.ProgressUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := r.store.Get(artistID)
	r.store.Set(artistID, updates...)
	after := r.store.Get(artistID)
	if len(r.phases) == 0 || after.Phase != before.Phase {
		r.phases = append(r.phases, after.Phase)
	}
	if after.Position != before.Position {
		r.positions = append(r.positions, after.Position)
	}
}

func (r *recordingTracker) Get(artistID string) domain.Progress {
	return r.store.Get(artistID)
}

// --- Repository ---

type mockRepo struct {
	profiles map[string]domain.ArtistProfile
	getErr   error
	saveErr  error
	saves    int
}

func (m *mockRepo) GetProfile(ctx context.Context, artistID string) (domain.ArtistProfile, error) {
	if m.getErr != nil {
		return domain.ArtistProfile{}, m.getErr
	}
	p, ok := m.profiles[artistID]
	if !ok {
		return domain.ArtistProfile{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) SaveProfile(ctx context.Context, p domain.ArtistProfile) (domain.ArtistProfile, error) {
	if m.saveErr != nil {
		return domain.ArtistProfile{}, m.saveErr
	}
	m.saves++
	if p.ID == "" {
		p.ID = "profile-" + p.Artist.ID
	}
	if m.profiles == nil {
		m.profiles = map[string]domain.ArtistProfile{}
	}
	m.profiles[p.Artist.ID] = p
	return p, nil
}

type mockResolver struct {
	agg   domain.Aggregate
	err   error
	calls int
}

func (m *mockResolver) Resolve(ctx context.Context, artistID string, limit int) (domain.Aggregate, error) {
	m.calls++
	return m.agg, m.err
}
