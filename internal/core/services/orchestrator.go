package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/timbre/internal/aggregate"
	"github.com/ewilliams-labs/timbre/internal/core/domain"
	"github.com/ewilliams-labs/timbre/internal/core/ports"
	"github.com/ewilliams-labs/timbre/internal/normalize"
	"github.com/ewilliams-labs/timbre/internal/progress"
	"github.com/ewilliams-labs/timbre/internal/worker"
)

// ErrCatalogUnavailable means the artist's track list could not be read, so
// no aggregate was produced.
var ErrCatalogUnavailable = errors.New("service: catalog unavailable")

const (
	DefaultLimit = 8
	MaxLimit     = 10
)

// Policy tunes the provider chain.
type Policy struct {
	// DefaultLimit applies when Resolve is called with limit <= 0.
	DefaultLimit int
	// FillMissing sends tracks a batch tier missed on to the following
	// per-track tiers. When false those tiers only run if the batch tiers
	// resolved nothing.
	FillMissing bool
	// SyntheticFallback enables the SyntheticTier.
	SyntheticFallback bool
}

// DefaultPolicy returns the production policy.
func DefaultPolicy() Policy {
	return Policy{DefaultLimit: DefaultLimit, FillMissing: true, SyntheticFallback: true}
}

// Orchestrator resolves an artist's aggregate audio features from its top
// tracks and reports progress while doing so.
type Orchestrator struct {
	catalog  ports.Catalog
	progress ports.ProgressTracker
	tiers    []Tier
	policy   Policy
	newRunID func() string
}

// NewOrchestrator constructs an Orchestrator. Tiers are tried in the given
// order.
func NewOrchestrator(catalog ports.Catalog, tracker ports.ProgressTracker, policy Policy, tiers ...Tier) *Orchestrator {
	if policy.DefaultLimit <= 0 {
		policy.DefaultLimit = DefaultLimit
	}
	return &Orchestrator{
		catalog:  catalog,
		progress: tracker,
		tiers:    tiers,
		policy:   policy,
		newRunID: uuid.NewString,
	}
}

// ClampLimit maps a requested subset size into 1..MaxLimit, substituting
// def for non-positive values.
func ClampLimit(limit, def int) int {
	if limit <= 0 {
		limit = def
	}
	if limit < 1 {
		return 1
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// slot is the per-track state of one run.
type slot struct {
	track  domain.TrackRef
	vec    *domain.AudioFeatures
	future *worker.Future
	// futureTier is the tier that owns future.
	futureTier int
	// next is the first tier still to try inline.
	next int
}

// run holds the state of one Resolve call.
type run struct {
	o        *Orchestrator
	artistID string
	id       string
	slots    []slot
	disabled map[int]bool
	// perIDDone stops per-track tiers once FillMissing is off and a batch
	// tier already produced data.
	perIDDone bool
}

// Resolve runs the state machine for one artist. Provider failures never
// surface as errors; only a missing track list (ErrCatalogUnavailable) or a
// cancelled context do.
func (o *Orchestrator) Resolve(ctx context.Context, artistID string, limit int) (domain.Aggregate, error) {
	r := &run{o: o, artistID: artistID, id: o.newRunID(), disabled: make(map[int]bool)}

	o.progress.Set(artistID,
		progress.Run(r.id),
		progress.Phase(domain.PhaseFetching),
		progress.Position(0),
		progress.Total(0),
		progress.Track(""),
		progress.Message(""),
	)

	tracks, err := o.catalog.TopTracks(ctx, artistID)
	if err != nil {
		o.progress.Set(artistID, progress.Phase(domain.PhaseError), progress.Message(err.Error()))
		return domain.Aggregate{}, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	n := ClampLimit(limit, o.policy.DefaultLimit)
	if n > len(tracks) {
		n = len(tracks)
	}
	r.slots = make([]slot, n)
	for i := range r.slots {
		r.slots[i].track = tracks[i]
	}

	o.progress.Set(artistID, progress.Phase(domain.PhaseAnalyzing), progress.Total(n), progress.Position(0))

	r.prefetch(ctx)

	vectors := make([]*domain.AudioFeatures, 0, n)
	for i := range r.slots {
		if err := ctx.Err(); err != nil {
			return domain.Aggregate{}, fmt.Errorf("service: resolution abandoned: %w", err)
		}
		s := &r.slots[i]
		o.progress.Set(artistID, progress.Position(i+1), progress.Track(s.track.Name))
		r.resolveSlot(ctx, s)
		vectors = append(vectors, s.vec)
	}

	source := domain.SourceProvider
	if countResolved(vectors) == 0 {
		vectors, source = r.fallback(ctx, vectors)
	}
	if err := ctx.Err(); err != nil {
		return domain.Aggregate{}, fmt.Errorf("service: resolution abandoned: %w", err)
	}

	o.progress.Set(artistID, progress.Phase(domain.PhaseAveraging), progress.Track(""))

	features, contributors := aggregate.Mean(vectors)
	if contributors == 0 {
		source = domain.SourceDefault
	}
	result := domain.Aggregate{
		Features:     features,
		Contributors: contributors,
		Requested:    n,
		Source:       source,
		RunID:        r.id,
	}

	o.progress.Set(artistID, progress.Phase(domain.PhaseDone), progress.Message(""))
	log.Printf("DEBUG service: resolved artist %s from %d/%d tracks via %s", artistID, contributors, n, source)

	return result, nil
}

// prefetch runs the leading batch tiers for every track and starts the
// first single tier's lookups for whatever they missed.
func (r *run) prefetch(ctx context.Context) {
	for ti, tier := range r.o.tiers {
		pending := r.pending()
		if len(pending) == 0 {
			return
		}
		switch t := tier.(type) {
		case BatchTier:
			r.fetchBatch(ctx, ti, t, pending)
			for _, i := range pending {
				r.slots[i].next = ti + 1
			}
			if !r.o.policy.FillMissing && len(pending) != len(r.pending()) {
				r.perIDDone = true
				return
			}
		case SingleTier:
			if r.disabled[ti] {
				continue
			}
			ids := make([]string, len(pending))
			for k, i := range pending {
				ids[k] = r.slots[i].track.ID
			}
			futures := t.dispatcher().Prefetch(ctx, ids, t.Provider.FetchOne)
			for k, i := range pending {
				r.slots[i].future = futures[k]
				r.slots[i].futureTier = ti
				r.slots[i].next = ti + 1
			}
			return
		default:
			// Fallback tiers only run after the per-track loop.
			return
		}
	}
}

// resolveSlot awaits the slot's prefetched lookup and then falls through
// the remaining per-track tiers for it.
func (r *run) resolveSlot(ctx context.Context, s *slot) {
	if s.vec != nil {
		return
	}
	if s.future != nil {
		payload, err := s.future.Await(ctx)
		r.accept(s, s.futureTier, payload, err)
	}
	if r.perIDDone {
		return
	}

	for ti := s.next; ti < len(r.o.tiers) && s.vec == nil; ti++ {
		if r.disabled[ti] {
			continue
		}
		switch t := r.o.tiers[ti].(type) {
		case BatchTier:
			r.fetchBatch(ctx, ti, t, []int{r.indexOf(s)})
		case SingleTier:
			payload, err := t.dispatcher().Do(ctx, s.track.ID, t.Provider.FetchOne)
			r.accept(s, ti, payload, err)
		}
	}
}

func (r *run) fetchBatch(ctx context.Context, ti int, t BatchTier, idx []int) {
	if r.disabled[ti] {
		return
	}
	size := t.Provider.MaxBatch()
	if size < 1 {
		size = len(idx)
	}
	for start := 0; start < len(idx); start += size {
		end := start + size
		if end > len(idx) {
			end = len(idx)
		}
		chunk := idx[start:end]
		ids := make([]string, len(chunk))
		for k, i := range chunk {
			ids[k] = r.slots[i].track.ID
		}

		res, err := t.Provider.FetchBatch(ctx, ids)
		if err != nil {
			r.fail(ti, t.Provider.Name(), err)
			if r.disabled[ti] {
				return
			}
			continue
		}
		for _, i := range chunk {
			if payload, ok := res.Payloads[r.slots[i].track.ID]; ok {
				v := normalize.Features(payload)
				r.slots[i].vec = &v
			}
		}
	}
}

func (r *run) accept(s *slot, ti int, payload ports.Payload, err error) {
	if err != nil {
		r.fail(ti, r.o.tiers[ti].tierName(), err)
		return
	}
	if payload == nil {
		return
	}
	v := normalize.Features(payload)
	s.vec = &v
}

// fail logs a provider error and disables the tier for the rest of the run
// when the provider cannot serve anything.
func (r *run) fail(ti int, name string, err error) {
	if errors.Is(err, ports.ErrProviderUnavailable) {
		if !r.disabled[ti] {
			log.Printf("WARN service: skipping %s for artist %s: %v", name, r.artistID, err)
		}
		r.disabled[ti] = true
		return
	}
	log.Printf("WARN service: %s lookup failed for artist %s: %v", name, r.artistID, err)
}

// fallback runs the heuristic and synthetic tiers, in configured order,
// until one yields at least one vector.
func (r *run) fallback(ctx context.Context, vectors []*domain.AudioFeatures) ([]*domain.AudioFeatures, domain.Source) {
	for ti, tier := range r.o.tiers {
		if r.disabled[ti] || ctx.Err() != nil {
			continue
		}
		switch t := tier.(type) {
		case HeuristicTier:
			r.o.progress.Set(r.artistID, progress.Message("estimating from tempo and key lookups"))
			out := r.heuristic(ctx, ti, t)
			if countResolved(out) > 0 {
				return out, domain.SourceHeuristic
			}
		case SyntheticTier:
			if !r.o.policy.SyntheticFallback || t.Generator == nil {
				continue
			}
			generated := t.Generator.Generate(r.artistID, len(r.slots))
			if len(generated) == 0 {
				continue
			}
			r.o.progress.Set(r.artistID, progress.Message("using synthetic features"))
			log.Printf("WARN service: falling back to synthetic features for artist %s", r.artistID)
			out := make([]*domain.AudioFeatures, len(generated))
			for i := range generated {
				out[i] = &generated[i]
			}
			return out, domain.SourceSynthetic
		}
	}
	return vectors, domain.SourceDefault
}

func (r *run) heuristic(ctx context.Context, ti int, t HeuristicTier) []*domain.AudioFeatures {
	out := make([]*domain.AudioFeatures, len(r.slots))
	lookup := t.Provider != nil
	for i, s := range r.slots {
		if ctx.Err() != nil {
			break
		}
		var partial domain.PartialFeatures
		if lookup {
			p, err := t.Provider.Lookup(ctx, s.track.Name, s.track.ArtistName)
			if err != nil {
				r.fail(ti, t.tierName(), err)
				// An unavailable lookup still leaves the preview analysis.
				lookup = !errors.Is(err, ports.ErrProviderUnavailable)
			} else {
				partial = p
			}
		}
		if t.Preview != nil && s.track.PreviewURL != "" {
			p, err := t.Preview.Analyze(ctx, s.track.PreviewURL)
			if err != nil {
				log.Printf("WARN service: preview analysis failed for track %s: %v", s.track.ID, err)
			} else {
				partial = partial.Merge(p)
			}
		}
		if partial.Empty() {
			continue
		}
		v := partial.Apply(normalize.Defaults())
		out[i] = &v
	}
	return out
}

func (r *run) pending() []int {
	var idx []int
	for i := range r.slots {
		if r.slots[i].vec == nil {
			idx = append(idx, i)
		}
	}
	return idx
}

func (r *run) indexOf(s *slot) int {
	for i := range r.slots {
		if &r.slots[i] == s {
			return i
		}
	}
	return -1
}

func countResolved(vectors []*domain.AudioFeatures) int {
	n := 0
	for _, v := range vectors {
		if v != nil {
			n++
		}
	}
	return n
}
