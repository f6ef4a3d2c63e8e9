package worker

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ewilliams-labs/timbre/internal/core/ports"
)

// DefaultConcurrency bounds in-flight single-track calls.
const DefaultConcurrency = 5

// FetchFunc fetches one track's payload.
type FetchFunc func(ctx context.Context, id string) (ports.Payload, error)

// Dispatcher runs single-track lookups with bounded concurrency and an
// optional rate limit.
type Dispatcher struct {
	concurrency int
	limiter     *rate.Limiter
}

// NewDispatcher creates a dispatcher. concurrency < 1 uses the default; a
// nil limiter means no rate limit.
func NewDispatcher(concurrency int, limiter *rate.Limiter) *Dispatcher {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Dispatcher{concurrency: concurrency, limiter: limiter}
}

// Future is the pending result of one lookup.
type Future struct {
	done    chan struct{}
	payload ports.Payload
	err     error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(p ports.Payload, err error) {
	f.payload, f.err = p, err
	close(f.done)
}

// Await blocks until the lookup finishes or ctx is done.
func (f *Future) Await(ctx context.Context) (ports.Payload, error) {
	select {
	case <-f.done:
		return f.payload, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Prefetch starts fn for every id and returns one future per id, in the
// same order. Calls are started in id order; cancelling ctx resolves every
// unstarted future with the context error.
func (d *Dispatcher) Prefetch(ctx context.Context, ids []string, fn FetchFunc) []*Future {
	futures := make([]*Future, len(ids))
	for i := range futures {
		futures[i] = newFuture()
	}

	go func() {
		var g errgroup.Group
		g.SetLimit(d.concurrency)
		for i, id := range ids {
			f := futures[i]
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					f.resolve(nil, err)
					return nil
				}
				if d.limiter != nil {
					if err := d.limiter.Wait(ctx); err != nil {
						f.resolve(nil, err)
						return nil
					}
				}
				f.resolve(fn(ctx, id))
				return nil
			})
		}
		_ = g.Wait()
	}()

	return futures
}

// Do runs one lookup on the caller's goroutine, subject to the rate limit.
func (d *Dispatcher) Do(ctx context.Context, id string, fn FetchFunc) (ports.Payload, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return fn(ctx, id)
}
