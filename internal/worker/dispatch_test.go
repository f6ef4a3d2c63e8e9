package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ewilliams-labs/timbre/internal/core/ports"
)

func TestPrefetchBoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	fn := func(ctx context.Context, id string) (ports.Payload, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return ports.Payload{"id": id}, nil
	}

	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	futures := NewDispatcher(3, nil).Prefetch(context.Background(), ids, fn)
	require.Len(t, futures, len(ids))

	for i, f := range futures {
		payload, err := f.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, ids[i], payload["id"])
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&peak), int32(1))
}

func TestPrefetchStartsInOrder(t *testing.T) {
	var mu sync.Mutex
	var started []string
	fn := func(ctx context.Context, id string) (ports.Payload, error) {
		mu.Lock()
		started = append(started, id)
		mu.Unlock()
		return nil, nil
	}

	ids := []string{"1", "2", "3", "4"}
	futures := NewDispatcher(1, nil).Prefetch(context.Background(), ids, fn)
	for _, f := range futures {
		_, _ = f.Await(context.Background())
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, ids, started)
}

func TestPrefetchPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	fn := func(ctx context.Context, id string) (ports.Payload, error) {
		if id == "bad" {
			return nil, boom
		}
		return ports.Payload{"ok": true}, nil
	}

	futures := NewDispatcher(0, nil).Prefetch(context.Background(), []string{"good", "bad", "good2"}, fn)

	_, err := futures[1].Await(context.Background())
	assert.ErrorIs(t, err, boom)
	p, err := futures[2].Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, true, p["ok"])
}

func TestPrefetchHonorsLimiter(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(20*time.Millisecond), 1)
	fn := func(ctx context.Context, id string) (ports.Payload, error) { return nil, nil }

	start := time.Now()
	futures := NewDispatcher(5, limiter).Prefetch(context.Background(), []string{"a", "b", "c", "d"}, fn)
	for _, f := range futures {
		_, err := f.Await(context.Background())
		require.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestPrefetchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	fn := func(ctx context.Context, id string) (ports.Payload, error) {
		<-release
		return nil, ctx.Err()
	}

	futures := NewDispatcher(1, nil).Prefetch(ctx, []string{"a", "b"}, fn)
	cancel()
	close(release)

	for _, f := range futures {
		_, err := f.Await(context.Background())
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestDoWaitsForLimiter(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	d := NewDispatcher(1, limiter)
	fn := func(ctx context.Context, id string) (ports.Payload, error) { return ports.Payload{"id": id}, nil }

	p, err := d.Do(context.Background(), "a", fn)
	require.NoError(t, err)
	assert.Equal(t, "a", p["id"])

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = d.Do(ctx, "b", fn)
	assert.Error(t, err)
}
