// Package worker provides background processing for artist resolution jobs.
package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ewilliams-labs/timbre/internal/core/domain"
)

// DefaultJobTimeout bounds one background resolution.
const DefaultJobTimeout = 2 * time.Minute

// Job represents a background resolution request.
type Job struct {
	ArtistID string
	Limit    int
	// Force re-resolves even when a fresh profile is cached.
	Force bool
}

// Profiler returns an artist profile, resolving and storing a new one when
// the cache cannot serve it or force is set.
type Profiler interface {
	Ensure(ctx context.Context, artistID string, limit int, force bool) (domain.ArtistProfile, error)
}

// Pool manages background workers for async jobs.
type Pool struct {
	profiles Profiler
	jobs     chan Job
	wg       sync.WaitGroup
	timeout  time.Duration
}

// NewPool creates a worker pool with the given queue size.
func NewPool(profiles Profiler, queueSize int) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{profiles: profiles, jobs: make(chan Job, queueSize), timeout: DefaultJobTimeout}
}

// Start launches the worker goroutines.
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(job)
			}
		}()
	}
}

// Stop waits for workers to finish after closing the queue.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}

// Submit queues a job without blocking and reports whether it was accepted.
func (p *Pool) Submit(job Job) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		log.Printf("WARN worker: dropping job for %s", job.ArtistID)
		return false
	}
}

func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	profile, err := p.profiles.Ensure(ctx, job.ArtistID, job.Limit, job.Force)
	if err != nil {
		log.Printf("WARN worker: failed to resolve artist %s: %v", job.ArtistID, err)
		return
	}
	log.Printf("Processed %s (%d/%d tracks, source %s)", job.ArtistID,
		profile.Aggregate.Contributors, profile.Aggregate.Requested, profile.Aggregate.Source)
}
