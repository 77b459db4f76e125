// Package regen runs debounced, cancellable regeneration jobs
package regen

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the quiet period before a triggered job runs
const DefaultDelay = 750 * time.Millisecond

// Job produces a result; ctx is cancelled once a newer trigger supersedes it
type Job func(ctx context.Context) (any, error)

// ApplyFunc receives the result of the most recent job only. It runs with
// the scheduler locked and must not call Trigger or Stop.
type ApplyFunc func(generation uint64, result any, err error)

// Scheduler debounces triggers. Every Trigger bumps a generation counter; a
// job runs once its trigger has been quiet for Delay, and its result is
// handed to Apply only if no newer trigger arrived while it ran.
type Scheduler struct {
	Delay time.Duration
	Apply ApplyFunc

	mu         sync.Mutex
	generation uint64
	timer      *time.Timer
	cancel     context.CancelFunc
	stopped    bool
	wg         sync.WaitGroup
}

// New creates a Scheduler; a non-positive delay selects DefaultDelay
func New(delay time.Duration, apply ApplyFunc) *Scheduler {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Scheduler{Delay: delay, Apply: apply}
}

// Trigger schedules job and invalidates every earlier pending or running
// job. It returns the generation assigned to job.
func (s *Scheduler) Trigger(job Job) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return s.generation
	}

	s.generation++
	gen := s.generation
	s.invalidateLocked()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	s.timer = time.AfterFunc(s.delay(), func() {
		defer s.wg.Done()
		s.run(ctx, gen, job)
	})
	return gen
}

// Generation returns the generation of the latest trigger
func (s *Scheduler) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Stop cancels pending and running jobs and waits for them to return.
// Later triggers are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.generation++
	s.invalidateLocked()
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) delay() time.Duration {
	if s.Delay <= 0 {
		return DefaultDelay
	}
	return s.Delay
}

// invalidateLocked stops the pending timer and cancels the running job
func (s *Scheduler) invalidateLocked() {
	if s.timer != nil && s.timer.Stop() {
		// the callback will never run, so it cannot call Done
		s.wg.Done()
	}
	s.timer = nil
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Scheduler) run(ctx context.Context, gen uint64, job Job) {
	if ctx.Err() != nil {
		return
	}
	result, err := job(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || ctx.Err() != nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.timer = nil
	if s.Apply != nil {
		s.Apply(gen, result, err)
	}
}
