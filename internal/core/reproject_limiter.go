package core

// reproject_limiter.go bounds how many reprojections run at once.
//
// Every transform goes through one PROJ context, so parallel jobs only queue
// on its mutex while holding a request goroutine and a table snapshot each.
// When all slots are taken, new jobs wait up to maxWait before failing with
// ErrTooManyReprojections.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyReprojections is returned when no slot frees up within the wait
// timeout. Clients should retry after a short delay.
var ErrTooManyReprojections = errors.New("too many concurrent reprojections, please try again later")

// DefaultMaxConcurrentReprojections is the default slot count.
const DefaultMaxConcurrentReprojections = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 10 * time.Second

// ReprojectLimiter is a semaphore over reprojection jobs.
type ReprojectLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int32
}

// NewReprojectLimiter allows at most maxConcurrent simultaneous jobs.
// Non-positive arguments select the defaults.
func NewReprojectLimiter(maxConcurrent int, maxWait time.Duration) *ReprojectLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentReprojections
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &ReprojectLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. The caller must call Release when the job ends.
func (l *ReprojectLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyReprojections
	}
}

// Release frees a slot taken by Acquire.
func (l *ReprojectLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// ActiveCount returns the number of running jobs.
func (l *ReprojectLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// WaitForDrain blocks until no job is running or ctx is done.
func (l *ReprojectLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.ActiveCount() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// ReprojectLimiterStatus is a snapshot of the limiter's state.
type ReprojectLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for the health endpoint.
func (l *ReprojectLimiter) Status() ReprojectLimiterStatus {
	return ReprojectLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
