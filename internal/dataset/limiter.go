package dataset

// limiter.go bounds how many files are parsed at once.
//
// Loads hold the whole table in memory, so a burst of /load requests against
// large files is the main way to exhaust the process. Callers that cannot get
// a slot within maxWait fail with ErrTooManyLoads.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyLoads is returned when every load slot stays busy for maxWait.
var ErrTooManyLoads = errors.New("too many concurrent loads, please try again later")

const (
	// DefaultMaxConcurrentLoads is used when the configured limit is not positive.
	DefaultMaxConcurrentLoads = 2

	// DefaultMaxLoadWait is used when the configured wait is not positive.
	DefaultMaxLoadWait = 10 * time.Second
)

// LoadLimiter is a counting semaphore for file loads.
type LoadLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int32
}

// NewLoadLimiter allows at most maxConcurrent loads at a time.
func NewLoadLimiter(maxConcurrent int, maxWait time.Duration) *LoadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentLoads
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxLoadWait
	}
	return &LoadLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. The caller must Release it.
// A cancelled ctx returns ctx.Err(); an expired wait returns ErrTooManyLoads.
func (l *LoadLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyLoads
	}
}

// Release frees a slot taken by Acquire.
func (l *LoadLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Active returns the number of loads in progress.
func (l *LoadLimiter) Active() int {
	return int(l.active.Load())
}

// WaitForDrain blocks until no load is in progress or ctx is done.
func (l *LoadLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.Active() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// LimiterStatus is a point-in-time view of the limiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status reports current usage.
func (l *LoadLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.Active(),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
