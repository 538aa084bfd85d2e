package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrInvalidConfig is returned when a limiter is built with a non-positive
// rate or window.
var ErrInvalidConfig = errors.New("ratelimit: invalid config")

// Limiter hands out at most rate permits at a time. A permit is returned to
// the pool one window after it was acquired, regardless of how long the
// caller held it.
//
// This is a delayed-release pool, not a sliding window: right after startup
// up to rate callers pass immediately, and bursts slightly above rate per
// window are possible at window boundaries.
type Limiter struct {
	sem  *semaphore.Weighted
	rate int
	per  time.Duration

	// afterFunc schedules the release; swapped in tests.
	afterFunc func(time.Duration, func()) *time.Timer
}

// New creates a limiter that allows rate acquisitions per window.
func New(rate int, per time.Duration) (*Limiter, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("%w: rate must be > 0, got %d", ErrInvalidConfig, rate)
	}
	if per <= 0 {
		return nil, fmt.Errorf("%w: per must be > 0, got %s", ErrInvalidConfig, per)
	}
	return &Limiter{
		sem:       semaphore.NewWeighted(int64(rate)),
		rate:      rate,
		per:       per,
		afterFunc: time.AfterFunc,
	}, nil
}

// Acquire blocks until a permit is available or ctx is done. A cancelled
// wait consumes nothing.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	l.afterFunc(l.per, func() { l.sem.Release(1) })
	return nil
}

// Rate is the number of permits handed out per window.
func (l *Limiter) Rate() int { return l.rate }

// Per is how long a permit stays out after it is granted.
func (l *Limiter) Per() time.Duration { return l.per }
