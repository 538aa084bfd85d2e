// Package retry runs an operation with bounded attempts and exponential
// backoff between them.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned for attempts < 1 or a negative base delay.
var ErrInvalidConfig = errors.New("retry: invalid config")

// Policy retries a failing operation up to Attempts times. Before attempt k+1 it
// waits BaseDelay * 2^(k-1).
type Policy struct {
	attempts  int
	baseDelay time.Duration

	sleep func(context.Context, time.Duration) error
}

// New validates and builds a policy.
func New(attempts int, baseDelay time.Duration) (*Policy, error) {
	if attempts < 1 {
		return nil, fmt.Errorf("%w: attempts must be >= 1, got %d", ErrInvalidConfig, attempts)
	}
	if baseDelay < 0 {
		return nil, fmt.Errorf("%w: base delay must be >= 0, got %s", ErrInvalidConfig, baseDelay)
	}
	return &Policy{attempts: attempts, baseDelay: baseDelay, sleep: sleepCtx}, nil
}

func (p *Policy) Attempts() int            { return p.attempts }
func (p *Policy) BaseDelay() time.Duration { return p.baseDelay }

// Backoff returns the delay slept after the given failed attempt (1-based).
func (p *Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return p.baseDelay * time.Duration(1<<uint(attempt-1))
}

// Do calls op until it succeeds, attempts run out or ctx is done. Every
// error is retried. The last error from op is returned unchanged.
// If ctx ends during a backoff, ctx.Err() is returned.
func (p *Policy) Do(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		err = op(ctx)
		if err == nil {
			return nil
		}
		if attempt == p.attempts {
			break
		}
		if serr := p.sleep(ctx, p.Backoff(attempt)); serr != nil {
			return serr
		}
	}
	return err
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, p *Policy, op func(context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
