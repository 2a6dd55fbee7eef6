package lookup

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 2 * time.Second
	defaultMaxDelay    = 30 * time.Second
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-time SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
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

// Policy decides how many attempts a call gets, how long to wait between
// them, and which errors are worth retrying.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	IsRetryable func(error) bool
}

// DefaultPolicy retries throttling and transport failures 3 times with 2s, 4s backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
		IsRetryable: IsTransient,
	}
}

// NoRetry makes exactly one attempt.
func NoRetry() Policy {
	return Policy{MaxAttempts: 1, IsRetryable: IsTransient}
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) retryable(err error) bool {
	if p.IsRetryable == nil {
		return IsTransient(err)
	}
	return p.IsRetryable(err)
}

// backOff yields BaseDelay * 2^i for the i-th wait, without jitter, capped at MaxDelay.
func (p Policy) backOff() backoff.BackOff {
	if p.BaseDelay <= 0 {
		return &backoff.ZeroBackOff{}
	}
	maxDelay := p.MaxDelay
	if maxDelay < p.BaseDelay {
		maxDelay = p.BaseDelay << p.attempts()
	}
	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         maxDelay,
	}
	b.Reset()
	return b
}

// Delays lists the waits between attempts under this policy.
func (p Policy) Delays() []time.Duration {
	b := p.backOff()
	out := make([]time.Duration, 0, p.attempts()-1)
	for i := 1; i < p.attempts(); i++ {
		out = append(out, b.NextBackOff())
	}
	return out
}

// Retry runs op until it succeeds, fails with a non-retryable error, or the
// policy's attempts run out. Exhaustion returns an *ExhaustedError (ErrBusy).
func Retry[T any](ctx context.Context, p Policy, sleep SleepFunc, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	if sleep == nil {
		sleep = Sleep
	}

	attempts := p.attempts()
	b := p.backOff()

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := op(ctx, attempt)
		if err == nil {
			return v, nil
		}
		if !p.retryable(err) {
			return zero, err
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}
		if err := sleep(ctx, b.NextBackOff()); err != nil {
			return zero, err
		}
	}

	return zero, &ExhaustedError{Attempts: attempts, Last: lastErr}
}
