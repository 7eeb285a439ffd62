package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/HalfBloodPrince07/Vantage-sub000/core"
)

// RetryPolicy configures Retry's attempt count and exponential backoff.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	Jitter         bool

	// RetryableKinds overrides the default retryable set (core.IsRetryable:
	// Retriable, Unavailable, Timeout) when non-empty.
	RetryableKinds []core.ErrorKind
}

// DefaultRetryPolicy returns the orchestrator's per-node policy: up to 2
// retries (3 attempts total) with 1s/2s/4s backoff (§4.1).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         true,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 500 * time.Millisecond
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 30 * time.Second
	}
	if p.BackoffFactor <= 0 {
		p.BackoffFactor = 2.0
	}
	return p
}

func (p RetryPolicy) retryable(err error) bool {
	if len(p.RetryableKinds) > 0 {
		kind := core.KindOf(err)
		for _, k := range p.RetryableKinds {
			if k == kind {
				return true
			}
		}
		return false
	}
	return core.IsRetryable(err)
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := float64(p.InitialBackoff)
	for i := 1; i < attempt; i++ {
		d *= p.BackoffFactor
	}
	if max := float64(p.MaxBackoff); d > max {
		d = max
	}
	if p.Jitter {
		d = d/2 + rand.Float64()*(d/2)
	}
	return time.Duration(d)
}

// Retry calls fn until it succeeds, a non-retryable error is returned, the
// policy's attempt budget is exhausted, or ctx is cancelled. Between
// attempts it sleeps for an exponentially growing backoff.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	policy = policy.normalized()

	var zero T
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !policy.retryable(err) {
			return zero, err
		}
		if attempt == policy.MaxAttempts {
			break
		}

		timer := time.NewTimer(policy.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, lastErr
}
