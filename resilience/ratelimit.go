package resilience

import (
	"context"
	"sync"
	"time"
)

// pollInterval is how often a blocked Allow/ConsumeTokens call rechecks
// budget while waiting for ctx or a refill.
const pollInterval = 5 * time.Millisecond

// ProviderLimits configures per-provider rate limiting for an llm.ChatModel
// or embedding backend: requests/minute, tokens/minute, max in-flight
// requests, and a cooldown applied after a retryable error.
type ProviderLimits struct {
	RPM             int
	TPM             int
	MaxConcurrent   int
	CooldownOnRetry time.Duration
}

// RateLimiter enforces ProviderLimits via token buckets (RPM, TPM) and a
// concurrency counter. A zero value for any limit means unlimited.
type RateLimiter struct {
	mu sync.Mutex

	limits ProviderLimits

	rpmTokens float64
	tpmTokens float64

	lastRefill time.Time
	concurrent int
}

// NewRateLimiter creates a RateLimiter with full token buckets.
func NewRateLimiter(limits ProviderLimits) *RateLimiter {
	return &RateLimiter{
		limits:     limits,
		rpmTokens:  float64(limits.RPM),
		tpmTokens:  float64(limits.TPM),
		lastRefill: time.Now(),
	}
}

func (rl *RateLimiter) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.lastRefill = now
	if elapsed <= 0 {
		return
	}
	if rl.limits.RPM > 0 {
		rl.rpmTokens += elapsed * float64(rl.limits.RPM) / 60.0
		if rl.rpmTokens > float64(rl.limits.RPM) {
			rl.rpmTokens = float64(rl.limits.RPM)
		}
	}
	if rl.limits.TPM > 0 {
		rl.tpmTokens += elapsed * float64(rl.limits.TPM) / 60.0
		if rl.tpmTokens > float64(rl.limits.TPM) {
			rl.tpmTokens = float64(rl.limits.TPM)
		}
	}
}

// Allow blocks until a request slot (RPM token + concurrency slot) is
// available, or ctx is done. Callers must call Release when the request
// completes.
func (rl *RateLimiter) Allow(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refillLocked()
		rpmOK := rl.limits.RPM == 0 || rl.rpmTokens >= 1
		concOK := rl.limits.MaxConcurrent == 0 || rl.concurrent < rl.limits.MaxConcurrent
		if rpmOK && concOK {
			if rl.limits.RPM > 0 {
				rl.rpmTokens--
			}
			if rl.limits.MaxConcurrent > 0 {
				rl.concurrent++
			}
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Release frees the concurrency slot acquired by Allow. Safe to call
// without a matching Allow; the counter never goes negative.
func (rl *RateLimiter) Release() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.concurrent > 0 {
		rl.concurrent--
	}
}

// Wait pauses for the configured CooldownOnRetry, or returns immediately if
// none is configured. Used after a retryable provider error before the next
// attempt.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.limits.CooldownOnRetry <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(rl.limits.CooldownOnRetry):
		return nil
	}
}

// ConsumeTokens blocks until n tokens are available in the TPM budget, or
// ctx is done. A zero TPM limit or n means unlimited / no-op.
func (rl *RateLimiter) ConsumeTokens(ctx context.Context, n int) error {
	if rl.limits.TPM == 0 || n == 0 {
		return nil
	}
	for {
		rl.mu.Lock()
		rl.refillLocked()
		if rl.tpmTokens >= float64(n) {
			rl.tpmTokens -= float64(n)
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
