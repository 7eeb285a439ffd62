// Package resilience provides circuit breaking, retry, rate limiting, and
// request hedging for calls to injected ports (vector store, LLM, relational
// store, embedder).
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is a circuit breaker's current state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// ErrCircuitOpen is returned by Execute when the circuit is open and the
// reset timeout has not yet elapsed.
var ErrCircuitOpen = errors.New("resilience: circuit open")

const (
	defaultFailureThreshold = 5
	defaultResetTimeout     = 30 * time.Second
)

// CircuitBreaker trips to Open after failureThreshold consecutive failures,
// rejecting calls until resetTimeout elapses, then allows a single probe
// call in HalfOpen: success closes the circuit, failure reopens it.
//
// Callers constructing a breaker for a specific port should pass explicit
// values rather than rely on the zero-value defaults below: the
// orchestrator's per-node breaker uses 5 failures / 60s cooldown.
type CircuitBreaker struct {
	mu               sync.Mutex
	failureThreshold int
	resetTimeout     time.Duration
	state            State
	failures         int
	openedAt         time.Time
}

// NewCircuitBreaker creates a CircuitBreaker. A failureThreshold <= 0
// defaults to 5; a resetTimeout <= 0 defaults to 30s.
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = defaultFailureThreshold
	}
	if resetTimeout <= 0 {
		resetTimeout = defaultResetTimeout
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		state:            StateClosed,
	}
}

// State reports the breaker's current state, promoting Open to HalfOpen if
// the reset timeout has elapsed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.resetTimeout {
		cb.state = StateHalfOpen
	}
	return cb.state
}

// Execute runs fn if the circuit permits it. In Open state (reset timeout
// not yet elapsed) it returns ErrCircuitOpen without calling fn. In
// HalfOpen state it allows exactly one probe call, closing the circuit on
// success or reopening it on failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	cb.mu.Lock()
	state := cb.currentStateLocked()
	if state == StateOpen {
		cb.mu.Unlock()
		return nil, ErrCircuitOpen
	}
	cb.mu.Unlock()

	result, err := fn(ctx)

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.failureThreshold {
			cb.state = StateOpen
			cb.openedAt = time.Now()
			cb.failures = 0
		}
		return result, err
	}

	cb.state = StateClosed
	cb.failures = 0
	return result, nil
}

// Reset forces the breaker back to Closed, clearing the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
}
