// Package workflow provides a durable-execution engine for orchestrator
// pipelines: a WorkflowFunc runs to completion (or failure) against a
// DurableExecutor, which may be in-memory (this package's default) or
// backed by an external engine such as Temporal (workflow/providers/temporal).
package workflow

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// WorkflowStatus is the lifecycle state of a running or finished workflow.
type WorkflowStatus string

const (
	StatusRunning   WorkflowStatus = "running"
	StatusCompleted WorkflowStatus = "completed"
	StatusFailed    WorkflowStatus = "failed"
	StatusCanceled  WorkflowStatus = "canceled"
)

// EventType names a lifecycle event recorded for a workflow or activity run.
type EventType string

const (
	EventWorkflowStarted   EventType = "workflow_started"
	EventWorkflowCompleted EventType = "workflow_completed"
	EventWorkflowFailed    EventType = "workflow_failed"
	EventWorkflowCanceled  EventType = "workflow_canceled"
	EventActivityStarted   EventType = "activity_started"
	EventActivityCompleted EventType = "activity_completed"
	EventActivityFailed    EventType = "activity_failed"
	EventSignalReceived    EventType = "signal_received"
	EventTimerFired        EventType = "timer_fired"
)

// RetryPolicy configures activity-level retry inside a workflow.
type RetryPolicy struct {
	MaxAttempts        int
	InitialInterval    time.Duration
	BackoffCoefficient float64
	MaxInterval        time.Duration
}

// DefaultRetryPolicy mirrors spec.md's orchestrator node policy: three
// attempts, 100ms initial backoff, doubling each attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:        3,
		InitialInterval:    100 * time.Millisecond,
		BackoffCoefficient: 2.0,
	}
}

func computeInterval(p RetryPolicy, attempt int) time.Duration {
	interval := float64(p.InitialInterval) * math.Pow(p.BackoffCoefficient, float64(attempt))
	d := time.Duration(interval)
	if p.MaxInterval > 0 && d > p.MaxInterval {
		d = p.MaxInterval
	}
	return d
}

// executeWithRetry runs fn up to policy.MaxAttempts times, sleeping between
// attempts per computeInterval. It returns the last error if every attempt
// fails, or nil as soon as one succeeds.
func executeWithRetry(ctx context.Context, policy RetryPolicy, fn func(context.Context) error) error {
	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt < maxAttempts-1 {
			select {
			case <-time.After(computeInterval(policy, attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}

// Config parameterizes a registered DurableExecutor provider. Extra carries
// provider-specific settings (e.g. a Temporal client) that don't belong in
// the transport-agnostic common fields.
type Config struct {
	TaskQueue      string
	DefaultTimeout time.Duration
	Extra          map[string]any
}

// Factory constructs a DurableExecutor from Config. Providers register a
// Factory via init().
type Factory func(cfg Config) (DurableExecutor, error)

var (
	registryMu sync.Mutex
	registry   = make(map[string]Factory)
)

// Register adds or replaces the factory for the named executor provider.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New constructs a DurableExecutor for the named provider using cfg.
func New(name string, cfg Config) (DurableExecutor, error) {
	registryMu.Lock()
	factory, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("workflow: unknown executor provider %q", name)
	}
	return factory(cfg)
}

// List returns the names of all registered executor providers, sorted.
func List() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("default", func(cfg Config) (DurableExecutor, error) {
		return NewExecutor(), nil
	})
}
