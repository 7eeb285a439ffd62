package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Signal is a named, typed message delivered into a running workflow.
type Signal struct {
	Name    string
	Payload any
}

// ActivityFunc is a unit of work a workflow delegates to, outside of its own
// deterministic replay boundary (the in-memory executor has no replay, but
// the interface matches providers that do, such as Temporal).
type ActivityFunc func(ctx context.Context, input any) (any, error)

// ActivityOptions configures a single ExecuteActivity call.
type ActivityOptions struct {
	Retry   *RetryPolicy
	Timeout time.Duration
}

// ActivityOption mutates ActivityOptions.
type ActivityOption func(*ActivityOptions)

// WithActivityRetry retries the activity per p on failure.
func WithActivityRetry(p RetryPolicy) ActivityOption {
	return func(o *ActivityOptions) { o.Retry = &p }
}

// WithActivityTimeout bounds a single activity invocation.
func WithActivityTimeout(d time.Duration) ActivityOption {
	return func(o *ActivityOptions) { o.Timeout = d }
}

// WorkflowContext is the environment a WorkflowFunc runs in: activity
// execution, signals, sleeping, and cancellation.
type WorkflowContext interface {
	Sleep(d time.Duration) error
	ReceiveSignal(name string) <-chan any
	ExecuteActivity(fn ActivityFunc, input any, opts ...ActivityOption) (any, error)
	Done() <-chan struct{}
	Err() error
	Deadline() (time.Time, bool)
	Value(key any) any
}

// WorkflowFunc is the body of a durable workflow.
type WorkflowFunc func(ctx WorkflowContext, input any) (any, error)

// WorkflowOptions configures a workflow run.
type WorkflowOptions struct {
	ID      string
	Input   any
	Timeout time.Duration
}

// WorkflowHandle references a running or finished workflow.
type WorkflowHandle interface {
	ID() string
	RunID() string
	Status() WorkflowStatus
	Result(ctx context.Context) (any, error)
}

// DurableExecutor runs WorkflowFuncs and manages their lifecycle.
type DurableExecutor interface {
	Execute(ctx context.Context, fn WorkflowFunc, opts WorkflowOptions) (WorkflowHandle, error)
	Signal(ctx context.Context, wfID string, signal Signal) error
	Query(ctx context.Context, wfID string, queryType string) (any, error)
	Cancel(ctx context.Context, wfID string) error
}

// WorkflowState is a persisted snapshot of a workflow run.
type WorkflowState struct {
	WorkflowID string
	RunID      string
	Status     WorkflowStatus
	Input      any
	Output     any
	Error      string
}

// WorkflowFilter narrows a WorkflowStore.List call.
type WorkflowFilter struct {
	Status WorkflowStatus
	Limit  int
}

// WorkflowStore persists WorkflowState, e.g. for crash recovery or audit.
type WorkflowStore interface {
	Save(ctx context.Context, state WorkflowState) error
	Load(ctx context.Context, id string) (*WorkflowState, error)
	List(ctx context.Context, filter WorkflowFilter) ([]WorkflowState, error)
	Delete(ctx context.Context, id string) error
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithStore attaches a WorkflowStore that every run is snapshotted to.
func WithStore(store WorkflowStore) ExecutorOption {
	return func(e *Executor) { e.store = store }
}

// WithExecutorHooks attaches lifecycle hooks fired by this executor.
func WithExecutorHooks(hooks Hooks) ExecutorOption {
	return func(e *Executor) { e.hooks = ComposeHooks(hooks) }
}

// Executor is the in-memory, single-process DurableExecutor. It has no
// durability across restarts unless paired with WithStore, and no replay
// semantics; it exists as the default/test-friendly provider and as the
// model other providers (temporal, ...) adapt their WorkflowContext to.
type Executor struct {
	mu        sync.Mutex
	workflows map[string]*runningWorkflow
	store     WorkflowStore
	hooks     Hooks
}

// NewExecutor constructs an in-memory Executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		workflows: make(map[string]*runningWorkflow),
		hooks:     ComposeHooks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type runningWorkflow struct {
	mu      sync.Mutex
	id      string
	runID   string
	status  WorkflowStatus
	input   any
	result  any
	err     error
	cancel  context.CancelFunc
	done    chan struct{}
	signals map[string]chan any
}

func (rw *runningWorkflow) snapshot() WorkflowState {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	s := WorkflowState{
		WorkflowID: rw.id,
		RunID:      rw.runID,
		Status:     rw.status,
		Input:      rw.input,
		Output:     rw.result,
	}
	if rw.err != nil {
		s.Error = rw.err.Error()
	}
	return s
}

func (e *Executor) Execute(ctx context.Context, fn WorkflowFunc, opts WorkflowOptions) (WorkflowHandle, error) {
	id := opts.ID
	if id == "" {
		id = "wf-" + uuid.NewString()
	}
	runID := uuid.NewString()

	runCtx, cancel := context.WithCancel(context.Background())
	if opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, opts.Timeout)
	}

	rw := &runningWorkflow{
		id:      id,
		runID:   runID,
		status:  StatusRunning,
		input:   opts.Input,
		cancel:  cancel,
		done:    make(chan struct{}),
		signals: make(map[string]chan any),
	}

	e.mu.Lock()
	e.workflows[id] = rw
	e.mu.Unlock()

	e.hooks.OnWorkflowStart(ctx, id, opts.Input)
	if e.store != nil {
		_ = e.store.Save(ctx, rw.snapshot())
	}

	wfCtx := &inmemContext{ctx: runCtx, wf: rw, hooks: e.hooks}

	go func() {
		defer close(rw.done)
		result, err := fn(wfCtx, opts.Input)

		rw.mu.Lock()
		rw.result = result
		rw.err = err
		switch {
		case err != nil && runCtx.Err() != nil:
			rw.status = StatusCanceled
		case err != nil:
			rw.status = StatusFailed
		default:
			rw.status = StatusCompleted
		}
		rw.mu.Unlock()
		cancel()

		bg := context.Background()
		if err != nil {
			e.hooks.OnWorkflowFail(bg, id, err)
		} else {
			e.hooks.OnWorkflowComplete(bg, id, result)
		}
		if e.store != nil {
			_ = e.store.Save(bg, rw.snapshot())
		}
	}()

	return &inmemHandle{wf: rw}, nil
}

func (e *Executor) find(id string) (*runningWorkflow, error) {
	e.mu.Lock()
	rw, ok := e.workflows[id]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("workflow: unknown workflow %q", id)
	}
	return rw, nil
}

func (e *Executor) Signal(ctx context.Context, wfID string, signal Signal) error {
	rw, err := e.find(wfID)
	if err != nil {
		return err
	}
	rw.mu.Lock()
	ch, ok := rw.signals[signal.Name]
	if !ok {
		ch = make(chan any, 1)
		rw.signals[signal.Name] = ch
	}
	rw.mu.Unlock()

	select {
	case ch <- signal.Payload:
	default:
	}
	e.hooks.OnSignal(ctx, wfID, signal)
	return nil
}

func (e *Executor) Query(ctx context.Context, wfID string, queryType string) (any, error) {
	rw, err := e.find(wfID)
	if err != nil {
		return nil, err
	}
	switch queryType {
	case "status":
		rw.mu.Lock()
		defer rw.mu.Unlock()
		return rw.status, nil
	default:
		return nil, fmt.Errorf("workflow: unknown query type %q", queryType)
	}
}

func (e *Executor) Cancel(ctx context.Context, wfID string) error {
	rw, err := e.find(wfID)
	if err != nil {
		return err
	}
	rw.cancel()
	return nil
}

type inmemHandle struct {
	wf *runningWorkflow
}

func (h *inmemHandle) ID() string    { return h.wf.id }
func (h *inmemHandle) RunID() string { return h.wf.runID }
func (h *inmemHandle) Status() WorkflowStatus {
	h.wf.mu.Lock()
	defer h.wf.mu.Unlock()
	return h.wf.status
}

func (h *inmemHandle) Result(ctx context.Context) (any, error) {
	select {
	case <-h.wf.done:
		h.wf.mu.Lock()
		defer h.wf.mu.Unlock()
		return h.wf.result, h.wf.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type inmemContext struct {
	ctx   context.Context
	wf    *runningWorkflow
	hooks Hooks
}

func (c *inmemContext) Sleep(d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

func (c *inmemContext) ReceiveSignal(name string) <-chan any {
	c.wf.mu.Lock()
	defer c.wf.mu.Unlock()
	ch, ok := c.wf.signals[name]
	if !ok {
		ch = make(chan any, 1)
		c.wf.signals[name] = ch
	}
	return ch
}

func (c *inmemContext) ExecuteActivity(fn ActivityFunc, input any, opts ...ActivityOption) (any, error) {
	var options ActivityOptions
	for _, o := range opts {
		o(&options)
	}

	actCtx := c.ctx
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		actCtx, cancel = context.WithTimeout(actCtx, options.Timeout)
		defer cancel()
	}

	c.hooks.OnActivityStart(actCtx, c.wf.id, input)

	if options.Retry == nil {
		result, err := fn(actCtx, input)
		if err == nil {
			c.hooks.OnActivityComplete(actCtx, c.wf.id, result)
		}
		return result, err
	}

	policy := *options.Retry
	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	var result any
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if actCtx.Err() != nil {
			return nil, actCtx.Err()
		}
		result, err = fn(actCtx, input)
		if err == nil {
			c.hooks.OnActivityComplete(actCtx, c.wf.id, result)
			return result, nil
		}
		c.hooks.OnRetry(actCtx, c.wf.id, err)
		if attempt < maxAttempts-1 {
			select {
			case <-time.After(computeInterval(policy, attempt)):
			case <-actCtx.Done():
				return nil, actCtx.Err()
			}
		}
	}
	return nil, err
}

func (c *inmemContext) Done() <-chan struct{}         { return c.ctx.Done() }
func (c *inmemContext) Err() error                    { return c.ctx.Err() }
func (c *inmemContext) Deadline() (time.Time, bool)   { return c.ctx.Deadline() }
func (c *inmemContext) Value(key any) any             { return c.ctx.Value(key) }
