// Package temporal adapts workflow.DurableExecutor onto a Temporal client,
// for deployments that need durability and replay across process restarts
// beyond what workflow.Executor's in-memory engine offers.
package temporal

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	temporalworkflow "go.temporal.io/sdk/workflow"

	"github.com/HalfBloodPrince07/Vantage-sub000/workflow"
	"github.com/google/uuid"
)

const (
	defaultTaskQueue = "beluga-workflows"
	defaultTimeout   = 10 * time.Minute
)

// Config configures a Temporal-backed Executor.
type Config struct {
	Client         client.Client
	TaskQueue      string
	DefaultTimeout time.Duration
}

// Executor is a workflow.DurableExecutor backed by a Temporal client.
type Executor struct {
	client    client.Client
	taskQueue string
	timeout   time.Duration
}

// NewExecutor constructs an Executor. Client is required.
func NewExecutor(cfg Config) (*Executor, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("temporal: client is required")
	}
	taskQueue := cfg.TaskQueue
	if taskQueue == "" {
		taskQueue = defaultTaskQueue
	}
	timeout := cfg.DefaultTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Executor{client: cfg.Client, taskQueue: taskQueue, timeout: timeout}, nil
}

func (e *Executor) Execute(ctx context.Context, fn workflow.WorkflowFunc, opts workflow.WorkflowOptions) (workflow.WorkflowHandle, error) {
	id := opts.ID
	if id == "" {
		id = "beluga-wf-" + uuid.NewString()
	}
	timeout := e.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	wrapper := newWorkflowWrapper(fn, e.taskQueue)
	wrapper.defaultTimeout = timeout

	startOpts := client.StartWorkflowOptions{
		ID:                       id,
		TaskQueue:                e.taskQueue,
		WorkflowExecutionTimeout: timeout,
	}

	run, err := e.client.ExecuteWorkflow(ctx, startOpts, wrapper.Run, opts.Input)
	if err != nil {
		return nil, fmt.Errorf("temporal/execute: %w", err)
	}

	return &temporalHandle{run: run, id: id, runID: run.GetRunID()}, nil
}

func (e *Executor) Signal(ctx context.Context, wfID string, signal workflow.Signal) error {
	if err := e.client.SignalWorkflow(ctx, wfID, "", signal.Name, signal.Payload); err != nil {
		return fmt.Errorf("temporal/signal: %w", err)
	}
	return nil
}

func (e *Executor) Cancel(ctx context.Context, wfID string) error {
	if err := e.client.CancelWorkflow(ctx, wfID, ""); err != nil {
		return fmt.Errorf("temporal/cancel: %w", err)
	}
	return nil
}

func (e *Executor) Query(ctx context.Context, wfID string, queryType string) (any, error) {
	value, err := e.client.QueryWorkflow(ctx, wfID, "", queryType)
	if err != nil {
		return nil, fmt.Errorf("temporal/query: %w", err)
	}
	var result any
	if err := value.Get(&result); err != nil {
		return nil, fmt.Errorf("temporal/query: decode: %w", err)
	}
	return result, nil
}

var _ workflow.DurableExecutor = (*Executor)(nil)

type temporalHandle struct {
	run   client.WorkflowRun
	id    string
	runID string
}

func (h *temporalHandle) ID() string                      { return h.id }
func (h *temporalHandle) RunID() string                   { return h.runID }
func (h *temporalHandle) Status() workflow.WorkflowStatus { return workflow.StatusRunning }

func (h *temporalHandle) Result(ctx context.Context) (any, error) {
	var result any
	if err := h.run.Get(ctx, &result); err != nil {
		return nil, fmt.Errorf("temporal/result: %w", err)
	}
	return result, nil
}

var _ workflow.WorkflowHandle = (*temporalHandle)(nil)

// Store is a workflow.WorkflowStore that reads workflow status from the
// Temporal server directly. Save/Delete are no-ops: Temporal itself is the
// system of record for run state, so there is nothing extra to persist.
type Store struct {
	client    client.Client
	namespace string
}

// NewStore constructs a Store against namespace (defaulting to "default").
func NewStore(c client.Client, namespace string) *Store {
	if namespace == "" {
		namespace = "default"
	}
	return &Store{client: c, namespace: namespace}
}

func (s *Store) Save(_ context.Context, _ workflow.WorkflowState) error { return nil }

func (s *Store) Load(ctx context.Context, id string) (*workflow.WorkflowState, error) {
	run := s.client.GetWorkflow(ctx, id, "")
	return &workflow.WorkflowState{
		WorkflowID: id,
		RunID:      run.GetRunID(),
		Status:     workflow.StatusRunning,
	}, nil
}

func (s *Store) List(_ context.Context, _ workflow.WorkflowFilter) ([]workflow.WorkflowState, error) {
	return nil, nil
}

func (s *Store) Delete(_ context.Context, _ string) error { return nil }

var _ workflow.WorkflowStore = (*Store)(nil)

func toTemporalRetryPolicy(p *workflow.RetryPolicy) *temporal.RetryPolicy {
	if p == nil {
		return nil
	}
	return &temporal.RetryPolicy{
		InitialInterval:    p.InitialInterval,
		BackoffCoefficient: p.BackoffCoefficient,
		MaximumInterval:    p.MaxInterval,
		MaximumAttempts:    int32(p.MaxAttempts),
	}
}

// workflowWrapper adapts a workflow.WorkflowFunc into a Temporal-registrable
// workflow function taking a native temporalworkflow.Context.
type workflowWrapper struct {
	fn             workflow.WorkflowFunc
	taskQueue      string
	defaultTimeout time.Duration
}

func newWorkflowWrapper(fn workflow.WorkflowFunc, taskQueue string) *workflowWrapper {
	return &workflowWrapper{fn: fn, taskQueue: taskQueue, defaultTimeout: defaultTimeout}
}

// Run is registered with Temporal as the workflow entry point.
func (w *workflowWrapper) Run(tCtx temporalworkflow.Context, input any) (any, error) {
	ctx := &temporalContext{tCtx: tCtx, defaultTimeout: w.defaultTimeout}
	return w.fn(ctx, input)
}

// temporalContext bridges workflow.WorkflowContext onto a Temporal
// workflow.Context, so orchestrator node code written against the
// transport-agnostic interface runs unchanged under either engine.
type temporalContext struct {
	tCtx           temporalworkflow.Context
	defaultTimeout time.Duration
}

func (c *temporalContext) Sleep(d time.Duration) error {
	return temporalworkflow.Sleep(c.tCtx, d)
}

func (c *temporalContext) ReceiveSignal(name string) <-chan any {
	ch := make(chan any, 1)
	temporalworkflow.Go(c.tCtx, func(gCtx temporalworkflow.Context) {
		sigCh := temporalworkflow.GetSignalChannel(gCtx, name)
		var payload any
		sigCh.Receive(gCtx, &payload)
		select {
		case ch <- payload:
		default:
		}
	})
	return ch
}

func (c *temporalContext) ExecuteActivity(fn workflow.ActivityFunc, input any, opts ...workflow.ActivityOption) (any, error) {
	var options workflow.ActivityOptions
	for _, o := range opts {
		o(&options)
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	actCtx := temporalworkflow.WithActivityOptions(c.tCtx, temporalworkflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy:         toTemporalRetryPolicy(options.Retry),
	})

	var result any
	if err := temporalworkflow.ExecuteActivity(actCtx, fn, input).Get(actCtx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *temporalContext) Done() <-chan struct{} { return nil }
func (c *temporalContext) Err() error            { return c.tCtx.Err() }
func (c *temporalContext) Deadline() (time.Time, bool) {
	return c.tCtx.Deadline()
}
func (c *temporalContext) Value(key any) any { return c.tCtx.Value(key) }

var _ workflow.WorkflowContext = (*temporalContext)(nil)

func init() {
	workflow.Register("temporal", func(cfg workflow.Config) (workflow.DurableExecutor, error) {
		c, _ := cfg.Extra["client"].(client.Client)
		taskQueue, _ := cfg.Extra["task_queue"].(string)
		return NewExecutor(Config{
			Client:         c,
			TaskQueue:      taskQueue,
			DefaultTimeout: cfg.DefaultTimeout,
		})
	})
}
