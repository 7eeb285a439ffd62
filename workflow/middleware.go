package workflow

import "context"

// Middleware wraps a DurableExecutor with cross-cutting behavior.
type Middleware func(next DurableExecutor) DurableExecutor

// ApplyMiddleware wraps exec with mws, outermost first: the first
// middleware in the list observes a call before any of the others.
func ApplyMiddleware(exec DurableExecutor, mws ...Middleware) DurableExecutor {
	wrapped := exec
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

// WithHooks returns middleware that fires hooks around Execute/Signal calls,
// in addition to any hooks the wrapped executor fires itself.
func WithHooks(hooks Hooks) Middleware {
	composed := ComposeHooks(hooks)
	return func(next DurableExecutor) DurableExecutor {
		return &hookedExecutor{next: next, hooks: composed}
	}
}

type hookedExecutor struct {
	next  DurableExecutor
	hooks Hooks
}

func (h *hookedExecutor) Execute(ctx context.Context, fn WorkflowFunc, opts WorkflowOptions) (WorkflowHandle, error) {
	h.hooks.OnWorkflowStart(ctx, opts.ID, opts.Input)

	handle, err := h.next.Execute(ctx, fn, opts)
	if err != nil {
		return nil, err
	}

	go func() {
		bg := context.Background()
		result, rerr := handle.Result(bg)
		if rerr != nil {
			h.hooks.OnWorkflowFail(bg, handle.ID(), rerr)
			return
		}
		h.hooks.OnWorkflowComplete(bg, handle.ID(), result)
	}()

	return handle, nil
}

func (h *hookedExecutor) Signal(ctx context.Context, wfID string, signal Signal) error {
	if err := h.next.Signal(ctx, wfID, signal); err != nil {
		return err
	}
	h.hooks.OnSignal(ctx, wfID, signal)
	return nil
}

func (h *hookedExecutor) Query(ctx context.Context, wfID string, queryType string) (any, error) {
	return h.next.Query(ctx, wfID, queryType)
}

func (h *hookedExecutor) Cancel(ctx context.Context, wfID string) error {
	return h.next.Cancel(ctx, wfID)
}
