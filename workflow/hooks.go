package workflow

import "context"

// Hooks are lifecycle callbacks fired by a DurableExecutor. Any field may
// be nil; ComposeHooks produces a Hooks value safe to call unconditionally.
type Hooks struct {
	OnWorkflowStart    func(ctx context.Context, id string, input any)
	OnWorkflowComplete func(ctx context.Context, id string, result any)
	OnWorkflowFail     func(ctx context.Context, id string, err error)
	OnActivityStart    func(ctx context.Context, wfID string, input any)
	OnActivityComplete func(ctx context.Context, wfID string, result any)
	OnSignal           func(ctx context.Context, wfID string, signal Signal)
	OnRetry            func(ctx context.Context, wfID string, err error)
}

// ComposeHooks merges any number of Hooks into one that invokes every
// non-nil callback from each, in order. The result's fields are never nil,
// so callers never need to guard against a missing hook.
func ComposeHooks(hooks ...Hooks) Hooks {
	return Hooks{
		OnWorkflowStart: func(ctx context.Context, id string, input any) {
			for _, h := range hooks {
				if h.OnWorkflowStart != nil {
					h.OnWorkflowStart(ctx, id, input)
				}
			}
		},
		OnWorkflowComplete: func(ctx context.Context, id string, result any) {
			for _, h := range hooks {
				if h.OnWorkflowComplete != nil {
					h.OnWorkflowComplete(ctx, id, result)
				}
			}
		},
		OnWorkflowFail: func(ctx context.Context, id string, err error) {
			for _, h := range hooks {
				if h.OnWorkflowFail != nil {
					h.OnWorkflowFail(ctx, id, err)
				}
			}
		},
		OnActivityStart: func(ctx context.Context, wfID string, input any) {
			for _, h := range hooks {
				if h.OnActivityStart != nil {
					h.OnActivityStart(ctx, wfID, input)
				}
			}
		},
		OnActivityComplete: func(ctx context.Context, wfID string, result any) {
			for _, h := range hooks {
				if h.OnActivityComplete != nil {
					h.OnActivityComplete(ctx, wfID, result)
				}
			}
		},
		OnSignal: func(ctx context.Context, wfID string, signal Signal) {
			for _, h := range hooks {
				if h.OnSignal != nil {
					h.OnSignal(ctx, wfID, signal)
				}
			}
		},
		OnRetry: func(ctx context.Context, wfID string, err error) {
			for _, h := range hooks {
				if h.OnRetry != nil {
					h.OnRetry(ctx, wfID, err)
				}
			}
		},
	}
}
