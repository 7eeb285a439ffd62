package server

import (
	"context"
	"net/http"
)

// Hooks are request-lifecycle callbacks a ServerAdapter runs around every
// handled request. Any field may be nil.
type Hooks struct {
	// BeforeRequest runs before the request is dispatched. A non-nil error
	// aborts dispatch.
	BeforeRequest func(ctx context.Context, r *http.Request) error

	// AfterRequest runs once the response status is known.
	AfterRequest func(ctx context.Context, r *http.Request, statusCode int)

	// OnError runs when a handler produces an error. It may replace the
	// error (e.g. to redact details) before it reaches the client; a nil
	// return passes the incoming error through unchanged.
	OnError func(ctx context.Context, err error) error
}

// ComposeHooks merges multiple Hooks into one, running each set's callbacks
// in order. BeforeRequest stops at the first error. OnError threads its
// running error value through every hook, replacing it whenever a hook
// returns non-nil and stopping there; a hook returning nil passes the
// current value to the next hook unchanged.
func ComposeHooks(hooks ...Hooks) Hooks {
	return Hooks{
		BeforeRequest: func(ctx context.Context, r *http.Request) error {
			for _, h := range hooks {
				if h.BeforeRequest == nil {
					continue
				}
				if err := h.BeforeRequest(ctx, r); err != nil {
					return err
				}
			}
			return nil
		},
		AfterRequest: func(ctx context.Context, r *http.Request, statusCode int) {
			for _, h := range hooks {
				if h.AfterRequest != nil {
					h.AfterRequest(ctx, r, statusCode)
				}
			}
		},
		OnError: func(ctx context.Context, err error) error {
			current := err
			for _, h := range hooks {
				if h.OnError == nil {
					continue
				}
				if replaced := h.OnError(ctx, current); replaced != nil {
					return replaced
				}
			}
			return current
		},
	}
}
