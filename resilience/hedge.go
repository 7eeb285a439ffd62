package resilience

import (
	"context"
	"time"
)

// Hedge races primary against secondary: secondary starts only after delay
// elapses without a primary result, or immediately if primary fails before
// delay elapses. The first successful result wins; if both fail, primary's
// error is returned when primary ran to completion, else secondary's.
//
// Used by retrieval to hedge a slow vector-store call against a lexical-only
// fallback without doubling latency on the common fast path.
func Hedge[T any](ctx context.Context, primary, secondary func(context.Context) (T, error), delay time.Duration) (T, error) {
	var zero T

	type outcome struct {
		v   T
		err error
	}
	primaryCh := make(chan outcome, 1)
	secondaryCh := make(chan outcome, 1)

	go func() {
		v, err := primary(ctx)
		primaryCh <- outcome{v, err}
	}()

	var timerC <-chan time.Time
	if delay <= 0 {
		fired := make(chan time.Time, 1)
		fired <- time.Now()
		timerC = fired
	} else {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		timerC = timer.C
	}

	secondaryStarted := false
	startSecondary := func() {
		if secondaryStarted {
			return
		}
		secondaryStarted = true
		go func() {
			v, err := secondary(ctx)
			secondaryCh <- outcome{v, err}
		}()
	}

	var primaryErr, secondaryErr error
	var primaryDone, secondaryDone bool

	for {
		select {
		case res := <-primaryCh:
			primaryDone = true
			if res.err == nil {
				return res.v, nil
			}
			primaryErr = res.err
			startSecondary()

		case <-timerC:
			timerC = nil
			startSecondary()

		case res := <-secondaryCh:
			secondaryDone = true
			if res.err == nil {
				return res.v, nil
			}
			secondaryErr = res.err

		case <-ctx.Done():
			return zero, ctx.Err()
		}

		if primaryDone && secondaryDone {
			if primaryErr != nil {
				return zero, primaryErr
			}
			return zero, secondaryErr
		}
	}
}
