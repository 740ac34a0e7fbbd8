package engine

import (
	"context"
	"errors"
	"time"

	"e2e_harness/domain/entities"
)

// ErrWaitTimeout is returned by WaitUntil when the policy deadline passes
var ErrWaitTimeout = errors.New("wait deadline exceeded")

// Attempt is one poll tick. done=true stops the loop and err becomes the result.
// done=false means "not yet": the loop sleeps and tries again.
type Attempt func(ctx context.Context) (done bool, err error)

// WaitUntil runs attempt every policy.PollInterval until it reports done or
// policy.Timeout elapses. One last attempt runs at the deadline, so the loop
// never blocks for longer than Timeout plus one poll interval. The context
// handed to attempt carries that hard ceiling.
func WaitUntil(ctx context.Context, policy entities.WaitPolicy, attempt Attempt) error {
	deadline := time.Now().Add(policy.Timeout)
	attemptCtx, cancel := context.WithDeadline(ctx, deadline.Add(policy.PollInterval))
	defer cancel()

	for {
		done, err := attempt(attemptCtx)
		if done {
			if err != nil && attemptCtx.Err() != nil && ctx.Err() == nil {
				// The attempt hit the hard ceiling, not a caller cancellation
				return ErrWaitTimeout
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrWaitTimeout
		}
		wait := policy.PollInterval
		if wait > remaining {
			wait = remaining
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			// Continue polling
		}
	}
}
