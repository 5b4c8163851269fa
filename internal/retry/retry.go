package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy controls how many times an operation is attempted and how long to
// wait between attempts.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultPolicy is three attempts five seconds apart.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: 5 * time.Second}
}

// ExhaustedError is returned once every attempt has failed. It wraps the
// error of the last attempt.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Do runs op until it succeeds or the policy's attempts are used up.
// Attempts are numbered from 1. onFailure, when set, is called after every
// failed attempt including the last one.
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context, attempt int) (T, error), onFailure func(attempt int, err error)) (T, error) {
	var zero T
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, joinCtx(err, lastErr)
		}

		result, err := op(ctx, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if onFailure != nil {
			onFailure(attempt, err)
		}

		if attempt == attempts {
			break
		}
		if err := wait(ctx, policy.Delay); err != nil {
			return zero, joinCtx(err, lastErr)
		}
	}
	return zero, &ExhaustedError{Attempts: attempts, Err: lastErr}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func joinCtx(ctxErr, last error) error {
	if last == nil {
		return ctxErr
	}
	return errors.Join(ctxErr, last)
}
