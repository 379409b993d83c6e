package resilience

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"
)

// PanicError is returned when the protected function panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%v: %v", ErrPanic, e.Value)
}

// Unwrap makes errors.Is(err, ErrPanic) hold.
func (e *PanicError) Unwrap() error { return ErrPanic }

// WithTimeout runs fn with a context that expires after d.
//
// fn runs on its own goroutine. When d elapses first, WithTimeout returns
// ErrTimeout immediately and cancels fn's context; fn is expected to observe
// cancellation but is not forcibly stopped. If the parent context ends first
// its error is returned. A d <= 0 disables the deadline. Panics in fn are
// recovered into *PanicError.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if d <= 0 {
		return safeCall(ctx, fn)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := safeCall(attemptCtx, fn)
		done <- outcome{v, err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, fmt.Errorf("%w after %s", ErrTimeout, d)
	}
}

func safeCall[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(ctx)
}
