package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// Backoff returns the pause after failed attempt n (1-based).
type Backoff func(n int) time.Duration

// ConstantBackoff pauses d after every failure.
func ConstantBackoff(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// ExponentialBackoff pauses initial*factor^(n-1), capped at ceiling, randomized
// by ±jitter (a fraction between 0 and 1).
func ExponentialBackoff(initial, ceiling time.Duration, factor, jitter float64) Backoff {
	if factor < 1 {
		factor = 1
	}
	return func(n int) time.Duration {
		d := float64(initial) * math.Pow(factor, float64(n-1))
		if jitter > 0 {
			d += (rand.Float64()*2 - 1) * d * jitter
		}
		if ceiling > 0 && d > float64(ceiling) {
			d = float64(ceiling)
		}
		if d < 0 {
			return 0
		}
		return time.Duration(d)
	}
}

// RetryConfig configures Retry.
type RetryConfig struct {
	// MaxAttempts counts the first attempt. Values below 1 mean 1.
	MaxAttempts int
	// Backoff spaces attempts. Nil retries immediately.
	Backoff Backoff
	// RetryIf reports whether a failure may be retried. Nil uses DefaultRetryIf.
	RetryIf func(error) bool
	// OnRetry runs before each pause.
	OnRetry func(attempt int, err error, pause time.Duration)
}

// DefaultRetryConfig makes three attempts with jittered exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Backoff:     ExponentialBackoff(100*time.Millisecond, 10*time.Second, 2, 0.1),
		RetryIf:     DefaultRetryIf,
	}
}

// FixedRetryConfig makes retries additional attempts after the first, with a
// constant pause, retrying every error.
func FixedRetryConfig(retries int, pause time.Duration) RetryConfig {
	return RetryConfig{
		MaxAttempts: retries + 1,
		Backoff:     ConstantBackoff(pause),
		RetryIf:     RetryAll,
	}
}

// DefaultRetryIf retries everything except context errors.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// RetryAll retries every error.
func RetryAll(error) bool { return true }

// Retry calls fn until it succeeds, a failure is not retryable, or attempts
// run out, and returns the last outcome. ctx is checked before each attempt
// and interrupts pauses; once an attempt has failed its error is reported in
// preference to the ctx error.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	attempts := max(cfg.MaxAttempts, 1)
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}

	var zero T
	var lastErr error
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return zero, firstNonNil(lastErr, err)
		}
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if n == attempts || !retryIf(err) {
			return zero, err
		}

		var pause time.Duration
		if cfg.Backoff != nil {
			pause = cfg.Backoff(n)
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(n, err, pause)
		}
		if pause > 0 && !sleep(ctx, pause) {
			return zero, lastErr
		}
	}
}

// RetryFunc is Retry for functions without a result.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := Retry(ctx, cfg, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

// sleep pauses for d and reports false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func firstNonNil(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
