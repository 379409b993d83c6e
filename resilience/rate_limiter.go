package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimiterConfig configures a rate limiter.
type RateLimiterConfig struct {
	// Name identifies this rate limiter for metrics/logging.
	Name string
	// PermitsPerPeriod is the number of calls allowed per period.
	PermitsPerPeriod int
	// Period is the refresh period. Windows are aligned to limiter creation.
	Period time.Duration
	// MaxWait is how long a caller may wait for a future permit.
	// Defaults to Period/10; a negative value means never wait.
	MaxWait time.Duration
	// OnLimit is called when a request is rate limited.
	OnLimit func(name string)
}

// DefaultRateLimiterConfig returns sensible defaults.
func DefaultRateLimiterConfig(name string) RateLimiterConfig {
	return RateLimiterConfig{
		Name:             name,
		PermitsPerPeriod: 50,
		Period:           time.Second,
		MaxWait:          100 * time.Millisecond,
	}
}

// RateLimiter implements a fixed-window rate limiter.
//
// At the start of every period the permit count is refilled to
// PermitsPerPeriod. A caller that finds no permit reserves one from a future
// window when that window starts within MaxWait, then sleeps until it does.
// Otherwise it is rejected with ErrRateLimited.
type RateLimiter struct {
	config RateLimiterConfig
	start  time.Time

	mu      sync.Mutex
	window  int64
	permits int // negative when permits of future windows are reserved
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.PermitsPerPeriod <= 0 {
		config.PermitsPerPeriod = 50
	}
	if config.Period <= 0 {
		config.Period = time.Second
	}
	if config.MaxWait == 0 {
		config.MaxWait = config.Period / 10
	}

	return &RateLimiter{
		config:  config,
		start:   time.Now(),
		permits: config.PermitsPerPeriod,
	}
}

// Allow takes a permit from the current window without waiting.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refresh(time.Now())
	if rl.permits > 0 {
		rl.permits--
		return true
	}
	rl.limited()
	return false
}

// Acquire takes a permit, waiting at most MaxWait for the next refill.
// Returns ErrRateLimited when no permit can be obtained in time, or the
// context error if ctx is done while waiting.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	wait, err := rl.reserve(time.Now())
	if err != nil {
		return err
	}
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		rl.cancelReservation()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Execute runs fn once a permit is obtained.
func (rl *RateLimiter) Execute(ctx context.Context, fn func() error) error {
	if err := rl.Acquire(ctx); err != nil {
		return err
	}
	return fn()
}

// AvailablePermits returns the permits left in the current window.
// It is negative when callers hold reservations on future windows.
func (rl *RateLimiter) AvailablePermits() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refresh(time.Now())
	return rl.permits
}

// PermitsPerPeriod returns the configured permits per period.
func (rl *RateLimiter) PermitsPerPeriod() int {
	return rl.config.PermitsPerPeriod
}

// Period returns the configured refresh period.
func (rl *RateLimiter) Period() time.Duration {
	return rl.config.Period
}

// reserve takes a permit now or from a future window and returns how long
// the caller has to wait for it.
func (rl *RateLimiter) reserve(now time.Time) (time.Duration, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refresh(now)
	if rl.permits > 0 {
		rl.permits--
		return 0, nil
	}

	// Windows ahead that must refill before a permit is ours.
	ahead := int64(-rl.permits/rl.config.PermitsPerPeriod) + 1
	available := rl.start.Add(time.Duration(rl.window+ahead) * rl.config.Period)
	wait := available.Sub(now)
	if rl.config.MaxWait < 0 || wait > rl.config.MaxWait {
		rl.limited()
		return 0, ErrRateLimited
	}
	rl.permits--
	return wait, nil
}

func (rl *RateLimiter) cancelReservation() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refresh(time.Now())
	if rl.permits < rl.config.PermitsPerPeriod {
		rl.permits++
	}
}

// refresh moves the limiter to the window containing now.
func (rl *RateLimiter) refresh(now time.Time) {
	window := int64(now.Sub(rl.start) / rl.config.Period)
	if window <= rl.window {
		return
	}
	elapsed := window - rl.window
	rl.window = window

	refill := int64(rl.permits) + elapsed*int64(rl.config.PermitsPerPeriod)
	if refill > int64(rl.config.PermitsPerPeriod) {
		refill = int64(rl.config.PermitsPerPeriod)
	}
	rl.permits = int(refill)
}

func (rl *RateLimiter) limited() {
	if rl.config.OnLimit != nil {
		rl.config.OnLimit(rl.config.Name)
	}
}
