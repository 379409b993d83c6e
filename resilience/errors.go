package resilience

import "errors"

// Guard errors. Rejections (circuit open, bulkhead full, rate limited)
// are returned before the protected function runs.
var (
	ErrCircuitOpen  = errors.New("circuit breaker is open")
	ErrBulkheadFull = errors.New("bulkhead is full")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrTimeout      = errors.New("operation timed out")
	ErrPanic        = errors.New("panic recovered")
)

// IsRejection reports whether err is a guard rejection.
func IsRejection(err error) bool {
	return errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, ErrBulkheadFull) ||
		errors.Is(err, ErrRateLimited)
}
