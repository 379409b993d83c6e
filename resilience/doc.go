// Package resilience provides the guards used by the connector pipeline.
//
// This package includes:
//   - CircuitBreaker: fails fast once the failure rate over a sliding ring buffer crosses a threshold
//   - Bulkhead: non-blocking concurrency permits
//   - RateLimiter: fixed-window permits with a bounded wait for the next refill
//   - Retry: re-runs an operation a fixed number of times
//   - WithTimeout: bounds a single attempt and recovers panics
//
// The guards compose by plain function calls:
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("orders"))
//	bh := resilience.NewBulkhead(resilience.DefaultBulkheadConfig("orders"))
//
//	err := bh.Execute(ctx, func() error {
//	    return cb.Execute(func() error {
//	        _, err := resilience.WithTimeout(ctx, 5*time.Second, call)
//	        return err
//	    })
//	})
package resilience
