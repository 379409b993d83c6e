package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Pipeline failures.
const (
	// ErrCodeCommandFailed indicates the command itself returned an error.
	ErrCodeCommandFailed ErrorCode = "COMMAND_FAILED"
	// ErrCodeTimeout indicates an attempt exceeded the endpoint timeout.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeDeserialization indicates the raw response could not be converted.
	ErrCodeDeserialization ErrorCode = "DESERIALIZATION_FAILED"
	// ErrCodeCache indicates a cache store read or write failed.
	ErrCodeCache ErrorCode = "CACHE_ERROR"
)

// Admission rejections. These are never retried by the pipeline.
const (
	// ErrCodeCircuitOpen indicates the endpoint circuit breaker rejected the call.
	ErrCodeCircuitOpen ErrorCode = "CIRCUIT_OPEN"
	// ErrCodeBulkheadFull indicates no concurrency permit was available.
	ErrCodeBulkheadFull ErrorCode = "BULKHEAD_FULL"
	// ErrCodeRateLimited indicates the endpoint rate limit was exhausted.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Generic errors.
const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeCommandFailed: true,
	ErrCodeTimeout:       true,
	ErrCodeCircuitOpen:   true,
	ErrCodeBulkheadFull:  true,
	ErrCodeRateLimited:   true,
	ErrCodeCache:         true,
}

// IsRetryableCode reports whether a caller may reasonably retry later.
// The pipeline itself only retries command failures and timeouts.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// IsRejection reports whether the code is an admission rejection
// (circuit open, bulkhead full, rate limited).
func IsRejection(code ErrorCode) bool {
	switch code {
	case ErrCodeCircuitOpen, ErrCodeBulkheadFull, ErrCodeRateLimited:
		return true
	}
	return false
}
