package connector

import (
	"github.com/kbukum/connector/errors"
)

// Result is the outcome of one pipeline call. Exactly one of Value and Err
// is meaningful: Err is nil on success.
type Result[T any] struct {
	Value T
	// Raw is the response before deserialization.
	Raw string
	// FromCache reports a cache hit. Only meaningful on success.
	FromCache bool
	Err       *errors.AppError
}

// Success creates a successful result.
func Success[T any](value T, raw string, fromCache bool) Result[T] {
	return Result[T]{Value: value, Raw: raw, FromCache: fromCache}
}

// Failure creates a failed result.
func Failure[T any](err *errors.AppError) Result[T] {
	return Result[T]{Err: err}
}

// IsSuccess reports whether the call succeeded.
func (r Result[T]) IsSuccess() bool { return r.Err == nil }

// Code returns the failure code, or "" on success.
func (r Result[T]) Code() errors.ErrorCode {
	if r.Err == nil {
		return ""
	}
	return r.Err.Code
}

// Get returns the value and the failure as a plain error.
func (r Result[T]) Get() (T, error) {
	if r.Err != nil {
		var zero T
		return zero, r.Err
	}
	return r.Value, nil
}
