package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies HTTP client errors.
type ErrorKind int

const (
	// KindTimeout indicates a request or connection timeout.
	KindTimeout ErrorKind = iota
	// KindConnection indicates a transport failure (refused, DNS, reset).
	KindConnection
	// KindAuth indicates 401/403.
	KindAuth
	// KindNotFound indicates 404.
	KindNotFound
	// KindRateLimit indicates 429.
	KindRateLimit
	// KindClient indicates any other 4xx, or a request that could not be built.
	KindClient
	// KindServer indicates 5xx.
	KindServer
)

var kindNames = map[ErrorKind]string{
	KindTimeout:    "timeout",
	KindConnection: "connection",
	KindAuth:       "auth",
	KindNotFound:   "not_found",
	KindRateLimit:  "rate_limit",
	KindClient:     "client",
	KindServer:     "server",
}

// String returns the kind name.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error is a classified HTTP failure.
type Error struct {
	// StatusCode is 0 for transport-level failures.
	StatusCode int
	Kind       ErrorKind
	Message    string
	Retryable  bool
	// Body holds the response body, if any was read.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("http command failed with status code %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("http command failed (%s): %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func transportError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Message: err.Error(), Retryable: true, Err: err}
}

func requestError(msg string, err error) *Error {
	return &Error{Kind: KindClient, Message: msg, Err: err}
}

// ClassifyStatusCode converts a status code into a typed error. It returns
// nil for 2xx.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	e := &Error{StatusCode: statusCode, Body: body, Message: excerpt(body)}
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Kind = KindAuth
	case statusCode == http.StatusNotFound:
		e.Kind = KindNotFound
	case statusCode == http.StatusTooManyRequests:
		e.Kind, e.Retryable = KindRateLimit, true
	case statusCode >= 400 && statusCode < 500:
		e.Kind = KindClient
	case statusCode >= 500:
		e.Kind, e.Retryable = KindServer, true
	default:
		// 1xx and 3xx that were not followed.
		e.Kind = KindServer
	}
	return e
}

const maxExcerpt = 256

func excerpt(body []byte) string {
	if len(body) > maxExcerpt {
		return string(body[:maxExcerpt]) + "..."
	}
	return string(body)
}

// KindOf returns the kind of an *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindNotFound
}

// IsRetryable reports whether err is a retryable HTTP failure.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
