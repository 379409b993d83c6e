// Package errors provides the error taxonomy of the connector.
//
// Every failure that leaves the pipeline is an *AppError carrying a
// machine-readable ErrorCode, a retryable hint, an HTTP status mapping for
// the status server, and the underlying cause. Callers inspect the code:
//
//	res := connector.Execute(ctx, c, desc)
//	switch errors.CodeOf(res.Err) {
//	case errors.ErrCodeCircuitOpen:
//	    // fail fast, endpoint considered unhealthy
//	case errors.ErrCodeTimeout:
//	    // ...
//	}
package errors
