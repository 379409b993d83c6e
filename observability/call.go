package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Call tracks one pipeline call: a span plus the call metrics.
type Call struct {
	Endpoint  string
	ID        string
	StartTime time.Time
	span      trace.Span
	metrics   *Metrics
}

// StartCall starts the call span. metrics may be nil.
func StartCall(ctx context.Context, metrics *Metrics, endpoint, callID string) (context.Context, *Call) {
	ctx, span := StartSpan(ctx, SpanCall, trace.WithAttributes(
		attribute.String(AttrEndpoint, endpoint),
		attribute.String(AttrCallID, callID),
	))
	return ctx, &Call{
		Endpoint:  endpoint,
		ID:        callID,
		StartTime: time.Now(),
		span:      span,
		metrics:   metrics,
	}
}

// Duration returns the elapsed time since the call started.
func (c *Call) Duration() time.Duration {
	return time.Since(c.StartTime)
}

// Reject records a guard rejection on the span and metrics.
func (c *Call) Reject(ctx context.Context, guard string) {
	c.span.AddEvent("rejected", trace.WithAttributes(attribute.String(AttrGuard, guard)))
	c.metrics.RecordRejection(ctx, c.Endpoint, guard)
}

// End closes the span and records the call. code is empty on success.
func (c *Call) End(ctx context.Context, code string, fromCache bool, err error) time.Duration {
	d := c.Duration()
	c.span.SetAttributes(
		attribute.Bool(AttrFromCache, fromCache),
		attribute.Int64(AttrDurationMs, d.Milliseconds()),
	)
	if err != nil {
		c.span.RecordError(err)
		c.span.SetAttributes(attribute.String(AttrCode, code))
		c.span.SetStatus(codes.Error, code)
	} else {
		c.span.SetStatus(codes.Ok, "")
	}
	c.span.End()
	c.metrics.RecordCall(ctx, c.Endpoint, code, fromCache, d)
	return d
}
