package connector

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/connector/cache"
	"github.com/kbukum/connector/command"
	"github.com/kbukum/connector/errors"
	"github.com/kbukum/connector/logger"
	"github.com/kbukum/connector/observability"
	"github.com/kbukum/connector/resilience"
)

// Guard names used in logs and metrics.
const (
	GuardBulkhead       = "bulkhead"
	GuardRateLimiter    = "rate_limiter"
	GuardCircuitBreaker = "circuit_breaker"
)

// Execute runs d through the pipeline and blocks until it completes.
// It never panics; every failure is reported in Result.Err.
func Execute[T any](ctx context.Context, c *Connector, d Descriptor[T]) Result[T] {
	cfg := d.Endpoint
	cfg.ApplyDefaults()

	callID := uuid.NewString()
	ctx = logger.ContextWithCallID(ctx, callID)
	ctx, call := observability.StartCall(ctx, c.metrics, cfg.Name, callID)

	res := run(ctx, c, cfg, d, call)

	elapsed := call.End(ctx, string(res.Code()), res.FromCache, errOrNil(res.Err))
	if cfg.LoggingEnabled {
		c.logCall(ctx, cfg.Name, res.Err, res.FromCache, elapsed)
	}
	return res
}

// ExecuteAsync runs d on its own goroutine. The channel yields exactly one
// result and is then closed.
func ExecuteAsync[T any](ctx context.Context, c *Connector, d Descriptor[T]) <-chan Result[T] {
	out := make(chan Result[T], 1)
	go func() {
		defer close(out)
		out <- Execute(ctx, c, d)
	}()
	return out
}

// ExecuteAll runs every descriptor concurrently. Results arrive in completion
// order, one per descriptor, and the channel is closed when all are done.
// A failure never cancels the other calls.
func ExecuteAll[T any](ctx context.Context, c *Connector, ds []Descriptor[T]) <-chan Result[T] {
	out := make(chan Result[T], len(ds))
	var g errgroup.Group
	for _, d := range ds {
		g.Go(func() error {
			out <- Execute(ctx, c, d)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(out)
	}()
	return out
}

// CollectAll is the blocking form of ExecuteAll.
func CollectAll[T any](ctx context.Context, c *Connector, ds []Descriptor[T]) []Result[T] {
	results := make([]Result[T], 0, len(ds))
	for r := range ExecuteAll(ctx, c, ds) {
		results = append(results, r)
	}
	return results
}

// CollectAllFor runs cmds against one endpoint with one deserializer.
func CollectAllFor[T any](ctx context.Context, c *Connector, cfg EndpointConfig, deser Deserializer[T], cmds []command.Command) []Result[T] {
	ds := make([]Descriptor[T], len(cmds))
	for i, cmd := range cmds {
		ds[i] = Descriptor[T]{Endpoint: cfg, Deserializer: deser, Command: cmd}
	}
	return CollectAll(ctx, c, ds)
}

func run[T any](ctx context.Context, c *Connector, cfg EndpointConfig, d Descriptor[T], call *observability.Call) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Failure[T](errors.Internal(fmt.Errorf("%w: %v", resilience.ErrPanic, r)).
				WithDetail("endpoint", cfg.Name))
		}
	}()

	if cfg.Name == "" {
		return Failure[T](errors.Validation("endpoint name is required"))
	}
	if d.Command == nil {
		return Failure[T](errors.Validation("command is required").WithDetail("endpoint", cfg.Name))
	}
	if d.Deserializer == nil {
		return Failure[T](errors.Validation("deserializer is required").WithDetail("endpoint", cfg.Name))
	}

	outcome, err := c.raw(ctx, cfg, d.Command, call)
	if err != nil {
		return Failure[T](c.classify(cfg.Name, err))
	}

	value, err := deserialize(d.Deserializer, outcome.Raw)
	if err != nil {
		return Failure[T](errors.DeserializationFailed(err).WithDetail("endpoint", cfg.Name))
	}
	return Success(value, outcome.Raw, outcome.FromCache)
}

func deserialize[T any](d Deserializer[T], raw string) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", resilience.ErrPanic, r)
		}
	}()
	return d.Deserialize(raw)
}

// raw applies the cache stage around the guarded stages.
func (c *Connector) raw(ctx context.Context, cfg EndpointConfig, cmd command.Command, call *observability.Call) (cache.Outcome, error) {
	res := c.registry.ResourcesFor(cfg)
	guarded := func(ctx context.Context) (string, error) {
		return c.guarded(ctx, cfg, res, cmd, call)
	}

	if cfg.Cache.Enabled && !c.closed.Load() {
		if key, ok := cmd.CacheKey(); ok && !key.IsZero() {
			return c.cache.Execute(ctx, cfg.Name, cfg.Cache, key.String(), guarded)
		}
	}
	raw, err := guarded(ctx)
	return cache.Outcome{Raw: raw}, err
}

// guarded applies bulkhead, rate limiter and circuit breaker in that order,
// then runs the retried, time-bounded command.
func (c *Connector) guarded(ctx context.Context, cfg EndpointConfig, res *Resources, cmd command.Command, call *observability.Call) (string, error) {
	if err := res.Bulkhead.TryAcquire(); err != nil {
		call.Reject(ctx, GuardBulkhead)
		return "", err
	}
	defer res.Bulkhead.Release()

	if res.RateLimiter != nil {
		if err := res.RateLimiter.Acquire(ctx); err != nil {
			if stderrors.Is(err, resilience.ErrRateLimited) {
				call.Reject(ctx, GuardRateLimiter)
			}
			return "", err
		}
	}

	permit, err := res.CircuitBreaker.Acquire()
	if err != nil {
		call.Reject(ctx, GuardCircuitBreaker)
		return "", err
	}

	raw, err := resilience.Retry(ctx, c.retryConfig(ctx, cfg), func() (string, error) {
		return resilience.WithTimeout(ctx, cfg.Timeout, cmd.Execute)
	})

	if err != nil && ctx.Err() != nil {
		// The caller left; the outcome says nothing about the endpoint.
		res.CircuitBreaker.Release(permit)
	} else {
		res.CircuitBreaker.Record(permit, err)
	}
	return raw, err
}

func (c *Connector) retryConfig(ctx context.Context, cfg EndpointConfig) resilience.RetryConfig {
	rc := resilience.FixedRetryConfig(cfg.Retries, cfg.RetryBackoff)
	rc.OnRetry = func(attempt int, err error, backoff time.Duration) {
		c.log.WithContext(ctx).Debug("Retrying command", logger.Fields(
			logger.FieldEndpoint, cfg.Name,
			logger.FieldAttempt, attempt,
			logger.FieldError, err.Error(),
			"backoff_ms", backoff.Milliseconds(),
		))
	}
	return rc
}

// classify maps a pipeline error onto the error taxonomy. Guard and timeout
// sentinels stay reachable through Unwrap.
func (c *Connector) classify(endpoint string, err error) *errors.AppError {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}
	switch {
	case stderrors.Is(err, resilience.ErrCircuitOpen):
		return errors.CircuitOpen(endpoint).WithCause(err)
	case stderrors.Is(err, resilience.ErrBulkheadFull):
		return errors.BulkheadFull(endpoint).WithCause(err)
	case stderrors.Is(err, resilience.ErrRateLimited):
		return errors.RateLimited(endpoint).WithCause(err)
	case stderrors.Is(err, resilience.ErrTimeout), stderrors.Is(err, context.DeadlineExceeded):
		return errors.Timeout(endpoint).WithCause(err).WithDetail("endpoint", endpoint)
	default:
		return errors.CommandFailed(endpoint, err)
	}
}

func (c *Connector) logCall(ctx context.Context, endpoint string, appErr *errors.AppError, fromCache bool, elapsed time.Duration) {
	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldEndpoint, endpoint,
		logger.FieldFromCache, fromCache,
	), elapsed)
	log := c.log.WithContext(ctx)
	if appErr == nil {
		log.Info("Call completed", fields)
		return
	}
	fields[logger.FieldErrorCode] = appErr.Code
	fields[logger.FieldError] = appErr.Error()
	log.Warn("Call failed", fields)
}

// errOrNil avoids a typed nil inside an error interface.
func errOrNil(e *errors.AppError) error {
	if e == nil {
		return nil
	}
	return e
}
