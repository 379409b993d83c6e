package connector

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/kbukum/connector/cache"
	"github.com/kbukum/connector/component"
	"github.com/kbukum/connector/logger"
	"github.com/kbukum/connector/observability"
	"github.com/kbukum/connector/resilience"
)

// Connector owns the endpoint registry and the cache decorator. It is safe
// for concurrent use; create one per process.
type Connector struct {
	registry *Registry
	cache    *cache.Decorator
	stores   *cache.Stores
	metrics  *observability.Metrics
	log      *logger.Logger
	closed   atomic.Bool
}

// Option configures a Connector.
type Option func(*options)

type options struct {
	log      *logger.Logger
	metrics  *observability.Metrics
	stores   *cache.Stores
	registry *Registry
}

// WithLogger sets the logger. Defaults to logger.Get("connector").
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records pipeline metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithStores sets the cache store registry. Defaults to in-memory stores.
func WithStores(s *cache.Stores) Option {
	return func(o *options) { o.stores = s }
}

// WithRegistry shares an existing endpoint registry.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// New creates a Connector.
func New(opts ...Option) *Connector {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("connector")
	}
	if o.stores == nil {
		o.stores = cache.NewStores(nil)
	}

	c := &Connector{
		stores:  o.stores,
		metrics: o.metrics,
		log:     o.log.WithComponent("connector"),
	}
	c.registry = o.registry
	if c.registry == nil {
		c.registry = NewRegistry(c.stateChanged)
	}
	c.cache = cache.NewDecorator(o.stores,
		cache.WithLogger(o.log.WithComponent("cache")),
		cache.WithWriteObserver(func(endpoint string, err error) {
			c.metrics.RecordCacheWrite(context.Background(), endpoint, err)
		}),
	)
	return c
}

// Registry returns the endpoint registry.
func (c *Connector) Registry() *Registry { return c.registry }

// Preload registers endpoints ahead of traffic.
func (c *Connector) Preload(cfgs ...EndpointConfig) error {
	return c.registry.Preload(cfgs...)
}

// Close waits for in-flight cached calls and their writes, bounded by ctx,
// then closes the cache stores. Calls made after Close still run but are
// not cached.
func (c *Connector) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	waitErr := c.cache.Close(ctx)
	if waitErr != nil {
		waitErr = fmt.Errorf("waiting for cache writes: %w", waitErr)
	}
	return errors.Join(waitErr, c.stores.Close())
}

func (c *Connector) stateChanged(endpoint string, from, to resilience.State) {
	fields := logger.Fields(
		logger.FieldEndpoint, endpoint,
		"from", from.String(),
		logger.FieldState, to.String(),
	)
	if to == resilience.StateOpen {
		c.log.Warn("Circuit breaker opened", fields)
	} else {
		c.log.Info("Circuit breaker state changed", fields)
	}
	c.metrics.RecordTransition(context.Background(), endpoint, from.String(), to.String())
}

// ServiceHealth reports endpoint health from circuit states.
func (c *Connector) ServiceHealth(service, version string) *observability.ServiceHealth {
	sh := observability.NewServiceHealth(service, version)
	for _, st := range c.registry.Snapshot() {
		sh.AddComponent(observability.CircuitHealth(st.Name, st.Circuit.State))
	}
	return sh
}

var _ component.Component = (*Connector)(nil)

// Name implements component.Component.
func (c *Connector) Name() string { return "connector" }

// Start implements component.Component.
func (c *Connector) Start(_ context.Context) error {
	c.log.Info("Connector started", logger.Fields("endpoints", c.registry.Len()))
	return nil
}

// Stop implements component.Component.
func (c *Connector) Stop(ctx context.Context) error {
	return c.Close(ctx)
}

// Health implements component.Component. Open circuits degrade the connector.
func (c *Connector) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	var open []string
	for _, st := range c.registry.Snapshot() {
		if st.Circuit.State == resilience.StateOpen {
			open = append(open, st.Name)
		}
	}
	if len(open) > 0 {
		h.Status = component.StatusDegraded
		h.Message = fmt.Sprintf("open circuits: %v", open)
	}
	return h
}
