package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/connector/cache"
	"github.com/kbukum/connector/component"
	"github.com/kbukum/connector/logger"
)

// slowPing degrades health.
const slowPing = 250 * time.Millisecond

// Component owns the default Client. Once started it can share that client
// as the cache store of its address.
type Component struct {
	cfg Config
	log *logger.Logger

	mu     sync.RWMutex
	client *Client
	stores []*cache.Stores
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a Redis component for the component registry.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.Nop()
	}
	return &Component{cfg: cfg, log: log.WithComponent("redis")}
}

// Client returns the client, or nil before Start.
func (c *Component) Client() *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// ServeCache makes stores use this component's client for its own address
// and for the empty address once the component starts. Other addresses keep
// going through the registry's factory.
func (c *Component) ServeCache(stores *cache.Stores) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stores = append(c.stores, stores)
	if c.client != nil {
		c.register(stores)
	}
}

func (c *Component) register(stores *cache.Stores) {
	st := NewStore(c.client, c.cfg.KeyPrefix, c.cfg.CacheTTL)
	stores.Register("", st)
	stores.Register(c.client.Addr(), st)
}

// Name implements component.Component.
func (c *Component) Name() string { return "redis" }

// Start connects and pings.
func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("redis start: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis start ping: %w", err)
	}

	c.mu.Lock()
	c.client = client
	for _, s := range c.stores {
		c.register(s)
	}
	c.mu.Unlock()

	c.log.Info("Redis component started", logger.Fields(logger.FieldAddress, client.Addr()))
	return nil
}

// Stop closes the client.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()
	if client == nil {
		return nil
	}
	return client.Close()
}

// Health pings the server. A slow answer is degraded.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name()}
	client := c.Client()
	if client == nil {
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
		return h
	}

	start := time.Now()
	err := client.Ping(ctx)
	rtt := time.Since(start)
	switch {
	case err != nil:
		h.Status = component.StatusUnhealthy
		h.Message = fmt.Sprintf("ping failed: %v", err)
	case rtt > slowPing:
		h.Status = component.StatusDegraded
		h.Message = fmt.Sprintf("slow ping: %s", rtt)
	default:
		h.Status = component.StatusHealthy
		h.Message = fmt.Sprintf("ping %s", rtt.Round(time.Microsecond))
	}
	return h
}
