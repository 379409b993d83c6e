package connector

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/connector/cache"
	"github.com/kbukum/connector/command"
	"github.com/kbukum/connector/logger"
)

// countingCommand counts executions and returns value or err after delay.
type countingCommand struct {
	calls atomic.Int32
	delay time.Duration
	value string
	err   error
	key   command.CacheKey
}

func (c *countingCommand) Execute(ctx context.Context) (string, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return c.value, c.err
}

func (c *countingCommand) CacheKey() (command.CacheKey, bool) {
	return c.key, !c.key.IsZero()
}

func okCommand(value string) *countingCommand {
	return &countingCommand{value: value}
}

var errBoom = errors.New("boom")

func failingCommand() *countingCommand {
	return &countingCommand{err: errBoom}
}

func newTestConnector(t *testing.T, opts ...Option) *Connector {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	c := New(opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = c.Close(ctx)
	})
	return c
}

func testEndpoint(name string) EndpointConfig {
	cfg := NewEndpointConfig(name)
	cfg.Timeout = time.Second
	return cfg
}

func stringCall(cfg EndpointConfig, cmd command.Command) Descriptor[string] {
	return Descriptor[string]{Endpoint: cfg, Deserializer: String(), Command: cmd}
}

func memoryStores(t *testing.T, address string) (*cache.Stores, *cache.Memory) {
	t.Helper()
	mem := cache.NewMemory(0)
	stores := cache.NewStores(nil)
	stores.Register(address, mem)
	return stores, mem
}
