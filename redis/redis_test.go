package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/connector/cache"
	"github.com/kbukum/connector/command"
	"github.com/kbukum/connector/component"
	"github.com/kbukum/connector/logger"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mini.Close)

	client, err := New(Config{Enabled: true, Addr: mini.Addr()}, logger.Nop())
	if err != nil {
		t.Fatalf("failed to create redis client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, mini
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled", Config{}, false},
		{"missing addr", Config{Enabled: true, PoolSize: 1}, true},
		{"negative ttl", Config{Enabled: true, Addr: "x:1", PoolSize: 1, CacheTTL: -time.Second}, true},
		{"valid", Config{Enabled: true, Addr: "x:1", PoolSize: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_Disabled(t *testing.T) {
	if _, err := New(Config{}, logger.Nop()); err == nil {
		t.Fatal("expected error for disabled config")
	}
}

func TestClient_GetSetDel(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if _, ok, err := client.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}
	if err := client.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := client.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("Get(k) = %q, %v, %v", v, ok, err)
	}
	if err := client.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, _ := client.Get(ctx, "k"); ok {
		t.Error("expected key to be deleted")
	}
	if err := client.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestClient_CloseIdempotent(t *testing.T) {
	client, _ := newTestClient(t)
	if err := client.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestStore_PrefixAndTTL(t *testing.T) {
	client, mini := newTestClient(t)
	st := NewStore(client, "conn", time.Minute)
	ctx := context.Background()

	if err := st.Set(ctx, "GET /a", "body"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, err := mini.Get("conn:GET /a"); err != nil || got != "body" {
		t.Errorf("raw value = %q, %v", got, err)
	}
	if ttl := mini.TTL("conn:GET /a"); ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}

	v, ok, err := st.Get(ctx, "GET /a")
	if err != nil || !ok || v != "body" {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}

	mini.FastForward(2 * time.Minute)
	if _, ok, _ := st.Get(ctx, "GET /a"); ok {
		t.Error("expected entry to expire")
	}
}

func TestStore_ServerDownIsError(t *testing.T) {
	client, mini := newTestClient(t)
	st := NewStore(client, "", 0)
	mini.Close()

	if _, _, err := st.Get(context.Background(), "k"); err == nil {
		t.Error("expected error when server is down")
	}
}

func TestStoreFactory_WithStores(t *testing.T) {
	mini := miniredis.RunT(t)
	stores := cache.NewStores(StoreFactory(Config{KeyPrefix: "p"}, logger.Nop()))
	t.Cleanup(func() { stores.Close() })

	st, err := stores.Get(mini.Addr())
	if err != nil {
		t.Fatalf("Get store: %v", err)
	}
	if err := st.Set(context.Background(), "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := mini.Get("p:k"); got != "v" {
		t.Errorf("raw value = %q, want v", got)
	}
	again, _ := stores.Get(mini.Addr())
	if again != st {
		t.Error("expected the same store for the same address")
	}
}

func TestCommands(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	set := NewSetCommand(client, "user:1", "alice")
	raw, err := set.Execute(ctx)
	if err != nil || raw != "true" {
		t.Fatalf("Set Execute = %q, %v", raw, err)
	}

	get := NewGetCommand(client, command.NewCacheKey("user:1"))
	raw, err = get.Execute(ctx)
	if err != nil || raw != "alice" {
		t.Fatalf("Get Execute = %q, %v", raw, err)
	}

	_, err = NewGetCommand(client, command.NewCacheKey("user:2")).Execute(ctx)
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("missing key error = %v, want ErrKeyNotFound", err)
	}

	if _, ok := get.CacheKey(); ok {
		t.Error("GetCommand must not be cacheable")
	}
	if _, ok := set.CacheKey(); ok {
		t.Error("SetCommand must not be cacheable")
	}
}

func TestComponent_Lifecycle(t *testing.T) {
	mini := miniredis.RunT(t)
	c := NewComponent(Config{Enabled: true, Addr: mini.Addr()}, logger.Nop())
	ctx := context.Background()

	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("health before start = %s", h.Status)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.Client() == nil {
		t.Fatal("expected client after start")
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("health after start = %s (%s)", h.Status, h.Message)
	}
	if err := c.Stop(ctx); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestComponent_ServeCache(t *testing.T) {
	mini := miniredis.RunT(t)
	c := NewComponent(Config{Enabled: true, Addr: mini.Addr(), KeyPrefix: "svc"}, logger.Nop())
	stores := cache.NewStores(nil)
	c.ServeCache(stores)

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = c.Stop(ctx) })

	st, err := stores.Get("")
	if err != nil {
		t.Fatalf("Get store: %v", err)
	}
	if _, ok := st.(*Store); !ok {
		t.Fatalf("store = %T, want *redis.Store", st)
	}
	if err := st.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := mini.Get("svc:k"); got != "v" {
		t.Errorf("redis value = %q, want v", got)
	}

	// the shared store must not close the component's client
	if err := stores.Close(); err != nil {
		t.Fatalf("stores.Close: %v", err)
	}
	if err := c.Client().Ping(ctx); err != nil {
		t.Errorf("client closed by stores: %v", err)
	}
}

func TestComponent_StartFailsWhenUnreachable(t *testing.T) {
	mini := miniredis.RunT(t)
	addr := mini.Addr()
	mini.Close()

	c := NewComponent(Config{Enabled: true, Addr: addr, MaxRetries: -1, DialTimeout: 200 * time.Millisecond}, logger.Nop())
	if err := c.Start(context.Background()); err == nil {
		t.Error("expected start to fail")
	}
}
