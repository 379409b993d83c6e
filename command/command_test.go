package command

import (
	"context"
	"errors"
	"testing"
)

func TestFunc_NotCacheable(t *testing.T) {
	cmd := Func(func(ctx context.Context) (string, error) { return "ok", nil })

	v, err := cmd.Execute(context.Background())
	if err != nil || v != "ok" {
		t.Errorf("expected ok, got %q %v", v, err)
	}
	if _, ok := cmd.CacheKey(); ok {
		t.Error("Func should not be cacheable")
	}
}

func TestWithCacheKey(t *testing.T) {
	base := Func(func(ctx context.Context) (string, error) { return "v", nil })
	cmd := WithCacheKey(base, NewCacheKey("users:1"))

	key, ok := cmd.CacheKey()
	if !ok {
		t.Fatal("expected cacheable command")
	}
	if key.String() != "users:1" {
		t.Errorf("expected key users:1, got %s", key)
	}
	if v, _ := cmd.Execute(context.Background()); v != "v" {
		t.Errorf("expected execution to delegate, got %q", v)
	}
}

func TestWithCacheKey_ZeroKey(t *testing.T) {
	base := Func(func(ctx context.Context) (string, error) { return "", nil })
	if _, ok := WithCacheKey(base, CacheKey{}).CacheKey(); ok {
		t.Error("zero key should leave the command uncacheable")
	}
}

func TestCacheKey_Equality(t *testing.T) {
	if NewCacheKey("a") != NewCacheKey("a") {
		t.Error("keys with equal values should be equal")
	}
	if NewCacheKey("a") == NewCacheKey("b") {
		t.Error("keys with different values should differ")
	}
	if !(CacheKey{}).IsZero() || NewCacheKey("a").IsZero() {
		t.Error("unexpected IsZero result")
	}
}

func TestFunc_PropagatesError(t *testing.T) {
	testErr := errors.New("down")
	_, err := Func(func(ctx context.Context) (string, error) { return "", testErr }).Execute(context.Background())
	if !errors.Is(err, testErr) {
		t.Errorf("expected testErr, got %v", err)
	}
}
