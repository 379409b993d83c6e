package connector

import (
	"testing"
	"time"

	"github.com/kbukum/connector/errors"
)

func TestEndpointConfig_ApplyDefaults(t *testing.T) {
	cfg := EndpointConfig{Name: "orders", Retries: -1, RateLimit: RateLimitConfig{Enabled: true}}
	cfg.ApplyDefaults()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"concurrency", cfg.ConcurrencyLimit, DefaultConcurrencyLimit},
		{"retries", cfg.Retries, 0},
		{"timeout", cfg.Timeout, DefaultTimeout},
		{"window", cfg.CircuitBreakerWindowSize, DefaultWindowSize},
		{"threshold", cfg.FailureRateThreshold, float64(DefaultFailureRateThreshold)},
		{"wait", cfg.CircuitBreakerWait, DefaultCircuitBreakerWait},
		{"half open", cfg.HalfOpenCalls, DefaultWindowSize},
		{"permits", cfg.RateLimit.PermitsPerPeriod, DefaultPermitsPerPeriod},
		{"period", cfg.RateLimit.Period, DefaultRatePeriod},
		{"max wait", cfg.RateLimit.MaxWait, DefaultRatePeriod / 10},
		{"cache get", cfg.Cache.GetTimeout, 2 * time.Second},
		{"cache set", cfg.Cache.SetTimeout, 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestEndpointConfig_HalfOpenFollowsWindow(t *testing.T) {
	cfg := EndpointConfig{Name: "x", CircuitBreakerWindowSize: 4}
	cfg.ApplyDefaults()
	if cfg.HalfOpenCalls != 4 {
		t.Errorf("HalfOpenCalls = %d, want 4", cfg.HalfOpenCalls)
	}
}

func TestEndpointConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*EndpointConfig)
		wantErr bool
	}{
		{"valid", func(*EndpointConfig) {}, false},
		{"missing name", func(c *EndpointConfig) { c.Name = "" }, true},
		{"negative retries", func(c *EndpointConfig) { c.Retries = -1 }, true},
		{"threshold above 100", func(c *EndpointConfig) { c.FailureRateThreshold = 150 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewEndpointConfig("orders")
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.HasCode(err, errors.ErrCodeInvalidInput) {
				t.Errorf("code = %s", errors.CodeOf(err))
			}
		})
	}
}
