package connector

import (
	"time"

	"github.com/kbukum/connector/cache"
	"github.com/kbukum/connector/validation"
)

// Endpoint defaults.
const (
	DefaultConcurrencyLimit     = 10
	DefaultTimeout              = 5 * time.Second
	DefaultWindowSize           = 10
	DefaultFailureRateThreshold = 50
	DefaultCircuitBreakerWait   = 60 * time.Second
	DefaultPermitsPerPeriod     = 50
	DefaultRatePeriod           = time.Second
)

// CacheConfig configures cache-aside for an endpoint.
type CacheConfig = cache.Config

// RateLimitConfig configures the fixed-window rate limiter of an endpoint.
type RateLimitConfig struct {
	Enabled          bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	PermitsPerPeriod int           `mapstructure:"permits_per_period" yaml:"permits_per_period" json:"permits_per_period" validate:"gte=0"`
	Period           time.Duration `mapstructure:"period" yaml:"period" json:"period" validate:"gte=0"`
	// MaxWait bounds how long a call may wait for the next window.
	// Zero selects Period/10, negative never waits.
	MaxWait time.Duration `mapstructure:"max_wait" yaml:"max_wait" json:"max_wait"`
}

// EndpointConfig is the policy bundle of one logical endpoint. It is a value:
// build it once, call ApplyDefaults, and share it across calls.
type EndpointConfig struct {
	// Name keys the endpoint's shared resources.
	Name string `mapstructure:"name" yaml:"name" json:"name" validate:"required"`

	// ConcurrencyLimit is the number of bulkhead permits.
	ConcurrencyLimit int `mapstructure:"concurrency_limit" yaml:"concurrency_limit" json:"concurrency_limit" validate:"gte=0"`

	// Retries is the number of additional attempts after a failed one.
	Retries int `mapstructure:"retries" yaml:"retries" json:"retries" validate:"gte=0"`

	// RetryBackoff is the pause between attempts. Zero retries immediately.
	RetryBackoff time.Duration `mapstructure:"retry_backoff" yaml:"retry_backoff" json:"retry_backoff" validate:"gte=0"`

	// Timeout bounds each attempt.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout" validate:"gte=0"`

	CircuitBreakerWindowSize int           `mapstructure:"circuit_breaker_window_size" yaml:"circuit_breaker_window_size" json:"circuit_breaker_window_size" validate:"gte=0"`
	FailureRateThreshold     float64       `mapstructure:"failure_rate_threshold" yaml:"failure_rate_threshold" json:"failure_rate_threshold" validate:"gte=0,lte=100"`
	CircuitBreakerWait       time.Duration `mapstructure:"circuit_breaker_wait" yaml:"circuit_breaker_wait" json:"circuit_breaker_wait" validate:"gte=0"`

	// HalfOpenCalls is the number of trial calls; defaults to the window size.
	HalfOpenCalls int `mapstructure:"half_open_calls" yaml:"half_open_calls" json:"half_open_calls" validate:"gte=0"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache" json:"cache"`

	// LoggingEnabled logs every completed call with its duration.
	LoggingEnabled bool `mapstructure:"logging_enabled" yaml:"logging_enabled" json:"logging_enabled"`
}

// NewEndpointConfig returns a config with defaults applied.
func NewEndpointConfig(name string) EndpointConfig {
	cfg := EndpointConfig{Name: name}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields.
func (c *EndpointConfig) ApplyDefaults() {
	if c.ConcurrencyLimit <= 0 {
		c.ConcurrencyLimit = DefaultConcurrencyLimit
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.CircuitBreakerWindowSize <= 0 {
		c.CircuitBreakerWindowSize = DefaultWindowSize
	}
	if c.FailureRateThreshold <= 0 {
		c.FailureRateThreshold = DefaultFailureRateThreshold
	}
	if c.CircuitBreakerWait <= 0 {
		c.CircuitBreakerWait = DefaultCircuitBreakerWait
	}
	if c.HalfOpenCalls <= 0 {
		c.HalfOpenCalls = c.CircuitBreakerWindowSize
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.PermitsPerPeriod <= 0 {
			c.RateLimit.PermitsPerPeriod = DefaultPermitsPerPeriod
		}
		if c.RateLimit.Period <= 0 {
			c.RateLimit.Period = DefaultRatePeriod
		}
		if c.RateLimit.MaxWait == 0 {
			c.RateLimit.MaxWait = c.RateLimit.Period / 10
		}
	}
	c.Cache.ApplyDefaults()
}

// Validate checks the struct tags. It returns an *errors.AppError with
// per-field details.
func (c *EndpointConfig) Validate() error {
	return validation.Validate(c)
}
