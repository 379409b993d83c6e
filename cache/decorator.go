package cache

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/connector/errors"
	"github.com/kbukum/connector/logger"
)

const (
	DefaultGetTimeout = 2 * time.Second
	DefaultSetTimeout = 5 * time.Second
)

// Config configures caching for one endpoint.
type Config struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	// StoreAddress selects the store, e.g. "localhost:6379".
	StoreAddress string `mapstructure:"store_address" yaml:"store_address" json:"store_address,omitempty"`
	// GetTimeout bounds the lookup, independently of the endpoint timeout.
	GetTimeout time.Duration `mapstructure:"get_timeout" yaml:"get_timeout" json:"get_timeout" validate:"gte=0"`
	// SetTimeout bounds the asynchronous write-back.
	SetTimeout time.Duration `mapstructure:"set_timeout" yaml:"set_timeout" json:"set_timeout" validate:"gte=0"`
}

// ApplyDefaults fills unset timeouts.
func (c *Config) ApplyDefaults() {
	if c.GetTimeout <= 0 {
		c.GetTimeout = DefaultGetTimeout
	}
	if c.SetTimeout <= 0 {
		c.SetTimeout = DefaultSetTimeout
	}
}

// Outcome is the raw result of a decorated call.
type Outcome struct {
	Raw       string
	FromCache bool
}

// Guarded runs the protected pipeline on a cache miss.
type Guarded func(ctx context.Context) (string, error)

// WriteObserver is told about every finished write-back.
type WriteObserver func(endpoint string, err error)

// Option configures a Decorator.
type Option func(*Decorator)

// WithLogger sets the decorator logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Decorator) { d.log = l }
}

// WithWriteObserver registers a callback for finished write-backs.
func WithWriteObserver(fn WriteObserver) Option {
	return func(d *Decorator) { d.onWrite = fn }
}

// Decorator applies read-through lookups and asynchronous write-backs.
//
// pending counts cached calls in flight plus their write-backs. New calls
// join it only while the decorator is open, so Close sees every store use.
type Decorator struct {
	stores  *Stores
	log     *logger.Logger
	onWrite WriteObserver

	mu      sync.Mutex
	closed  bool
	pending sync.WaitGroup
}

// NewDecorator creates a decorator resolving stores from stores.
func NewDecorator(stores *Stores, opts ...Option) *Decorator {
	d := &Decorator{stores: stores}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logger.Get("cache")
	}
	return d
}

// Execute serves key from the endpoint's store or runs guarded.
//
// A hit returns the stored value with FromCache set and never calls guarded.
// A miss or a failed lookup runs guarded; on success its value is written
// back asynchronously with cfg.SetTimeout and the caller is not delayed.
// Errors from guarded are returned as is. After Close, guarded runs
// without touching the stores.
func (d *Decorator) Execute(ctx context.Context, endpoint string, cfg Config, key string, guarded Guarded) (Outcome, error) {
	if !d.enter() {
		raw, err := guarded(ctx)
		return Outcome{Raw: raw}, err
	}
	defer d.pending.Done()

	cfg.ApplyDefaults()
	log := d.log.WithContext(ctx).WithFields(logger.Fields(
		logger.FieldEndpoint, endpoint,
		logger.FieldCacheKey, key,
	))

	store, err := d.stores.Get(cfg.StoreAddress)
	if err != nil {
		log.Warn("Cache store unavailable, calling endpoint", logger.Fields(
			logger.FieldErrorCode, errors.ErrCodeCache,
			logger.FieldError, err.Error(),
		))
		raw, err := guarded(ctx)
		return Outcome{Raw: raw}, err
	}

	if raw, ok := d.lookup(ctx, log, store, cfg, key); ok {
		return Outcome{Raw: raw, FromCache: true}, nil
	}

	raw, err := guarded(ctx)
	if err != nil {
		return Outcome{}, err
	}

	d.writeBack(log, store, cfg, endpoint, key, raw)
	return Outcome{Raw: raw}, nil
}

func (d *Decorator) enter() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.pending.Add(1)
	return true
}

func (d *Decorator) lookup(ctx context.Context, log *logger.Logger, store Store, cfg Config, key string) (string, bool) {
	getCtx, cancel := context.WithTimeout(ctx, cfg.GetTimeout)
	defer cancel()

	raw, ok, err := store.Get(getCtx, key)
	switch {
	case err != nil:
		appErr := errors.CacheFailed("get", err)
		log.Warn("Cache lookup failed, calling endpoint", logger.Fields(
			logger.FieldErrorCode, appErr.Code,
			logger.FieldError, appErr.Error(),
		))
		return "", false
	case !ok:
		log.Debug("Cache miss")
		return "", false
	default:
		log.Debug("Cache hit")
		return raw, true
	}
}

// writeBack stores raw on a context detached from the caller, so a caller
// returning or cancelling does not abort the write.
func (d *Decorator) writeBack(log *logger.Logger, store Store, cfg Config, endpoint, key, raw string) {
	d.pending.Add(1)
	go func() {
		defer d.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.SetTimeout)
		defer cancel()

		err := store.Set(ctx, key, raw)
		if err != nil {
			appErr := errors.CacheFailed("set", err)
			log.Warn("Cache write-back failed", logger.Fields(
				logger.FieldErrorCode, appErr.Code,
				logger.FieldError, appErr.Error(),
			))
		} else {
			log.Debug("Cache write-back stored")
		}
		if d.onWrite != nil {
			d.onWrite(endpoint, err)
		}
	}()
}

// Close stops caching new calls and waits, bounded by ctx, for the calls
// already using a store and their write-backs.
func (d *Decorator) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return d.WaitContext(ctx)
}

// Wait blocks until every pending write-back has finished.
func (d *Decorator) Wait() {
	d.pending.Wait()
}

// WaitContext is Wait bounded by ctx.
func (d *Decorator) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stores returns the store registry.
func (d *Decorator) Stores() *Stores { return d.stores }
