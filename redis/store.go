package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/connector/cache"
	"github.com/kbukum/connector/logger"
)

// Store is a cache.Store backed by Redis.
type Store struct {
	client    *Client
	keyPrefix string
	ttl       time.Duration
	owned     bool
}

var _ cache.Store = (*Store)(nil)

// NewStore creates a store on an existing client. Closing the store leaves
// the client open.
func NewStore(client *Client, keyPrefix string, ttl time.Duration) *Store {
	return &Store{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (s *Store) fullKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

// Get implements cache.Store.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.client.Get(ctx, s.fullKey(key))
	if err != nil {
		return "", false, fmt.Errorf("redis store get %q: %w", key, err)
	}
	return v, ok, nil
}

// Set implements cache.Store.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.fullKey(key), value, s.ttl); err != nil {
		return fmt.Errorf("redis store set %q: %w", key, err)
	}
	return nil
}

// Close closes the client if the store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

// StoreFactory returns a cache.StoreFactory that opens a Redis client per
// store address using base for everything but the address. An empty address
// selects base.Addr.
func StoreFactory(base Config, log *logger.Logger) cache.StoreFactory {
	base.Enabled = true
	return func(address string) (cache.Store, error) {
		if address == "" {
			address = base.Addr
		}
		client, err := New(base.withAddr(address), log)
		if err != nil {
			return nil, err
		}
		st := NewStore(client, base.KeyPrefix, base.CacheTTL)
		st.owned = true
		return st, nil
	}
}
