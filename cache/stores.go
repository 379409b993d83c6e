package cache

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// ErrStoresClosed is returned by Get after Close.
var ErrStoresClosed = errors.New("cache stores closed")

// StoreFactory builds the Store serving an address.
type StoreFactory func(address string) (Store, error)

// MemoryFactory returns a factory creating one Memory store per address.
func MemoryFactory(ttl time.Duration) StoreFactory {
	return func(string) (Store, error) {
		return NewMemory(ttl), nil
	}
}

// Stores resolves and keeps one Store per address.
type Stores struct {
	factory StoreFactory

	mu     sync.Mutex
	stores map[string]Store
	closed bool
}

// NewStores creates a store registry. A nil factory uses MemoryFactory(0).
func NewStores(factory StoreFactory) *Stores {
	if factory == nil {
		factory = MemoryFactory(0)
	}
	return &Stores{factory: factory, stores: make(map[string]Store)}
}

// Get returns the store for address, building it on first use.
// A failed build is not remembered, so the next call tries again.
func (s *Stores) Get(address string) (Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoresClosed
	}
	if st, ok := s.stores[address]; ok {
		return st, nil
	}
	st, err := s.factory(address)
	if err != nil {
		return nil, fmt.Errorf("cache store %q: %w", address, err)
	}
	s.stores[address] = st
	return st, nil
}

// Register installs st for address, replacing any existing store.
func (s *Stores) Register(address string, st Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores[address] = st
}

// Addresses returns the addresses with a resolved store.
func (s *Stores) Addresses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.stores))
	for addr := range s.stores {
		out = append(out, addr)
	}
	return out
}

// Close closes every resolved store that implements io.Closer. Later Get
// calls fail with ErrStoresClosed.
func (s *Stores) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	var errs []error
	for addr, st := range s.stores {
		if c, ok := st.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close cache store %q: %w", addr, err))
			}
		}
		delete(s.stores, addr)
	}
	return errors.Join(errs...)
}
