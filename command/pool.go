package command

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Pool runs blocking functions on a bounded number of goroutines.
type Pool struct {
	size   int64
	sem    *semaphore.Weighted
	active atomic.Int64
}

// NewPool creates a pool running at most size functions at once.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{size: int64(size), sem: semaphore.NewWeighted(int64(size))}
}

// Run waits for a free slot, then executes fn on a pool goroutine and waits
// for its result. When ctx ends first Run returns ctx.Err(); fn keeps running
// and its slot is freed when it returns.
func (p *Pool) Run(ctx context.Context, fn func() (string, error)) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}

	type result struct {
		value string
		err   error
	}
	done := make(chan result, 1)
	p.active.Add(1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("blocking command panicked: %v", r)}
			}
			p.active.Add(-1)
			p.sem.Release(1)
		}()
		v, err := fn()
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Active returns the number of functions currently running.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Size returns the pool capacity.
func (p *Pool) Size() int { return int(p.size) }

type blocking struct {
	pool *Pool
	fn   func() (string, error)
}

// Blocking wraps a blocking function as a non-cacheable Command running on pool.
func Blocking(pool *Pool, fn func() (string, error)) Command {
	return blocking{pool: pool, fn: fn}
}

func (b blocking) Execute(ctx context.Context) (string, error) {
	return b.pool.Run(ctx, b.fn)
}

func (blocking) CacheKey() (CacheKey, bool) { return CacheKey{}, false }
