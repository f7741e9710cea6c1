package client

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ReadThrough caches one fetched value. Get serves the cached value while it
// is valid and younger than MaxAge, and otherwise refetches. Concurrent
// misses share a single fetch.
type ReadThrough[T any] struct {
	fetch  func(ctx context.Context) (T, error)
	maxAge time.Duration
	now    func() time.Time
	group  singleflight.Group

	mu        sync.RWMutex
	value     T
	valid     bool
	fetchedAt time.Time
	gen       uint64
}

func NewReadThrough[T any](fetch func(ctx context.Context) (T, error), maxAge time.Duration) *ReadThrough[T] {
	return &ReadThrough[T]{fetch: fetch, maxAge: maxAge, now: time.Now}
}

func (c *ReadThrough[T]) Get(ctx context.Context) (T, error) {
	c.mu.RLock()
	if c.fresh() {
		v := c.value
		c.mu.RUnlock()
		return v, nil
	}
	gen := c.gen
	c.mu.RUnlock()

	res, err, _ := c.group.Do("fetch", func() (any, error) {
		v, err := c.fetch(ctx)
		if err != nil {
			return v, err
		}
		c.mu.Lock()
		// An invalidation during the fetch means the result may predate it.
		if c.gen == gen {
			c.value, c.valid, c.fetchedAt = v, true, c.now()
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

func (c *ReadThrough[T]) fresh() bool {
	if !c.valid {
		return false
	}
	return c.maxAge <= 0 || c.now().Sub(c.fetchedAt) < c.maxAge
}

// Peek returns the cached value without fetching.
func (c *ReadThrough[T]) Peek() (T, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.fetchedAt, c.valid
}

func (c *ReadThrough[T]) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.gen++
	c.mu.Unlock()
}

// Mutate rewrites the cached value in place of a refetch. fn reports whether
// it changed anything. Nothing happens when no valid value is cached. The
// fetch timestamp is kept: a local patch does not make the rest fresher.
func (c *ReadThrough[T]) Mutate(fn func(T) (T, bool)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		return false
	}
	next, changed := fn(c.value)
	if changed {
		c.value = next
	}
	return changed
}
