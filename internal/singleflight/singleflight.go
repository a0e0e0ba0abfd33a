// Package singleflight coalesces concurrent loads of the same cache key.
package singleflight

import (
	"context"
	"errors"
	"sync"
)

// Group runs at most one load per key at a time. Callers arriving while a
// load is in flight wait for its result instead of starting their own.
//
// The first caller for a key is the leader and runs fn; the others are
// followers. A follower whose ctx is cancelled stops waiting and returns
// ctx.Err(), the leader's fn keeps running. The zero Group is ready to use.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done  chan struct{} // closed after val/err are written
	val   V
	err   error
	dups  int
	panic any
}

// Do runs fn for key unless a run is already in flight, in which case it
// waits for that run. shared reports whether the result went to more than
// one caller. A panic in fn is re-raised in the leader after followers
// have been released with errPanicked.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (v V, shared bool, err error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	if c, ok := g.m[key]; ok {
		c.dups++
		g.mu.Unlock()

		select {
		case <-c.done:
			return c.val, true, c.err
		case <-ctx.Done():
			var zero V
			return zero, false, ctx.Err()
		}
	}

	c := &call[V]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	g.run(key, c, fn)
	if c.panic != nil {
		panic(c.panic)
	}

	g.mu.Lock()
	shared = c.dups > 0
	g.mu.Unlock()
	return c.val, shared, c.err
}

// Forget drops the in-flight marker for key so the next Do starts a fresh
// load. Callers already waiting keep waiting for the old one.
func (g *Group[K, V]) Forget(key K) {
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()
}

// run executes fn, publishes its result and releases followers even if fn
// panics.
func (g *Group[K, V]) run(key K, c *call[V], fn func() (V, error)) {
	defer func() {
		if r := recover(); r != nil {
			c.panic = r
			c.err = errPanicked
		}
		close(c.done)

		g.mu.Lock()
		if g.m[key] == c {
			delete(g.m, key)
		}
		g.mu.Unlock()
	}()
	c.val, c.err = fn()
}

var errPanicked = errors.New("singleflight: load panicked")
