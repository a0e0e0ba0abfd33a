package cache

import (
	"context"
	"sync"
	"time"

	"github.com/IvanBrykalov/lrucache/internal/singleflight"
)

// Synced is a TTLCache behind a single mutex. Every operation, Get
// included, mutates recency order, so there is no read lock.
//
// GetOrLoad runs the Loader outside the lock and coalesces concurrent loads
// of the same key (singleflight).
type Synced[K comparable, V any] struct {
	mu sync.Mutex
	c  *TTLCache[K, V]

	sf singleflight.Group[K, V]
}

var _ Cache[string, int] = (*Synced[string, int])(nil)

// NewSynced constructs a concurrency-safe TTL cache.
func NewSynced[K comparable, V any](opt Options[K, V]) (*Synced[K, V], error) {
	c, err := New[K, V](opt)
	if err != nil {
		return nil, err
	}
	return &Synced[K, V]{c: c}, nil
}

func (s *Synced[K, V]) Put(k K, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Put(k, v)
}

func (s *Synced[K, V]) PutWithTTL(k K, v V, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.PutWithTTL(k, v, ttl)
}

func (s *Synced[K, V]) Get(k K) (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Get(k)
}

// GetOrLoad returns the value for k; on a miss exactly one concurrent
// caller runs Options.Loader and the rest share its result. A caller whose
// ctx ends while waiting returns ctx.Err().
func (s *Synced[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	// fast path
	if v, err := s.Get(k); err == nil {
		return v, nil
	}
	loader := s.c.opt.Loader
	if loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	v, shared, err := s.sf.Do(ctx, k, func() (V, error) {
		// double-check after winning the flight; not counted in Stats
		s.mu.Lock()
		v, ok := s.c.lookup(k)
		s.mu.Unlock()
		if ok {
			return v, nil
		}

		v, err := loader(ctx, k)
		if err != nil {
			// Callers that have not joined yet start a new load instead
			// of picking up this error.
			s.sf.Forget(k)
			return v, err
		}
		s.Put(k, v)
		return v, nil
	})
	if shared && s.c.opt.Logger.IsTrace() {
		s.c.opt.Logger.Trace("cache load shared", "key", k, "error", err)
	}
	if err != nil {
		var zero V
		return zero, err
	}
	return v, nil
}

func (s *Synced[K, V]) Remove(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Remove(k)
}

func (s *Synced[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Len()
}

func (s *Synced[K, V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Stats()
}

func (s *Synced[K, V]) Clean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Clean()
}
