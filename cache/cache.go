package cache

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/IvanBrykalov/lrucache/lru"
)

var (
	// ErrNotFound is returned by Get for absent and expired keys alike.
	// It is the same value as lru.ErrNotFound.
	ErrNotFound = lru.ErrNotFound

	// ErrInvalidConfig is returned by the constructors for Capacity < 2.
	ErrInvalidConfig = lru.ErrInvalidConfig

	// ErrNoLoader is returned by GetOrLoad when no Loader was configured in Options.
	ErrNoLoader = errors.New("cache: no Loader provided")
)

// item is what the TTL cache stores in the recency store: the absolute
// expiry deadline (UnixNano) next to the caller's value.
type item[V any] struct {
	exp int64
	val V
}

// TTLCache is an LRU cache whose entries expire a fixed duration after they
// were written. Expiry is lazy: an entry is only checked, and removed, when
// it is read. Until then it counts towards Len and capacity.
//
// TTLCache is not safe for concurrent use; see Synced and Sharded.
type TTLCache[K comparable, V any] struct {
	store *lru.Store[K, item[V]]
	opt   Options[K, V]

	hits   uint64
	misses uint64
}

var _ Cache[string, int] = (*TTLCache[string, int])(nil)

// New constructs a TTLCache with the provided Options.
// Returns an error wrapping ErrInvalidConfig if Capacity < 2.
func New[K comparable, V any](opt Options[K, V]) (*TTLCache[K, V], error) {
	c := &TTLCache[K, V]{opt: opt.withDefaults()}
	st, err := lru.New[K, item[V]](opt.Capacity, lru.WithEvictCallback(c.onCapacityEvict))
	if err != nil {
		return nil, err
	}
	c.store = st
	return c, nil
}

// Put stores v under k with the configured TTL.
func (c *TTLCache[K, V]) Put(k K, v V) { c.PutWithTTL(k, v, c.opt.TTL) }

// PutWithTTL stores v under k, expiring ttl from now.
func (c *TTLCache[K, V]) PutWithTTL(k K, v V, ttl time.Duration) {
	c.store.Put(k, item[V]{exp: deadline(c.opt.Clock.NowUnixNano(), ttl), val: v})
	c.opt.Metrics.Size(c.store.Len())
}

// Get returns the live value for k and counts a hit, or counts a miss and
// returns ErrNotFound.
func (c *TTLCache[K, V]) Get(k K) (V, error) {
	v, ok := c.lookup(k)
	if !ok {
		c.misses++
		c.opt.Metrics.Miss()
		return v, ErrNotFound
	}
	c.hits++
	c.opt.Metrics.Hit()
	return v, nil
}

// GetOrLoad returns the value for k; on a miss it calls Options.Loader and
// stores the result. Loader errors are returned as is and nothing is stored.
func (c *TTLCache[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	if v, err := c.Get(k); err == nil {
		return v, nil
	}
	if c.opt.Loader == nil {
		var zero V
		return zero, ErrNoLoader
	}
	v, err := c.opt.Loader(ctx, k)
	if err != nil {
		var zero V
		return zero, err
	}
	c.Put(k, v)
	return v, nil
}

// Remove deletes k if present and returns true on success.
// Explicit removal is not counted as an eviction.
func (c *TTLCache[K, V]) Remove(k K) bool {
	if _, err := c.store.Delete(k); err != nil {
		return false
	}
	c.opt.Metrics.Size(c.store.Len())
	return true
}

// Len returns the number of resident entries, expired ones included.
func (c *TTLCache[K, V]) Len() int { return c.store.Len() }

// Stats returns (hits, misses, size).
func (c *TTLCache[K, V]) Stats() Stats {
	return Stats{Hits: c.hits, Misses: c.misses, Size: c.store.Len()}
}

// Clean drops all entries and resets the hit/miss counters.
func (c *TTLCache[K, V]) Clean() {
	c.store.Clear()
	c.hits, c.misses = 0, 0
	c.opt.Metrics.Size(0)
}

// -------------------- internals --------------------

// lookup promotes and returns a live entry without touching the counters.
// An expired entry is deleted and reported as absent.
func (c *TTLCache[K, V]) lookup(k K) (V, bool) {
	it, err := c.store.Get(k)
	if err != nil {
		var zero V
		return zero, false
	}
	if it.exp < c.opt.Clock.NowUnixNano() {
		_, _ = c.store.Delete(k)
		c.evicted(k, it.val, EvictTTL)
		c.opt.Metrics.Size(c.store.Len())
		var zero V
		return zero, false
	}
	return it.val, true
}

// onCapacityEvict is installed as the store's eviction callback.
func (c *TTLCache[K, V]) onCapacityEvict(k K, it item[V]) {
	c.evicted(k, it.val, EvictCapacity)
}

func (c *TTLCache[K, V]) evicted(k K, v V, reason EvictReason) {
	c.opt.Metrics.Evict(reason)
	if c.opt.Logger.IsTrace() {
		c.opt.Logger.Trace("cache entry evicted", "key", k, "reason", reason.String())
	}
	if cb := c.opt.OnEvict; cb != nil {
		cb(k, v, reason)
	}
}

// deadline returns now+ttl, saturating instead of wrapping around.
func deadline(now int64, ttl time.Duration) int64 {
	d := int64(ttl)
	switch {
	case d > 0 && now > math.MaxInt64-d:
		return math.MaxInt64
	case d < 0 && now < math.MinInt64-d:
		return math.MinInt64
	}
	return now + d
}
