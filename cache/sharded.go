package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IvanBrykalov/lrucache/internal/util"
	"github.com/IvanBrykalov/lrucache/lru"
)

// Sharded splits the key space over a power-of-two number of Synced caches
// to reduce lock contention. Recency and capacity are per shard, so the
// evicted entry is the LRU of its shard, not of the whole cache.
//
// Keys must be hashable by util.Fnv64a (strings, byte arrays, integers or
// fmt.Stringer); other key types panic on first use.
type Sharded[K comparable, V any] struct {
	shards []*Synced[K, V]
	hash   func(K) uint64
}

var _ Cache[string, int] = (*Sharded[string, int])(nil)

// NewSharded constructs a sharded cache. Capacity is split evenly (ceil)
// across shards, with each shard holding at least lru.MinCapacity entries,
// so the total may slightly exceed Options.Capacity.
func NewSharded[K comparable, V any](opt Options[K, V]) (*Sharded[K, V], error) {
	if opt.Capacity < lru.MinCapacity {
		return nil, fmt.Errorf("%w: capacity %d is less than %d", ErrInvalidConfig, opt.Capacity, lru.MinCapacity)
	}
	opt = opt.withDefaults()

	n := opt.Shards
	if n <= 0 {
		n = util.ReasonableShardCount()
	} else {
		n = int(util.NextPow2(uint64(n)))
	}
	per := (opt.Capacity + n - 1) / n
	if per < lru.MinCapacity {
		per = lru.MinCapacity
	}

	agg := &sizeAggregator{m: opt.Metrics, sizes: make([]util.PaddedAtomicInt64, n)}
	s := &Sharded[K, V]{
		shards: make([]*Synced[K, V], n),
		hash:   util.Fnv64a[K],
	}
	for i := range s.shards {
		so := opt
		so.Capacity = per
		so.Metrics = shardMetrics{agg: agg, idx: i}
		sh, err := NewSynced[K, V](so)
		if err != nil {
			return nil, err
		}
		s.shards[i] = sh
	}
	return s, nil
}

// ShardCount returns the number of shards.
func (s *Sharded[K, V]) ShardCount() int { return len(s.shards) }

func (s *Sharded[K, V]) Put(k K, v V) { s.shard(k).Put(k, v) }

func (s *Sharded[K, V]) PutWithTTL(k K, v V, ttl time.Duration) {
	s.shard(k).PutWithTTL(k, v, ttl)
}

func (s *Sharded[K, V]) Get(k K) (V, error) { return s.shard(k).Get(k) }

func (s *Sharded[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	return s.shard(k).GetOrLoad(ctx, k)
}

func (s *Sharded[K, V]) Remove(k K) bool { return s.shard(k).Remove(k) }

// Len returns the total number of resident entries across all shards.
func (s *Sharded[K, V]) Len() int {
	total := 0
	for _, sh := range s.shards {
		total += sh.Len()
	}
	return total
}

// Stats sums the per-shard counters. Shards are read one at a time, so
// under concurrent load the result is not an atomic snapshot.
func (s *Sharded[K, V]) Stats() Stats {
	var st Stats
	for _, sh := range s.shards {
		x := sh.Stats()
		st.Hits += x.Hits
		st.Misses += x.Misses
		st.Size += x.Size
	}
	return st
}

func (s *Sharded[K, V]) Clean() {
	for _, sh := range s.shards {
		sh.Clean()
	}
}

// shard picks a shard by hashing the key; len(s.shards) is a power of two.
func (s *Sharded[K, V]) shard(k K) *Synced[K, V] {
	return s.shards[util.ShardIndex(s.hash(k), len(s.shards))]
}

// -------------------- metrics fan-in --------------------

// sizeAggregator turns per-shard Size signals into a single total for the
// user's Metrics. Each shard owns one padded slot, so shards never write
// the same cache line. mu orders the publishes: a total is never followed
// by an older one, and the last Size call always carries the current sum.
type sizeAggregator struct {
	m     Metrics
	mu    sync.Mutex
	sizes []util.PaddedAtomicInt64
}

func (a *sizeAggregator) report(idx, entries int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sizes[idx].Store(int64(entries))
	a.m.Size(int(a.total()))
}

// total sums the per-shard sizes.
func (a *sizeAggregator) total() int64 {
	var n int64
	for i := range a.sizes {
		n += a.sizes[i].Load()
	}
	return n
}

// shardMetrics forwards everything to the user's Metrics except Size,
// which goes through the aggregator.
type shardMetrics struct {
	agg *sizeAggregator
	idx int
}

func (m shardMetrics) Hit()                { m.agg.m.Hit() }
func (m shardMetrics) Miss()               { m.agg.m.Miss() }
func (m shardMetrics) Evict(r EvictReason) { m.agg.m.Evict(r) }
func (m shardMetrics) Size(entries int)    { m.agg.report(m.idx, entries) }
