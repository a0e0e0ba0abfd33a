package cache

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictCapacity — the LRU entry was pushed out by a new key.
	EvictCapacity EvictReason = iota
	// EvictTTL — found expired on access and deleted.
	EvictTTL
)

// String returns a stable lower-case name, usable as a metric label.
func (r EvictReason) String() string {
	switch r {
	case EvictTTL:
		return "ttl"
	default:
		return "capacity"
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	// Size reports the resident entry count after a mutation.
	Size(entries int)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

type wallClock struct{}

func (wallClock) NowUnixNano() int64 { return time.Now().UnixNano() }

// Options configures the cache. Zero values are safe; defaults are applied
// by the constructors:
//   - nil Clock    => wall clock
//   - nil Metrics  => NoopMetrics
//   - nil Logger   => hclog null logger
//   - Shards <= 0  => auto (Sharded only)
type Options[K comparable, V any] struct {
	// Capacity is the entry count limit. Must be >= 2 (per shard for Sharded).
	Capacity int

	// TTL is added to the current time on Put. Zero or negative TTLs are
	// allowed; such entries are expired by the time they are read.
	TTL time.Duration

	// Shards is the shard count for Sharded, rounded up to a power of two.
	// Ignored by TTLCache and Synced.
	Shards int

	// Loader fetches a value on a miss. Used by GetOrLoad.
	Loader func(ctx context.Context, k K) (V, error)

	// OnEvict is called for capacity and TTL evictions (not for Remove or
	// Clean). It runs synchronously, under the lock for Synced/Sharded, so
	// there it must not call back into the cache. A TTLCache is already
	// consistent when OnEvict runs and may be used from it.
	OnEvict func(k K, v V, reason EvictReason)

	Metrics Metrics

	// Logger receives Trace-level eviction events.
	Logger hclog.Logger

	// Clock overrides the time source (tests). Nil => time.Now().
	Clock Clock
}

// withDefaults fills in nil collaborators.
func (o Options[K, V]) withDefaults() Options[K, V] {
	if o.Clock == nil {
		o.Clock = wallClock{}
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
	if o.Logger == nil {
		o.Logger = hclog.NewNullLogger()
	}
	return o
}
