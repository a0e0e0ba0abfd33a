package cache

import (
	"context"
	"time"
)

// Cache is the common surface of TTLCache, Synced and Sharded.
//
// TTLCache itself is single-goroutine only; Synced and Sharded are safe for
// concurrent use. Every operation is O(1) amortized: a map lookup plus a
// constant number of index fixes in the recency list.
type Cache[K comparable, V any] interface {
	// Put inserts or updates k→v with the configured TTL and marks the
	// entry most recently used.
	Put(k K, v V)

	// PutWithTTL is Put with a per-entry TTL. Zero or negative values are
	// legal and produce entries that are already (or about to be) expired.
	PutWithTTL(k K, v V, ttl time.Duration)

	// Get returns the value for k. Absent and expired keys both yield
	// ErrNotFound; an expired entry is deleted on the way out.
	Get(k K) (V, error)

	// GetOrLoad returns the value for k, loading it via Options.Loader on
	// a miss. Returns ErrNoLoader if no Loader was configured.
	GetOrLoad(ctx context.Context, k K) (V, error)

	// Remove deletes k and reports whether it was present. Counters are
	// not affected.
	Remove(k K) bool

	// Len returns the number of resident entries, expired ones included
	// until they are touched or evicted.
	Len() int

	// Stats returns hit/miss counters and the current size.
	Stats() Stats

	// Clean drops every entry and resets the counters.
	Clean()
}

// Stats is a point-in-time view of cache counters.
// Hits+Misses equals the number of Get calls since the last Clean.
type Stats struct {
	Hits   uint64
	Misses uint64
	Size   int
}
