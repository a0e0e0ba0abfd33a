// Package util holds the sharding helpers used by cache.Sharded.
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"runtime"
	"sync/atomic"
)

// maxShards caps the automatic shard count.
const maxShards = 256

// NextPow2 returns the smallest power of two >= x (1 for x <= 1).
// Values above 1<<63 are clamped to 1<<63.
func NextPow2(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	if x > 1<<63 {
		return 1 << 63
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	return x + 1
}

// ReasonableShardCount returns nextPow2(2*GOMAXPROCS), clamped to [1..256].
func ReasonableShardCount() int {
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		p = 1
	}
	n := int(NextPow2(uint64(p * 2)))
	if n > maxShards {
		n = maxShards
	}
	return n
}

// ShardIndex maps a hash to a shard. Power-of-two counts use a mask,
// anything else falls back to modulo.
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	if n := uint64(shards); n&(n-1) == 0 {
		return int(hash & (n - 1))
	}
	return int(hash % uint64(shards))
}

// CacheLineSize is a reasonable default for most modern CPUs.
const CacheLineSize = 64

// PaddedAtomicInt64 is an atomic int64 occupying a whole cache line, for
// per-shard counters written by different goroutines.
type PaddedAtomicInt64 struct {
	atomic.Int64
	_ [CacheLineSize - 8]byte
}
