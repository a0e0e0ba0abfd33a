package lru

import (
	"math/rand"
	"testing"

	hlru "github.com/hashicorp/golang-lru"
)

const benchCap = 1 << 14

// benchKeys draws from a keyspace twice the capacity so roughly half of
// the reads miss and most writes evict.
func benchKeys(n int) []int {
	r := rand.New(rand.NewSource(1))
	keys := make([]int, n)
	for i := range keys {
		keys[i] = r.Intn(2 * benchCap)
	}
	return keys
}

func BenchmarkStore_Mix(b *testing.B) {
	s, err := New[int, int](benchCap)
	if err != nil {
		b.Fatal(err)
	}
	keys := benchKeys(1 << 16)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := keys[i&(len(keys)-1)]
		if i&3 == 0 {
			s.Put(k, i)
		} else {
			_, _ = s.Get(k)
		}
	}
}

// BenchmarkHashicorp_Mix runs the same workload against hashicorp/golang-lru
// as a baseline (it takes a lock and boxes keys/values in interfaces).
func BenchmarkHashicorp_Mix(b *testing.B) {
	c, err := hlru.New(benchCap)
	if err != nil {
		b.Fatal(err)
	}
	keys := benchKeys(1 << 16)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := keys[i&(len(keys)-1)]
		if i&3 == 0 {
			c.Add(k, i)
		} else {
			c.Get(k)
		}
	}
}

// Steady-state eviction: every Put of a new key recycles the LRU slot.
func BenchmarkStore_EvictReuse(b *testing.B) {
	s, err := New[int, int](benchCap)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Put(i, i)
	}
}
