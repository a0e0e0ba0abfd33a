// Package lru implements a fixed-capacity Least-Recently-Used store.
//
// Entries live in a contiguous arena of slots addressed by index. Slot 0 is a
// permanent anchor closing a circular doubly linked list:
//
//	anchor.next -> MRU -> ... -> LRU -> anchor (anchor.prev == LRU)
//
// A map[K]int32 indexes the slots, so lookup, insert, promote, delete and
// evict are all O(1). Links are plain indices, nothing owns anything through
// them.
//
// A Store is NOT safe for concurrent use. Wrap it behind a mutex (see the
// cache package) when several goroutines share it.
package lru

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Get and Delete when the key is absent.
	ErrNotFound = errors.New("lru: key not found")

	// ErrInvalidConfig is returned by New for an unusable configuration.
	ErrInvalidConfig = errors.New("lru: invalid configuration")
)

// MinCapacity is the smallest capacity a Store accepts.
const MinCapacity = 2

// anchor is the index of the sentinel slot.
const anchor int32 = 0

// slot is an arena cell: a list node plus the entry it carries.
type slot[K comparable, V any] struct {
	key  K
	val  V
	prev int32
	next int32
}

// Entry is a key/value pair returned by Ordered.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Store is an LRU key/value store with a fixed capacity.
type Store[K comparable, V any] struct {
	slots []slot[K, V] // slots[0] is the anchor
	index map[K]int32
	free  []int32 // slots released by Delete, reused before growing
	cap   int

	onEvict func(k K, v V)
}

// Option configures a Store.
type Option[K comparable, V any] func(*Store[K, V])

// WithEvictCallback registers fn to be called for every capacity eviction,
// after the new entry has taken the evicted slot. Delete and Clear do not
// trigger it.
func WithEvictCallback[K comparable, V any](fn func(k K, v V)) Option[K, V] {
	return func(s *Store[K, V]) { s.onEvict = fn }
}

// New returns an empty Store holding at most capacity entries.
// capacity must be at least MinCapacity.
func New[K comparable, V any](capacity int, opts ...Option[K, V]) (*Store[K, V], error) {
	if capacity < MinCapacity {
		return nil, fmt.Errorf("%w: capacity %d is less than %d", ErrInvalidConfig, capacity, MinCapacity)
	}
	s := &Store[K, V]{
		slots: make([]slot[K, V], 1, capacity+1),
		index: make(map[K]int32, capacity),
		cap:   capacity,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Len returns the number of live entries.
func (s *Store[K, V]) Len() int { return len(s.index) }

// Cap returns the configured capacity.
func (s *Store[K, V]) Cap() int { return s.cap }

// Contains reports whether k is present. Recency is not affected.
func (s *Store[K, V]) Contains(k K) bool {
	_, ok := s.index[k]
	return ok
}

// Get returns the value for k and marks it most recently used.
func (s *Store[K, V]) Get(k K) (V, error) {
	i, ok := s.index[k]
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	s.moveToFront(i)
	return s.slots[i].val, nil
}

// GetOr is Get with a fallback: if k is absent it returns def and leaves
// the store untouched.
func (s *Store[K, V]) GetOr(k K, def V) V {
	i, ok := s.index[k]
	if !ok {
		return def
	}
	s.moveToFront(i)
	return s.slots[i].val
}

// Peek returns the value for k without promoting it.
func (s *Store[K, V]) Peek(k K) (V, bool) {
	i, ok := s.index[k]
	if !ok {
		var zero V
		return zero, false
	}
	return s.slots[i].val, true
}

// Put inserts or overwrites k and marks it most recently used.
// When a new key arrives at full capacity the LRU entry is evicted and its
// slot is reused for k.
func (s *Store[K, V]) Put(k K, v V) {
	if i, ok := s.index[k]; ok {
		s.slots[i].val = v
		s.moveToFront(i)
		return
	}

	if len(s.index) < s.cap {
		i := s.alloc()
		s.slots[i].key, s.slots[i].val = k, v
		s.linkFront(i)
		s.index[k] = i
		return
	}

	// Recycle the LRU slot. The callback runs only once the store is
	// consistent again, so it may safely call back into it.
	i := s.slots[anchor].prev
	oldKey, oldVal := s.slots[i].key, s.slots[i].val
	delete(s.index, oldKey)
	s.unlink(i)
	s.slots[i].key, s.slots[i].val = k, v
	s.linkFront(i)
	s.index[k] = i
	if s.onEvict != nil {
		s.onEvict(oldKey, oldVal)
	}
}

// Delete removes k and returns its value.
func (s *Store[K, V]) Delete(k K) (V, error) {
	i, ok := s.index[k]
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	delete(s.index, k)
	s.unlink(i)

	v := s.slots[i].val
	s.slots[i] = slot[K, V]{} // drop references held by key/value
	s.free = append(s.free, i)
	return v, nil
}

// Oldest returns the least recently used entry without promoting it.
func (s *Store[K, V]) Oldest() (K, V, bool) {
	i := s.slots[anchor].prev
	if i == anchor {
		var (
			zk K
			zv V
		)
		return zk, zv, false
	}
	return s.slots[i].key, s.slots[i].val, true
}

// Clear removes all entries and resets the ring to its empty state.
func (s *Store[K, V]) Clear() {
	clear(s.index)
	clear(s.slots)
	s.slots = s.slots[:1]
	s.free = s.free[:0]
}

// Keys returns the present keys. The order is unspecified.
func (s *Store[K, V]) Keys() []K {
	keys := make([]K, 0, len(s.index))
	for k := range s.index {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns a copy of all key/value pairs. Mutating the result never
// affects the store.
func (s *Store[K, V]) Snapshot() map[K]V {
	m := make(map[K]V, len(s.index))
	for k, i := range s.index {
		m[k] = s.slots[i].val
	}
	return m
}

// Ordered returns the entries from least to most recently used.
func (s *Store[K, V]) Ordered() []Entry[K, V] {
	out := make([]Entry[K, V], 0, len(s.index))
	for i := s.slots[anchor].prev; i != anchor; i = s.slots[i].prev {
		out = append(out, Entry[K, V]{Key: s.slots[i].key, Value: s.slots[i].val})
	}
	return out
}

// String renders the entries oldest first, e.g. "[(1, a), (2, b)]".
func (s *Store[K, V]) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for n, e := range s.Ordered() {
		if n > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "(%v, %v)", e.Key, e.Value)
	}
	b.WriteByte(']')
	return b.String()
}

// -------------------- list internals --------------------

// alloc returns a free slot index, growing the arena when the free-list is
// empty. The anchor's self-links are (0, 0), so the zero slot is valid.
func (s *Store[K, V]) alloc() int32 {
	if n := len(s.free); n > 0 {
		i := s.free[n-1]
		s.free = s.free[:n-1]
		return i
	}
	s.slots = append(s.slots, slot[K, V]{})
	return int32(len(s.slots) - 1)
}

// unlink splices slot i out by joining its neighbours.
func (s *Store[K, V]) unlink(i int32) {
	p, n := s.slots[i].prev, s.slots[i].next
	s.slots[p].next = n
	s.slots[n].prev = p
}

// linkFront splices slot i in right after the anchor (MRU side).
func (s *Store[K, V]) linkFront(i int32) {
	first := s.slots[anchor].next
	s.slots[i].prev = anchor
	s.slots[i].next = first
	s.slots[first].prev = i
	s.slots[anchor].next = i
}

// moveToFront promotes slot i to MRU.
func (s *Store[K, V]) moveToFront(i int32) {
	if s.slots[anchor].next == i {
		return
	}
	s.unlink(i)
	s.linkFront(i)
}
