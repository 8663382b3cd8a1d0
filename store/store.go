package store

import (
	"sync/atomic"

	"github.com/krisalay/memoize/types"
)

/*
This file defines how memoized results are actually stored. This is NOT a
plain map behind a mutex.
- Reads (cache hits) should be very fast
- Reads should NOT require locks
- Writes only happen on a miss and can afford extra work

To achieve this, we use a technique called: "Copy-On-Write" (COW)
*/

// Store is the interface a memoizer uses to keep and retrieve entries.
// One Store belongs to exactly one memoizer instance.
type Store[V any] interface {

	// Get retrieves an entry by key.
	Get(string) (*types.CacheEntry[V], bool)

	// Put inserts or replaces an entry.
	Put(string, *types.CacheEntry[V])

	// Delete removes an entry.
	Delete(string)

	// Reset removes every entry.
	Reset()

	// Size returns how many entries are stored.
	Size() int64
}

/*
cowStore is a Copy-On-Write implementation of Store.

What "copy-on-write" means:
---------------------------
- Readers always see an immutable snapshot
- Writers create a NEW copy of the map
- The new map replaces the old one atomically

This gives us:
--------------
- Lock-free reads on the hit path
- A very simple concurrency model

Writers must be serialized by the caller (the memoizer holds a mutex around
its write sequences); the COW swap alone does not order concurrent writers.
*/
type cowStore[V any] struct {

	// data holds the actual map[string]*CacheEntry[V].
	// atomic.Value lets us swap the entire map atomically and lets
	// readers safely access it without locks.
	data atomic.Value

	// size tracks the number of entries, kept separately so we don't
	// count map entries on every call.
	size atomic.Int64
}

func NewCOWStore[V any]() *cowStore[V] {
	s := &cowStore[V]{}
	s.data.Store(make(map[string]*types.CacheEntry[V]))
	return s
}

// Get retrieves an entry from the current snapshot.
func (s *cowStore[V]) Get(key string) (*types.CacheEntry[V], bool) {
	m := s.data.Load().(map[string]*types.CacheEntry[V])
	ent, ok := m[key]
	return ent, ok
}

/*
Put inserts or replaces an entry. This is where copy-on-write happens.

1. Load the current map
2. Create a NEW map
3. Copy all existing entries
4. Add the new entry
5. Atomically replace the old map
6. Update the size

Hits are cheap and frequent; misses pay the copy, which is fine because a
miss already pays for the wrapped computation.
*/
func (s *cowStore[V]) Put(key string, ent *types.CacheEntry[V]) {
	old := s.data.Load().(map[string]*types.CacheEntry[V])

	n := make(map[string]*types.CacheEntry[V], len(old)+1)
	for k, v := range old {
		n[k] = v
	}

	// Replace whole, never merge.
	n[key] = ent

	s.data.Store(n)
	s.size.Store(int64(len(n)))
}

// Delete removes an entry. Just like Put, this uses copy-on-write.
func (s *cowStore[V]) Delete(key string) {
	old := s.data.Load().(map[string]*types.CacheEntry[V])

	if _, ok := old[key]; !ok {
		return
	}

	n := make(map[string]*types.CacheEntry[V], len(old))
	for k, v := range old {
		if k != key {
			n[k] = v
		}
	}

	s.data.Store(n)
	s.size.Store(int64(len(n)))
}

// Reset swaps in a fresh empty snapshot.
func (s *cowStore[V]) Reset() {
	s.data.Store(make(map[string]*types.CacheEntry[V]))
	s.size.Store(0)
}

// Size returns how many entries are in the store.
func (s *cowStore[V]) Size() int64 {
	return s.size.Load()
}
