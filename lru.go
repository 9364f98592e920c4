package cachesim

import (
	lru "github.com/hashicorp/golang-lru/simplelru"
)

// lruTracker is the per-set recency order, backed by hashicorp/golang-lru's
// simplelru.LRU. It tracks nothing but the ordering of tags — blocks
// themselves live in CacheSet.blocks; this type answers only "which tag is
// least recently used".
//
// simplelru.LRU already gives us amortised O(1) touch/evict via its
// internal list+map; CacheSet.evictTarget in cache.go calls into
// RemoveOldest only when its caller has found the set full, so capacity
// is never exceeded by Add itself.
type lruTracker struct {
	order *lru.LRU
}

func newLRUTracker(capacity int) *lruTracker {
	// capacity+1 so a touch() on a tag about to be evicted never trips
	// simplelru's own (unused in our flow) eviction path.
	l, err := lru.NewLRU(capacity+1, nil)
	if err != nil {
		// Only returns an error for size <= 0, which cannot happen: every
		// cache has associativity >= 1 (validated in NewGeometry).
		panic(err)
	}
	return &lruTracker{order: l}
}

// touch marks tag as most-recently-used, inserting it if not already
// tracked.
func (t *lruTracker) touch(tag uint64) {
	t.order.Add(tag, struct{}{})
}

// evict removes and returns the least-recently-used tracked tag. Panics if
// nothing is tracked — the caller (CacheSet.evictTarget) must only call
// this when the set is full.
func (t *lruTracker) evict() uint64 {
	key, _, ok := t.order.RemoveOldest()
	if !ok {
		panic("cachesim: lru evict on empty set")
	}
	return key.(uint64)
}
