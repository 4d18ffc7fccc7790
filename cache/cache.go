// Package cache implements the bounded position cache (component B):
// a FIFO-eviction, read/write-locked map deduplicating inference across
// MCTS workers. Grounded on the locking discipline of the teacher's
// mcts.MCTS arena (mcts/tree.go's embedded sync.RWMutex), generalized
// into a standalone, game-agnostic cache.
package cache

import (
	"sync"

	"github.com/cattus-go/cattus/game"
)

// MoveProb pairs a legal move with its prior probability.
type MoveProb struct {
	Move game.Move
	Prob float32
}

// Entry is a cached evaluation: a move-probability list and a scalar
// value in [-1, 1].
type Entry struct {
	Probs []MoveProb
	Value float32
}

// Compute produces the value that should be cached for a miss. It runs
// outside any lock (spec §4.2).
type Compute func() Entry

// Cache is a bounded map from position hash to Entry, evicted FIFO by
// first insertion order (not LRU). Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	maxSize int
	entries map[uint64]Entry
	queue   []uint64

	hits   uint64
	misses uint64
}

// New returns an empty cache bounded to maxSize entries. maxSize must
// be > 0.
func New(maxSize int) *Cache {
	if maxSize <= 0 {
		panic("cache: maxSize must be > 0")
	}
	return &Cache{
		maxSize: maxSize,
		entries: make(map[uint64]Entry, maxSize),
		queue:   make([]uint64, 0, maxSize),
	}
}

// GetOrCompute returns the cached entry for pos.Hash(), or runs compute
// and inserts the result. See spec §4.2 for the exact discipline: the
// read fast path takes a shared lock; on miss, compute runs unlocked,
// then the result is inserted unless another writer raced ahead, in
// which case the racing writer's value is kept and this call still
// counts as a hit (see Open Questions in spec §9: this is intentional,
// not a bug).
func (c *Cache) GetOrCompute(pos game.Position, compute Compute) Entry {
	key := pos.Hash()

	c.mu.RLock()
	if e, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return e
	}
	c.mu.RUnlock()

	fresh := compute()

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		// Another writer populated this key while we computed outside
		// the lock. Discard our value and count a hit.
		c.hits++
		return e
	}

	for len(c.queue) >= c.maxSize {
		oldest := c.queue[0]
		c.queue = c.queue[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = fresh
	c.queue = append(c.queue, key)
	c.misses++
	return fresh
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the cumulative hit/miss counters.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Keys returns the cached keys in FIFO (oldest-first) order, for tests.
func (c *Cache) Keys() []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]uint64, len(c.queue))
	copy(out, c.queue)
	return out
}
