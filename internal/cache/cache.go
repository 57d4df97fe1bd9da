// Package cache implements the result cache (C7): a bounded LRU mapping
// (path, content fingerprint, detector-set fingerprint) to the Matches
// produced for that file, grounded on
// internal/executor/qc_cache.go's mutex-guarded map-based cache, adapted
// from TTL expiry to size-bounded LRU eviction and sharded with xxhash for
// lower lock contention under the scanner's worker pool.
package cache

import (
	"container/list"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/d-oit/code-guardian/internal/match"
)

// Key identifies one cached per-file scan result.
type Key struct {
	Path               string
	ContentFingerprint string
	DetectorSetFingerprint string
}

func (k Key) string() string {
	return k.Path + "\x00" + k.ContentFingerprint + "\x00" + k.DetectorSetFingerprint
}

const shardCount = 16

// Cache is a bounded, thread-safe LRU cache of []match.Match keyed by Key.
// Reads may proceed concurrently across shards; writes are serialized per
// shard, which is sufficient per §4.7's thread-safety requirement.
type Cache struct {
	shards   [shardCount]*shard
	capacity int // total entries across all shards
}

type shard struct {
	mu       sync.Mutex
	ll       *list.List // front = most recently used
	elements map[string]*list.Element
	capacity int
}

type entry struct {
	key     string
	matches []match.Match
}

// New constructs a Cache whose capacity is split evenly across shardCount
// shards, each holding at least one entry, so a positive capacity below
// shardCount still holds up to shardCount entries. A non-positive capacity disables
// caching: Get always misses and Insert is a no-op.
func New(capacity int) *Cache {
	c := &Cache{capacity: capacity}
	perShard := capacity / shardCount
	if perShard < 1 {
		perShard = 1
	}
	for i := range c.shards {
		c.shards[i] = &shard{
			ll:       list.New(),
			elements: make(map[string]*list.Element),
			capacity: perShard,
		}
	}
	return c
}

func (c *Cache) shardFor(key string) *shard {
	h := xxhash.Sum64String(key)
	return c.shards[h%shardCount]
}

// Get returns the cached Matches for key and true on a hit, or (nil, false)
// on a miss. A hit is only ever returned for an exact (path, content
// fingerprint, detector-set fingerprint) match — any fingerprint mismatch
// is represented by a different Key entirely, so staleness cannot leak
// through as a false hit.
func (c *Cache) Get(key Key) ([]match.Match, bool) {
	if c.capacity <= 0 {
		return nil, false
	}
	s := c.shardFor(key.string())
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.elements[key.string()]
	if !ok {
		return nil, false
	}
	s.ll.MoveToFront(el)
	return el.Value.(*entry).matches, true
}

// Insert adds or replaces the cached Matches for key, evicting the
// least-recently-used entry in the owning shard if it is at capacity.
// A single Insert call is atomic with respect to concurrent Get/Insert on
// the same shard.
func (c *Cache) Insert(key Key, matches []match.Match) {
	if c.capacity <= 0 {
		return
	}
	s := c.shardFor(key.string())
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.string()
	if el, ok := s.elements[k]; ok {
		el.Value.(*entry).matches = matches
		s.ll.MoveToFront(el)
		return
	}

	el := s.ll.PushFront(&entry{key: k, matches: matches})
	s.elements[k] = el

	if s.ll.Len() > s.capacity {
		s.evictLRU()
	}
}

func (s *shard) evictLRU() {
	back := s.ll.Back()
	if back == nil {
		return
	}
	s.ll.Remove(back)
	delete(s.elements, back.Value.(*entry).key)
}

// Len returns the total number of entries currently cached, across all
// shards; primarily for tests and metrics.
func (c *Cache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += s.ll.Len()
		s.mu.Unlock()
	}
	return n
}
