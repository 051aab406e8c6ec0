// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package hotcache implements the Dataset Hot Cache (C8 in SPEC_FULL.md
// §4.8): a bounded, TTL-expiring, LRU-evicting in-memory mapping from
// DatasetID to a denormalized CachedDataset view, with write-through
// invalidation and concurrent-miss coalescing. The LRU tier reuses
// hashicorp/golang-lru, the same library internal/cache's memory tier
// uses; the TTL and coalescing logic are new, since neither the teacher
// nor golang-lru itself expresses per-entry TTL natively.
package hotcache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/meshintel/geo-engine/pkg/types"
)

// CachedDataset is the denormalized result of a get_complete_geo_data
// query, the shape served to API readers.
type CachedDataset struct {
	Dataset      types.Dataset
	Publications []CachedPublication
}

// CachedPublication carries a publication plus its latest known
// acquisition/extraction substatus, as returned by the complete-data
// query.
type CachedPublication struct {
	Publication types.Publication
	Role        types.Role
	Substatus   types.PublicationSubstatus
}

// Loader computes the current CachedDataset for id from the persistent
// store, invoked on a cache miss.
type Loader func(id types.DatasetID) (CachedDataset, error)

type entry struct {
	value     CachedDataset
	expiresAt time.Time
}

// Stats reports cumulative cache activity counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// Cache is the hot cache. Reads for a missing key coalesce onto a single
// Loader invocation via a per-key in-flight map, the same pattern
// internal/download.Manager uses for PDF downloads, hand-rolled rather
// than imported since the need is narrow enough not to justify a
// dependency on golang.org/x/sync/singleflight.
type Cache struct {
	mu       sync.Mutex
	lru      *lru.Cache[types.DatasetID, entry]
	ttl      time.Duration
	inflight map[types.DatasetID]*sync.WaitGroup
	stats    Stats
}

// New builds a Cache with the given max size (default 1000) and entry
// TTL (default 3600s).
func New(maxSize int, ttl time.Duration) (*Cache, error) {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 3600 * time.Second
	}
	c := &Cache{ttl: ttl, inflight: make(map[types.DatasetID]*sync.WaitGroup)}
	// The callback runs synchronously inside lru calls, and every lru call
	// is made with c.mu already held, so it must not lock c.mu itself.
	evicted := func(key types.DatasetID, value entry) {
		c.stats.Evictions++
	}
	l, err := lru.NewWithEvict[types.DatasetID, entry](maxSize, evicted)
	if err != nil {
		return nil, err
	}
	c.lru = l
	return c, nil
}

// Get returns the fresh cached view for id, loading via load on a miss
// or expiry. Concurrent Get calls for the same id while a load is
// in-flight block on that single load rather than each invoking load.
func (c *Cache) Get(id types.DatasetID, load Loader) (CachedDataset, error) {
	for {
		c.mu.Lock()
		if e, ok := c.lru.Get(id); ok {
			if time.Now().Before(e.expiresAt) {
				c.stats.Hits++
				c.mu.Unlock()
				return e.value, nil
			}
			c.lru.Remove(id)
		}

		if wg, loading := c.inflight[id]; loading {
			c.mu.Unlock()
			wg.Wait()
			continue
		}

		c.stats.Misses++
		wg := &sync.WaitGroup{}
		wg.Add(1)
		c.inflight[id] = wg
		c.mu.Unlock()

		value, err := load(id)

		c.mu.Lock()
		delete(c.inflight, id)
		if err == nil {
			c.lru.Add(id, entry{value: value, expiresAt: time.Now().Add(c.ttl)})
		}
		c.mu.Unlock()
		wg.Done()

		return value, err
	}
}

// Invalidate removes id from the cache, e.g. after a store mutation
// changes its complete view. The caller is responsible for calling this
// within the same critical section as the mutation per §4.8.
func (c *Cache) Invalidate(id types.DatasetID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(id)
}

// Put overwrites id's cached entry directly (write-through), an
// alternative to Invalidate for callers that already have the freshly
// computed view in hand.
func (c *Cache) Put(id types.DatasetID, value CachedDataset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(id, entry{value: value, expiresAt: time.Now().Add(c.ttl)})
}

// Stats returns a snapshot of cumulative counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
