package graphcache

import (
	"container/list"
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/trustgraph/core/pkg/logger"
)

// source loads a graph from the relational store; satisfied by *Loader,
// abstracted so tests can substitute a fake without a database.
type source interface {
	Load(ctx context.Context, sbomID uuid.UUID) (*Graph, error)
}

// Cache is the bounded-size, concurrency-safe per-SBOM graph cache: builds
// are coalesced via singleflight, eviction is LRU by summed byte-size, and a
// cyclic graph is discarded rather than cached.
type Cache struct {
	mu        sync.Mutex
	entries   map[uuid.UUID]*list.Element // -> *cacheEntry
	lru       *list.List
	usedBytes int64
	maxBytes  int64

	group  singleflight.Group
	source source
	log    *logger.Logger
}

type cacheEntry struct {
	sbomID uuid.UUID
	graph  *Graph
}

// NewCache builds a Cache backed by src, evicting down to maxBytes.
func NewCache(src source, maxBytes int64, log *logger.Logger) *Cache {
	return &Cache{
		entries:  make(map[uuid.UUID]*list.Element),
		lru:      list.New(),
		maxBytes: maxBytes,
		source:   src,
		log:      log.WithComponent("graphcache"),
	}
}

// Get returns the cached graph for sbomID if resident, without triggering
// a load; a hit marks the graph as most recently used.
func (c *Cache) Get(sbomID uuid.UUID) (*Graph, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[sbomID]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(el)
	return el.Value.(*cacheEntry).graph, true
}

// Load returns the cached graph for sbomID, building and caching it on a
// miss. Concurrent Load calls for the same sbomID coalesce into one
// database read and one build. A cyclic graph is never cached; Load returns
// ErrCyclic and future calls retry the load rather than remembering the
// failure.
func (c *Cache) Load(ctx context.Context, sbomID uuid.UUID) (*Graph, error) {
	if g, ok := c.Get(sbomID); ok {
		return g, nil
	}

	key := sbomID.String()
	v, err, _ := c.group.Do(key, func() (any, error) {
		g, err := c.source.Load(ctx, sbomID)
		if err != nil {
			return nil, err
		}
		c.put(sbomID, g)
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Graph), nil
}

// Invalidate removes sbomID's cached graph, if any: deleting an SBOM removes
// its graph too.
func (c *Cache) Invalidate(sbomID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[sbomID]
	if !ok {
		return
	}
	c.removeElement(el)
}

func (c *Cache) put(sbomID uuid.UUID, g *Graph) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[sbomID]; ok {
		c.removeElement(el)
	}

	el := c.lru.PushFront(&cacheEntry{sbomID: sbomID, graph: g})
	c.entries[sbomID] = el
	c.usedBytes += g.ByteSize()

	c.evictLocked()
}

// evictLocked drops least-recently-used graphs until usedBytes is within
// maxBytes. Eviction only removes cache bookkeeping; a Graph reference a
// caller already holds from a prior Load remains valid and walkable, so
// eviction never blocks a reader mid-walk.
func (c *Cache) evictLocked() {
	if c.maxBytes <= 0 {
		return
	}
	for c.usedBytes > c.maxBytes {
		back := c.lru.Back()
		if back == nil {
			return
		}
		c.removeElement(back)
	}
}

func (c *Cache) removeElement(el *list.Element) {
	entry := el.Value.(*cacheEntry)
	c.lru.Remove(el)
	delete(c.entries, entry.sbomID)
	c.usedBytes -= entry.graph.ByteSize()
}

// Stats reports the cache's current occupancy, useful for health endpoints.
type Stats struct {
	Entries   int
	UsedBytes int64
	MaxBytes  int64
}

// Stats returns a snapshot of cache occupancy.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Entries: len(c.entries), UsedBytes: c.usedBytes, MaxBytes: c.maxBytes}
}
