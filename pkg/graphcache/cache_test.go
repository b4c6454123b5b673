package graphcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustgraph/core/pkg/logger"
	"github.com/trustgraph/core/pkg/model"
)

// fakeSource builds a trivial graph and counts how many times it was asked
// to load, so tests can assert single-flight coalescing.
type fakeSource struct {
	loads int32
	graph func(sbomID uuid.UUID) (*Graph, error)
}

func (f *fakeSource) Load(ctx context.Context, sbomID uuid.UUID) (*Graph, error) {
	atomic.AddInt32(&f.loads, 1)
	return f.graph(sbomID)
}

func simpleGraph(sbomID uuid.UUID) (*Graph, error) {
	b := newBuilder(sbomID)
	b.addNode(Node{SbomID: sbomID, NodeID: "a"})
	b.addNode(Node{SbomID: sbomID, NodeID: "b"})
	b.addEdge("a", model.ContainedBy, "b")
	return b.build()
}

func TestCache_LoadCachesResult(t *testing.T) {
	src := &fakeSource{graph: simpleGraph}
	c := NewCache(src, 1<<20, logger.Default())

	sbomID := uuid.New()
	g1, err := c.Load(context.Background(), sbomID)
	require.NoError(t, err)
	g2, err := c.Load(context.Background(), sbomID)
	require.NoError(t, err)

	assert.Same(t, g1, g2)
	assert.Equal(t, int32(1), src.loads)
}

func TestCache_ConcurrentLoadCoalesces(t *testing.T) {
	src := &fakeSource{graph: simpleGraph}
	c := NewCache(src, 1<<20, logger.Default())
	sbomID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Load(context.Background(), sbomID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.loads, "concurrent loads of the same sbom must coalesce to a single database read")
}

func TestCache_CyclicGraphNotCached(t *testing.T) {
	src := &fakeSource{graph: func(sbomID uuid.UUID) (*Graph, error) {
		b := newBuilder(sbomID)
		b.addNode(Node{SbomID: sbomID, NodeID: "a"})
		b.addNode(Node{SbomID: sbomID, NodeID: "b"})
		b.addEdge("a", model.ContainedBy, "b")
		b.addEdge("b", model.ContainedBy, "a")
		return b.build()
	}}
	c := NewCache(src, 1<<20, logger.Default())
	sbomID := uuid.New()

	_, err := c.Load(context.Background(), sbomID)
	require.Error(t, err)
	var cyclicErr ErrCyclic
	require.ErrorAs(t, err, &cyclicErr)

	_, ok := c.Get(sbomID)
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	src := &fakeSource{graph: simpleGraph}
	c := NewCache(src, 1<<20, logger.Default())
	sbomID := uuid.New()

	_, err := c.Load(context.Background(), sbomID)
	require.NoError(t, err)

	c.Invalidate(sbomID)
	_, ok := c.Get(sbomID)
	assert.False(t, ok)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	src := &fakeSource{graph: simpleGraph}
	one, err := simpleGraph(uuid.New())
	require.NoError(t, err)
	c := NewCache(src, one.ByteSize(), logger.Default()) // room for exactly one graph: each insert evicts the previous one

	a := uuid.New()
	b := uuid.New()

	_, err = c.Load(context.Background(), a)
	require.NoError(t, err)
	_, err = c.Load(context.Background(), b)
	require.NoError(t, err)

	_, aResident := c.Get(a)
	_, bResident := c.Get(b)
	assert.False(t, aResident, "a should have been evicted to stay under the byte budget")
	assert.True(t, bResident)
}

func TestGraph_IndexOfAndAdjacency(t *testing.T) {
	sbomID := uuid.New()
	g, err := simpleGraph(sbomID)
	require.NoError(t, err)

	ai, ok := g.IndexOf("a")
	require.True(t, ok)
	bi, ok := g.IndexOf("b")
	require.True(t, ok)

	require.Len(t, g.Outgoing(ai), 1)
	assert.Equal(t, bi, g.Outgoing(ai)[0].To)
	require.Len(t, g.Incoming(bi), 1)
	assert.Equal(t, ai, g.Incoming(bi)[0].To)
}

func TestBuilder_RejectsCycle(t *testing.T) {
	sbomID := uuid.New()
	b := newBuilder(sbomID)
	b.addNode(Node{NodeID: "a"})
	b.addNode(Node{NodeID: "b"})
	b.addNode(Node{NodeID: "c"})
	b.addEdge("a", model.ContainedBy, "b")
	b.addEdge("b", model.ContainedBy, "c")
	b.addEdge("c", model.ContainedBy, "a")

	_, err := b.build()
	require.Error(t, err)
}

func TestBuilder_AcceptsDAG(t *testing.T) {
	sbomID := uuid.New()
	b := newBuilder(sbomID)
	b.addNode(Node{NodeID: "a"})
	b.addNode(Node{NodeID: "b"})
	b.addNode(Node{NodeID: "c"})
	b.addEdge("a", model.ContainedBy, "b")
	b.addEdge("a", model.ContainedBy, "c")
	b.addEdge("b", model.ContainedBy, "c")

	g, err := b.build()
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 3)
}
