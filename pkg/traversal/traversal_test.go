package traversal

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustgraph/core/pkg/graphcache"
	"github.com/trustgraph/core/pkg/model"
)

// buildChain constructs the three-node chain N1-ContainedBy->N2-ContainedBy->N3
// used in scenario S2: N1 is contained by N2, which is contained by N3.
func buildChain(t *testing.T) *graphcache.Graph {
	t.Helper()
	b := graphcache.NewBuilder(uuid.New())
	b.AddNode(graphcache.Node{NodeID: "N1"})
	b.AddNode(graphcache.Node{NodeID: "N2"})
	b.AddNode(graphcache.Node{NodeID: "N3"})
	b.AddEdge("N1", model.ContainedBy, "N2")
	b.AddEdge("N2", model.ContainedBy, "N3")
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestWalk_AncestorsOfRootDepth10(t *testing.T) {
	g := buildChain(t)

	result, err := Walk(context.Background(), g, "N3", Ancestors, 10, Filter{model.ContainedBy: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"N2", "N1"}, result)
}

func TestWalk_DescendantsIsInverseOfAncestors(t *testing.T) {
	g := buildChain(t)

	descendants, err := Walk(context.Background(), g, "N1", Descendants, 10, Filter{model.ContainedBy: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"N2", "N3"}, descendants)
}

func TestWalk_DepthBound(t *testing.T) {
	g := buildChain(t)

	result, err := Walk(context.Background(), g, "N3", Ancestors, 1, Filter{model.ContainedBy: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"N2"}, result)
}

func TestWalk_DefaultDepthIsOne(t *testing.T) {
	g := buildChain(t)

	result, err := Walk(context.Background(), g, "N3", Ancestors, 0, Filter{model.ContainedBy: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"N2"}, result)
}

func TestWalk_UnknownNode(t *testing.T) {
	g := buildChain(t)

	_, err := Walk(context.Background(), g, "missing", Ancestors, 1, nil)
	require.Error(t, err)
	var notFound ErrNodeNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestWalk_FilterExcludesRelationship(t *testing.T) {
	g := buildChain(t)

	result, err := Walk(context.Background(), g, "N3", Ancestors, 10, Filter{model.DependencyOf: true})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestWalk_NilFilterDefaultsToNonUndefined(t *testing.T) {
	g := buildChain(t)

	result, err := Walk(context.Background(), g, "N3", Ancestors, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"N2", "N1"}, result)
}

func TestRoots_NodeWithNoOutgoingEdgeIsRoot(t *testing.T) {
	g := buildChain(t)

	roots := Roots(g, Filter{model.ContainedBy: true})
	assert.Equal(t, []string{"N3"}, roots)
}

func TestRootTraces_FollowsOutgoingToRoot(t *testing.T) {
	g := buildChain(t)

	traces, err := RootTraces(g, "N1", Filter{model.ContainedBy: true})
	require.NoError(t, err)
	require.Len(t, traces, 1)
	assert.Equal(t, []string{"N2", "N3"}, traces[0])
}

func TestRootTraces_BranchingYieldsMultiplePaths(t *testing.T) {
	b := graphcache.NewBuilder(uuid.New())
	b.AddNode(graphcache.Node{NodeID: "leaf"})
	b.AddNode(graphcache.Node{NodeID: "root-a"})
	b.AddNode(graphcache.Node{NodeID: "root-b"})
	b.AddEdge("leaf", model.ContainedBy, "root-a")
	b.AddEdge("leaf", model.DependencyOf, "root-b")
	g, err := b.Build()
	require.NoError(t, err)

	traces, err := RootTraces(g, "leaf", Filter{model.ContainedBy: true, model.DependencyOf: true})
	require.NoError(t, err)
	require.Len(t, traces, 2)
	assert.Contains(t, traces, []string{"root-a"})
	assert.Contains(t, traces, []string{"root-b"})
}
