package traversal

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustgraph/core/pkg/graphcache"
	"github.com/trustgraph/core/pkg/model"
	"github.com/trustgraph/core/pkg/xref"
)

// fakeSource serves pre-built graphs keyed by sbom id, standing in for
// *graphcache.Cache in tests.
type fakeSource struct {
	graphs map[uuid.UUID]*graphcache.Graph
}

func (f *fakeSource) Load(ctx context.Context, sbomID uuid.UUID) (*graphcache.Graph, error) {
	return f.graphs[sbomID], nil
}

// fakeResolver resolves exactly the placeholders it was seeded with,
// standing in for *xref.Resolver.
type fakeResolver struct {
	resolutions map[string]*xref.ResolvedSbom
}

func (f *fakeResolver) Resolve(ctx context.Context, id string) (*xref.ResolvedSbom, error) {
	return f.resolutions[id], nil
}

func TestWalkAcrossDocuments_UnresolvedPlaceholderStopsBranchWithoutError(t *testing.T) {
	pSbomID := uuid.New()

	b := graphcache.NewBuilder(pSbomID)
	b.AddNode(graphcache.Node{NodeID: "SPDXRef-Root"})
	b.AddNode(graphcache.Node{NodeID: "DocumentRef-C:SPDXRef-A"})
	b.AddEdge("SPDXRef-Root", model.ContainedBy, "DocumentRef-C:SPDXRef-A")
	pGraph, err := b.Build()
	require.NoError(t, err)

	source := &fakeSource{graphs: map[uuid.UUID]*graphcache.Graph{pSbomID: pGraph}}
	resolver := &fakeResolver{resolutions: map[string]*xref.ResolvedSbom{}}

	hops, err := WalkAcrossDocuments(context.Background(), source, resolver, pSbomID, "SPDXRef-Root", Descendants, 10, Filter{model.ContainedBy: true})
	require.NoError(t, err)
	assert.Empty(t, hops)
}

func TestWalkAcrossDocuments_ResolvedPlaceholderContinuesIntoForeignGraph(t *testing.T) {
	pSbomID := uuid.New()
	cSbomID := uuid.New()

	pBuilder := graphcache.NewBuilder(pSbomID)
	pBuilder.AddNode(graphcache.Node{NodeID: "SPDXRef-Root"})
	pBuilder.AddNode(graphcache.Node{NodeID: "DocumentRef-C:SPDXRef-A"})
	pBuilder.AddEdge("SPDXRef-Root", model.ContainedBy, "DocumentRef-C:SPDXRef-A")
	pGraph, err := pBuilder.Build()
	require.NoError(t, err)

	cBuilder := graphcache.NewBuilder(cSbomID)
	cBuilder.AddNode(graphcache.Node{NodeID: "SPDXRef-A"})
	cBuilder.AddNode(graphcache.Node{NodeID: "SPDXRef-B"})
	cBuilder.AddEdge("SPDXRef-A", model.ContainedBy, "SPDXRef-B")
	cGraph, err := cBuilder.Build()
	require.NoError(t, err)

	source := &fakeSource{graphs: map[uuid.UUID]*graphcache.Graph{pSbomID: pGraph, cSbomID: cGraph}}
	resolver := &fakeResolver{resolutions: map[string]*xref.ResolvedSbom{
		"DocumentRef-C:SPDXRef-A": {SbomID: cSbomID, NodeID: "SPDXRef-A"},
	}}

	hops, err := WalkAcrossDocuments(context.Background(), source, resolver, pSbomID, "SPDXRef-Root", Descendants, 10, Filter{model.ContainedBy: true})
	require.NoError(t, err)
	require.Len(t, hops, 2)
	assert.Equal(t, cSbomID, hops[0].SbomID)
	assert.Equal(t, "SPDXRef-A", hops[0].NodeID)
	assert.Equal(t, cSbomID, hops[1].SbomID)
	assert.Equal(t, "SPDXRef-B", hops[1].NodeID)
}
