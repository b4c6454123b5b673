// Package graphcache builds and caches the per-SBOM in-memory directed
// graph the traversal engine walks: the relational store is the source of
// truth, this package is a derived, evictable view over it.
package graphcache

import (
	"time"

	"github.com/google/uuid"

	"github.com/trustgraph/core/pkg/model"
)

// Node is one graph-local node: a denormalized projection of an SbomNode
// plus everything the traversal engine and query layer need without a
// further database round-trip.
type Node struct {
	SbomID         uuid.UUID
	NodeID         string
	Name           string
	Version        string
	Purls          []string
	Cpes           []string
	Published      *time.Time
	DocumentID     string
	ProductName    string
	ProductVersion string
}

// Edge is one directed, typed link between two graph-local node indices.
type Edge struct {
	To           int
	Relationship model.Relationship
}

// Graph is the directed graph of one SBOM's nodes and edges, indexed for
// O(1) ancestor/descendant walks in either direction.
type Graph struct {
	SbomID uuid.UUID
	Nodes  []Node

	// nodeIndex maps a node's string id to its position in Nodes.
	nodeIndex map[string]int

	// out[i] holds i's outgoing edges in insertion order; in[i] holds i's
	// incoming edges, also in the order they were inserted: traversal walks
	// visit edges in insertion order.
	out [][]Edge
	in  [][]Edge

	byteSize int64
}

// IndexOf returns the graph-local index of nodeID, or false if absent.
func (g *Graph) IndexOf(nodeID string) (int, bool) {
	i, ok := g.nodeIndex[nodeID]
	return i, ok
}

// Outgoing returns node index i's outgoing edges.
func (g *Graph) Outgoing(i int) []Edge { return g.out[i] }

// Incoming returns node index i's incoming edges.
func (g *Graph) Incoming(i int) []Edge { return g.in[i] }

// ByteSize is the approximate memory footprint used by LRU eviction
// accounting.
func (g *Graph) ByteSize() int64 { return g.byteSize }

// builder accumulates nodes and edges before the final Graph is frozen,
// rejecting a document whose edges form a cycle.
type builder struct {
	sbomID    uuid.UUID
	nodeIndex map[string]int
	nodes     []Node
	edges     []rawEdge
}

type rawEdge struct {
	left, right  string
	relationship model.Relationship
}

func newBuilder(sbomID uuid.UUID) *builder {
	return &builder{sbomID: sbomID, nodeIndex: make(map[string]int)}
}

// Builder assembles a Graph from nodes and edges supplied directly, rather
// than read from the store by Loader. Used by tests and by any caller that
// already has a NormalizedDocument's nodes and edges in hand.
type Builder struct {
	b *builder
}

// NewBuilder starts a Builder for sbomID.
func NewBuilder(sbomID uuid.UUID) *Builder {
	return &Builder{b: newBuilder(sbomID)}
}

// AddNode adds n, deduplicating by NodeID, and returns its graph-local index.
func (gb *Builder) AddNode(n Node) int {
	return gb.b.addNode(n)
}

// AddEdge records a directed edge between two node ids already added via
// AddNode.
func (gb *Builder) AddEdge(left string, rel model.Relationship, right string) {
	gb.b.addEdge(left, rel, right)
}

// Build freezes the accumulated nodes and edges into a Graph, rejecting a
// cyclic result.
func (gb *Builder) Build() (*Graph, error) {
	return gb.b.build()
}

func (b *builder) addNode(n Node) int {
	if i, ok := b.nodeIndex[n.NodeID]; ok {
		return i
	}
	i := len(b.nodes)
	b.nodeIndex[n.NodeID] = i
	b.nodes = append(b.nodes, n)
	return i
}

func (b *builder) addEdge(left string, rel model.Relationship, right string) {
	b.edges = append(b.edges, rawEdge{left: left, right: right, relationship: rel})
}

// ErrCyclic is returned by build when the accumulated edges contain a
// directed cycle; the caller must not cache the resulting graph.
type ErrCyclic struct{ SbomID uuid.UUID }

func (e ErrCyclic) Error() string {
	return "graph for sbom " + e.SbomID.String() + " contains a cycle"
}

// build freezes the accumulated nodes/edges into a Graph, rejecting cycles.
func (b *builder) build() (*Graph, error) {
	out := make([][]Edge, len(b.nodes))
	in := make([][]Edge, len(b.nodes))

	for _, e := range b.edges {
		li, ok := b.nodeIndex[e.left]
		if !ok {
			continue
		}
		ri, ok := b.nodeIndex[e.right]
		if !ok {
			continue
		}
		out[li] = append(out[li], Edge{To: ri, Relationship: e.relationship})
		in[ri] = append(in[ri], Edge{To: li, Relationship: e.relationship})
	}

	g := &Graph{
		SbomID:    b.sbomID,
		Nodes:     b.nodes,
		nodeIndex: b.nodeIndex,
		out:       out,
		in:        in,
	}
	g.byteSize = estimateByteSize(g)

	if hasCycle(g) {
		return nil, ErrCyclic{SbomID: b.sbomID}
	}
	return g, nil
}

// hasCycle runs recursive DFS with a three-color scheme (white/gray/black)
// over outgoing edges, looking for a back-edge into the current recursion
// stack.
func hasCycle(g *Graph) bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(g.Nodes))

	var visit func(i int) bool
	visit = func(i int) bool {
		color[i] = gray
		for _, e := range g.out[i] {
			switch color[e.To] {
			case gray:
				return true
			case white:
				if visit(e.To) {
					return true
				}
			}
		}
		color[i] = black
		return false
	}

	for i := range g.Nodes {
		if color[i] == white {
			if visit(i) {
				return true
			}
		}
	}
	return false
}

// estimateByteSize approximates a graph's resident memory: fixed overhead
// per node plus the length of its string fields, plus a fixed cost per
// edge. It need not be exact, only monotonic in graph size for LRU ranking.
func estimateByteSize(g *Graph) int64 {
	const nodeOverhead = 128
	const edgeOverhead = 32

	var total int64
	for _, n := range g.Nodes {
		total += nodeOverhead
		total += int64(len(n.NodeID) + len(n.Name) + len(n.Version) + len(n.DocumentID))
		for _, p := range n.Purls {
			total += int64(len(p))
		}
		for _, c := range n.Cpes {
			total += int64(len(c))
		}
	}
	for _, edges := range g.out {
		total += int64(len(edges)) * edgeOverhead
	}
	return total
}
