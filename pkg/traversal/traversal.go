// Package traversal walks a graphcache.Graph to answer ancestor, descendant,
// and root queries over one SBOM's component relationships.
package traversal

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/trustgraph/core/pkg/graphcache"
	"github.com/trustgraph/core/pkg/model"
	"github.com/trustgraph/core/pkg/tracing"
)

// Direction selects which adjacency a walk follows.
type Direction int

const (
	// Ancestors walks a node's incoming edges: the nodes with an edge
	// declared into the current node (e.g. for a container, the packages
	// that are ContainedBy it).
	Ancestors Direction = iota
	// Descendants walks a node's outgoing edges: the nodes the current node
	// declares an edge to.
	Descendants
)

// ErrNodeNotFound is returned when the requested node id is absent from g.
type ErrNodeNotFound struct {
	NodeID string
}

func (e ErrNodeNotFound) Error() string {
	return fmt.Sprintf("node %q not found in graph", e.NodeID)
}

// Filter selects which relationships a walk considers; a nil or empty Filter
// defaults to every relationship except model.Undefined.
type Filter map[model.Relationship]bool

func (f Filter) allows(r model.Relationship) bool {
	if len(f) == 0 {
		return r != model.Undefined
	}
	return f[r]
}

// Walk performs a depth-bounded, visited-once, pre-order walk of g starting
// at nodeID in the given direction, returning node ids in the order visited.
// depth <= 0 defaults to 1. Edges from a given node are followed in
// insertion order, matching the order they were ingested.
func Walk(ctx context.Context, g *graphcache.Graph, nodeID string, dir Direction, depth int, filter Filter) ([]string, error) {
	_, span := tracing.Start(ctx, "traversal.walk",
		attribute.String("node_id", nodeID),
		attribute.Int("direction", int(dir)),
		attribute.Int("depth", depth),
	)
	var err error
	defer func() { tracing.End(span, err) }()

	start, ok := g.IndexOf(nodeID)
	if !ok {
		err = ErrNodeNotFound{NodeID: nodeID}
		return nil, err
	}
	if depth <= 0 {
		depth = 1
	}

	visited := map[int]bool{start: true}
	var out []string

	var visit func(i, remaining int)
	visit = func(i, remaining int) {
		if remaining <= 0 {
			return
		}
		for _, e := range adjacency(g, i, dir) {
			if !filter.allows(e.Relationship) {
				continue
			}
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			out = append(out, g.Nodes[e.To].NodeID)
			visit(e.To, remaining-1)
		}
	}
	visit(start, depth)
	span.SetAttributes(attribute.Int("visited_count", len(out)))
	return out, nil
}

func adjacency(g *graphcache.Graph, i int, dir Direction) []graphcache.Edge {
	if dir == Ancestors {
		return g.Incoming(i)
	}
	return g.Outgoing(i)
}

// Roots returns the node ids with no outgoing edge under filter: the nodes
// nothing else in this SBOM declares a relationship away from.
func Roots(g *graphcache.Graph, filter Filter) []string {
	var out []string
	for i, n := range g.Nodes {
		hasOutgoing := false
		for _, e := range g.Outgoing(i) {
			if filter.allows(e.Relationship) {
				hasOutgoing = true
				break
			}
		}
		if !hasOutgoing {
			out = append(out, n.NodeID)
		}
	}
	return out
}

// RootTraces returns every maximal path from nodeID, following outgoing
// edges under filter, up to a root (a node with no further outgoing edge
// under filter). A node with multiple qualifying outgoing edges yields one
// path per branch.
func RootTraces(g *graphcache.Graph, nodeID string, filter Filter) ([][]string, error) {
	start, ok := g.IndexOf(nodeID)
	if !ok {
		return nil, ErrNodeNotFound{NodeID: nodeID}
	}

	var traces [][]string
	var walk func(i int, path []string, onStack map[int]bool)
	walk = func(i int, path []string, onStack map[int]bool) {
		var next []graphcache.Edge
		for _, e := range g.Outgoing(i) {
			if filter.allows(e.Relationship) {
				next = append(next, e)
			}
		}
		if len(next) == 0 {
			traces = append(traces, append([]string{}, path...))
			return
		}
		for _, e := range next {
			if onStack[e.To] {
				// A cyclic graph is never cached, but guard anyway: stop
				// the branch rather than recursing forever.
				traces = append(traces, append([]string{}, path...))
				continue
			}
			onStack[e.To] = true
			walk(e.To, append(path, g.Nodes[e.To].NodeID), onStack)
			delete(onStack, e.To)
		}
	}
	walk(start, nil, map[int]bool{start: true})
	return traces, nil
}
