package traversal

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/trustgraph/core/pkg/graphcache"
	"github.com/trustgraph/core/pkg/xref"
)

// GraphSource loads a graph by sbom id, satisfied by *graphcache.Cache.
type GraphSource interface {
	Load(ctx context.Context, sbomID uuid.UUID) (*graphcache.Graph, error)
}

// PlaceholderResolver resolves a cross-document placeholder id, satisfied by
// *xref.Resolver.
type PlaceholderResolver interface {
	Resolve(ctx context.Context, id string) (*xref.ResolvedSbom, error)
}

// Hop names one node visited by a cross-document walk, tagged with the SBOM
// it was found in so a caller can tell which document a result came from.
type Hop struct {
	SbomID uuid.UUID
	NodeID string
}

// WalkAcrossDocuments performs the same walk as Walk, but when it reaches a
// cross-document placeholder node it resolves the placeholder via resolver
// and, if resolved, continues the walk into the foreign SBOM's graph (loaded
// via source). An unresolved placeholder terminates that branch without
// error.
func WalkAcrossDocuments(ctx context.Context, source GraphSource, resolver PlaceholderResolver, sbomID uuid.UUID, nodeID string, dir Direction, depth int, filter Filter) ([]Hop, error) {
	g, err := source.Load(ctx, sbomID)
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", sbomID, err)
	}
	start, ok := g.IndexOf(nodeID)
	if !ok {
		return nil, ErrNodeNotFound{NodeID: nodeID}
	}
	if depth <= 0 {
		depth = 1
	}

	var out []Hop
	var visit func(ctx context.Context, g *graphcache.Graph, sbomID uuid.UUID, i, remaining int, visited map[int]bool) error
	visit = func(ctx context.Context, g *graphcache.Graph, sbomID uuid.UUID, i, remaining int, visited map[int]bool) error {
		if remaining <= 0 {
			return nil
		}
		for _, e := range adjacency(g, i, dir) {
			if !filter.allows(e.Relationship) {
				continue
			}
			if visited[e.To] {
				continue
			}
			visited[e.To] = true

			toNodeID := g.Nodes[e.To].NodeID
			if docID, externalID, isPlaceholder := xref.Split(toNodeID); isPlaceholder {
				resolved, err := resolver.Resolve(ctx, toNodeID)
				if err != nil {
					return fmt.Errorf("resolve placeholder %q (document %s): %w", toNodeID, docID, err)
				}
				if resolved == nil {
					continue // unresolved placeholder: stop this branch, not an error
				}
				foreignGraph, err := source.Load(ctx, resolved.SbomID)
				if err != nil {
					return fmt.Errorf("load foreign graph %s: %w", resolved.SbomID, err)
				}
				foreignStart, ok := foreignGraph.IndexOf(externalID)
				if !ok {
					continue
				}
				out = append(out, Hop{SbomID: resolved.SbomID, NodeID: externalID})
				if err := visit(ctx, foreignGraph, resolved.SbomID, foreignStart, remaining-1, map[int]bool{foreignStart: true}); err != nil {
					return err
				}
				continue
			}

			out = append(out, Hop{SbomID: sbomID, NodeID: toNodeID})
			if err := visit(ctx, g, sbomID, e.To, remaining-1, visited); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(ctx, g, sbomID, start, depth, map[int]bool{start: true}); err != nil {
		return nil, err
	}
	return out, nil
}
