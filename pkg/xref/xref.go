// Package xref resolves cross-document placeholder node ids into the
// foreign SBOM they point at, so a traversal walk can continue across SBOM
// boundaries.
package xref

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trustgraph/core/pkg/errs"
	"github.com/trustgraph/core/pkg/store"
)

// ResolvedSbom is the foreign SBOM and node a placeholder resolves to.
type ResolvedSbom struct {
	SbomID uuid.UUID
	NodeID string
}

// Resolver resolves a "<document_id>:<external_node_id>" placeholder to the
// most-recently-published SBOM with that document id containing that node.
type Resolver struct {
	conn store.Conn
}

// New binds a Resolver to a connection or transaction.
func New(conn store.Conn) *Resolver {
	return &Resolver{conn: conn}
}

// Split breaks a placeholder node id into its document id and external node
// id halves. ok is false if id has no ":" separator and is not a placeholder.
func Split(id string) (documentID, externalNodeID string, ok bool) {
	i := strings.Index(id, ":")
	if i < 0 {
		return "", "", false
	}
	return id[:i], id[i+1:], true
}

// Resolve looks up the placeholder id, returning (nil, nil) if no ingested
// SBOM satisfies it yet: an unresolved placeholder is not an error, it just
// terminates a traversal branch.
func (r *Resolver) Resolve(ctx context.Context, id string) (*ResolvedSbom, error) {
	documentID, externalNodeID, ok := Split(id)
	if !ok {
		return nil, nil
	}

	row := r.conn.QueryRow(ctx, `
		SELECT s.id
		FROM sbom s
		JOIN sbom_node n ON n.sbom_id = s.id AND n.node_id = $2
		WHERE s.document_id = $1
		ORDER BY s.published DESC NULLS LAST, s.id DESC
		LIMIT 1`, documentID, externalNodeID)

	var sbomID uuid.UUID
	if err := row.Scan(&sbomID); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, errs.New(errs.Db, fmt.Errorf("resolve placeholder %q: %w", id, err))
	}

	return &ResolvedSbom{SbomID: sbomID, NodeID: externalNodeID}, nil
}
