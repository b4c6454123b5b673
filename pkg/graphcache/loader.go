package graphcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trustgraph/core/pkg/errs"
	"github.com/trustgraph/core/pkg/model"
	"github.com/trustgraph/core/pkg/store"
)

// Loader reads one SBOM's nodes and edges from the relational store and
// assembles the in-memory Graph.
type Loader struct {
	conn store.Conn
}

// NewLoader binds a Loader to a connection or transaction.
func NewLoader(conn store.Conn) *Loader {
	return &Loader{conn: conn}
}

type nodeRow struct {
	nodeID     string
	name       string
	version    *string
	purlsJSON  []byte
	cpesJSON   []byte
	published  *time.Time
	documentID string
}

// Load builds sbomID's graph: nodes and explicit edges first, then an
// Undefined edge from the document's DescribedBy target to every node no
// explicit edge touched, then rejects the result if it is cyclic.
func (l *Loader) Load(ctx context.Context, sbomID uuid.UUID) (*Graph, error) {
	b := newBuilder(sbomID)

	documentID, describedTarget, err := l.documentInfo(ctx, sbomID)
	if err != nil {
		return nil, err
	}

	touched := make(map[string]bool)

	rows, err := l.conn.Query(ctx, `
		SELECT n.node_id, n.name, p.version, sb.published,
		       COALESCE(purls.purls, '[]'), COALESCE(cpes.cpes, '[]')
		FROM sbom_node n
		LEFT JOIN sbom_package p ON p.sbom_id = n.sbom_id AND p.node_id = n.node_id
		LEFT JOIN sbom sb ON sb.id = n.sbom_id
		LEFT JOIN (
			SELECT node_id, jsonb_agg(qualified_purl_id) AS purls
			FROM sbom_package_purl_ref WHERE sbom_id = $1 GROUP BY node_id
		) purls ON purls.node_id = n.node_id
		LEFT JOIN (
			SELECT node_id, jsonb_agg(cpe_id) AS cpes
			FROM sbom_package_cpe_ref WHERE sbom_id = $1 GROUP BY node_id
		) cpes ON cpes.node_id = n.node_id
		WHERE n.sbom_id = $1`, sbomID)
	if err != nil {
		return nil, errs.New(errs.Db, fmt.Errorf("load sbom_node: %w", err))
	}

	for rows.Next() {
		var r nodeRow
		if err := rows.Scan(&r.nodeID, &r.name, &r.version, &r.published, &r.purlsJSON, &r.cpesJSON); err != nil {
			rows.Close()
			return nil, errs.New(errs.Db, fmt.Errorf("scan sbom_node: %w", err))
		}
		n := Node{SbomID: sbomID, NodeID: r.nodeID, Name: r.name, Published: r.published, DocumentID: documentID}
		if r.version != nil {
			n.Version = *r.version
		}
		_ = json.Unmarshal(r.purlsJSON, &n.Purls)
		_ = json.Unmarshal(r.cpesJSON, &n.Cpes)
		b.addNode(n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errs.New(errs.Db, err)
	}
	rows.Close()

	edgeRows, err := l.conn.Query(ctx, `
		SELECT left_node_id, relationship, right_node_id
		FROM package_relates_to_package WHERE sbom_id = $1`, sbomID)
	if err != nil {
		return nil, errs.New(errs.Db, fmt.Errorf("load package_relates_to_package: %w", err))
	}
	for edgeRows.Next() {
		var left, right string
		var rel model.Relationship
		if err := edgeRows.Scan(&left, &rel, &right); err != nil {
			edgeRows.Close()
			return nil, errs.New(errs.Db, fmt.Errorf("scan edge: %w", err))
		}
		// left/right may be a cross-document placeholder id rather than a
		// row in sbom_node; addNode is a no-op if the node is already
		// present, and otherwise adds a minimal placeholder node so the
		// edge survives into the built graph for pkg/xref to resolve later.
		b.addNode(Node{SbomID: sbomID, NodeID: left})
		b.addNode(Node{SbomID: sbomID, NodeID: right})
		b.addEdge(left, rel, right)
		touched[left] = true
		touched[right] = true
	}
	if err := edgeRows.Err(); err != nil {
		edgeRows.Close()
		return nil, errs.New(errs.Db, err)
	}
	edgeRows.Close()

	if describedTarget != "" {
		for _, n := range b.nodes {
			if !touched[n.NodeID] && n.NodeID != describedTarget {
				b.addEdge(describedTarget, model.Undefined, n.NodeID)
			}
		}
	}

	return b.build()
}

// documentInfo returns the sbom's document_id and the node_id its
// synthetic DescribedBy edges already point to (the first DescribedBy
// target on record), used to anchor implicit nodes.
func (l *Loader) documentInfo(ctx context.Context, sbomID uuid.UUID) (documentID, describedTarget string, err error) {
	row := l.conn.QueryRow(ctx, `SELECT document_id FROM sbom WHERE id = $1`, sbomID)
	if scanErr := row.Scan(&documentID); scanErr != nil {
		return "", "", errs.New(errs.Db, fmt.Errorf("load sbom document_id: %w", scanErr))
	}

	describedRow := l.conn.QueryRow(ctx, `
		SELECT right_node_id FROM package_relates_to_package
		WHERE sbom_id = $1 AND relationship = $2
		ORDER BY right_node_id LIMIT 1`, sbomID, model.DescribedBy)
	if scanErr := describedRow.Scan(&describedTarget); scanErr != nil {
		return documentID, "", nil
	}
	return documentID, describedTarget, nil
}
