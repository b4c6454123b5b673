package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/trustgraph/core/pkg/config"
	"github.com/trustgraph/core/pkg/cpe"
	"github.com/trustgraph/core/pkg/errs"
	"github.com/trustgraph/core/pkg/events"
	"github.com/trustgraph/core/pkg/logger"
	"github.com/trustgraph/core/pkg/model"
	"github.com/trustgraph/core/pkg/purl"
	"github.com/trustgraph/core/pkg/resilience"
	"github.com/trustgraph/core/pkg/store"
	"github.com/trustgraph/core/pkg/tracing"
)

// Pipeline runs the ingestion algorithm against a NormalizedDocument,
// inside one transaction per document.
type Pipeline struct {
	db      *store.DB
	notify  events.Notifier
	breaker *resilience.Breaker
	cfg     config.IngestConfig
	log     *logger.Logger
}

// NewPipeline builds a Pipeline. registry may be nil to run without circuit
// breaker protection (tests, single-shot CLI tools).
func NewPipeline(db *store.DB, notify events.Notifier, registry *resilience.Registry, cfg config.IngestConfig, log *logger.Logger) *Pipeline {
	var b *resilience.Breaker
	if registry != nil {
		b = registry.Get(resilience.OpIngest)
	}
	return &Pipeline{db: db, notify: notify, breaker: b, cfg: cfg, log: log.WithComponent("ingest")}
}

// Result summarizes one successful ingestion.
type Result struct {
	SbomID  uuid.UUID
	Skipped bool // true when an identical (source_location, sha256) was already ingested
}

// Ingest runs the full pipeline. It is idempotent: re-ingesting a document
// with the same source_location and sha256 as a previously ingested one is
// a no-op that returns the existing sbom id.
func (p *Pipeline) Ingest(ctx context.Context, doc NormalizedDocument) (Result, error) {
	ctx, span := tracing.Start(ctx, "ingest.ingest_sbom",
		attribute.String("document_id", doc.DocumentID),
		attribute.Int("node_count", len(doc.Nodes)),
		attribute.Int("edge_count", len(doc.Edges)),
	)
	var err error
	defer func() { tracing.End(span, err) }()

	var existing uuid.UUID
	var ok bool
	if existing, ok, err = p.lookupExisting(ctx, doc); err != nil {
		return Result{}, err
	} else if ok {
		p.log.InfoContext(ctx, "sbom already ingested, skipping", "sbom_id", existing, "document_id", doc.DocumentID)
		span.SetAttributes(attribute.Bool("skipped", true))
		return Result{SbomID: existing, Skipped: true}, nil
	}

	sbomID := uuid.New()
	span.SetAttributes(attribute.String("sbom_id", sbomID.String()))

	run := func() error {
		return p.db.WithTx(ctx, func(tx pgx.Tx) error {
			return p.ingestTx(ctx, tx, sbomID, doc)
		})
	}

	if err = p.retry(ctx, run); err != nil {
		return Result{}, err
	}

	if p.notify != nil {
		if notifyErr := p.notify.SbomIngested(ctx, sbomID, doc.DocumentID); notifyErr != nil {
			p.log.WarnContext(ctx, "event publish failed", "error", notifyErr)
		}
	}

	return Result{SbomID: sbomID}, nil
}

func (p *Pipeline) lookupExisting(ctx context.Context, doc NormalizedDocument) (uuid.UUID, bool, error) {
	row := p.db.Pool.QueryRow(ctx, `
		SELECT id FROM sbom WHERE source_location = $1 AND sha256 = $2`,
		doc.SourceLocation, doc.Sha256)

	var id uuid.UUID
	err := row.Scan(&id)
	if err == pgx.ErrNoRows {
		return uuid.UUID{}, false, nil
	}
	if err != nil {
		return uuid.UUID{}, false, errs.New(errs.Db, fmt.Errorf("lookup existing sbom: %w", err))
	}
	return id, true, nil
}

// ingestTx inserts the sbom row, its nodes and purl/CPE refs, and its edges,
// all inside one transaction.
func (p *Pipeline) ingestTx(ctx context.Context, tx pgx.Tx, sbomID uuid.UUID, doc NormalizedDocument) error {
	if err := p.insertSbom(ctx, tx, sbomID, doc); err != nil {
		return err
	}

	purlCache := purl.NewCache(purl.NewStore(tx))
	cpeCache := cpe.NewCache(cpe.NewStore(tx))

	nodeIDs := make(map[string]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		nodeIDs[n.NodeID] = true
	}

	for _, chunkRange := range store.Chunk(len(doc.Nodes), p.chunkSize()) {
		if err := p.insertNodeChunk(ctx, tx, purlCache, cpeCache, sbomID, doc.Nodes[chunkRange[0]:chunkRange[1]]); err != nil {
			return err
		}
	}

	edges := doc.Edges
	for _, described := range doc.DescribesNodeIDs {
		edges = append(edges, NormalizedEdge{
			Left:         doc.DocumentID,
			Relationship: model.DescribedBy.String(),
			Right:        described,
		})
	}
	nodeIDs[doc.DocumentID] = true

	for _, chunkRange := range store.Chunk(len(edges), p.chunkSize()) {
		if err := p.insertEdgeChunk(ctx, tx, sbomID, edges[chunkRange[0]:chunkRange[1]], nodeIDs); err != nil {
			return err
		}
	}

	return nil
}

func (p *Pipeline) insertSbom(ctx context.Context, tx pgx.Tx, sbomID uuid.UUID, doc NormalizedDocument) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO sbom (id, document_id, source_location, sha256, title, published, authors, labels)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sbomID, doc.DocumentID, doc.SourceLocation, doc.Sha256, doc.Title, doc.Published, doc.Authors, doc.Labels)
	if err != nil {
		return errs.New(errs.Db, fmt.Errorf("insert sbom: %w", err))
	}
	return nil
}

func (p *Pipeline) insertNodeChunk(ctx context.Context, tx pgx.Tx, purlCache *purl.Cache, cpeCache *cpe.Cache, sbomID uuid.UUID, nodes []NormalizedNode) error {
	for _, n := range nodes {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sbom_node (sbom_id, node_id, name) VALUES ($1, $2, $3)`,
			sbomID, n.NodeID, n.Name); err != nil {
			return errs.New(errs.Db, fmt.Errorf("insert sbom_node %s: %w", n.NodeID, err))
		}

		if n.Version != "" || len(n.Purls) > 0 || len(n.Cpes) > 0 {
			var version any
			if n.Version != "" {
				version = n.Version
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO sbom_package (sbom_id, node_id, version) VALUES ($1, $2, $3)`,
				sbomID, n.NodeID, version); err != nil {
				return errs.New(errs.Db, fmt.Errorf("insert sbom_package %s: %w", n.NodeID, err))
			}
		}

		for _, raw := range n.Purls {
			id, err := purl.Parse(raw)
			if err != nil {
				return err
			}
			qp, err := purlCache.Ingest(ctx, id)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO sbom_package_purl_ref (sbom_id, node_id, qualified_purl_id) VALUES ($1, $2, $3)`,
				sbomID, n.NodeID, qp.ID); err != nil {
				return errs.New(errs.Db, fmt.Errorf("insert purl ref %s: %w", n.NodeID, err))
			}
		}

		for _, raw := range n.Cpes {
			c, err := cpe.Parse(raw)
			if err != nil {
				return err
			}
			ingested, err := cpeCache.Ingest(ctx, c)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO sbom_package_cpe_ref (sbom_id, node_id, cpe_id) VALUES ($1, $2, $3)`,
				sbomID, n.NodeID, ingested.ID); err != nil {
				return errs.New(errs.Db, fmt.Errorf("insert cpe ref %s: %w", n.NodeID, err))
			}
		}
	}
	return nil
}

// insertEdgeChunk inserts edges after validating both endpoints resolve to a
// known node in this document, or to the "<document_id>:<external_node_id>"
// cross-document placeholder form that pkg/xref resolves later. A local
// reference to an unknown node id aborts the entire ingestion transaction.
func (p *Pipeline) insertEdgeChunk(ctx context.Context, tx pgx.Tx, sbomID uuid.UUID, edges []NormalizedEdge, nodeIDs map[string]bool) error {
	for _, e := range edges {
		if err := validateReference(e.Left, nodeIDs); err != nil {
			return err
		}
		if err := validateReference(e.Right, nodeIDs); err != nil {
			return err
		}

		rel, ok := model.ParseRelationship(e.Relationship)
		if !ok {
			rel = model.Undefined
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO package_relates_to_package (sbom_id, left_node_id, relationship, right_node_id)
			VALUES ($1, $2, $3, $4)`,
			sbomID, e.Left, rel, e.Right); err != nil {
			return errs.New(errs.Db, fmt.Errorf("insert edge %s->%s: %w", e.Left, e.Right, err))
		}
	}
	return nil
}

// isExternalReference reports whether nodeID is a cross-document placeholder
// of the form "<document_id>:<external_node_id>".
func isExternalReference(nodeID string) bool {
	return strings.Contains(nodeID, ":")
}

func validateReference(nodeID string, nodeIDs map[string]bool) error {
	if nodeIDs[nodeID] || isExternalReference(nodeID) {
		return nil
	}
	return errs.WithToken(errs.InvalidReference, nodeID, nil)
}

func (p *Pipeline) chunkSize() int {
	if p.cfg.ChunkSize > 0 {
		return p.cfg.ChunkSize
	}
	return 500
}

// retry wraps run with bounded exponential backoff, retrying only on
// serialization failures the database reports during concurrent writes. A
// circuit breaker short-circuits retries once a run of failures indicates
// the database itself is unhealthy.
func (p *Pipeline) retry(ctx context.Context, run func() error) error {
	bo := backoff.WithContext(p.backoffPolicy(), ctx)

	op := func() error {
		if p.breaker == nil {
			return run()
		}
		_, err := p.breaker.Execute(ctx, func() (any, error) {
			return nil, run()
		})
		return err
	}

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, bo)
}

func (p *Pipeline) backoffPolicy() backoff.BackOff {
	base := p.cfg.RetryBaseDelay
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	maxRetries := p.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = base
	eb.MaxInterval = base * 20
	eb.MaxElapsedTime = 0

	return backoff.WithMaxRetries(eb, uint64(maxRetries))
}

// isRetryable reports whether err is a transient database serialization
// failure (Postgres SQLSTATE 40001/40P01) rather than a permanent defect in
// the document.
func isRetryable(err error) bool {
	pgErr, ok := asPgError(err)
	if !ok {
		return false
	}
	switch pgErr.SQLState() {
	case "40001", "40P01":
		return true
	}
	return false
}
