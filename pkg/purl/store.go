package purl

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trustgraph/core/pkg/errs"
	"github.com/trustgraph/core/pkg/model"
	"github.com/trustgraph/core/pkg/store"
)

// Store performs the idempotent three-level ingestion cascade:
// ingest_package -> ingest_package_version -> ingest_qualified_package.
// Each level is an INSERT ... ON CONFLICT DO NOTHING followed by a SELECT,
// so concurrent ingestion of the same purl converges without error.
type Store struct {
	conn store.Conn
}

// NewStore binds a Store to a connection or transaction.
func NewStore(conn store.Conn) *Store {
	return &Store{conn: conn}
}

// IngestBasePurl ensures a BasePurl row exists and returns it.
func (s *Store) IngestBasePurl(ctx context.Context, id Identity) (model.BasePurl, error) {
	pkgID := id.PackageUUID()

	var namespace any
	if id.Namespace != "" {
		namespace = id.Namespace
	}

	_, err := s.conn.Exec(ctx, `
		INSERT INTO base_purl (id, type, namespace, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`,
		pkgID, id.Type, namespace, id.Name)
	if err != nil {
		return model.BasePurl{}, errs.New(errs.Db, fmt.Errorf("ingest base_purl: %w", err))
	}

	row := s.conn.QueryRow(ctx, `
		SELECT id, type, namespace, name FROM base_purl WHERE id = $1`, pkgID)

	var bp model.BasePurl
	if err := row.Scan(&bp.ID, &bp.Type, &bp.Namespace, &bp.Name); err != nil {
		return model.BasePurl{}, errs.New(errs.Db, fmt.Errorf("select base_purl: %w", err))
	}
	return bp, nil
}

// IngestVersionedPurl ensures the base purl and a VersionedPurl row exist.
// Returns errs.MissingVersion if id carries no version.
func (s *Store) IngestVersionedPurl(ctx context.Context, id Identity) (model.VersionedPurl, error) {
	if _, err := s.IngestBasePurl(ctx, id); err != nil {
		return model.VersionedPurl{}, err
	}

	verID, err := id.VersionUUID()
	if err != nil {
		return model.VersionedPurl{}, err
	}
	pkgID := id.PackageUUID()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO versioned_purl (id, base_purl_id, version)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`,
		verID, pkgID, id.Version)
	if err != nil {
		return model.VersionedPurl{}, errs.New(errs.Db, fmt.Errorf("ingest versioned_purl: %w", err))
	}

	row := s.conn.QueryRow(ctx, `
		SELECT id, base_purl_id, version FROM versioned_purl WHERE id = $1`, verID)

	var vp model.VersionedPurl
	if err := row.Scan(&vp.ID, &vp.BasePurlID, &vp.Version); err != nil {
		return model.VersionedPurl{}, errs.New(errs.Db, fmt.Errorf("select versioned_purl: %w", err))
	}
	return vp, nil
}

// IngestQualifiedPurl runs the full cascade and returns the leaf
// QualifiedPurl row, creating any missing ancestor rows along the way.
func (s *Store) IngestQualifiedPurl(ctx context.Context, id Identity) (model.QualifiedPurl, error) {
	if _, err := s.IngestVersionedPurl(ctx, id); err != nil {
		return model.QualifiedPurl{}, err
	}

	qualID, err := id.QualifierUUID()
	if err != nil {
		return model.QualifiedPurl{}, err
	}
	verID, _ := id.VersionUUID()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO qualified_purl (id, versioned_purl_id, qualifiers)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`,
		qualID, verID, id.Qualifiers)
	if err != nil {
		return model.QualifiedPurl{}, errs.New(errs.Db, fmt.Errorf("ingest qualified_purl: %w", err))
	}

	row := s.conn.QueryRow(ctx, `
		SELECT id, versioned_purl_id, qualifiers FROM qualified_purl WHERE id = $1`, qualID)

	var qp model.QualifiedPurl
	if err := row.Scan(&qp.ID, &qp.VersionedPurlID, &qp.Qualifiers); err != nil {
		return model.QualifiedPurl{}, errs.New(errs.Db, fmt.Errorf("select qualified_purl: %w", err))
	}
	return qp, nil
}

// ByBaseID looks up a BasePurl by id, resolving a package reference back to
// its canonical identity.
func (s *Store) ByBaseID(ctx context.Context, id uuid.UUID) (model.BasePurl, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT id, type, namespace, name FROM base_purl WHERE id = $1`, id)

	var bp model.BasePurl
	if err := row.Scan(&bp.ID, &bp.Type, &bp.Namespace, &bp.Name); err != nil {
		if err == pgx.ErrNoRows {
			return model.BasePurl{}, errs.WithToken(errs.NotFound, id.String(), err)
		}
		return model.BasePurl{}, errs.New(errs.Db, fmt.Errorf("select base_purl: %w", err))
	}
	return bp, nil
}

// Cache is an in-ingestion dedup cache keyed by the qualified purl's UUID,
// avoiding a redundant three-level INSERT/SELECT cascade for a purl seen
// more than once within the same ingestion pass. An SBOM routinely lists
// the same dependency (say, a transitive logging library) across hundreds
// of nodes, so this cache holds an in-memory map of already-created
// qualified purls for the duration of a single document's ingestion.
type Cache struct {
	mu    sync.Mutex
	store *Store
	seen  map[uuid.UUID]model.QualifiedPurl
}

// NewCache wraps store with a per-ingestion dedup cache.
func NewCache(store *Store) *Cache {
	return &Cache{store: store, seen: make(map[uuid.UUID]model.QualifiedPurl)}
}

// Ingest returns the cached QualifiedPurl if id was already ingested
// through this Cache, otherwise delegates to the underlying Store and
// remembers the result.
func (c *Cache) Ingest(ctx context.Context, id Identity) (model.QualifiedPurl, error) {
	qualID, err := id.QualifierUUID()
	if err != nil {
		return model.QualifiedPurl{}, err
	}

	c.mu.Lock()
	if cached, ok := c.seen[qualID]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	ingested, err := c.store.IngestQualifiedPurl(ctx, id)
	if err != nil {
		return model.QualifiedPurl{}, err
	}

	c.mu.Lock()
	c.seen[qualID] = ingested
	c.mu.Unlock()

	return ingested, nil
}
