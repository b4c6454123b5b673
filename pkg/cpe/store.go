package cpe

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

// Store ingests and queries decomposed CPE rows.
type Store struct {
	conn store.Conn
}

// NewStore binds a Store to a connection or transaction.
func NewStore(conn store.Conn) *Store {
	return &Store{conn: conn}
}

// Ingest ensures a Cpe row exists for c and returns it with its id populated.
func (s *Store) Ingest(ctx context.Context, c model.Cpe) (model.Cpe, error) {
	id := UUID(c)
	c.ID = id

	_, err := s.conn.Exec(ctx, `
		INSERT INTO cpe (id, part, vendor, product, version, update_component, edition, language)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		id,
		componentKey(c.Part), componentKey(c.Vendor), componentKey(c.Product),
		componentKey(c.Version), componentKey(c.Update), componentKey(c.Edition),
		languageKey(c.Language))
	if err != nil {
		return model.Cpe{}, errs.New(errs.Db, fmt.Errorf("ingest cpe: %w", err))
	}
	return c, nil
}

// ByID looks up a Cpe by id.
func (s *Store) ByID(ctx context.Context, id uuid.UUID) (model.Cpe, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT id, part, vendor, product, version, update_component, edition, language
		FROM cpe WHERE id = $1`, id)
	return scanCpe(row)
}

// FindByComponents returns every stored Cpe that query.Matches against,
// scanning candidate rows filtered down to the query's non-Any components
// in SQL first.
func (s *Store) FindByComponents(ctx context.Context, query model.Cpe) ([]model.Cpe, error) {
	sql := `SELECT id, part, vendor, product, version, update_component, edition, language FROM cpe WHERE 1=1`
	var args []any
	addFilter := func(col string, comp model.CpeComponent) {
		if comp.Any {
			return
		}
		args = append(args, componentKey(comp))
		sql += fmt.Sprintf(" AND %s = $%d", col, len(args))
	}
	addFilter("part", query.Part)
	addFilter("vendor", query.Vendor)
	addFilter("product", query.Product)
	addFilter("version", query.Version)
	addFilter("update_component", query.Update)
	addFilter("edition", query.Edition)

	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, errs.New(errs.Db, fmt.Errorf("find cpe by components: %w", err))
	}
	defer rows.Close()

	var results []model.Cpe
	for rows.Next() {
		c, err := scanCpe(rows)
		if err != nil {
			return nil, err
		}
		if Matches(query, c) {
			results = append(results, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errs.New(errs.Db, err)
	}
	return results, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanCpe(row scannable) (model.Cpe, error) {
	var c model.Cpe
	var part, vendor, product, version, update, edition, language string
	if err := row.Scan(&c.ID, &part, &vendor, &product, &version, &update, &edition, &language); err != nil {
		if err == pgx.ErrNoRows {
			return model.Cpe{}, errs.New(errs.NotFound, err)
		}
		return model.Cpe{}, errs.New(errs.Db, fmt.Errorf("scan cpe: %w", err))
	}
	c.Part = component(part)
	c.Vendor = component(vendor)
	c.Product = component(product)
	c.Version = component(version)
	c.Update = component(update)
	c.Edition = component(edition)
	c.Language = language2(language)
	return c, nil
}

func language2(raw string) model.CpeLanguage {
	if raw == anySentinel || raw == "" {
		return model.CpeLanguage{Any: true}
	}
	return model.CpeLanguage{Value: raw}
}

// Cache is an in-ingestion dedup cache keyed by UUID, avoiding a redundant
// INSERT round-trip for a CPE seen more than once within the same
// ingestion pass. It holds an in-memory map of already-created CPEs for the
// duration of a single document's ingestion.
type Cache struct {
	mu    sync.Mutex
	store *Store
	seen  map[uuid.UUID]model.Cpe
}

// NewCache wraps store with a per-ingestion dedup cache.
func NewCache(store *Store) *Cache {
	return &Cache{store: store, seen: make(map[uuid.UUID]model.Cpe)}
}

// Ingest returns the cached Cpe if c was already ingested through this
// Cache, otherwise delegates to the underlying Store and remembers the
// result.
func (c *Cache) Ingest(ctx context.Context, cpe model.Cpe) (model.Cpe, error) {
	id := UUID(cpe)

	c.mu.Lock()
	if cached, ok := c.seen[id]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	ingested, err := c.store.Ingest(ctx, cpe)
	if err != nil {
		return model.Cpe{}, err
	}

	c.mu.Lock()
	c.seen[id] = ingested
	c.mu.Unlock()

	return ingested, nil
}
