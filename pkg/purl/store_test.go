package purl

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingConn fakes the three-level INSERT/SELECT cascade IngestQualifiedPurl
// drives, counting Exec calls so the Cache dedup test can assert the
// underlying store is only hit once for a repeated purl.
type countingConn struct {
	execCount int
}

func (c *countingConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.execCount++
	return pgconn.CommandTag{}, nil
}

func (c *countingConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (c *countingConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return cascadeRow{}
}

// cascadeRow satisfies whichever level of the cascade is currently being
// scanned by giving each UUID destination a fresh random UUID and every
// other destination its zero value.
type cascadeRow struct{}

func (cascadeRow) Scan(dest ...any) error {
	for _, d := range dest {
		switch v := d.(type) {
		case *uuid.UUID:
			*v = uuid.New()
		case *string:
			*v = ""
		case **string:
			*v = nil
		case *map[string]string:
			*v = nil
		}
	}
	return nil
}

func TestCache_DedupesWithoutSecondStoreCall(t *testing.T) {
	conn := &countingConn{}
	cache := NewCache(NewStore(conn))

	id, err := Parse("pkg:maven/org.example/widget@1.0")
	require.NoError(t, err)

	_, err = cache.Ingest(context.Background(), id)
	require.NoError(t, err)
	before := conn.execCount

	_, err = cache.Ingest(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, before, conn.execCount, "second ingest of the same purl must not hit the store again")
}

func TestCache_DistinctPurlsBothHitStore(t *testing.T) {
	conn := &countingConn{}
	cache := NewCache(NewStore(conn))

	a, err := Parse("pkg:maven/org.example/widget@1.0")
	require.NoError(t, err)
	b, err := Parse("pkg:maven/org.example/widget@2.0")
	require.NoError(t, err)

	_, err = cache.Ingest(context.Background(), a)
	require.NoError(t, err)
	afterFirst := conn.execCount

	_, err = cache.Ingest(context.Background(), b)
	require.NoError(t, err)

	assert.Greater(t, conn.execCount, afterFirst, "a distinct purl version must still hit the store")
}
