package xref

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	doc, node, ok := Split("DocumentRef-upstream:SPDXRef-Package-libfoo")
	require.True(t, ok)
	assert.Equal(t, "DocumentRef-upstream", doc)
	assert.Equal(t, "SPDXRef-Package-libfoo", node)
}

func TestSplit_NoSeparator(t *testing.T) {
	_, _, ok := Split("SPDXRef-Package-libfoo")
	assert.False(t, ok)
}

// fakeConn scans a canned row for QueryRow, or returns pgx.ErrNoRows when
// configured to simulate an unresolved placeholder.
type fakeConn struct {
	sbomID uuid.UUID
	noRows bool
}

func (f *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (f *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return fakeRow{sbomID: f.sbomID, noRows: f.noRows}
}

type fakeRow struct {
	sbomID uuid.UUID
	noRows bool
}

func (r fakeRow) Scan(dest ...any) error {
	if r.noRows {
		return pgx.ErrNoRows
	}
	*(dest[0].(*uuid.UUID)) = r.sbomID
	return nil
}

func TestResolve_NonPlaceholder(t *testing.T) {
	r := New(&fakeConn{})
	resolved, err := r.Resolve(context.Background(), "SPDXRef-Package-local")
	require.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestResolve_Found(t *testing.T) {
	sbomID := uuid.New()
	r := New(&fakeConn{sbomID: sbomID})

	resolved, err := r.Resolve(context.Background(), "DocumentRef-upstream:SPDXRef-Package-libfoo")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, sbomID, resolved.SbomID)
	assert.Equal(t, "SPDXRef-Package-libfoo", resolved.NodeID)
}

func TestResolve_UnresolvedPlaceholderIsNotAnError(t *testing.T) {
	r := New(&fakeConn{noRows: true})

	resolved, err := r.Resolve(context.Background(), "DocumentRef-unknown:SPDXRef-Package-libfoo")
	require.NoError(t, err)
	assert.Nil(t, resolved)
}
