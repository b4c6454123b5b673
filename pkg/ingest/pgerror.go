package ingest

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// asPgError unwraps err looking for a *pgconn.PgError, used to distinguish
// transient serialization failures from permanent ones.
func asPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
