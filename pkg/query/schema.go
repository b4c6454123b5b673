package query

// ColumnType is the semantic type of a searchable column, used to decide how
// a literal value is parsed before it is bound as a query argument.
type ColumnType int

const (
	ColText ColumnType = iota
	ColTimestamp
	ColUUID
	ColEnum
)

// Column describes one searchable column of an entity.
type Column struct {
	// DB is the column's SQL expression, e.g. "s.published" or "n.name".
	DB   string
	Type ColumnType
	// ParseEnum converts a literal's canonical string form into the driver
	// value to bind. Required when Type is ColEnum.
	ParseEnum func(string) (any, bool)
}

// Schema declares the fields one entity exposes to the query language: the
// named columns a "field op value" term may address, and the columns a bare
// full-text term searches across.
type Schema struct {
	Columns  map[string]Column
	FullText []string
}
