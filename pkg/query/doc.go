// Package query implements the filter-query language used to search and
// list entities: a small expression language of `field op value` and bare
// full-text terms joined by `&` (AND) and `|` (OR), compiled against a
// per-entity Schema into a parameterized SQL WHERE fragment, plus
// offset/limit pagination with prev/next cursors.
package query
