package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trustgraph/core/pkg/errs"
)

// Compile translates q into a SQL WHERE fragment and its positional
// arguments against schema, starting placeholder numbering at argOffset+1.
// now is the reference clock for relative timestamp phrases. An empty Query
// compiles to ("", nil, nil) and should be omitted from the caller's WHERE
// clause entirely.
func Compile(q *Query, schema Schema, now time.Time, argOffset int) (string, []any, error) {
	if q == nil || len(q.Groups) == 0 {
		return "", nil, nil
	}

	var args []any
	groupClauses := make([]string, 0, len(q.Groups))
	for _, group := range q.Groups {
		termClauses := make([]string, 0, len(group))
		for _, term := range group {
			clause, err := compileTerm(term, schema, now, argOffset+len(args), &args)
			if err != nil {
				return "", nil, err
			}
			termClauses = append(termClauses, clause)
		}
		clause := strings.Join(termClauses, " OR ")
		if len(termClauses) > 1 {
			clause = "(" + clause + ")"
		}
		groupClauses = append(groupClauses, clause)
	}
	return strings.Join(groupClauses, " AND "), args, nil
}

func compileTerm(t Term, schema Schema, now time.Time, argBase int, args *[]any) (string, error) {
	if t.Field == "" {
		return compileFullText(t, schema, argBase, args)
	}

	col, ok := schema.Columns[t.Field]
	if !ok {
		return "", errs.WithToken(errs.Search, t.Field, fmt.Errorf("unknown field"))
	}

	if len(t.Values) == 1 && (t.Op == OpEq || t.Op == OpNeq) && strings.EqualFold(t.Values[0], "null") {
		if t.Op == OpEq {
			return col.DB + " IS NULL", nil
		}
		return col.DB + " IS NOT NULL", nil
	}

	values, err := bindValues(t, col, now)
	if err != nil {
		return "", errs.WithToken(errs.Search, t.Field, err)
	}

	joiner := " OR "
	if negatedOps[t.Op] {
		joiner = " AND "
	}

	sqlOp, err := sqlOperator(t.Op)
	if err != nil {
		return "", errs.WithToken(errs.Search, t.Field, err)
	}

	clauses := make([]string, len(values))
	for i, v := range values {
		*args = append(*args, v)
		clauses[i] = fmt.Sprintf("%s %s $%d", col.DB, sqlOp, argBase+i+1)
	}
	return "(" + strings.Join(clauses, joiner) + ")", nil
}

func compileFullText(t Term, schema Schema, argBase int, args *[]any) (string, error) {
	if len(schema.FullText) == 0 {
		return "FALSE", nil
	}
	var clauses []string
	n := argBase
	for _, raw := range t.Values {
		pattern := "%" + escapeLike(raw) + "%"
		for _, col := range schema.FullText {
			n++
			*args = append(*args, pattern)
			clauses = append(clauses, fmt.Sprintf("%s ILIKE $%d", col, n))
		}
	}
	return "(" + strings.Join(clauses, " OR ") + ")", nil
}

// escapeLike escapes LIKE/ILIKE metacharacters in a user-supplied substring.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func sqlOperator(op Op) (string, error) {
	switch op {
	case OpEq:
		return "=", nil
	case OpNeq:
		return "!=", nil
	case OpLike:
		return "ILIKE", nil
	case OpNotLike:
		return "NOT ILIKE", nil
	case OpLt:
		return "<", nil
	case OpLte:
		return "<=", nil
	case OpGt:
		return ">", nil
	case OpGte:
		return ">=", nil
	default:
		return "", fmt.Errorf("unsupported operator %q", op)
	}
}

// bindValues converts a term's literal values into the driver values to
// bind, according to col's semantic type. ~ and !~ always compare against
// escaped substrings regardless of column type.
func bindValues(t Term, col Column, now time.Time) ([]any, error) {
	if t.Op == OpLike || t.Op == OpNotLike {
		out := make([]any, len(t.Values))
		for i, v := range t.Values {
			out[i] = "%" + escapeLike(v) + "%"
		}
		return out, nil
	}

	out := make([]any, len(t.Values))
	for i, v := range t.Values {
		switch col.Type {
		case ColTimestamp:
			ts, err := parseTimestamp(v, now)
			if err != nil {
				return nil, err
			}
			out[i] = ts
		case ColUUID:
			id, err := uuid.Parse(v)
			if err != nil {
				return nil, fmt.Errorf("not a valid uuid: %q", v)
			}
			out[i] = id
		case ColEnum:
			if col.ParseEnum == nil {
				return nil, fmt.Errorf("column has no enum parser")
			}
			parsed, ok := col.ParseEnum(v)
			if !ok {
				return nil, fmt.Errorf("not a recognized value: %q", v)
			}
			out[i] = parsed
		default:
			out[i] = v
		}
	}
	return out, nil
}
