package query

import (
	"fmt"
	"strings"

	"github.com/trustgraph/core/pkg/errs"
)

// Op is one of the comparison operators the filter language accepts.
type Op string

const (
	OpEq       Op = "="
	OpNeq      Op = "!="
	OpLike     Op = "~"
	OpNotLike  Op = "!~"
	OpLt       Op = "<"
	OpLte      Op = "<="
	OpGt       Op = ">"
	OpGte      Op = ">="
	OpFullText Op = ""
)

// negatedOps joins their value list with AND instead of OR.
var negatedOps = map[Op]bool{OpNeq: true, OpNotLike: true}

// Term is one parsed `field op value[|value...]` clause, or a bare full-text
// term when Field is empty.
type Term struct {
	Field  string
	Op     Op
	Values []string
}

// Group is a set of Terms joined by OR (the `|`-separated terms within one
// `&`-delimited segment of the query string).
type Group []Term

// Query is a set of Groups joined by AND.
type Query struct {
	Groups []Group
}

// Parse lexes and parses s into a Query. An empty or whitespace-only string
// yields a Query with no groups, matching everything.
func Parse(s string) (*Query, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return &Query{}, nil
	}
	return parseTokens(lex(s))
}

func parseTokens(tokens []token) (*Query, error) {
	q := &Query{}
	group := Group{}
	var term *Term

	closeTerm := func() {
		if term != nil {
			group = append(group, *term)
			term = nil
		}
	}
	closeGroup := func() {
		closeTerm()
		if len(group) > 0 {
			q.Groups = append(q.Groups, group)
		}
		group = Group{}
	}

	i := 0
	for i < len(tokens) && tokens[i].kind != tokEOF {
		tok := tokens[i]
		switch tok.kind {
		case tokField:
			if i+2 >= len(tokens) || tokens[i+1].kind != tokOp || tokens[i+2].kind != tokValue {
				return nil, errs.WithToken(errs.Search, tok.text, fmt.Errorf("expected an operator and value after field name"))
			}
			closeTerm()
			term = &Term{Field: tok.text, Op: Op(tokens[i+1].text), Values: []string{tokens[i+2].text}}
			i += 3
		case tokValue:
			if term == nil {
				term = &Term{Values: []string{tok.text}}
			} else {
				term.Values = append(term.Values, tok.text)
			}
			i++
		case tokOr:
			i++
			if i < len(tokens) && tokens[i].kind == tokField {
				closeTerm()
			}
		case tokAnd:
			closeGroup()
			i++
		default:
			return nil, errs.WithToken(errs.Search, tok.text, fmt.Errorf("unexpected token"))
		}
	}
	closeGroup()
	return q, nil
}

// String renders q back into the query language's surface syntax. It is the
// inverse of Parse for every Query Parse can produce.
func (q *Query) String() string {
	groups := make([]string, len(q.Groups))
	for i, g := range q.Groups {
		terms := make([]string, len(g))
		for j, t := range g {
			terms[j] = t.string()
		}
		groups[i] = strings.Join(terms, "|")
	}
	return strings.Join(groups, "&")
}

func (t Term) string() string {
	values := make([]string, len(t.Values))
	for i, v := range t.Values {
		values[i] = escapeValue(v)
	}
	joined := strings.Join(values, "|")
	if t.Field == "" {
		return joined
	}
	return escapeValue(t.Field) + string(t.Op) + joined
}

// escapeValue backslash-escapes any rune the lexer treats as a delimiter, so
// re-lexing String's output reproduces the original value.
func escapeValue(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(delimiters, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
