package query

// Page is an offset/limit pagination request.
type Page struct {
	Offset int
	Limit  int
}

// Normalize clamps Limit to a sane default and range, used when a caller
// omits or supplies a non-positive limit.
func (p Page) Normalize(defaultLimit, maxLimit int) Page {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Result is one page of T, along with the total row count across all pages
// and the adjacent-page cursors, when they exist.
type Result[T any] struct {
	Items    []T
	Total    int
	Offset   int
	Limit    int
	PrevPage *Page
	NextPage *Page
}

// NewResult builds a Result from one page's items and the full result set's
// total count, deriving PrevPage/NextPage from page and total.
func NewResult[T any](items []T, page Page, total int) Result[T] {
	r := Result[T]{Items: items, Total: total, Offset: page.Offset, Limit: page.Limit}

	if page.Offset > 0 {
		prevOffset := page.Offset - page.Limit
		if prevOffset < 0 {
			prevOffset = 0
		}
		r.PrevPage = &Page{Offset: prevOffset, Limit: page.Limit}
	}

	if page.Offset+page.Limit < total {
		r.NextPage = &Page{Offset: page.Offset + page.Limit, Limit: page.Limit}
	}

	return r
}
