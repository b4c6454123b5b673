// Package errs defines the error taxonomy shared across the trustgraph core.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to map it onto a status
// code or a retry decision without string-matching messages.
type Kind int

const (
	// Unknown is the zero value; Of returns it for errors not produced by
	// this package.
	Unknown Kind = iota

	// PurlSyntax marks a malformed package URL.
	PurlSyntax
	// CpeSyntax marks a malformed CPE.
	CpeSyntax
	// MissingVersion marks a versioned operation requested on a version-less purl.
	MissingVersion
	// InvalidReference marks an edge referencing a node id that was never declared.
	InvalidReference
	// InvalidSbomID marks a caller-supplied SBOM identifier that is not a valid UUID.
	InvalidSbomID
	// Search marks a query-language parse failure.
	Search
	// Db marks an underlying database error.
	Db
	// Format marks a structural error reported by a format adapter.
	Format
	// NotFound marks the non-fatal absence of an entity that was required to exist.
	NotFound
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case PurlSyntax:
		return "purl_syntax"
	case CpeSyntax:
		return "cpe_syntax"
	case MissingVersion:
		return "missing_version"
	case InvalidReference:
		return "invalid_reference"
	case InvalidSbomID:
		return "invalid_sbom_id"
	case Search:
		return "search"
	case Db:
		return "db"
	case Format:
		return "format"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a Kind-tagged error with an optional offending token, so 4xx-class
// callers can surface it without parsing the message string.
type Error struct {
	Kind  Kind
	Token string // the offending input, if any (e.g. the bad purl, the unknown field)
	Err   error  // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Token != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %q: %v", e.Kind, e.Token, e.Err)
		}
		return fmt.Sprintf("%s: %q", e.Kind, e.Token)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind wrapping err, with no offending token.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Newf builds an Error of the given kind with a formatted message as its cause.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WithToken builds an Error of the given kind carrying the offending token.
func WithToken(kind Kind, token string, err error) *Error {
	return &Error{Kind: kind, Token: token, Err: err}
}

// Of extracts the Kind from err, walking the unwrap chain. Returns Unknown if
// err is nil or was not produced by this package.
func Of(err error) Kind {
	if err == nil {
		return Unknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err's Kind equals kind.
func Is(err error, kind Kind) bool {
	return Of(err) == kind
}

// IsNotFound is a convenience wrapper for the common "optional lookup" case:
// lookups should return (nil, nil) for an absence, not an error; this helper
// is for the few operations that require existence.
func IsNotFound(err error) bool {
	return Is(err, NotFound)
}
