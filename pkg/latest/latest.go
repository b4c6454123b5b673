// Package latest implements the post-query "latest" filter: within each
// group of results describing the same logical package, keep only the
// most-recently-published one.
package latest

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// GroupKey identifies the logical package a result belongs to: the tuple
// (name, product_name, product_version, cpe-set-or-purl-name).
type GroupKey struct {
	Name           string
	ProductName    string
	ProductVersion string
	PackageKey     string // canonical purl string or joined CPE set, whichever the query matched on
}

// Item is anything the latest filter can rank: a group key, a published
// timestamp (nil sorts before any concrete time), and the sbom id used to
// break ties.
type Item interface {
	LatestGroupKey() GroupKey
	LatestPublished() *time.Time
	LatestSbomID() uuid.UUID
}

// Filter keeps, within each group sharing a GroupKey, only the item with the
// greatest Published timestamp; ties are broken by the greater sbom_id
// (UUID compared as bytes) so the result is a total order. Input order is
// not preserved; output order is unspecified beyond the grouping guarantee.
func Filter[T Item](items []T) []T {
	winners := make(map[GroupKey]T, len(items))
	seen := make(map[GroupKey]bool, len(items))

	for _, item := range items {
		key := item.LatestGroupKey()
		if !seen[key] {
			winners[key] = item
			seen[key] = true
			continue
		}
		if wins(item, winners[key]) {
			winners[key] = item
		}
	}

	out := make([]T, 0, len(winners))
	for _, item := range winners {
		out = append(out, item)
	}
	return out
}

// wins reports whether candidate should replace incumbent as the latest item
// in its group.
func wins(candidate, incumbent Item) bool {
	cp, ip := candidate.LatestPublished(), incumbent.LatestPublished()
	switch {
	case cp == nil && ip == nil:
		return uuidGreater(candidate.LatestSbomID(), incumbent.LatestSbomID())
	case cp == nil:
		return false
	case ip == nil:
		return true
	case !cp.Equal(*ip):
		return cp.After(*ip)
	default:
		return uuidGreater(candidate.LatestSbomID(), incumbent.LatestSbomID())
	}
}

func uuidGreater(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) > 0
}
