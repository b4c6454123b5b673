// Package assertions aggregates the advisory statements attached to a
// package identity: affected/not-affected/fixed version ranges for a
// BasePurl, and CPE-contextualized status entries for a QualifiedPurl.
package assertions

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/trustgraph/core/pkg/errs"
	"github.com/trustgraph/core/pkg/model"
	"github.com/trustgraph/core/pkg/store"
)

// Affected is one advisory's claim that a version range of a package is
// vulnerable.
type Affected struct {
	StartVersion  string
	EndVersion    string
	Vulnerability string
	Claimant      model.Claimant
}

// NotAffected is one advisory's claim that a concrete version is not
// vulnerable.
type NotAffected struct {
	Version       string
	Vulnerability string
	Claimant      model.Claimant
}

// Fixed is one advisory's claim that a concrete version fixes a
// vulnerability.
type Fixed struct {
	Version       string
	Vulnerability string
	Claimant      model.Claimant
}

// PackageVulnerabilityAssertions is the union of every advisory statement
// recorded against one package identity, grouped under its canonical
// package key.
type PackageVulnerabilityAssertions struct {
	PackageKey  string
	Affected    []Affected
	NotAffected []NotAffected
	Fixed       []Fixed
}

// Aggregator reads advisory statements from the relational store.
type Aggregator struct {
	conn store.Conn
}

// New binds an Aggregator to a connection or transaction.
func New(conn store.Conn) *Aggregator {
	return &Aggregator{conn: conn}
}

// ForBasePurl returns basePurl's PackageVulnerabilityAssertions: the union
// of every Affected, NotAffected, and Fixed row pointing at it, each kind
// read and merged exactly once.
func (a *Aggregator) ForBasePurl(ctx context.Context, basePurlID uuid.UUID, packageKey string) (PackageVulnerabilityAssertions, error) {
	result := PackageVulnerabilityAssertions{PackageKey: packageKey}

	affected, err := a.affected(ctx, basePurlID)
	if err != nil {
		return result, err
	}
	result.Affected = affected

	notAffected, err := a.notAffected(ctx, basePurlID)
	if err != nil {
		return result, err
	}
	result.NotAffected = notAffected

	fixed, err := a.fixed(ctx, basePurlID)
	if err != nil {
		return result, err
	}
	result.Fixed = fixed

	return result, nil
}

func (a *Aggregator) affected(ctx context.Context, basePurlID uuid.UUID) ([]Affected, error) {
	rows, err := a.conn.Query(ctx, `
		SELECT r.start_version, r.end_version, v.identifier, ad.identifier, ad.source_location, ad.sha256
		FROM affected_package_version_range r
		JOIN advisory_vulnerability av ON av.id = r.advisory_vulnerability_id
		JOIN vulnerability v ON v.id = av.vulnerability_id
		JOIN advisory ad ON ad.id = av.advisory_id
		WHERE r.base_purl_id = $1`, basePurlID)
	if err != nil {
		return nil, errs.New(errs.Db, fmt.Errorf("query affected_package_version_range: %w", err))
	}
	defer rows.Close()

	var out []Affected
	for rows.Next() {
		var item Affected
		if err := rows.Scan(&item.StartVersion, &item.EndVersion, &item.Vulnerability,
			&item.Claimant.Identifier, &item.Claimant.SourceLocation, &item.Claimant.Sha256); err != nil {
			return nil, errs.New(errs.Db, fmt.Errorf("scan affected row: %w", err))
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (a *Aggregator) notAffected(ctx context.Context, basePurlID uuid.UUID) ([]NotAffected, error) {
	rows, err := a.conn.Query(ctx, `
		SELECT r.version, v.identifier, ad.identifier, ad.source_location, ad.sha256
		FROM not_affected_package_version r
		JOIN advisory_vulnerability av ON av.id = r.advisory_vulnerability_id
		JOIN vulnerability v ON v.id = av.vulnerability_id
		JOIN advisory ad ON ad.id = av.advisory_id
		WHERE r.base_purl_id = $1`, basePurlID)
	if err != nil {
		return nil, errs.New(errs.Db, fmt.Errorf("query not_affected_package_version: %w", err))
	}
	defer rows.Close()

	var out []NotAffected
	for rows.Next() {
		var item NotAffected
		if err := rows.Scan(&item.Version, &item.Vulnerability,
			&item.Claimant.Identifier, &item.Claimant.SourceLocation, &item.Claimant.Sha256); err != nil {
			return nil, errs.New(errs.Db, fmt.Errorf("scan not_affected row: %w", err))
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (a *Aggregator) fixed(ctx context.Context, basePurlID uuid.UUID) ([]Fixed, error) {
	rows, err := a.conn.Query(ctx, `
		SELECT r.version, v.identifier, ad.identifier, ad.source_location, ad.sha256
		FROM fixed_package_version r
		JOIN advisory_vulnerability av ON av.id = r.advisory_vulnerability_id
		JOIN vulnerability v ON v.id = av.vulnerability_id
		JOIN advisory ad ON ad.id = av.advisory_id
		WHERE r.base_purl_id = $1`, basePurlID)
	if err != nil {
		return nil, errs.New(errs.Db, fmt.Errorf("query fixed_package_version: %w", err))
	}
	defer rows.Close()

	var out []Fixed
	for rows.Next() {
		var item Fixed
		if err := rows.Scan(&item.Version, &item.Vulnerability,
			&item.Claimant.Identifier, &item.Claimant.SourceLocation, &item.Claimant.Sha256); err != nil {
			return nil, errs.New(errs.Db, fmt.Errorf("scan fixed row: %w", err))
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ForQualifiedPurl returns the CPE-contextualized AdvisoryStatus entries
// recorded against a qualified purl's resolved CPEs, in addition to the
// version-range assertions ForBasePurl already covers.
func (a *Aggregator) ForQualifiedPurl(ctx context.Context, qualifiedPurlID uuid.UUID) ([]model.AdvisoryStatus, error) {
	rows, err := a.conn.Query(ctx, `
		SELECT s.advisory_vulnerability_id, v.identifier, s.status, s.cpe,
		       ad.identifier, ad.source_location, ad.sha256
		FROM advisory_status s
		JOIN advisory_vulnerability av ON av.id = s.advisory_vulnerability_id
		JOIN vulnerability v ON v.id = av.vulnerability_id
		JOIN advisory ad ON ad.id = av.advisory_id
		JOIN sbom_package_cpe_ref cr ON cr.cpe_id = s.cpe_id
		JOIN sbom_package_purl_ref pr ON pr.node_id = cr.node_id AND pr.sbom_id = cr.sbom_id
		WHERE pr.qualified_purl_id = $1`, qualifiedPurlID)
	if err != nil {
		return nil, errs.New(errs.Db, fmt.Errorf("query advisory_status: %w", err))
	}
	defer rows.Close()

	var out []model.AdvisoryStatus
	for rows.Next() {
		var item model.AdvisoryStatus
		var cpe *string
		if err := rows.Scan(&item.AdvisoryVulnerabilityID, &item.Vulnerability, &item.Status, &cpe,
			&item.Claimant.Identifier, &item.Claimant.SourceLocation, &item.Claimant.Sha256); err != nil {
			return nil, errs.New(errs.Db, fmt.Errorf("scan advisory_status row: %w", err))
		}
		item.Context = model.StatusContext{Cpe: cpe}
		out = append(out, item)
	}
	return out, rows.Err()
}
