// Package model declares the entity types of the trustgraph core's shared
// identity graph. These are plain structs with db/json tags: no database
// code lives here.
package model

import (
	"time"

	"github.com/google/uuid"
)

// BasePurl is a package identity without version or qualifiers.
type BasePurl struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Type      string    `db:"type" json:"type"`
	Namespace *string   `db:"namespace" json:"namespace,omitempty"`
	Name      string    `db:"name" json:"name"`
}

// VersionedPurl is a specific version of a BasePurl.
type VersionedPurl struct {
	ID         uuid.UUID `db:"id" json:"id"`
	BasePurlID uuid.UUID `db:"base_purl_id" json:"base_purl_id"`
	Version    string    `db:"version" json:"version"`
}

// QualifiedPurl is a version with an ordered qualifier map.
type QualifiedPurl struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	VersionedPurlID uuid.UUID         `db:"versioned_purl_id" json:"versioned_purl_id"`
	Qualifiers      map[string]string `db:"qualifiers" json:"qualifiers,omitempty"`
}

// CpeComponent is one decomposed part of a CPE 2.2/2.3 identifier: every
// component except language is either Any, NotApplicable, or a concrete
// Value.
type CpeComponent struct {
	Any           bool
	NotApplicable bool
	Value         string
}

// AnyComponent is the {Any} CpeComponent.
func AnyComponent() CpeComponent { return CpeComponent{Any: true} }

// NAComponent is the {NotApplicable} CpeComponent.
func NAComponent() CpeComponent { return CpeComponent{NotApplicable: true} }

// ValueComponent wraps a concrete value.
func ValueComponent(v string) CpeComponent { return CpeComponent{Value: v} }

// CpeLanguage is {Any} or {Language(string)}.
type CpeLanguage struct {
	Any   bool
	Value string
}

// Cpe is a decomposed CPE 2.2/2.3 identifier.
type Cpe struct {
	ID       uuid.UUID    `db:"id" json:"id"`
	Part     CpeComponent `db:"part" json:"part"`
	Vendor   CpeComponent `db:"vendor" json:"vendor"`
	Product  CpeComponent `db:"product" json:"product"`
	Version  CpeComponent `db:"version" json:"version"`
	Update   CpeComponent `db:"update" json:"update"`
	Edition  CpeComponent `db:"edition" json:"edition"`
	Language CpeLanguage  `db:"language" json:"language"`
}

// Sbom is one ingested SBOM document.
type Sbom struct {
	ID             uuid.UUID         `db:"id" json:"id"`
	DocumentID     string            `db:"document_id" json:"document_id"`
	SourceLocation string            `db:"source_location" json:"source_location"`
	Sha256         string            `db:"sha256" json:"sha256"`
	Title          string            `db:"title" json:"title"`
	Published      *time.Time        `db:"published" json:"published,omitempty"`
	Authors        []string          `db:"authors" json:"authors,omitempty"`
	Labels         map[string]string `db:"labels" json:"labels,omitempty"`
}

// SbomNode is a node in one SBOM, addressed by the SBOM's local identifier.
type SbomNode struct {
	SbomID uuid.UUID `db:"sbom_id" json:"sbom_id"`
	NodeID string    `db:"node_id" json:"node_id"`
	Name   string    `db:"name" json:"name"`
}

// SbomPackage is a node that represents a concrete package.
type SbomPackage struct {
	SbomID  uuid.UUID `db:"sbom_id" json:"sbom_id"`
	NodeID  string    `db:"node_id" json:"node_id"`
	Version *string   `db:"version" json:"version,omitempty"`
}

// SbomPackagePurlRef joins an SbomNode to a QualifiedPurl.
type SbomPackagePurlRef struct {
	SbomID          uuid.UUID `db:"sbom_id" json:"sbom_id"`
	NodeID          string    `db:"node_id" json:"node_id"`
	QualifiedPurlID uuid.UUID `db:"qualified_purl_id" json:"qualified_purl_id"`
}

// SbomPackageCpeRef joins an SbomNode to a Cpe.
type SbomPackageCpeRef struct {
	SbomID uuid.UUID `db:"sbom_id" json:"sbom_id"`
	NodeID string    `db:"node_id" json:"node_id"`
	CpeID  uuid.UUID `db:"cpe_id" json:"cpe_id"`
}

// PackageRelatesToPackage is a directed edge inside an SBOM.
type PackageRelatesToPackage struct {
	SbomID       uuid.UUID    `db:"sbom_id" json:"sbom_id"`
	LeftNodeID   string       `db:"left_node_id" json:"left_node_id"`
	Relationship Relationship `db:"relationship" json:"relationship"`
	RightNodeID  string       `db:"right_node_id" json:"right_node_id"`
}

// Product names a product line an SBOM may describe (supplement 6).
type Product struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}

// ProductVersion ties an SBOM to a Product at a particular version
// (supplement 6); referenced by the latest filter's group key.
type ProductVersion struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ProductID uuid.UUID `db:"product_id" json:"product_id"`
	SbomID    uuid.UUID `db:"sbom_id" json:"sbom_id"`
	Version   string    `db:"version" json:"version"`
}

// Advisory is a security advisory.
type Advisory struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Identifier     string     `db:"identifier" json:"identifier"`
	SourceLocation string     `db:"source_location" json:"source_location"`
	Sha256         string     `db:"sha256" json:"sha256"`
	Title          string     `db:"title" json:"title"`
	Published      *time.Time `db:"published" json:"published,omitempty"`
	Modified       *time.Time `db:"modified" json:"modified,omitempty"`
	Withdrawn      *time.Time `db:"withdrawn" json:"withdrawn,omitempty"`
}

// Claimant identifies the advisory source that makes an assertion.
type Claimant struct {
	Identifier     string `json:"identifier"`
	SourceLocation string `json:"source_location"`
	Sha256         string `json:"sha256"`
}

// ClaimantOf builds a Claimant from an Advisory.
func ClaimantOf(a Advisory) Claimant {
	return Claimant{Identifier: a.Identifier, SourceLocation: a.SourceLocation, Sha256: a.Sha256}
}

// Vulnerability is identified by its public identifier (e.g. a CVE id).
type Vulnerability struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Identifier string    `db:"identifier" json:"identifier"`
}

// AdvisoryVulnerability is the many-to-many join of advisories and vulnerabilities.
type AdvisoryVulnerability struct {
	ID              uuid.UUID `db:"id" json:"id"`
	AdvisoryID      uuid.UUID `db:"advisory_id" json:"advisory_id"`
	VulnerabilityID uuid.UUID `db:"vulnerability_id" json:"vulnerability_id"`
}

// CVSS3 is a passively-stored CVSS v3 score row attached to an
// AdvisoryVulnerability (supplement 5). The core stores it; it never
// computes it.
type CVSS3 struct {
	AdvisoryVulnerabilityID uuid.UUID `db:"advisory_vulnerability_id" json:"advisory_vulnerability_id"`
	Vector                  string    `db:"vector" json:"vector"`
	BaseScore               float64   `db:"base_score" json:"base_score"`
}

// CVSS4 is a passively-stored CVSS v4 score row.
type CVSS4 struct {
	AdvisoryVulnerabilityID uuid.UUID `db:"advisory_vulnerability_id" json:"advisory_vulnerability_id"`
	Vector                  string    `db:"vector" json:"vector"`
	BaseScore               float64   `db:"base_score" json:"base_score"`
}

// AffectedPackageVersionRange attaches a BasePurl (via a half-open version
// range) to an AdvisoryVulnerability.
type AffectedPackageVersionRange struct {
	ID                      uuid.UUID `db:"id" json:"id"`
	AdvisoryVulnerabilityID uuid.UUID `db:"advisory_vulnerability_id" json:"advisory_vulnerability_id"`
	BasePurlID              uuid.UUID `db:"base_purl_id" json:"base_purl_id"`
	Start                   string    `db:"start_version" json:"start_version"`
	End                     string    `db:"end_version" json:"end_version"`
}

// NotAffectedPackageVersion attaches a concrete version of a BasePurl to an
// AdvisoryVulnerability as explicitly not affected.
type NotAffectedPackageVersion struct {
	ID                      uuid.UUID `db:"id" json:"id"`
	AdvisoryVulnerabilityID uuid.UUID `db:"advisory_vulnerability_id" json:"advisory_vulnerability_id"`
	BasePurlID              uuid.UUID `db:"base_purl_id" json:"base_purl_id"`
	Version                 string    `db:"version" json:"version"`
}

// FixedPackageVersion attaches a concrete version of a BasePurl to an
// AdvisoryVulnerability as the version where the vulnerability was fixed.
type FixedPackageVersion struct {
	ID                      uuid.UUID `db:"id" json:"id"`
	AdvisoryVulnerabilityID uuid.UUID `db:"advisory_vulnerability_id" json:"advisory_vulnerability_id"`
	BasePurlID              uuid.UUID `db:"base_purl_id" json:"base_purl_id"`
	Version                 string    `db:"version" json:"version"`
}

// StatusContext narrows an advisory status claim to a particular product.
type StatusContext struct {
	Cpe *string `json:"cpe,omitempty"`
}

// AdvisoryStatus is a per-advisory status entry contextualized by CPE,
// attached to a QualifiedPurl lookup.
type AdvisoryStatus struct {
	AdvisoryVulnerabilityID uuid.UUID     `json:"advisory_vulnerability_id"`
	Vulnerability           string        `json:"vulnerability"`
	Status                  string        `json:"status"` // affected, fixed, not_affected, known_not_affected, ...
	Context                 StatusContext `json:"context"`
	Claimant                Claimant      `json:"claimant"`
}
