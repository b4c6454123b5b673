// Package ingest implements SBOM and advisory ingestion: the pipeline that
// takes a format-specific document, normalizes it into nodes and edges, and
// writes it into the relational store inside one all-or-nothing transaction.
package ingest

import "time"

// Format identifies the wire format a document was parsed from.
type Format string

const (
	FormatSPDX      Format = "spdx"
	FormatCycloneDX Format = "cyclonedx"
	FormatCSAF      Format = "csaf"
	FormatOSV       Format = "osv"
	FormatCVE       Format = "cve"
)

// NormalizedNode is one node inside a normalized document graph: either a
// package (identified by purl and/or CPE) or a document-describing node.
type NormalizedNode struct {
	NodeID  string
	Name    string
	Version string
	Purls   []string // purl strings, parsed and ingested by the pipeline
	Cpes    []string // CPE strings, parsed and ingested by the pipeline
}

// NormalizedEdge is one directed relationship between two nodes inside the
// same document.
type NormalizedEdge struct {
	Left         string
	Relationship string // canonical Relationship name, parsed via model.ParseRelationship
	Right        string
}

// NormalizedDocument is the adapter-independent intermediate form every
// format adapter produces, and the only input the ingestion pipeline
// consumes.
type NormalizedDocument struct {
	Format         Format
	DocumentID     string
	SourceLocation string
	Sha256         string
	Title          string
	Published      *time.Time
	Authors        []string
	Labels         map[string]string

	Nodes []NormalizedNode
	Edges []NormalizedEdge

	// DescribesNodeIDs names the node ids the document's root SBOM/metadata
	// element describes; the pipeline synthesizes DescribedBy edges to them
	// when a format does not already encode that relationship explicitly.
	DescribesNodeIDs []string
}

// Adapter parses a raw document body into a NormalizedDocument. One adapter
// is registered per supported Format.
type Adapter interface {
	Format() Format
	Parse(raw []byte) (NormalizedDocument, error)
}
