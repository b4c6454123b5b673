package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/trustgraph/core/pkg/model"
)

// CycloneDXAdapter parses CycloneDX 1.x JSON documents into a
// NormalizedDocument.
type CycloneDXAdapter struct{}

func (CycloneDXAdapter) Format() Format { return FormatCycloneDX }

type cdxDocument struct {
	SerialNumber string `json:"serialNumber"`
	Metadata     struct {
		Timestamp string `json:"timestamp"`
		Component cdxComponent `json:"component"`
	} `json:"metadata"`
	Components   []cdxComponent `json:"components"`
	Dependencies []struct {
		Ref       string   `json:"ref"`
		DependsOn []string `json:"dependsOn"`
	} `json:"dependencies"`
}

type cdxComponent struct {
	BomRef  string `json:"bom-ref"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Purl    string `json:"purl"`
	Cpe     string `json:"cpe"`
}

func (CycloneDXAdapter) Parse(raw []byte) (NormalizedDocument, error) {
	var doc cdxDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return NormalizedDocument{}, fmt.Errorf("parse cyclonedx document: %w", err)
	}

	sum := sha256.Sum256(raw)

	nd := NormalizedDocument{
		Format:         FormatCycloneDX,
		DocumentID:     doc.SerialNumber,
		SourceLocation: doc.SerialNumber,
		Sha256:         hex.EncodeToString(sum[:]),
		Title:          doc.Metadata.Component.Name,
	}

	if doc.Metadata.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339, doc.Metadata.Timestamp); err == nil {
			nd.Published = &t
		}
	}

	if doc.Metadata.Component.BomRef != "" {
		nd.Nodes = append(nd.Nodes, normalizeComponent(doc.Metadata.Component))
		nd.DescribesNodeIDs = append(nd.DescribesNodeIDs, doc.Metadata.Component.BomRef)
	}

	for _, c := range doc.Components {
		nd.Nodes = append(nd.Nodes, normalizeComponent(c))
	}

	for _, dep := range doc.Dependencies {
		for _, target := range dep.DependsOn {
			nd.Edges = append(nd.Edges, NormalizedEdge{
				Left:         target,
				Relationship: model.DependencyOf.String(),
				Right:        dep.Ref,
			})
		}
	}

	return nd, nil
}

func normalizeComponent(c cdxComponent) NormalizedNode {
	n := NormalizedNode{NodeID: c.BomRef, Name: c.Name, Version: c.Version}
	if c.Purl != "" {
		n.Purls = append(n.Purls, c.Purl)
	}
	if c.Cpe != "" {
		n.Cpes = append(n.Cpes, c.Cpe)
	}
	return n
}
