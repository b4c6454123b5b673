package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/trustgraph/core/pkg/model"
)

// SPDXAdapter parses SPDX 2.3 JSON documents into a NormalizedDocument.
type SPDXAdapter struct{}

func (SPDXAdapter) Format() Format { return FormatSPDX }

type spdxDocument struct {
	SPDXID            string `json:"SPDXID"`
	Name              string `json:"name"`
	DocumentNamespace string `json:"documentNamespace"`
	CreationInfo      struct {
		Created string `json:"created"`
	} `json:"creationInfo"`
	Packages []spdxPackage `json:"packages"`
	Relationships []struct {
		SpdxElementID      string `json:"spdxElementId"`
		RelationshipType   string `json:"relationshipType"`
		RelatedSpdxElement string `json:"relatedSpdxElement"`
	} `json:"relationships"`
}

type spdxPackage struct {
	SPDXID        string `json:"SPDXID"`
	Name          string `json:"name"`
	VersionInfo   string `json:"versionInfo"`
	ExternalRefs  []struct {
		ReferenceCategory string `json:"referenceCategory"`
		ReferenceType     string `json:"referenceType"`
		ReferenceLocator  string `json:"referenceLocator"`
	} `json:"externalRefs"`
}

// spdxRelationshipKinds maps SPDX relationship type keywords onto wire
// relationship names; anything unrecognized is recorded as Undefined rather
// than rejected, so an unfamiliar SPDX relationship type never aborts
// ingestion of an otherwise-valid document.
var spdxRelationshipKinds = map[string]string{
	"DESCRIBES":      model.DescribedBy.String(),
	"CONTAINS":       model.ContainedBy.String(),
	"DEPENDS_ON":     model.DependencyOf.String(),
	"DEV_DEPENDENCY_OF": model.DevDependencyOf.String(),
	"BUILD_DEPENDENCY_OF": model.BuildDependencyOf.String(),
	"GENERATED_FROM": model.GeneratedFrom.String(),
	"VARIANT_OF":     model.VariantOf.String(),
	"ANCESTOR_OF":    model.AncestorOf.String(),
}

func (SPDXAdapter) Parse(raw []byte) (NormalizedDocument, error) {
	var doc spdxDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return NormalizedDocument{}, fmt.Errorf("parse spdx document: %w", err)
	}

	sum := sha256.Sum256(raw)

	nd := NormalizedDocument{
		Format:         FormatSPDX,
		DocumentID:     doc.SPDXID,
		SourceLocation: doc.DocumentNamespace,
		Sha256:         hex.EncodeToString(sum[:]),
		Title:          doc.Name,
	}

	if doc.CreationInfo.Created != "" {
		if t, err := time.Parse(time.RFC3339, doc.CreationInfo.Created); err == nil {
			nd.Published = &t
		}
	}

	for _, pkg := range doc.Packages {
		node := NormalizedNode{NodeID: pkg.SPDXID, Name: pkg.Name, Version: pkg.VersionInfo}
		for _, ref := range pkg.ExternalRefs {
			switch ref.ReferenceType {
			case "purl":
				node.Purls = append(node.Purls, ref.ReferenceLocator)
			case "cpe23Type", "cpe22Type":
				node.Cpes = append(node.Cpes, ref.ReferenceLocator)
			}
		}
		nd.Nodes = append(nd.Nodes, node)
	}

	for _, rel := range doc.Relationships {
		kind, ok := spdxRelationshipKinds[rel.RelationshipType]
		if !ok {
			kind = model.Undefined.String()
		}
		if rel.SpdxElementID == doc.SPDXID && rel.RelationshipType == "DESCRIBES" {
			nd.DescribesNodeIDs = append(nd.DescribesNodeIDs, rel.RelatedSpdxElement)
			continue
		}
		nd.Edges = append(nd.Edges, NormalizedEdge{
			Left:         rel.SpdxElementID,
			Relationship: kind,
			Right:        rel.RelatedSpdxElement,
		})
	}

	return nd, nil
}
