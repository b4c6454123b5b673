package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spdxSample = `{
	"SPDXID": "SPDXRef-DOCUMENT",
	"name": "sample-sbom",
	"documentNamespace": "https://example.com/sbom/1",
	"creationInfo": { "created": "2026-01-01T00:00:00Z" },
	"packages": [
		{
			"SPDXID": "SPDXRef-Package-1",
			"name": "lodash",
			"versionInfo": "4.17.21",
			"externalRefs": [
				{ "referenceCategory": "PACKAGE-MANAGER", "referenceType": "purl", "referenceLocator": "pkg:npm/lodash@4.17.21" }
			]
		}
	],
	"relationships": [
		{ "spdxElementId": "SPDXRef-DOCUMENT", "relationshipType": "DESCRIBES", "relatedSpdxElement": "SPDXRef-Package-1" }
	]
}`

func TestSPDXAdapter_Parse(t *testing.T) {
	doc, err := SPDXAdapter{}.Parse([]byte(spdxSample))
	require.NoError(t, err)

	assert.Equal(t, FormatSPDX, doc.Format)
	assert.Equal(t, "SPDXRef-DOCUMENT", doc.DocumentID)
	assert.Equal(t, "https://example.com/sbom/1", doc.SourceLocation)
	assert.Len(t, doc.Sha256, 64)
	require.NotNil(t, doc.Published)

	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "SPDXRef-Package-1", doc.Nodes[0].NodeID)
	assert.Equal(t, []string{"pkg:npm/lodash@4.17.21"}, doc.Nodes[0].Purls)

	assert.Equal(t, []string{"SPDXRef-Package-1"}, doc.DescribesNodeIDs)
	assert.Empty(t, doc.Edges, "the DESCRIBES relationship is synthesized separately, not kept as a plain edge")
}

func TestSPDXAdapter_UnrecognizedRelationshipBecomesUndefined(t *testing.T) {
	sample := `{
		"SPDXID": "SPDXRef-DOCUMENT",
		"packages": [
			{ "SPDXID": "SPDXRef-Package-1", "name": "a" },
			{ "SPDXID": "SPDXRef-Package-2", "name": "b" }
		],
		"relationships": [
			{ "spdxElementId": "SPDXRef-Package-1", "relationshipType": "SOME_FUTURE_KIND", "relatedSpdxElement": "SPDXRef-Package-2" }
		]
	}`

	doc, err := SPDXAdapter{}.Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, doc.Edges, 1)
	assert.Equal(t, "Undefined", doc.Edges[0].Relationship)
}

func TestSPDXAdapter_InvalidJSON(t *testing.T) {
	_, err := SPDXAdapter{}.Parse([]byte("not json"))
	require.Error(t, err)
}
