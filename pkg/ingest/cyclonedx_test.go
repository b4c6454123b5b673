package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustgraph/core/pkg/model"
)

const cdxSample = `{
	"serialNumber": "urn:uuid:1234",
	"metadata": {
		"timestamp": "2026-01-01T00:00:00Z",
		"component": { "bom-ref": "root", "name": "my-app", "version": "1.0.0" }
	},
	"components": [
		{ "bom-ref": "lodash@4.17.21", "name": "lodash", "version": "4.17.21", "purl": "pkg:npm/lodash@4.17.21" }
	],
	"dependencies": [
		{ "ref": "root", "dependsOn": ["lodash@4.17.21"] }
	]
}`

func TestCycloneDXAdapter_Parse(t *testing.T) {
	doc, err := CycloneDXAdapter{}.Parse([]byte(cdxSample))
	require.NoError(t, err)

	assert.Equal(t, FormatCycloneDX, doc.Format)
	assert.Equal(t, "urn:uuid:1234", doc.DocumentID)
	require.NotNil(t, doc.Published)

	require.Len(t, doc.Nodes, 2, "root component plus one dependency component")
	assert.Equal(t, []string{"root"}, doc.DescribesNodeIDs)

	require.Len(t, doc.Edges, 1)
	assert.Equal(t, "lodash@4.17.21", doc.Edges[0].Left)
	assert.Equal(t, "root", doc.Edges[0].Right)
	assert.Equal(t, model.DependencyOf.String(), doc.Edges[0].Relationship)
}

func TestCycloneDXAdapter_InvalidJSON(t *testing.T) {
	_, err := CycloneDXAdapter{}.Parse([]byte("not json"))
	require.Error(t, err)
}
