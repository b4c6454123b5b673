package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsExternalReference(t *testing.T) {
	assert.True(t, isExternalReference("urn:uuid:other-doc:SPDXRef-Package-1"))
	assert.False(t, isExternalReference("SPDXRef-Package-1"))
}

func TestValidateReference_LocalKnownNode(t *testing.T) {
	nodeIDs := map[string]bool{"a": true}
	assert.NoError(t, validateReference("a", nodeIDs))
}

func TestValidateReference_ExternalAlwaysAllowed(t *testing.T) {
	nodeIDs := map[string]bool{}
	assert.NoError(t, validateReference("other-doc:node-1", nodeIDs))
}

func TestValidateReference_UnknownLocalNodeRejected(t *testing.T) {
	nodeIDs := map[string]bool{"a": true}
	err := validateReference("b", nodeIDs)
	assert.Error(t, err)
}
