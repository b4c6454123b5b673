package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelationship_WireCodes(t *testing.T) {
	cases := map[Relationship]int{
		ContainedBy:       0,
		DependencyOf:      1,
		DevDependencyOf:   2,
		BuildDependencyOf: 3,
		DescribedBy:       8,
		Package:           9,
		GeneratedFrom:     10,
		VariantOf:         11,
		AncestorOf:        13,
		Undefined:         14,
		Dependency:        15,
	}
	for rel, code := range cases {
		assert.Equal(t, Relationship(code), rel)
	}
}

func TestRelationship_String(t *testing.T) {
	assert.Equal(t, "DependencyOf", DependencyOf.String())
	assert.Equal(t, "Unknown", Relationship(999).String())
}

func TestParseRelationship(t *testing.T) {
	rel, ok := ParseRelationship("DependencyOf")
	assert.True(t, ok)
	assert.Equal(t, DependencyOf, rel)

	_, ok = ParseRelationship("NotARelationship")
	assert.False(t, ok)
}

func TestNonUndefined_ExcludesUndefined(t *testing.T) {
	set := NonUndefined()
	assert.False(t, set[Undefined])
	assert.True(t, set[DependencyOf])
	assert.True(t, set[ContainedBy])
	assert.Len(t, set, 10)
}
