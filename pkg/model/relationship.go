package model

// Relationship is the typed label on a directed edge inside one SBOM. The
// integer values are the wire codes persisted in the
// package_relates_to_package table and MUST remain stable across versions.
type Relationship int

const (
	ContainedBy       Relationship = 0
	DependencyOf      Relationship = 1
	DevDependencyOf   Relationship = 2
	BuildDependencyOf Relationship = 3
	DescribedBy       Relationship = 8
	Package           Relationship = 9
	GeneratedFrom     Relationship = 10
	VariantOf         Relationship = 11
	AncestorOf        Relationship = 13
	Undefined         Relationship = 14
	Dependency        Relationship = 15
)

var relationshipNames = map[Relationship]string{
	ContainedBy:       "ContainedBy",
	DependencyOf:      "DependencyOf",
	DevDependencyOf:   "DevDependencyOf",
	BuildDependencyOf: "BuildDependencyOf",
	DescribedBy:       "DescribedBy",
	Package:           "Package",
	GeneratedFrom:     "GeneratedFrom",
	VariantOf:         "VariantOf",
	AncestorOf:        "AncestorOf",
	Undefined:         "Undefined",
	Dependency:        "Dependency",
}

var relationshipValues = func() map[string]Relationship {
	m := make(map[string]Relationship, len(relationshipNames))
	for k, v := range relationshipNames {
		m[v] = k
	}
	return m
}()

// String implements fmt.Stringer. Unmapped codes print as "Unknown" so an
// unrecognized CycloneDX dependency kind never panics downstream.
func (r Relationship) String() string {
	if s, ok := relationshipNames[r]; ok {
		return s
	}
	return "Unknown"
}

// ParseRelationship parses the canonical string form of a Relationship, used
// by the query-language compiler when an enum column is compared against a
// literal value.
func ParseRelationship(s string) (Relationship, bool) {
	r, ok := relationshipValues[s]
	return r, ok
}

// NonUndefined is the default relationship filter for traversal walks: every
// named relationship except Undefined.
func NonUndefined() map[Relationship]bool {
	return map[Relationship]bool{
		ContainedBy:       true,
		DependencyOf:      true,
		DevDependencyOf:   true,
		BuildDependencyOf: true,
		DescribedBy:       true,
		Package:           true,
		GeneratedFrom:     true,
		VariantOf:         true,
		AncestorOf:        true,
		Dependency:        true,
	}
}
