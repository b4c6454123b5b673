package ingest

import "fmt"

// Registry dispatches a raw document body to the Adapter registered for its
// Format.
type Registry struct {
	adapters map[Format]Adapter
}

// NewRegistry builds a Registry pre-populated with the built-in adapters.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[Format]Adapter)}
	r.Register(SPDXAdapter{})
	r.Register(CycloneDXAdapter{})
	return r
}

// Register adds or replaces the adapter for its own Format().
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Format()] = a
}

// Parse dispatches raw to the adapter registered for format.
func (r *Registry) Parse(format Format, raw []byte) (NormalizedDocument, error) {
	a, ok := r.adapters[format]
	if !ok {
		return NormalizedDocument{}, fmt.Errorf("no adapter registered for format %q", format)
	}
	return a.Parse(raw)
}
