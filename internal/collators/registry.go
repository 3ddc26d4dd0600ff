package collators

import (
	"fmt"
	"slices"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// BuilderFunc creates a Collator from generic config.
// Config is the source's table from the configuration file.
type BuilderFunc func(cfg map[string]any) (driven.Collator, error)

// Registry maps collator kinds to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a builder for kind, replacing any previous one.
func (r *Registry) Register(kind string, builder BuilderFunc) {
	r.builders[kind] = builder
}

// Build creates a collator of kind with the given config.
func (r *Registry) Build(kind string, cfg map[string]any) (driven.Collator, error) {
	builder, ok := r.builders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: collator kind %q", domain.ErrUnsupportedType, kind)
	}
	return builder(cfg)
}

// Has returns true if a builder for kind is registered.
func (r *Registry) Has(kind string) bool {
	_, ok := r.builders[kind]
	return ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.builders))
	for kind := range r.builders {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}
