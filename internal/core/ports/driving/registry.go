package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// CollatorRegistration binds a collator to a document type.
type CollatorRegistration struct {
	// Type is the document type; unique key of the registry.
	Type string

	// RefreshInterval is how often the type is collated.
	RefreshInterval time.Duration

	// Collator produces the type's documents.
	Collator driven.Collator
}

// DecoratorRegistration adds a decorator to the chain.
type DecoratorRegistration struct {
	// Name identifies the decorator in logs. Optional.
	Name string

	// Decorator enriches batches.
	Decorator driven.Decorator

	// Scope selects the document types the decorator applies to.
	Scope domain.Scope
}

// CollatorRegistry holds one collator per document type.
type CollatorRegistry interface {
	// Register adds or replaces the registration for reg.Type.
	Register(reg CollatorRegistration) error

	// Get returns the registration for docType or domain.ErrNotFound.
	Get(docType string) (CollatorRegistration, error)

	// ListTypes returns the registered types, sorted.
	ListTypes() []string

	// OnRegister adds an observer called after every successful Register.
	OnRegister(fn func(CollatorRegistration))
}

// DecoratorChain holds the ordered list of decorators.
type DecoratorChain interface {
	// Register appends a decorator.
	Register(reg DecoratorRegistration) error

	// ResolveFor returns the decorators applying to docType in registration order.
	ResolveFor(docType string) []DecoratorRegistration

	// Apply runs the resolved decorators over docs, each consuming the
	// previous output.
	Apply(ctx context.Context, docType string, docs []domain.IndexableDocument) ([]domain.IndexableDocument, error)
}
