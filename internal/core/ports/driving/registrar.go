package driving

import "github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"

// RegisterCollatorParams are the parameters feature modules supply to
// register a collator.
type RegisterCollatorParams struct {
	// Type of document to be indexed (names the index, keys the refresh loop).
	Type string

	// DefaultRefreshIntervalSeconds applies unless configuration overrides it.
	DefaultRefreshIntervalSeconds int

	// Collator returns all documents of the given type.
	Collator driven.Collator
}

// RegisterDecoratorParams are the parameters required to register a decorator.
type RegisterDecoratorParams struct {
	// Name identifies the decorator in logs. Optional.
	Name string

	// Decorator appends or modifies documents of the given types.
	Decorator driven.Decorator

	// Types the decorator applies to. Empty applies it to all types.
	Types []string
}

// Registrar is the registration API consumed by feature modules at startup.
type Registrar interface {
	// RegisterCollator registers a collator using the effective interval.
	RegisterCollator(params RegisterCollatorParams) error

	// RegisterDecorator registers a decorator.
	RegisterDecorator(params RegisterDecoratorParams) error
}
