package driven

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// Collator produces the full set of documents of one type from an external
// source. Implementations typically call remote services and should honour
// ctx cancellation.
type Collator interface {
	// Collate returns every document of the collator's type.
	Collate(ctx context.Context) ([]domain.IndexableDocument, error)
}

// CollatorFunc adapts a function to the Collator interface.
type CollatorFunc func(ctx context.Context) ([]domain.IndexableDocument, error)

// Collate calls f.
func (f CollatorFunc) Collate(ctx context.Context) ([]domain.IndexableDocument, error) {
	return f(ctx)
}
