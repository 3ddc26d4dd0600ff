package driven

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// Decorator enriches or modifies a batch of documents.
// It must return a fresh slice rather than mutating docs in place.
type Decorator interface {
	// Decorate returns the decorated batch.
	Decorate(ctx context.Context, docs []domain.IndexableDocument) ([]domain.IndexableDocument, error)
}

// DecoratorFunc adapts a function to the Decorator interface.
type DecoratorFunc func(ctx context.Context, docs []domain.IndexableDocument) ([]domain.IndexableDocument, error)

// Decorate calls f.
func (f DecoratorFunc) Decorate(
	ctx context.Context, docs []domain.IndexableDocument,
) ([]domain.IndexableDocument, error) {
	return f(ctx, docs)
}
