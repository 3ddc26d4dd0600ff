package driven

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// SearchEngine is the underlying full-text engine. It accepts finished
// batches and answers queries. Backed by Bleve.
type SearchEngine interface {
	// Replace atomically swaps the documents indexed for docType.
	// Queries running concurrently see either the old or the new set.
	// On error the previous set must stay searchable.
	Replace(ctx context.Context, docType string, docs []domain.IndexableDocument) error

	// Search performs a keyword search across the requested types.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Close releases resources.
	Close() error
}
