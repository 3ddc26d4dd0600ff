package driving

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// SearchService provides search over the published index state.
type SearchService interface {
	// Search returns documents matching query. An empty query lists
	// published documents.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Documents returns the published batch for docType.
	Documents(ctx context.Context, docType string) ([]domain.IndexableDocument, error)

	// Stats summarises every published type.
	Stats(ctx context.Context) ([]domain.TypeStats, error)
}
