package driven

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// BatchStore persists published batches so a restarted process (or a second
// process such as the CLI) can serve the last published state without
// collating again.
type BatchStore interface {
	// SaveBatch replaces the stored batch of batch.Type.
	SaveBatch(ctx context.Context, batch *domain.IndexBatch) error

	// LoadBatches returns every stored batch, sorted by type.
	LoadBatches(ctx context.Context) ([]domain.IndexBatch, error)

	// DeleteBatch removes the stored batch of docType.
	DeleteBatch(ctx context.Context, docType string) error
}
