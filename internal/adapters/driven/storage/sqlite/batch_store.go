package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// batchStore implements driven.BatchStore.
// Documents are stored as a JSON array in their wire shape.
type batchStore struct {
	store *Store
}

var _ driven.BatchStore = (*batchStore)(nil)

// SaveBatch replaces the stored batch of batch.Type.
func (s *batchStore) SaveBatch(ctx context.Context, batch *domain.IndexBatch) error {
	if batch == nil || batch.Type == "" {
		return domain.ErrInvalidInput
	}

	docs := batch.Documents
	if docs == nil {
		docs = []domain.IndexableDocument{}
	}
	docsJSON, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshalling documents: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO published_batches (type, run_id, committed_at, generation, documents)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(type) DO UPDATE SET
			run_id = excluded.run_id,
			committed_at = excluded.committed_at,
			generation = excluded.generation,
			documents = excluded.documents
	`, batch.Type, batch.RunID, batch.CommittedAt.Format(time.RFC3339Nano),
		int64(batch.Generation), string(docsJSON))
	if err != nil {
		return fmt.Errorf("saving batch: %w", err)
	}
	return nil
}

// LoadBatches returns every stored batch, sorted by type.
func (s *batchStore) LoadBatches(ctx context.Context) ([]domain.IndexBatch, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT type, run_id, committed_at, generation, documents
		FROM published_batches
		ORDER BY type
	`)
	if err != nil {
		return nil, fmt.Errorf("querying batches: %w", err)
	}
	defer rows.Close()

	var batches []domain.IndexBatch //nolint:prealloc // size unknown from query
	for rows.Next() {
		var batch domain.IndexBatch
		var committedAt, docsJSON string
		var generation int64
		if err := rows.Scan(&batch.Type, &batch.RunID, &committedAt, &generation, &docsJSON); err != nil {
			return nil, fmt.Errorf("scanning batch: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, committedAt); err == nil {
			batch.CommittedAt = t
		}
		batch.Generation = uint64(generation)
		if err := json.Unmarshal([]byte(docsJSON), &batch.Documents); err != nil {
			return nil, fmt.Errorf("unmarshalling documents of %s: %w", batch.Type, err)
		}
		batches = append(batches, batch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batches: %w", err)
	}

	return batches, nil
}

// DeleteBatch removes the stored batch of docType.
func (s *batchStore) DeleteBatch(ctx context.Context, docType string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM published_batches WHERE type = ?", docType)
	if err != nil {
		return fmt.Errorf("deleting batch: %w", err)
	}
	return nil
}
