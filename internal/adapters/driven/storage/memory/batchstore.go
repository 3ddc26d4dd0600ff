package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure BatchStore implements the interface.
var _ driven.BatchStore = (*BatchStore)(nil)

// BatchStore is an in-memory implementation of driven.BatchStore.
type BatchStore struct {
	mu      sync.RWMutex
	batches map[string]domain.IndexBatch
}

// NewBatchStore creates a new in-memory batch store.
func NewBatchStore() *BatchStore {
	return &BatchStore{batches: make(map[string]domain.IndexBatch)}
}

// SaveBatch stores a copy of batch.
func (s *BatchStore) SaveBatch(_ context.Context, batch *domain.IndexBatch) error {
	if batch == nil || batch.Type == "" {
		return domain.ErrInvalidInput
	}
	stored := *batch
	stored.Documents = domain.CloneDocuments(batch.Documents)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[batch.Type] = stored
	return nil
}

// LoadBatches returns copies of every stored batch, sorted by type.
func (s *BatchStore) LoadBatches(_ context.Context) ([]domain.IndexBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.IndexBatch, 0, len(s.batches))
	for _, b := range s.batches {
		b.Documents = domain.CloneDocuments(b.Documents)
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b domain.IndexBatch) int {
		return strings.Compare(a.Type, b.Type)
	})
	return out, nil
}

// DeleteBatch removes the stored batch of docType.
func (s *BatchStore) DeleteBatch(_ context.Context, docType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.batches, docType)
	return nil
}
