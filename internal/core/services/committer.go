package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Ensure Committer implements the interface.
var _ driving.IndexCommitter = (*Committer)(nil)

// publishedEntry is the published state of one type.
type publishedEntry struct {
	mu    sync.Mutex // serialises commits of the same type
	batch atomic.Pointer[domain.IndexBatch]
}

// Committer owns the published index state. Each type has its own entry,
// so commits of different types never contend.
type Committer struct {
	engine     driven.SearchEngine
	batches    driven.BatchStore
	entries    sync.Map // string -> *publishedEntry
	generation atomic.Uint64
	now        func() time.Time
}

// NewCommitter creates a committer publishing to engine.
func NewCommitter(engine driven.SearchEngine) *Committer {
	return &Committer{
		engine: engine,
		now:    time.Now,
	}
}

func (c *Committer) entry(docType string) *publishedEntry {
	if e, ok := c.entries.Load(docType); ok {
		return e.(*publishedEntry)
	}
	e, _ := c.entries.LoadOrStore(docType, &publishedEntry{})
	return e.(*publishedEntry)
}

// SetBatchStore enables persistence of published batches.
func (c *Committer) SetBatchStore(store driven.BatchStore) {
	c.batches = store
}

// Restore publishes the batches persisted in the batch store, replaying
// them into the engine. Types already committed in this process are kept;
// a batch the engine rejects is skipped and waits for its next cycle.
func (c *Committer) Restore(ctx context.Context) (int, error) {
	if c.batches == nil {
		return 0, nil
	}
	stored, err := c.batches.LoadBatches(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading published batches: %w", err)
	}

	restored := 0
	for i := range stored {
		batch := &stored[i]
		e := c.entry(batch.Type)
		e.mu.Lock()
		if e.batch.Load() == nil {
			if c.engine != nil {
				if err := c.engine.Replace(ctx, batch.Type, batch.Documents); err != nil {
					e.mu.Unlock()
					logger.Warn("committer: skipping persisted batch for %s: %v", batch.Type, err)
					continue
				}
			}
			batch.Generation = c.generation.Add(1)
			e.batch.Store(batch)
			restored++
		}
		e.mu.Unlock()
	}
	return restored, nil
}

// Commit replaces the published batch of docType with docs.
// The engine is updated first; the published entry only changes once the
// engine accepted the batch.
func (c *Committer) Commit(
	ctx context.Context,
	docType, runID string,
	docs []domain.IndexableDocument,
) (*domain.IndexBatch, error) {
	if docType == "" {
		return nil, fmt.Errorf("%w: empty type", domain.ErrInvalidInput)
	}

	batch := &domain.IndexBatch{
		Type:      docType,
		Documents: domain.CloneDocuments(docs),
		RunID:     runID,
	}

	e := c.entry(docType)
	e.mu.Lock()
	defer e.mu.Unlock()

	if c.engine != nil {
		if err := c.engine.Replace(ctx, docType, batch.Documents); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrCommitFailed, docType, err)
		}
	}

	batch.CommittedAt = c.now()
	batch.Generation = c.generation.Add(1)
	e.batch.Store(batch)

	if c.batches != nil {
		// The batch is already live; persistence only affects restarts.
		if err := c.batches.SaveBatch(ctx, batch); err != nil {
			logger.Warn("committer: failed to persist batch for %s: %v", docType, err)
		}
	}
	return batch, nil
}

// Snapshot returns the published batch of docType, or nil if the type has
// never been committed. The returned batch must be treated as read-only.
func (c *Committer) Snapshot(docType string) *domain.IndexBatch {
	e, ok := c.entries.Load(docType)
	if !ok {
		return nil
	}
	return e.(*publishedEntry).batch.Load()
}

// Types returns every type with a published batch, sorted.
func (c *Committer) Types() []string {
	var types []string
	c.entries.Range(func(key, value any) bool {
		if value.(*publishedEntry).batch.Load() != nil {
			types = append(types, key.(string))
		}
		return true
	})
	slices.Sort(types)
	return types
}

// Generation returns the number of successful commits.
func (c *Committer) Generation() uint64 {
	return c.generation.Load()
}
