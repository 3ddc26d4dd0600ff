package driving

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// PipelineRunner executes collate -> decorate -> commit cycles.
type PipelineRunner interface {
	// RunCycle runs one cycle for docType. Returns domain.ErrCycleInProgress
	// without doing anything when a cycle for docType is already running.
	RunCycle(ctx context.Context, docType string) (domain.CycleResult, error)

	// RunAll runs one cycle for every registered type concurrently.
	// The returned map holds the error of each type that failed.
	RunAll(ctx context.Context) map[string]error

	// Running reports whether a cycle for docType is in flight.
	Running(docType string) bool
}

// IndexCommitter publishes decorated batches and serves the published state.
type IndexCommitter interface {
	// Commit replaces the published batch of docType with docs. On error the
	// previous batch stays published.
	Commit(ctx context.Context, docType, runID string, docs []domain.IndexableDocument) (*domain.IndexBatch, error)

	// Snapshot returns the published batch of docType, or nil if none.
	Snapshot(docType string) *domain.IndexBatch

	// Types returns the types that have a published batch, sorted.
	Types() []string

	// Generation returns the number of commits so far.
	Generation() uint64
}
