package driving

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// Scheduler drives periodic cycles for every registered document type.
type Scheduler interface {
	// Start begins running scheduled cycles.
	// Blocks until context is cancelled or Stop is called, then drains.
	Start(ctx context.Context) error

	// Stop gracefully stops all timers and waits for in-flight cycles.
	Stop() error

	// Trigger runs a cycle for docType now.
	Trigger(ctx context.Context, docType string) (domain.CycleResult, error)

	// Status returns the schedule of every known type, sorted by type.
	Status() []domain.TypeSchedule
}
