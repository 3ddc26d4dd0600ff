package driven

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// SchedulerStore persists scheduler state for crash recovery and status
// reporting. It stores per-type schedules and cycle history.
type SchedulerStore interface {
	// GetSchedule retrieves the schedule of a document type.
	// Returns nil and no error if the type has no schedule yet.
	GetSchedule(ctx context.Context, docType string) (*domain.TypeSchedule, error)

	// ListSchedules returns all stored schedules.
	ListSchedules(ctx context.Context) ([]domain.TypeSchedule, error)

	// SaveSchedule persists a type's schedule.
	// Creates or updates the schedule based on type.
	SaveSchedule(ctx context.Context, schedule *domain.TypeSchedule) error

	// DeleteSchedule removes a type's schedule.
	DeleteSchedule(ctx context.Context, docType string) error

	// RecordResult logs a cycle result.
	RecordResult(ctx context.Context, result *domain.CycleResult) error

	// GetHistory returns recent results for a type.
	// Results are ordered by start time descending (most recent first).
	GetHistory(ctx context.Context, docType string, limit int) ([]domain.CycleResult, error)

	// PruneHistory removes old results beyond the retention limit.
	// Keeps the most recent 'keep' results per type.
	PruneHistory(ctx context.Context, keep int) error
}
