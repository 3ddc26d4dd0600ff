package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// Ensure SchedulerStore implements the interface.
var _ driven.SchedulerStore = (*SchedulerStore)(nil)

// SchedulerStore is an in-memory implementation of driven.SchedulerStore.
// State is lost when the process exits.
type SchedulerStore struct {
	mu        sync.RWMutex
	schedules map[string]domain.TypeSchedule
	results   map[string][]domain.CycleResult // oldest first
}

// NewSchedulerStore creates a new in-memory scheduler store.
func NewSchedulerStore() *SchedulerStore {
	return &SchedulerStore{
		schedules: make(map[string]domain.TypeSchedule),
		results:   make(map[string][]domain.CycleResult),
	}
}

// GetSchedule retrieves the schedule of a type. Returns nil if absent.
func (s *SchedulerStore) GetSchedule(_ context.Context, docType string) (*domain.TypeSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sched, ok := s.schedules[docType]
	if !ok {
		return nil, nil
	}
	return &sched, nil
}

// ListSchedules returns all schedules sorted by type.
func (s *SchedulerStore) ListSchedules(_ context.Context) ([]domain.TypeSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TypeSchedule, 0, len(s.schedules))
	for _, sched := range s.schedules {
		out = append(out, sched)
	}
	slices.SortFunc(out, func(a, b domain.TypeSchedule) int {
		if a.Type < b.Type {
			return -1
		}
		if a.Type > b.Type {
			return 1
		}
		return 0
	})
	return out, nil
}

// SaveSchedule stores or updates a schedule.
func (s *SchedulerStore) SaveSchedule(_ context.Context, schedule *domain.TypeSchedule) error {
	if schedule == nil || schedule.Type == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[schedule.Type] = *schedule
	return nil
}

// DeleteSchedule removes a schedule and its history.
func (s *SchedulerStore) DeleteSchedule(_ context.Context, docType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.schedules, docType)
	delete(s.results, docType)
	return nil
}

// RecordResult appends a cycle result to the type's history.
func (s *SchedulerStore) RecordResult(_ context.Context, result *domain.CycleResult) error {
	if result == nil || result.Type == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.Type] = append(s.results[result.Type], *result)
	return nil
}

// GetHistory returns up to limit results, most recent first.
func (s *SchedulerStore) GetHistory(_ context.Context, docType string, limit int) ([]domain.CycleResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.results[docType]
	out := make([]domain.CycleResult, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, history[i])
	}
	return out, nil
}

// PruneHistory keeps the most recent keep results per type.
func (s *SchedulerStore) PruneHistory(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for docType, history := range s.results {
		if len(history) > keep {
			s.results[docType] = slices.Clone(history[len(history)-keep:])
		}
	}
	return nil
}
