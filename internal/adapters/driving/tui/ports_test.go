package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// MockSearchService implements driving.SearchService for testing.
type MockSearchService struct {
	SearchFunc func(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
	StatsFunc  func(ctx context.Context) ([]domain.TypeStats, error)
}

func (m *MockSearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, opts)
	}
	return nil, nil
}

func (m *MockSearchService) Documents(_ context.Context, _ string) ([]domain.IndexableDocument, error) {
	return nil, domain.ErrNotFound
}

func (m *MockSearchService) Stats(ctx context.Context) ([]domain.TypeStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return nil, nil
}

// MockScheduler implements driving.Scheduler for testing.
type MockScheduler struct {
	Schedules   []domain.TypeSchedule
	TriggerFunc func(ctx context.Context, docType string) (domain.CycleResult, error)
}

func (m *MockScheduler) Start(_ context.Context) error { return nil }

func (m *MockScheduler) Stop() error { return nil }

func (m *MockScheduler) Trigger(ctx context.Context, docType string) (domain.CycleResult, error) {
	if m.TriggerFunc != nil {
		return m.TriggerFunc(ctx, docType)
	}
	return domain.CycleResult{Type: docType, Success: true}, nil
}

func (m *MockScheduler) Status() []domain.TypeSchedule {
	return m.Schedules
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		err   error
	}{
		{"all set", &Ports{Search: &MockSearchService{}, Scheduler: &MockScheduler{}}, nil},
		{"missing search", &Ports{Scheduler: &MockScheduler{}}, ErrMissingSearchService},
		{"missing scheduler", &Ports{Search: &MockSearchService{}}, ErrMissingScheduler},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
