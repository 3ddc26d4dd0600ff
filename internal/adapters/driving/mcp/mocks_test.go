package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results   []domain.SearchResult
	documents map[string][]domain.IndexableDocument
	stats     []domain.TypeStats
	err       error

	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearchService) Documents(_ context.Context, docType string) ([]domain.IndexableDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	docs, ok := m.documents[docType]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return docs, nil
}

func (m *mockSearchService) Stats(_ context.Context) ([]domain.TypeStats, error) {
	return m.stats, m.err
}

// mockScheduler is a mock implementation of driving.Scheduler.
type mockScheduler struct {
	schedules []domain.TypeSchedule
	result    domain.CycleResult
	err       error
	triggered []string
}

func (m *mockScheduler) Start(_ context.Context) error {
	return nil
}

func (m *mockScheduler) Stop() error {
	return nil
}

func (m *mockScheduler) Trigger(_ context.Context, docType string) (domain.CycleResult, error) {
	m.triggered = append(m.triggered, docType)
	return m.result, m.err
}

func (m *mockScheduler) Status() []domain.TypeSchedule {
	return m.schedules
}
