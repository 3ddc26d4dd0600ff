// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"time"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewStatus is the schedule dashboard.
	ViewStatus ViewType = iota
	// ViewSearch is the query input and results view.
	ViewSearch
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewStatus:
		return "status"
	case ViewSearch:
		return "search"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Query   string
	Results []domain.SearchResult
	Err     error
}

// StatusLoaded carries the scheduler state and the published stats.
type StatusLoaded struct {
	Schedules []domain.TypeSchedule
	Stats     []domain.TypeStats
	Err       error
}

// RefreshRequested asks for an immediate cycle of Type.
type RefreshRequested struct {
	Type string
}

// RefreshCompleted carries the outcome of a requested cycle.
type RefreshCompleted struct {
	Result domain.CycleResult
	Err    error
}

// Tick is sent periodically to reload the dashboard.
type Tick struct {
	At time.Time
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
