// Package tui provides an interactive terminal dashboard for the indexer.
// It shows the schedule of every document type, triggers refreshes and
// queries the published index.
package tui

import (
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Search queries the published index state.
	Search driving.SearchService

	// Scheduler reports schedules and runs cycles on demand.
	Scheduler driving.Scheduler
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Scheduler == nil {
		return ErrMissingScheduler
	}
	return nil
}
