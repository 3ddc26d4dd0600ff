package mcp

import (
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Search queries the published index state.
	Search driving.SearchService

	// Scheduler reports schedules and runs cycles on demand. Optional; the
	// status and refresh tools fail without it.
	Scheduler driving.Scheduler
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
