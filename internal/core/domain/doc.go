// Package domain defines the core business entities for the indexer.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - IndexableDocument: The shared document schema
//   - Scope: Which document types a decorator applies to
//   - IndexBatch: A complete, decorated set of documents for one type
//   - TypeSchedule / CycleResult: Scheduler state and cycle history
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
