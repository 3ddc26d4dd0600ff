// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Collator: Produces all documents of one type
//   - SearchEngine: Full-text engine that receives finished batches (Bleve)
//   - SchedulerStore: Schedule and cycle history persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - Decorator: Enriches batches; a type with no decorators is published as collated
//   - BatchStore: Persists published batches across restarts
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, collator, or decorator package
package driven
