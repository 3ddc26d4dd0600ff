// Package sqlite provides a SQLite-based implementation of the indexer's
// persistence ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements two store interfaces
// through a single database connection:
//
//   - SchedulerStore: per-type schedules and cycle history
//   - BatchStore: the last published batch of every type
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-indexer/data/indexer.db
package sqlite
