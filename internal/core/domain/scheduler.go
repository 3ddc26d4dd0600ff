package domain

import "time"

// ScheduleState is the per-type scheduler state.
type ScheduleState string

// Schedule states. A type moves Idle -> Running -> Idle on every cycle,
// whether the cycle succeeds or fails.
const (
	StateIdle    ScheduleState = "idle"
	StateRunning ScheduleState = "running"
)

// TypeSchedule is the persisted and reported scheduling state of one
// document type.
type TypeSchedule struct {
	// Type is the document type.
	Type string

	// Interval is the effective refresh interval.
	Interval time.Duration

	// State is the current state.
	State ScheduleState

	// LastRun is when the last cycle started.
	LastRun time.Time

	// NextRun is when the next cycle is due.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the last cycle published a batch.
	LastSuccess time.Time

	// Documents is the size of the last published batch.
	Documents int
}

// CycleResult represents the outcome of one cycle.
type CycleResult struct {
	// RunID uniquely identifies the cycle.
	RunID string

	// Type is the document type.
	Type string

	// StartedAt is when the cycle started.
	StartedAt time.Time

	// EndedAt is when the cycle completed.
	EndedAt time.Time

	// Stage is the last stage reached.
	Stage CycleStage

	// Success indicates the batch was published.
	Success bool

	// Skipped indicates the tick was dropped because a cycle was in flight.
	Skipped bool

	// Error contains the error message if Success is false.
	Error string

	// Documents is the number of documents committed.
	Documents int
}

// Duration returns how long the cycle ran.
func (r CycleResult) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// OverlapPolicy decides what happens to a tick that fires while the type's
// previous cycle is still running.
type OverlapPolicy string

// Overlap policies.
const (
	// OverlapSkip drops the tick.
	OverlapSkip OverlapPolicy = "skip"

	// OverlapQueue coalesces overlapping ticks into one follow-up run.
	OverlapQueue OverlapPolicy = "queue"
)

// Valid reports whether p is a known policy.
func (p OverlapPolicy) Valid() bool {
	return p == OverlapSkip || p == OverlapQueue
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// RunOnStart runs every type immediately instead of after one interval.
	RunOnStart bool

	// Overlap is the policy for ticks that fire during a running cycle.
	Overlap OverlapPolicy

	// ShutdownTimeout bounds how long in-flight cycles may run after Stop.
	// Zero waits for them indefinitely.
	ShutdownTimeout time.Duration

	// CycleTimeout bounds a single cycle. Zero means no bound.
	CycleTimeout time.Duration

	// HistoryLimit is the number of results kept per type.
	HistoryLimit int
}

// DefaultSchedulerConfig returns sensible defaults for the scheduler.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		RunOnStart:      true,
		Overlap:         OverlapSkip,
		ShutdownTimeout: 30 * time.Second,
		HistoryLimit:    100,
	}
}
