package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
)

// schedulerStore implements driven.SchedulerStore.
type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

const scheduleColumns = `type, interval_seconds, state, last_run, next_run, last_error, last_success, documents`

// GetSchedule retrieves the schedule of a document type.
// Returns nil and no error if the type has no schedule.
func (s *schedulerStore) GetSchedule(ctx context.Context, docType string) (*domain.TypeSchedule, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedules WHERE type = ?`, docType)

	schedule, err := scanSchedule(row)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

// ListSchedules returns all schedules ordered by type.
func (s *schedulerStore) ListSchedules(ctx context.Context) ([]domain.TypeSchedule, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedules ORDER BY type`)
	if err != nil {
		return nil, fmt.Errorf("querying schedules: %w", err)
	}
	defer rows.Close()

	var schedules []domain.TypeSchedule //nolint:prealloc // size unknown from query
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *schedule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schedules: %w", err)
	}

	return schedules, nil
}

// SaveSchedule creates or updates the schedule of schedule.Type.
func (s *schedulerStore) SaveSchedule(ctx context.Context, schedule *domain.TypeSchedule) error {
	if schedule == nil || schedule.Type == "" {
		return domain.ErrInvalidInput
	}

	state := schedule.State
	if state == "" {
		state = domain.StateIdle
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO schedules (`+scheduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(type) DO UPDATE SET
			interval_seconds = excluded.interval_seconds,
			state = excluded.state,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_error = excluded.last_error,
			last_success = excluded.last_success,
			documents = excluded.documents
	`, schedule.Type, int64(schedule.Interval.Seconds()), string(state),
		formatNullableTime(schedule.LastRun), formatNullableTime(schedule.NextRun),
		nullString(schedule.LastError), formatNullableTime(schedule.LastSuccess),
		schedule.Documents)

	if err != nil {
		return fmt.Errorf("saving schedule: %w", err)
	}
	return nil
}

// DeleteSchedule removes a type's schedule.
func (s *schedulerStore) DeleteSchedule(ctx context.Context, docType string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM schedules WHERE type = ?", docType)
	if err != nil {
		return fmt.Errorf("deleting schedule: %w", err)
	}
	return nil
}

// RecordResult logs a cycle result.
func (s *schedulerStore) RecordResult(ctx context.Context, result *domain.CycleResult) error {
	if result == nil || result.Type == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO cycle_results (run_id, type, started_at, ended_at, stage, success, skipped, error, documents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.RunID, result.Type,
		result.StartedAt.UnixNano(),
		result.EndedAt.UnixNano(),
		nullString(string(result.Stage)),
		boolToInt(result.Success),
		boolToInt(result.Skipped),
		nullString(result.Error),
		result.Documents)

	if err != nil {
		return fmt.Errorf("recording cycle result: %w", err)
	}
	return nil
}

// GetHistory returns recent results for a type, most recent first.
// A non-positive limit returns every stored result.
func (s *schedulerStore) GetHistory(ctx context.Context, docType string, limit int) ([]domain.CycleResult, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT run_id, type, started_at, ended_at, stage, success, skipped, error, documents
		FROM cycle_results
		WHERE type = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, docType, limit)
	if err != nil {
		return nil, fmt.Errorf("querying cycle history: %w", err)
	}
	defer rows.Close()

	var results []domain.CycleResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		result, err := scanCycleResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cycle history: %w", err)
	}

	return results, nil
}

// PruneHistory keeps the most recent 'keep' results per type.
func (s *schedulerStore) PruneHistory(ctx context.Context, keep int) error {
	if keep < 0 {
		keep = 0
	}
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM cycle_results
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY type ORDER BY started_at DESC, id DESC) AS rn
				FROM cycle_results
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning cycle history: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row scanner) (*domain.TypeSchedule, error) {
	var schedule domain.TypeSchedule
	var intervalSeconds int64
	var state string
	var lastRun, nextRun, lastError, lastSuccess sql.NullString

	if err := row.Scan(&schedule.Type, &intervalSeconds, &state,
		&lastRun, &nextRun, &lastError, &lastSuccess, &schedule.Documents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning schedule: %w", err)
	}

	schedule.Interval = time.Duration(intervalSeconds) * time.Second
	schedule.State = domain.ScheduleState(state)
	schedule.LastRun = parseNullableTime(lastRun)
	schedule.NextRun = parseNullableTime(nextRun)
	schedule.LastError = lastError.String
	schedule.LastSuccess = parseNullableTime(lastSuccess)

	return &schedule, nil
}

func scanCycleResult(rows scanner) (*domain.CycleResult, error) {
	var result domain.CycleResult
	var startedAt, endedAt int64
	var stage, errMsg sql.NullString
	var success, skipped int

	if err := rows.Scan(&result.RunID, &result.Type, &startedAt, &endedAt,
		&stage, &success, &skipped, &errMsg, &result.Documents); err != nil {
		return nil, fmt.Errorf("scanning cycle result: %w", err)
	}

	result.StartedAt = time.Unix(0, startedAt)
	result.EndedAt = time.Unix(0, endedAt)
	result.Stage = domain.CycleStage(stage.String)
	result.Success = success == 1
	result.Skipped = skipped == 1
	result.Error = errMsg.String

	return &result, nil
}

// formatNullableTime formats a time to RFC3339 string, or returns nil for zero time.
func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

// parseNullableTime parses a nullable RFC3339 string to time.Time.
// Returns zero time if the string is empty or invalid.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
