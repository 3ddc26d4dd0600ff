package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

// ==================== SchedulerStore Tests ====================

func TestSchedulerStore_SaveAndGetSchedule(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	schedulerStore := store.SchedulerStore()

	now := time.Now().UTC()
	schedule := &domain.TypeSchedule{
		Type:        "techdocs",
		Interval:    10 * time.Minute,
		State:       domain.StateRunning,
		LastRun:     now.Add(-time.Minute),
		NextRun:     now.Add(9 * time.Minute),
		LastError:   "collate \"techdocs\": boom",
		LastSuccess: now.Add(-11 * time.Minute),
		Documents:   42,
	}
	require.NoError(t, schedulerStore.SaveSchedule(ctx, schedule))

	got, err := schedulerStore.GetSchedule(ctx, "techdocs")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, schedule.Type, got.Type)
	assert.Equal(t, schedule.Interval, got.Interval)
	assert.Equal(t, domain.StateRunning, got.State)
	assert.Equal(t, schedule.LastError, got.LastError)
	assert.Equal(t, 42, got.Documents)
	assert.WithinDuration(t, schedule.LastRun, got.LastRun, time.Millisecond)
	assert.WithinDuration(t, schedule.NextRun, got.NextRun, time.Millisecond)
	assert.WithinDuration(t, schedule.LastSuccess, got.LastSuccess, time.Millisecond)
}

func TestSchedulerStore_GetSchedule_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	got, err := store.SchedulerStore().GetSchedule(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSchedulerStore_SaveSchedule_Update(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	schedulerStore := store.SchedulerStore()

	require.NoError(t, schedulerStore.SaveSchedule(ctx, &domain.TypeSchedule{
		Type: "api", Interval: time.Hour, LastError: "old",
	}))
	require.NoError(t, schedulerStore.SaveSchedule(ctx, &domain.TypeSchedule{
		Type: "api", Interval: time.Minute, State: domain.StateIdle, Documents: 3,
	}))

	got, err := schedulerStore.GetSchedule(ctx, "api")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Minute, got.Interval)
	assert.Empty(t, got.LastError)
	assert.Equal(t, 3, got.Documents)
	assert.True(t, got.LastRun.IsZero())
}

func TestSchedulerStore_SaveSchedule_DefaultsState(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.SchedulerStore().SaveSchedule(ctx, &domain.TypeSchedule{Type: "a", Interval: time.Second}))

	got, err := store.SchedulerStore().GetSchedule(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.StateIdle, got.State)
}

func TestSchedulerStore_SaveSchedule_Invalid(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	assert.ErrorIs(t, store.SchedulerStore().SaveSchedule(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.SchedulerStore().SaveSchedule(ctx, &domain.TypeSchedule{}), domain.ErrInvalidInput)
}

func TestSchedulerStore_ListAndDeleteSchedules(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	schedulerStore := store.SchedulerStore()

	for _, docType := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, schedulerStore.SaveSchedule(ctx, &domain.TypeSchedule{Type: docType, Interval: time.Minute}))
	}

	schedules, err := schedulerStore.ListSchedules(ctx)
	require.NoError(t, err)
	require.Len(t, schedules, 3)
	assert.Equal(t, "alpha", schedules[0].Type)
	assert.Equal(t, "zeta", schedules[2].Type)

	require.NoError(t, schedulerStore.DeleteSchedule(ctx, "mid"))
	schedules, err = schedulerStore.ListSchedules(ctx)
	require.NoError(t, err)
	assert.Len(t, schedules, 2)
}

func TestSchedulerStore_RecordAndGetHistory(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	schedulerStore := store.SchedulerStore()

	base := time.Now()
	for i := range 5 {
		require.NoError(t, schedulerStore.RecordResult(ctx, &domain.CycleResult{
			RunID:     "run-" + string(rune('a'+i)),
			Type:      "docs",
			StartedAt: base.Add(time.Duration(i) * time.Millisecond),
			EndedAt:   base.Add(time.Duration(i)*time.Millisecond + time.Microsecond),
			Stage:     domain.StageCommit,
			Success:   i%2 == 0,
			Documents: i,
		}))
	}
	require.NoError(t, schedulerStore.RecordResult(ctx, &domain.CycleResult{
		RunID: "skipped", Type: "other", StartedAt: base, EndedAt: base, Skipped: true,
	}))

	history, err := schedulerStore.GetHistory(ctx, "docs", 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "run-e", history[0].RunID)
	assert.Equal(t, "run-c", history[2].RunID)
	assert.True(t, history[0].Success)
	assert.False(t, history[1].Success)
	assert.Equal(t, domain.StageCommit, history[0].Stage)
	assert.Equal(t, time.Microsecond, history[0].Duration())

	all, err := schedulerStore.GetHistory(ctx, "docs", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	other, err := schedulerStore.GetHistory(ctx, "other", 10)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.True(t, other[0].Skipped)
	assert.Empty(t, other[0].Stage)
}

func TestSchedulerStore_RecordResult_Invalid(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.ErrorIs(t, store.SchedulerStore().RecordResult(context.Background(), nil), domain.ErrInvalidInput)
}

func TestSchedulerStore_PruneHistory(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	schedulerStore := store.SchedulerStore()

	base := time.Now()
	for _, docType := range []string{"a", "b"} {
		for i := range 6 {
			at := base.Add(time.Duration(i) * time.Second)
			require.NoError(t, schedulerStore.RecordResult(ctx, &domain.CycleResult{
				RunID: docType, Type: docType, StartedAt: at, EndedAt: at, Documents: i,
			}))
		}
	}

	require.NoError(t, schedulerStore.PruneHistory(ctx, 2))

	for _, docType := range []string{"a", "b"} {
		history, err := schedulerStore.GetHistory(ctx, docType, 0)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, 5, history[0].Documents)
		assert.Equal(t, 4, history[1].Documents)
	}
}
