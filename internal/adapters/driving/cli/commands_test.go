package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
)

func resetSearchFlags() {
	searchLimit = 10
	searchOffset = 0
	searchTypes = nil
	searchJSON = false
}

func TestCollateCmd_SingleType(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, "collate", "handbook")

	require.NoError(t, err)
	assert.Contains(t, out, "handbook: published 2 documents")

	stats, err := ts.Search.Stats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].Documents)
}

func TestCollateCmd_UnknownType(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "collate", "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollateCmd_AllTypesReportsFailures(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, "collate")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream unavailable")
	assert.Contains(t, out, "handbook")
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "failed")

	// The failing type does not prevent the other from publishing.
	docs, err := ts.Search.Documents(context.Background(), "handbook")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestSearchCmd_Flags(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
	assert.Equal(t, "n", searchCmd.Flags().Lookup("limit").Shorthand)
	assert.Equal(t, "10", searchCmd.Flags().Lookup("limit").DefValue)
	assert.NotNil(t, searchCmd.Flags().Lookup("offset"))
	assert.NotNil(t, searchCmd.Flags().Lookup("type"))
	assert.NotNil(t, searchCmd.Flags().Lookup("json"))
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "search")

	assert.Error(t, err)
}

func TestSearchCmd_NoResultsBeforePublish(t *testing.T) {
	setupTestServices(t)
	defer resetSearchFlags()

	out, err := execute(t, "search", "deploy")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_FindsPublishedDocuments(t *testing.T) {
	ts := setupTestServices(t)
	defer resetSearchFlags()

	_, err := ts.Runner.RunCycle(context.Background(), "handbook")
	require.NoError(t, err)

	out, err := execute(t, "search", "-n", "5", "deploy")

	require.NoError(t, err)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "Deploy guide")
	assert.Contains(t, out, "/handbook/deploy")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	ts := setupTestServices(t)
	defer resetSearchFlags()

	_, err := ts.Runner.RunCycle(context.Background(), "handbook")
	require.NoError(t, err)

	out, err := execute(t, "search", "--json", "deploy")
	require.NoError(t, err)

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "handbook", results[0]["type"])
	assert.Contains(t, results[0], "score")
}

func TestOutputSearchJSON_EmptyResults(t *testing.T) {
	out, err := captureOutput(t, func() error {
		return outputSearchJSON(rootCmd, nil)
	})

	require.NoError(t, err)
	assert.Contains(t, out, "[]")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n  b\tc"))

	long := snippet(string(make([]rune, snippetLength+10)))
	assert.Len(t, []rune(long), snippetLength+1)
}

func TestStatusCmd_ListsTypes(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, "handbook")
	assert.Contains(t, out, "broken")
	assert.Contains(t, out, "never")
}

func TestStatusCmd_JSONWithHistory(t *testing.T) {
	ts := setupTestServices(t)
	defer func() {
		statusJSON = false
		statusHistory = 0
	}()

	_, err := ts.Runner.RunCycle(context.Background(), "handbook")
	require.NoError(t, err)
	_, err = ts.Runner.RunCycle(context.Background(), "broken")
	require.Error(t, err)

	out, err := execute(t, "status", "--json", "--history", "5")
	require.NoError(t, err)

	var statuses []typeStatus
	require.NoError(t, json.Unmarshal([]byte(out), &statuses))
	require.Len(t, statuses, 2)

	byType := make(map[string]typeStatus)
	for _, st := range statuses {
		byType[st.Type] = st
	}
	assert.Equal(t, 2, byType["handbook"].Published)
	assert.NotEmpty(t, byType["handbook"].RunID)
	require.Len(t, byType["handbook"].History, 1)
	assert.True(t, byType["handbook"].History[0].Success)

	require.Len(t, byType["broken"].History, 1)
	assert.False(t, byType["broken"].History[0].Success)
	assert.Equal(t, domain.StageCollate, byType["broken"].History[0].Stage)
}

func TestStatusCmd_UsesPersistedSchedule(t *testing.T) {
	ts := setupTestServices(t)
	defer func() { statusJSON = false }()

	require.NoError(t, ts.History.SaveSchedule(context.Background(), &domain.TypeSchedule{
		Type:      "broken",
		State:     domain.StateIdle,
		LastRun:   mustTime(t, "2026-01-02T03:04:05Z"),
		LastError: "upstream unavailable",
	}))

	out, err := execute(t, "status", "--json")
	require.NoError(t, err)

	var statuses []typeStatus
	require.NoError(t, json.Unmarshal([]byte(out), &statuses))
	for _, st := range statuses {
		if st.Type != "broken" {
			continue
		}
		assert.Equal(t, "upstream unavailable", st.LastError)
		require.NotNil(t, st.LastRun)
		assert.Equal(t, int64(60), st.IntervalSeconds)
	}
}

func TestServeCmd_StopsOnCancel(t *testing.T) {
	setupTestServices(t)
	original := configDir
	configDir = t.TempDir()
	defer func() { configDir = original }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rootCmd.SetArgs([]string{"serve"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetContext(context.Background())
	}()

	assert.NoError(t, rootCmd.ExecuteContext(ctx))
}

func TestServeCmd_RefusesSecondInstance(t *testing.T) {
	setupTestServices(t)
	original := configDir
	configDir = t.TempDir()
	defer func() { configDir = original }()

	held := flock.New(filepath.Join(configDir, lockFileName))
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = held.Unlock() }()

	_, err = execute(t, "serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestTUICmd_RequiresTerminal(t *testing.T) {
	setupTestServices(t)
	original := isTerminal
	isTerminal = func() bool { return false }
	defer func() { isTerminal = original }()

	_, err := execute(t, "tui")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestMCPCmd_Definition(t *testing.T) {
	assert.Equal(t, "mcp", mcpCmd.Use)
	assert.NotNil(t, serveCmd.Flags().Lookup("port"))
}
