package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memindex "github.com/custodia-labs/sercha-indexer/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/core/services"
)

// testServices is the in-memory indexer used by command tests.
type testServices struct {
	*Services
	closed bool
}

// setupTestServices replaces loadServices with an in-memory indexer holding
// a "handbook" type and a failing "broken" type until the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	collators := services.NewCollatorRegistry()
	decorators := services.NewDecoratorChain()
	engine := memindex.New()
	committer := services.NewCommitter(engine)
	history := memory.NewSchedulerStore()
	runner := services.NewRunner(collators, decorators, committer, history)

	cfg := domain.DefaultSchedulerConfig()
	cfg.RunOnStart = false

	require.NoError(t, collators.Register(driving.CollatorRegistration{
		Type:            "handbook",
		RefreshInterval: time.Hour,
		Collator: driven.CollatorFunc(func(context.Context) ([]domain.IndexableDocument, error) {
			return []domain.IndexableDocument{
				{Title: "Deploy guide", Text: "how to deploy the pipeline", Location: "/handbook/deploy"},
				{Title: "Oncall", Text: "paging and escalation", Location: "/handbook/oncall"},
			}, nil
		}),
	}))
	require.NoError(t, collators.Register(driving.CollatorRegistration{
		Type:            "broken",
		RefreshInterval: time.Minute,
		Collator: driven.CollatorFunc(func(context.Context) ([]domain.IndexableDocument, error) {
			return nil, errors.New("upstream unavailable")
		}),
	}))

	ts := &testServices{}
	ts.Services = &Services{
		Search:          services.NewSearchService(committer, engine, 0),
		Scheduler:       services.NewScheduler(cfg, collators, runner, history),
		Runner:          runner,
		Collators:       collators,
		History:         history,
		SchedulerConfig: cfg,
		Close: func() error {
			ts.closed = true
			return nil
		},
	}

	original := loadServices
	loadServices = func(context.Context) (*Services, error) {
		return ts.Services, nil
	}
	t.Cleanup(func() { loadServices = original })
	return ts
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// captureOutput runs fn with rootCmd writing to a buffer.
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	err := fn()
	return buf.String(), err
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()

	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "sercha-indexer", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "data-dir", "verbose"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"collate", "mcp", "search", "serve", "status", "tui", "types", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestWithServices_LoadError(t *testing.T) {
	original := loadServices
	loadServices = func(context.Context) (*Services, error) {
		return nil, errors.New("bad config")
	}
	defer func() { loadServices = original }()

	_, err := execute(t, "types")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialise indexer")
	assert.Contains(t, err.Error(), "bad config")
}

func TestWithServices_ClosesServices(t *testing.T) {
	ts := setupTestServices(t)

	_, err := execute(t, "types")

	require.NoError(t, err)
	assert.True(t, ts.closed)
}

func TestResolveConfigDir(t *testing.T) {
	original := configDir
	defer func() { configDir = original }()

	configDir = "/tmp/indexer-config"
	dir, err := resolveConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/indexer-config", dir)

	configDir = ""
	dir, err = resolveConfigDir()
	require.NoError(t, err)
	assert.Contains(t, dir, ".sercha-indexer")
}

func TestTypesCmd_ListsTypes(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "types")

	require.NoError(t, err)
	assert.Contains(t, out, "broken")
	assert.Contains(t, out, "handbook")
	assert.Contains(t, out, "every 1h0m0s")
}
