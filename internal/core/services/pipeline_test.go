package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
)

// pipelineFixture wires a runner over in-memory collaborators.
type pipelineFixture struct {
	collators  *CollatorRegistry
	decorators *DecoratorChain
	engine     *mockSearchEngine
	committer  *Committer
	store      *memory.SchedulerStore
	runner     *Runner
}

func newPipelineFixture(opts ...RunnerOption) *pipelineFixture {
	f := &pipelineFixture{
		collators:  NewCollatorRegistry(),
		decorators: NewDecoratorChain(),
		engine:     newMockSearchEngine(),
		store:      memory.NewSchedulerStore(),
	}
	f.committer = NewCommitter(f.engine)
	f.runner = NewRunner(f.collators, f.decorators, f.committer, f.store, opts...)
	return f
}

func (f *pipelineFixture) register(t *testing.T, docType string, c driven.Collator) {
	t.Helper()
	require.NoError(t, f.collators.Register(driving.CollatorRegistration{
		Type: docType, RefreshInterval: time.Hour, Collator: c,
	}))
}

func failingCollator(err error) driven.Collator {
	return driven.CollatorFunc(func(context.Context) ([]domain.IndexableDocument, error) {
		return nil, err
	})
}

// blockingCollator blocks until release is closed, signalling entry on started.
func blockingCollator(started chan<- struct{}, release <-chan struct{}, texts ...string) driven.Collator {
	return driven.CollatorFunc(func(ctx context.Context) ([]domain.IndexableDocument, error) {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return docsWithText(texts...), nil
	})
}

func TestRunner_EndToEnd(t *testing.T) {
	f := newPipelineFixture()
	f.register(t, "docs", staticCollator("hello"))
	require.NoError(t, f.decorators.Register(driving.DecoratorRegistration{
		Name: "review", Decorator: suffixDecorator(" [reviewed]"), Scope: domain.TypesScope("docs"),
	}))

	result, err := f.runner.RunCycle(context.Background(), "docs")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Documents)
	assert.Equal(t, domain.StageCommit, result.Stage)
	assert.NotEmpty(t, result.RunID)

	snap := f.committer.Snapshot("docs")
	require.NotNil(t, snap)
	require.Len(t, snap.Documents, 1)
	assert.Equal(t, "hello [reviewed]", snap.Documents[0].Text)
	assert.Equal(t, result.RunID, snap.RunID)

	history, err := f.store.GetHistory(context.Background(), "docs", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
}

func TestRunner_UnknownType(t *testing.T) {
	f := newPipelineFixture()
	_, err := f.runner.RunCycle(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunner_CollatorFailurePublishesNothing(t *testing.T) {
	f := newPipelineFixture()
	ctx := context.Background()
	boom := errors.New("upstream down")

	calls := 0
	f.register(t, "docs", driven.CollatorFunc(func(context.Context) ([]domain.IndexableDocument, error) {
		calls++
		if calls > 1 {
			return nil, boom
		}
		return docsWithText("first"), nil
	}))
	f.register(t, "api", staticCollator("api doc"))

	_, err := f.runner.RunCycle(ctx, "docs")
	require.NoError(t, err)

	result, err := f.runner.RunCycle(ctx, "docs")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCollationFailed)
	assert.ErrorIs(t, err, boom)
	assert.False(t, result.Success)
	assert.Equal(t, domain.StageCollate, result.Stage)
	assert.Contains(t, result.Error, "upstream down")

	var cycleErr *domain.CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, "docs", cycleErr.Type)

	// Previous batch of docs is still published; api unaffected.
	assert.Equal(t, "first", f.committer.Snapshot("docs").Documents[0].Text)
	_, err = f.runner.RunCycle(ctx, "api")
	require.NoError(t, err)
	assert.Equal(t, "api doc", f.committer.Snapshot("api").Documents[0].Text)
}

func TestRunner_DecoratorFailurePublishesNothing(t *testing.T) {
	f := newPipelineFixture()
	boom := errors.New("enrichment failed")
	f.register(t, "docs", staticCollator("hello"))
	require.NoError(t, f.decorators.Register(driving.DecoratorRegistration{Decorator: failingDecorator(boom)}))

	result, err := f.runner.RunCycle(context.Background(), "docs")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDecorationFailed)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.StageDecorate, result.Stage)

	assert.Nil(t, f.committer.Snapshot("docs"))
	assert.Empty(t, f.engine.replaced)
}

func TestRunner_InvalidDocuments(t *testing.T) {
	t.Run("from collator", func(t *testing.T) {
		f := newPipelineFixture()
		f.register(t, "docs", driven.CollatorFunc(func(context.Context) ([]domain.IndexableDocument, error) {
			return []domain.IndexableDocument{{Title: "no location", Text: "x"}}, nil
		}))

		_, err := f.runner.RunCycle(context.Background(), "docs")
		assert.ErrorIs(t, err, domain.ErrCollationFailed)
		assert.ErrorIs(t, err, domain.ErrInvalidDocument)
		assert.Nil(t, f.committer.Snapshot("docs"))
	})

	t.Run("from decorator", func(t *testing.T) {
		f := newPipelineFixture()
		f.register(t, "docs", staticCollator("x"))
		require.NoError(t, f.decorators.Register(driving.DecoratorRegistration{
			Decorator: driven.DecoratorFunc(func(_ context.Context, docs []domain.IndexableDocument) ([]domain.IndexableDocument, error) {
				return []domain.IndexableDocument{{Title: "t", Location: "/"}}, nil
			}),
		}))

		_, err := f.runner.RunCycle(context.Background(), "docs")
		assert.ErrorIs(t, err, domain.ErrDecorationFailed)
		assert.ErrorIs(t, err, domain.ErrInvalidDocument)
		assert.Nil(t, f.committer.Snapshot("docs"))
	})
}

func TestRunner_CommitFailure(t *testing.T) {
	f := newPipelineFixture()
	f.register(t, "docs", staticCollator("x"))
	f.engine.setReplaceErr(errors.New("engine rejected"))

	result, err := f.runner.RunCycle(context.Background(), "docs")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCommitFailed)
	assert.Equal(t, domain.StageCommit, result.Stage)
	assert.Nil(t, f.committer.Snapshot("docs"))
}

func TestRunner_CancelledBeforeCommitIsAbandoned(t *testing.T) {
	f := newPipelineFixture()
	ctx, cancel := context.WithCancel(context.Background())

	f.register(t, "docs", driven.CollatorFunc(func(context.Context) ([]domain.IndexableDocument, error) {
		cancel()
		return docsWithText("late"), nil
	}))

	_, err := f.runner.RunCycle(ctx, "docs")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCycleAbandoned)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, f.committer.Snapshot("docs"))
}

func TestRunner_SingleInFlightPerType(t *testing.T) {
	f := newPipelineFixture()
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	f.register(t, "docs", blockingCollator(started, release, "one"))

	done := make(chan error, 1)
	go func() {
		_, err := f.runner.RunCycle(context.Background(), "docs")
		done <- err
	}()
	<-started
	assert.True(t, f.runner.Running("docs"))

	result, err := f.runner.RunCycle(context.Background(), "docs")
	assert.ErrorIs(t, err, domain.ErrCycleInProgress)
	assert.True(t, result.Skipped)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, f.runner.Running("docs"))
	assert.Equal(t, uint64(1), f.committer.Generation())
}

func TestRunner_RunAll_IsolatesFailures(t *testing.T) {
	f := newPipelineFixture(WithConcurrency(2))
	boom := errors.New("broken")
	f.register(t, "a", staticCollator("a"))
	f.register(t, "b", failingCollator(boom))
	f.register(t, "c", staticCollator("c"))

	failures := f.runner.RunAll(context.Background())
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures["b"], boom)

	assert.NotNil(t, f.committer.Snapshot("a"))
	assert.Nil(t, f.committer.Snapshot("b"))
	assert.NotNil(t, f.committer.Snapshot("c"))

	joined := JoinFailures(failures)
	assert.ErrorIs(t, joined, domain.ErrCollationFailed)
	assert.NoError(t, JoinFailures(nil))
}

func TestRunner_RunAll_Concurrent(t *testing.T) {
	f := newPipelineFixture()

	var inFlight, peak atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)
	slow := driven.CollatorFunc(func(context.Context) ([]domain.IndexableDocument, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		wg.Done()
		wg.Wait() // every type is collating at once
		inFlight.Add(-1)
		return docsWithText("x"), nil
	})
	for _, docType := range []string{"a", "b", "c"} {
		f.register(t, docType, slow)
	}

	failures := f.runner.RunAll(context.Background())
	assert.Empty(t, failures)
	assert.Equal(t, int32(3), peak.Load())
}

func TestRunner_PrunesHistory(t *testing.T) {
	f := newPipelineFixture(WithHistoryLimit(2))
	f.register(t, "docs", staticCollator("x"))

	for range 4 {
		_, err := f.runner.RunCycle(context.Background(), "docs")
		require.NoError(t, err)
	}

	history, err := f.store.GetHistory(context.Background(), "docs", 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestRunner_NilStore(t *testing.T) {
	collators := NewCollatorRegistry()
	committer := NewCommitter(nil)
	runner := NewRunner(collators, NewDecoratorChain(), committer, nil)
	require.NoError(t, collators.Register(driving.CollatorRegistration{
		Type: "docs", RefreshInterval: time.Minute, Collator: staticCollator("x"),
	}))

	result, err := runner.RunCycle(context.Background(), "docs")
	require.NoError(t, err)
	assert.True(t, result.Success)
}
