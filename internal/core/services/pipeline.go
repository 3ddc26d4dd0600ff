package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Ensure Runner implements the interface.
var _ driving.PipelineRunner = (*Runner)(nil)

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithConcurrency bounds how many types RunAll collates at once.
// Zero or negative means unbounded.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		r.concurrency = n
	}
}

// WithHistoryLimit sets how many cycle results are kept per type.
func WithHistoryLimit(n int) RunnerOption {
	return func(r *Runner) {
		r.historyLimit = n
	}
}

// Runner executes collate, decorate and commit for one type at a time.
// At most one cycle per type is in flight; different types run concurrently.
type Runner struct {
	collators  driving.CollatorRegistry
	decorators driving.DecoratorChain
	committer  driving.IndexCommitter
	store      driven.SchedulerStore

	concurrency  int
	historyLimit int

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewRunner creates a pipeline runner. store may be nil, in which case
// cycle results are not recorded.
func NewRunner(
	collators driving.CollatorRegistry,
	decorators driving.DecoratorChain,
	committer driving.IndexCommitter,
	store driven.SchedulerStore,
	opts ...RunnerOption,
) *Runner {
	r := &Runner{
		collators:    collators,
		decorators:   decorators,
		committer:    committer,
		store:        store,
		historyLimit: domain.DefaultSchedulerConfig().HistoryLimit,
		inFlight:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Running reports whether a cycle for docType is in flight.
func (r *Runner) Running(docType string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inFlight[docType]
	return ok
}

func (r *Runner) acquire(docType string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[docType]; busy {
		return false
	}
	r.inFlight[docType] = struct{}{}
	return true
}

func (r *Runner) release(docType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, docType)
}

// RunCycle runs one collate -> decorate -> commit cycle for docType.
func (r *Runner) RunCycle(ctx context.Context, docType string) (domain.CycleResult, error) {
	reg, err := r.collators.Get(docType)
	if err != nil {
		return domain.CycleResult{Type: docType}, err
	}

	if !r.acquire(docType) {
		return domain.CycleResult{Type: docType, Skipped: true}, fmt.Errorf("%s: %w", docType, domain.ErrCycleInProgress)
	}
	defer r.release(docType)

	result := domain.CycleResult{
		RunID:     uuid.New().String(),
		Type:      docType,
		StartedAt: time.Now(),
		Stage:     domain.StageCollate,
	}
	log := logger.With("type", docType, "run_id", result.RunID)
	log.Debug("cycle started")

	count, err := r.cycle(ctx, reg, &result)

	result.EndedAt = time.Now()
	if err != nil {
		result.Error = err.Error()
		log.Warn("cycle failed",
			"stage", string(result.Stage),
			"error", err,
			"duration", result.Duration())
	} else {
		result.Success = true
		result.Documents = count
		log.Info("cycle complete",
			"documents", count,
			"duration", result.Duration())
	}

	r.record(&result)
	return result, err
}

// cycle performs the three stages, updating result.Stage as it goes.
func (r *Runner) cycle(ctx context.Context, reg driving.CollatorRegistration, result *domain.CycleResult) (int, error) {
	docType := reg.Type

	docs, err := reg.Collator.Collate(ctx)
	if err == nil {
		err = validateAll(docs)
	}
	if err != nil {
		return 0, domain.NewCycleError(docType, domain.StageCollate, err)
	}

	result.Stage = domain.StageDecorate
	decorated, err := r.decorators.Apply(ctx, docType, docs)
	if err == nil {
		err = validateAll(decorated)
	}
	if err != nil {
		return 0, domain.NewCycleError(docType, domain.StageDecorate, err)
	}

	result.Stage = domain.StageCommit
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, fmt.Errorf("%s: %w: %w", docType, domain.ErrCycleAbandoned, ctxErr)
	}

	batch, err := r.committer.Commit(ctx, docType, result.RunID, decorated)
	if err != nil {
		return 0, domain.NewCycleError(docType, domain.StageCommit, err)
	}
	return batch.Len(), nil
}

// record stores the result in history. Store failures are logged only.
func (r *Runner) record(result *domain.CycleResult) {
	if r.store == nil {
		return
	}
	// Results are recorded even when the cycle context was cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.RecordResult(ctx, result); err != nil {
		logger.Warn("pipeline: failed to record result for %s: %v", result.Type, err)
		return
	}
	if r.historyLimit > 0 {
		if err := r.store.PruneHistory(ctx, r.historyLimit); err != nil {
			logger.Warn("pipeline: failed to prune history: %v", err)
		}
	}
}

// RunAll runs one cycle for every registered type concurrently. A failing
// type never stops the others; the returned map holds the failures.
func (r *Runner) RunAll(ctx context.Context) map[string]error {
	types := r.collators.ListTypes()

	var (
		mu       sync.Mutex
		failures = make(map[string]error)
	)

	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for _, docType := range types {
		g.Go(func() error {
			if _, err := r.RunCycle(gctx, docType); err != nil {
				mu.Lock()
				failures[docType] = err
				mu.Unlock()
			}
			// Never returned: one type must not cancel the others.
			return nil
		})
	}
	_ = g.Wait()

	return failures
}

// JoinFailures flattens a RunAll result into one error, ordered by type.
func JoinFailures(failures map[string]error) error {
	if len(failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failures))
	for _, docType := range slices.Sorted(maps.Keys(failures)) {
		errs = append(errs, failures[docType])
	}
	return errors.Join(errs...)
}

func validateAll(docs []domain.IndexableDocument) error {
	for i := range docs {
		if err := docs[i].Validate(); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}
	return nil
}
