package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// storeTimeout bounds scheduler store writes.
const storeTimeout = 5 * time.Second

// abandonGrace bounds the wait for cancelled cycles once the shutdown
// timeout expired. Cycles still running after it are left behind; they
// cannot publish because the runner checks the cancelled context before
// committing.
var abandonGrace = time.Second

// typeLoop is the timer loop of one document type.
type typeLoop struct {
	docType string
	reset   chan time.Duration

	mu      sync.Mutex
	busy    bool
	pending bool
}

// Scheduler runs a cycle for every registered type on the type's own
// refresh interval. Each type moves Idle -> Running -> Idle independently.
type Scheduler struct {
	config   domain.SchedulerConfig
	registry driving.CollatorRegistry
	runner   driving.PipelineRunner
	store    driven.SchedulerStore

	mu          sync.Mutex
	running     bool
	observing   bool
	stopCh      chan struct{}
	quit        chan struct{}
	done        chan struct{}
	loops       map[string]*typeLoop
	schedules   map[string]*domain.TypeSchedule
	cycleCtx    context.Context
	cycleCancel context.CancelFunc

	loopWG  sync.WaitGroup
	cycleWG *sync.WaitGroup // per Start, so abandoned cycles never span runs
}

// NewScheduler creates a scheduler with configuration. store may be nil.
func NewScheduler(
	config domain.SchedulerConfig,
	registry driving.CollatorRegistry,
	runner driving.PipelineRunner,
	store driven.SchedulerStore,
) *Scheduler {
	if !config.Overlap.Valid() {
		config.Overlap = domain.OverlapSkip
	}
	return &Scheduler{
		config:    config,
		registry:  registry,
		runner:    runner,
		store:     store,
		loops:     make(map[string]*typeLoop),
		schedules: make(map[string]*domain.TypeSchedule),
	}
}

// Start begins the timer loops. This method blocks until ctx is cancelled or
// Stop is called, then drains in-flight cycles.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	s.cycleWG = &sync.WaitGroup{}
	// Cycles outlive ctx until the shutdown timeout expires.
	s.cycleCtx, s.cycleCancel = context.WithCancel(context.WithoutCancel(ctx))
	stopCh, done := s.stopCh, s.done

	if !s.observing {
		s.observing = true
		s.registry.OnRegister(s.onRegister)
	}
	for _, docType := range s.registry.ListTypes() {
		reg, err := s.registry.Get(docType)
		if err != nil {
			continue
		}
		s.startLoop(ctx, reg)
	}
	s.mu.Unlock()

	defer close(done)
	logger.Info("scheduler: started with %d types", len(s.registry.ListTypes()))

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-stopCh:
	}

	s.shutdown()
	return err
}

// Stop gracefully shuts down the scheduler and waits for Start to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	done := s.done
	s.mu.Unlock()

	<-done
	return nil
}

// shutdown stops every timer, then waits for in-flight cycles up to the
// shutdown timeout before cancelling them.
func (s *Scheduler) shutdown() {
	s.mu.Lock()
	s.running = false
	close(s.quit)
	s.loops = make(map[string]*typeLoop)
	cycles, cancel := s.cycleWG, s.cycleCancel
	s.mu.Unlock()

	s.loopWG.Wait()

	finished := make(chan struct{})
	go func() {
		cycles.Wait()
		close(finished)
	}()

	if s.config.ShutdownTimeout > 0 {
		select {
		case <-finished:
		case <-time.After(s.config.ShutdownTimeout):
			logger.Warn("scheduler: shutdown timeout after %s, abandoning in-flight cycles: %s",
				s.config.ShutdownTimeout, strings.Join(s.runningTypes(), ", "))
			cancel()
			select {
			case <-finished:
			case <-time.After(abandonGrace):
				logger.Warn("scheduler: cycles still running after cancellation, not waiting: %s",
					strings.Join(s.runningTypes(), ", "))
			}
		}
	} else {
		<-finished
	}
	cancel()
	logger.Info("scheduler: stopped")
}

// runningTypes returns the types whose cycle is in flight, sorted.
func (s *Scheduler) runningTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var types []string
	for docType, sched := range s.schedules {
		if sched.State == domain.StateRunning {
			types = append(types, docType)
		}
	}
	slices.Sort(types)
	return types
}

// onRegister starts a loop for a new type or retimes an existing one.
func (s *Scheduler) onRegister(reg driving.CollatorRegistration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sched, ok := s.schedules[reg.Type]; ok {
		sched.Interval = reg.RefreshInterval
	}
	if !s.running {
		return
	}

	l, ok := s.loops[reg.Type]
	if !ok {
		s.startLoop(context.Background(), reg)
		return
	}
	// Keep only the latest interval.
	select {
	case <-l.reset:
	default:
	}
	l.reset <- reg.RefreshInterval
}

// startLoop launches the timer loop of reg.Type (caller must hold lock).
func (s *Scheduler) startLoop(ctx context.Context, reg driving.CollatorRegistration) {
	sched := s.restore(ctx, reg)
	s.schedules[reg.Type] = sched

	l := &typeLoop{
		docType: reg.Type,
		reset:   make(chan time.Duration, 1),
	}
	s.loops[reg.Type] = l

	s.loopWG.Add(1)
	go s.loop(l, reg.RefreshInterval, s.quit, s.cycleWG)
}

// restore seeds a schedule from the store so status survives restarts.
func (s *Scheduler) restore(ctx context.Context, reg driving.CollatorRegistration) *domain.TypeSchedule {
	sched := &domain.TypeSchedule{
		Type:     reg.Type,
		Interval: reg.RefreshInterval,
		State:    domain.StateIdle,
	}
	if prev, ok := s.schedules[reg.Type]; ok {
		*sched = *prev
		sched.Interval = reg.RefreshInterval
		return sched
	}
	if s.store == nil {
		return sched
	}

	stored, err := s.store.GetSchedule(ctx, reg.Type)
	if err != nil {
		logger.Warn("scheduler: failed to load schedule for %s: %v", reg.Type, err)
		return sched
	}
	if stored != nil {
		sched.LastRun = stored.LastRun
		sched.LastSuccess = stored.LastSuccess
		sched.LastError = stored.LastError
		sched.Documents = stored.Documents
	}
	return sched
}

// loop is the per-type timer goroutine.
func (s *Scheduler) loop(l *typeLoop, interval time.Duration, quit <-chan struct{}, cycles *sync.WaitGroup) {
	defer s.loopWG.Done()

	if s.config.RunOnStart {
		s.fire(l, cycles)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.setNextRun(l.docType, time.Now().Add(interval))

	for {
		select {
		case <-quit:
			return
		case d := <-l.reset:
			if d != interval {
				interval = d
				ticker.Reset(interval)
				s.setNextRun(l.docType, time.Now().Add(interval))
				logger.Info("scheduler: %s retimed to %s", l.docType, interval)
			}
		case <-ticker.C:
			s.fire(l, cycles)
			s.setNextRun(l.docType, time.Now().Add(interval))
		}
	}
}

// fire starts a cycle unless one is already running, in which case the
// overlap policy decides.
func (s *Scheduler) fire(l *typeLoop, cycles *sync.WaitGroup) {
	l.mu.Lock()
	if l.busy {
		if s.config.Overlap == domain.OverlapQueue {
			l.pending = true
			l.mu.Unlock()
			logger.Debug("scheduler: %s busy, queued follow-up run", l.docType)
			return
		}
		l.mu.Unlock()
		s.recordSkip(l.docType)
		return
	}
	l.busy = true
	l.mu.Unlock()

	cycles.Add(1)
	go s.runLoopCycle(l, cycles)
}

// runLoopCycle runs cycles until no follow-up is pending.
func (s *Scheduler) runLoopCycle(l *typeLoop, cycles *sync.WaitGroup) {
	defer cycles.Done()

	for {
		ctx, cancel := s.cycleContext()
		_, err := s.execute(ctx, l.docType)
		cancel()
		if errors.Is(err, domain.ErrCycleInProgress) {
			s.recordSkip(l.docType)
		}

		l.mu.Lock()
		if l.pending && !s.stopping() {
			l.pending = false
			l.mu.Unlock()
			continue
		}
		l.pending = false
		l.busy = false
		l.mu.Unlock()
		return
	}
}

func (s *Scheduler) cycleContext() (context.Context, context.CancelFunc) {
	s.mu.Lock()
	parent := s.cycleCtx
	s.mu.Unlock()
	return s.withCycleTimeout(parent)
}

func (s *Scheduler) withCycleTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if s.config.CycleTimeout > 0 {
		return context.WithTimeout(parent, s.config.CycleTimeout)
	}
	return context.WithCancel(parent)
}

func (s *Scheduler) stopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.running
}

// Trigger runs a cycle for docType now using ctx. While the scheduler is
// running the cycle is also bound to the scheduler's shutdown: Stop drains
// it like a timed cycle and abandons it after the shutdown timeout.
func (s *Scheduler) Trigger(ctx context.Context, docType string) (domain.CycleResult, error) {
	if _, err := s.registry.Get(docType); err != nil {
		return domain.CycleResult{Type: docType}, err
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return s.execute(ctx, docType)
	}
	cycles, parent := s.cycleWG, s.cycleCtx
	cycles.Add(1)
	s.mu.Unlock()
	defer cycles.Done()

	ctx, cancel := s.withCycleTimeout(ctx)
	defer cancel()
	stop := context.AfterFunc(parent, cancel)
	defer stop()
	return s.execute(ctx, docType)
}

// execute runs one cycle through the runner and updates the schedule.
func (s *Scheduler) execute(ctx context.Context, docType string) (domain.CycleResult, error) {
	if s.runner.Running(docType) {
		return domain.CycleResult{Type: docType, Skipped: true}, domain.ErrCycleInProgress
	}

	s.markRunning(docType)
	result, err := s.runner.RunCycle(ctx, docType)
	if errors.Is(err, domain.ErrCycleInProgress) {
		return result, err
	}
	s.finish(docType, result, err)
	return result, err
}

func (s *Scheduler) markRunning(docType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched := s.scheduleLocked(docType)
	sched.State = domain.StateRunning
	sched.LastRun = time.Now()
}

func (s *Scheduler) setNextRun(docType string, next time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleLocked(docType).NextRun = next
}

// scheduleLocked returns the schedule of docType, creating it if needed
// (caller must hold lock).
func (s *Scheduler) scheduleLocked(docType string) *domain.TypeSchedule {
	sched, ok := s.schedules[docType]
	if !ok {
		sched = &domain.TypeSchedule{Type: docType, State: domain.StateIdle}
		if reg, err := s.registry.Get(docType); err == nil {
			sched.Interval = reg.RefreshInterval
		}
		s.schedules[docType] = sched
	}
	return sched
}

// finish returns the type to Idle and persists its schedule.
func (s *Scheduler) finish(docType string, result domain.CycleResult, err error) {
	s.mu.Lock()
	sched := s.scheduleLocked(docType)
	sched.State = domain.StateIdle
	if !result.StartedAt.IsZero() {
		sched.LastRun = result.StartedAt
	}
	if err != nil {
		sched.LastError = err.Error()
	} else {
		sched.LastError = ""
		sched.LastSuccess = result.EndedAt
		sched.Documents = result.Documents
	}
	snapshot := *sched
	s.mu.Unlock()

	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if saveErr := s.store.SaveSchedule(ctx, &snapshot); saveErr != nil {
		logger.Warn("scheduler: failed to save schedule for %s: %v", docType, saveErr)
	}
}

// recordSkip logs and records a dropped tick.
func (s *Scheduler) recordSkip(docType string) {
	logger.Info("scheduler: %s still running, tick skipped", docType)
	if s.store == nil {
		return
	}

	now := time.Now()
	result := &domain.CycleResult{
		RunID:     uuid.New().String(),
		Type:      docType,
		StartedAt: now,
		EndedAt:   now,
		Skipped:   true,
		Error:     domain.ErrCycleInProgress.Error(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.store.RecordResult(ctx, result); err != nil {
		logger.Warn("scheduler: failed to record skipped tick for %s: %v", docType, err)
	}
}

// Status returns the schedule of every registered type, sorted by type.
func (s *Scheduler) Status() []domain.TypeSchedule {
	types := s.registry.ListTypes()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.TypeSchedule, 0, len(types))
	for _, docType := range types {
		if sched, ok := s.schedules[docType]; ok {
			out = append(out, *sched)
			continue
		}
		sched := domain.TypeSchedule{Type: docType, State: domain.StateIdle}
		if reg, err := s.registry.Get(docType); err == nil {
			sched.Interval = reg.RefreshInterval
		}
		out = append(out, sched)
	}
	return out
}
