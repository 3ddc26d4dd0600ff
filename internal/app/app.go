// Package app assembles the indexer from its configuration: stores, search
// engine, registries, pipeline runner, scheduler and query service.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/config/file"
	bleveindex "github.com/custodia-labs/sercha-indexer/internal/adapters/driven/index/bleve"
	memindex "github.com/custodia-labs/sercha-indexer/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-indexer/internal/collators"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/core/services"
	"github.com/custodia-labs/sercha-indexer/internal/decorators"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Options controls how New builds the application.
type Options struct {
	// ConfigDir holds indexer.toml. Empty uses ~/.sercha-indexer.
	ConfigDir string

	// DataDir holds the SQLite database. Empty uses storage.data_dir, then
	// <ConfigDir>/data.
	DataDir string

	// Config replaces the file-backed configuration.
	Config driven.ConfigStore

	// Collators and Decorators replace the built-in builder registries.
	Collators  *collators.Registry
	Decorators *decorators.Registry
}

// App holds the wired components.
type App struct {
	Config     driven.ConfigStore
	Collators  *services.CollatorRegistry
	Decorators *services.DecoratorChain
	Registrar  *services.Registrar
	Committer  *services.Committer
	Runner     *services.Runner
	Scheduler  *services.Scheduler
	Search     *services.SearchService
	Schedules  driven.SchedulerStore

	SchedulerConfig domain.SchedulerConfig

	engine driven.SearchEngine
	store  *sqlite.Store
	file   *file.ConfigStore
}

// New builds the application and restores the last published batches.
func New(ctx context.Context, opts Options) (*App, error) {
	a := &App{Config: opts.Config}
	if a.Config == nil {
		fc, err := file.NewConfigStore(opts.ConfigDir)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		a.Config, a.file = fc, fc
	}
	logger.Setup(LoggerConfigFrom(a.Config))

	if err := a.openStores(opts); err != nil {
		return nil, err
	}

	engine, err := newEngine(a.Config.GetString(KeyEngineKind))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.engine = engine

	a.SchedulerConfig = SchedulerConfigFrom(a.Config)
	a.Collators = services.NewCollatorRegistry()
	a.Decorators = services.NewDecoratorChain()
	a.Registrar = services.NewRegistrar(a.Config, a.Collators, a.Decorators)

	a.Committer = services.NewCommitter(engine)
	if batches := a.batchStore(); batches != nil {
		a.Committer.SetBatchStore(batches)
		n, err := a.Committer.Restore(ctx)
		if err != nil {
			logger.Warn("restoring published batches: %v", err)
		} else if n > 0 {
			logger.Info("restored %d published batches", n)
		}
	}

	a.Runner = services.NewRunner(a.Collators, a.Decorators, a.Committer, a.Schedules,
		services.WithConcurrency(a.Config.GetInt(KeyConcurrency)),
		services.WithHistoryLimit(a.SchedulerConfig.HistoryLimit),
	)
	a.Scheduler = services.NewScheduler(a.SchedulerConfig, a.Collators, a.Runner, a.Schedules)

	cacheSize := services.DefaultCacheSize
	if _, ok := a.Config.Get(KeyCacheSize); ok {
		cacheSize = a.Config.GetInt(KeyCacheSize)
	}
	a.Search = services.NewSearchService(a.Committer, engine, cacheSize)

	collatorBuilders := opts.Collators
	if collatorBuilders == nil {
		collatorBuilders = collators.NewRegistry()
		collators.RegisterDefaults(collatorBuilders)
	}
	decoratorBuilders := opts.Decorators
	if decoratorBuilders == nil {
		decoratorBuilders = decorators.NewRegistry()
		decorators.RegisterDefaults(decoratorBuilders)
	}
	if err := RegisterDecorators(a.Config, a.Registrar, decoratorBuilders); err != nil {
		_ = a.Close()
		return nil, err
	}
	if err := RegisterSources(a.Config, a.Registrar, collatorBuilders); err != nil {
		_ = a.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) openStores(opts Options) error {
	switch kind := a.Config.GetString(KeyStorageKind); kind {
	case StorageMemory:
		a.Schedules = memory.NewSchedulerStore()
		return nil
	case "", StorageSQLite:
	default:
		return fmt.Errorf("%w: storage kind %q", domain.ErrUnsupportedType, kind)
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = a.Config.GetString(KeyDataDir)
	}
	if dataDir == "" && opts.ConfigDir != "" {
		dataDir = filepath.Join(opts.ConfigDir, "data")
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	a.store = store
	a.Schedules = store.SchedulerStore()
	return nil
}

func (a *App) batchStore() driven.BatchStore {
	if a.store == nil {
		return nil
	}
	return a.store.BatchStore()
}

func newEngine(kind string) (driven.SearchEngine, error) {
	switch kind {
	case "", EngineBleve:
		return bleveindex.New()
	case EngineMemory:
		return memindex.New(), nil
	default:
		return nil, fmt.Errorf("%w: engine kind %q", domain.ErrUnsupportedType, kind)
	}
}

// Reload re-applies settings that can change while running: log settings
// and refresh interval overrides.
func (a *App) Reload() {
	logger.Setup(LoggerConfigFrom(a.Config))
	if err := a.Registrar.ApplyOverrides(); err != nil {
		logger.Warn("applying refresh interval overrides: %v", err)
	}
}

// WatchConfig reloads the configuration file on change until ctx is done.
// It returns immediately when the configuration is not file-backed.
func (a *App) WatchConfig(ctx context.Context) error {
	if a.file == nil {
		return nil
	}
	w, err := file.NewWatcher(a.file, a.Reload)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// Close releases the engine and the store.
func (a *App) Close() error {
	var errs []error
	if a.engine != nil {
		errs = append(errs, a.engine.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
