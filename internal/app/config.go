package app

import (
	"time"

	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// Configuration keys.
const (
	KeyRunOnStart      = "scheduler.run_on_start"
	KeyOverlap         = "scheduler.overlap"
	KeyShutdownTimeout = "scheduler.shutdown_timeout_seconds"
	KeyCycleTimeout    = "scheduler.cycle_timeout_seconds"
	KeyConcurrency     = "scheduler.concurrency"
	KeyHistoryLimit    = "scheduler.history_limit"

	KeyEngineKind = "engine.kind"
	KeyCacheSize  = "engine.cache_size"

	KeyStorageKind = "storage.kind"
	KeyDataDir     = "storage.data_dir"

	KeyLogLevel  = "log.level"
	KeyLogFormat = "log.format"

	// SourcesPrefix holds one table per source.
	SourcesPrefix = "sources"

	// DecoratorsPrefix holds one table per decorator.
	DecoratorsPrefix = "decorators"
)

// Engine and storage kinds.
const (
	EngineBleve  = "bleve"
	EngineMemory = "memory"

	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// DefaultRefreshIntervalSeconds applies to sources without refresh_interval_seconds.
const DefaultRefreshIntervalSeconds = 3600

// SchedulerConfigFrom reads scheduler settings, falling back to
// domain.DefaultSchedulerConfig for absent keys.
func SchedulerConfigFrom(cfg driven.ConfigStore) domain.SchedulerConfig {
	sc := domain.DefaultSchedulerConfig()
	if cfg == nil {
		return sc
	}

	if _, ok := cfg.Get(KeyRunOnStart); ok {
		sc.RunOnStart = cfg.GetBool(KeyRunOnStart)
	}
	if v := cfg.GetString(KeyOverlap); v != "" {
		if p := domain.OverlapPolicy(v); p.Valid() {
			sc.Overlap = p
		} else {
			logger.Warn("config: unknown %s %q, using %s", KeyOverlap, v, sc.Overlap)
		}
	}
	if _, ok := cfg.Get(KeyShutdownTimeout); ok {
		sc.ShutdownTimeout = time.Duration(cfg.GetInt(KeyShutdownTimeout)) * time.Second
	}
	if v := cfg.GetInt(KeyCycleTimeout); v > 0 {
		sc.CycleTimeout = time.Duration(v) * time.Second
	}
	if v := cfg.GetInt(KeyHistoryLimit); v > 0 {
		sc.HistoryLimit = v
	}
	return sc
}

// LoggerConfigFrom reads logging settings.
func LoggerConfigFrom(cfg driven.ConfigStore) logger.Config {
	if cfg == nil {
		return logger.Config{}
	}
	return logger.Config{
		Level:  cfg.GetString(KeyLogLevel),
		Format: cfg.GetString(KeyLogFormat),
	}
}
