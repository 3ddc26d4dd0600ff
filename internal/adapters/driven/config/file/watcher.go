package file

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a ConfigStore when its file changes and invokes a callback
// after every successful reload.
type Watcher struct {
	store    *ConfigStore
	onReload func()
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// NewWatcher creates a watcher for store. The parent directory is watched
// rather than the file so atomic rename-on-save is seen.
func NewWatcher(store *ConfigStore, onReload func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(store.Path())); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(store.Path()), err)
	}
	return &Watcher{
		store:    store,
		onReload: onReload,
		debounce: DefaultDebounce,
		fsw:      fsw,
	}, nil
}

// SetDebounce changes the debounce window. Must be called before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run processes file events until ctx is cancelled. It closes the watcher
// on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	target := filepath.Clean(w.store.Path())
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher: %v", err)
		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	if err := w.store.Load(); err != nil {
		// Keep the previous configuration; the next save retries.
		logger.Warn("config watcher: reload %s failed: %v", w.store.Path(), err)
		return
	}
	logger.Info("config reloaded from %s", w.store.Path())
	if w.onReload != nil {
		w.onReload()
	}
}
