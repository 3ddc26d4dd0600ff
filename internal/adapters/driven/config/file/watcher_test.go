package file

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "[engine]\nkind = \"bleve\"\n")
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	var reloads atomic.Int32
	w, err := NewWatcher(store, func() { reloads.Add(1) })
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(path, []byte("[engine]\nkind = \"memory\"\n"), 0600))

	assert.Eventually(t, func() bool {
		return store.GetString("engine.kind") == "memory" && reloads.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "")
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	var reloads atomic.Int32
	w, err := NewWatcher(store, func() { reloads.Add(1) })
	require.NoError(t, err)
	w.SetDebounce(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.NoError(t, os.WriteFile(dir+"/other.txt", []byte("x"), 0600))
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, reloads.Load())
}
