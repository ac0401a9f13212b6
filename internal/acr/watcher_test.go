package acr

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ImportsNewExports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.html"), []byte("<ul></ul>"), 0o644))

	var mu sync.Mutex
	var handled []string
	w := NewWatcher(dir, 50*time.Millisecond, func(ctx context.Context, path string) error {
		mu.Lock()
		handled = append(handled, filepath.Base(path))
		mu.Unlock()
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "export.html"), []byte(sampleExport), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(handled) == 1
	}, 5*time.Second, 10*time.Millisecond)

	// Rewriting identical content is not imported again.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "export.html"), []byte(sampleExport), 0o644))
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"export.html"}, handled)
}

func TestIsExport(t *testing.T) {
	assert.True(t, isExport("/tmp/ACR Phone.HTML"))
	assert.True(t, isExport("a.htm"))
	assert.False(t, isExport("a.json"))
}
