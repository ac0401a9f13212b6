package acr

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/horizonprm/horizon/internal/logging"
)

// DefaultDebounce is how long a file must stay quiet before it is imported.
const DefaultDebounce = 500 * time.Millisecond

// Handler imports one export file.
type Handler func(ctx context.Context, path string) error

// Watcher imports HTML exports dropped into a folder.
type Watcher struct {
	dir      string
	debounce time.Duration
	handle   Handler
	log      *zap.Logger

	mu   sync.Mutex
	seen map[string]uint64 // path -> content hash of the last successful import
}

// NewWatcher creates a watcher on dir. debounce <= 0 uses DefaultDebounce.
func NewWatcher(dir string, debounce time.Duration, handle Handler, log *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		handle:   handle,
		log:      logging.OrNop(log).Named("acr.watch"),
		seen:     make(map[string]uint64),
	}
}

// Run watches until ctx is done. Files present before Run are ignored.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return err
	}
	w.log.Info("watching for exports", zap.String("dir", w.dir))

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	// path -> time of the last event
	pending := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !isExport(event.Name) || !event.Has(fsnotify.Create|fsnotify.Write) {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher error", zap.Error(err))

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.debounce {
					continue
				}
				delete(pending, path)
				w.process(ctx, path)
			}
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Warn("cannot read export", zap.String("path", path), zap.Error(err))
		return
	}
	sum := xxhash.Sum64(data)

	w.mu.Lock()
	prev, ok := w.seen[path]
	w.mu.Unlock()
	if ok && prev == sum {
		return
	}

	if err := w.handle(ctx, path); err != nil {
		w.log.Error("import failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.mu.Lock()
	w.seen[path] = sum
	w.mu.Unlock()
	w.log.Info("imported export", zap.String("path", path))
}

func isExport(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}
