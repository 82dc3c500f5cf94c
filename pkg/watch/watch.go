// Package watch reruns a compile whenever the source tree changes.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses bursts of file events into one rebuild.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc runs one full compile.
type BuildFunc func(ctx context.Context) error

// Watcher monitors a source directory and triggers debounced rebuilds.
type Watcher struct {
	srcDir   string
	build    BuildFunc
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu       sync.Mutex
	builds   int
	lastErr  error
	rebuildC chan struct{}
}

// New creates a watcher for srcDir. Call Run to start watching.
func New(srcDir string, build BuildFunc, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		srcDir:   srcDir,
		build:    build,
		logger:   logger,
		watcher:  fw,
		debounce: debounce,
		rebuildC: make(chan struct{}, 1),
	}
	if err := w.addTree(srcDir); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Run blocks until ctx is done, rebuilding after every settled burst of
// changes. Build errors are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	w.logger.Info("Watching for changes", zap.String("srcDir", w.srcDir))

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Source change detected", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("Failed to watch new directory", zap.String("dir", event.Name), zap.Error(err))
					}
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.rebuild(ctx)

		case <-w.rebuildC:
			w.rebuild(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

// Trigger requests a rebuild without waiting for a file event.
func (w *Watcher) Trigger() {
	select {
	case w.rebuildC <- struct{}{}:
	default:
	}
}

// Builds returns how many rebuilds ran and the error of the last one.
func (w *Watcher) Builds() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.builds, w.lastErr
}

func (w *Watcher) rebuild(ctx context.Context) {
	start := time.Now()
	err := w.build(ctx)

	w.mu.Lock()
	w.builds++
	w.lastErr = err
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("Rebuild failed", zap.Error(err))
		return
	}
	w.logger.Info("Rebuild finished", zap.Duration("elapsed", time.Since(start)))
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	rel, err := filepath.Rel(w.srcDir, event.Name)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "node_modules" || strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return false
		}
	}
	return true
}

// addTree watches dir and every directory below it; fsnotify is not recursive.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); path != dir && (name == "node_modules" || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
