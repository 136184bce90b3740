// Package watch re-runs a module when source files under the runtime roots
// change, dropping the stale modules from the runtime cache first.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"experimental/internal/modrt"
)

// DefaultDebounce batches the burst of events an editor produces on save.
const DefaultDebounce = 100 * time.Millisecond

type Config struct {
	Debounce time.Duration
	// SkipHidden skips directories whose name starts with a dot.
	SkipHidden bool
}

// Watcher invalidates changed modules in a runtime.
type Watcher struct {
	rt     *modrt.Runtime
	w      *fsnotify.Watcher
	log    *slog.Logger
	config Config
}

func New(rt *modrt.Runtime, config Config, logger *slog.Logger) (*Watcher, error) {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{rt: rt, w: w, log: logger, config: config}, nil
}

// Add watches dir and every directory below it.
func (w *Watcher) Add(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.config.SkipHidden && path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Close releases the fsnotify watcher.
func (w *Watcher) Close() error { return w.w.Close() }

// Run blocks until ctx is done. After each quiet period following source
// changes it invalidates the changed files and calls onChange with them,
// sorted.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, changed []string)) error {
	timer := time.NewTimer(w.config.Debounce)
	timer.Stop()
	pending := map[string]struct{}{}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.w.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.Add(ev.Name); err != nil {
						w.log.Warn("watch new directory", "path", ev.Name, "error", err)
					}
					continue
				}
			}
			if !isSource(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			w.log.Debug("file event", "path", ev.Name, "op", ev.Op.String())
			pending[ev.Name] = struct{}{}
			timer.Reset(w.config.Debounce)

		case err, ok := <-w.w.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.log.Error("file watcher error", "error", err)

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			slices.Sort(changed)
			w.Invalidate(changed)
			onChange(ctx, changed)
		}
	}
}

// Invalidate drops the modules loaded from paths. Once any of them was
// loaded, every file-backed module goes too: importers hold the old module
// objects in their globals. It reports whether anything was dropped.
func (w *Watcher) Invalidate(paths []string) bool {
	stale := false
	for _, p := range paths {
		path := filepath.ToSlash(filepath.Clean(p))
		if w.rt.InvalidatePath(path) {
			w.log.Info("module invalidated", "path", path)
			stale = true
		}
	}
	if stale {
		w.rt.InvalidateAll()
	}
	return stale
}

func isSource(path string) bool {
	return slices.Contains(modrt.Suffixes, filepath.Ext(path))
}
