// Package watch monitors the site source tree and triggers incremental
// rebuilds of the pages affected by each change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/unify/internal/metrics"
)

// Rebuilder receives batches of changed site-relative paths. A nil
// paths slice requests a full rebuild.
type Rebuilder interface {
	Rebuild(ctx context.Context, paths []string) error
}

// RebuildFunc adapts a function to the Rebuilder interface.
type RebuildFunc func(ctx context.Context, paths []string) error

func (f RebuildFunc) Rebuild(ctx context.Context, paths []string) error { return f(ctx, paths) }

// Watcher debounces filesystem events into rebuild batches.
type Watcher struct {
	Root     string
	Debounce time.Duration
	// FullRebuildEvery schedules periodic full rebuilds as a safety net
	// for missed events. Zero disables the schedule.
	FullRebuildEvery time.Duration
	Rebuilder        Rebuilder
	Recorder         metrics.Recorder
	Logger           *slog.Logger

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer

	watcher   *fsnotify.Watcher
	scheduler gocron.Scheduler
}

// New creates a watcher over the site root.
func New(root string, rebuilder Rebuilder) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("resolve site root: %w", err)
	}
	return &Watcher{
		Root:      abs,
		Debounce:  200 * time.Millisecond,
		Rebuilder: rebuilder,
		Recorder:  metrics.NoopRecorder{},
		Logger:    slog.Default(),
		pending:   map[string]bool{},
		watcher:   fsw,
	}, nil
}

// Start registers the directory tree and runs the event loop until the
// context is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.Root); err != nil {
		return err
	}

	if w.FullRebuildEvery > 0 {
		s, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		_, err = s.NewJob(
			gocron.DurationJob(w.FullRebuildEvery),
			gocron.NewTask(func() {
				w.Logger.Info("scheduled full rebuild")
				if err := w.Rebuilder.Rebuild(ctx, nil); err != nil {
					w.Logger.Error("scheduled rebuild failed", slog.Any("error", err))
				}
			}),
			gocron.WithName("full-rebuild"),
		)
		if err != nil {
			return fmt.Errorf("schedule full rebuild: %w", err)
		}
		w.scheduler = s
		s.Start()
	}

	w.Logger.Info("watching for changes", slog.String("root", w.Root))
	defer w.close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Error("watch error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) close() {
	if w.scheduler != nil {
		_ = w.scheduler.Shutdown()
	}
	_ = w.watcher.Close()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if p != dir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			return fs.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// New directories need watches of their own.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.Logger.Warn("watch new directory", slog.Any("error", err))
			}
			return
		}
	}

	rel, err := filepath.Rel(w.Root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	w.mu.Lock()
	w.pending[rel] = true
	w.Recorder.SetWatchQueueDepth(len(w.pending))
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.Debounce, func() { w.flush(ctx) })
	w.mu.Unlock()
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = map[string]bool{}
	w.Recorder.SetWatchQueueDepth(0)
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	w.Logger.Info("rebuilding", slog.Int("changed", len(paths)))
	if err := w.Rebuilder.Rebuild(ctx, paths); err != nil {
		w.Logger.Error("rebuild failed", slog.Any("error", err))
	}
}
