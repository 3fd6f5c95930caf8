// Package watch re-runs document generation when the watched source
// trees change, with an optional periodic full rebuild schedule.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"github.com/mkrelease/mkrelease/internal/logfields"
)

// Trigger is invoked after a change burst settles or a schedule fires.
type Trigger func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	// QuietWindow coalesces bursts of filesystem events into a single
	// trigger. Defaults to 500ms.
	QuietWindow time.Duration
	// Interval, when positive, additionally fires the trigger on a
	// fixed schedule regardless of filesystem activity.
	Interval time.Duration
}

// Watcher observes source trees and fires a trigger on changes.
type Watcher struct {
	sources []string
	trigger Trigger
	opts    Options
}

// New creates a Watcher over the given source trees.
func New(sources []string, trigger Trigger, opts Options) *Watcher {
	if opts.QuietWindow <= 0 {
		opts.QuietWindow = 500 * time.Millisecond
	}
	return &Watcher{sources: sources, trigger: trigger, opts: opts}
}

// Run watches until the context is canceled. Trigger failures are logged
// and watching continues; the next change gets another chance.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	for _, src := range w.sources {
		if err := addTree(fsw, src); err != nil {
			return err
		}
	}

	var scheduler gocron.Scheduler
	if w.opts.Interval > 0 {
		scheduler, err = gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		_, err = scheduler.NewJob(
			gocron.DurationJob(w.opts.Interval),
			gocron.NewTask(func() { w.fire(ctx, "schedule") }),
			gocron.WithName("periodic-rebuild"),
		)
		if err != nil {
			return fmt.Errorf("create periodic job: %w", err)
		}
		scheduler.Start()
		defer func() { _ = scheduler.Shutdown() }()
	}

	slog.Info("Watching source trees", slog.Any("sources", w.sources))

	// Debounce timer: armed on the first event of a burst, reset on
	// every further event, fires after the quiet window.
	timer := time.NewTimer(w.opts.QuietWindow)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ignoreEvent(event) {
				continue
			}
			// New directories must be watched as they appear.
			if event.Op.Has(fsnotify.Create) {
				if err := addTree(fsw, event.Name); err != nil {
					slog.Debug("Could not watch new path", logfields.Path(event.Name), logfields.Error(err))
				}
			}
			slog.Debug("Source change detected", logfields.Path(event.Name))
			if armed {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
			timer.Reset(w.opts.QuietWindow)
			armed = true

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))

		case <-timer.C:
			armed = false
			w.fire(ctx, "change")
		}
	}
}

func (w *Watcher) fire(ctx context.Context, reason string) {
	slog.Info("Rebuilding documents", slog.String("reason", reason))
	if err := w.trigger(ctx); err != nil {
		slog.Error("Rebuild failed", logfields.Error(err))
	}
}

// ignoreEvent filters events that never change document inputs:
// pure chmods and anything inside dot-directories or on dotfiles.
func ignoreEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return true
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(event.Name)), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

// addTree registers a path and, for directories, every subdirectory.
// Missing paths are skipped.
func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
