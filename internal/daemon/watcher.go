package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/williamdemeo/docpages/internal/logfields"
)

// Watcher monitors the documentation source tree and triggers a rebuild
// after changes settle. Events under the build output and publish
// workspace directories are ignored so a rebuild never retriggers itself.
type Watcher struct {
	sourceDir    string
	ignoreDirs   []string
	watcher      *fsnotify.Watcher
	rebuild      func(ctx context.Context) error
	debounceTime time.Duration
}

// NewWatcher creates a watcher over sourceDir. ignoreDirs are paths
// (relative to sourceDir) whose events are discarded.
func NewWatcher(sourceDir string, ignoreDirs []string, debounce time.Duration, rebuild func(ctx context.Context) error) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absSource, err := filepath.Abs(sourceDir)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to resolve source path: %w", err)
	}

	abs := make([]string, 0, len(ignoreDirs))
	for _, dir := range ignoreDirs {
		abs = append(abs, filepath.Join(absSource, dir))
	}

	return &Watcher{
		sourceDir:    absSource,
		ignoreDirs:   abs,
		watcher:      watcher,
		rebuild:      rebuild,
		debounceTime: debounce,
	}, nil
}

// Run watches until ctx is canceled. Changes are debounced: a rebuild
// fires only after debounceTime of quiet.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		_ = w.watcher.Close()
	}()

	if err := w.addRecursive(w.sourceDir); err != nil {
		return err
	}

	slog.Info("Watching for changes",
		logfields.Path(w.sourceDir),
		slog.Duration("debounce", w.debounceTime))

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.ignored(event.Name) {
				continue
			}

			// New directories must be added to the watch set.
			if event.Op&fsnotify.Create != 0 {
				if err := w.addRecursive(event.Name); err != nil {
					slog.Debug("Could not watch new path", logfields.Path(event.Name), logfields.Error(err))
				}
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				slog.Debug("Change detected", logfields.Path(event.Name))
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(w.debounceTime, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))

		case <-fire:
			slog.Info("Changes settled, rebuilding")
			if err := w.rebuild(ctx); err != nil {
				slog.Error("Rebuild failed", logfields.Error(err))
			}
		}
	}
}

// addRecursive watches dir and all subdirectories, skipping ignored and
// hidden directories.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(p) || (p != dir && strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(p string) bool {
	for _, dir := range w.ignoreDirs {
		if p == dir || strings.HasPrefix(p, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
