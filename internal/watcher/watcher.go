// Package watcher reports batches of changed TypeScript sources under a
// directory tree, debounced so an editor's save burst arrives as one batch.
package watcher

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
)

// FileFilter reports whether a path should be passed to the handler.
type FileFilter func(path string) bool

// ChangeHandler receives the deduplicated, sorted paths of one batch.
type ChangeHandler func(paths []string)

// FileWatcher watches directories recursively.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	delay   time.Duration
	filters []FileFilter
	logger  *slog.Logger
}

// NewFileWatcher creates a watcher that waits delay after the last event
// before flushing a batch.
func NewFileWatcher(delay time.Duration, logger *slog.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWatcher{watcher: w, delay: delay, logger: logger}, nil
}

// AddFilter adds a filter; a path must pass all of them.
func (fw *FileWatcher) AddFilter(f FileFilter) {
	fw.filters = append(fw.filters, f)
}

// AddRecursive watches root and every directory below it.
func (fw *FileWatcher) AddRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Run delivers batches to handler until ctx is done. Handler calls happen
// on the Run goroutine, one at a time.
func (fw *FileWatcher) Run(ctx context.Context, handler ChangeHandler) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(fw.delay)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if fw.track(event) {
				pending[event.Name] = struct{}{}
				timer.Reset(fw.delay)
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn("file watcher error", "error", err)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			handler(paths)
		}
	}
}

// track reports whether event names a file worth recompiling. New
// directories are added to the watch set as a side effect.
func (fw *FileWatcher) track(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) && !skipDir(info.Name()) {
			if err := fw.AddRecursive(event.Name); err != nil {
				fw.logger.Warn("watching new directory", "path", event.Name, "error", err)
			}
		}
		return false
	}
	for _, f := range fw.filters {
		if !f(event.Name) {
			return false
		}
	}
	return true
}

// Close stops watching.
func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}

func skipDir(name string) bool {
	return name == "node_modules" || strings.HasPrefix(name, ".")
}

// TypeScriptFilter accepts .ts and .tsx sources, excluding declaration files.
func TypeScriptFilter(path string) bool {
	if strings.HasSuffix(path, ".d.ts") {
		return false
	}
	ext := filepath.Ext(path)
	return ext == ".ts" || ext == ".tsx"
}
