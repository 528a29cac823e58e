package server

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	dmerrors "github.com/dompile/cli/internal/errors"
)

const (
	watchQuietWindow = 200 * time.Millisecond
	watchMaxDelay    = 2 * time.Second
)

// Watch observes root recursively and calls onChange with debounced
// batches of changed paths. It blocks until ctx is cancelled.
func Watch(ctx context.Context, root string, onChange func(changed []string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return dmerrors.WrapError(err, dmerrors.CategoryInternal, "create file watcher")
	}
	defer func() { _ = watcher.Close() }()

	if err := addDirsRecursive(watcher, root); err != nil {
		return err
	}

	deb := newDebouncer(watchQuietWindow, watchMaxDelay, onChange)
	defer deb.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ignoreEvent(ev.Name) {
				continue
			}
			// new directories must join the watch set before their
			// contents start changing
			if ev.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = addDirsRecursive(watcher, ev.Name)
				}
			}
			slog.Debug("file change", "path", ev.Name, "op", ev.Op.String())
			deb.Note(ev.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		// layouts and components live in dot-directories and must be
		// watched; other hidden directories are skipped
		if name := entry.Name(); strings.HasPrefix(name, ".") && path != root &&
			name != ".layouts" && name != ".components" {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("watch add failed", "dir", path, "error", err)
		}
		return nil
	})
}

// ignoreEvent filters editor temp files and lock files that should not
// trigger rebuilds.
func ignoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") && base != ".layouts" && base != ".components" {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db" || base == "4913" // vim atomic-save probe
}
