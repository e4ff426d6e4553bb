package server

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// newWatcher builds an fsnotify watcher covering every directory under the
// given roots. Roots that do not exist are skipped (an assets-less site is
// fine) but at least one root must be watchable.
func newWatcher(roots []string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WatchFailed("", err)
	}

	watched := 0
	for _, root := range roots {
		info, statErr := os.Stat(root)
		if statErr != nil || !info.IsDir() {
			slog.Debug("watch root missing, skipping", logfields.Dir(root))
			continue
		}
		if addErr := addDirsRecursive(watcher, root); addErr != nil {
			_ = watcher.Close()
			return nil, errors.WatchFailed(root, addErr)
		}
		watched++
		slog.Debug("watching directory tree", logfields.Dir(root))
	}
	if watched == 0 {
		_ = watcher.Close()
		return nil, errors.New(errors.CategoryServer, errors.SeverityFatal,
			"no source directories exist to watch")
	}
	return watcher, nil
}

// addDirsRecursive registers root and every directory below it. fsnotify
// watches are not recursive on their own.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			if addErr := w.Add(path); addErr != nil {
				slog.Warn("watch add failed", logfields.Dir(path), logfields.Error(addErr))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent filters out changes that must not trigger rebuilds:
// hidden files, editor temp/swap files, and anything inside the output tree.
func shouldIgnoreEvent(path, outputDir string) bool {
	if outputDir != "" {
		if rel, err := filepath.Rel(outputDir, path); err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, ".#") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) {
		return true
	}
	if base == "Thumbs.db" {
		return true
	}
	return false
}

// relevantOp reports whether an event kind can change the built site.
func relevantOp(ev fsnotify.Event) bool {
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) ||
		ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
