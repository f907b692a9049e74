// Package filewatcher provides file system monitoring adapters.
package filewatcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
)

var _ ports.FileWatcher = (*FSNotifyWatcher)(nil)

// FSNotifyWatcher implements ports.FileWatcher using fsnotify.
// The whole tree below the watched directory is observed; directories created
// later are added as they appear.
type FSNotifyWatcher struct {
	watcher    *fsnotify.Watcher
	extensions map[string]struct{}
	logger     *zap.Logger

	// dirs is only touched by Watch before its loop starts and by the loop.
	dirs map[string]struct{}
}

// NewFSNotifyWatcher creates a new file watcher for the given extensions
// (matched case-insensitively).
func NewFSNotifyWatcher(extensions []string, logger *zap.Logger) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = []string{".txt", ".md", ".log"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = struct{}{}
	}

	return &FSNotifyWatcher{
		watcher:    w,
		extensions: exts,
		logger:     logger,
		dirs:       make(map[string]struct{}),
	}, nil
}

// Watch starts monitoring the directory tree and emits events.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.addTree(dir); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}

				if !w.relevant(event) {
					continue
				}

				var op ports.FileOperation
				switch {
				case event.Op.Has(fsnotify.Create):
					op = ports.FileCreated
				case event.Op.Has(fsnotify.Write):
					op = ports.FileModified
				case event.Op.Has(fsnotify.Remove):
					op = ports.FileDeleted
				case event.Op.Has(fsnotify.Rename):
					op = ports.FileRenamed
				default:
					continue
				}

				select {
				case events <- ports.FileEvent{Path: event.Name, Operation: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("file watcher error", zap.Error(err))
			}
		}
	}()

	return events, nil
}

// relevant reports whether event should be emitted. New directories are
// watched and reported, since they may arrive with documents inside. A
// watched directory that is removed or renamed away is reported so its
// documents get purged.
func (w *FSNotifyWatcher) relevant(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("cannot watch new directory", zap.String("dir", event.Name), zap.Error(err))
			}
			return true
		}
	}
	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		if w.forgetTree(event.Name) {
			return true
		}
	}
	return w.isWatchedExtension(event.Name)
}

// forgetTree drops dir and everything below it from the watched set.
// It reports whether dir was a watched directory.
func (w *FSNotifyWatcher) forgetTree(dir string) bool {
	dir = filepath.Clean(dir)
	if _, ok := w.dirs[dir]; !ok {
		return false
	}
	prefix := dir + string(filepath.Separator)
	for d := range w.dirs {
		if d == dir || strings.HasPrefix(d, prefix) {
			delete(w.dirs, d)
			_ = w.watcher.Remove(d) // already gone when the directory was deleted
		}
	}
	return true
}

// addTree watches dir and every directory below it.
func (w *FSNotifyWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return filepath.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return err
		}
		w.dirs[filepath.Clean(path)] = struct{}{}
		return nil
	})
}

// Stop stops the watcher.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

// isWatchedExtension checks if the file has a watched extension.
func (w *FSNotifyWatcher) isWatchedExtension(path string) bool {
	_, ok := w.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
