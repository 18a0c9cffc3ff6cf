// Package watcher reports changes to article files in a directory.
//
// The watcher only notifies. It never touches the cache; readers pick up
// changes on their next pull because the cache checks every file's mtime.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Change kinds passed to Callback.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// Callback is called once per observed change. name is the file name
// relative to the watched directory.
type Callback func(kind, name string)

// Watch starts an fsnotify watcher on dir and reports changes to files
// ending in suffix until ctx is cancelled. Subdirectories and dot files are
// ignored, matching what the cache enumerates.
//
// Atomic replacements show up as a create on the final name, so names seen
// before are reported as updated rather than created.
func Watch(ctx context.Context, dir, suffix string, logger *slog.Logger, cb Callback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: new: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watcher: add %s: %w", dir, err)
	}

	known, err := listKnown(dir, suffix)
	if err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", dir), slog.Int("files", len(known)))

	emit := func(kind, name string) {
		logger.Debug("watcher: change", slog.String("file", name), slog.String("op", kind))
		if cb != nil {
			cb(kind, name)
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !relevant(name, suffix) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if info, statErr := os.Stat(ev.Name); statErr != nil || info.IsDir() {
					continue
				}
				kind := Updated
				if _, seen := known[name]; !seen {
					kind = Created
					known[name] = struct{}{}
				}
				emit(kind, name)

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// fsnotify reports Rename on the old name only; the new name
				// arrives as its own Create.
				if _, seen := known[name]; !seen {
					continue
				}
				delete(known, name)
				emit(Deleted, name)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func relevant(name, suffix string) bool {
	return !strings.HasPrefix(name, ".") && strings.HasSuffix(name, suffix)
}

func listKnown(dir, suffix string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("watcher: list %s: %w", dir, err)
	}
	known := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !e.IsDir() && relevant(e.Name(), suffix) {
			known[e.Name()] = struct{}{}
		}
	}
	return known, nil
}
