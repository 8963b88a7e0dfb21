package fallback

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the table whenever its file changes on disk. Editors and
// config tooling usually replace files rather than write in place, so the
// parent directory is watched and events are filtered to the table file.
// Blocks until ctx is cancelled. A failed reload keeps the previous table
// and logs a warning.
func (t *Table) Watch(ctx context.Context) error {
	if t.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fallback table watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(t.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	target := filepath.Clean(t.path)
	t.logger.Info("watching fallback table for operator updates", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := t.Reload(); err != nil {
				t.logger.Warn("fallback table reload failed, keeping previous table",
					"path", target, "error", err)
				continue
			}
			t.logger.Info("fallback table reloaded", "path", target, "entries", t.Len())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			t.logger.Warn("fallback table watcher error", "error", err)
		}
	}
}
