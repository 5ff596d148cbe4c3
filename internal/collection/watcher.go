package collection

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the collection when the CSV export changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	updates  chan OwnedSet
}

// NewWatcher creates a watcher for the collection file at path.
func NewWatcher(path string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     path,
		debounce: 500 * time.Millisecond,
		logger:   logger,
		updates:  make(chan OwnedSet, 1),
	}
}

// Updates delivers a fresh OwnedSet after each observed change.
func (w *Watcher) Updates() <-chan OwnedSet {
	return w.updates
}

// Start watches the collection file until ctx is cancelled. Collection
// exports are typically replaced wholesale by a rename over the old file,
// which would orphan a watch attached to the file's inode, so the parent
// directory is watched instead and events are filtered by name. Writes are
// debounced before reloading.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch collection directory: %w", err)
	}
	base := filepath.Base(w.path)

	var pending *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event := <-watcher.Events:
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.NewTimer(w.debounce)
			fire = pending.C

		case <-fire:
			fire = nil
			owned, err := LoadFile(w.path)
			if err != nil {
				w.logger.Warn("failed to reload collection", "error", err)
				continue
			}
			w.logger.Info("collection reloaded", "owned", owned.Len())

			// Drop a stale pending update rather than block
			select {
			case w.updates <- owned:
			default:
				select {
				case <-w.updates:
				default:
				}
				w.updates <- owned
			}

		case err := <-watcher.Errors:
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}
