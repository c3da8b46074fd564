package statuscache

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/thiagokokada/gitk-history/internal/debounce"
)

var watchDebounceDelay = 350 * time.Millisecond

// Watch resets the cache whenever the repository at root changes. Bursts
// of events are collapsed into a single reset. Watching stops when ctx is
// done or Close is called.
func (c *Cache) Watch(ctx context.Context, root string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher != nil {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	for path := range watchPaths(root) {
		slog.Debug("adding path to FS watcher", slog.String("path", path))
		if err := watcher.Add(path); err != nil {
			err := errors.Join(err, watcher.Close())
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
	d := debounce.Ensure(&c.debounce, watchDebounceDelay, func() {
		slog.Debug("working tree changed, resetting status")
		c.Reset()
	})
	c.watcher = watcher
	go c.watchLoop(ctx, watcher, d)
	return nil
}

// Close stops watching and drops any pending reset.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.debounce != nil {
		c.debounce.Stop()
	}
	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

func (c *Cache) watchLoop(ctx context.Context, w *fsnotify.Watcher, d *debounce.Debouncer) {
	for {
		select {
		case <-ctx.Done():
			if err := c.Close(); err != nil {
				slog.Error("watcher close", slog.Any("error", err))
			}
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if shouldIgnoreWatchPath(ev.Name) {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
				slog.Bool("coalesced", d.Pending()),
			)
			d.Trigger()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

// watchPaths lists the directories to watch: the worktree root for edits
// and the git directory for index and ref updates.
func watchPaths(root string) iter.Seq[string] {
	uniquePaths := map[string]struct{}{}
	if root == "" {
		return maps.Keys(uniquePaths)
	}
	uniquePaths[root] = struct{}{}
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
		uniquePaths[gitDir] = struct{}{}
	}
	return maps.Keys(uniquePaths)
}

func shouldIgnoreWatchPath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".ipc"
}
