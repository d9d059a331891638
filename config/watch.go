package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay lets a burst of write events for one save settle before re-reading.
const reloadDelay = 50 * time.Millisecond

// Watch reloads path whenever it is written or replaced and passes each valid
// configuration to fn. Invalid edits are logged and skipped; the previous
// configuration stays in effect. The parent directory is watched so editors that
// save by renaming a temporary file are seen. Blocks until ctx is done.
//
// Parameters:
//   - ctx: stops the watch
//   - path: the config file
//   - logger: receives reload failures
//   - fn: called on the watch goroutine with every successfully reloaded config
//
// Returns:
//   - error: error if the watcher could not be started, nil once ctx is done
func Watch(ctx context.Context, path string, logger *slog.Logger, fn func(*Config)) error {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	reload := time.NewTimer(reloadDelay)
	reload.Stop()
	defer reload.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-reload.C:
			cfg, err := Load(abs)
			if err != nil {
				logger.Warn("config reload failed", "path", abs, "error", err)
				continue
			}
			logger.Info("config reloaded", "path", abs)
			fn(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			reload.Reset(reloadDelay)
		}
	}
}
