package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"

	"github.com/vcrobe/nojs-diagrams/console"
)

// Watch calls fn with the reloaded configuration each time the file at
// path is written or replaced, until ctx ends. Invalid edits are logged
// and skipped. The parent directory is watched so editors that save by
// rename are seen.
func Watch(ctx context.Context, path string, fn func(Config)) error {
	full, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("expand %s: %w", path, err)
	}
	full = filepath.Clean(full)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(full)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(full), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != full || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(full)
				if err != nil {
					console.Warn("config reload failed:", err.Error())
					continue
				}
				fn(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				console.Error("config watcher error:", err.Error())
			}
		}
	}()
	return nil
}
