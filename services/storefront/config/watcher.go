// Copyright (C) 2025 Tidewater Commerce (dev@tidewatercommerce.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/tidewater-commerce/tidewater/pkg/logging"
)

// Watcher reloads the config file on change and invokes the callback
// with the freshly parsed Config. Only the callback decides which
// fields actually take effect at runtime; listener address and store
// selection always need a restart.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onReload func(*Config)
	logger   *logging.Logger
}

// NewWatcher creates a watcher for the given config file.
func NewWatcher(path string, onReload func(*Config), logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{path: path, watcher: fsw, onReload: onReload, logger: logger}, nil
}

// Start blocks until the context is cancelled. Run it in a goroutine.
//
// The parent directory is watched rather than the file itself:
// editors and configmap mounts replace the file via rename, which
// drops a watch on the file but not on the directory.
func (w *Watcher) Start(ctx context.Context) {
	defer w.watcher.Close()

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("config watch failed, hot reload disabled", "dir", dir, "error", err)
		return
	}
	w.logger.Info("watching config for changes", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Warn("config reload failed, keeping previous", "error", err)
				continue
			}
			w.logger.Info("config reloaded", "path", w.path)
			w.onReload(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}
