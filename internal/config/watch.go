package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dayplan/dayplan/internal/watcher"
)

// reloadDebounce is longer than the task file's: editors often write a config
// in several steps.
const reloadDebounce = 500 * time.Millisecond

// Watch reloads the config file at path whenever it changes and passes each
// valid result to onChange. Files that fail to parse or validate are logged
// and skipped. It returns a function that stops watching.
func Watch(ctx context.Context, path string, onChange func(*Config), logger *slog.Logger) (func(), error) {
	if path == "" {
		path = DefaultPath()
	}
	absPath, err := filepath.Abs(ExpandHome(path))
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := watcher.New(absPath, func(string) {
		cfg, err := Load(absPath)
		if err != nil {
			logger.Warn("reloading config", "path", absPath, "error", err)
			return
		}
		if errs := Validate(cfg); len(errs) > 0 {
			logger.Warn("ignoring invalid config", "path", absPath, "error", errors.Join(errs...))
			return
		}
		logger.Info("config reloaded", "path", absPath)
		if onChange != nil {
			onChange(cfg)
		}
	}, watcher.WithDebounce(reloadDebounce), watcher.WithLogger(logger))

	if err := w.Start(ctx); err != nil {
		return nil, fmt.Errorf("watching config: %w", err)
	}
	return w.Stop, nil
}
