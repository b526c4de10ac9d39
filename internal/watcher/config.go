package watcher

import (
	"log/slog"
	"time"
)

// ConfigValues holds the values needed to configure a FileWatcher.
// This struct avoids import cycles by using primitive types instead of config.WatchConfig.
type ConfigValues struct {
	Enabled    bool
	DebounceMs int
}

// NewFromConfig creates a FileWatcher for path configured from cfg.
// It returns nil when watching is disabled.
func NewFromConfig(cfg ConfigValues, path string, onChange ChangeFunc, logger *slog.Logger) *FileWatcher {
	if !cfg.Enabled {
		return nil
	}

	opts := []Option{WithLogger(logger)}
	if cfg.DebounceMs >= 0 {
		opts = append(opts, WithDebounce(time.Duration(cfg.DebounceMs)*time.Millisecond))
	}
	return New(path, onChange, opts...)
}
