package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/dayplan/dayplan/internal/engine"
	"github.com/dayplan/dayplan/internal/util"
)

// Config is the dayplan configuration file.
type Config struct {
	File     string         `toml:"file"`      // default task file
	LogLevel string         `toml:"log_level"` // debug, info, warn, error
	Timeline TimelineConfig `toml:"timeline"`
	UI       UIConfig       `toml:"ui"`
	Watch    WatchConfig    `toml:"watch"`
}

// TimelineConfig controls the layout engine.
type TimelineConfig struct {
	IntervalMinutes   int  `toml:"interval_minutes"`
	EnableDragging    bool `toml:"enable_dragging"`
	RowsPerTick       int  `toml:"rows_per_tick"`
	MinHeight         int  `toml:"min_height"`
	NowRefreshSeconds int  `toml:"now_refresh_seconds"`
}

// UIConfig controls the interactive view.
type UIConfig struct {
	Theme         string `toml:"theme"` // auto, dark, light, mono
	ShowCompleted bool   `toml:"show_completed"`
	LabelWidth    int    `toml:"label_width"` // 0 sizes labels to fit
}

// WatchConfig controls reloading when the task file changes on disk.
type WatchConfig struct {
	Enabled    bool `toml:"enabled"`
	DebounceMs int  `toml:"debounce_ms"`
}

// Themes lists the accepted ui.theme values.
var Themes = []string{"auto", "dark", "light", "mono"}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		File:     "~/today.md",
		LogLevel: "warn",
		Timeline: TimelineConfig{
			IntervalMinutes:   engine.DefaultInterval,
			EnableDragging:    true,
			RowsPerTick:       2,
			MinHeight:         1,
			NowRefreshSeconds: 30,
		},
		UI: UIConfig{
			Theme:         "auto",
			ShowCompleted: true,
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMs: 150,
		},
	}
}

// DefaultPath returns the default config file path
func DefaultPath() string {
	if env := os.Getenv("DAYPLAN_CONFIG"); env != "" {
		return ExpandHome(env)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dayplan", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return filepath.Join(home, ".config", "dayplan", "config.toml")
}

// Load reads the config at path. A missing file yields the defaults.
// Precedence is env > TOML > defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if file := os.Getenv("DAYPLAN_FILE"); file != "" {
		cfg.File = file
	}
	if interval := os.Getenv("DAYPLAN_INTERVAL"); interval != "" {
		if n, err := strconv.Atoi(interval); err == nil && engine.ValidInterval(n) {
			cfg.Timeline.IntervalMinutes = n
		}
	}
	if drag := os.Getenv("DAYPLAN_DRAG"); drag != "" {
		cfg.Timeline.EnableDragging = drag == "1" || drag == "true"
	}
	if theme := os.Getenv("DAYPLAN_THEME"); theme != "" {
		cfg.UI.Theme = strings.ToLower(strings.TrimSpace(theme))
	}
	// https://no-color.org: any non-empty value disables color.
	if os.Getenv("NO_COLOR") != "" {
		cfg.UI.Theme = "mono"
	}
}

// Validate checks the configuration for errors and returns all issues found
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{fmt.Errorf("config is nil")}
	}

	var errs []error

	if !engine.ValidInterval(cfg.Timeline.IntervalMinutes) {
		errs = append(errs, fmt.Errorf("timeline.interval_minutes: must be one of %v, got %d",
			engine.Intervals, cfg.Timeline.IntervalMinutes))
	}
	if cfg.Timeline.RowsPerTick < 1 || cfg.Timeline.RowsPerTick > 10 {
		errs = append(errs, fmt.Errorf("timeline.rows_per_tick: must be between 1 and 10, got %d", cfg.Timeline.RowsPerTick))
	}
	if cfg.Timeline.MinHeight < 1 {
		errs = append(errs, fmt.Errorf("timeline.min_height: must be at least 1, got %d", cfg.Timeline.MinHeight))
	}
	if cfg.Timeline.NowRefreshSeconds < 1 {
		errs = append(errs, fmt.Errorf("timeline.now_refresh_seconds: must be at least 1, got %d", cfg.Timeline.NowRefreshSeconds))
	}

	if !validTheme(cfg.UI.Theme) {
		errs = append(errs, fmt.Errorf("ui.theme: must be one of %s, got %q", strings.Join(Themes, ", "), cfg.UI.Theme))
	}
	if cfg.UI.LabelWidth < 0 {
		errs = append(errs, fmt.Errorf("ui.label_width: must not be negative, got %d", cfg.UI.LabelWidth))
	}

	if cfg.Watch.DebounceMs < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce_ms: must not be negative, got %d", cfg.Watch.DebounceMs))
	}

	if cfg.LogLevel != "" {
		if _, ok := parseLevel(cfg.LogLevel); !ok {
			errs = append(errs, fmt.Errorf("log_level: must be debug, info, warn or error, got %q", cfg.LogLevel))
		}
	}

	return errs
}

func validTheme(name string) bool {
	for _, t := range Themes {
		if t == name {
			return true
		}
	}
	return false
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Level returns the configured log level, defaulting to warn.
func (c *Config) Level() slog.Level {
	if lvl, ok := parseLevel(c.LogLevel); ok {
		return lvl
	}
	return slog.LevelWarn
}

// Engine returns the layout engine settings.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		IntervalMinutes: c.Timeline.IntervalMinutes,
		EnableDragging:  c.Timeline.EnableDragging,
		RowsPerTick:     float64(c.Timeline.RowsPerTick),
		MinHeight:       float64(c.Timeline.MinHeight),
	}
}

// NowRefresh returns the now-marker polling interval.
func (c *Config) NowRefresh() time.Duration {
	if c.Timeline.NowRefreshSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeline.NowRefreshSeconds) * time.Second
}

// Debounce returns the file watcher debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// TaskFile returns the configured task file with ~ expanded.
func (c *Config) TaskFile() string {
	return ExpandHome(c.File)
}

// CreateDefault creates a default config file
func CreateDefault() (string, error) {
	path := DefaultPath()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}

	var buffer strings.Builder
	if err := Print(Default(), &buffer); err != nil {
		return "", err
	}

	if err := util.AtomicWriteFile(path, []byte(buffer.String()), 0644); err != nil {
		return "", err
	}

	return path, nil
}

// Print writes cfg as a commented TOML file.
func Print(cfg *Config, w io.Writer) error {
	fmt.Fprintln(w, "# dayplan configuration")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "# Task file opened when no file argument is given")
	fmt.Fprintf(w, "file = %q\n", cfg.File)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "# Log level (debug, info, warn, error)")
	fmt.Fprintf(w, "log_level = %q\n", cfg.LogLevel)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[timeline]")
	fmt.Fprintf(w, "# Tick interval in minutes: %s\n", joinInts(engine.Intervals))
	fmt.Fprintf(w, "interval_minutes = %d\n", cfg.Timeline.IntervalMinutes)
	fmt.Fprintln(w, "# Allow moving tasks with J/K and the move command")
	fmt.Fprintf(w, "enable_dragging = %t\n", cfg.Timeline.EnableDragging)
	fmt.Fprintln(w, "# Terminal rows per tick")
	fmt.Fprintf(w, "rows_per_tick = %d\n", cfg.Timeline.RowsPerTick)
	fmt.Fprintln(w, "# Smallest task box height in rows")
	fmt.Fprintf(w, "min_height = %d\n", cfg.Timeline.MinHeight)
	fmt.Fprintln(w, "# How often the now marker moves, in seconds")
	fmt.Fprintf(w, "now_refresh_seconds = %d\n", cfg.Timeline.NowRefreshSeconds)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[ui]")
	fmt.Fprintf(w, "# Color theme (%s); NO_COLOR forces mono\n", strings.Join(Themes, ", "))
	fmt.Fprintf(w, "theme = %q\n", cfg.UI.Theme)
	fmt.Fprintf(w, "show_completed = %t\n", cfg.UI.ShowCompleted)
	fmt.Fprintln(w, "# Fixed label column width (0 = fit)")
	fmt.Fprintf(w, "label_width = %d\n", cfg.UI.LabelWidth)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[watch]")
	fmt.Fprintln(w, "# Reload when the task file changes on disk")
	fmt.Fprintf(w, "enabled = %t\n", cfg.Watch.Enabled)
	fmt.Fprintf(w, "debounce_ms = %d\n", cfg.Watch.DebounceMs)

	return nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

// ExpandHome expands the tilde (~) in a path to the user's home directory.
// Supports "~" and "~/path" formats.
func ExpandHome(path string) string {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			return home
		}
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}

	return path
}
