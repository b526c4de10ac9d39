package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func createTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DAYPLAN_CONFIG", "DAYPLAN_FILE", "DAYPLAN_INTERVAL", "DAYPLAN_DRAG", "DAYPLAN_THEME", "NO_COLOR"} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Timeline.IntervalMinutes != 30 {
		t.Errorf("IntervalMinutes = %d, want 30", cfg.Timeline.IntervalMinutes)
	}
	if !cfg.Timeline.EnableDragging {
		t.Error("dragging should be enabled by default")
	}
	if cfg.File == "" {
		t.Error("File should not be empty")
	}
	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("defaults should validate, got %v", errs)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get user home dir")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~", home},
		{"~/today.md", filepath.Join(home, "today.md")},
		{"/abs/path", "/abs/path"},
		{"rel/path", "rel/path"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ExpandHome(tt.input)
			if got != tt.expected {
				t.Errorf("ExpandHome(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	content := `
file = "/notes/today.md"
log_level = "debug"

[timeline]
interval_minutes = 15
enable_dragging = false
rows_per_tick = 3

[ui]
theme = "light"
label_width = 24

[watch]
debounce_ms = 400
`
	cfg, err := Load(createTempConfig(t, content))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.File != "/notes/today.md" {
		t.Errorf("File = %q", cfg.File)
	}
	if cfg.Timeline.IntervalMinutes != 15 || cfg.Timeline.EnableDragging || cfg.Timeline.RowsPerTick != 3 {
		t.Errorf("timeline = %+v", cfg.Timeline)
	}
	if cfg.UI.Theme != "light" || cfg.UI.LabelWidth != 24 {
		t.Errorf("ui = %+v", cfg.UI)
	}
	if cfg.Debounce() != 400*time.Millisecond {
		t.Errorf("Debounce() = %v", cfg.Debounce())
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v", cfg.Level())
	}
}

func TestLoadDefaultsForMissingFields(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(createTempConfig(t, "[ui]\ntheme = \"dark\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeline.IntervalMinutes != 30 || cfg.Timeline.NowRefreshSeconds != 30 {
		t.Errorf("missing fields should keep defaults: %+v", cfg.Timeline)
	}
	if !cfg.Watch.Enabled {
		t.Error("watch.enabled should default to true")
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	path := createTempConfig(t, `this is not valid TOML {{{`)
	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid TOML")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("/definitely/does/not/exist/config.toml")
	if err != nil {
		t.Errorf("missing config file should return defaults: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected non-nil config with defaults")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DAYPLAN_FILE", "/env/plan.md")
	t.Setenv("DAYPLAN_INTERVAL", "60")
	t.Setenv("DAYPLAN_DRAG", "false")
	t.Setenv("DAYPLAN_THEME", "Light")

	cfg, err := Load(createTempConfig(t, "[timeline]\ninterval_minutes = 15\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.File != "/env/plan.md" {
		t.Errorf("File = %q", cfg.File)
	}
	if cfg.Timeline.IntervalMinutes != 60 {
		t.Errorf("env should beat TOML: interval = %d", cfg.Timeline.IntervalMinutes)
	}
	if cfg.Timeline.EnableDragging {
		t.Error("DAYPLAN_DRAG=false should disable dragging")
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
}

func TestEnvOverrides_InvalidIntervalIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("DAYPLAN_INTERVAL", "7")
	cfg, err := Load("/does/not/exist.toml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeline.IntervalMinutes != 30 {
		t.Errorf("interval = %d, want default 30", cfg.Timeline.IntervalMinutes)
	}
}

func TestNoColorForcesMono(t *testing.T) {
	clearEnv(t)
	t.Setenv("DAYPLAN_THEME", "dark")
	t.Setenv("NO_COLOR", "1")
	cfg, err := Load("/does/not/exist.toml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UI.Theme != "mono" {
		t.Errorf("Theme = %q, want mono", cfg.UI.Theme)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"interval", func(c *Config) { c.Timeline.IntervalMinutes = 25 }, "timeline.interval_minutes"},
		{"rows", func(c *Config) { c.Timeline.RowsPerTick = 0 }, "timeline.rows_per_tick"},
		{"min height", func(c *Config) { c.Timeline.MinHeight = 0 }, "timeline.min_height"},
		{"refresh", func(c *Config) { c.Timeline.NowRefreshSeconds = 0 }, "timeline.now_refresh_seconds"},
		{"theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"label width", func(c *Config) { c.UI.LabelWidth = -1 }, "ui.label_width"},
		{"debounce", func(c *Config) { c.Watch.DebounceMs = -5 }, "watch.debounce_ms"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := Validate(cfg)
			if len(errs) != 1 {
				t.Fatalf("Validate returned %d errors: %v", len(errs), errs)
			}
			if !strings.HasPrefix(errs[0].Error(), tt.field+":") {
				t.Errorf("error %q should name %s", errs[0], tt.field)
			}
		})
	}

	if errs := Validate(nil); len(errs) != 1 {
		t.Errorf("Validate(nil) = %v", errs)
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := Default()
	cfg.Timeline.IntervalMinutes = 20
	cfg.Timeline.RowsPerTick = 3
	ec := cfg.Engine()
	if ec.IntervalMinutes != 20 || ec.RowsPerTick != 3 || !ec.EnableDragging {
		t.Errorf("Engine() = %+v", ec)
	}
	if ec.Step() != 20*time.Minute {
		t.Errorf("Step() = %v", ec.Step())
	}
}

func TestPrintRoundTrips(t *testing.T) {
	cfg := Default()
	cfg.Timeline.IntervalMinutes = 10
	cfg.UI.Theme = "mono"

	var buf bytes.Buffer
	if err := Print(cfg, &buf); err != nil {
		t.Fatalf("Print: %v", err)
	}

	var decoded Config
	if _, err := toml.Decode(buf.String(), &decoded); err != nil {
		t.Fatalf("printed config is not valid TOML: %v\n%s", err, buf.String())
	}
	if decoded != *cfg {
		t.Errorf("decoded = %+v\nwant    %+v", decoded, *cfg)
	}
}

func TestDefaultPath(t *testing.T) {
	clearEnv(t)
	path := DefaultPath()
	if !strings.Contains(path, "config.toml") || !strings.Contains(path, "dayplan") {
		t.Errorf("DefaultPath = %s", path)
	}
}

func TestDefaultPathWithXDG(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", "/custom/xdg")
	if path := DefaultPath(); path != "/custom/xdg/dayplan/config.toml" {
		t.Errorf("Expected /custom/xdg/dayplan/config.toml, got %s", path)
	}
}

func TestDefaultPathWithEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DAYPLAN_CONFIG", "/etc/dayplan.toml")
	if path := DefaultPath(); path != "/etc/dayplan.toml" {
		t.Errorf("DefaultPath = %s", path)
	}
}

func TestCreateDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := CreateDefault()
	if err != nil {
		t.Fatalf("CreateDefault: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load created file: %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("created config differs from defaults: %+v", cfg)
	}

	if _, err := CreateDefault(); err == nil {
		t.Error("second CreateDefault should fail because the file exists")
	}
}

func TestWatch_ReloadsValidChanges(t *testing.T) {
	clearEnv(t)
	path := createTempConfig(t, "[timeline]\ninterval_minutes = 30\n")

	changes := make(chan *Config, 4)
	stop, err := Watch(context.Background(), path, func(c *Config) { changes <- c }, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	// Invalid values are skipped.
	if err := os.WriteFile(path, []byte("[timeline]\ninterval_minutes = 7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-changes:
		t.Fatalf("invalid config delivered: %+v", c.Timeline)
	case <-time.After(reloadDebounce + 300*time.Millisecond):
	}

	if err := os.WriteFile(path, []byte("[timeline]\ninterval_minutes = 15\n"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-changes:
		if c.Timeline.IntervalMinutes != 15 {
			t.Errorf("interval = %d, want 15", c.Timeline.IntervalMinutes)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nope", "config.toml")
	if _, err := Watch(context.Background(), path, nil, nil); err == nil {
		t.Error("expected an error for a missing directory")
	}
}
