package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dayplan/dayplan/internal/drag"
	"github.com/dayplan/dayplan/internal/engine"
	"github.com/dayplan/dayplan/internal/tasks"
)

var fixedNow = time.Date(2026, 3, 14, 9, 10, 0, 0, time.Local)

const plan = `# Saturday

- [ ] Standup @09:00+30min
- [ ] Sync @09:15+30min
- [ ] Review @09:50+15min
- [ ] Read a chapter
- [x] Water plants due:08:00
`

// resetFlags resets global flags to default values between tests
func resetFlags() {
	cfgFile = ""
	cfg = nil
	jsonOutput = false
	noColor = false
	verbose = false
	viewInterval = 0
	viewNoWatch = false
	layoutFormat = ""
	layoutAt = ""
	layoutInterval = 0
	parseFormat = ""
	parseAt = ""
	moveLine = 0
	moveTo = ""
	moveBy = 0
	moveInterval = 0
	moveDryRun = false
	toggleLine = 0
	toggleDryRun = false
}

// setupCLI isolates the command from the user's config and environment.
func setupCLI(t *testing.T) string {
	t.Helper()
	resetFlags()

	dir := t.TempDir()
	t.Setenv("DAYPLAN_CONFIG", filepath.Join(dir, "config.toml"))
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, key := range []string{"DAYPLAN_FILE", "DAYPLAN_INTERVAL", "DAYPLAN_DRAG", "DAYPLAN_THEME"} {
		t.Setenv(key, "")
	}
	t.Setenv("NO_COLOR", "1")

	oldNow, oldInteractive := nowFunc, isInteractive
	nowFunc = func() time.Time { return fixedNow }
	t.Cleanup(func() {
		nowFunc, isInteractive = oldNow, oldInteractive
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	return dir
}

// run executes the root command and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestExecuteHelp(t *testing.T) {
	setupCLI(t)
	out, _, err := run(t, "--help")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	for _, want := range []string{"dayplan", "layout", "move", "@14:30+2h"} {
		if !strings.Contains(out, want) {
			t.Errorf("help missing %q", want)
		}
	}
}

func TestVersionCmdExecutes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default version", []string{"version"}, "dayplan version " + Version},
		{"short version", []string{"version", "--short"}, Version + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupCLI(t)
			out, _, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("Execute() failed: %v", err)
			}
			if !strings.HasPrefix(out, tt.want) {
				t.Errorf("output = %q, want prefix %q", out, tt.want)
			}
		})
	}
}

func TestVersionJSON(t *testing.T) {
	setupCLI(t)
	out, _, err := run(t, "--json", "version")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\nOutput: %s", err, out)
	}
	if parsed["version"] != Version {
		t.Errorf("version = %v, want %s", parsed["version"], Version)
	}
	if _, ok := parsed["generated_at"]; !ok {
		t.Error("expected generated_at in output")
	}
}

func TestConfigPathCmd(t *testing.T) {
	dir := setupCLI(t)

	out, _, err := run(t, "config", "path")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if got, want := strings.TrimSpace(out), filepath.Join(dir, "config.toml"); got != want {
		t.Errorf("path = %q, want %q", got, want)
	}

	resetFlags()
	custom := filepath.Join(dir, "other.toml")
	out, _, err = run(t, "--config", custom, "config", "path")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if strings.TrimSpace(out) != custom {
		t.Errorf("--config path = %q, want %q", strings.TrimSpace(out), custom)
	}
}

func TestConfigShow(t *testing.T) {
	dir := setupCLI(t)
	writeFile(t, dir, "config.toml", "[timeline]\ninterval_minutes = 15\n")

	out, _, err := run(t, "config", "show")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !strings.Contains(out, "interval_minutes = 15") {
		t.Errorf("text output missing interval:\n%s", out)
	}

	resetFlags()
	out, _, err = run(t, "--json", "config", "show")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\nOutput: %s", err, out)
	}
	timeline, ok := parsed["timeline"].(map[string]any)
	if !ok {
		t.Fatalf("expected timeline object, got %T", parsed["timeline"])
	}
	if timeline["interval_minutes"] != float64(15) {
		t.Errorf("interval_minutes = %v, want 15", timeline["interval_minutes"])
	}
	// NO_COLOR is set by setupCLI.
	if ui := parsed["ui"].(map[string]any); ui["theme"] != "mono" {
		t.Errorf("theme = %v, want mono", ui["theme"])
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantErr  bool
		contains []string
	}{
		{"missing file uses defaults", "", false, []string{"ok"}},
		{"valid", "[timeline]\ninterval_minutes = 10\n", false, []string{"ok"}},
		{
			"bad values",
			"[timeline]\ninterval_minutes = 7\n[ui]\ntheme = \"neon\"\n",
			true,
			[]string{"2 problems", "interval_minutes", "ui.theme"},
		},
		{"bad toml", "[timeline\n", true, []string{"parsing config"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupCLI(t)
			// NO_COLOR would mask the theme check.
			t.Setenv("NO_COLOR", "")
			if tt.content != "" {
				writeFile(t, dir, "config.toml", tt.content)
			}
			out, _, err := run(t, "config", "validate")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v\n%s", err, tt.wantErr, out)
			}
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestConfigInit(t *testing.T) {
	dir := setupCLI(t)

	out, _, err := run(t, "config", "init")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	path := filepath.Join(dir, "config.toml")
	if !strings.Contains(out, "Created config file: "+path) {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(readFile(t, path), "[timeline]") {
		t.Error("config file should contain the timeline section")
	}

	resetFlags()
	if _, _, err := run(t, "config", "init"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("second init err = %v, want already exists", err)
	}
}

func TestLayoutJSON(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "today.md", plan)

	out, _, err := run(t, "--json", "layout", path, "--at", "09:20")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var resp struct {
		File            string `json:"file"`
		IntervalMinutes int    `json:"interval_minutes"`
		Now             struct {
			At      string `json:"at"`
			InRange bool   `json:"in_range"`
		} `json:"now"`
		Tasks []struct {
			Label     string `json:"label"`
			Line      int    `json:"line"`
			Start     string `json:"start"`
			Column    int    `json:"column"`
			GroupSize int    `json:"group_size"`
		} `json:"tasks"`
		Untimed []struct {
			Label string `json:"label"`
		} `json:"untimed"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\nOutput: %s", err, out)
	}

	if resp.File != path || resp.IntervalMinutes != 30 {
		t.Errorf("file/interval = %q/%d", resp.File, resp.IntervalMinutes)
	}
	if resp.Now.At != "09:20" || !resp.Now.InRange {
		t.Errorf("now = %+v, want 09:20 in range", resp.Now)
	}

	got := map[string][2]int{}
	for _, task := range resp.Tasks {
		got[task.Label] = [2]int{task.Column, task.GroupSize}
	}
	want := map[string][2]int{
		"Standup": {0, 2},
		"Sync":    {1, 2},
		"Review":  {0, 1},
	}
	for label, cols := range want {
		if got[label] != cols {
			t.Errorf("%s column/group = %v, want %v", label, got[label], cols)
		}
	}
	if len(resp.Untimed) != 1 || resp.Untimed[0].Label != "Read a chapter" {
		t.Errorf("untimed = %+v", resp.Untimed)
	}
}

func TestLayoutFormats(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "today.md", plan)

	out, _, err := run(t, "layout", path, "--at", "09:20")
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	for _, want := range []string{"every 30min", "Standup", "1/2", "2/2", "Untimed (1 task)"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}

	resetFlags()
	out, _, err = run(t, "layout", path, "--format", "yaml", "--interval", "15")
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("Failed to parse YAML output: %v\nOutput: %s", err, out)
	}
	if parsed["interval_minutes"] != 15 {
		t.Errorf("interval_minutes = %v, want 15", parsed["interval_minutes"])
	}
}

func TestLayoutErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad format", []string{"--format", "xml"}, "unknown format"},
		{"bad interval", []string{"--interval", "7"}, "unsupported interval"},
		{"bad at", []string{"--at", "25:99"}, "invalid time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupCLI(t)
			path := writeFile(t, dir, "today.md", plan)
			_, _, err := run(t, append([]string{"layout", path}, tt.args...)...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		dir := setupCLI(t)
		_, _, err := run(t, "layout", filepath.Join(dir, "nope.md"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("err = %v, want not exist", err)
		}
	})
}

func TestLayoutUsesConfiguredFile(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "today.md", "- [ ] Lunch @12:00\n")
	t.Setenv("DAYPLAN_FILE", path)

	out, _, err := run(t, "--json", "layout")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !strings.Contains(out, `"label": "Lunch"`) {
		t.Errorf("output missing configured task:\n%s", out)
	}
}

func TestLayoutEmptyFile(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "today.md", "")

	out, _, err := run(t, "layout", path)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !strings.Contains(out, "No tasks.") {
		t.Errorf("output = %q", out)
	}
}

func TestParseCmd(t *testing.T) {
	setupCLI(t)
	out, _, err := run(t, "--json", "parse", "@14:30+2h", "@22:00-01:00", "@banana", "@in 30 minutes", "due:17:00")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var resp struct {
		Now    string `json:"now"`
		Tokens []struct {
			Token           string `json:"token"`
			Valid           bool   `json:"valid"`
			Kind            string `json:"kind"`
			Start           string `json:"start"`
			End             string `json:"end"`
			Due             string `json:"due"`
			DurationMinutes int    `json:"duration_minutes"`
			NextDay         bool   `json:"ends_next_day"`
			Canonical       string `json:"canonical"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\nOutput: %s", err, out)
	}
	if resp.Now != "09:10" || len(resp.Tokens) != 5 {
		t.Fatalf("resp = %+v", resp)
	}

	b := resp.Tokens[0]
	if !b.Valid || b.Kind != "duration" || b.Start != "14:30" || b.End != "16:30" || b.DurationMinutes != 120 {
		t.Errorf("@14:30+2h = %+v", b)
	}
	c := resp.Tokens[1]
	if !c.Valid || c.Kind != "range" || c.DurationMinutes != 180 || !c.NextDay {
		t.Errorf("@22:00-01:00 = %+v", c)
	}
	if resp.Tokens[2].Valid {
		t.Errorf("@banana should be invalid: %+v", resp.Tokens[2])
	}
	if rel := resp.Tokens[3]; rel.Kind != "relative" || rel.Start != "09:40" || rel.Canonical != "@09:40" {
		t.Errorf("@in 30 minutes = %+v", rel)
	}
	if due := resp.Tokens[4]; due.Kind != "due" || due.Due != "17:00" || due.Start != "" {
		t.Errorf("due:17:00 = %+v", due)
	}
}

func TestParseCmdText(t *testing.T) {
	setupCLI(t)
	out, _, err := run(t, "parse", "25:99", "@9am", "--at", "08:00")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !strings.Contains(out, "invalid") || !strings.Contains(out, "@09:00") {
		t.Errorf("output:\n%s", out)
	}

	resetFlags()
	if _, _, err := run(t, "parse"); err == nil {
		t.Error("parse without tokens should fail")
	}
}

func TestMoveCmd(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "today.md", plan)

	out, _, err := run(t, "move", path, "--line", "4", "--to", "10:40")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	// 10:40 snaps to the 30 minute grid.
	if !strings.Contains(out, "Moved Sync to 10:30 (line 4)") {
		t.Errorf("output = %q", out)
	}
	if got := readFile(t, path); !strings.Contains(got, "- [ ] Sync @10:30+30min\n") {
		t.Errorf("file not rewritten:\n%s", got)
	}

	resetFlags()
	out, _, err = run(t, "--json", "move", path, "--line", "4", "--by=-1", "--interval", "15")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	var resp map[string]any
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\nOutput: %s", err, out)
	}
	if resp["at"] != "10:15" || resp["changed"] != true {
		t.Errorf("resp = %v", resp)
	}
	if got := readFile(t, path); !strings.Contains(got, "Sync @10:15+30min") {
		t.Errorf("file not rewritten:\n%s", got)
	}
}

func TestMoveDueOnly(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "today.md", plan)

	if _, _, err := run(t, "move", path, "--line", "7", "--to", "11:00"); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if got := readFile(t, path); !strings.Contains(got, "- [x] Water plants due:11:00\n") {
		t.Errorf("due token not rewritten:\n%s", got)
	}
}

func TestMoveDryRun(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "today.md", plan)

	out, _, err := run(t, "move", path, "--line", "3", "--to", "13:00", "--dry-run")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !strings.Contains(out, "+ - [ ] Standup @13:00+30min") || !strings.Contains(out, "dry run") {
		t.Errorf("output = %q", out)
	}
	if readFile(t, path) != plan {
		t.Error("dry run should not write the file")
	}
}

func TestMoveErrors(t *testing.T) {
	tests := []struct {
		name   string
		config string
		args   []string
		check  func(error) bool
	}{
		{"neither to nor by", "", []string{"--line", "3"}, func(err error) bool {
			return err != nil && strings.Contains(err.Error(), "exactly one")
		}},
		{"both to and by", "", []string{"--line", "3", "--to", "10:00", "--by", "1"}, func(err error) bool {
			return err != nil && strings.Contains(err.Error(), "exactly one")
		}},
		{"heading line", "", []string{"--line", "1", "--to", "10:00"}, func(err error) bool {
			return errors.Is(err, tasks.ErrNotTask)
		}},
		{"past end", "", []string{"--line", "99", "--to", "10:00"}, func(err error) bool {
			return err != nil && strings.Contains(err.Error(), "past the end")
		}},
		{"untimed task", "", []string{"--line", "6", "--to", "10:00"}, func(err error) bool {
			return errors.Is(err, drag.ErrNoTime)
		}},
		{"dragging disabled", "[timeline]\nenable_dragging = false\n", []string{"--line", "3", "--to", "10:00"}, func(err error) bool {
			return errors.Is(err, engine.ErrDraggingDisabled)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupCLI(t)
			path := writeFile(t, dir, "today.md", plan)
			if tt.config != "" {
				writeFile(t, dir, "config.toml", tt.config)
			}
			_, _, err := run(t, append([]string{"move", path}, tt.args...)...)
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
			if readFile(t, path) != plan {
				t.Error("failed move should not touch the file")
			}
		})
	}
}

func TestToggleCmd(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "today.md", plan)

	out, _, err := run(t, "toggle", path, "--line", "6")
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !strings.Contains(out, "Toggled Read a chapter (line 6)") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(readFile(t, path), "- [x] Read a chapter\n") {
		t.Error("task should be checked")
	}

	resetFlags()
	if _, _, err := run(t, "toggle", path, "--line", "6"); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if readFile(t, path) != plan {
		t.Error("toggling twice should restore the file")
	}
}

func TestToggleKeepsCRLF(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "today.md", "- [ ] A @09:00\r\n- [ ] B\r\n")

	if _, _, err := run(t, "toggle", path, "--line", "2"); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if got := readFile(t, path); got != "- [ ] A @09:00\r\n- [x] B\r\n" {
		t.Errorf("file = %q", got)
	}
}

func TestViewNeedsTerminal(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "today.md", plan)
	isInteractive = func() bool { return false }

	_, _, err := run(t, "view", path)
	if err == nil || !strings.Contains(err.Error(), "needs a terminal") {
		t.Errorf("err = %v, want terminal error", err)
	}
}

func TestViewRejectsBadInterval(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "today.md", plan)
	isInteractive = func() bool { return true }

	_, _, err := run(t, "view", path, "--interval", "45")
	if err == nil || !strings.Contains(err.Error(), "unsupported interval") {
		t.Errorf("err = %v, want interval error", err)
	}
}

func TestExecuteJSONError(t *testing.T) {
	dir := setupCLI(t)
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"--json", "layout", filepath.Join(dir, "missing.md")})

	if err := Execute(); err == nil {
		t.Fatal("expected an error")
	}
	var parsed map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\nOutput: %s", err, stdout.String())
	}
	if msg, _ := parsed["error"].(string); !strings.Contains(msg, "reading task file") {
		t.Errorf("error = %v", parsed["error"])
	}
}

func TestVerboseLogsToStderr(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "today.md", plan)

	_, stderr, err := run(t, "--verbose", "layout", path)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !strings.Contains(stderr, "level=DEBUG") || !strings.Contains(stderr, "render pass") {
		t.Errorf("stderr = %q", stderr)
	}
}

// TestIsJSONOutput tests the JSON output detection
func TestIsJSONOutput(t *testing.T) {
	original := jsonOutput
	defer func() { jsonOutput = original }()

	jsonOutput = false
	if IsJSONOutput() {
		t.Error("Expected IsJSONOutput() to return false")
	}

	jsonOutput = true
	if !IsJSONOutput() {
		t.Error("Expected IsJSONOutput() to return true")
	}
	if !GetFormatter().IsJSON() {
		t.Error("GetFormatter should follow --json")
	}
}

// TestBuildInfo tests that build info variables are set
func TestBuildInfo(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if Commit == "" {
		t.Error("Commit should not be empty")
	}
	if Date == "" {
		t.Error("Date should not be empty")
	}
	if BuiltBy == "" {
		t.Error("BuiltBy should not be empty")
	}
}
