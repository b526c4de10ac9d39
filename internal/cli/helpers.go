package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/dayplan/dayplan/internal/config"
	"github.com/dayplan/dayplan/internal/engine"
	"github.com/dayplan/dayplan/internal/tasks"
	"github.com/dayplan/dayplan/internal/timeexpr"
	"github.com/dayplan/dayplan/internal/util"
)

// taskPath returns the file argument, or the configured task file.
func taskPath(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return config.ExpandHome(args[0]), nil
	}
	if path := currentConfig().TaskFile(); path != "" {
		return path, nil
	}
	return "", errors.New("no task file given and none configured (set file in the config)")
}

func readTaskFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading task file: %w", err)
	}
	return string(data), nil
}

// clockToday parses an HH:mm value and places it on now's day.
func clockToday(value string, now time.Time) (time.Time, error) {
	h, m, ok := timeexpr.ParseClock(value)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid time %q (want HH:mm)", value)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location()), nil
}

// referenceTime returns the instant relative tokens resolve against: --at
// when given, otherwise the current time.
func referenceTime(at string) (time.Time, error) {
	now := nowFunc()
	if at == "" {
		return now, nil
	}
	return clockToday(at, now)
}

// findTask returns the task on the 1-based line.
func findTask(doc tasks.Document, line int) (tasks.Item, error) {
	if line < 1 {
		return tasks.Item{}, fmt.Errorf("--line must be at least 1, got %d", line)
	}
	for _, it := range doc.Items {
		if it.Line == line-1 {
			return it, nil
		}
	}
	if line > len(doc.Lines) {
		return tasks.Item{}, fmt.Errorf("line %d is past the end of the file (%d lines)", line, len(doc.Lines))
	}
	return tasks.Item{}, fmt.Errorf("line %d: %w", line, tasks.ErrNotTask)
}

// newEngine builds an engine from the loaded config. A non-zero interval
// overrides the configured one.
func newEngine(mutate engine.MutationFunc, interval int) (*engine.Engine, error) {
	eng := engine.New(currentConfig().Engine(), mutate, engine.WithLogger(slog.Default()))
	if interval != 0 {
		if err := eng.SetInterval(interval); err != nil {
			return nil, err
		}
	}
	return eng, nil
}

// fileMutation writes changed task lines back to path. Dry runs write nothing.
func fileMutation(path string, line int, dryRun bool) engine.MutationFunc {
	if dryRun {
		return nil
	}
	return func(oldLine, newLine string) error {
		slog.Debug("rewriting task line", "path", path, "line", line+1, "new", newLine)
		return util.ReplaceLineInFile(path, line, oldLine, newLine)
	}
}

// isInteractive reports whether stdin and stdout are terminals.
var isInteractive = func() bool {
	tty := func(fd uintptr) bool {
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return tty(os.Stdin.Fd()) && tty(os.Stdout.Fd())
}

// terminalWidth returns stdout's width, or 0 when it is not a terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return width
}
