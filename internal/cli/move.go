package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dayplan/dayplan/internal/drag"
	"github.com/dayplan/dayplan/internal/engine"
	"github.com/dayplan/dayplan/internal/output"
	"github.com/dayplan/dayplan/internal/tasks"
)

var (
	moveLine     int
	moveTo       string
	moveBy       int
	moveInterval int
	moveDryRun   bool
)

func newMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move [file]",
		Short: "Move a task to another time",
		Long: `Move the task on --line to a new time, the same way dropping it on the
timeline does. --to snaps the time to the interval grid; --by moves the task
a number of grid steps. Durations, ranges and deadlines keep their length.

Examples:
  dayplan move today.md --line 3 --to 10:30
  dayplan move today.md --line 3 --by 2            # two steps later
  dayplan move today.md --line 3 --by=-1 --interval 15
  dayplan move today.md --line 3 --to 16:00 --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMove(args)
		},
	}

	cmd.Flags().IntVarP(&moveLine, "line", "l", 0, "1-based line number of the task")
	cmd.Flags().StringVar(&moveTo, "to", "", "New start time (HH:mm)")
	cmd.Flags().IntVar(&moveBy, "by", 0, "Grid steps to move (negative moves earlier)")
	cmd.Flags().IntVar(&moveInterval, "interval", 0, "Grid interval in minutes (default from config)")
	cmd.Flags().BoolVar(&moveDryRun, "dry-run", false, "Show the change without writing the file")

	return cmd
}

func runMove(args []string) error {
	if (moveTo == "") == (moveBy == 0) {
		return errors.New("give exactly one of --to or --by")
	}
	path, err := taskPath(args)
	if err != nil {
		return err
	}
	text, err := readTaskFile(path)
	if err != nil {
		return err
	}

	now := nowFunc()
	item, err := findTask(tasks.ParseDocument(text, now), moveLine)
	if err != nil {
		return err
	}
	eng, err := newEngine(fileMutation(path, item.Line, moveDryRun), moveInterval)
	if err != nil {
		return err
	}

	var res drag.Result
	if moveTo != "" {
		at, err := clockToday(moveTo, now)
		if err != nil {
			return err
		}
		res, err = eng.Drop(item, at)
		if err != nil {
			return moveError(item, err)
		}
	} else {
		res, err = eng.Shift(item, moveBy)
		if err != nil {
			return moveError(item, err)
		}
	}

	slog.Debug("task moved", "label", item.Label, "at", res.Instant.Format("15:04"), "changed", res.Changed())
	return GetFormatter().Output(output.ChangeResponse{
		TimestampedResponse: output.NewTimestamped(),
		Success:             true,
		Action:              "move",
		File:                path,
		Line:                item.Line + 1,
		Label:               item.Label,
		OldLine:             res.OldLine,
		NewLine:             res.NewLine,
		At:                  res.Instant.Format("15:04"),
		Changed:             res.Changed(),
		DryRun:              moveDryRun,
	})
}

func moveError(item tasks.Item, err error) error {
	switch {
	case errors.Is(err, engine.ErrDraggingDisabled):
		return fmt.Errorf("moving %q: %w (set timeline.enable_dragging = true)", item.Label, err)
	case errors.Is(err, drag.ErrNoTime):
		return fmt.Errorf("moving %q: %w; add a time token such as @09:00 first", item.Label, err)
	}
	return fmt.Errorf("moving %q: %w", item.Label, err)
}
