package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dayplan/dayplan/internal/engine"
	"github.com/dayplan/dayplan/internal/tui/dashboard"
)

var (
	viewInterval int
	viewNoWatch  bool
)

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "Open the interactive timeline",
		Long: `Open today's timeline in the terminal. The view reloads when the file
changes on disk and the now marker follows the clock.

Keys:
  j/k        select task          J/K   move selected task one step
  enter      drop                 esc   cancel move
  x, space   toggle done          g     jump to now
  +/-        change interval      tab   switch panel
  c          show/hide done       r     reload
  ?          help                 q     quit

Tasks can also be dragged with the mouse.

Examples:
  dayplan view                  # Configured task file
  dayplan view ~/notes/today.md
  dayplan view --interval 15`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(args)
		},
	}

	cmd.Flags().IntVar(&viewInterval, "interval", 0, "Tick interval in minutes (5, 10, 15, 20, 30 or 60)")
	cmd.Flags().BoolVar(&viewNoWatch, "no-watch", false, "Do not reload when the file changes on disk")

	return cmd
}

func runView(args []string) error {
	path, err := taskPath(args)
	if err != nil {
		return err
	}
	if !isInteractive() {
		return fmt.Errorf("view needs a terminal; use 'dayplan layout %s' for plain output", path)
	}

	c := *currentConfig()
	if viewInterval != 0 {
		if !engine.ValidInterval(viewInterval) {
			return fmt.Errorf("unsupported interval %d (want one of %v)", viewInterval, engine.Intervals)
		}
		c.Timeline.IntervalMinutes = viewInterval
	}
	if viewNoWatch {
		c.Watch.Enabled = false
	}

	slog.Debug("opening timeline", "path", path, "interval", c.Timeline.IntervalMinutes)
	return dashboard.Run(dashboard.Options{
		Path:       path,
		Config:     &c,
		ConfigPath: configPath(),
		Logger:     slog.Default(),
	})
}
