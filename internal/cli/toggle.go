package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dayplan/dayplan/internal/output"
	"github.com/dayplan/dayplan/internal/tasks"
)

var (
	toggleLine   int
	toggleDryRun bool
)

func newToggleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle [file]",
		Short: "Mark a task done or open",
		Long: `Flip the checkbox of the task on --line.

Examples:
  dayplan toggle today.md --line 4
  dayplan --json toggle today.md --line 4`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(args)
		},
	}

	cmd.Flags().IntVarP(&toggleLine, "line", "l", 0, "1-based line number of the task")
	cmd.Flags().BoolVar(&toggleDryRun, "dry-run", false, "Show the change without writing the file")

	return cmd
}

func runToggle(args []string) error {
	path, err := taskPath(args)
	if err != nil {
		return err
	}
	text, err := readTaskFile(path)
	if err != nil {
		return err
	}

	item, err := findTask(tasks.ParseDocument(text, nowFunc()), toggleLine)
	if err != nil {
		return err
	}
	eng, err := newEngine(fileMutation(path, item.Line, toggleDryRun), 0)
	if err != nil {
		return err
	}
	newLine, err := eng.Toggle(item)
	if err != nil {
		return fmt.Errorf("toggling %q: %w", item.Label, err)
	}

	return GetFormatter().Output(output.ChangeResponse{
		TimestampedResponse: output.NewTimestamped(),
		Success:             true,
		Action:              "toggle",
		File:                path,
		Line:                item.Line + 1,
		Label:               item.Label,
		OldLine:             item.SourceLine,
		NewLine:             newLine,
		Changed:             true,
		DryRun:              toggleDryRun,
	})
}
