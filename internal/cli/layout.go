package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dayplan/dayplan/internal/engine"
	"github.com/dayplan/dayplan/internal/output"
)

// layoutChrome is the width of the text table without the label column.
const layoutChrome = 52

var (
	layoutFormat   string
	layoutAt       string
	layoutInterval int
)

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout [file]",
		Short: "Print the timeline layout once",
		Long: `Compute the timeline for a task file and print it: the axis windows, the
column each task lands in and its position in tick rows.

Examples:
  dayplan layout today.md
  dayplan layout today.md --format yaml
  dayplan layout today.md --at 14:00 --interval 15
  dayplan --json layout today.md | jq '.tasks[] | {label, column}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(args)
		},
	}

	cmd.Flags().StringVarP(&layoutFormat, "format", "f", "", "Output format: text, json or yaml")
	cmd.Flags().StringVar(&layoutAt, "at", "", "Lay out as if it were HH:mm today")
	cmd.Flags().IntVar(&layoutInterval, "interval", 0, "Tick interval in minutes (5, 10, 15, 20, 30 or 60)")

	return cmd
}

func runLayout(args []string) error {
	formatter, err := formatterFor(layoutFormat)
	if err != nil {
		return err
	}
	path, err := taskPath(args)
	if err != nil {
		return err
	}
	text, err := readTaskFile(path)
	if err != nil {
		return err
	}
	now, err := referenceTime(layoutAt)
	if err != nil {
		return err
	}
	eng, err := newEngine(nil, layoutInterval)
	if err != nil {
		return err
	}

	res := eng.Render(text, engine.WithNow(now))
	resp := output.NewLayoutResponse(path, eng.Config().IntervalMinutes, res)
	if w := currentConfig().UI.LabelWidth; w > 0 {
		resp = resp.WithLabelWidth(w)
	} else if w := terminalWidth(); w > 0 {
		resp = resp.WithLabelWidth(w - layoutChrome)
	}

	if err := formatter.Output(resp); err != nil {
		return err
	}
	if formatter.Format() == output.FormatText {
		warnUnreadTokens(res)
	}
	if res.Err != nil {
		return fmt.Errorf("layout: %w", res.Err)
	}
	return nil
}

// warnUnreadTokens points at tasks that look timed but landed in the untimed
// list because their token did not parse.
func warnUnreadTokens(res engine.Result) {
	for _, it := range res.Timeless {
		for _, tok := range it.Tokens {
			output.PrintWarningf("line %d: could not read %q, %s is untimed", it.Line+1, tok.Text, it.Label)
		}
	}
}
