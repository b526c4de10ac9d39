package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dayplan/dayplan/internal/output"
	"github.com/dayplan/dayplan/internal/timeexpr"
)

var (
	parseFormat string
	parseAt     string
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <token>...",
		Short: "Show how time tokens are read",
		Long: `Parse each argument as a time token and print the interval it resolves
to. The leading @ is optional. Tokens that do not parse are reported as
invalid; such tasks land in the untimed list.

Examples:
  dayplan parse @09:00 @14:30+2h @22:00-01:00
  dayplan parse "@in 30 minutes" --at 09:10
  dayplan parse due:17:00 "@下午3点半"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(args)
		},
	}

	cmd.Flags().StringVarP(&parseFormat, "format", "f", "", "Output format: text, json or yaml")
	cmd.Flags().StringVar(&parseAt, "at", "", "Resolve relative tokens against HH:mm today")

	return cmd
}

func runParse(args []string) error {
	formatter, err := formatterFor(parseFormat)
	if err != nil {
		return err
	}
	now, err := referenceTime(parseAt)
	if err != nil {
		return err
	}

	resp := output.ParseResponse{
		TimestampedResponse: output.NewTimestamped(),
		Now:                 now.Format("15:04"),
		Tokens:              make([]output.ParsedToken, 0, len(args)),
	}
	for _, tok := range args {
		resp.Tokens = append(resp.Tokens, describeToken(tok, now))
	}
	return formatter.Output(resp)
}

func describeToken(tok string, now time.Time) output.ParsedToken {
	iv, ok := timeexpr.Parse(tok, now)
	pt := output.ParsedToken{Token: tok, Valid: ok}
	if !ok {
		return pt
	}

	pt.Kind = iv.Kind.String()
	pt.Canonical = iv.Format()
	if iv.HasStart() {
		pt.Start = iv.Start.Format("15:04")
	}
	if iv.HasEnd() {
		pt.End = iv.End.Format("15:04")
		pt.NextDay = iv.End.YearDay() != iv.Start.YearDay() || iv.End.Year() != iv.Start.Year()
	}
	if iv.HasDue() {
		pt.Due = iv.Due.Format("15:04")
	}
	if iv.Duration > 0 {
		pt.DurationMinutes = int(iv.Duration / time.Minute)
	}
	return pt
}
