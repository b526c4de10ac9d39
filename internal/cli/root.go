// Package cli implements the dayplan command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dayplan/dayplan/internal/config"
	"github.com/dayplan/dayplan/internal/output"
	"github.com/dayplan/dayplan/internal/tui/theme"
)

var (
	cfgFile string
	cfg     *config.Config

	// Global JSON output flag - inherited by all subcommands
	jsonOutput bool

	// Global color control flag - inherited by all subcommands
	noColor bool

	// Debug logging on stderr
	verbose bool

	// Build information - set by goreleaser via ldflags
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
	BuiltBy = "unknown"
)

// nowFunc is the clock used to resolve times; tests replace it.
var nowFunc = time.Now

var rootCmd = &cobra.Command{
	Use:   "dayplan",
	Short: "Lay out today's tasks on a timeline",
	Long: `dayplan reads a Markdown task list and places every task that carries a
time token on a vertical timeline.

Time tokens:
  @09:00             point in time
  @14:30+2h          start plus duration
  @22:00-01:00       range (may cross midnight)
  @in 30 minutes     relative to now
  due:17:00          deadline

Quick Start:
  dayplan view today.md                   # Interactive timeline
  dayplan layout today.md --format json   # One-shot layout for scripts
  dayplan move today.md --line 3 --to 10:30`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Handle --no-color by setting NO_COLOR so config reloads keep it
		if noColor {
			os.Setenv("NO_COLOR", "1")
		}

		loaded, err := config.Load(configPath())
		if err != nil {
			// Use defaults if config loading fails
			loaded = config.Default()
		}
		cfg = loaded

		level := cfg.Level()
		if verbose {
			level = slog.LevelDebug
		}
		setupLogging(cmd.ErrOrStderr(), level)
		if err != nil {
			slog.Warn("using default config", "path", configPath(), "error", err)
		}

		if err := theme.SetCurrent(cfg.UI.Theme); err != nil {
			slog.Warn("unknown theme, using auto", "theme", cfg.UI.Theme)
			cfg.UI.Theme = "auto"
			_ = theme.SetCurrent("auto")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/dayplan/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (machine-readable)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(
		newViewCmd(),
		newLayoutCmd(),
		newParseCmd(),
		newMoveCmd(),
		newToggleCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		// SilenceErrors is set so JSON mode can report the error itself
		if jsonOutput {
			_ = output.WriteJSON(rootCmd.OutOrStdout(), output.NewError(err.Error()), true)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

func setupLogging(w io.Writer, level slog.Level) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func configPath() string {
	if cfgFile != "" {
		return config.ExpandHome(cfgFile)
	}
	return config.DefaultPath()
}

// currentConfig returns the loaded config, or the defaults before
// PersistentPreRunE has run.
func currentConfig() *config.Config {
	if cfg == nil {
		return config.Default()
	}
	return cfg
}

// IsJSONOutput returns true if JSON output is enabled
func IsJSONOutput() bool {
	return jsonOutput
}

// GetFormatter returns a formatter configured for the current output mode
func GetFormatter() *output.Formatter {
	return output.New(output.WithWriter(rootCmd.OutOrStdout()), output.WithJSON(jsonOutput))
}

// formatterFor is GetFormatter with a --format value. --json wins over it.
func formatterFor(format string) (*output.Formatter, error) {
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return output.New(
		output.WithWriter(rootCmd.OutOrStdout()),
		output.WithFormat(f),
		output.WithJSON(jsonOutput),
	), nil
}
