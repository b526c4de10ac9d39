package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dayplan/dayplan/internal/config"
	"github.com/dayplan/dayplan/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefault()
			if err != nil {
				return err
			}
			if IsJSONOutput() {
				return GetFormatter().Output(map[string]interface{}{
					"success": true,
					"path":    path,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), configPath())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			effectiveCfg := currentConfig()

			if IsJSONOutput() {
				return GetFormatter().Output(map[string]interface{}{
					"file":      effectiveCfg.File,
					"log_level": effectiveCfg.LogLevel,
					"timeline": map[string]interface{}{
						"interval_minutes":    effectiveCfg.Timeline.IntervalMinutes,
						"enable_dragging":     effectiveCfg.Timeline.EnableDragging,
						"rows_per_tick":       effectiveCfg.Timeline.RowsPerTick,
						"min_height":          effectiveCfg.Timeline.MinHeight,
						"now_refresh_seconds": effectiveCfg.Timeline.NowRefreshSeconds,
					},
					"ui": map[string]interface{}{
						"theme":          effectiveCfg.UI.Theme,
						"show_completed": effectiveCfg.UI.ShowCompleted,
						"label_width":    effectiveCfg.UI.LabelWidth,
					},
					"watch": map[string]interface{}{
						"enabled":     effectiveCfg.Watch.Enabled,
						"debounce_ms": effectiveCfg.Watch.DebounceMs,
					},
				})
			}
			return config.Print(effectiveCfg, cmd.OutOrStdout())
		},
	})

	cmd.AddCommand(newConfigValidateCmd())

	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file for errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			resp := output.ValidateResponse{
				TimestampedResponse: output.NewTimestamped(),
				Path:                path,
				Errors:              []string{},
			}

			// cfg holds the defaults when the file failed to parse.
			loaded, err := config.Load(path)
			if err != nil {
				resp.Errors = append(resp.Errors, err.Error())
			} else {
				for _, verr := range config.Validate(loaded) {
					resp.Errors = append(resp.Errors, verr.Error())
				}
			}
			resp.Valid = len(resp.Errors) == 0

			if err := GetFormatter().Output(resp); err != nil {
				return err
			}
			if !resp.Valid {
				return fmt.Errorf("config has %s", output.CountStr(len(resp.Errors), "problem", "problems"))
			}
			return nil
		},
	}
}
