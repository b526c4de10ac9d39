package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/dayplan/dayplan/internal/output"
)

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd, short)
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")
	return cmd
}

func runVersion(cmd *cobra.Command, short bool) error {
	resp := buildVersionResponse()
	if IsJSONOutput() {
		return GetFormatter().Output(resp)
	}

	w := cmd.OutOrStdout()
	if short {
		fmt.Fprintln(w, resp.Version)
		return nil
	}
	fmt.Fprintf(w, "dayplan version %s\n", resp.Version)
	fmt.Fprintf(w, "  commit:    %s\n", resp.Commit)
	fmt.Fprintf(w, "  built:     %s\n", resp.BuildDate)
	fmt.Fprintf(w, "  builder:   %s\n", resp.BuiltBy)
	fmt.Fprintf(w, "  go:        %s\n", resp.GoVersion)
	fmt.Fprintf(w, "  platform:  %s/%s\n", resp.OS, resp.Arch)
	return nil
}

func buildVersionResponse() output.VersionResponse {
	return output.VersionResponse{
		TimestampedResponse: output.NewTimestamped(),
		Version:             Version,
		Commit:              Commit,
		BuildDate:           Date,
		BuiltBy:             BuiltBy,
		GoVersion:           runtime.Version(),
		OS:                  runtime.GOOS,
		Arch:                runtime.GOARCH,
	}
}
