// Command dayplan lays out a Markdown task list on a timeline.
package main

import (
	"os"

	"github.com/dayplan/dayplan/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
