package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

// Messages go to stderr so stdout stays parseable.
var messageWriter io.Writer = os.Stderr

// PrintWarning prints a warning.
func PrintWarning(msg string) {
	fmt.Fprintln(messageWriter, warningStyle.Render("!")+" "+msg)
}

// PrintWarningf prints a formatted warning.
func PrintWarningf(format string, args ...interface{}) { PrintWarning(fmt.Sprintf(format, args...)) }
