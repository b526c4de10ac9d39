package output

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Timestamp returns the current time in UTC for response envelopes.
func Timestamp() time.Time {
	return time.Now().UTC()
}

// TimestampedResponse is embedded in every machine-readable response.
type TimestampedResponse struct {
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}

// NewTimestamped returns a TimestampedResponse stamped now.
func NewTimestamped() TimestampedResponse {
	return TimestampedResponse{GeneratedAt: Timestamp()}
}

// ErrorResponse reports a failed command.
type ErrorResponse struct {
	TimestampedResponse `yaml:",inline"`
	Success             bool   `json:"success" yaml:"success"`
	Error               string `json:"error" yaml:"error"`
}

// NewError builds an ErrorResponse.
func NewError(msg string) ErrorResponse {
	return ErrorResponse{
		TimestampedResponse: NewTimestamped(),
		Error:               msg,
	}
}

// VersionResponse is the output of the version command.
type VersionResponse struct {
	TimestampedResponse `yaml:",inline"`
	Version             string `json:"version" yaml:"version"`
	Commit              string `json:"commit" yaml:"commit"`
	BuildDate           string `json:"build_date" yaml:"build_date"`
	BuiltBy             string `json:"built_by" yaml:"built_by"`
	GoVersion           string `json:"go_version" yaml:"go_version"`
	OS                  string `json:"os" yaml:"os"`
	Arch                string `json:"arch" yaml:"arch"`
}

// ParsedToken is one token reported by the parse command.
type ParsedToken struct {
	Token           string `json:"token" yaml:"token"`
	Valid           bool   `json:"valid" yaml:"valid"`
	Kind            string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Start           string `json:"start,omitempty" yaml:"start,omitempty"`
	End             string `json:"end,omitempty" yaml:"end,omitempty"`
	Due             string `json:"due,omitempty" yaml:"due,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty" yaml:"duration_minutes,omitempty"`
	NextDay         bool   `json:"ends_next_day,omitempty" yaml:"ends_next_day,omitempty"`
	Canonical       string `json:"canonical,omitempty" yaml:"canonical,omitempty"`
}

// ParseResponse is the output of the parse command.
type ParseResponse struct {
	TimestampedResponse `yaml:",inline"`
	Now                 string        `json:"now" yaml:"now"`
	Tokens              []ParsedToken `json:"tokens" yaml:"tokens"`
}

// WriteText renders one row per token.
func (r ParseResponse) WriteText(w io.Writer) error {
	table := NewTable(w, "TOKEN", "KIND", "START", "END", "DUE", "CANONICAL")
	for _, t := range r.Tokens {
		if !t.Valid {
			table.AddRow(t.Token, "invalid", "-", "-", "-", "-")
			continue
		}
		end := dash(t.End)
		if t.NextDay {
			end += " (+1d)"
		}
		table.AddRow(t.Token, t.Kind, dash(t.Start), end, dash(t.Due), t.Canonical)
	}
	table.Render()
	return nil
}

// ChangeResponse reports a task line rewritten by move or toggle.
type ChangeResponse struct {
	TimestampedResponse `yaml:",inline"`
	Success             bool   `json:"success" yaml:"success"`
	Action              string `json:"action" yaml:"action"`
	File                string `json:"file" yaml:"file"`
	Line                int    `json:"line" yaml:"line"` // 1-based
	Label               string `json:"label" yaml:"label"`
	OldLine             string `json:"old_line" yaml:"old_line"`
	NewLine             string `json:"new_line" yaml:"new_line"`
	At                  string `json:"at,omitempty" yaml:"at,omitempty"`
	Changed             bool   `json:"changed" yaml:"changed"`
	DryRun              bool   `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

// WriteText prints a one-line summary and the rewritten line.
func (r ChangeResponse) WriteText(w io.Writer) error {
	switch {
	case !r.Changed:
		fmt.Fprintf(w, "%s is already there (line %d)\n", r.Label, r.Line)
		return nil
	case r.Action == "move":
		fmt.Fprintf(w, "Moved %s to %s (line %d)\n", r.Label, r.At, r.Line)
	default:
		fmt.Fprintf(w, "Toggled %s (line %d)\n", r.Label, r.Line)
	}
	fmt.Fprintf(w, "  - %s\n  + %s\n", strings.TrimSpace(r.OldLine), strings.TrimSpace(r.NewLine))
	if r.DryRun {
		fmt.Fprintln(w, "(dry run, file not written)")
	}
	return nil
}

// ValidateResponse is the output of config validate.
type ValidateResponse struct {
	TimestampedResponse `yaml:",inline"`
	Path                string   `json:"path" yaml:"path"`
	Valid               bool     `json:"valid" yaml:"valid"`
	Errors              []string `json:"errors" yaml:"errors"`
}

// WriteText lists the problems found, if any.
func (r ValidateResponse) WriteText(w io.Writer) error {
	if r.Valid {
		fmt.Fprintf(w, "%s: ok\n", r.Path)
		return nil
	}
	fmt.Fprintf(w, "%s: %s\n", r.Path, CountStr(len(r.Errors), "problem", "problems"))
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  - %s\n", e)
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
