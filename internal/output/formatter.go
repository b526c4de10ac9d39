// Package output renders command results as text, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the accepted --format values.
var Formats = []Format{FormatText, FormatJSON, FormatYAML}

// ParseFormat parses a --format value. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json or yaml)", s)
}

// Texter is implemented by results with a human-readable rendering.
type Texter interface {
	WriteText(w io.Writer) error
}

// Formatter writes results in one Format.
type Formatter struct {
	writer io.Writer
	format Format
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithWriter sets the destination. The default is os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(f *Formatter) {
		if w != nil {
			f.writer = w
		}
	}
}

// WithFormat sets the encoding.
func WithFormat(format Format) Option {
	return func(f *Formatter) {
		if format != "" {
			f.format = format
		}
	}
}

// WithJSON selects JSON when enabled is true.
func WithJSON(enabled bool) Option {
	return func(f *Formatter) {
		if enabled {
			f.format = FormatJSON
		}
	}
}

// New creates a Formatter writing text to stdout unless configured otherwise.
func New(opts ...Option) *Formatter {
	f := &Formatter{writer: os.Stdout, format: FormatText}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format returns the formatter's encoding.
func (f *Formatter) Format() Format { return f.format }

// IsJSON reports whether the formatter emits JSON.
func (f *Formatter) IsJSON() bool { return f.format == FormatJSON }

// Writer returns the destination.
func (f *Formatter) Writer() io.Writer { return f.writer }

// Output writes v. In text mode v must implement Texter or fmt.Stringer;
// anything else falls back to YAML, which reads well in a terminal.
func (f *Formatter) Output(v interface{}) error {
	switch f.format {
	case FormatJSON:
		return WriteJSON(f.writer, v, true)
	case FormatYAML:
		return WriteYAML(f.writer, v)
	}
	switch t := v.(type) {
	case Texter:
		return t.WriteText(f.writer)
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.writer, t.String())
		return err
	}
	return WriteYAML(f.writer, v)
}

// WriteJSON encodes v to w. HTML escaping is off so task text is kept as typed.
func WriteJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// WriteYAML encodes v to w with two-space indentation.
func WriteYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
