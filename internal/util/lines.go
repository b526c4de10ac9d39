package util

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrLineNotFound is returned when the line to replace is not in the document.
var ErrLineNotFound = errors.New("line not found")

// ReplaceLine replaces the first line of doc equal to oldLine with newLine.
// Line endings (LF or CRLF) are preserved.
func ReplaceLine(doc, oldLine, newLine string) (string, error) {
	return ReplaceLineAt(doc, -1, oldLine, newLine)
}

// ReplaceLineAt is ReplaceLine with a hint: when line index hint still holds
// oldLine it is replaced, otherwise the first matching line is. The hint
// disambiguates duplicate lines.
func ReplaceLineAt(doc string, hint int, oldLine, newLine string) (string, error) {
	lines := strings.Split(doc, "\n")
	match := func(i int) bool {
		return strings.TrimSuffix(lines[i], "\r") == oldLine
	}

	target := -1
	if hint >= 0 && hint < len(lines) && match(hint) {
		target = hint
	} else {
		for i := range lines {
			if match(i) {
				target = i
				break
			}
		}
	}
	if target < 0 {
		return doc, ErrLineNotFound
	}

	if strings.HasSuffix(lines[target], "\r") {
		newLine += "\r"
	}
	lines[target] = newLine
	return strings.Join(lines, "\n"), nil
}

// ReplaceLineInFile applies ReplaceLineAt to the file at path and writes the
// result atomically, keeping the file's permissions.
func ReplaceLineInFile(path string, hint int, oldLine, newLine string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	out, err := ReplaceLineAt(string(data), hint, oldLine, newLine)
	if err != nil {
		return err
	}
	return AtomicWriteFile(path, []byte(out), info.Mode().Perm())
}
