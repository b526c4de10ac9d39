// Package tasks parses checkbox task lines ("- [ ] Standup @09:00+15min") into
// items carrying their parsed time interval.
package tasks

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dayplan/dayplan/internal/timeexpr"
)

// ErrNotTask is returned when a line does not match the checkbox grammar.
var ErrNotTask = errors.New("line is not a checkbox task")

// idNamespace scopes task IDs so they never collide with other v5 UUIDs.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("dayplan:task"))

var linePattern = regexp.MustCompile(`^(\s*[-*+]\s+\[)([ xX])(\]\s?)(.*)$`)

// Item is one checkbox task line.
type Item struct {
	ID         string
	Line       int // 0-based line index in the document
	Label      string
	Completed  bool
	Interval   timeexpr.Interval
	SourceLine string
	Tokens     []timeexpr.Token
}

// HasTime reports whether the task has a start or a deadline.
func (it Item) HasTime() bool {
	return !it.Interval.IsZero()
}

// Span returns the task's layout extent; see timeexpr.Interval.Span.
func (it Item) Span(fallback time.Duration) (time.Time, time.Time, bool) {
	return it.Interval.Span(fallback)
}

// Document is the parsed form of a task file.
type Document struct {
	Lines []string
	Items []Item
}

// Timed returns the items that carry a time.
func (d Document) Timed() []Item {
	var out []Item
	for _, it := range d.Items {
		if it.HasTime() {
			out = append(out, it)
		}
	}
	return out
}

// Timeless returns the items without any resolvable time.
func (d Document) Timeless() []Item {
	var out []Item
	for _, it := range d.Items {
		if !it.HasTime() {
			out = append(out, it)
		}
	}
	return out
}

// Find returns the item with the given ID.
func (d Document) Find(id string) (Item, bool) {
	for _, it := range d.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// ParseDocument parses every line of text. Relative time tokens resolve
// against now. Lines that are blank or not checkbox tasks are skipped.
func ParseDocument(text string, now time.Time) Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	doc := Document{Lines: lines}
	seen := make(map[string]int)
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		item, err := ParseLine(line, now)
		if err != nil {
			continue
		}
		item.Line = i
		occurrence := seen[item.Label]
		seen[item.Label] = occurrence + 1
		item.ID = taskID(item.Label, occurrence)
		doc.Items = append(doc.Items, item)
	}
	return doc
}

// ParseLine parses a single line. The returned item has no ID or line index;
// ParseDocument assigns those.
func ParseLine(line string, now time.Time) (Item, error) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return Item{}, ErrNotTask
	}
	body := m[4]
	item := Item{
		Completed:  m[2] == "x" || m[2] == "X",
		SourceLine: line,
	}

	prefixLen := len(m[1]) + len(m[2]) + len(m[3])
	for _, tok := range timeexpr.FindTokens(body) {
		tok.Start += prefixLen
		tok.End += prefixLen
		item.Tokens = append(item.Tokens, tok)

		iv, ok := timeexpr.Parse(tok.Text, now)
		if !ok {
			continue
		}
		// The last parseable token of each family wins.
		if tok.Due {
			item.Interval.Due = iv.Due
			continue
		}
		due := item.Interval.Due
		item.Interval = iv
		item.Interval.Due = due
	}
	if !item.Interval.HasStart() && item.Interval.HasDue() {
		item.Interval.Kind = timeexpr.KindDue
	}
	item.Label = timeexpr.StripTokens(body)
	return item, nil
}

// ToggleLine flips the completion checkbox of a task line.
func ToggleLine(line string) (string, error) {
	m := linePattern.FindStringSubmatchIndex(line)
	if m == nil {
		return "", ErrNotTask
	}
	mark := "x"
	if line[m[4]:m[5]] != " " {
		mark = " "
	}
	return line[:m[4]] + mark + line[m[5]:], nil
}

func taskID(label string, occurrence int) string {
	return uuid.NewSHA1(idNamespace, []byte(label+"\x00"+strconv.Itoa(occurrence))).String()
}
