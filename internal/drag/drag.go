// Package drag turns a dropped instant into a rewritten task line.
//
// Everything here is a pure transformation: the caller decides what to do with
// the returned line (write it to disk, hand it to a mutation callback, or
// discard it).
package drag

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dayplan/dayplan/internal/tasks"
	"github.com/dayplan/dayplan/internal/timeexpr"
)

// ErrNoTime is returned when a task without any time token is dropped.
var ErrNoTime = errors.New("task has no time to move")

// Result describes one drop.
type Result struct {
	Item    tasks.Item // the task as parsed from NewLine
	OldLine string
	NewLine string
	Instant time.Time // the quantized drop instant
}

// Changed reports whether the drop altered the line.
func (r Result) Changed() bool { return r.OldLine != r.NewLine }

// Quantize rounds t to the nearest multiple of step counted from t's local
// midnight. An instant exactly halfway between two grid points rounds up.
func Quantize(t time.Time, step time.Duration) time.Time {
	if step <= 0 {
		return t
	}
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	off := t.Sub(day)
	q := off / step
	if rem := off % step; 2*rem >= step {
		q++
	}
	return day.Add(q * step)
}

// Drop moves item so that it starts (or, for deadline-only tasks, is due) at
// the quantized dropped instant. Range tasks keep their length and duration
// tasks keep their suffix; every other form is rewritten as a canonical 24-hour
// token.
func Drop(item tasks.Item, dropped time.Time, step time.Duration) (Result, error) {
	if !item.HasTime() {
		return Result{}, ErrNoTime
	}
	q := Quantize(dropped, step)
	token, due := retime(item.Interval, q)

	newLine := RewriteLine(item.SourceLine, token, due)
	moved, err := tasks.ParseLine(newLine, q)
	if err != nil {
		return Result{}, fmt.Errorf("reparse moved task: %w", err)
	}
	moved.ID = item.ID
	moved.Line = item.Line

	return Result{
		Item:    moved,
		OldLine: item.SourceLine,
		NewLine: newLine,
		Instant: q,
	}, nil
}

// Shift moves item by a whole number of steps from its current start.
func Shift(item tasks.Item, steps int, step time.Duration) (Result, error) {
	if !item.HasTime() {
		return Result{}, ErrNoTime
	}
	base := item.Interval.Start
	if !item.Interval.HasStart() {
		base = item.Interval.Due
	}
	return Drop(item, base.Add(time.Duration(steps)*step), step)
}

// retime returns the replacement token for iv moved to start and whether it
// belongs to the due: family.
func retime(iv timeexpr.Interval, start time.Time) (string, bool) {
	if !iv.HasStart() {
		return timeexpr.Interval{Due: start, Kind: timeexpr.KindDue}.Format(), true
	}

	moved := timeexpr.Interval{Start: start, Kind: timeexpr.KindPoint}
	switch iv.Kind {
	case timeexpr.KindRange:
		if iv.HasEnd() {
			moved.Kind = timeexpr.KindRange
			moved.End = start.Add(iv.End.Sub(iv.Start))
		}
	case timeexpr.KindDuration:
		if iv.Duration > 0 {
			moved.Kind = timeexpr.KindDuration
			moved.Duration = iv.Duration
			moved.End = start.Add(iv.Duration)
		}
	}
	return moved.Format(), false
}

// RewriteLine replaces the last time token of the same family (due: or @) in
// line with token. When line has no such token, token is appended.
func RewriteLine(line, token string, due bool) string {
	found := timeexpr.FindTokens(line)
	for i := len(found) - 1; i >= 0; i-- {
		if found[i].Due == due {
			return line[:found[i].Start] + token + line[found[i].End:]
		}
	}
	trimmed := strings.TrimRight(line, " \t")
	if trimmed == "" {
		return token
	}
	return trimmed + " " + token
}
