// Package axis decides which parts of the day are worth showing. Task spans are
// merged into windows and each window is quantized into ticks on the configured
// interval; the ordered union of all ticks is the timeline's vertical axis.
package axis

import (
	"sort"
	"time"
)

const (
	// MergeGap is the largest gap between one cluster's end and the next
	// span's start that still joins them into one window.
	MergeGap = 2 * time.Hour

	// FloorLookback is how far before a window's first hour the axis may start.
	FloorLookback = 2 * time.Hour

	// EarliestFloor is the earliest hour a padded window may reach unless the
	// tasks themselves start earlier.
	EarliestFloor = 6 * time.Hour

	// LatestCeiling is the offset into the following day a window may extend to.
	LatestCeiling = time.Hour
)

// Span is one task's [Start, End) extent.
type Span struct {
	Start time.Time
	End   time.Time
}

// Window is one contiguous visible stretch of the axis.
type Window struct {
	Start time.Time
	End   time.Time
}

// Axis is the display axis for one render pass.
type Axis struct {
	Windows []Window
	Ticks   []time.Time
	Step    time.Duration
}

// Empty reports whether the axis has no ticks.
func (a Axis) Empty() bool { return len(a.Ticks) == 0 }

// GapAfter reports whether tick i is the last tick of a window that is followed
// by another window.
func (a Axis) GapAfter(i int) bool {
	if i < 0 || i+1 >= len(a.Ticks) {
		return false
	}
	return a.Ticks[i+1].Sub(a.Ticks[i]) > a.Step
}

// First returns the first tick.
func (a Axis) First() time.Time {
	if len(a.Ticks) == 0 {
		return time.Time{}
	}
	return a.Ticks[0]
}

// Last returns the last tick.
func (a Axis) Last() time.Time {
	if len(a.Ticks) == 0 {
		return time.Time{}
	}
	return a.Ticks[len(a.Ticks)-1]
}

// Build merges spans into windows and emits the de-duplicated, sorted tick
// sequence. Empty input or a non-positive step yields an empty axis.
func Build(spans []Span, step time.Duration) Axis {
	out := Axis{Step: step}
	if len(spans) == 0 || step <= 0 {
		return out
	}

	clusters := Merge(spans)
	seen := make(map[int64]struct{})
	for _, c := range clusters {
		w := pad(c, step)
		out.Windows = append(out.Windows, w)
		for t := w.Start; !t.After(w.End); t = t.Add(step) {
			key := t.UnixNano()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out.Ticks = append(out.Ticks, t)
		}
	}
	sort.Slice(out.Ticks, func(i, j int) bool { return out.Ticks[i].Before(out.Ticks[j]) })
	return out
}

// Merge sorts spans by start and folds each span into the running cluster
// while it starts no later than MergeGap after the cluster's end.
func Merge(spans []Span) []Window {
	if len(spans) == 0 {
		return nil
	}
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	for i := range sorted {
		if sorted[i].End.Before(sorted[i].Start) {
			sorted[i].End = sorted[i].Start
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var clusters []Window
	cur := Window{Start: sorted[0].Start, End: sorted[0].End}
	for _, s := range sorted[1:] {
		if !s.Start.After(cur.End.Add(MergeGap)) {
			if s.End.After(cur.End) {
				cur.End = s.End
			}
			continue
		}
		clusters = append(clusters, cur)
		cur = Window{Start: s.Start, End: s.End}
	}
	return append(clusters, cur)
}

// pad widens a cluster by one step each side, clamps it to the floor and
// ceiling, and aligns the start to the step grid.
func pad(c Window, step time.Duration) Window {
	day := midnight(c.Start)

	natural := AlignDown(c.Start, time.Hour)
	floor := natural.Add(-FloorLookback)
	if earliest := day.Add(EarliestFloor); floor.Before(earliest) {
		floor = earliest
		if natural.Before(earliest) {
			floor = natural
		}
	}
	start := c.Start.Add(-step)
	if start.Before(floor) {
		start = floor
	}
	start = AlignDown(start, step)

	ceiling := day.AddDate(0, 0, 1).Add(LatestCeiling)
	end := c.End.Add(step)
	if end.After(ceiling) {
		end = ceiling
	}
	if end.Before(start) {
		end = start
	}
	return Window{Start: start, End: end}
}

// AlignDown truncates t to a multiple of step measured from t's local midnight.
func AlignDown(t time.Time, step time.Duration) time.Time {
	if step <= 0 {
		return t
	}
	day := midnight(t)
	off := t.Sub(day)
	return day.Add(off - off%step)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
