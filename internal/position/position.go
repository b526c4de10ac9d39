// Package position maps instants on the display axis to vertical offsets.
//
// A Context is built once per render pass from the axis ticks and the
// measured height of each tick row. The cumulative offset table is computed
// when the context is created and never updated; a new pass builds a new
// context, so there is nothing to invalidate.
package position

import (
	"sort"
	"time"
)

// DefaultMinHeight is the smallest height a mapped span is given so that
// zero-length and inverted spans stay visible.
const DefaultMinHeight = 1.0

// Geometry reports the measured height of the tick row at index i. ok is false
// when the surface has no measurement for that row, in which case the nominal
// height is used.
type Geometry interface {
	TickHeight(i int) (height float64, ok bool)
}

// GeometryFunc adapts a function to Geometry.
type GeometryFunc func(i int) (float64, bool)

// TickHeight implements Geometry.
func (f GeometryFunc) TickHeight(i int) (float64, bool) { return f(i) }

// Position is a vertical extent in surface units (terminal rows for the TUI).
type Position struct {
	Top    float64
	Height float64
}

// Bottom returns Top + Height.
func (p Position) Bottom() float64 { return p.Top + p.Height }

// Context holds the per-pass offset table.
type Context struct {
	ticks   []time.Time
	step    time.Duration
	heights []float64
	offsets []float64 // offsets[i] is the top of tick row i; offsets[len] is the total

	// MinHeight floors the height returned by Map.
	MinHeight float64
}

// NewContext builds a context for ticks spaced by step. geometry may be nil.
// Non-positive nominal heights fall back to one unit per tick.
func NewContext(ticks []time.Time, step time.Duration, nominal float64, geometry Geometry) *Context {
	if nominal <= 0 {
		nominal = 1
	}
	c := &Context{
		ticks:     ticks,
		step:      step,
		heights:   make([]float64, len(ticks)),
		offsets:   make([]float64, len(ticks)+1),
		MinHeight: DefaultMinHeight,
	}
	for i := range ticks {
		h := nominal
		if geometry != nil {
			if measured, ok := geometry.TickHeight(i); ok && measured > 0 {
				h = measured
			}
		}
		c.heights[i] = h
		c.offsets[i+1] = c.offsets[i] + h
	}
	return c
}

// Ticks returns the axis ticks.
func (c *Context) Ticks() []time.Time { return c.ticks }

// Step returns the tick spacing.
func (c *Context) Step() time.Duration { return c.step }

// Total returns the height of the whole axis.
func (c *Context) Total() float64 { return c.offsets[len(c.offsets)-1] }

// TickOffset returns the top of tick row i.
func (c *Context) TickOffset(i int) float64 {
	if i < 0 {
		return 0
	}
	if i >= len(c.ticks) {
		return c.Total()
	}
	return c.offsets[i]
}

// TickHeight returns the height used for tick row i.
func (c *Context) TickHeight(i int) float64 {
	if i < 0 || i >= len(c.heights) {
		return 0
	}
	return c.heights[i]
}

// OffsetAt returns the vertical offset of t. Instants before the first tick
// map to 0. Within a tick row the offset is interpolated linearly over one
// step; instants that fall in the gap between two windows land at the bottom
// of the row that precedes the gap.
func (c *Context) OffsetAt(t time.Time) float64 {
	n := len(c.ticks)
	if n == 0 || !t.After(c.ticks[0]) {
		return 0
	}
	i := sort.Search(n, func(k int) bool { return c.ticks[k].After(t) }) - 1
	frac := 1.0
	if c.step > 0 {
		frac = float64(t.Sub(c.ticks[i])) / float64(c.step)
	}
	if frac > 1 {
		frac = 1
	}
	return c.offsets[i] + frac*c.heights[i]
}

// Map positions the span [start, end).
func (c *Context) Map(start, end time.Time) Position {
	top := c.OffsetAt(start)
	height := c.OffsetAt(end) - top
	floor := c.MinHeight
	if floor <= 0 {
		floor = DefaultMinHeight
	}
	if height < floor {
		height = floor
	}
	return Position{Top: top, Height: height}
}

// InstantAt is the inverse of OffsetAt. Offsets past the end map to the last
// tick plus one step. ok is false for an empty axis.
func (c *Context) InstantAt(offset float64) (time.Time, bool) {
	n := len(c.ticks)
	if n == 0 {
		return time.Time{}, false
	}
	if offset <= 0 {
		return c.ticks[0], true
	}
	if offset >= c.Total() {
		return c.ticks[n-1].Add(c.step), true
	}
	i := sort.Search(n, func(k int) bool { return c.offsets[k+1] > offset })
	frac := (offset - c.offsets[i]) / c.heights[i]
	return c.ticks[i].Add(time.Duration(frac * float64(c.step))), true
}

// Row returns the index of the tick row containing offset, or -1 for an empty
// axis.
func (c *Context) Row(offset float64) int {
	n := len(c.ticks)
	if n == 0 {
		return -1
	}
	if offset <= 0 {
		return 0
	}
	i := sort.Search(n, func(k int) bool { return c.offsets[k+1] > offset })
	if i >= n {
		return n - 1
	}
	return i
}
