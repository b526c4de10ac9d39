package position

import (
	"math"
	"testing"
	"time"
)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 14, h, m, 0, 0, time.UTC)
}

func hourTicks(hours ...int) []time.Time {
	out := make([]time.Time, len(hours))
	for i, h := range hours {
		out[i] = at(h, 0)
	}
	return out
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMap_UniformHeights(t *testing.T) {
	c := NewContext(hourTicks(8, 9, 10, 11), time.Hour, 4, nil)

	tests := []struct {
		name       string
		start, end time.Time
		top, h     float64
	}{
		{"on ticks", at(9, 0), at(10, 0), 4, 4},
		{"fractional", at(9, 15), at(9, 45), 5, 2},
		{"spans rows", at(8, 30), at(10, 30), 2, 8},
		{"before axis", at(6, 0), at(8, 30), 0, 2},
		{"past axis", at(11, 30), at(14, 0), 14, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := c.Map(tt.start, tt.end)
			if !near(p.Top, tt.top) || !near(p.Height, tt.h) {
				t.Errorf("Map = %+v, want top %v height %v", p, tt.top, tt.h)
			}
		})
	}
	if !near(c.Total(), 16) {
		t.Errorf("Total = %v, want 16", c.Total())
	}
}

func TestMap_MeasuredHeights(t *testing.T) {
	// Row 1 renders taller than nominal, for example because a separator follows it.
	g := GeometryFunc(func(i int) (float64, bool) {
		if i == 1 {
			return 6, true
		}
		return 0, false
	})
	c := NewContext(hourTicks(8, 9, 10), time.Hour, 2, g)

	if got := c.TickOffset(2); !near(got, 8) {
		t.Errorf("TickOffset(2) = %v, want 8", got)
	}
	p := c.Map(at(9, 30), at(10, 30))
	if !near(p.Top, 5) || !near(p.Height, 4) {
		t.Errorf("Map = %+v, want top 5 height 4", p)
	}
}

func TestMap_MinHeightFloor(t *testing.T) {
	c := NewContext(hourTicks(8, 9), time.Hour, 4, nil)

	if p := c.Map(at(8, 0), at(8, 0)); !near(p.Height, DefaultMinHeight) {
		t.Errorf("zero-length height = %v, want %v", p.Height, DefaultMinHeight)
	}
	if p := c.Map(at(9, 0), at(8, 0)); !near(p.Height, DefaultMinHeight) {
		t.Errorf("inverted height = %v, want %v", p.Height, DefaultMinHeight)
	}

	c.MinHeight = 3
	if p := c.Map(at(8, 0), at(8, 15)); !near(p.Height, 3) {
		t.Errorf("custom floor height = %v, want 3", p.Height)
	}
}

func TestOffsetAt_GapClampsToRowEnd(t *testing.T) {
	// Two windows: 08-09 and 21-22, one hour step.
	c := NewContext(hourTicks(8, 9, 21, 22), time.Hour, 2, nil)

	// 15:00 sits in the gap after the 09:00 row.
	if got := c.OffsetAt(at(15, 0)); !near(got, 4) {
		t.Errorf("OffsetAt(15:00) = %v, want 4", got)
	}
	if got := c.OffsetAt(at(21, 30)); !near(got, 5) {
		t.Errorf("OffsetAt(21:30) = %v, want 5", got)
	}
}

func TestInstantAt_InvertsOffsetAt(t *testing.T) {
	g := GeometryFunc(func(i int) (float64, bool) { return float64(2 + i), true })
	c := NewContext(hourTicks(8, 9, 10, 11), time.Hour, 2, g)

	for _, want := range []time.Time{at(8, 0), at(8, 20), at(9, 45), at(10, 0), at(11, 30)} {
		got, ok := c.InstantAt(c.OffsetAt(want))
		if !ok {
			t.Fatal("InstantAt reported empty axis")
		}
		if d := got.Sub(want); d < -time.Second || d > time.Second {
			t.Errorf("InstantAt(OffsetAt(%s)) = %s", want.Format("15:04"), got.Format("15:04:05"))
		}
	}

	if got, _ := c.InstantAt(-5); !got.Equal(at(8, 0)) {
		t.Errorf("negative offset = %v, want first tick", got)
	}
	if got, _ := c.InstantAt(1000); !got.Equal(at(12, 0)) {
		t.Errorf("offset past end = %v, want last tick + step", got)
	}
}

func TestEmptyContext(t *testing.T) {
	c := NewContext(nil, 30*time.Minute, 0, nil)
	if c.Total() != 0 {
		t.Errorf("Total = %v", c.Total())
	}
	if got := c.OffsetAt(at(9, 0)); got != 0 {
		t.Errorf("OffsetAt = %v", got)
	}
	if _, ok := c.InstantAt(3); ok {
		t.Error("InstantAt on empty axis should report !ok")
	}
	if c.Row(2) != -1 {
		t.Error("Row on empty axis should be -1")
	}
	if p := c.Map(at(9, 0), at(10, 0)); !near(p.Height, DefaultMinHeight) {
		t.Errorf("Map on empty axis = %+v", p)
	}
}

func TestRow(t *testing.T) {
	c := NewContext(hourTicks(8, 9, 10), time.Hour, 3, nil)
	tests := []struct {
		offset float64
		want   int
	}{
		{0, 0}, {2.9, 0}, {3, 1}, {8.5, 2}, {50, 2},
	}
	for _, tt := range tests {
		if got := c.Row(tt.offset); got != tt.want {
			t.Errorf("Row(%v) = %d, want %d", tt.offset, got, tt.want)
		}
	}
}
