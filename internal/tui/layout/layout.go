// Package layout holds the width tiers and cell arithmetic shared by the
// timeline view.
package layout

import (
	"math"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
)

// Tier is a terminal width class.
type Tier int

const (
	// TierNarrow shows the timeline alone with untimed tasks underneath.
	TierNarrow Tier = iota
	// TierSplit puts untimed tasks in a side panel.
	TierSplit
	// TierWide adds a detail panel for the selected task.
	TierWide
)

const (
	SplitViewThreshold = 100
	WideViewThreshold  = 160

	// HysteresisMargin keeps the tier stable while a window is resized
	// across a threshold.
	HysteresisMargin = 5
)

func (t Tier) String() string {
	switch t {
	case TierNarrow:
		return "narrow"
	case TierSplit:
		return "split"
	case TierWide:
		return "wide"
	}
	return "unknown"
}

// TierForWidth maps a terminal width to a tier.
func TierForWidth(width int) Tier {
	switch {
	case width >= WideViewThreshold:
		return TierWide
	case width >= SplitViewThreshold:
		return TierSplit
	default:
		return TierNarrow
	}
}

var thresholds = [...]int{0, SplitViewThreshold, WideViewThreshold}

// TierForWidthWithHysteresis is TierForWidth, except that leaving prev
// requires crossing its boundary by HysteresisMargin columns.
func TierForWidthWithHysteresis(width int, prev Tier) Tier {
	next := TierForWidth(width)
	if prev < TierNarrow || prev > TierWide || next == prev {
		return next
	}
	if next > prev {
		// Growing: the next tier's threshold plus margin must be reached.
		if width < thresholds[prev+1]+HysteresisMargin {
			return prev
		}
		return next
	}
	// Shrinking: stay until width drops margin below prev's own threshold.
	if width >= thresholds[prev]-HysteresisMargin {
		return prev
	}
	return next
}

// SplitProportions divides total into timeline and side-panel widths. Below
// SplitViewThreshold the side panel gets nothing.
func SplitProportions(total int) (timeline, side int) {
	if total < SplitViewThreshold {
		if total < 0 {
			return 0, 0
		}
		return total, 0
	}
	avail := total - 2
	side = clamp(avail*3/10, 28, 48)
	return avail - side, side
}

// WideProportions divides total into timeline, side and detail widths. Below
// WideViewThreshold it falls back to SplitProportions.
func WideProportions(total int) (timeline, side, detail int) {
	if total < WideViewThreshold {
		timeline, side = SplitProportions(total)
		return timeline, side, 0
	}
	avail := total - 4
	side = clamp(avail/4, 28, 48)
	detail = clamp(avail/4, 30, 56)
	return avail - side - detail, side, detail
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Columns converts an overlap column's horizontal placement, given as
// percentages of the lane, into a starting cell and a width in cells within
// a lane of laneWidth cells. Edges are rounded independently so adjacent
// columns tile the lane without gaps. Every column gets at least one cell.
func Columns(laneWidth int, offsetPercent, widthPercent float64) (x, w int) {
	if laneWidth <= 0 {
		return 0, 0
	}
	left := int(math.Round(float64(laneWidth) * offsetPercent / 100))
	right := int(math.Round(float64(laneWidth) * (offsetPercent + widthPercent) / 100))
	left = clamp(left, 0, laneWidth-1)
	right = clamp(right, left+1, laneWidth)
	return left, right - left
}

// Rows converts a fractional top and height, in rows, into a starting row
// and a row count of at least one.
func Rows(top, height float64) (row, count int) {
	row = int(math.Floor(top + 1e-9))
	end := int(math.Ceil(top + height - 1e-9))
	if end <= row {
		end = row + 1
	}
	return row, end - row
}

// TruncateWidth truncates s to maxWidth terminal cells, appending suffix when
// it was cut. ANSI sequences are preserved.
func TruncateWidth(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= maxWidth {
		return s
	}
	if runewidth.StringWidth(suffix) >= maxWidth {
		return truncate.String(s, uint(maxWidth))
	}
	return truncate.StringWithTail(s, uint(maxWidth), suffix)
}

// TruncateWidthDefault is TruncateWidth with "…".
func TruncateWidthDefault(s string, maxWidth int) string {
	return TruncateWidth(s, maxWidth, "…")
}

// TruncateMiddle keeps both ends of s and elides the middle with "…".
func TruncateMiddle(s string, maxWidth int) string {
	return TruncateMiddleWidth(s, maxWidth, "…")
}

// TruncateMiddleWidth keeps both ends of s within maxWidth cells, joining
// them with ellipsis.
func TruncateMiddleWidth(s string, maxWidth int, ellipsis string) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	ew := runewidth.StringWidth(ellipsis)
	if ew >= maxWidth {
		return runewidth.Truncate(s, maxWidth, "")
	}

	budget := maxWidth - ew
	headBudget := (budget + 1) / 2
	tailBudget := budget - headBudget

	runes := []rune(s)
	var head []rune
	w := 0
	for _, r := range runes {
		rw := runewidth.RuneWidth(r)
		if w+rw > headBudget {
			break
		}
		head = append(head, r)
		w += rw
	}
	var tail []rune
	w = 0
	for i := len(runes) - 1; i >= len(head); i-- {
		rw := runewidth.RuneWidth(runes[i])
		if w+rw > tailBudget {
			break
		}
		tail = append([]rune{runes[i]}, tail...)
		w += rw
	}
	return string(head) + ellipsis + string(tail)
}
