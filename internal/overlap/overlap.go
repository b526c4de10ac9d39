// Package overlap packs overlapping task spans into side-by-side columns.
package overlap

import (
	"sort"
	"time"
)

// Item is a span to lay out.
type Item struct {
	ID    string
	Start time.Time
	End   time.Time
}

// Assignment places one item in a column of its overlap group.
type Assignment struct {
	TaskID    string
	Column    int // 0-based lane within the group
	GroupSize int // number of lanes in the group
}

// Layout groups items that overlap directly or transitively and assigns each a
// column. Columns are filled greedily by earliest fit, which yields the
// minimum column count for each group: the largest number of items that are
// active at the same instant. Spans are half-open, so an item ending exactly
// when another starts frees its column.
//
// Assignments are returned in start order.
func Layout(items []Item) []Assignment {
	if len(items) == 0 {
		return nil
	}

	sorted := normalize(items)
	out := make([]Assignment, 0, len(sorted))
	for _, group := range groups(sorted) {
		var columnEnds []time.Time
		first := len(out)
		for _, it := range group {
			col := -1
			for c, end := range columnEnds {
				if !end.After(it.Start) {
					col = c
					break
				}
			}
			if col < 0 {
				col = len(columnEnds)
				columnEnds = append(columnEnds, it.End)
			} else {
				columnEnds[col] = it.End
			}
			out = append(out, Assignment{TaskID: it.ID, Column: col})
		}
		size := len(columnEnds)
		if size < 1 {
			size = 1
		}
		for i := first; i < len(out); i++ {
			out[i].GroupSize = size
		}
	}
	return out
}

// Groups partitions items into overlap groups with a single sweep: an item joins
// the current group when it starts no later than the group's running maximum end.
func Groups(items []Item) [][]Item {
	return groups(normalize(items))
}

func groups(sorted []Item) [][]Item {
	if len(sorted) == 0 {
		return nil
	}
	var out [][]Item
	cur := []Item{sorted[0]}
	maxEnd := sorted[0].End
	for _, it := range sorted[1:] {
		if !it.Start.After(maxEnd) {
			cur = append(cur, it)
			if it.End.After(maxEnd) {
				maxEnd = it.End
			}
			continue
		}
		out = append(out, cur)
		cur = []Item{it}
		maxEnd = it.End
	}
	return append(out, cur)
}

func normalize(items []Item) []Item {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	for i := range sorted {
		if sorted[i].End.Before(sorted[i].Start) {
			sorted[i].End = sorted[i].Start
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].End.Before(sorted[j].End)
	})
	return sorted
}

// MaxConcurrent returns the largest number of half-open spans active at one
// instant. Zero-length spans are never active.
func MaxConcurrent(items []Item) int {
	type edge struct {
		at    time.Time
		delta int
	}
	edges := make([]edge, 0, 2*len(items))
	for _, it := range items {
		end := it.End
		if end.Before(it.Start) {
			end = it.Start
		}
		edges = append(edges, edge{it.Start, 1}, edge{end, -1})
	}
	sort.Slice(edges, func(i, j int) bool {
		if !edges[i].at.Equal(edges[j].at) {
			return edges[i].at.Before(edges[j].at)
		}
		return edges[i].delta < edges[j].delta
	})
	best, cur := 0, 0
	for _, e := range edges {
		cur += e.delta
		if cur > best {
			best = cur
		}
	}
	return best
}

// ByTask indexes assignments by task ID.
func ByTask(as []Assignment) map[string]Assignment {
	m := make(map[string]Assignment, len(as))
	for _, a := range as {
		m[a.TaskID] = a
	}
	return m
}

// WidthPercent returns a task's width as a percentage of the lane area. Groups
// of three shrink to 0.68 and larger groups to 0.5 of their even share.
func WidthPercent(groupSize int) float64 {
	if groupSize < 1 {
		groupSize = 1
	}
	w := 100 / float64(groupSize)
	switch {
	case groupSize == 3:
		w *= 0.68
	case groupSize > 3:
		w *= 0.5
	}
	return w
}

// OffsetPercent returns a task's left offset as a percentage of the lane area.
func OffsetPercent(column, groupSize int) float64 {
	if groupSize < 1 {
		groupSize = 1
	}
	return float64(column) * (100 / float64(groupSize))
}
