package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dayplan/dayplan/internal/engine"
	"github.com/dayplan/dayplan/internal/tasks"
)

const clockFormat = "15:04"

// LayoutResponse is the machine-readable form of a render pass.
type LayoutResponse struct {
	TimestampedResponse `yaml:",inline"`
	File                string        `json:"file,omitempty" yaml:"file,omitempty"`
	IntervalMinutes     int           `json:"interval_minutes" yaml:"interval_minutes"`
	Now                 NowInfo       `json:"now" yaml:"now"`
	Windows             []WindowInfo  `json:"windows" yaml:"windows"`
	Ticks               []string      `json:"ticks" yaml:"ticks"`
	Tasks               []TaskLayout  `json:"tasks" yaml:"tasks"`
	Untimed             []UntimedTask `json:"untimed" yaml:"untimed"`
	Error               string        `json:"error,omitempty" yaml:"error,omitempty"`

	labelWidth int
}

// DefaultLabelWidth caps task labels in the text table.
const DefaultLabelWidth = 40

// WithLabelWidth returns a copy whose text table truncates labels to n cells.
// Values below 12 are raised to 12.
func (r LayoutResponse) WithLabelWidth(n int) LayoutResponse {
	if n < 12 {
		n = 12
	}
	r.labelWidth = n
	return r
}

// NowInfo describes the current-time marker.
type NowInfo struct {
	At      string  `json:"at" yaml:"at"`
	InRange bool    `json:"in_range" yaml:"in_range"`
	Offset  float64 `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// WindowInfo is one contiguous stretch of the axis.
type WindowInfo struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// TaskLayout is one positioned task.
type TaskLayout struct {
	ID            string  `json:"id" yaml:"id"`
	Line          int     `json:"line" yaml:"line"` // 1-based
	Label         string  `json:"label" yaml:"label"`
	Completed     bool    `json:"completed" yaml:"completed"`
	Kind          string  `json:"kind" yaml:"kind"`
	Start         string  `json:"start" yaml:"start"`
	End           string  `json:"end" yaml:"end"`
	Due           string  `json:"due,omitempty" yaml:"due,omitempty"`
	Top           float64 `json:"top" yaml:"top"`
	Height        float64 `json:"height" yaml:"height"`
	Column        int     `json:"column" yaml:"column"`
	GroupSize     int     `json:"group_size" yaml:"group_size"`
	OffsetPercent float64 `json:"offset_percent" yaml:"offset_percent"`
	WidthPercent  float64 `json:"width_percent" yaml:"width_percent"`
}

// UntimedTask is a task without a usable time token.
type UntimedTask struct {
	ID        string `json:"id" yaml:"id"`
	Line      int    `json:"line" yaml:"line"`
	Label     string `json:"label" yaml:"label"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// NewLayoutResponse converts a render result. Times are wall-clock HH:MM.
func NewLayoutResponse(file string, interval int, res engine.Result) LayoutResponse {
	resp := LayoutResponse{
		TimestampedResponse: NewTimestamped(),
		File:                file,
		IntervalMinutes:     interval,
		Now: NowInfo{
			At:      clock(res.Now.At),
			InRange: res.Now.InRange,
		},
		Windows: []WindowInfo{},
		Ticks:   make([]string, 0, len(res.Axis.Ticks)),
		Tasks:   make([]TaskLayout, 0, len(res.Records)),
		Untimed: make([]UntimedTask, 0, len(res.Timeless)),
	}
	if res.Now.InRange {
		resp.Now.Offset = round2(res.Now.Offset)
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	for _, w := range res.Axis.Windows {
		resp.Windows = append(resp.Windows, WindowInfo{Start: clock(w.Start), End: clock(w.End)})
	}
	for _, t := range res.Axis.Ticks {
		resp.Ticks = append(resp.Ticks, clock(t))
	}
	for _, r := range res.Records {
		tl := TaskLayout{
			ID:            r.Task.ID,
			Line:          r.Task.Line + 1,
			Label:         r.Task.Label,
			Completed:     r.Task.Completed,
			Kind:          r.Task.Interval.Kind.String(),
			Start:         clock(r.Start),
			End:           clock(r.End),
			Top:           round2(r.Top),
			Height:        round2(r.Height),
			Column:        r.Column,
			GroupSize:     r.GroupSize,
			OffsetPercent: round2(r.OffsetPercent),
			WidthPercent:  round2(r.WidthPercent),
		}
		if r.Task.Interval.HasDue() {
			tl.Due = clock(r.Task.Interval.Due)
		}
		resp.Tasks = append(resp.Tasks, tl)
	}
	for _, it := range res.Timeless {
		resp.Untimed = append(resp.Untimed, untimed(it))
	}
	return resp
}

func untimed(it tasks.Item) UntimedTask {
	return UntimedTask{ID: it.ID, Line: it.Line + 1, Label: it.Label, Completed: it.Completed}
}

func clock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(clockFormat)
}

func round2(f float64) float64 {
	if f < 0 {
		return -round2(-f)
	}
	return float64(int64(f*100+0.5)) / 100
}

// WriteText renders the layout as a table followed by the untimed tasks.
func (r LayoutResponse) WriteText(w io.Writer) error {
	if r.Error != "" {
		fmt.Fprintf(w, "render error: %s\n", r.Error)
		return nil
	}
	if len(r.Tasks) == 0 && len(r.Untimed) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return nil
	}

	if len(r.Tasks) > 0 {
		spans := make([]string, len(r.Windows))
		for i, win := range r.Windows {
			spans[i] = win.Start + "-" + win.End
		}
		fmt.Fprintf(w, "Axis %s every %dmin", strings.Join(spans, ", "), r.IntervalMinutes)
		if r.Now.InRange {
			fmt.Fprintf(w, ", now %s at row %.2f", r.Now.At, r.Now.Offset)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w)

		width := r.labelWidth
		if width == 0 {
			width = DefaultLabelWidth
		}
		table := NewTable(w, "LINE", "TIME", "TASK", "COLUMN", "WIDTH", "TOP", "HEIGHT")
		for _, t := range r.Tasks {
			label := t.Label
			if t.Completed {
				label = "✓ " + label
			}
			table.AddRow(
				fmt.Sprintf("%d", t.Line),
				t.Start+"-"+t.End,
				Truncate(label, width),
				fmt.Sprintf("%d/%d", t.Column+1, t.GroupSize),
				fmt.Sprintf("%.1f%%", t.WidthPercent),
				fmt.Sprintf("%.2f", t.Top),
				fmt.Sprintf("%.2f", t.Height),
			)
		}
		table.Render()
	}

	if len(r.Untimed) > 0 {
		if len(r.Tasks) > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Untimed (%s)\n", CountStr(len(r.Untimed), "task", "tasks"))
		for _, t := range r.Untimed {
			box := "[ ]"
			if t.Completed {
				box = "[x]"
			}
			fmt.Fprintf(w, "  %3d  %s %s\n", t.Line, box, t.Label)
		}
	}
	return nil
}
