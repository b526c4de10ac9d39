// Package engine runs the render pass that turns task text into positioned
// timeline records, and applies drops and completion toggles by handing the
// rewritten line to a caller-supplied mutation callback.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"time"

	"github.com/dayplan/dayplan/internal/axis"
	"github.com/dayplan/dayplan/internal/drag"
	"github.com/dayplan/dayplan/internal/nowline"
	"github.com/dayplan/dayplan/internal/overlap"
	"github.com/dayplan/dayplan/internal/position"
	"github.com/dayplan/dayplan/internal/tasks"
)

// ErrDraggingDisabled is returned by Drop and Shift when dragging is turned off.
var ErrDraggingDisabled = errors.New("dragging is disabled")

// Intervals lists the supported tick intervals in minutes.
var Intervals = []int{5, 10, 15, 20, 30, 60}

// DefaultInterval is the tick interval used when none is configured.
const DefaultInterval = 30

// ValidInterval reports whether minutes is one of Intervals.
func ValidInterval(minutes int) bool {
	for _, v := range Intervals {
		if v == minutes {
			return true
		}
	}
	return false
}

// Config is the engine's input configuration.
type Config struct {
	IntervalMinutes int
	EnableDragging  bool
	RowsPerTick     float64 // nominal height of one tick row
	MinHeight       float64 // floor for record heights
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		IntervalMinutes: DefaultInterval,
		EnableDragging:  true,
		RowsPerTick:     2,
		MinHeight:       position.DefaultMinHeight,
	}
}

// Step returns the tick interval. Unsupported values fall back to
// DefaultInterval.
func (c Config) Step() time.Duration {
	if !ValidInterval(c.IntervalMinutes) {
		return DefaultInterval * time.Minute
	}
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// Record is one positioned task.
type Record struct {
	Task          tasks.Item
	Start         time.Time
	End           time.Time
	Top           float64
	Height        float64
	OffsetPercent float64
	WidthPercent  float64
	Column        int
	GroupSize     int
}

// NowMarker is the current-time indicator for a pass.
type NowMarker struct {
	At      time.Time
	Offset  float64
	InRange bool
}

// Result is the output of one render pass.
type Result struct {
	Document  tasks.Document
	Records   []Record
	Timeless  []tasks.Item
	Axis      axis.Axis
	Positions *position.Context
	Now       NowMarker
	Empty     bool // the text holds no tasks at all
	Err       error
	Elapsed   time.Duration
}

// Record returns the record for a task ID.
func (r Result) Record(id string) (Record, bool) {
	for _, rec := range r.Records {
		if rec.Task.ID == id {
			return rec, true
		}
	}
	return Record{}, false
}

// Item returns any task, timed or not, by ID.
func (r Result) Item(id string) (tasks.Item, bool) {
	return r.Document.Find(id)
}

// Advance returns r with the now marker moved to now. Records keep their
// positions, so relative tokens stay where the pass resolved them.
func (r Result) Advance(now time.Time) Result {
	r.Now = NowMarker{At: now}
	r.Now.Offset, r.Now.InRange = nowline.Position(r.Positions, now)
	return r
}

type pass struct {
	now      time.Time
	geometry position.Geometry
	logger   *slog.Logger
}

// Option configures a single render pass.
type Option func(*pass)

// WithNow fixes the instant relative tokens and the now marker resolve
// against. Without it the pass samples time.Now once at its start.
func WithNow(now time.Time) Option {
	return func(p *pass) { p.now = now }
}

// WithGeometry supplies measured tick-row heights from the display surface.
func WithGeometry(g position.Geometry) Option {
	return func(p *pass) { p.geometry = g }
}

// WithLogger sets the logger for the pass.
func WithLogger(l *slog.Logger) Option {
	return func(p *pass) {
		if l != nil {
			p.logger = l
		}
	}
}

// Render parses text and lays it out. It never panics: any failure inside the
// pass is reported through Result.Err.
func Render(text string, cfg Config, opts ...Option) (res Result) {
	p := pass{logger: slog.Default()}
	for _, opt := range opts {
		opt(&p)
	}
	if p.now.IsZero() {
		p.now = time.Now()
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("render pass panicked", "panic", r, "stack", string(debug.Stack()))
			res = Result{Err: fmt.Errorf("render: %v", r)}
		}
	}()

	began := time.Now()
	res = render(text, cfg, p)
	res.Elapsed = time.Since(began)
	p.logger.Debug("render pass",
		"tasks", len(res.Document.Items),
		"timed", len(res.Records),
		"ticks", len(res.Axis.Ticks),
		"elapsed", res.Elapsed)
	return res
}

func render(text string, cfg Config, p pass) Result {
	step := cfg.Step()
	doc := tasks.ParseDocument(text, p.now)
	res := Result{
		Document: doc,
		Empty:    len(doc.Items) == 0,
		Now:      NowMarker{At: p.now},
	}

	var (
		spans []axis.Span
		items []overlap.Item
		timed = make(map[string]tasks.Item)
	)
	for _, it := range doc.Items {
		start, end, ok := it.Span(step)
		if !ok {
			if len(it.Tokens) > 0 {
				p.logger.Debug("unparsed time token", "line", it.Line, "tokens", len(it.Tokens))
			}
			res.Timeless = append(res.Timeless, it)
			continue
		}
		if !end.After(start) {
			end = start.Add(step)
		}
		spans = append(spans, axis.Span{Start: start, End: end})
		items = append(items, overlap.Item{ID: it.ID, Start: start, End: end})
		timed[it.ID] = it
	}

	res.Axis = axis.Build(spans, step)
	ctx := position.NewContext(res.Axis.Ticks, step, cfg.RowsPerTick, p.geometry)
	if cfg.MinHeight > 0 {
		ctx.MinHeight = cfg.MinHeight
	}
	res.Positions = ctx

	bounds := make(map[string]overlap.Item, len(items))
	for _, it := range items {
		bounds[it.ID] = it
	}
	for _, a := range overlap.Layout(items) {
		b := bounds[a.TaskID]
		pos := ctx.Map(b.Start, b.End)
		res.Records = append(res.Records, Record{
			Task:          timed[a.TaskID],
			Start:         b.Start,
			End:           b.End,
			Top:           pos.Top,
			Height:        pos.Height,
			OffsetPercent: overlap.OffsetPercent(a.Column, a.GroupSize),
			WidthPercent:  overlap.WidthPercent(a.GroupSize),
			Column:        a.Column,
			GroupSize:     a.GroupSize,
		})
	}
	sort.SliceStable(res.Records, func(i, j int) bool {
		if !res.Records[i].Start.Equal(res.Records[j].Start) {
			return res.Records[i].Start.Before(res.Records[j].Start)
		}
		return res.Records[i].Column < res.Records[j].Column
	})

	off, in := nowline.Position(ctx, p.now)
	res.Now.Offset, res.Now.InRange = off, in
	return res
}

// MutationFunc receives the original and rewritten text of a changed task line.
// Persisting the change is up to the implementation.
type MutationFunc func(oldLine, newLine string) error

// Engine pairs a configuration with the mutation callback used by drops and
// toggles.
type Engine struct {
	cfg    Config
	mutate MutationFunc
	opts   []Option
}

// New creates an Engine. opts apply to every Render call.
func New(cfg Config, mutate MutationFunc, opts ...Option) *Engine {
	return &Engine{cfg: cfg, mutate: mutate, opts: opts}
}

// Config returns the current configuration.
func (e *Engine) Config() Config { return e.cfg }

// SetInterval changes the tick interval.
func (e *Engine) SetInterval(minutes int) error {
	if !ValidInterval(minutes) {
		return fmt.Errorf("unsupported interval %d (want one of %v)", minutes, Intervals)
	}
	e.cfg.IntervalMinutes = minutes
	return nil
}

// Render runs a pass with the engine's configuration.
func (e *Engine) Render(text string, opts ...Option) Result {
	all := make([]Option, 0, len(e.opts)+len(opts))
	all = append(all, e.opts...)
	all = append(all, opts...)
	return Render(text, e.cfg, all...)
}

// Drop moves item to the quantized dropped instant and reports the rewritten
// line through the mutation callback.
func (e *Engine) Drop(item tasks.Item, dropped time.Time) (drag.Result, error) {
	if !e.cfg.EnableDragging {
		return drag.Result{}, ErrDraggingDisabled
	}
	res, err := drag.Drop(item, dropped, e.cfg.Step())
	if err != nil {
		return drag.Result{}, err
	}
	return res, e.apply(res.OldLine, res.NewLine)
}

// Shift moves item by steps grid intervals.
func (e *Engine) Shift(item tasks.Item, steps int) (drag.Result, error) {
	if !e.cfg.EnableDragging {
		return drag.Result{}, ErrDraggingDisabled
	}
	res, err := drag.Shift(item, steps, e.cfg.Step())
	if err != nil {
		return drag.Result{}, err
	}
	return res, e.apply(res.OldLine, res.NewLine)
}

// Toggle flips item's completion checkbox and reports the rewritten line.
func (e *Engine) Toggle(item tasks.Item) (string, error) {
	newLine, err := tasks.ToggleLine(item.SourceLine)
	if err != nil {
		return "", err
	}
	return newLine, e.apply(item.SourceLine, newLine)
}

func (e *Engine) apply(oldLine, newLine string) error {
	if oldLine == newLine || e.mutate == nil {
		return nil
	}
	if err := e.mutate(oldLine, newLine); err != nil {
		return fmt.Errorf("apply change: %w", err)
	}
	return nil
}
