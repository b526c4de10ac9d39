package panels

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dayplan/dayplan/internal/drag"
	"github.com/dayplan/dayplan/internal/engine"
	"github.com/dayplan/dayplan/internal/tasks"
	"github.com/dayplan/dayplan/internal/tui/layout"
	"github.com/dayplan/dayplan/internal/tui/theme"
)

const (
	// gutterWidth is the tick label column plus its separator: "09:00 │".
	gutterWidth = 7
	// chromeTop is the border and the two header lines above the grid.
	chromeTop = 3
	// chromeLeft is the border and the left padding.
	chromeLeft = 2
)

// timelineConfig returns the configuration for the timeline panel
func timelineConfig() PanelConfig {
	return PanelConfig{
		ID:        "timeline",
		Title:     "Today",
		Priority:  PriorityCritical,
		MinWidth:  30,
		MinHeight: 8,
		MinTier:   layout.TierNarrow,
	}
}

// DropRequestMsg asks for a task to be moved so that it starts at At. For
// deadline-only tasks At is the new deadline.
type DropRequestMsg struct {
	Item tasks.Item
	At   time.Time
}

// ShiftRequestMsg asks for a task to be moved by whole grid steps.
type ShiftRequestMsg struct {
	Item  tasks.Item
	Steps int
}

// ToggleRequestMsg asks for a task's checkbox to be flipped.
type ToggleRequestMsg struct {
	Item tasks.Item
}

type dragState struct {
	id    string
	mouse bool
	steps int     // keyboard drags
	grab  float64 // mouse drags: rows between the box top and the pointer
	top   float64 // mouse drags: preview top in axis rows
}

// TimelinePanel draws timed tasks against a vertical time axis.
type TimelinePanel struct {
	PanelBase
	theme  theme.Theme
	result engine.Result
	err    error
	cursor int
	scroll int

	drag          *dragState
	dragEnabled   bool
	showCompleted bool
}

// NewTimelinePanel creates a new timeline panel
func NewTimelinePanel() *TimelinePanel {
	return &TimelinePanel{
		PanelBase:     NewPanelBase(timelineConfig()),
		theme:         theme.Current(),
		dragEnabled:   true,
		showCompleted: true,
	}
}

// SetTheme replaces the palette.
func (m *TimelinePanel) SetTheme(t theme.Theme) { m.theme = t }

// SetDragEnabled turns moving tasks on or off. Disabling cancels any drag
// in progress.
func (m *TimelinePanel) SetDragEnabled(enabled bool) {
	m.dragEnabled = enabled
	if !enabled {
		m.drag = nil
	}
}

// SetShowCompleted controls whether checked-off tasks are drawn.
func (m *TimelinePanel) SetShowCompleted(show bool) {
	m.showCompleted = show
	m.clampCursor()
}

// SetResult installs a new render pass. The selection follows the selected
// task's ID across passes.
func (m *TimelinePanel) SetResult(res engine.Result) {
	prev, hadPrev := m.Selected()
	first := m.result.Positions == nil

	m.result = res
	m.err = res.Err
	if res.Err == nil {
		m.SetLastUpdate(time.Now())
	}

	if m.drag != nil {
		if _, ok := res.Record(m.drag.id); !ok {
			m.drag = nil
		}
	}

	m.cursor = 0
	if hadPrev {
		for i, rec := range m.records() {
			if rec.Task.ID == prev.Task.ID {
				m.cursor = i
				break
			}
		}
	}
	m.clampCursor()
	if first {
		m.ScrollToNow()
	}
	m.clampScroll()
}

// SetError shows err in the panel header.
func (m *TimelinePanel) SetError(err error) { m.err = err }

// HasError returns true if there's an active error
func (m *TimelinePanel) HasError() bool {
	return m.err != nil
}

// Result returns the pass being displayed.
func (m *TimelinePanel) Result() engine.Result { return m.result }

// Selected returns the selected record.
func (m *TimelinePanel) Selected() (engine.Record, bool) {
	recs := m.records()
	if m.cursor < 0 || m.cursor >= len(recs) {
		return engine.Record{}, false
	}
	return recs[m.cursor], true
}

// Select moves the selection to the task with id.
func (m *TimelinePanel) Select(id string) bool {
	for i, rec := range m.records() {
		if rec.Task.ID == id {
			m.cursor = i
			m.ensureVisible()
			return true
		}
	}
	return false
}

// Dragging reports whether a move is being previewed.
func (m *TimelinePanel) Dragging() bool { return m.drag != nil }

// CancelDrag drops the move preview.
func (m *TimelinePanel) CancelDrag() { m.drag = nil }

func (m *TimelinePanel) records() []engine.Record {
	if m.showCompleted {
		return m.result.Records
	}
	out := make([]engine.Record, 0, len(m.result.Records))
	for _, rec := range m.result.Records {
		if !rec.Task.Completed {
			out = append(out, rec)
		}
	}
	return out
}

func (m *TimelinePanel) clampCursor() {
	n := len(m.records())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// gridRows is the number of axis rows visible at once.
func (m *TimelinePanel) gridRows() int {
	rows := m.Height() - chromeTop - 2 // bottom border and footer
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m *TimelinePanel) totalRows() int {
	if m.result.Positions == nil {
		return 0
	}
	return int(math.Ceil(m.result.Positions.Total()))
}

func (m *TimelinePanel) clampScroll() {
	maxScroll := m.totalRows() - m.gridRows()
	if m.scroll > maxScroll {
		m.scroll = maxScroll
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

func (m *TimelinePanel) ensureVisible() {
	rec, ok := m.Selected()
	if !ok {
		return
	}
	row, count := layout.Rows(rec.Top, rec.Height)
	visible := m.gridRows()
	if row < m.scroll {
		m.scroll = row
	} else if row+count > m.scroll+visible {
		m.scroll = row + count - visible
	}
	m.clampScroll()
}

// ScrollToNow centers the now marker, or shows the top of the axis when the
// marker is off the axis.
func (m *TimelinePanel) ScrollToNow() {
	if m.result.Now.InRange {
		m.scroll = int(m.result.Now.Offset) - m.gridRows()/2
	} else {
		m.scroll = 0
	}
	m.clampScroll()
}

// selectNearestNow selects the first task still running or upcoming.
func (m *TimelinePanel) selectNearestNow() {
	now := m.result.Now.At
	for i, rec := range m.records() {
		if rec.End.After(now) {
			m.cursor = i
			return
		}
	}
	m.cursor = len(m.records()) - 1
	m.clampCursor()
}

// Init implements tea.Model
func (m *TimelinePanel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model. Mouse messages must carry coordinates
// relative to the panel's top-left corner.
func (m *TimelinePanel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.MouseMsg:
		return m, m.handleMouse(msg)
	case tea.KeyMsg:
		if !m.IsFocused() {
			return m, nil
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *TimelinePanel) handleKey(msg tea.KeyMsg) tea.Cmd {
	recs := m.records()
	switch msg.String() {
	case "up", "k":
		if m.drag == nil && m.cursor > 0 {
			m.cursor--
			m.ensureVisible()
		}
	case "down", "j":
		if m.drag == nil && m.cursor < len(recs)-1 {
			m.cursor++
			m.ensureVisible()
		}
	case "K", "shift+up":
		m.nudge(-1)
	case "J", "shift+down":
		m.nudge(1)
	case "enter":
		return m.commitDrag()
	case "esc":
		m.drag = nil
	case "x", " ":
		if rec, ok := m.Selected(); ok && m.drag == nil {
			item := rec.Task
			return func() tea.Msg { return ToggleRequestMsg{Item: item} }
		}
	case "g":
		m.selectNearestNow()
		m.ScrollToNow()
	case "home":
		m.cursor = 0
		m.ensureVisible()
	case "end", "G":
		m.cursor = len(recs) - 1
		m.clampCursor()
		m.ensureVisible()
	case "pgup":
		m.scroll -= m.gridRows()
		m.clampScroll()
	case "pgdown":
		m.scroll += m.gridRows()
		m.clampScroll()
	}
	return nil
}

// nudge starts or extends a keyboard drag of the selected task.
func (m *TimelinePanel) nudge(steps int) {
	if !m.dragEnabled {
		return
	}
	rec, ok := m.Selected()
	if !ok {
		return
	}
	if m.drag == nil || m.drag.mouse || m.drag.id != rec.Task.ID {
		m.drag = &dragState{id: rec.Task.ID}
	}
	m.drag.steps += steps
	if top, height, _, ok := m.preview(); ok {
		row, count := layout.Rows(top, height)
		if row < m.scroll {
			m.scroll = row
		} else if row+count > m.scroll+m.gridRows() {
			m.scroll = row + count - m.gridRows()
		}
		m.clampScroll()
	}
}

func (m *TimelinePanel) commitDrag() tea.Cmd {
	d := m.drag
	if d == nil {
		return nil
	}
	m.drag = nil
	rec, ok := m.result.Record(d.id)
	if !ok {
		return nil
	}
	item := rec.Task
	if !d.mouse {
		if d.steps == 0 {
			return nil
		}
		steps := d.steps
		return func() tea.Msg { return ShiftRequestMsg{Item: item, Steps: steps} }
	}
	at, ok := m.mouseTarget(rec, d)
	if !ok || at.Equal(anchor(rec)) {
		return nil
	}
	return func() tea.Msg { return DropRequestMsg{Item: item, At: at} }
}

// anchor is the instant a drop moves: the start, or the deadline for
// deadline-only tasks.
func anchor(rec engine.Record) time.Time {
	if rec.Task.Interval.HasStart() {
		return rec.Start
	}
	return rec.End
}

// mouseTarget converts a mouse drag into the quantized anchor instant.
func (m *TimelinePanel) mouseTarget(rec engine.Record, d *dragState) (time.Time, bool) {
	ctx := m.result.Positions
	if ctx == nil {
		return time.Time{}, false
	}
	at, ok := ctx.InstantAt(d.top)
	if !ok {
		return time.Time{}, false
	}
	at = at.Add(anchor(rec).Sub(rec.Start))
	return drag.Quantize(at, m.result.Axis.Step), true
}

// preview returns where the dragged task would land.
func (m *TimelinePanel) preview() (top, height float64, at time.Time, ok bool) {
	d := m.drag
	ctx := m.result.Positions
	if d == nil || ctx == nil {
		return 0, 0, time.Time{}, false
	}
	rec, found := m.result.Record(d.id)
	if !found {
		return 0, 0, time.Time{}, false
	}
	step := m.result.Axis.Step
	base := anchor(rec)
	if d.mouse {
		at, ok = m.mouseTarget(rec, d)
		if !ok {
			return 0, 0, time.Time{}, false
		}
	} else {
		at = drag.Quantize(base.Add(time.Duration(d.steps)*step), step)
	}
	delta := at.Sub(base)
	pos := ctx.Map(rec.Start.Add(delta), rec.End.Add(delta))
	return pos.Top, pos.Height, at, true
}

// recordAt returns the index of the record drawn at a grid cell.
func (m *TimelinePanel) recordAt(laneX int, row float64) (int, bool) {
	laneW := m.laneWidth()
	for i := len(m.records()) - 1; i >= 0; i-- {
		rec := m.records()[i]
		top, count := layout.Rows(rec.Top, rec.Height)
		x, w := layout.Columns(laneW, rec.OffsetPercent, rec.WidthPercent)
		r := int(math.Floor(row))
		if r >= top && r < top+count && laneX >= x && laneX < x+w {
			return i, true
		}
	}
	return 0, false
}

func (m *TimelinePanel) laneWidth() int {
	w := m.Width() - 2*chromeLeft - gutterWidth
	if w < 1 {
		w = 1
	}
	return w
}

func (m *TimelinePanel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.scroll -= 2
		m.clampScroll()
		return nil
	case tea.MouseButtonWheelDown:
		m.scroll += 2
		m.clampScroll()
		return nil
	}

	laneX := msg.X - chromeLeft - gutterWidth
	row := float64(msg.Y-chromeTop+m.scroll) + 0.5

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || msg.Y < chromeTop {
			return nil
		}
		i, ok := m.recordAt(laneX, row)
		if !ok {
			return nil
		}
		m.cursor = i
		if m.dragEnabled {
			rec := m.records()[i]
			pointer := math.Floor(row)
			m.drag = &dragState{id: rec.Task.ID, mouse: true, grab: pointer - rec.Top, top: rec.Top}
		}
	case tea.MouseActionMotion:
		if m.drag != nil && m.drag.mouse {
			m.drag.top = math.Floor(row) - m.drag.grab
			if m.drag.top < 0 {
				m.drag.top = 0
			}
		}
	case tea.MouseActionRelease:
		if m.drag != nil && m.drag.mouse {
			return m.commitDrag()
		}
	}
	return nil
}

// Keybindings returns timeline panel specific shortcuts
func (m *TimelinePanel) Keybindings() []Keybinding {
	return []Keybinding{
		{
			Key:         key.NewBinding(key.WithKeys("up", "k", "down", "j"), key.WithHelp("j/k", "select")),
			Description: "Select previous or next task",
			Action:      "select",
		},
		{
			Key:         key.NewBinding(key.WithKeys("J", "K"), key.WithHelp("J/K", "move")),
			Description: "Preview moving the task by one step",
			Action:      "move",
		},
		{
			Key:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
			Description: "Apply the previewed move",
			Action:      "drop",
		},
		{
			Key:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
			Description: "Cancel the previewed move",
			Action:      "cancel",
		},
		{
			Key:         key.NewBinding(key.WithKeys("x", " "), key.WithHelp("x", "toggle")),
			Description: "Toggle completion",
			Action:      "toggle",
		},
		{
			Key:         key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "now")),
			Description: "Jump to now",
			Action:      "now",
		},
	}
}

// View renders the panel
func (m *TimelinePanel) View() string {
	t := m.theme
	w, h := m.Width(), m.Height()
	if w <= 4 || h <= 4 {
		return ""
	}

	borderColor := t.Surface1
	if m.IsFocused() {
		borderColor = t.Primary
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(w-2).
		Padding(0, 1)

	var content strings.Builder

	// Build header with error badge if needed
	title := m.Config().Title
	if m.result.Axis.Step > 0 {
		title = fmt.Sprintf("%s · %s", title, stepLabel(m.result.Axis.Step))
	}
	if m.err != nil {
		errorBadge := lipgloss.NewStyle().
			Background(t.Red).
			Foreground(t.Base).
			Bold(true).
			Padding(0, 1).
			Render("⚠ Error")
		title = title + " " + errorBadge
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Lavender).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(t.Surface1).
		Width(w - 4).
		Align(lipgloss.Center)

	content.WriteString(headerStyle.Render(title) + "\n")

	inner := w - 4
	rows := m.gridRows()

	switch {
	case m.err != nil:
		msg := lipgloss.NewStyle().Foreground(t.Error).Render(layout.TruncateWidthDefault(m.err.Error(), inner))
		content.WriteString(msg + "\n")
	case m.result.Empty:
		content.WriteString(m.emptyState("No tasks yet", `Add a line like "- [ ] Standup @09:00+15min"`, inner))
	case len(m.records()) == 0:
		content.WriteString(m.emptyState("Nothing scheduled", "Tasks with an @time appear here", inner))
	default:
		content.WriteString(m.renderGrid(inner, rows).String() + "\n")
	}

	body := FitToHeight(strings.TrimSuffix(content.String(), "\n"), h-3)
	return boxStyle.Render(body + "\n" + m.renderFooter(inner))
}

func (m *TimelinePanel) emptyState(title, hint string, width int) string {
	t := m.theme
	titleStyle := lipgloss.NewStyle().Foreground(t.Subtext).Bold(true).Width(width).Align(lipgloss.Center)
	hintStyle := lipgloss.NewStyle().Foreground(t.Overlay).Italic(true).Width(width).Align(lipgloss.Center)
	return "\n" + titleStyle.Render(title) + "\n" + hintStyle.Render(hint) + "\n"
}

func stepLabel(step time.Duration) string {
	if step >= time.Hour && step%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(step/time.Hour))
	}
	return fmt.Sprintf("%dmin", int(step/time.Minute))
}

// renderGrid draws the visible slice of the axis.
func (m *TimelinePanel) renderGrid(width, rows int) *canvas {
	t := m.theme
	res := m.result
	ctx := res.Positions
	c := newCanvas(width, rows)

	laneX := gutterWidth
	laneW := width - gutterWidth
	if laneW < 1 {
		return c
	}

	gridStyle := c.style(lipgloss.NewStyle().Foreground(t.Surface1))
	gutterStyle := c.style(lipgloss.NewStyle().Foreground(t.Subtext))
	gapStyle := c.style(lipgloss.NewStyle().Foreground(t.Yellow))
	sepStyle := c.style(lipgloss.NewStyle().Foreground(t.Surface2))

	for y := 0; y < rows; y++ {
		c.fill(gutterWidth-1, y, 1, '│', sepStyle)
	}

	for i, tick := range ctx.Ticks() {
		y := int(math.Floor(ctx.TickOffset(i))) - m.scroll
		if y < 0 || y >= rows {
			continue
		}
		style := gutterStyle
		switch {
		case i > 0 && res.Axis.GapAfter(i-1):
			style = gapStyle
			c.fill(laneX, y, laneW, '┈', gapStyle)
		case ctx.TickHeight(i) >= 2:
			c.fill(laneX, y, laneW, '┄', gridStyle)
		}
		c.text(0, y, 5, tick.Format("15:04"), style)
	}

	selected, _ := m.Selected()
	for _, rec := range m.records() {
		ghost := m.drag != nil && m.drag.id == rec.Task.ID
		m.drawRecord(c, rec, rec.Top, rec.Height, laneX, laneW, m.recordStyle(rec, rec.Task.ID == selected.Task.ID, ghost), "")
	}

	if top, height, at, ok := m.preview(); ok {
		rec, _ := res.Record(m.drag.id)
		style := lipgloss.NewStyle().Foreground(t.Base).Background(t.Yellow).Bold(true)
		if t.IsMono() {
			style = lipgloss.NewStyle().Reverse(true).Bold(true).Underline(true)
		}
		m.drawRecord(c, rec, top, height, laneX, laneW, style, "→ "+at.Format("15:04"))
	}

	if res.Now.InRange {
		y := int(math.Floor(res.Now.Offset)) - m.scroll
		nowStyle := c.style(lipgloss.NewStyle().Foreground(t.Red).Bold(true))
		c.fillBlank(laneX, y, laneW, '─', nowStyle)
		c.fill(gutterWidth-1, y, 1, '●', nowStyle)
		c.text(0, y, 5, res.Now.At.Format("15:04"), nowStyle)
	}
	return c
}

func (m *TimelinePanel) recordStyle(rec engine.Record, selected, ghost bool) lipgloss.Style {
	t := m.theme
	if t.IsMono() {
		s := lipgloss.NewStyle().Reverse(!ghost)
		if selected {
			s = s.Bold(true).Underline(true)
		}
		if rec.Task.Completed || ghost {
			s = s.Faint(true)
		}
		return s
	}

	colors := t.TaskColors()
	bg := colors[rec.Column%len(colors)]
	fg := t.Base
	switch {
	case ghost:
		bg, fg = t.Surface0, t.Overlay
	case rec.Task.Completed:
		bg, fg = t.Surface1, t.Subtext
	case selected:
		bg = t.Text
	}
	s := lipgloss.NewStyle().Background(bg).Foreground(fg)
	if selected {
		s = s.Bold(true)
	}
	if rec.Task.Completed {
		s = s.Strikethrough(true)
	}
	return s
}

// drawRecord paints one task box. note replaces the time range line.
func (m *TimelinePanel) drawRecord(c *canvas, rec engine.Record, top, height float64, laneX, laneW int, style lipgloss.Style, note string) {
	row, count := layout.Rows(top, height)
	row -= m.scroll
	x, w := layout.Columns(laneW, rec.OffsetPercent, rec.WidthPercent)
	x += laneX
	// Keep a one-cell gutter between side-by-side boxes.
	if rec.GroupSize > 1 && w > 2 && x+w < laneX+laneW {
		w--
	}

	idx := c.style(style)
	c.rect(x, row, w, count, idx)

	label := rec.Task.Label
	if rec.Task.Completed {
		label = "✓ " + label
	}
	span := rec.Start.Format("15:04") + "-" + rec.End.Format("15:04")
	if note != "" {
		span = note
	}
	textX, textW := x+1, w-1
	if w <= 2 {
		textX, textW = x, w
	}
	if count == 1 && note != "" {
		label = note + " " + label
	}
	c.text(textX, row, textW, layout.TruncateWidthDefault(label, textW), idx)
	if count >= 2 {
		c.text(textX, row+1, textW, layout.TruncateWidthDefault(span, textW), idx)
	}
}

func (m *TimelinePanel) renderFooter(width int) string {
	t := m.theme
	style := lipgloss.NewStyle().Foreground(t.Overlay)

	if m.drag != nil {
		if _, _, at, ok := m.preview(); ok {
			rec, _ := m.result.Record(m.drag.id)
			hint := fmt.Sprintf("Move %s → %s  (enter drop · esc cancel)", rec.Task.Label, at.Format("15:04"))
			return lipgloss.NewStyle().Foreground(t.Yellow).Render(layout.TruncateWidthDefault(hint, width))
		}
	}

	var parts []string
	if m.result.Now.InRange || !m.result.Now.At.IsZero() {
		parts = append(parts, "now "+m.result.Now.At.Format("15:04"))
	}
	n := len(m.records())
	parts = append(parts, fmt.Sprintf("%d scheduled", n))
	if rec, ok := m.Selected(); ok {
		parts = append(parts, rec.Task.Label)
	}
	if !m.dragEnabled {
		parts = append(parts, "moving off")
	}
	return style.Render(layout.TruncateWidthDefault(strings.Join(parts, " · "), width))
}
