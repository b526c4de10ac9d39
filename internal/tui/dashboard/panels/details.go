package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dayplan/dayplan/internal/engine"
	"github.com/dayplan/dayplan/internal/tasks"
	"github.com/dayplan/dayplan/internal/tui/layout"
	"github.com/dayplan/dayplan/internal/tui/theme"
)

func detailsConfig() PanelConfig {
	return PanelConfig{
		ID:        "details",
		Title:     "Task",
		Priority:  PriorityNormal,
		MinWidth:  30,
		MinHeight: 6,
		MinTier:   layout.TierWide,
	}
}

// DetailsPanel shows the selected task's parsed time and source line.
type DetailsPanel struct {
	PanelBase
	theme  theme.Theme
	item   tasks.Item
	record engine.Record
	timed  bool
	has    bool
}

// NewDetailsPanel creates an empty details panel.
func NewDetailsPanel() *DetailsPanel {
	return &DetailsPanel{
		PanelBase: NewPanelBase(detailsConfig()),
		theme:     theme.Current(),
	}
}

// SetTheme replaces the palette.
func (m *DetailsPanel) SetTheme(t theme.Theme) { m.theme = t }

// SetRecord shows a scheduled task.
func (m *DetailsPanel) SetRecord(rec engine.Record) {
	m.item, m.record, m.timed, m.has = rec.Task, rec, true, true
}

// SetItem shows a task without a time.
func (m *DetailsPanel) SetItem(it tasks.Item) {
	m.item, m.record, m.timed, m.has = it, engine.Record{}, false, true
}

// Clear empties the panel.
func (m *DetailsPanel) Clear() { m.has = false }

// Init implements tea.Model
func (m *DetailsPanel) Init() tea.Cmd { return nil }

// Update implements tea.Model
func (m *DetailsPanel) Update(tea.Msg) (tea.Model, tea.Cmd) { return m, nil }

// View renders the panel
func (m *DetailsPanel) View() string {
	t := m.theme
	w, h := m.Width(), m.Height()
	if w <= 4 || h <= 4 {
		return ""
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Pink).
		Width(w-2).
		Padding(0, 1)
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Lavender).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(t.Surface1).
		Width(w - 4).
		Align(lipgloss.Center)
	labelStyle := lipgloss.NewStyle().Foreground(t.Subtext).Width(8)
	valueStyle := lipgloss.NewStyle().Foreground(t.Text)

	var b strings.Builder
	b.WriteString(headerStyle.Render(m.Config().Title) + "\n")

	if !m.has {
		b.WriteString(lipgloss.NewStyle().Foreground(t.Overlay).Italic(true).Render("Nothing selected"))
		return boxStyle.Render(FitToHeight(b.String(), h-2))
	}

	inner := w - 4
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + valueStyle.Render(layout.TruncateWidthDefault(value, inner-8)) + "\n")
	}

	it := m.item
	row("Task", it.Label)
	status := "open"
	if it.Completed {
		status = "done"
	}
	row("Status", status)
	row("Line", fmt.Sprintf("%d", it.Line+1))

	if m.timed {
		iv := it.Interval
		row("Kind", iv.Kind.String())
		row("Span", m.record.Start.Format("15:04")+" – "+m.record.End.Format("15:04"))
		if iv.HasDue() {
			row("Due", iv.Due.Format("15:04"))
		}
		if iv.Duration > 0 {
			row("Length", iv.Duration.String())
		}
		if m.record.GroupSize > 1 {
			row("Column", fmt.Sprintf("%d of %d", m.record.Column+1, m.record.GroupSize))
		}
	} else {
		row("Kind", "anytime")
	}

	b.WriteString("\n")
	src := lipgloss.NewStyle().Foreground(t.Overlay).Italic(true)
	b.WriteString(src.Render(layout.TruncateMiddle(strings.TrimSpace(it.SourceLine), inner)))

	return boxStyle.Render(FitToHeight(b.String(), h-2))
}
