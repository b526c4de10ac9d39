package panels

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dayplan/dayplan/internal/engine"
	"github.com/dayplan/dayplan/internal/tasks"
	"github.com/dayplan/dayplan/internal/tui/layout"
	"github.com/dayplan/dayplan/internal/tui/theme"
)

func untimedConfig() PanelConfig {
	return PanelConfig{
		ID:        "untimed",
		Title:     "Anytime",
		Priority:  PriorityHigh,
		MinWidth:  24,
		MinHeight: 5,
		MinTier:   layout.TierSplit,
	}
}

// UntimedPanel lists tasks without a start time or deadline.
type UntimedPanel struct {
	PanelBase
	theme         theme.Theme
	items         []tasks.Item
	cursor        int
	offset        int
	showCompleted bool
}

// NewUntimedPanel creates an empty untimed task list.
func NewUntimedPanel() *UntimedPanel {
	return &UntimedPanel{
		PanelBase:     NewPanelBase(untimedConfig()),
		theme:         theme.Current(),
		showCompleted: true,
	}
}

// SetTheme replaces the palette.
func (m *UntimedPanel) SetTheme(t theme.Theme) { m.theme = t }

// SetShowCompleted controls whether checked-off tasks are listed.
func (m *UntimedPanel) SetShowCompleted(show bool) {
	m.showCompleted = show
	m.clamp()
}

// SetResult takes the timeless tasks of a render pass.
func (m *UntimedPanel) SetResult(res engine.Result) {
	var selected string
	if it, ok := m.Selected(); ok {
		selected = it.ID
	}
	m.items = res.Timeless
	if res.Err == nil {
		m.SetLastUpdate(time.Now())
	}
	m.cursor = 0
	for i, it := range m.visible() {
		if it.ID == selected {
			m.cursor = i
			break
		}
	}
	m.clamp()
}

func (m *UntimedPanel) visible() []tasks.Item {
	if m.showCompleted {
		return m.items
	}
	out := make([]tasks.Item, 0, len(m.items))
	for _, it := range m.items {
		if !it.Completed {
			out = append(out, it)
		}
	}
	return out
}

// Selected returns the highlighted task.
func (m *UntimedPanel) Selected() (tasks.Item, bool) {
	items := m.visible()
	if m.cursor < 0 || m.cursor >= len(items) {
		return tasks.Item{}, false
	}
	return items[m.cursor], true
}

func (m *UntimedPanel) listHeight() int {
	h := m.Height() - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (m *UntimedPanel) clamp() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.listHeight() {
		m.offset = m.cursor - m.listHeight() + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// Init implements tea.Model
func (m *UntimedPanel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *UntimedPanel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			i := msg.Y - chromeTop + m.offset
			if i >= 0 && i < len(m.visible()) {
				m.cursor = i
			}
		}
	case tea.KeyMsg:
		if !m.IsFocused() {
			return m, nil
		}
		switch msg.String() {
		case "up", "k":
			m.cursor--
			m.clamp()
		case "down", "j":
			m.cursor++
			m.clamp()
		case "x", " ":
			if it, ok := m.Selected(); ok {
				return m, func() tea.Msg { return ToggleRequestMsg{Item: it} }
			}
		}
	}
	return m, nil
}

// Keybindings returns untimed panel specific shortcuts
func (m *UntimedPanel) Keybindings() []Keybinding {
	return []Keybinding{
		{
			Key:         key.NewBinding(key.WithKeys("up", "k", "down", "j"), key.WithHelp("j/k", "select")),
			Description: "Select previous or next task",
			Action:      "select",
		},
		{
			Key:         key.NewBinding(key.WithKeys("x", " "), key.WithHelp("x", "toggle")),
			Description: "Toggle completion",
			Action:      "toggle",
		},
	}
}

// View renders the panel
func (m *UntimedPanel) View() string {
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

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Lavender).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(t.Surface1).
		Width(w - 4).
		Align(lipgloss.Center)

	items := m.visible()
	title := fmt.Sprintf("%s (%d)", m.Config().Title, len(items))

	var content strings.Builder
	content.WriteString(headerStyle.Render(title) + "\n")

	inner := w - 4
	if len(items) == 0 {
		empty := lipgloss.NewStyle().Foreground(t.Overlay).Italic(true)
		content.WriteString(empty.Render("Every task has a time"))
	}

	end := m.offset + m.listHeight()
	if end > len(items) {
		end = len(items)
	}
	for i := m.offset; i < end; i++ {
		content.WriteString(m.renderItem(items[i], i == m.cursor, inner) + "\n")
	}

	return boxStyle.Render(FitToHeight(strings.TrimSuffix(content.String(), "\n"), h-2))
}

func (m *UntimedPanel) renderItem(it tasks.Item, selected bool, width int) string {
	t := m.theme

	box := "[ ]"
	if it.Completed {
		box = "[x]"
	}
	label := it.Label
	// Tokens that look like times but did not parse.
	var bad []string
	for _, tok := range it.Tokens {
		bad = append(bad, tok.Text)
	}
	suffix := ""
	if len(bad) > 0 {
		suffix = " ⚠ " + strings.Join(bad, " ")
	}

	// Cursor and checkbox take six cells.
	textW := width - 6 - lipgloss.Width(suffix)
	if textW < 4 {
		textW = width - 6
		suffix = ""
	}
	text := box + " " + layout.TruncateWidthDefault(label, textW)

	style := lipgloss.NewStyle().Foreground(t.Text)
	if it.Completed {
		style = lipgloss.NewStyle().Foreground(t.Overlay).Strikethrough(true)
	}
	if selected && m.IsFocused() {
		style = style.Background(t.Surface0).Bold(true)
		if t.IsMono() {
			style = style.Reverse(true)
		}
	}
	cursor := "  "
	if selected {
		cursor = "▸ "
	}
	line := cursor + style.Render(text)
	if suffix != "" {
		line += lipgloss.NewStyle().Foreground(t.Warning).Render(suffix)
	}
	return line
}
