package panels

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dayplan/dayplan/internal/tui/layout"
)

// PanelPriority orders panels when space is short. Lower values win.
type PanelPriority int

const (
	// PriorityCritical panels are always shown (the timeline itself).
	PriorityCritical PanelPriority = 1
	// PriorityHigh panels are shown from the split tier up (untimed tasks).
	PriorityHigh PanelPriority = 2
	// PriorityNormal panels are shown only on wide terminals (task details).
	PriorityNormal PanelPriority = 3
)

// Keybinding is a panel-specific shortcut shown in the help bar.
type Keybinding struct {
	Key         key.Binding
	Description string
	Action      string // dispatch identifier
}

// PanelConfig describes a panel.
type PanelConfig struct {
	// ID is a unique identifier for the panel (e.g. "timeline", "untimed")
	ID string

	// Title is the display title for the panel header
	Title string

	Priority PanelPriority

	// MinWidth and MinHeight are the smallest size the panel renders in.
	MinWidth  int
	MinHeight int

	// MinTier is the narrowest layout tier that shows the panel.
	MinTier layout.Tier
}

// Visible reports whether the panel is shown at tier.
func (c PanelConfig) Visible(tier layout.Tier) bool {
	return tier >= c.MinTier
}

// Panel is a dashboard panel.
type Panel interface {
	tea.Model

	SetSize(width, height int)
	Focus()
	Blur()
	Config() PanelConfig

	// Keybindings are active while the panel is focused.
	Keybindings() []Keybinding
}

// PanelBase carries the state every panel shares. Embed it in concrete
// panels.
type PanelBase struct {
	config     PanelConfig
	width      int
	height     int
	focused    bool
	lastUpdate time.Time
}

// NewPanelBase creates a new PanelBase with the given config.
func NewPanelBase(cfg PanelConfig) PanelBase {
	return PanelBase{config: cfg}
}

// SetSize implements Panel.SetSize
func (b *PanelBase) SetSize(width, height int) {
	b.width = width
	b.height = height
}

// Focus implements Panel.Focus
func (b *PanelBase) Focus() {
	b.focused = true
}

// Blur implements Panel.Blur
func (b *PanelBase) Blur() {
	b.focused = false
}

// Config implements Panel.Config
func (b *PanelBase) Config() PanelConfig {
	return b.config
}

// Keybindings returns nothing; panels with shortcuts override it.
func (b *PanelBase) Keybindings() []Keybinding {
	return nil
}

// IsFocused returns whether the panel is focused
func (b *PanelBase) IsFocused() bool {
	return b.focused
}

// Width returns the current panel width
func (b *PanelBase) Width() int {
	return b.width
}

// Height returns the current panel height
func (b *PanelBase) Height() int {
	return b.height
}

// SetLastUpdate records when the panel last received data.
func (b *PanelBase) SetLastUpdate(t time.Time) {
	b.lastUpdate = t
}

// LastUpdate returns when the panel last received data.
func (b *PanelBase) LastUpdate() time.Time {
	return b.lastUpdate
}

// FitToHeight pads or cuts content to exactly targetHeight lines so panels
// do not jitter as their content changes.
func FitToHeight(content string, targetHeight int) string {
	if targetHeight <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) > targetHeight {
		lines = lines[:targetHeight]
	}
	for len(lines) < targetHeight {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
