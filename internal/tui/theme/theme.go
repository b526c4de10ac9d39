// Package theme provides the color palettes used by the timeline view.
package theme

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme is a named color palette. Mono leaves every color empty so lipgloss
// renders attributes (bold, reverse) only.
type Theme struct {
	Name string

	Base     lipgloss.Color
	Mantle   lipgloss.Color
	Surface0 lipgloss.Color
	Surface1 lipgloss.Color
	Surface2 lipgloss.Color
	Overlay  lipgloss.Color
	Text     lipgloss.Color
	Subtext  lipgloss.Color

	Primary  lipgloss.Color
	Blue     lipgloss.Color
	Lavender lipgloss.Color
	Mauve    lipgloss.Color
	Pink     lipgloss.Color
	Teal     lipgloss.Color
	Green    lipgloss.Color
	Yellow   lipgloss.Color
	Peach    lipgloss.Color
	Red      lipgloss.Color

	Error   lipgloss.Color
	Warning lipgloss.Color
	Success lipgloss.Color
}

// Mocha is the Catppuccin Mocha palette.
var Mocha = Theme{
	Name:     "dark",
	Base:     "#1e1e2e",
	Mantle:   "#181825",
	Surface0: "#313244",
	Surface1: "#45475a",
	Surface2: "#585b70",
	Overlay:  "#6c7086",
	Text:     "#cdd6f4",
	Subtext:  "#a6adc8",
	Primary:  "#89b4fa",
	Blue:     "#89b4fa",
	Lavender: "#b4befe",
	Mauve:    "#cba6f7",
	Pink:     "#f5c2e7",
	Teal:     "#94e2d5",
	Green:    "#a6e3a1",
	Yellow:   "#f9e2af",
	Peach:    "#fab387",
	Red:      "#f38ba8",
	Error:    "#f38ba8",
	Warning:  "#f9e2af",
	Success:  "#a6e3a1",
}

// Latte is the Catppuccin Latte palette.
var Latte = Theme{
	Name:     "light",
	Base:     "#eff1f5",
	Mantle:   "#e6e9ef",
	Surface0: "#ccd0da",
	Surface1: "#bcc0cc",
	Surface2: "#acb0be",
	Overlay:  "#9ca0b0",
	Text:     "#4c4f69",
	Subtext:  "#6c6f85",
	Primary:  "#1e66f5",
	Blue:     "#1e66f5",
	Lavender: "#7287fd",
	Mauve:    "#8839ef",
	Pink:     "#ea76cb",
	Teal:     "#179299",
	Green:    "#40a02b",
	Yellow:   "#df8e1d",
	Peach:    "#fe640b",
	Red:      "#d20f39",
	Error:    "#d20f39",
	Warning:  "#df8e1d",
	Success:  "#40a02b",
}

// Mono has no colors.
var Mono = Theme{Name: "mono"}

// IsMono reports whether the theme carries no colors.
func (t Theme) IsMono() bool { return t.Text == "" }

// TaskColors returns the rotation used to tell overlapping task boxes apart.
func (t Theme) TaskColors() []lipgloss.Color {
	return []lipgloss.Color{t.Blue, t.Mauve, t.Teal, t.Peach, t.Pink, t.Green}
}

// ForName returns the palette for a ui.theme value. "auto" detects the
// terminal.
func ForName(name string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return Detect(termenv.EnvColorProfile(), termenv.HasDarkBackground()), nil
	case "dark", "mocha":
		return Mocha, nil
	case "light", "latte":
		return Latte, nil
	case "mono", "none":
		return Mono, nil
	}
	return Theme{}, fmt.Errorf("unknown theme %q", name)
}

// Detect picks a palette for a terminal color profile and background.
func Detect(profile termenv.Profile, dark bool) Theme {
	if profile == termenv.Ascii {
		return Mono
	}
	if dark {
		return Mocha
	}
	return Latte
}

var (
	mu      sync.RWMutex
	current *Theme
)

// Current returns the active theme, detecting one on first use.
func Current() Theme {
	mu.RLock()
	if current != nil {
		t := *current
		mu.RUnlock()
		return t
	}
	mu.RUnlock()

	t, _ := ForName("auto")
	mu.Lock()
	if current == nil {
		current = &t
	}
	t = *current
	mu.Unlock()
	return t
}

// SetCurrent activates the named theme.
func SetCurrent(name string) error {
	t, err := ForName(name)
	if err != nil {
		return err
	}
	mu.Lock()
	current = &t
	mu.Unlock()
	if t.IsMono() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	return nil
}
