// Package dashboard provides the interactive day timeline
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dayplan/dayplan/internal/config"
	"github.com/dayplan/dayplan/internal/engine"
	"github.com/dayplan/dayplan/internal/nowline"
	"github.com/dayplan/dayplan/internal/tui/dashboard/panels"
	"github.com/dayplan/dayplan/internal/tui/layout"
	"github.com/dayplan/dayplan/internal/tui/theme"
	"github.com/dayplan/dayplan/internal/watcher"
)

// FileLoadedMsg carries the task file contents.
type FileLoadedMsg struct {
	Text string
	Err  error
	Gen  uint64
}

// FileChangedMsg is sent when the task file changes on disk.
type FileChangedMsg struct{}

// ConfigChangedMsg carries a reloaded config file.
type ConfigChangedMsg struct {
	Config *config.Config
}

// NowTickMsg moves the now marker.
type NowTickMsg time.Time

// MutationResultMsg reports a drop, shift or toggle written to the task file.
type MutationResultMsg struct {
	Action string // "move" or "toggle"
	Label  string
	At     time.Time
	Err    error
}

// clearStatusMsg hides the status line once it is old enough.
type clearStatusMsg struct{ seq int }

const statusTTL = 4 * time.Second

// Options configures the dashboard.
type Options struct {
	Path   string
	Config *config.Config
	Logger *slog.Logger
	// ConfigPath is watched for changes when set.
	ConfigPath string
	// Clock replaces time.Now, mainly for tests.
	Clock func() time.Time
}

// Model is the dashboard model
type Model struct {
	path       string
	configPath string
	cfg        *config.Config
	engine     *engine.Engine
	logger     *slog.Logger
	clock      func() time.Time

	text   string
	result engine.Result
	err    error
	loaded bool

	timeline *panels.TimelinePanel
	untimed  *panels.UntimedPanel
	details  *panels.DetailsPanel
	focus    string

	width  int
	height int
	tier   layout.Tier
	theme  theme.Theme

	status    string
	statusErr bool
	statusSeq int
	showHelp  bool
	quitting  bool

	gens *generations

	events     chan tea.Msg
	cancel     context.CancelFunc
	watcher    *watcher.FileWatcher
	refresher  *nowline.Refresher
	stopConfig func()
}

// KeyMap defines dashboard keybindings
type KeyMap struct {
	Quit      key.Binding
	Reload    key.Binding
	Focus     key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	Completed key.Binding
	Help      key.Binding
}

var dashKeys = KeyMap{
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Focus:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch panel")),
	ZoomIn:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "finer ticks")),
	ZoomOut:   key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "coarser ticks")),
	Completed: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "show/hide done")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// New creates a new dashboard model
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	path := opts.Path
	if path == "" {
		path = cfg.TaskFile()
	}

	t := themeFor(cfg)

	m := Model{
		path:       path,
		configPath: opts.ConfigPath,
		cfg:        cfg,
		engine:     engine.New(cfg.Engine(), nil, engine.WithLogger(logger)),
		logger:     logger,
		clock:      clock,
		timeline:   panels.NewTimelinePanel(),
		untimed:    panels.NewUntimedPanel(),
		details:    panels.NewDetailsPanel(),
		focus:      "timeline",
		width:      80,
		height:     24,
		tier:       layout.TierForWidth(80),
		theme:      t,
		gens:       newGenerations(),
		events:     make(chan tea.Msg, 4),
	}
	m.applyPanelSettings()
	m.timeline.Focus()
	m.resize()
	return m
}

func themeFor(cfg *config.Config) theme.Theme {
	if cfg.UI.Theme != "" && cfg.UI.Theme != "auto" {
		if named, err := theme.ForName(cfg.UI.Theme); err == nil {
			return named
		}
	}
	return theme.Current()
}

func (m *Model) applyPanelSettings() {
	for _, p := range m.panelList() {
		setPanelTheme(p, m.theme)
	}
	m.timeline.SetDragEnabled(m.cfg.Timeline.EnableDragging)
	m.timeline.SetShowCompleted(m.cfg.UI.ShowCompleted)
	m.untimed.SetShowCompleted(m.cfg.UI.ShowCompleted)
}

// applyConfig switches to a reloaded config. The interval zoom resets to
// the configured value.
func (m *Model) applyConfig(cfg *config.Config) {
	m.cfg = cfg
	m.engine = engine.New(cfg.Engine(), nil, engine.WithLogger(m.logger))
	m.theme = themeFor(cfg)
	m.applyPanelSettings()
	if m.loaded {
		m.rerender()
	}
}

func setPanelTheme(p panels.Panel, t theme.Theme) {
	switch p := p.(type) {
	case *panels.TimelinePanel:
		p.SetTheme(t)
	case *panels.UntimedPanel:
		p.SetTheme(t)
	case *panels.DetailsPanel:
		p.SetTheme(t)
	}
}

func (m Model) panelList() []panels.Panel {
	return []panels.Panel{m.timeline, m.untimed, m.details}
}

// Start launches the file watcher and the now-marker refresher. Their events
// reach the program through waitForEvent.
func (m *Model) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.refresher = nowline.NewRefresher(func(t time.Time) {
		m.send(NowTickMsg(t))
	}, nowline.WithInterval(m.cfg.NowRefresh()), nowline.WithClock(m.clock), nowline.WithLogger(m.logger))
	m.refresher.Start(ctx)

	m.watcher = watcher.NewFromConfig(watcher.ConfigValues{
		Enabled:    m.cfg.Watch.Enabled,
		DebounceMs: m.cfg.Watch.DebounceMs,
	}, m.path, func(string) {
		m.send(FileChangedMsg{})
	}, m.logger)
	if m.watcher != nil {
		if err := m.watcher.Start(ctx); err != nil {
			// The view still works without live reload.
			m.logger.Warn("file watch unavailable", "path", m.path, "error", err)
			m.watcher = nil
		}
	}

	if m.configPath != "" && m.cfg.Watch.Enabled {
		stop, err := config.Watch(ctx, m.configPath, func(c *config.Config) {
			m.send(ConfigChangedMsg{Config: c})
		}, m.logger)
		if err != nil {
			m.logger.Debug("config watch unavailable", "path", m.configPath, "error", err)
		} else {
			m.stopConfig = stop
		}
	}
	return nil
}

// Stop shuts down background work started by Start.
func (m *Model) Stop() {
	if m.stopConfig != nil {
		m.stopConfig()
	}
	if m.watcher != nil {
		m.watcher.Stop()
	}
	if m.refresher != nil {
		m.refresher.Stop()
	}
	if m.cancel != nil {
		m.cancel()
	}
}

// send delivers a background event without blocking. A full queue already
// holds an event that triggers the same refresh.
func (m *Model) send(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadFileCmd(),
		m.waitForEvent(),
	)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tier = layout.TierForWidthWithHysteresis(msg.Width, m.tier)
		m.resize()
		return m, nil

	case FileLoadedMsg:
		if !m.gens.current(refreshFile, msg.Gen) {
			return m, nil
		}
		if msg.Err != nil {
			m.err = msg.Err
			m.timeline.SetError(msg.Err)
			m.logger.Warn("loading task file", "path", m.path, "error", msg.Err)
			return m, nil
		}
		m.err = nil
		m.text = msg.Text
		m.loaded = true
		m.rerender()
		return m, nil

	case FileChangedMsg:
		m.logger.Debug("task file changed", "path", m.path)
		return m, tea.Batch(m.loadFileCmd(), m.waitForEvent())

	case ConfigChangedMsg:
		if msg.Config != nil {
			m.applyConfig(msg.Config)
		}
		cmd := m.setStatus("Config reloaded", false)
		return m, tea.Batch(cmd, m.waitForEvent())

	case NowTickMsg:
		m.result = m.result.Advance(time.Time(msg))
		m.timeline.SetResult(m.result)
		return m, m.waitForEvent()

	case MutationResultMsg:
		if msg.Err != nil {
			m.logger.Warn("applying change", "action", msg.Action, "task", msg.Label, "error", msg.Err)
			cmd := m.setStatus(fmt.Sprintf("Could not %s %s: %v", msg.Action, msg.Label, msg.Err), true)
			return m, tea.Batch(cmd, m.loadFileCmd())
		}
		var status string
		switch msg.Action {
		case "move":
			status = fmt.Sprintf("Moved %s to %s", msg.Label, msg.At.Format("15:04"))
		default:
			status = fmt.Sprintf("Toggled %s", msg.Label)
		}
		cmd := m.setStatus(status, false)
		return m, tea.Batch(cmd, m.loadFileCmd())

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case panels.DropRequestMsg:
		return m, m.dropCmd(msg.Item, msg.At)

	case panels.ShiftRequestMsg:
		return m, m.shiftCmd(msg.Item, msg.Steps)

	case panels.ToggleRequestMsg:
		return m, m.toggleCmd(msg.Item)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.showHelp {
			switch {
			case key.Matches(msg, dashKeys.Help), msg.Type == tea.KeyEsc:
				m.showHelp = false
			case key.Matches(msg, dashKeys.Quit):
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}
		// Esc and enter belong to the timeline while a move is previewed.
		if m.timeline.Dragging() {
			cmd := m.updateFocused(msg)
			m.syncDetails()
			return m, cmd
		}
		switch {
		case key.Matches(msg, dashKeys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, dashKeys.Reload):
			return m, m.loadFileCmd()

		case key.Matches(msg, dashKeys.Focus):
			m.cycleFocus()
			return m, nil

		case key.Matches(msg, dashKeys.ZoomIn):
			cmd := m.stepInterval(-1)
			return m, cmd

		case key.Matches(msg, dashKeys.ZoomOut):
			cmd := m.stepInterval(1)
			return m, cmd

		case key.Matches(msg, dashKeys.Completed):
			show := !m.cfg.UI.ShowCompleted
			m.cfg.UI.ShowCompleted = show
			m.timeline.SetShowCompleted(show)
			m.untimed.SetShowCompleted(show)
			m.syncDetails()
			return m, nil

		case key.Matches(msg, dashKeys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		}
		cmd := m.updateFocused(msg)
		m.syncDetails()
		return m, cmd
	}

	return m, nil
}

func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case "untimed":
		_, cmd = m.untimed.Update(msg)
	default:
		_, cmd = m.timeline.Update(msg)
	}
	return cmd
}

// rerender runs a fresh pass over the loaded text.
func (m *Model) rerender() {
	m.result = m.engine.Render(m.text, engine.WithNow(m.clock()))
	if m.result.Err != nil {
		m.logger.Error("render failed", "error", m.result.Err)
	}
	m.timeline.SetResult(m.result)
	m.untimed.SetResult(m.result)
	m.syncDetails()
}

func (m *Model) syncDetails() {
	if m.focus == "untimed" {
		if it, ok := m.untimed.Selected(); ok {
			m.details.SetItem(it)
			return
		}
	} else if rec, ok := m.timeline.Selected(); ok {
		m.details.SetRecord(rec)
		return
	}
	m.details.Clear()
}

// stepInterval moves to the next finer (-1) or coarser (+1) tick interval.
func (m *Model) stepInterval(dir int) tea.Cmd {
	cur := m.engine.Config().IntervalMinutes
	idx := 0
	for i, v := range engine.Intervals {
		if v == cur {
			idx = i
		}
	}
	idx += dir
	if idx < 0 || idx >= len(engine.Intervals) {
		return nil
	}
	next := engine.Intervals[idx]
	if err := m.engine.SetInterval(next); err != nil {
		return m.setStatus(err.Error(), true)
	}
	m.cfg.Timeline.IntervalMinutes = next
	m.timeline.CancelDrag()
	m.rerender()
	return m.setStatus(fmt.Sprintf("Ticks every %d minutes", next), false)
}

func (m *Model) focusable() []string {
	ids := []string{"timeline"}
	if m.untimed.Config().Visible(m.tier) {
		ids = append(ids, "untimed")
	}
	return ids
}

func (m *Model) cycleFocus() {
	ids := m.focusable()
	next := ids[0]
	for i, id := range ids {
		if id == m.focus {
			next = ids[(i+1)%len(ids)]
		}
	}
	m.setFocus(next)
}

func (m *Model) setFocus(id string) {
	m.focus = id
	m.timeline.Blur()
	m.untimed.Blur()
	switch id {
	case "untimed":
		m.untimed.Focus()
	default:
		m.timeline.Focus()
	}
	m.syncDetails()
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.status = text
	m.statusErr = isErr
	seq := m.statusSeq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg { return clearStatusMsg{seq: seq} })
}

// panel geometry below the header line
const bodyTop = 1

// resize lays the panels out for the current tier.
func (m *Model) resize() {
	bodyH := m.height - 2
	if bodyH < 1 {
		bodyH = 1
	}
	switch m.tier {
	case layout.TierWide:
		tl, side, detail := layout.WideProportions(m.width)
		m.timeline.SetSize(tl, bodyH)
		m.untimed.SetSize(side, bodyH)
		m.details.SetSize(detail, bodyH)
	case layout.TierSplit:
		tl, side := layout.SplitProportions(m.width)
		m.timeline.SetSize(tl, bodyH)
		m.untimed.SetSize(side, bodyH)
		m.details.SetSize(0, 0)
	default:
		m.timeline.SetSize(m.width, bodyH)
		m.untimed.SetSize(0, 0)
		m.details.SetSize(0, 0)
	}
	if !m.untimed.Config().Visible(m.tier) && m.focus == "untimed" {
		m.setFocus("timeline")
	}
}

// panelAt returns the panel under a screen cell and the cell's offset
// inside it.
func (m *Model) panelAt(x, y int) (panels.Panel, int, int) {
	if y < bodyTop {
		return nil, 0, 0
	}
	left := 0
	for _, p := range []panels.Panel{m.timeline, m.untimed, m.details} {
		w := panelWidth(p)
		if w <= 0 || !p.Config().Visible(m.tier) {
			continue
		}
		if x >= left && x < left+w {
			return p, x - left, y - bodyTop
		}
		left += w
	}
	return nil, 0, 0
}

func panelWidth(p panels.Panel) int {
	switch p := p.(type) {
	case *panels.TimelinePanel:
		return p.Width()
	case *panels.UntimedPanel:
		return p.Width()
	case *panels.DetailsPanel:
		return p.Width()
	}
	return 0
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	// A drag in progress keeps receiving events even off the panel.
	if m.timeline.Dragging() {
		local := msg
		local.Y -= bodyTop
		_, cmd := m.timeline.Update(local)
		m.syncDetails()
		return m, cmd
	}

	p, x, y := m.panelAt(msg.X, msg.Y)
	if p == nil {
		return m, nil
	}
	local := msg
	local.X, local.Y = x, y
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		switch p.(type) {
		case *panels.TimelinePanel:
			m.setFocus("timeline")
		case *panels.UntimedPanel:
			m.setFocus("untimed")
		}
	}
	_, cmd := p.Update(local)
	m.syncDetails()
	return m, cmd
}

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader() + "\n")

	if m.showHelp {
		b.WriteString(m.renderHelp(m.height - 2))
	} else {
		var cols []string
		for _, p := range m.panelList() {
			if p.Config().Visible(m.tier) && panelWidth(p) > 0 {
				cols = append(cols, p.View())
			}
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	}

	b.WriteString("\n" + m.renderHelpBar())
	return b.String()
}

func (m Model) renderHeader() string {
	t := m.theme

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	badge := lipgloss.NewStyle().Background(t.Surface0).Foreground(t.Text).Padding(0, 1)

	parts := []string{titleStyle.Render("dayplan"), badge.Render(filepath.Base(m.path))}
	if m.loaded {
		parts = append(parts,
			badge.Render(fmt.Sprintf("%d scheduled", len(m.result.Records))),
			badge.Render(fmt.Sprintf("%d anytime", len(m.result.Timeless))),
		)
	}
	parts = append(parts, badge.Render(fmt.Sprintf("%dmin", m.engine.Config().IntervalMinutes)))
	if m.watcher != nil {
		parts = append(parts, lipgloss.NewStyle().Foreground(t.Green).Render("● live"))
	}

	header := strings.Join(parts, " ")
	if m.status != "" {
		color := t.Subtext
		if m.statusErr {
			color = t.Error
		}
		room := m.width - lipgloss.Width(header) - 3
		if room > 8 {
			header += "  " + lipgloss.NewStyle().Foreground(color).Render(layout.TruncateWidthDefault(m.status, room))
		}
	}
	return layout.TruncateWidthDefault(header, m.width)
}

func (m Model) renderHelpBar() string {
	t := m.theme

	keyStyle := lipgloss.NewStyle().
		Background(t.Surface0).
		Foreground(t.Text).
		Bold(true).
		Padding(0, 1)

	descStyle := lipgloss.NewStyle().
		Foreground(t.Overlay)

	items := []struct {
		key  string
		desc string
	}{
		{"j/k", "select"},
		{"J/K", "move"},
		{"x", "done"},
		{"+/-", "zoom"},
		{"tab", "panel"},
		{"?", "help"},
		{"q", "quit"},
	}

	var parts []string
	for _, item := range items {
		parts = append(parts, keyStyle.Render(item.key)+" "+descStyle.Render(item.desc))
	}

	return layout.TruncateWidthDefault(strings.Join(parts, "  "), m.width)
}

func (m Model) renderHelp(height int) string {
	t := m.theme
	keyStyle := lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Width(12)
	descStyle := lipgloss.NewStyle().Foreground(t.Text)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Lavender).Bold(true)

	var lines []string
	section := func(title string, bindings []key.Binding, descs []string) {
		lines = append(lines, sectionStyle.Render(title))
		for i, kb := range bindings {
			desc := kb.Help().Desc
			if descs != nil && descs[i] != "" {
				desc = descs[i]
			}
			lines = append(lines, "  "+keyStyle.Render(kb.Help().Key)+descStyle.Render(desc))
		}
		lines = append(lines, "")
	}

	section("Dashboard", []key.Binding{
		dashKeys.Quit, dashKeys.Reload, dashKeys.Focus, dashKeys.ZoomIn,
		dashKeys.ZoomOut, dashKeys.Completed, dashKeys.Help,
	}, nil)

	var (
		bindings []key.Binding
		descs    []string
	)
	for _, kb := range m.timeline.Keybindings() {
		bindings = append(bindings, kb.Key)
		descs = append(descs, kb.Description)
	}
	section("Timeline", bindings, descs)
	lines = append(lines, descStyle.Render("Drag a task with the mouse to move it."))

	return panels.FitToHeight(strings.Join(lines, "\n"), height)
}

// Run starts the dashboard
func Run(opts Options) error {
	model := New(opts)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := model.Start(ctx); err != nil {
		return err
	}
	defer model.Stop()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
