package dashboard

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dayplan/dayplan/internal/engine"
	"github.com/dayplan/dayplan/internal/tasks"
	"github.com/dayplan/dayplan/internal/util"
)

type refreshKind int

const (
	refreshFile refreshKind = iota
)

// generations numbers async fetches so results that arrive after a newer
// fetch started are dropped.
type generations struct {
	mu   sync.Mutex
	last map[refreshKind]uint64
}

func newGenerations() *generations {
	return &generations{last: make(map[refreshKind]uint64)}
}

func (g *generations) next(kind refreshKind) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last[kind]++
	return g.last[kind]
}

func (g *generations) current(kind refreshKind, gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return gen == g.last[kind]
}

func (m *Model) nextGen(kind refreshKind) uint64 {
	return m.gens.next(kind)
}

// loadFileCmd reads the task file. A missing file is an empty plan.
func (m *Model) loadFileCmd() tea.Cmd {
	gen := m.nextGen(refreshFile)
	path := m.path
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return FileLoadedMsg{Gen: gen}
		}
		if err != nil {
			return FileLoadedMsg{Err: fmt.Errorf("reading %s: %w", path, err), Gen: gen}
		}
		return FileLoadedMsg{Text: string(data), Gen: gen}
	}
}

// waitForEvent blocks until the watcher or the refresher reports something.
func (m *Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

// fileEngine returns an engine that writes changes to the task file. Line is
// the task's index when it was parsed.
func (m *Model) fileEngine(line int) *engine.Engine {
	path := m.path
	return engine.New(m.engine.Config(), func(oldLine, newLine string) error {
		return util.ReplaceLineInFile(path, line, oldLine, newLine)
	}, engine.WithLogger(m.logger))
}

func (m *Model) dropCmd(item tasks.Item, at time.Time) tea.Cmd {
	eng := m.fileEngine(item.Line)
	return func() tea.Msg {
		res, err := eng.Drop(item, at)
		return MutationResultMsg{Action: "move", Label: item.Label, At: res.Instant, Err: err}
	}
}

func (m *Model) shiftCmd(item tasks.Item, steps int) tea.Cmd {
	eng := m.fileEngine(item.Line)
	return func() tea.Msg {
		res, err := eng.Shift(item, steps)
		return MutationResultMsg{Action: "move", Label: item.Label, At: res.Instant, Err: err}
	}
}

func (m *Model) toggleCmd(item tasks.Item) tea.Cmd {
	eng := m.fileEngine(item.Line)
	return func() tea.Msg {
		_, err := eng.Toggle(item)
		return MutationResultMsg{Action: "toggle", Label: item.Label, Err: err}
	}
}
