package panels

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// cell is one terminal cell. A zero rune marks the right half of a wide rune.
type cell struct {
	r     rune
	style int
}

// canvas is a fixed grid of styled cells that renders to lines of runs.
type canvas struct {
	w, h   int
	cells  [][]cell
	styles []lipgloss.Style
}

func newCanvas(w, h int) *canvas {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	c := &canvas{w: w, h: h, styles: []lipgloss.Style{lipgloss.NewStyle()}}
	c.cells = make([][]cell, h)
	for y := range c.cells {
		row := make([]cell, w)
		for x := range row {
			row[x] = cell{r: ' '}
		}
		c.cells[y] = row
	}
	return c
}

// style registers s and returns its index.
func (c *canvas) style(s lipgloss.Style) int {
	c.styles = append(c.styles, s)
	return len(c.styles) - 1
}

func (c *canvas) inside(x, y int) bool {
	return y >= 0 && y < c.h && x >= 0 && x < c.w
}

// blank reports whether the cell holds only a space or a grid rune.
func (c *canvas) blank(x, y int) bool {
	if !c.inside(x, y) {
		return false
	}
	switch c.cells[y][x].r {
	case ' ', '┄', '┈':
		return true
	}
	return false
}

// put stores cl at (x, y). Overwriting either half of a wide rune blanks
// the other half so the row keeps its width.
func (c *canvas) put(x, y int, cl cell) {
	if !c.inside(x, y) {
		return
	}
	row := c.cells[y]
	if row[x].r == 0 && x > 0 {
		row[x-1] = cell{r: ' ', style: row[x-1].style}
	}
	if x+1 < c.w && row[x+1].r == 0 {
		row[x+1] = cell{r: ' ', style: row[x+1].style}
	}
	row[x] = cl
}

// fill paints w cells starting at (x, y) with r.
func (c *canvas) fill(x, y, w int, r rune, style int) {
	for i := 0; i < w; i++ {
		c.put(x+i, y, cell{r: r, style: style})
	}
}

// fillBlank is fill limited to blank cells.
func (c *canvas) fillBlank(x, y, w int, r rune, style int) {
	for i := 0; i < w; i++ {
		if c.blank(x+i, y) {
			c.put(x+i, y, cell{r: r, style: style})
		}
	}
}

// rect paints a w by h block of spaces.
func (c *canvas) rect(x, y, w, h, style int) {
	for dy := 0; dy < h; dy++ {
		c.fill(x, y+dy, w, ' ', style)
	}
}

// text writes s at (x, y) without crossing x+maxW. Wide runes that would
// straddle the limit are dropped.
func (c *canvas) text(x, y, maxW int, s string, style int) {
	if y < 0 || y >= c.h {
		return
	}
	limit := x + maxW
	if limit > c.w {
		limit = c.w
	}
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if x+rw > limit {
			return
		}
		if x >= 0 {
			if rw == 2 {
				c.put(x+1, y, cell{r: ' ', style: style})
			}
			c.put(x, y, cell{r: r, style: style})
			if rw == 2 {
				c.cells[y][x+1] = cell{r: 0, style: style}
			}
		}
		x += rw
	}
}

// line renders row y.
func (c *canvas) line(y int) string {
	if y < 0 || y >= c.h {
		return ""
	}
	var b strings.Builder
	var run strings.Builder
	cur := -1
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if cur == 0 {
			b.WriteString(run.String())
		} else {
			b.WriteString(c.styles[cur].Render(run.String()))
		}
		run.Reset()
	}
	for _, cl := range c.cells[y] {
		if cl.r == 0 {
			continue
		}
		if cl.style != cur {
			flush()
			cur = cl.style
		}
		run.WriteRune(cl.r)
	}
	flush()
	return b.String()
}

// String renders every row.
func (c *canvas) String() string {
	lines := make([]string, c.h)
	for y := range lines {
		lines[y] = c.line(y)
	}
	return strings.Join(lines, "\n")
}
