package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diagram-to-compose/composer/internal/geometry"
	"github.com/diagram-to-compose/composer/internal/topology"
)

// Default size of one terminal cell in canvas units. Cells are about twice
// as tall as they are wide.
const (
	DefaultCellWidth  = 8.0
	DefaultCellHeight = 16.0
)

var glyphs = map[topology.NodeType]rune{
	topology.TypeServer:      '▣',
	topology.TypeWorkstation: '▢',
	topology.TypeNetwork:     '◎',
	topology.TypeDisk:        '◍',
}

type ink uint8

const (
	inkNone ink = iota
	inkLink
	inkNode
	inkSelected
	inkTarget
)

var inkStyles = map[ink]lipgloss.Style{
	inkLink:     linkStyle,
	inkNode:     nodeStyle,
	inkSelected: accentStyle,
	inkTarget:   warningStyle,
}

// grid maps canvas coordinates onto terminal cells.
type grid struct {
	cols, rows int
	cellW      float64
	cellH      float64
}

// point returns the canvas point at the center of cell (col, row).
func (g grid) point(col, row int) geometry.Point {
	return geometry.Point{X: (float64(col) + 0.5) * g.cellW, Y: (float64(row) + 0.5) * g.cellH}
}

// cell returns the cell containing canvas point p.
func (g grid) cell(p geometry.Point) (col, row int) {
	return int(math.Floor(p.X / g.cellW)), int(math.Floor(p.Y / g.cellH))
}

// highlight marks nodes drawn with a non-default style.
type highlight struct {
	selected map[int64]bool
	target   map[int64]bool
}

type canvas struct {
	g     grid
	runes [][]rune
	inks  [][]ink
}

func newCanvas(g grid) *canvas {
	c := &canvas{g: g, runes: make([][]rune, g.rows), inks: make([][]ink, g.rows)}
	for r := range g.rows {
		c.runes[r] = []rune(strings.Repeat(" ", g.cols))
		c.inks[r] = make([]ink, g.cols)
	}
	return c
}

func (c *canvas) set(col, row int, r rune, k ink) {
	if row < 0 || row >= c.g.rows || col < 0 || col >= c.g.cols {
		return
	}
	c.runes[row][col] = r
	c.inks[row][col] = k
}

// line plots a straight segment between two cells.
func (c *canvas) line(x0, y0, x1, y1 int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		c.set(x0, y0, '·', inkLink)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (c *canvas) text(col, row int, s string, k ink) {
	for i, r := range []rune(s) {
		c.set(col+i, row, r, k)
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	for r := range c.g.rows {
		if r > 0 {
			b.WriteByte('\n')
		}
		row, inks := c.runes[r], c.inks[r]
		start := 0
		for i := 1; i <= len(row); i++ {
			if i < len(row) && inks[i] == inks[start] {
				continue
			}
			seg := string(row[start:i])
			if st, ok := inkStyles[inks[start]]; ok {
				seg = st.Render(seg)
			}
			b.WriteString(seg)
			start = i
		}
	}
	return b.String()
}

// drawTopology paints links first and nodes over them.
func drawTopology(t topology.Topology, g grid, h highlight) string {
	c := newCanvas(g)
	for _, l := range t.Links {
		from, okFrom := t.NodeByID(l.From)
		to, okTo := t.NodeByID(l.To)
		if !okFrom || !okTo {
			continue
		}
		x0, y0 := g.cell(from.Position())
		x1, y1 := g.cell(to.Position())
		c.line(x0, y0, x1, y1)
	}
	for _, n := range t.Nodes {
		k := inkNode
		switch {
		case h.selected[n.ID]:
			k = inkSelected
		case h.target[n.ID]:
			k = inkTarget
		}
		col, row := g.cell(n.Position())
		c.set(col, row, glyphs[n.Type], k)
		c.text(col+2, row, nodeLabel(n), k)
	}
	return c.String()
}

func nodeLabel(n topology.Node) string {
	label := n.Name
	if label == "" {
		label = string(n.Type)
	}
	if n.Service != "" {
		label = fmt.Sprintf("%s (%s)", label, n.Service)
	}
	return label
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
