package render

import (
	"math"
	"strings"

	"github.com/TFMV/springgraph/graph"
	"github.com/TFMV/springgraph/physics"
)

const edgeRune = '·'

var nodeGlyphs = []rune{'O', '@', '#', 'X', '*', '+'}

// Canvas is a Backend that draws into a character grid, one cell per screen
// unit. Each node keeps the glyph it was first drawn with.
type Canvas struct {
	width, height int
	cells         [][]rune
	owners        [][]string
	glyphs        *Handles[rune]
	nextGlyph     int
	fixedGlyph    rune
	ShowLabels    bool
}

// NewCanvas creates a width x height canvas for g. A non-zero glyph is used for
// every node instead of cycling through the built-in set.
func NewCanvas(g *graph.Graph, width, height int, glyph rune) *Canvas {
	c := &Canvas{fixedGlyph: glyph, ShowLabels: true}
	c.glyphs = NewHandles[rune](g, nil)
	c.Resize(width, height)
	return c
}

// Resize changes the grid size and clears it.
func (c *Canvas) Resize(width, height int) {
	c.width = max(width, 1)
	c.height = max(height, 1)
	c.cells = make([][]rune, c.height)
	c.owners = make([][]string, c.height)
	for y := range c.cells {
		c.cells[y] = make([]rune, c.width)
		c.owners[y] = make([]string, c.width)
	}
	c.Clear()
}

// Size implements Surface. The last row and column are kept inside the grid.
func (c *Canvas) Size() (float64, float64) {
	return float64(c.width - 1), float64(c.height - 1)
}

// Clear implements Backend.
func (c *Canvas) Clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = ' '
			c.owners[y][x] = ""
		}
	}
}

// DrawEdge implements Backend.
func (c *Canvas) DrawEdge(e *graph.Edge, p1, p2 physics.Vector) {
	x1, y1 := c.cell(p1)
	x2, y2 := c.cell(p2)
	c.drawLine(x1, y1, x2, y2)
}

// DrawNode implements Backend.
func (c *Canvas) DrawNode(n *graph.Node, p physics.Vector) {
	glyph := c.glyphs.Node(n.ID, c.assignGlyph)
	x, y := c.cell(p)
	c.cells[y][x] = glyph
	c.owners[y][x] = n.ID

	if !c.ShowLabels || n.Data.Label == "" || y+1 >= c.height {
		return
	}
	label := []rune(n.Data.Label)
	for i := 0; i < len(label) && x+i < c.width; i++ {
		if c.owners[y+1][x+i] != "" {
			break
		}
		c.cells[y+1][x+i] = label[i]
		c.owners[y+1][x+i] = n.ID
	}
}

// Cell returns the rune at (x, y) and the id of the node that owns it, if any.
func (c *Canvas) Cell(x, y int) (rune, string) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return ' ', ""
	}
	return c.cells[y][x], c.owners[y][x]
}

// Dimensions returns the grid size in cells.
func (c *Canvas) Dimensions() (width, height int) {
	return c.width, c.height
}

// Lines returns the grid row by row.
func (c *Canvas) Lines() []string {
	out := make([]string, c.height)
	for y, row := range c.cells {
		out[y] = string(row)
	}
	return out
}

// String returns the grid as newline-separated rows.
func (c *Canvas) String() string {
	return strings.Join(c.Lines(), "\n")
}

func (c *Canvas) assignGlyph() rune {
	if c.fixedGlyph != 0 {
		return c.fixedGlyph
	}
	g := nodeGlyphs[c.nextGlyph%len(nodeGlyphs)]
	c.nextGlyph++
	return g
}

func (c *Canvas) cell(p physics.Vector) (int, int) {
	x := int(math.Round(p.X))
	y := int(math.Round(p.Y))
	return clamp(x, 0, c.width-1), clamp(y, 0, c.height-1)
}

// drawLine plots a Bresenham line without overwriting node glyphs.
func (c *Canvas) drawLine(x1, y1, x2, y2 int) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 >= x2 {
		sx = -1
	}
	sy := 1
	if y1 >= y2 {
		sy = -1
	}
	err := dx + dy

	for {
		if c.owners[y1][x1] == "" {
			c.cells[y1][x1] = edgeRune
		}
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
