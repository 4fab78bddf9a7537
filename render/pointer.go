package render

import (
	"github.com/TFMV/springgraph/graph"
	"github.com/TFMV/springgraph/physics"
)

// Pointer turns screen-space pointer events into layout queries and drag
// overrides. Events with nothing under them are ignored.
type Pointer struct {
	r         *Renderer
	hitRadius float64

	dragged  *graph.Node
	hovered  *graph.Node
	selected *graph.Node

	// OnSelect is called when a press lands on a node.
	OnSelect func(n *graph.Node)
	// OnHover is called when the node under the pointer changes; n may be nil.
	OnHover func(n *graph.Node)
}

func newPointer(r *Renderer, hitRadius float64) *Pointer {
	return &Pointer{r: r, hitRadius: hitRadius}
}

// Press starts dragging the node under (x, y), if any. A node still held from
// an earlier press is let go first.
func (p *Pointer) Press(x, y float64) {
	n := p.hit(x, y)
	if n == nil {
		return
	}
	if p.dragged != nil && p.dragged != n {
		p.r.layout.Unpin(p.dragged.ID)
	}
	p.dragged = n
	p.selected = n
	p.r.layout.Pin(n.ID)
	if p.OnSelect != nil {
		p.OnSelect(n)
	}
	p.r.Start()
}

// Move drags the held node to (x, y) and updates the hovered node.
func (p *Pointer) Move(x, y float64) {
	changed := false
	if p.dragged != nil {
		p.r.layout.SetPosition(p.dragged.ID, p.r.viewport.FromScreen(physics.Vector{X: x, Y: y}))
		changed = true
	}

	if n := p.hit(x, y); n != p.hovered {
		p.hovered = n
		if p.OnHover != nil {
			p.OnHover(n)
		}
		changed = true
	}

	if changed {
		p.r.Start()
	}
}

// Release lets go of the held node.
func (p *Pointer) Release(x, y float64) {
	if p.dragged == nil {
		return
	}
	p.r.layout.Unpin(p.dragged.ID)
	p.dragged = nil
	p.r.Start()
}

// DoubleClick invokes the double-click hook of the node under (x, y).
func (p *Pointer) DoubleClick(x, y float64) {
	n := p.hit(x, y)
	if n == nil || n.Data.OnDoubleClick == nil {
		return
	}
	n.Data.OnDoubleClick(n)
}

// Dragging reports whether a node is held.
func (p *Pointer) Dragging() bool {
	return p.dragged != nil
}

// Dragged returns the held node, or nil.
func (p *Pointer) Dragged() *graph.Node {
	return p.dragged
}

// Hovered returns the node last under the pointer, or nil.
func (p *Pointer) Hovered() *graph.Node {
	return p.hovered
}

// Selected returns the node last pressed, or nil.
func (p *Pointer) Selected() *graph.Node {
	return p.selected
}

// hit returns the nearest node to the screen position, or nil when the graph
// is empty or the node lies outside the hit radius.
func (p *Pointer) hit(x, y float64) *graph.Node {
	screen := physics.Vector{X: x, Y: y}
	near := p.r.layout.Nearest(p.r.viewport.FromScreen(screen))
	if near.Node == nil {
		return nil
	}
	if p.hitRadius > 0 {
		pos, ok := p.r.layout.Position(near.Node.ID)
		if !ok || p.r.viewport.ToScreen(pos).Dist(screen) > p.hitRadius {
			return nil
		}
	}
	return near.Node
}

// forget drops every reference to a node leaving the graph.
func (p *Pointer) forget(n *graph.Node) {
	if n == nil {
		return
	}
	if p.dragged != nil && p.dragged.ID == n.ID {
		p.dragged = nil
	}
	if p.hovered != nil && p.hovered.ID == n.ID {
		p.hovered = nil
	}
	if p.selected != nil && p.selected.ID == n.ID {
		p.selected = nil
	}
}
