package render

import (
	"bytes"
	"fmt"
	"html"
	"math"

	"github.com/TFMV/springgraph/graph"
	"github.com/TFMV/springgraph/physics"
)

const (
	defaultNodeColor = "#4285F4"
	defaultEdgeColor = "#666666"
)

// SVGOptions controls how SVG frames look.
type SVGOptions struct {
	Width      float64
	Height     float64
	Background string
	NodeRadius float64
	EdgeWidth  float64
	FontSize   float64
	ShowLabels bool
}

// DefaultSVGOptions returns a 800x600 frame with labels.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Width:      800,
		Height:     600,
		Background: "#FFFFFF",
		NodeRadius: 6,
		EdgeWidth:  1.5,
		FontSize:   12,
		ShowLabels: true,
	}
}

// svgElement is the retained handle of one node or edge: its element id.
type svgElement struct {
	id string
}

// SVG is a Backend that builds SVG frames. Every node and edge keeps the same
// element id for its whole life, so clients can diff successive frames.
type SVG struct {
	graph     *graph.Graph
	opts      SVGOptions
	handles   *Handles[*svgElement]
	seq       int
	highlight string

	edges bytes.Buffer
	nodes bytes.Buffer
}

// NewSVG creates an SVG backend for g.
func NewSVG(g *graph.Graph, opts SVGOptions) *SVG {
	if opts.NodeRadius <= 0 {
		opts.NodeRadius = DefaultSVGOptions().NodeRadius
	}
	if opts.EdgeWidth <= 0 {
		opts.EdgeWidth = DefaultSVGOptions().EdgeWidth
	}
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultSVGOptions().FontSize
	}
	if opts.Background == "" {
		opts.Background = DefaultSVGOptions().Background
	}
	return &SVG{graph: g, opts: opts, handles: NewHandles[*svgElement](g, nil)}
}

// Size implements Surface.
func (s *SVG) Size() (float64, float64) {
	return s.opts.Width, s.opts.Height
}

// SetSize changes the frame size.
func (s *SVG) SetSize(width, height float64) {
	s.opts.Width = width
	s.opts.Height = height
}

// SetHighlight marks node id with an outline. An empty id clears it.
func (s *SVG) SetHighlight(id string) {
	s.highlight = id
}

// NodeElement returns the element id of node id, or "" if it has not been drawn.
func (s *SVG) NodeElement(id string) string {
	if el, ok := s.handles.LookupNode(id); ok {
		return el.id
	}
	return ""
}

// EdgeElement returns the element id of edge id, or "" if it has not been drawn.
func (s *SVG) EdgeElement(id string) string {
	if el, ok := s.handles.LookupEdge(id); ok {
		return el.id
	}
	return ""
}

// Clear implements Backend.
func (s *SVG) Clear() {
	s.edges.Reset()
	s.nodes.Reset()
}

// DrawEdge implements Backend.
func (s *SVG) DrawEdge(e *graph.Edge, p1, p2 physics.Vector) {
	el := s.handles.Edge(e.ID, s.newElement("e"))
	off := ParallelOffset(s.graph, e, p1, p2)
	p1, p2 = p1.Add(off), p2.Add(off)

	color := defaultEdgeColor
	if e.Data.Color != "" {
		color = e.Data.Color
	}
	width := s.opts.EdgeWidth
	if e.Data.Weight > 0 {
		width = math.Max(0.5, e.Data.Weight*s.opts.EdgeWidth*0.5)
	}
	marker := ""
	if e.Data.Directional {
		marker = ` marker-end="url(#arrow)"`
		p2 = shorten(p1, p2, s.opts.NodeRadius)
	}

	fmt.Fprintf(&s.edges, `<line id="%s" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.2f"%s/>`+"\n",
		el.id, p1.X, p1.Y, p2.X, p2.Y, html.EscapeString(color), width, marker)

	if s.opts.ShowLabels && e.Data.Label != "" {
		mid := p1.Add(p2).Scale(0.5)
		fmt.Fprintf(&s.edges, `<text x="%.2f" y="%.2f" font-family="sans-serif" font-size="%.1f" fill="%s" text-anchor="middle">%s</text>`+"\n",
			mid.X, mid.Y, s.opts.FontSize, html.EscapeString(color), html.EscapeString(e.Data.Label))
	}
}

// DrawNode implements Backend.
func (s *SVG) DrawNode(n *graph.Node, p physics.Vector) {
	el := s.handles.Node(n.ID, s.newElement("n"))

	color := defaultNodeColor
	if n.Data.Color != "" {
		color = n.Data.Color
	}
	stroke := `stroke="rgba(0,0,0,0.3)" stroke-width="0.5"`
	if n.ID == s.highlight {
		stroke = `stroke="#000000" stroke-width="2"`
	}

	fmt.Fprintf(&s.nodes, `<g id="%s"><circle cx="%.2f" cy="%.2f" r="%.1f" fill="%s" %s/>`,
		el.id, p.X, p.Y, s.opts.NodeRadius, html.EscapeString(color), stroke)
	if s.opts.ShowLabels && n.Data.Label != "" {
		fmt.Fprintf(&s.nodes, `<text x="%.2f" y="%.2f" font-family="sans-serif" font-size="%.1f" fill="#333333" text-anchor="middle">%s</text>`,
			p.X, p.Y+s.opts.NodeRadius+s.opts.FontSize+2, s.opts.FontSize, html.EscapeString(n.Data.Label))
	}
	s.nodes.WriteString("</g>\n")
}

// Document returns the last drawn frame as a standalone SVG document.
func (s *SVG) Document() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
`, s.opts.Width, s.opts.Height, s.opts.Width, s.opts.Height, html.EscapeString(s.opts.Background))

	buf.WriteString(`<defs>
  <marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="6" markerHeight="6" orient="auto">
    <path d="M0,0 L10,5 L0,10 z" fill="#666666"/>
  </marker>
</defs>
`)
	buf.Write(s.edges.Bytes())
	buf.Write(s.nodes.Bytes())
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (s *SVG) newElement(prefix string) func() *svgElement {
	return func() *svgElement {
		s.seq++
		return &svgElement{id: fmt.Sprintf("%s%d", prefix, s.seq)}
	}
}

// shorten pulls p2 back toward p1 by r so arrowheads stop at the node's rim.
func shorten(p1, p2 physics.Vector, r float64) physics.Vector {
	d := p2.Sub(p1)
	if d.Len() <= r {
		return p2
	}
	return p2.Sub(d.Normalize().Scale(r))
}
