package render

import (
	"github.com/TFMV/springgraph/graph"
	"github.com/TFMV/springgraph/physics"
)

// parallelSpacing is the screen distance between edges joining the same nodes.
const parallelSpacing = 12.0

// ParallelOffset returns the screen-space shift that draws e beside the other
// edges joining the same two nodes, in either direction. The shift is
// perpendicular to p1→p2 and zero for a lone edge. Edges running the other way
// get the opposite normal, so both directions fan out to separate sides.
func ParallelOffset(g *graph.Graph, e *graph.Edge, p1, p2 physics.Vector) physics.Vector {
	from := g.GetEdges(e.Source.ID, e.Target.ID)
	var to []*graph.Edge
	if e.Source != e.Target {
		to = g.GetEdges(e.Target.ID, e.Source.ID)
	}
	total := len(from) + len(to)
	if total < 2 {
		return physics.Vector{}
	}

	n := 0
	for i, other := range from {
		if other == e {
			n = i
		}
	}
	normal := p2.Sub(p1).Perp().Normalize()
	return normal.Scale(-float64(total-1)*parallelSpacing/2 + float64(n)*parallelSpacing)
}
