// Package physics implements the force-directed layout that positions graph
// nodes: springs along edges, repulsion between unconnected nodes, a soft pull
// toward the origin and velocity damping.
package physics

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/TFMV/springgraph/graph"
)

const (
	defaultSpringLength = 1.0
	placementSpread     = 5.0
	boxPadding          = 0.07
)

// Spring is the simulation state of one edge.
type Spring struct {
	Edge      *graph.Edge
	Length    float64
	Stiffness float64
}

// BoundingBox is an axis-aligned box in simulation space.
type BoundingBox struct {
	BottomLeft Vector
	TopRight   Vector
}

// Size returns the width and height of the box as a vector.
func (b BoundingBox) Size() Vector {
	return b.TopRight.Sub(b.BottomLeft)
}

// Contains reports whether p lies inside the box.
func (b BoundingBox) Contains(p Vector) bool {
	return p.X >= b.BottomLeft.X && p.X <= b.TopRight.X &&
		p.Y >= b.BottomLeft.Y && p.Y <= b.TopRight.Y
}

// DefaultBoundingBox is the box used when there is too little to measure.
func DefaultBoundingBox() BoundingBox {
	return BoundingBox{BottomLeft: Vector{-2, -2}, TopRight: Vector{2, 2}}
}

// Nearest is the result of a hit-test. Node and Edge are nil when nothing exists.
type Nearest struct {
	Node         *graph.Node
	NodeDistance float64

	Edge         *graph.Edge
	EdgePoint    Vector
	EdgeDistance float64
}

// ForceDirectedLayout keeps one Body per node and one Spring per edge of a
// graph and advances them on Step. It is not safe for concurrent use.
type ForceDirectedLayout struct {
	graph   *graph.Graph
	params  Params
	bodies  []Body
	index   map[string]int
	springs map[string]*Spring
	noise   opensimplex.Noise
	placed  int
	energy  float64
	settled bool
	dirty   bool
}

// NewForceDirectedLayout creates a layout bound to g. Nodes and edges already in
// g are picked up immediately; later changes arrive through a graph listener.
func NewForceDirectedLayout(g *graph.Graph, params Params) *ForceDirectedLayout {
	if params.MaxSpeed == 0 {
		params.MaxSpeed = math.Inf(1)
	}
	fd := &ForceDirectedLayout{
		graph:   g,
		params:  params,
		index:   make(map[string]int),
		springs: make(map[string]*Spring),
		noise:   opensimplex.New(params.Seed),
		dirty:   true,
	}
	for _, n := range g.Nodes() {
		fd.body(n)
	}
	for _, e := range g.Edges() {
		fd.spring(e)
	}
	g.AddListener(fd)
	return fd
}

// Graph returns the graph being laid out.
func (fd *ForceDirectedLayout) Graph() *graph.Graph {
	return fd.graph
}

// Params returns the simulation constants.
func (fd *ForceDirectedLayout) Params() Params {
	return fd.params
}

// GraphChanged keeps bodies and springs in step with the graph.
func (fd *ForceDirectedLayout) GraphChanged(ev graph.Event) {
	switch ev.Action {
	case graph.AddNode:
		fd.body(ev.Node)
	case graph.AddEdge:
		fd.spring(ev.Edge)
	case graph.RemoveEdge:
		delete(fd.springs, ev.Edge.ID)
	case graph.DetachNode:
		fd.dropBody(ev.Node.ID)
	}
	fd.wake()
}

// Step advances the simulation by dt and returns the total kinetic energy.
// Once settled, Step does no work until something changes.
func (fd *ForceDirectedLayout) Step(dt float64) float64 {
	if fd.settled && !fd.dirty {
		return fd.energy
	}
	fd.dirty = false

	next, energy := Advance(fd.state(), fd.params, dt)
	fd.bodies = next.Bodies
	fd.energy = energy
	fd.settled = energy < fd.params.MinEnergy
	return energy
}

// Energy returns the energy measured by the last Step.
func (fd *ForceDirectedLayout) Energy() float64 {
	return fd.energy
}

// Settled reports whether the last Step fell below the energy threshold.
func (fd *ForceDirectedLayout) Settled() bool {
	return fd.settled && !fd.dirty
}

// Position returns the position of node id.
func (fd *ForceDirectedLayout) Position(id string) (Vector, bool) {
	i, ok := fd.index[id]
	if !ok {
		return Vector{}, false
	}
	return fd.bodies[i].Position, true
}

// SetPosition moves node id to p and clears its velocity. Unknown ids are ignored.
func (fd *ForceDirectedLayout) SetPosition(id string, p Vector) {
	i, ok := fd.index[id]
	if !ok {
		return
	}
	fd.bodies[i].Position = p
	fd.bodies[i].Velocity = Vector{}
	fd.wake()
}

// Pin makes node id immovable until Unpin. Unknown ids are ignored.
func (fd *ForceDirectedLayout) Pin(id string) {
	i, ok := fd.index[id]
	if !ok {
		return
	}
	fd.bodies[i].Pinned = true
	fd.bodies[i].Velocity = Vector{}
	fd.wake()
}

// Unpin releases node id; it responds to forces with its own mass again.
func (fd *ForceDirectedLayout) Unpin(id string) {
	i, ok := fd.index[id]
	if !ok {
		return
	}
	fd.bodies[i].Pinned = false
	fd.wake()
}

// Pinned reports whether node id is pinned.
func (fd *ForceDirectedLayout) Pinned(id string) bool {
	i, ok := fd.index[id]
	return ok && fd.bodies[i].Pinned
}

// EachNode calls fn for every node in graph order with its position.
func (fd *ForceDirectedLayout) EachNode(fn func(n *graph.Node, p Vector)) {
	for _, n := range fd.graph.Nodes() {
		fn(n, fd.body(n).Position)
	}
}

// EachEdge calls fn for every edge in graph order with its endpoint positions.
func (fd *ForceDirectedLayout) EachEdge(fn func(e *graph.Edge, p1, p2 Vector)) {
	for _, e := range fd.graph.Edges() {
		fn(e, fd.body(e.Source).Position, fd.body(e.Target).Position)
	}
}

// BoundingBox returns the box around every node, never smaller than the
// default box, padded on each side.
func (fd *ForceDirectedLayout) BoundingBox() BoundingBox {
	bb := DefaultBoundingBox()
	for _, b := range fd.bodies {
		bb.BottomLeft.X = math.Min(bb.BottomLeft.X, b.Position.X)
		bb.BottomLeft.Y = math.Min(bb.BottomLeft.Y, b.Position.Y)
		bb.TopRight.X = math.Max(bb.TopRight.X, b.Position.X)
		bb.TopRight.Y = math.Max(bb.TopRight.Y, b.Position.Y)
	}
	padding := bb.Size().Scale(boxPadding)
	return BoundingBox{
		BottomLeft: bb.BottomLeft.Sub(padding),
		TopRight:   bb.TopRight.Add(padding),
	}
}

// Nearest finds the node closest to p and, independently, the closest point on
// any edge.
func (fd *ForceDirectedLayout) Nearest(p Vector) Nearest {
	var res Nearest

	for _, b := range fd.bodies {
		d := b.Position.Dist(p)
		if res.Node == nil || d < res.NodeDistance {
			if n, ok := fd.graph.Node(b.ID); ok {
				res.Node = n
				res.NodeDistance = d
			}
		}
	}

	fd.EachEdge(func(e *graph.Edge, p1, p2 Vector) {
		q := p.ClosestOnSegment(p1, p2)
		d := q.Dist(p)
		if res.Edge == nil || d < res.EdgeDistance {
			res.Edge = e
			res.EdgePoint = q
			res.EdgeDistance = d
		}
	})

	return res
}

// Springs returns the spring of every edge in graph order.
func (fd *ForceDirectedLayout) Springs() []*Spring {
	edges := fd.graph.Edges()
	out := make([]*Spring, 0, len(edges))
	for _, e := range edges {
		out = append(out, fd.spring(e))
	}
	return out
}

// state builds the pure simulation input. Parallel edges share one spring:
// the first edge between a pair defines it.
func (fd *ForceDirectedLayout) state() State {
	links := make([]Link, 0, len(fd.springs))
	seen := make(map[[2]int]bool, len(fd.springs))
	for _, e := range fd.graph.Edges() {
		s := fd.spring(e)
		a, b := fd.index[e.Source.ID], fd.index[e.Target.ID]
		key := pairKey(a, b)
		if seen[key] {
			continue
		}
		seen[key] = true
		links = append(links, Link{A: a, B: b, Length: s.Length, Stiffness: s.Stiffness})
	}
	return State{Bodies: fd.bodies, Links: links}
}

func (fd *ForceDirectedLayout) body(n *graph.Node) *Body {
	if i, ok := fd.index[n.ID]; ok {
		return &fd.bodies[i]
	}
	fd.bodies = append(fd.bodies, Body{
		ID:       n.ID,
		Position: fd.placement(fd.placed),
		Mass:     n.Data.Mass,
	})
	fd.placed++
	fd.index[n.ID] = len(fd.bodies) - 1
	return &fd.bodies[len(fd.bodies)-1]
}

func (fd *ForceDirectedLayout) dropBody(id string) {
	i, ok := fd.index[id]
	if !ok {
		return
	}
	fd.bodies = append(fd.bodies[:i], fd.bodies[i+1:]...)
	delete(fd.index, id)
	for j := i; j < len(fd.bodies); j++ {
		fd.index[fd.bodies[j].ID] = j
	}
}

func (fd *ForceDirectedLayout) spring(e *graph.Edge) *Spring {
	if s, ok := fd.springs[e.ID]; ok {
		return s
	}
	length := e.Data.Length
	if length <= 0 {
		length = defaultSpringLength
	}
	s := &Spring{Edge: e, Length: length, Stiffness: fd.params.Stiffness}
	fd.springs[e.ID] = s
	return s
}

// placement gives the k-th node a reproducible starting point.
func (fd *ForceDirectedLayout) placement(k int) Vector {
	t := float64(k)*0.7548776662 + 0.3141
	return Vector{
		X: fd.noise.Eval2(t, 1.7) * placementSpread,
		Y: fd.noise.Eval2(4.3, t) * placementSpread,
	}
}

func (fd *ForceDirectedLayout) wake() {
	fd.dirty = true
	fd.settled = false
}
