package render

import "github.com/TFMV/springgraph/graph"

// Handles maps node and edge ids to backend-owned handles (shapes, elements,
// glyphs). It listens to the graph and releases a handle as soon as its node
// or edge is removed.
type Handles[H any] struct {
	nodes   map[string]H
	edges   map[string]H
	release func(H)
}

// NewHandles creates an empty table bound to g. release may be nil.
func NewHandles[H any](g *graph.Graph, release func(H)) *Handles[H] {
	h := &Handles[H]{
		nodes:   make(map[string]H),
		edges:   make(map[string]H),
		release: release,
	}
	g.AddListener(h)
	return h
}

// Node returns the handle of node id, creating it with create on first use.
func (h *Handles[H]) Node(id string, create func() H) H {
	if v, ok := h.nodes[id]; ok {
		return v
	}
	v := create()
	h.nodes[id] = v
	return v
}

// Edge returns the handle of edge id, creating it with create on first use.
func (h *Handles[H]) Edge(id string, create func() H) H {
	if v, ok := h.edges[id]; ok {
		return v
	}
	v := create()
	h.edges[id] = v
	return v
}

// LookupNode returns the handle of node id without creating one.
func (h *Handles[H]) LookupNode(id string) (H, bool) {
	v, ok := h.nodes[id]
	return v, ok
}

// LookupEdge returns the handle of edge id without creating one.
func (h *Handles[H]) LookupEdge(id string) (H, bool) {
	v, ok := h.edges[id]
	return v, ok
}

// Len returns the number of live node and edge handles.
func (h *Handles[H]) Len() (nodes, edges int) {
	return len(h.nodes), len(h.edges)
}

// GraphChanged implements graph.Listener.
func (h *Handles[H]) GraphChanged(ev graph.Event) {
	switch ev.Action {
	case graph.RemoveEdge:
		h.drop(h.edges, ev.Edge.ID)
	case graph.DetachNode:
		h.drop(h.nodes, ev.Node.ID)
	}
}

func (h *Handles[H]) drop(m map[string]H, id string) {
	v, ok := m[id]
	if !ok {
		return
	}
	delete(m, id)
	if h.release != nil {
		h.release(v)
	}
}
