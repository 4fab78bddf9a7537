// Package graph provides the node/edge store that layouts and renderers observe.
// Every structural change is reported synchronously to registered listeners.
package graph

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNodeNotFound is returned when an edge references a node that is not in the graph.
var ErrNodeNotFound = errors.New("node not found")

// NodeData holds the optional display and behaviour settings of a node.
type NodeData struct {
	Label string
	Color string
	Mass  float64 // simulation mass, 0 means 1.0

	// OnDoubleClick is invoked by pointer handlers when the node is double-clicked.
	OnDoubleClick func(n *Node)
}

// EdgeData holds the optional display and spring settings of an edge.
type EdgeData struct {
	Label       string
	Color       string
	Weight      float64
	Directional bool
	Length      float64 // natural spring length, 0 means 1.0
}

// Node is a vertex of the graph. Positions live in the layout, not here.
type Node struct {
	ID   string
	Data NodeData
}

// Edge connects Source to Target.
type Edge struct {
	ID     string
	Source *Node
	Target *Node
	Data   EdgeData
}

// Graph is an insertion-ordered set of nodes and edges.
// It is not safe for concurrent use; callers serialize access through their host loop.
type Graph struct {
	nodes     map[string]*Node
	nodeOrder []*Node
	edges     map[string]*Edge
	edgeOrder []*Edge
	adjacency map[string]map[string][]*Edge
	listeners []Listener
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		nodes:     make(map[string]*Node),
		edges:     make(map[string]*Edge),
		adjacency: make(map[string]map[string][]*Edge),
	}
}

// AddNode inserts a node. An empty id gets a generated one; an id that is already
// present returns the existing node unchanged.
func (g *Graph) AddNode(id string, data NodeData) *Node {
	if id == "" {
		id = uuid.New().String()
	}
	if n, ok := g.nodes[id]; ok {
		return n
	}

	n := &Node{ID: id, Data: data}
	g.nodes[id] = n
	g.nodeOrder = append(g.nodeOrder, n)
	g.notify(Event{Action: AddNode, Node: n})
	return n
}

// AddEdge connects sourceID to targetID. Both nodes must already exist.
func (g *Graph) AddEdge(id, sourceID, targetID string, data EdgeData) (*Edge, error) {
	source, ok := g.nodes[sourceID]
	if !ok {
		return nil, fmt.Errorf("source %q: %w", sourceID, ErrNodeNotFound)
	}
	target, ok := g.nodes[targetID]
	if !ok {
		return nil, fmt.Errorf("target %q: %w", targetID, ErrNodeNotFound)
	}

	if id == "" {
		id = uuid.New().String()
	}
	if e, ok := g.edges[id]; ok {
		return e, nil
	}

	e := &Edge{ID: id, Source: source, Target: target, Data: data}
	g.edges[id] = e
	g.edgeOrder = append(g.edgeOrder, e)

	if _, ok := g.adjacency[sourceID]; !ok {
		g.adjacency[sourceID] = make(map[string][]*Edge)
	}
	g.adjacency[sourceID][targetID] = append(g.adjacency[sourceID][targetID], e)

	g.notify(Event{Action: AddEdge, Edge: e})
	return e, nil
}

// RemoveNode detaches every incident edge and then the node itself.
// Unknown ids are ignored.
func (g *Graph) RemoveNode(id string) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}

	// Snapshot first: RemoveEdge rewrites edgeOrder.
	incident := g.FilterEdges(func(e *Edge) bool { return e.Source == n || e.Target == n })
	for _, e := range incident {
		g.RemoveEdge(e.ID)
	}

	delete(g.nodes, id)
	g.nodeOrder = removeNode(g.nodeOrder, n)
	delete(g.adjacency, id)
	g.notify(Event{Action: DetachNode, Node: n})
}

// RemoveEdge deletes an edge. Unknown ids are ignored.
func (g *Graph) RemoveEdge(id string) {
	e, ok := g.edges[id]
	if !ok {
		return
	}

	delete(g.edges, id)
	g.edgeOrder = removeEdge(g.edgeOrder, e)

	if targets, ok := g.adjacency[e.Source.ID]; ok {
		remaining := removeEdge(targets[e.Target.ID], e)
		if len(remaining) == 0 {
			delete(targets, e.Target.ID)
		} else {
			targets[e.Target.ID] = remaining
		}
		if len(targets) == 0 {
			delete(g.adjacency, e.Source.ID)
		}
	}

	g.notify(Event{Action: RemoveEdge, Edge: e})
}

// GetEdges returns the edges running from a to b in insertion order.
func (g *Graph) GetEdges(a, b string) []*Edge {
	targets, ok := g.adjacency[a]
	if !ok {
		return nil
	}
	edges := targets[b]
	out := make([]*Edge, len(edges))
	copy(out, edges)
	return out
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id string) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// Nodes returns the nodes in insertion order. The slice is a copy.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodeOrder))
	copy(out, g.nodeOrder)
	return out
}

// Edges returns the edges in insertion order. The slice is a copy.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edgeOrder))
	copy(out, g.edgeOrder)
	return out
}

// Len returns the number of nodes and edges.
func (g *Graph) Len() (nodes, edges int) {
	return len(g.nodeOrder), len(g.edgeOrder)
}

func removeNode(s []*Node, n *Node) []*Node {
	for i := range s {
		if s[i] == n {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = nil
			return s[:len(s)-1]
		}
	}
	return s
}

func removeEdge(s []*Edge, e *Edge) []*Edge {
	for i := range s {
		if s[i] == e {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = nil
			return s[:len(s)-1]
		}
	}
	return s
}
