package graph

import "fmt"

// NodeFilter is a function type used to filter nodes in queries
type NodeFilter func(n *Node) bool

// EdgeFilter is a function type used to filter edges in queries
type EdgeFilter func(e *Edge) bool

// Neighbors returns all nodes directly connected to id, in insertion order.
func (g *Graph) Neighbors(id string) []*Node {
	seen := make(map[string]bool)
	for _, e := range g.edgeOrder {
		if e.Source.ID == id {
			seen[e.Target.ID] = true
		}
		if e.Target.ID == id {
			seen[e.Source.ID] = true
		}
	}

	var result []*Node
	for _, n := range g.nodeOrder {
		if seen[n.ID] {
			result = append(result, n)
		}
	}
	return result
}

// FilterNodes returns nodes that match the provided filter function
func (g *Graph) FilterNodes(filter NodeFilter) []*Node {
	var result []*Node
	for _, n := range g.nodeOrder {
		if filter(n) {
			result = append(result, n)
		}
	}
	return result
}

// FilterEdges returns edges that match the provided filter function
func (g *Graph) FilterEdges(filter EdgeFilter) []*Edge {
	var result []*Edge
	for _, e := range g.edgeOrder {
		if filter(e) {
			result = append(result, e)
		}
	}
	return result
}

// AddNodes adds one node per id using the id as its label.
func (g *Graph) AddNodes(ids ...string) []*Node {
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.AddNode(id, NodeData{Label: id}))
	}
	return out
}

// AddEdges adds an edge for each [source, target] pair. It stops at the first
// pair that references a missing node.
func (g *Graph) AddEdges(pairs ...[2]string) ([]*Edge, error) {
	out := make([]*Edge, 0, len(pairs))
	for i, p := range pairs {
		e, err := g.AddEdge("", p[0], p[1], EdgeData{})
		if err != nil {
			return out, fmt.Errorf("edge %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}
