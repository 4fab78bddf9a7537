package graph

// Action identifies a structural change.
type Action int

const (
	AddNode Action = iota
	AddEdge
	RemoveEdge
	DetachNode
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case AddNode:
		return "addNode"
	case AddEdge:
		return "addEdge"
	case RemoveEdge:
		return "removeEdge"
	case DetachNode:
		return "detachNode"
	}
	return "unknown"
}

// Event describes one change. Node is set for node actions, Edge for edge actions.
type Event struct {
	Action Action
	Node   *Node
	Edge   *Edge
}

// Listener receives graph changes before the mutating call returns.
type Listener interface {
	GraphChanged(ev Event)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(ev Event)

// GraphChanged calls f(ev).
func (f ListenerFunc) GraphChanged(ev Event) {
	f(ev)
}

// AddListener registers l. Listeners are called in registration order.
func (g *Graph) AddListener(l Listener) {
	g.listeners = append(g.listeners, l)
}

func (g *Graph) notify(ev Event) {
	for _, l := range g.listeners {
		l.GraphChanged(ev)
	}
}
