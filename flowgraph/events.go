package flowgraph

import "github.com/c360/flowbuilder/schema"

// EventType names a graph mutation
type EventType string

// Event types, one per successful mutation
const (
	EventNodeAdded     EventType = "node_added"
	EventNodeRemoved   EventType = "node_removed"
	EventNodeMoved     EventType = "node_moved"
	EventEdgeAdded     EventType = "edge_added"
	EventEdgeRemoved   EventType = "edge_removed"
	EventConfigChanged EventType = "config_changed"
	EventStatusChanged EventType = "status_changed"
)

// Event describes a completed mutation. Observers see the graph in its final
// state for the mutation; a node removal and its cascaded edge removals arrive
// as one event.
type Event struct {
	Type   EventType
	NodeID string
	EdgeID string

	// RemovedEdges lists the edges cascaded by a node removal
	RemovedEdges []string

	// Section is set for config_changed when a single section changed
	Section  schema.Section
	Position Position
	Status   Status
}

// Subscribe registers fn for every subsequent event and returns a function
// that removes it. Observers run synchronously on the mutating goroutine and
// must not mutate the graph.
func (g *Graph) Subscribe(fn func(Event)) func() {
	g.nextObserver++
	id := g.nextObserver
	g.observers = append(g.observers, observer{id: id, fn: fn})
	return func() {
		for i, o := range g.observers {
			if o.id == id {
				g.observers = append(g.observers[:i], g.observers[i+1:]...)
				return
			}
		}
	}
}

type observer struct {
	id int
	fn func(Event)
}

func (g *Graph) emit(e Event) {
	for _, o := range append([]observer(nil), g.observers...) {
		o.fn(e)
	}
}
