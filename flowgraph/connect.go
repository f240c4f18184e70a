package flowgraph

import (
	"github.com/c360/flowbuilder/errors"
	"github.com/c360/flowbuilder/port"
)

// Connect creates an edge from an output port to an input port. Checks run in
// this order: both nodes exist, both ports exist, the source is an output and
// the target an input, the data types are compatible, and a required target
// input is not already occupied. The existing edge on an occupied input is
// never replaced. Self-loops and exact duplicates of an existing edge are
// rejected as well.
func (g *Graph) Connect(sourceNodeID, sourcePortID, targetNodeID, targetPortID string) (Edge, error) {
	return g.ConnectWithLabel(sourceNodeID, sourcePortID, targetNodeID, targetPortID, "")
}

// ConnectWithLabel is Connect with an edge label
func (g *Graph) ConnectWithLabel(sourceNodeID, sourcePortID, targetNodeID, targetPortID, label string) (Edge, error) {
	src, err := g.node(sourceNodeID, "Connect")
	if err != nil {
		return Edge{}, err
	}
	dst, err := g.node(targetNodeID, "Connect")
	if err != nil {
		return Edge{}, err
	}

	srcDef := g.types[src.TypeID]
	dstDef := g.types[dst.TypeID]

	out, isOutput := srcDef.Output(sourcePortID)
	if !isOutput {
		if _, isInput := srcDef.Input(sourcePortID); isInput {
			return Edge{}, errors.Invalidf(errors.ErrPortNotFound, "Graph", "Connect",
				"port %q on %s is an input; connections start at an output", sourcePortID, sourceNodeID)
		}
		return Edge{}, errors.Invalidf(errors.ErrPortNotFound, "Graph", "Connect",
			"%s has no port %q", sourceNodeID, sourcePortID)
	}
	in, isInput := dstDef.Input(targetPortID)
	if !isInput {
		if _, isOut := dstDef.Output(targetPortID); isOut {
			return Edge{}, errors.Invalidf(errors.ErrPortNotFound, "Graph", "Connect",
				"port %q on %s is an output; connections end at an input", targetPortID, targetNodeID)
		}
		return Edge{}, errors.Invalidf(errors.ErrPortNotFound, "Graph", "Connect",
			"%s has no port %q", targetNodeID, targetPortID)
	}

	if !port.Compatible(out.DataType, in.DataType) {
		return Edge{}, errors.Invalidf(errors.ErrIncompatiblePortTypes, "Graph", "Connect",
			"%s.%s (%s) -> %s.%s (%s)", sourceNodeID, sourcePortID, out.DataType, targetNodeID, targetPortID, in.DataType)
	}

	if sourceNodeID == targetNodeID {
		return Edge{}, errors.Invalidf(errors.ErrInvalidConnection, "Graph", "Connect",
			"node %s cannot connect to itself", sourceNodeID)
	}

	for _, eid := range g.edgeOrder {
		e := g.edges[eid]
		if e.TargetNodeID != targetNodeID || e.TargetPortID != targetPortID {
			continue
		}
		if in.Required {
			return Edge{}, errors.Invalidf(errors.ErrPortAlreadyConnected, "Graph", "Connect",
				"required input %s.%s already fed by %s", targetNodeID, targetPortID, e.ID)
		}
		if e.SourceNodeID == sourceNodeID && e.SourcePortID == sourcePortID {
			return Edge{}, errors.Invalidf(errors.ErrPortAlreadyConnected, "Graph", "Connect",
				"edge %s already connects %s.%s to %s.%s", e.ID, sourceNodeID, sourcePortID, targetNodeID, targetPortID)
		}
	}

	id := g.ids.EdgeID()
	if _, exists := g.edges[id]; exists {
		return Edge{}, errors.WrapFatal(errors.New("generated edge id "+id+" already in use"), "Graph", "Connect", "id generation")
	}

	e := &Edge{
		ID:           id,
		SourceNodeID: sourceNodeID,
		SourcePortID: sourcePortID,
		TargetNodeID: targetNodeID,
		TargetPortID: targetPortID,
		Label:        label,
	}
	g.edges[id] = e
	g.edgeOrder = append(g.edgeOrder, id)

	g.logger.Debug("edge added", "edge", id,
		"source", sourceNodeID+"."+sourcePortID, "target", targetNodeID+"."+targetPortID)
	g.emit(Event{Type: EventEdgeAdded, EdgeID: id, NodeID: targetNodeID})
	return *e, nil
}

// Disconnect removes an edge. Removing an unknown id is a no-op.
func (g *Graph) Disconnect(edgeID string) {
	e, ok := g.edges[edgeID]
	if !ok {
		return
	}
	delete(g.edges, edgeID)
	g.edgeOrder = removeID(g.edgeOrder, edgeID)

	g.logger.Debug("edge removed", "edge", edgeID)
	g.emit(Event{Type: EventEdgeRemoved, EdgeID: edgeID, NodeID: e.TargetNodeID})
}

// GetEdge returns a copy of the edge
func (g *Graph) GetEdge(edgeID string) (Edge, bool) {
	e, ok := g.edges[edgeID]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// ListEdges returns every edge in insertion order
func (g *Graph) ListEdges() []Edge {
	out := make([]Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		out = append(out, *g.edges[id])
	}
	return out
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// IncomingEdges returns the edges ending at nodeID. An empty portID matches
// every input port.
func (g *Graph) IncomingEdges(nodeID, portID string) []Edge {
	var out []Edge
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		if e.TargetNodeID == nodeID && (portID == "" || e.TargetPortID == portID) {
			out = append(out, *e)
		}
	}
	return out
}

// OutgoingEdges returns the edges starting at nodeID. An empty portID matches
// every output port.
func (g *Graph) OutgoingEdges(nodeID, portID string) []Edge {
	var out []Edge
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		if e.SourceNodeID == nodeID && (portID == "" || e.SourcePortID == portID) {
			out = append(out, *e)
		}
	}
	return out
}
