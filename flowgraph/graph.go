// Package flowgraph holds the workflow graph: node instances, the typed edges
// between their ports, and the mutation API that keeps both consistent.
//
// Every mutating call validates its preconditions before touching state and
// either applies completely or returns an error and changes nothing, so a
// graph is never observable with a dangling edge or an edge between
// incompatible ports. A Graph is not safe for concurrent mutation; wrap it
// (see package editor) when more than one goroutine drives it.
package flowgraph

import (
	"fmt"
	"log/slog"

	"github.com/c360/flowbuilder/errors"
	"github.com/c360/flowbuilder/nodetype"
	"github.com/c360/flowbuilder/schema"
)

// Catalog supplies node type definitions; *nodetype.Registry satisfies it.
type Catalog interface {
	Get(typeID string) (nodetype.Definition, error)
	CreateDefaultConfiguration(typeID string) (schema.Configuration, error)
}

// Position is a canvas coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Status is the display-only run state of a node
type Status string

// Status values
const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusRunning, StatusSuccess, StatusError:
		return true
	default:
		return false
	}
}

// Node is one instance of a node type placed on the canvas
type Node struct {
	ID       string               `json:"id"`
	TypeID   string               `json:"type"`
	Position Position             `json:"position"`
	Config   schema.Configuration `json:"config"`
	Status   Status               `json:"status"`
}

func (n *Node) clone() Node {
	c := *n
	c.Config = n.Config.Clone()
	return c
}

// Edge connects an output port of one node to an input port of another
type Edge struct {
	ID           string `json:"id"`
	SourceNodeID string `json:"source"`
	SourcePortID string `json:"source_port"`
	TargetNodeID string `json:"target"`
	TargetPortID string `json:"target_port"`
	Label        string `json:"label,omitempty"`
}

// Graph stores nodes and edges in insertion order
type Graph struct {
	catalog Catalog
	ids     IDGenerator
	logger  *slog.Logger

	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string]*Edge
	edgeOrder []string

	// definitions of every type instantiated in this graph, captured at first
	// use so later catalog changes cannot invalidate existing edges
	types map[string]nodetype.Definition

	observers    []observer
	nextObserver int
}

// Option configures a Graph
type Option func(*Graph)

// WithIDGenerator replaces the default SequentialIDs
func WithIDGenerator(gen IDGenerator) Option {
	return func(g *Graph) {
		if gen != nil {
			g.ids = gen
		}
	}
}

// WithLogger sets the logger; the default is slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates an empty graph whose nodes are drawn from catalog
func New(catalog Catalog, opts ...Option) *Graph {
	g := &Graph{
		catalog: catalog,
		ids:     NewSequentialIDs(),
		logger:  slog.Default(),
		nodes:   make(map[string]*Node),
		edges:   make(map[string]*Edge),
		types:   make(map[string]nodetype.Definition),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddNode instantiates typeID at pos with a fresh id and the type's default
// configuration.
func (g *Graph) AddNode(typeID string, pos Position) (Node, error) {
	def, err := g.definition(typeID)
	if err != nil {
		return Node{}, errors.Wrap(err, "Graph", "AddNode", "type lookup")
	}
	cfg, err := g.catalog.CreateDefaultConfiguration(typeID)
	if err != nil {
		return Node{}, errors.Wrap(err, "Graph", "AddNode", "default configuration")
	}

	id := g.ids.NodeID(typeID)
	if _, exists := g.nodes[id]; exists {
		return Node{}, errors.WrapFatal(fmt.Errorf("generated node id %q already in use", id), "Graph", "AddNode", "id generation")
	}

	n := &Node{ID: id, TypeID: def.ID, Position: pos, Config: cfg, Status: StatusIdle}
	g.nodes[id] = n
	g.nodeOrder = append(g.nodeOrder, id)

	g.logger.Debug("node added", "node", id, "type", typeID, "x", pos.X, "y", pos.Y)
	g.emit(Event{Type: EventNodeAdded, NodeID: id, Position: pos})
	return n.clone(), nil
}

// RemoveNode deletes the node and every edge touching it in one step.
// Removing an unknown id is a no-op.
func (g *Graph) RemoveNode(nodeID string) {
	if _, ok := g.nodes[nodeID]; !ok {
		return
	}

	var removed []string
	kept := g.edgeOrder[:0:0]
	for _, eid := range g.edgeOrder {
		e := g.edges[eid]
		if e.SourceNodeID == nodeID || e.TargetNodeID == nodeID {
			removed = append(removed, eid)
			delete(g.edges, eid)
			continue
		}
		kept = append(kept, eid)
	}
	g.edgeOrder = kept

	delete(g.nodes, nodeID)
	g.nodeOrder = removeID(g.nodeOrder, nodeID)

	g.logger.Debug("node removed", "node", nodeID, "cascaded_edges", len(removed))
	g.emit(Event{Type: EventNodeRemoved, NodeID: nodeID, RemovedEdges: removed})
}

// MoveNode updates a node's position
func (g *Graph) MoveNode(nodeID string, pos Position) error {
	n, err := g.node(nodeID, "MoveNode")
	if err != nil {
		return err
	}
	if n.Position == pos {
		return nil
	}
	n.Position = pos
	g.emit(Event{Type: EventNodeMoved, NodeID: nodeID, Position: pos})
	return nil
}

// GetNode returns a copy of the node
func (g *Graph) GetNode(nodeID string) (Node, error) {
	n, err := g.node(nodeID, "GetNode")
	if err != nil {
		return Node{}, err
	}
	return n.clone(), nil
}

// HasNode reports whether nodeID exists
func (g *Graph) HasNode(nodeID string) bool {
	_, ok := g.nodes[nodeID]
	return ok
}

// ListNodes returns copies of every node in insertion order
func (g *Graph) ListNodes() []Node {
	out := make([]Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id].clone())
	}
	return out
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// NodeType returns the definition a node was instantiated from
func (g *Graph) NodeType(nodeID string) (nodetype.Definition, error) {
	n, err := g.node(nodeID, "NodeType")
	if err != nil {
		return nodetype.Definition{}, err
	}
	return g.types[n.TypeID].Clone(), nil
}

func (g *Graph) node(nodeID, method string) (*Node, error) {
	n, ok := g.nodes[nodeID]
	if !ok {
		return nil, errors.Invalidf(errors.ErrNodeNotFound, "Graph", method, "node %q", nodeID)
	}
	return n, nil
}

func (g *Graph) definition(typeID string) (nodetype.Definition, error) {
	if def, ok := g.types[typeID]; ok {
		return def, nil
	}
	def, err := g.catalog.Get(typeID)
	if err != nil {
		return nodetype.Definition{}, err
	}
	g.types[typeID] = def
	return def, nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
