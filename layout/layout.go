// Package layout repositions the nodes of a graph on the canvas.
//
// The default lane strategy sorts nodes by their current position and lays
// them out left to right on one row; it does not consult edges. The layered
// strategy places each node in the column of its longest path from a source,
// so every edge points to the right unless it closes a cycle.
package layout

import (
	"log/slog"
	"sort"

	"github.com/c360/flowbuilder/errors"
	"github.com/c360/flowbuilder/flowgraph"
)

// Strategy selects the arrangement algorithm
type Strategy string

// Strategies
const (
	StrategyLane    Strategy = "lane"
	StrategyLayered Strategy = "layered"
)

// Valid reports whether s names a known strategy
func (s Strategy) Valid() bool {
	return s == StrategyLane || s == StrategyLayered
}

// Options holds the canvas constants
type Options struct {
	StartX            float64  `json:"start_x" yaml:"start_x"`
	StartY            float64  `json:"start_y" yaml:"start_y"`
	NodeWidth         float64  `json:"node_width" yaml:"node_width" validate:"gt=0"`
	NodeHeight        float64  `json:"node_height" yaml:"node_height" validate:"gt=0"`
	HorizontalSpacing float64  `json:"horizontal_spacing" yaml:"horizontal_spacing" validate:"gte=0"`
	VerticalSpacing   float64  `json:"vertical_spacing" yaml:"vertical_spacing" validate:"gte=0"`
	Strategy          Strategy `json:"strategy" yaml:"strategy" validate:"omitempty,oneof=lane layered"`

	// ColumnTolerance treats nodes whose x differs by at most this much as
	// one column, ordered by y. Zero compares x exactly.
	ColumnTolerance float64 `json:"column_tolerance" yaml:"column_tolerance" validate:"gte=0"`
}

// DefaultOptions returns the canvas constants of the editor
func DefaultOptions() Options {
	return Options{
		StartX:            100,
		StartY:            100,
		NodeWidth:         200,
		NodeHeight:        120,
		HorizontalSpacing: 100,
		VerticalSpacing:   50,
		Strategy:          StrategyLane,
	}
}

// Target is what an Arranger repositions; *flowgraph.Graph satisfies it.
type Target interface {
	ListNodes() []flowgraph.Node
	ListEdges() []flowgraph.Edge
	TopologicalOrder() ([]string, bool)
	MoveNode(nodeID string, pos flowgraph.Position) error
}

// Arranger assigns deterministic positions
type Arranger struct {
	opts   Options
	logger *slog.Logger
}

// NewArranger creates an Arranger. An empty strategy means StrategyLane.
func NewArranger(opts Options, logger *slog.Logger) *Arranger {
	if opts.Strategy == "" {
		opts.Strategy = StrategyLane
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Arranger{opts: opts, logger: logger}
}

// Options returns the options in effect
func (a *Arranger) Options() Options {
	return a.opts
}

// Arrange moves every node of g. Running it on its own output changes nothing.
func (a *Arranger) Arrange(g Target) error {
	targets, err := a.Plan(g)
	if err != nil {
		return err
	}
	for _, p := range targets {
		if err := g.MoveNode(p.NodeID, p.Position); err != nil {
			return errors.Wrap(err, "Arranger", "Arrange", "move "+p.NodeID)
		}
	}
	a.logger.Debug("nodes arranged", "strategy", string(a.opts.Strategy), "nodes", len(targets))
	return nil
}

// Placement is a planned position for one node
type Placement struct {
	NodeID   string
	Position flowgraph.Position
}

// Plan computes the positions Arrange would assign, in lane order, without
// moving anything.
func (a *Arranger) Plan(g Target) ([]Placement, error) {
	switch a.opts.Strategy {
	case StrategyLane:
		return a.lane(g.ListNodes()), nil
	case StrategyLayered:
		return a.layered(g), nil
	default:
		return nil, errors.Invalidf(errors.ErrInvalidConfig, "Arranger", "Plan", "unknown strategy %q", a.opts.Strategy)
	}
}

func (a *Arranger) lane(nodes []flowgraph.Node) []Placement {
	sorted := a.sortByPosition(nodes)
	out := make([]Placement, len(sorted))
	for i, n := range sorted {
		out[i] = Placement{NodeID: n.ID, Position: flowgraph.Position{
			X: a.opts.StartX + float64(i)*(a.opts.NodeWidth+a.opts.HorizontalSpacing),
			Y: a.opts.StartY,
		}}
	}
	return out
}

// layered places nodes in columns by longest-path rank and in rows by lane
// order within each column. Edges that close a cycle are ignored for ranking.
func (a *Arranger) layered(g Target) []Placement {
	order, _ := g.TopologicalOrder()
	index := make(map[string]int, len(order))
	for i, id := range order {
		index[id] = i
	}

	incoming := make(map[string][]string)
	for _, e := range g.ListEdges() {
		if index[e.SourceNodeID] < index[e.TargetNodeID] {
			incoming[e.TargetNodeID] = append(incoming[e.TargetNodeID], e.SourceNodeID)
		}
	}

	rank := make(map[string]int, len(order))
	for _, id := range order {
		for _, src := range incoming[id] {
			if r := rank[src] + 1; r > rank[id] {
				rank[id] = r
			}
		}
	}

	rows := make(map[int]int)
	sorted := a.sortByPosition(g.ListNodes())
	out := make([]Placement, len(sorted))
	for i, n := range sorted {
		col := rank[n.ID]
		row := rows[col]
		rows[col]++
		out[i] = Placement{NodeID: n.ID, Position: flowgraph.Position{
			X: a.opts.StartX + float64(col)*(a.opts.NodeWidth+a.opts.HorizontalSpacing),
			Y: a.opts.StartY + float64(row)*(a.opts.NodeHeight+a.opts.VerticalSpacing),
		}}
	}
	return out
}

// sortByPosition stable-sorts by x then y. With a column tolerance, nodes are
// first grouped into columns anchored at the leftmost member, then ordered by
// y inside each column; grouping keeps the order transitive.
func (a *Arranger) sortByPosition(nodes []flowgraph.Node) []flowgraph.Node {
	sorted := append([]flowgraph.Node(nil), nodes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i].Position, sorted[j].Position
		if pi.X != pj.X {
			return pi.X < pj.X
		}
		return pi.Y < pj.Y
	})
	if a.opts.ColumnTolerance <= 0 || len(sorted) == 0 {
		return sorted
	}

	column := make(map[string]int, len(sorted))
	anchor, col := sorted[0].Position.X, 0
	for _, n := range sorted {
		if n.Position.X-anchor > a.opts.ColumnTolerance {
			anchor = n.Position.X
			col++
		}
		column[n.ID] = col
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := column[sorted[i].ID], column[sorted[j].ID]
		if ci != cj {
			return ci < cj
		}
		return sorted[i].Position.Y < sorted[j].Position.Y
	})
	return sorted
}
