package flowgraph

// PortRef names one port of one node
type PortRef struct {
	NodeID string `json:"node_id"`
	PortID string `json:"port_id"`
}

// Analysis summarises the connectivity of a graph
type Analysis struct {
	// Components are the weakly connected groups of node ids, each in
	// insertion order, ordered by their first node.
	Components [][]string `json:"components"`

	// Disconnected lists nodes that touch no edge
	Disconnected []string `json:"disconnected"`

	// OpenInputs lists required inputs without an incoming edge
	OpenInputs []PortRef `json:"open_inputs"`

	// Sources are nodes with no incoming edges, and Sinks nodes with no
	// outgoing edges
	Sources []string `json:"sources"`
	Sinks   []string `json:"sinks"`

	HasCycle bool   `json:"has_cycle"`
	Status   string `json:"status"`
}

// Analysis status values
const (
	AnalysisHealthy  = "healthy"
	AnalysisWarnings = "warnings"
)

// Analyze reports connectivity problems. The graph forbids structurally
// invalid edges already; what remains are workflows that are incomplete
// rather than inconsistent.
func (g *Graph) Analyze() Analysis {
	result := Analysis{
		Components:   [][]string{},
		Disconnected: []string{},
		OpenInputs:   []PortRef{},
		Sources:      []string{},
		Sinks:        []string{},
		Status:       AnalysisHealthy,
	}

	adj := make(map[string][]string, len(g.nodes))
	indegree := make(map[string]int, len(g.nodes))
	outdegree := make(map[string]int, len(g.nodes))
	connected := make(map[PortRef]bool)
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		adj[e.SourceNodeID] = append(adj[e.SourceNodeID], e.TargetNodeID)
		adj[e.TargetNodeID] = append(adj[e.TargetNodeID], e.SourceNodeID)
		outdegree[e.SourceNodeID]++
		indegree[e.TargetNodeID]++
		connected[PortRef{NodeID: e.TargetNodeID, PortID: e.TargetPortID}] = true
	}

	visited := make(map[string]bool, len(g.nodes))
	for _, id := range g.nodeOrder {
		if visited[id] {
			continue
		}
		var cluster []string
		g.collect(id, adj, visited, &cluster)
		result.Components = append(result.Components, g.inInsertionOrder(cluster))
	}

	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		if indegree[id] == 0 && outdegree[id] == 0 {
			result.Disconnected = append(result.Disconnected, id)
		}
		if indegree[id] == 0 {
			result.Sources = append(result.Sources, id)
		}
		if outdegree[id] == 0 {
			result.Sinks = append(result.Sinks, id)
		}
		for _, in := range g.types[n.TypeID].RequiredInputs() {
			ref := PortRef{NodeID: id, PortID: in.ID}
			if !connected[ref] {
				result.OpenInputs = append(result.OpenInputs, ref)
			}
		}
	}

	_, acyclic := g.TopologicalOrder()
	result.HasCycle = !acyclic

	if len(result.Disconnected) > 0 || len(result.OpenInputs) > 0 || result.HasCycle {
		result.Status = AnalysisWarnings
	}
	return result
}

// collect performs depth-first search treating edges as undirected
func (g *Graph) collect(id string, adj map[string][]string, visited map[string]bool, cluster *[]string) {
	visited[id] = true
	*cluster = append(*cluster, id)
	for _, next := range adj[id] {
		if !visited[next] {
			g.collect(next, adj, visited, cluster)
		}
	}
}

func (g *Graph) inInsertionOrder(ids []string) []string {
	member := make(map[string]bool, len(ids))
	for _, id := range ids {
		member[id] = true
	}
	out := make([]string, 0, len(ids))
	for _, id := range g.nodeOrder {
		if member[id] {
			out = append(out, id)
		}
	}
	return out
}

// TopologicalOrder returns node ids so that every edge points forward, ties
// broken by insertion order. When the graph has a cycle the nodes on or behind
// it are appended in insertion order and ok is false.
func (g *Graph) TopologicalOrder() (order []string, ok bool) {
	indegree := make(map[string]int, len(g.nodes))
	for _, id := range g.edgeOrder {
		indegree[g.edges[id].TargetNodeID]++
	}

	placed := make(map[string]bool, len(g.nodes))
	order = make([]string, 0, len(g.nodes))
	for progress := true; progress; {
		progress = false
		for _, id := range g.nodeOrder {
			if placed[id] || indegree[id] > 0 {
				continue
			}
			placed[id] = true
			order = append(order, id)
			progress = true
			for _, e := range g.OutgoingEdges(id, "") {
				indegree[e.TargetNodeID]--
			}
		}
	}

	ok = len(order) == len(g.nodeOrder)
	for _, id := range g.nodeOrder {
		if !placed[id] {
			order = append(order, id)
		}
	}
	return order, ok
}
