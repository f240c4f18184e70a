package flowgraph

import (
	"strconv"

	"github.com/google/uuid"
)

// IDGenerator produces node and edge ids. Generated ids must never repeat for
// the lifetime of one generator.
type IDGenerator interface {
	NodeID(typeID string) string
	EdgeID() string
}

// SequentialIDs numbers nodes per type ("api-call-1", "api-call-2") and edges
// globally ("edge-1"). Counters only grow, so ids are not reused after removal.
type SequentialIDs struct {
	nodes map[string]int
	edges int
}

// NewSequentialIDs returns a generator starting at 1
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{nodes: make(map[string]int)}
}

// NodeID returns the next id for typeID
func (s *SequentialIDs) NodeID(typeID string) string {
	s.nodes[typeID]++
	return typeID + "-" + strconv.Itoa(s.nodes[typeID])
}

// EdgeID returns the next edge id
func (s *SequentialIDs) EdgeID() string {
	s.edges++
	return "edge-" + strconv.Itoa(s.edges)
}

// UUIDs generates random ids prefixed with the type id or "edge"
type UUIDs struct{}

// NodeID returns typeID-<uuid>
func (UUIDs) NodeID(typeID string) string {
	return typeID + "-" + uuid.NewString()
}

// EdgeID returns edge-<uuid>
func (UUIDs) EdgeID() string {
	return "edge-" + uuid.NewString()
}
