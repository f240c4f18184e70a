// Package validation checks node configurations against their type's schema
// and required input ports against the graph's edges.
//
// Validation is pure: it reads the graph and returns a fresh error map on
// every call. The only side effect is the optional metrics observation.
package validation

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/c360/flowbuilder/errors"
	"github.com/c360/flowbuilder/flowgraph"
	"github.com/c360/flowbuilder/metric"
	"github.com/c360/flowbuilder/nodetype"
	"github.com/c360/flowbuilder/schema"
)

// Source is the read side of a graph; *flowgraph.Graph satisfies it.
type Source interface {
	GetNode(nodeID string) (flowgraph.Node, error)
	NodeType(nodeID string) (nodetype.Definition, error)
	IncomingEdges(nodeID, portID string) []flowgraph.Edge
	ListNodes() []flowgraph.Node
}

// Errors maps a path to a user-facing message. Node-level results are keyed
// "section.field"; graph-level results are keyed "nodeID.section.field".
type Errors map[string]string

// HasErrors reports whether errs holds at least one entry
func HasErrors(errs Errors) bool {
	return len(errs) > 0
}

// HasErrors reports whether e holds at least one entry
func (e Errors) HasErrors() bool {
	return len(e) > 0
}

// Paths returns the keys in sorted order
func (e Errors) Paths() []string {
	paths := make([]string, 0, len(e))
	for p := range e {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ForSection returns the node-level entries that belong to section
func (e Errors) ForSection(section schema.Section) Errors {
	prefix := string(section) + "."
	out := Errors{}
	for p, msg := range e {
		if strings.HasPrefix(p, prefix) {
			out[p] = msg
		}
	}
	return out
}

// ForNode extracts one node's entries from a graph-level result, with the
// node prefix stripped.
func (e Errors) ForNode(nodeID string) Errors {
	prefix := nodeID + "."
	out := Errors{}
	for p, msg := range e {
		if strings.HasPrefix(p, prefix) {
			out[strings.TrimPrefix(p, prefix)] = msg
		}
	}
	return out
}

// CountBySection tallies node-level entries per section
func (e Errors) CountBySection() map[string]int {
	counts := make(map[string]int)
	for p := range e {
		if section, _, ok := schema.SplitPath(p); ok {
			counts[string(section)]++
		}
	}
	return counts
}

// Validator runs validation passes
type Validator struct {
	metrics *metric.Metrics
	logger  *slog.Logger
}

// Option configures a Validator
type Option func(*Validator)

// WithMetrics records pass durations and error counts on m
func WithMetrics(m *metric.Metrics) Option {
	return func(v *Validator) { v.metrics = m }
}

// WithLogger sets the logger; the default is slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// New creates a Validator
func New(opts ...Option) *Validator {
	v := &Validator{logger: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks one node. Declared fields are checked against the node's
// configuration and every required input port must have an incoming edge.
// The only error is ErrNodeNotFound.
func (v *Validator) Validate(src Source, nodeID string) (Errors, error) {
	start := time.Now()

	node, err := src.GetNode(nodeID)
	if err != nil {
		return nil, errors.Wrap(err, "Validator", "Validate", "node lookup")
	}
	def, err := src.NodeType(nodeID)
	if err != nil {
		return nil, errors.Wrap(err, "Validator", "Validate", "type lookup")
	}

	errs := v.check(src, node, def)
	v.metrics.RecordValidation("node", time.Since(start), errs.CountBySection())
	return errs, nil
}

// ValidateAll checks every node and unions the results keyed
// "nodeID.section.field".
func (v *Validator) ValidateAll(src Source) Errors {
	start := time.Now()

	all := Errors{}
	counts := make(map[string]int)
	nodes := src.ListNodes()
	for _, node := range nodes {
		def, err := src.NodeType(node.ID)
		if err != nil {
			// nodes returned by ListNodes always resolve
			v.logger.Error("node type unavailable during validation", "node", node.ID, "error", err)
			continue
		}
		errs := v.check(src, node, def)
		for p, msg := range errs {
			all[node.ID+"."+p] = msg
		}
		for section, n := range errs.CountBySection() {
			counts[section] += n
		}
	}

	v.metrics.RecordValidation("graph", time.Since(start), counts)
	v.logger.Debug("graph validated", "nodes", len(nodes), "errors", len(all))
	return all
}

func (v *Validator) check(src Source, node flowgraph.Node, def nodetype.Definition) Errors {
	errs := Errors{}
	for _, f := range def.Schema.Fields {
		value, present := node.Config.Get(f.Section, f.Name)
		if msg := f.Check(value, present); msg != "" {
			errs[f.Path()] = msg
		}
	}
	for _, in := range def.RequiredInputs() {
		if len(src.IncomingEdges(node.ID, in.ID)) > 0 {
			continue
		}
		label := in.Label
		if label == "" {
			label = in.ID
		}
		errs[schema.Path(schema.Connections, in.ID)] = fmt.Sprintf("Input port %s requires a connection", label)
	}
	return errs
}
