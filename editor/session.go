// Package editor wraps one workflow graph in a single-writer session: every
// operation takes the session lock, so any number of goroutines may drive the
// same session. The session adds automatic arrangement after node insertion,
// validation-gated save and test runs against external collaborators, and
// metrics and tracing around them.
package editor

import (
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/c360/flowbuilder/config"
	"github.com/c360/flowbuilder/errors"
	"github.com/c360/flowbuilder/flowgraph"
	"github.com/c360/flowbuilder/health"
	"github.com/c360/flowbuilder/layout"
	"github.com/c360/flowbuilder/metric"
	"github.com/c360/flowbuilder/nodetype"
	"github.com/c360/flowbuilder/pkg/retry"
	"github.com/c360/flowbuilder/schema"
	"github.com/c360/flowbuilder/validation"
)

const tracerName = "github.com/c360/flowbuilder/editor"

// Catalog is the node type source of a session; *nodetype.Registry satisfies it.
type Catalog interface {
	flowgraph.Catalog
	Filter(category, term string) []nodetype.Definition
	Categories() map[string]int
}

// Session serialises all access to one graph
type Session struct {
	mu sync.Mutex

	catalog   Catalog
	graph     *flowgraph.Graph
	validator *validation.Validator
	arranger  *layout.Arranger

	autoArrange bool
	tester      Tester
	saver       Saver
	testPolicy  retry.Policy
	savePolicy  retry.Policy

	metrics *metric.Metrics
	health  *health.Tracker
	tracer  trace.Tracer
	logger  *slog.Logger

	graphOpts  []flowgraph.Option
	layoutOpts layout.Options

	revision      uint64
	savedRevision uint64
	inFlight      string
	previews      map[string]Preview
}

// Option configures a Session
type Option func(*Session)

// WithTester sets the collaborator used by TestConfiguration
func WithTester(t Tester) Option {
	return func(s *Session) { s.tester = t }
}

// WithSaver sets the collaborator used by Save
func WithSaver(sv Saver) Option {
	return func(s *Session) { s.saver = sv }
}

// WithArranger replaces the default lane arranger
func WithArranger(a *layout.Arranger) Option {
	return func(s *Session) {
		if a != nil {
			s.arranger = a
		}
	}
}

// WithAutoArrange toggles arrangement after every AddNode; it is on by default
func WithAutoArrange(enabled bool) Option {
	return func(s *Session) { s.autoArrange = enabled }
}

// WithTestPolicy sets the timeout and retry budget of TestConfiguration
func WithTestPolicy(p retry.Policy) Option {
	return func(s *Session) { s.testPolicy = p }
}

// WithSavePolicy sets the timeout and retry budget of Save
func WithSavePolicy(p retry.Policy) Option {
	return func(s *Session) { s.savePolicy = p }
}

// WithMetrics records session activity on m
func WithMetrics(m *metric.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithHealthTracker records collaborator outcomes on t instead of a private
// tracker.
func WithHealthTracker(t *health.Tracker) Option {
	return func(s *Session) {
		if t != nil {
			s.health = t
		}
	}
}

// WithTracerProvider sets the provider spans are created from; the default
// is the global otel provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Session) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithLogger sets the logger; the default is slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGraphOptions forwards options to the underlying graph
func WithGraphOptions(opts ...flowgraph.Option) Option {
	return func(s *Session) { s.graphOpts = append(s.graphOpts, opts...) }
}

// WithConfig applies the editor and layout sections of cfg
func WithConfig(cfg *config.Config) Option {
	return func(s *Session) {
		if cfg == nil {
			return
		}
		s.autoArrange = cfg.Editor.AutoArrange
		s.testPolicy = cfg.RetryPolicy(cfg.Editor.TestTimeout.Std())
		s.savePolicy = cfg.RetryPolicy(cfg.Editor.SaveTimeout.Std())
		s.layoutOpts = cfg.Layout
		if cfg.Editor.IDs == config.IDsUUID {
			s.graphOpts = append(s.graphOpts, flowgraph.WithIDGenerator(flowgraph.UUIDs{}))
		}
	}
}

func defaultPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.Retryable = errors.IsTransient
	return p
}

// NewSession creates a session over an empty graph
func NewSession(catalog Catalog, opts ...Option) *Session {
	s := &Session{
		catalog:     catalog,
		autoArrange: true,
		layoutOpts:  layout.DefaultOptions(),
		testPolicy:  defaultPolicy(),
		savePolicy:  defaultPolicy(),
		health:      health.NewTracker(),
		tracer:      otel.Tracer(tracerName),
		logger:      slog.Default(),
		previews:    make(map[string]Preview),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.arranger == nil {
		s.arranger = layout.NewArranger(s.layoutOpts, s.logger)
	}
	s.validator = validation.New(validation.WithMetrics(s.metrics), validation.WithLogger(s.logger))

	s.graph = flowgraph.New(catalog, append([]flowgraph.Option{flowgraph.WithLogger(s.logger)}, s.graphOpts...)...)
	s.graph.Subscribe(s.observe)
	return s
}

// observe runs under the session lock because every mutation does. Status is
// display state and does not count as a change to the workflow.
func (s *Session) observe(e flowgraph.Event) {
	if e.Type != flowgraph.EventStatusChanged {
		s.revision++
	}
	s.metrics.RecordMutation(string(e.Type))
	s.metrics.RecordGraphSize(s.graph.NodeCount(), s.graph.EdgeCount())
	if e.Type == flowgraph.EventNodeRemoved {
		delete(s.previews, e.NodeID)
	}
}

// Subscribe registers fn for graph events. fn runs with the session lock held
// and must not call back into the session.
func (s *Session) Subscribe(fn func(flowgraph.Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	unsubscribe := s.graph.Subscribe(fn)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		unsubscribe()
	}
}

// Palette lists the node types matching category and term
func (s *Session) Palette(category, term string) []nodetype.Definition {
	return s.catalog.Filter(category, term)
}

// Categories counts node types per category
func (s *Session) Categories() map[string]int {
	return s.catalog.Categories()
}

// AddNode adds a node and, with auto-arrange on, re-runs the arranger. The
// returned node carries its final position.
func (s *Session) AddNode(typeID string, pos flowgraph.Position) (flowgraph.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	revision := s.revision
	n, err := s.graph.AddNode(typeID, pos)
	if err != nil {
		return flowgraph.Node{}, err
	}
	if !s.autoArrange {
		return n, nil
	}

	placements, err := s.arranger.Plan(s.graph)
	if err == nil {
		err = s.place(placements)
	}
	if err != nil {
		s.graph.RemoveNode(n.ID)
		s.revision = revision
		return flowgraph.Node{}, errors.Wrap(err, "Session", "AddNode", "auto-arrange")
	}
	return s.graph.GetNode(n.ID)
}

// place applies placements, restoring every position it changed if a move
// fails.
func (s *Session) place(placements []layout.Placement) error {
	previous := make(map[string]flowgraph.Position, len(placements))
	for _, n := range s.graph.ListNodes() {
		previous[n.ID] = n.Position
	}
	for i, p := range placements {
		if err := s.graph.MoveNode(p.NodeID, p.Position); err != nil {
			for _, done := range placements[:i] {
				_ = s.graph.MoveNode(done.NodeID, previous[done.NodeID])
			}
			return err
		}
	}
	return nil
}

// RemoveNode removes a node and its edges
func (s *Session) RemoveNode(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph.RemoveNode(nodeID)
}

// MoveNode repositions a node
func (s *Session) MoveNode(nodeID string, pos flowgraph.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.MoveNode(nodeID, pos)
}

// Arrange runs the arranger on demand
func (s *Session) Arrange() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arranger.Arrange(s.graph)
}

// Connect creates an edge; refusals are counted by reason
func (s *Session) Connect(sourceNodeID, sourcePortID, targetNodeID, targetPortID string) (flowgraph.Edge, error) {
	return s.ConnectWithLabel(sourceNodeID, sourcePortID, targetNodeID, targetPortID, "")
}

// ConnectWithLabel is Connect with an edge label
func (s *Session) ConnectWithLabel(sourceNodeID, sourcePortID, targetNodeID, targetPortID, label string) (flowgraph.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.graph.ConnectWithLabel(sourceNodeID, sourcePortID, targetNodeID, targetPortID, label)
	if err != nil {
		s.metrics.RecordConnectRejection(RejectionReason(err))
		s.logger.Debug("connection refused",
			"source", sourceNodeID+"."+sourcePortID, "target", targetNodeID+"."+targetPortID, "error", err)
		return flowgraph.Edge{}, err
	}
	return e, nil
}

// RejectionReason maps a Connect error to a metric label
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, errors.ErrNodeNotFound):
		return "node_not_found"
	case errors.Is(err, errors.ErrPortNotFound):
		return "port_not_found"
	case errors.Is(err, errors.ErrIncompatiblePortTypes):
		return "incompatible_port_types"
	case errors.Is(err, errors.ErrPortAlreadyConnected):
		return "port_already_connected"
	case errors.Is(err, errors.ErrInvalidConnection):
		return "invalid_connection"
	default:
		return "other"
	}
}

// Disconnect removes an edge
func (s *Session) Disconnect(edgeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph.Disconnect(edgeID)
}

// SetField stores one configuration value
func (s *Session) SetField(nodeID string, section schema.Section, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.SetField(nodeID, section, field, value)
}

// UpdateSection merges values into one configuration section
func (s *Session) UpdateSection(nodeID string, section schema.Section, values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.UpdateSection(nodeID, section, values)
}

// ReplaceConfiguration swaps a node's configuration
func (s *Session) ReplaceConfiguration(nodeID string, cfg schema.Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.ReplaceConfiguration(nodeID, cfg)
}

// SetStatus updates a node's display status
func (s *Session) SetStatus(nodeID string, status flowgraph.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.SetStatus(nodeID, status)
}

// Node returns a copy of one node
func (s *Session) Node(nodeID string) (flowgraph.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.GetNode(nodeID)
}

// Nodes returns copies of every node in insertion order
func (s *Session) Nodes() []flowgraph.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.ListNodes()
}

// Edges returns every edge in insertion order
func (s *Session) Edges() []flowgraph.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.ListEdges()
}

// Validate checks one node
func (s *Session) Validate(nodeID string) (validation.Errors, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validator.Validate(s.graph, nodeID)
}

// ValidateAll checks every node
func (s *Session) ValidateAll() validation.Errors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validator.ValidateAll(s.graph)
}

// Analyze reports connectivity problems
func (s *Session) Analyze() flowgraph.Analysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Analyze()
}

// Revision counts applied mutations
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Dirty reports whether the graph changed since the last successful save
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision != s.savedRevision
}

// Health reports the tester and saver based on their recent outcomes
func (s *Session) Health() health.Status {
	return s.health.Aggregate("editor")
}

// Snapshot returns an immutable copy of the graph
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		Revision: s.revision,
		Nodes:    s.graph.ListNodes(),
		Edges:    s.graph.ListEdges(),
	}
}
