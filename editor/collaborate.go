package editor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/c360/flowbuilder/errors"
	"github.com/c360/flowbuilder/flowgraph"
	"github.com/c360/flowbuilder/nodetype"
	"github.com/c360/flowbuilder/pkg/retry"
)

// Operation names used for in-flight tracking, metrics and spans
const (
	OperationTest = "test"
	OperationSave = "save"
)

// Snapshot is an immutable copy of a graph handed to a Saver
type Snapshot struct {
	Revision uint64           `json:"revision"`
	Nodes    []flowgraph.Node `json:"nodes"`
	Edges    []flowgraph.Edge `json:"edges"`
}

// Saver persists a snapshot. Implementations must be idempotent for a
// given revision since a failed attempt may be repeated.
type Saver interface {
	Save(ctx context.Context, snapshot Snapshot) error
}

// TestRequest carries one node and its surroundings to a Tester
type TestRequest struct {
	Node       flowgraph.Node
	Definition nodetype.Definition
	Incoming   []flowgraph.Edge
}

// Preview is the outcome of a configuration test
type Preview struct {
	Status     string         `json:"status"`
	Message    string         `json:"message"`
	SampleData map[string]any `json:"sample_data,omitempty"`
}

// Tester dry-runs the configuration of one node
type Tester interface {
	Test(ctx context.Context, req TestRequest) (Preview, error)
}

// TestConfiguration validates nodeID and runs it through the Tester. On
// success the preview is stored and the node status becomes success; on any
// failure the graph is left untouched.
func (s *Session) TestConfiguration(ctx context.Context, nodeID string) (Preview, error) {
	s.mu.Lock()
	req, err := s.testRequest(nodeID)
	if err == nil {
		err = s.claim(OperationTest, "TestConfiguration", s.tester != nil)
	}
	s.mu.Unlock()
	if err != nil {
		return Preview{}, err
	}
	defer s.release()

	ctx, span := s.tracer.Start(ctx, "editor.TestConfiguration",
		trace.WithAttributes(
			attribute.String("node.id", nodeID),
			attribute.String("node.type", req.Node.TypeID),
		))
	defer span.End()

	preview, err := retry.DoWithResult(ctx, s.observed(span, s.testPolicy),
		func(attemptCtx context.Context) (Preview, error) {
			var p Preview
			err := s.attempt(ctx, attemptCtx, OperationTest, func(c context.Context) error {
				var callErr error
				p, callErr = s.tester.Test(c, req)
				return callErr
			})
			return p, err
		})
	s.recordOutcome(ctx, OperationTest, err)
	if err != nil {
		fail(span, err)
		s.logger.Warn("configuration test failed", "node", nodeID, "error", err)
		return Preview{}, errors.Wrap(err, "Session", "TestConfiguration", "tester call")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// the node may have been removed while the tester ran
	if s.graph.HasNode(nodeID) {
		s.previews[nodeID] = preview
		if err := s.graph.SetStatus(nodeID, flowgraph.StatusSuccess); err != nil {
			return Preview{}, errors.WrapFatal(err, "Session", "TestConfiguration", "status update")
		}
	}
	span.SetStatus(codes.Ok, "")
	return preview, nil
}

func (s *Session) testRequest(nodeID string) (TestRequest, error) {
	node, err := s.graph.GetNode(nodeID)
	if err != nil {
		return TestRequest{}, err
	}
	def, err := s.graph.NodeType(nodeID)
	if err != nil {
		return TestRequest{}, err
	}
	errs, err := s.validator.Validate(s.graph, nodeID)
	if err != nil {
		return TestRequest{}, err
	}
	if errs.HasErrors() {
		return TestRequest{}, errors.WrapInvalid(errors.NewValidationFailed(errs), "Session", "TestConfiguration", "pre-test validation")
	}

	var incoming []flowgraph.Edge
	for _, in := range def.Inputs {
		incoming = append(incoming, s.graph.IncomingEdges(nodeID, in.ID)...)
	}
	return TestRequest{Node: node, Definition: def, Incoming: incoming}, nil
}

// LastPreview returns the preview of the last successful test of nodeID
func (s *Session) LastPreview(nodeID string) (Preview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.previews[nodeID]
	return p, ok
}

// Save validates the whole graph and hands a snapshot to the Saver. The
// session only records the revision as saved once the Saver succeeds.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	errs := s.validator.ValidateAll(s.graph)
	var err error
	if errs.HasErrors() {
		err = errors.WrapInvalid(errors.NewValidationFailed(errs), "Session", "Save", "pre-save validation")
	} else {
		err = s.claim(OperationSave, "Save", s.saver != nil)
	}
	snap := s.snapshot()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	defer s.release()

	ctx, span := s.tracer.Start(ctx, "editor.Save",
		trace.WithAttributes(
			attribute.Int64("graph.revision", int64(snap.Revision)),
			attribute.Int("graph.nodes", len(snap.Nodes)),
			attribute.Int("graph.edges", len(snap.Edges)),
		))
	defer span.End()

	err = retry.Do(ctx, s.observed(span, s.savePolicy), func(attemptCtx context.Context) error {
		return s.attempt(ctx, attemptCtx, OperationSave, func(c context.Context) error {
			return s.saver.Save(c, snap)
		})
	})
	s.recordOutcome(ctx, OperationSave, err)
	if err != nil {
		fail(span, err)
		s.logger.Warn("save failed", "revision", snap.Revision, "error", err)
		return errors.Wrap(err, "Session", "Save", "saver call")
	}

	s.mu.Lock()
	s.savedRevision = snap.Revision
	s.mu.Unlock()
	span.SetStatus(codes.Ok, "")
	s.logger.Info("workflow saved", "revision", snap.Revision, "nodes", len(snap.Nodes), "edges", len(snap.Edges))
	return nil
}

// InFlight names the collaborator operation currently running, if any
func (s *Session) InFlight() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// claim takes the single collaborator slot; the caller holds the lock
func (s *Session) claim(operation, method string, configured bool) error {
	if !configured {
		return errors.Invalidf(errors.ErrMissingConfig, "Session", method, "no %s collaborator", operation)
	}
	if s.inFlight != "" {
		return errors.Invalidf(errors.ErrOperationInFlight, "Session", method, "%s running", s.inFlight)
	}
	s.inFlight = operation
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	s.inFlight = ""
	s.mu.Unlock()
}

// attempt runs one collaborator call, turning an expired attempt deadline
// into a transient timeout while the parent context is still live.
func (s *Session) attempt(parent, attemptCtx context.Context, operation string, call func(context.Context) error) error {
	start := time.Now()
	err := call(attemptCtx)
	s.metrics.RecordCollaboratorDuration(operation, time.Since(start))

	switch {
	case err == nil:
		s.metrics.RecordAttempt(operation, "success")
		return nil
	case parent.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
		s.metrics.RecordAttempt(operation, "timeout")
		return errors.WrapTransient(errors.ErrOperationTimeout, "Session", operation, "attempt deadline")
	default:
		s.metrics.RecordAttempt(operation, "error")
		return err
	}
}

// recordOutcome feeds the health tracker. Calls abandoned by the caller say
// nothing about the collaborator and are skipped.
func (s *Session) recordOutcome(ctx context.Context, operation string, err error) {
	if err != nil && ctx.Err() != nil {
		return
	}
	s.health.Record(operation, err)
}

// observed chains span events onto the policy's OnRetry hook
func (s *Session) observed(span trace.Span, p retry.Policy) retry.Policy {
	next := p.OnRetry
	p.OnRetry = func(attempt int, err error, delay time.Duration) {
		span.AddEvent("retry", trace.WithAttributes(
			attribute.Int("attempt", attempt),
			attribute.String("error", err.Error()),
			attribute.String("delay", delay.String()),
		))
		if next != nil {
			next(attempt, err, delay)
		}
	}
	return p
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
