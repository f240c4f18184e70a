package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/c360/flowbuilder/editor"
	"github.com/c360/flowbuilder/flowgraph"
	"github.com/c360/flowbuilder/health"
	"github.com/c360/flowbuilder/nodetype"
	"github.com/c360/flowbuilder/schema"
	"github.com/c360/flowbuilder/validation"
)

type sampleIDs struct {
	Trigger   string
	Fetch     string
	Condition string
}

// buildSampleWorkflow lays out schedule -> api call -> condition
func buildSampleWorkflow(s *editor.Session) (sampleIDs, error) {
	var ids sampleIDs

	steps := []struct {
		typeID string
		pos    flowgraph.Position
		basic  map[string]any
		id     *string
	}{
		{nodetype.TypeScheduleTrigger, flowgraph.Position{X: 100, Y: 100},
			map[string]any{"name": "Start Workflow", "interval": "5m"}, &ids.Trigger},
		{nodetype.TypeAPICall, flowgraph.Position{X: 300, Y: 100},
			map[string]any{"name": "Fetch Data", "method": "GET", "endpoint": "https://jsonplaceholder.typicode.com/posts/1"}, &ids.Fetch},
		{nodetype.TypeCondition, flowgraph.Position{X: 500, Y: 100},
			map[string]any{"name": "Check Response", "condition": "data.status === 200"}, &ids.Condition},
	}
	for _, step := range steps {
		n, err := s.AddNode(step.typeID, step.pos)
		if err != nil {
			return ids, err
		}
		if err := s.UpdateSection(n.ID, schema.Basic, step.basic); err != nil {
			return ids, err
		}
		*step.id = n.ID
	}

	if _, err := s.Connect(ids.Trigger, "output", ids.Fetch, "url"); err != nil {
		return ids, err
	}
	if _, err := s.Connect(ids.Fetch, "response", ids.Condition, "input"); err != nil {
		return ids, err
	}
	return ids, nil
}

type report struct {
	Revision   uint64                    `json:"revision"`
	Nodes      []flowgraph.Node          `json:"nodes"`
	Edges      []flowgraph.Edge          `json:"edges"`
	Validation validation.Errors         `json:"validation"`
	Analysis   flowgraph.Analysis        `json:"analysis"`
	Previews   map[string]editor.Preview `json:"previews"`
	Saved      bool                      `json:"saved"`
	Health     health.Status             `json:"health"`
	Errors     []string                  `json:"errors,omitempty"`
	Metrics    map[string]float64        `json:"metrics,omitempty"`
}

// exercise tests every node, saves, and collects the outcome. Failures are
// reported rather than returned so the report is always complete.
func exercise(ctx context.Context, s *editor.Session, ids sampleIDs) report {
	rep := report{Previews: map[string]editor.Preview{}}

	for _, id := range []string{ids.Trigger, ids.Fetch, ids.Condition} {
		preview, err := s.TestConfiguration(ctx, id)
		if err != nil {
			rep.Errors = append(rep.Errors, err.Error())
			continue
		}
		rep.Previews[id] = preview
	}

	if err := s.Save(ctx); err != nil {
		rep.Errors = append(rep.Errors, err.Error())
	} else {
		rep.Saved = true
	}

	rep.Revision = s.Revision()
	rep.Nodes = s.Nodes()
	rep.Edges = s.Edges()
	rep.Validation = s.ValidateAll()
	rep.Analysis = s.Analyze()
	rep.Health = s.Health()
	return rep
}

// previewTester stands in for a remote dry run. It reports what a run of the
// node would receive.
type previewTester struct {
	latency time.Duration
}

func (t previewTester) Test(ctx context.Context, req editor.TestRequest) (editor.Preview, error) {
	if t.latency > 0 {
		timer := time.NewTimer(t.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return editor.Preview{}, ctx.Err()
		case <-timer.C:
		}
	}

	return editor.Preview{
		Status:  "success",
		Message: "Connection test successful",
		SampleData: map[string]any{
			"node":        req.Node.ID,
			"type":        req.Definition.ID,
			"connections": len(req.Incoming),
			"sections":    len(req.Node.Config),
		},
	}, nil
}

// snapshotWriter writes saved snapshots as JSON to a file or stdout. An
// empty path accepts the save without writing anything.
type snapshotWriter struct {
	path   string
	stdout io.Writer
}

func (w *snapshotWriter) Save(ctx context.Context, snap editor.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.path == "" {
		slog.Debug("Snapshot accepted", "revision", snap.Revision)
		return nil
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	data = append(data, '\n')

	if w.path == "-" {
		_, err = w.stdout.Write(data)
		return err
	}
	return os.WriteFile(w.path, data, 0o644)
}
