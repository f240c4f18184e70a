package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowbuilder/editor"
	"github.com/c360/flowbuilder/flowgraph"
	"github.com/c360/flowbuilder/nodetype"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun_SampleWorkflow(t *testing.T) {
	out, _, err := runCLI(t, "--metrics")
	require.NoError(t, err)

	var rep report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))

	assert.True(t, rep.Saved)
	assert.Empty(t, rep.Errors)
	assert.Empty(t, rep.Validation)
	assert.Len(t, rep.Nodes, 3)
	assert.Len(t, rep.Edges, 2)
	assert.Len(t, rep.Previews, 3)
	assert.Equal(t, flowgraph.AnalysisHealthy, rep.Analysis.Status)
	assert.Equal(t, []string{"schedule-trigger-1"}, rep.Analysis.Sources)
	assert.True(t, rep.Health.IsHealthy())
	assert.Len(t, rep.Health.SubStatuses, 2)

	// auto-arrange keeps the chain in lane order
	byID := map[string]flowgraph.Node{}
	for _, n := range rep.Nodes {
		byID[n.ID] = n
		assert.Equal(t, flowgraph.StatusSuccess, n.Status, n.ID)
	}
	assert.Equal(t, 100.0, byID["schedule-trigger-1"].Position.X)
	assert.Equal(t, 400.0, byID["api-call-1"].Position.X)
	assert.Equal(t, 700.0, byID["condition-1"].Position.X)

	assert.Equal(t, 3.0, rep.Metrics["flowbuilder_collaborator_attempts_total{operation=test,outcome=success}"])
}

func TestRun_SaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflow.json")
	_, _, err := runCLI(t, "--save", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var snap editor.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Len(t, snap.Nodes, 3)
	assert.Len(t, snap.Edges, 2)
	assert.NotZero(t, snap.Revision)
}

func TestRun_ExportCatalog(t *testing.T) {
	out, _, err := runCLI(t, "--export", "-")
	require.NoError(t, err)

	defs, err := nodetype.LoadCatalog(strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, defs, nodetype.Builtin().Len())
}

func TestRun_ConfigAndCatalog(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "extra.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`
node_types:
  - id: audit-log
    label: Audit Log
    category: Logging
    inherit_sections: true
    inputs:
      - {id: entry, data_type: any, required: true}
`), 0o644))

	configPath := filepath.Join(dir, "flowbuilder.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("catalog:\n  path: "+catalogPath+"\nlog:\n  level: warn\n"), 0o644))

	_, _, err := runCLI(t, "--config", configPath, "--validate")
	require.NoError(t, err)

	out, _, err := runCLI(t, "--config", configPath, "--export", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "id: audit-log")
}

func TestRun_Flags(t *testing.T) {
	out, _, err := runCLI(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "flowbuilder version "+Version+"\n", out)

	_, stderr, err := runCLI(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Usage: flowbuilder")

	_, _, err = runCLI(t, "--log-level", "verbose")
	assert.ErrorContains(t, err, "invalid log level")

	_, _, err = runCLI(t, "--config", "/does/not/exist.yaml")
	assert.ErrorContains(t, err, "config file not found")

	_, _, err = runCLI(t, "--no-such-flag")
	assert.Error(t, err)
}

func TestRun_Trace(t *testing.T) {
	_, stderr, err := runCLI(t, "--trace")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"Name": "editor.Save"`)
	assert.Contains(t, stderr, `"Name": "editor.TestConfiguration"`)
}

func TestPreviewTester_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := previewTester{latency: time.Hour}.Test(ctx, editor.TestRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}
