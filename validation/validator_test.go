package validation

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowbuilder/errors"
	"github.com/c360/flowbuilder/flowgraph"
	"github.com/c360/flowbuilder/metric"
	"github.com/c360/flowbuilder/nodetype"
	"github.com/c360/flowbuilder/port"
	"github.com/c360/flowbuilder/schema"
)

func newGraph(t *testing.T) *flowgraph.Graph {
	t.Helper()
	r := nodetype.Builtin()
	require.NoError(t, r.Register(nodetype.Definition{
		ID: "url-source", Label: "URL Source",
		Outputs: []port.Spec{{ID: "url", DataType: port.String}},
	}))
	return flowgraph.New(r)
}

func add(t *testing.T, g *flowgraph.Graph, typeID string) flowgraph.Node {
	t.Helper()
	n, err := g.AddNode(typeID, flowgraph.Position{})
	require.NoError(t, err)
	return n
}

// A fresh api-call node reports its missing endpoint and its unconnected url
// input; both clear once fixed.
func TestValidate_APICallScenario(t *testing.T) {
	g := newGraph(t)
	v := New()
	api := add(t, g, nodetype.TypeAPICall)

	errs, err := v.Validate(g, api.ID)
	require.NoError(t, err)
	assert.Equal(t, Errors{
		"connections.url": "Input port URL requires a connection",
		"basic.endpoint":  "API endpoint is required",
	}, errs)
	assert.True(t, HasErrors(errs))

	src := add(t, g, "url-source")
	_, err = g.Connect(src.ID, "url", api.ID, "url")
	require.NoError(t, err)
	require.NoError(t, g.SetField(api.ID, schema.Basic, "endpoint", "https://api.example.com/data"))

	errs, err = v.Validate(g, api.ID)
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.False(t, errs.HasErrors())
}

func TestValidate_Idempotent(t *testing.T) {
	g := newGraph(t)
	v := New()
	email := add(t, g, nodetype.TypeEmail)
	require.NoError(t, g.SetField(email.ID, schema.Basic, "to", "not-an-address"))

	first, err := v.Validate(g, email.ID)
	require.NoError(t, err)
	second, err := v.Validate(g, email.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	first["basic.to"] = "mutated"
	third, _ := v.Validate(g, email.ID)
	assert.Equal(t, "Recipient must be a valid email address", third["basic.to"])
}

func TestValidate_FieldChecks(t *testing.T) {
	tests := []struct {
		name    string
		typeID  string
		section schema.Section
		field   string
		value   any
		want    string
	}{
		{"bad url", nodetype.TypeAPICall, schema.Basic, "endpoint", "not a url", "API Endpoint must be a valid URL"},
		{"timeout above max", nodetype.TypeAPICall, schema.Basic, "timeout", float64(301), "Timeout (seconds) must be at most 300"},
		{"fractional retries", nodetype.TypeAPICall, schema.Basic, "retryCount", 1.5, "Retry Count must be a whole number"},
		{"method outside enum", nodetype.TypeAPICall, schema.Basic, "method", "TRACE", "HTTP Method must be one of GET, POST, PUT, PATCH, DELETE"},
		{"name cleared", nodetype.TypeTimer, schema.Basic, "name", "", "Node name is required"},
		{"advanced priority", nodetype.TypeTimer, schema.Advanced, "priority", float64(0), "Priority must be at least 1"},
		{"trigger path", nodetype.TypeHTTPTrigger, schema.Basic, "path", "webhook", "Path must be a path starting with /"},
		{"trigger interval", nodetype.TypeScheduleTrigger, schema.Basic, "interval", "often", "Interval must be a duration such as 5m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGraph(t)
			n := add(t, g, tt.typeID)
			require.NoError(t, g.SetField(n.ID, tt.section, tt.field, tt.value))

			errs, err := New().Validate(g, n.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, errs[schema.Path(tt.section, tt.field)])
		})
	}
}

func TestValidate_OptionalFieldsOnlyWhenPresent(t *testing.T) {
	g := newGraph(t)
	trigger := add(t, g, nodetype.TypeScheduleTrigger)

	require.NoError(t, g.SetField(trigger.ID, schema.Basic, "timezone", ""))
	errs, err := New().Validate(g, trigger.ID)
	require.NoError(t, err)
	assert.NotContains(t, errs, "basic.timezone")

	require.NoError(t, g.SetField(trigger.ID, schema.Basic, "timezone", "Mars/Olympus"))
	errs, err = New().Validate(g, trigger.ID)
	require.NoError(t, err)
	assert.Contains(t, errs, "basic.timezone")
}

func TestValidate_UnknownNode(t *testing.T) {
	g := newGraph(t)
	_, err := New().Validate(g, "ghost")
	assert.ErrorIs(t, err, errors.ErrNodeNotFound)
}

func TestValidateAll(t *testing.T) {
	g := newGraph(t)
	trigger := add(t, g, nodetype.TypeScheduleTrigger)
	api := add(t, g, nodetype.TypeAPICall)

	all := New().ValidateAll(g)
	assert.Equal(t, Errors{
		api.ID + ".connections.url": "Input port URL requires a connection",
		api.ID + ".basic.endpoint":  "API endpoint is required",
	}, all)
	assert.Empty(t, all.ForNode(trigger.ID))
	assert.Equal(t, Errors{
		"connections.url": "Input port URL requires a connection",
		"basic.endpoint":  "API endpoint is required",
	}, all.ForNode(api.ID))
}

func TestErrors_Helpers(t *testing.T) {
	errs := Errors{
		"basic.endpoint":   "API endpoint is required",
		"basic.method":     "HTTP method is required",
		"advanced.timeout": "Timeout must be at most 300",
		"connections.url":  "Input port URL requires a connection",
	}

	assert.Equal(t, []string{"advanced.timeout", "basic.endpoint", "basic.method", "connections.url"}, errs.Paths())
	assert.Equal(t, Errors{
		"basic.endpoint": "API endpoint is required",
		"basic.method":   "HTTP method is required",
	}, errs.ForSection(schema.Basic))
	assert.Empty(t, errs.ForSection(schema.Output))
	assert.Equal(t, map[string]int{"basic": 2, "advanced": 1, "connections": 1}, errs.CountBySection())
	assert.False(t, HasErrors(Errors{}))
	assert.False(t, HasErrors(nil))
}

func TestValidate_RecordsMetrics(t *testing.T) {
	m := metric.NewMetrics()
	g := newGraph(t)
	api := add(t, g, nodetype.TypeAPICall)

	v := New(WithMetrics(m))
	_, err := v.Validate(g, api.ID)
	require.NoError(t, err)
	v.ValidateAll(g)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ValidationErrors.WithLabelValues("basic")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ValidationErrors.WithLabelValues("connections")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.ValidationDuration))
}

func BenchmarkValidate(b *testing.B) {
	g := flowgraph.New(nodetype.Builtin())
	api, err := g.AddNode(nodetype.TypeAPICall, flowgraph.Position{})
	require.NoError(b, err)
	v := New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := v.Validate(g, api.ID); err != nil {
			b.Fatal(err)
		}
	}
}
