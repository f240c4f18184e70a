package nodetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowbuilder/errors"
	"github.com/c360/flowbuilder/port"
	"github.com/c360/flowbuilder/schema"
)

func minimalDefinition(id string) Definition {
	return Definition{
		ID:       id,
		Label:    "Minimal",
		Category: "Test",
		Inputs:   []port.Spec{{ID: "in", DataType: port.String, Required: true}},
		Outputs:  []port.Spec{{ID: "out", DataType: port.String}},
		Schema: schema.New(
			schema.Field{Section: schema.Basic, Name: "name", Kind: schema.KindString, Required: true},
		),
		Defaults: schema.Configuration{schema.Basic: {"name": "minimal", "tags": []any{"a"}}},
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Get("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownNodeType)
	assert.True(t, errors.IsInvalid(err))

	_, err = r.CreateDefaultConfiguration("nope")
	assert.ErrorIs(t, err, errors.ErrUnknownNodeType)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(minimalDefinition("minimal")))
	assert.True(t, r.Has("minimal"))
	assert.Equal(t, 1, r.Len())

	err := r.Register(minimalDefinition("minimal"))
	assert.ErrorIs(t, err, errors.ErrDuplicateNodeType)

	replacement := minimalDefinition("minimal")
	replacement.Label = "Replaced"
	require.NoError(t, r.Replace(replacement))
	got, err := r.Get("minimal")
	require.NoError(t, err)
	assert.Equal(t, "Replaced", got.Label)
}

func TestRegistry_RegisterRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Definition)
	}{
		{"empty id", func(d *Definition) { d.ID = " " }},
		{"duplicate input", func(d *Definition) {
			d.Inputs = append(d.Inputs, port.Spec{ID: "in", DataType: port.Any})
		}},
		{"duplicate output", func(d *Definition) {
			d.Outputs = append(d.Outputs, port.Spec{ID: "out", DataType: port.Any})
		}},
		{"empty port id", func(d *Definition) { d.Outputs[0].ID = "" }},
		{"unknown data type", func(d *Definition) { d.Inputs[0].DataType = "datetime" }},
		{"bad field", func(d *Definition) {
			d.Schema = d.Schema.With(schema.Field{Section: schema.Basic, Name: "x", Kind: "date"})
		}},
		{"default kind mismatch", func(d *Definition) { d.Defaults[schema.Basic]["name"] = 42 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := minimalDefinition("minimal")
			tt.mutate(&def)
			err := NewRegistry(nil).Register(def)
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestRegistry_SameIDInputAndOutputAllowed(t *testing.T) {
	def := minimalDefinition("mirror")
	def.Outputs = append(def.Outputs, port.Spec{ID: "in", DataType: port.String})
	assert.NoError(t, NewRegistry(nil).Register(def))
}

func TestRegistry_DefinitionIsolation(t *testing.T) {
	r := NewRegistry(nil)
	def := minimalDefinition("minimal")
	require.NoError(t, r.Register(def))

	// caller edits after registration do not leak in
	def.Inputs[0].DataType = port.Number
	def.Defaults[schema.Basic]["name"] = "changed"

	got, err := r.Get("minimal")
	require.NoError(t, err)
	assert.Equal(t, port.String, got.Inputs[0].DataType)
	assert.Equal(t, "minimal", got.Defaults[schema.Basic]["name"])

	// nor do edits to a returned copy
	got.Outputs[0].ID = "hijacked"
	again, _ := r.Get("minimal")
	assert.Equal(t, "out", again.Outputs[0].ID)
}

func TestRegistry_DefinitionIsolation_Bounds(t *testing.T) {
	r := NewRegistry(nil)
	def := minimalDefinition("bounded")
	def.Schema = def.Schema.With(schema.Field{
		Section: schema.Advanced, Name: "retries", Kind: schema.KindNumber,
		Min: schema.Float(1), Max: schema.Float(5),
	})
	require.NoError(t, r.Register(def))

	*def.Schema.Fields[1].Min = 100

	got, err := r.Get("bounded")
	require.NoError(t, err)
	field, ok := got.Schema.Field(schema.Advanced, "retries")
	require.True(t, ok)
	require.NotNil(t, field.Min)
	assert.Equal(t, 1.0, *field.Min)

	*field.Min = 999
	*field.Max = -1

	again, _ := r.Get("bounded")
	field, _ = again.Schema.Field(schema.Advanced, "retries")
	assert.Equal(t, 1.0, *field.Min)
	assert.Equal(t, 5.0, *field.Max)
}

func TestRegistry_RejectsFieldShadowingInputPort(t *testing.T) {
	def := minimalDefinition("shadow")
	def.Schema = def.Schema.With(schema.Field{Section: schema.Connections, Name: "in", Kind: schema.KindString})

	err := NewRegistry(nil).Register(def)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidNodeType))

	def = minimalDefinition("no-shadow")
	def.Schema = def.Schema.With(schema.Field{Section: schema.Connections, Name: "out", Kind: schema.KindString})
	assert.NoError(t, NewRegistry(nil).Register(def))
}

func TestRegistry_CreateDefaultConfigurationIsDeepCopy(t *testing.T) {
	r := Builtin()
	for _, def := range r.List() {
		t.Run(def.ID, func(t *testing.T) {
			first, err := r.CreateDefaultConfiguration(def.ID)
			require.NoError(t, err)
			second, err := r.CreateDefaultConfiguration(def.ID)
			require.NoError(t, err)
			require.Equal(t, first, second)

			first[schema.Basic]["name"] = "mutated"
			first[schema.Advanced]["headers"] = append(first[schema.Advanced]["headers"].([]any), "x")
			first[schema.Input]["fieldMappings"].(map[string]any)["k"] = "v"
			delete(first, schema.Output)

			third, err := r.CreateDefaultConfiguration(def.ID)
			require.NoError(t, err)
			assert.Equal(t, second, third)
			assert.NotEqual(t, "mutated", third[schema.Basic]["name"])
			assert.Empty(t, third[schema.Input]["fieldMappings"])
		})
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	list := Builtin().List()
	require.NotEmpty(t, list)
	for i := 1; i < len(list); i++ {
		prev, cur := list[i-1], list[i]
		if prev.Category == cur.Category {
			assert.LessOrEqual(t, prev.Label, cur.Label)
		} else {
			assert.Less(t, prev.Category, cur.Category)
		}
	}
}

func TestRegistry_CategoriesAndFilter(t *testing.T) {
	r := Builtin()

	cats := r.Categories()
	assert.Equal(t, 3, cats["Triggers"])
	assert.Equal(t, 2, cats["Integration"])
	assert.Equal(t, 2, cats["Processing"])

	assert.Len(t, r.ListByCategory(""), r.Len())
	assert.Len(t, r.ListByCategory("all"), r.Len())
	assert.Len(t, r.ListByCategory("triggers"), 3)
	assert.Empty(t, r.ListByCategory("nonexistent"))

	hits := r.Search("EMAIL")
	require.Len(t, hits, 1)
	assert.Equal(t, TypeEmail, hits[0].ID)

	// description match
	hits = r.Search("schedule executions")
	require.Len(t, hits, 1)
	assert.Equal(t, TypeTimer, hits[0].ID)

	hits = r.Filter("Triggers", "webhook")
	require.Len(t, hits, 1)
	assert.Equal(t, TypeWebhookTrigger, hits[0].ID)
}
