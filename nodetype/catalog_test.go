package nodetype

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/flowbuilder/errors"
	"github.com/c360/flowbuilder/port"
	"github.com/c360/flowbuilder/schema"
)

const slackCatalog = `
version: "1"
node_types:
  - id: slack-message
    label: Slack Message
    description: Post a message to a Slack channel
    category: Notification
    icon: MessageSquare
    inherit_sections: true
    inputs:
      - id: text
        label: Text
        data_type: string
        required: true
      - id: attachments
        data_type: array
    outputs:
      - id: message_id
        data_type: string
    fields:
      - section: basic
        name: channel
        label: Channel
        kind: string
        required: true
      - section: basic
        name: retries
        kind: integer
        min: 0
        max: 5
    defaults:
      basic:
        channel: "#general"
        retries: 2
`

func TestLoadCatalog(t *testing.T) {
	defs, err := LoadCatalog(strings.NewReader(slackCatalog))
	require.NoError(t, err)
	require.Len(t, defs, 1)

	def := defs[0]
	assert.Equal(t, "slack-message", def.ID)
	assert.Equal(t, "Notification", def.Category)

	text, ok := def.Input("text")
	require.True(t, ok)
	assert.Equal(t, port.String, text.DataType)
	assert.True(t, text.Required)

	channel, ok := def.Schema.Field(schema.Basic, "channel")
	require.True(t, ok)
	assert.True(t, channel.Required)

	// inherited sections carry the shared fields and defaults
	_, ok = def.Schema.Field(schema.Advanced, "maxMemory")
	assert.True(t, ok)
	assert.Equal(t, "#general", def.Defaults[schema.Basic]["channel"])
	assert.Equal(t, "Slack Message", def.Defaults[schema.Basic]["name"])
	assert.Equal(t, "sync", def.Defaults[schema.Advanced]["executionMode"])

	r := Builtin()
	require.NoError(t, r.RegisterCatalog(defs))
	cfg, err := r.CreateDefaultConfiguration("slack-message")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg[schema.Basic]["retries"])
}

func TestLoadCatalog_JSON(t *testing.T) {
	doc := `{"node_types": [{"id": "noop", "label": "No-op", "category": "Control", "inputs": [{"id": "input", "data_type": "any"}], "outputs": [{"id": "output", "data_type": "any"}]}]}`
	defs, err := LoadCatalog(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Empty(t, defs[0].Schema.Fields)
	assert.NotNil(t, defs[0].Defaults)
}

func TestLoadCatalog_MetaSchemaRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty document", ``},
		{"missing node_types", `version: "1"`},
		{"bad id", "node_types:\n  - id: 'has space'\n    label: x\n    category: y\n"},
		{"unknown data type", "node_types:\n  - id: a\n    label: x\n    category: y\n    inputs: [{id: in, data_type: datetime}]\n"},
		{"unknown section", "node_types:\n  - id: a\n    label: x\n    category: y\n    fields: [{section: misc, name: f, kind: string}]\n"},
		{"unknown key", "node_types:\n  - id: a\n    label: x\n    category: y\n    colour: red\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestLoadCatalog_DefinitionChecks(t *testing.T) {
	dup := "node_types:\n  - id: a\n    label: x\n    category: y\n  - id: a\n    label: z\n    category: y\n"
	_, err := LoadCatalog(strings.NewReader(dup))
	assert.ErrorIs(t, err, errors.ErrDuplicateNodeType)

	badDefault := "node_types:\n  - id: a\n    label: x\n    category: y\n    fields: [{section: basic, name: n, kind: integer}]\n    defaults: {basic: {n: abc}}\n"
	_, err = LoadCatalog(strings.NewReader(badDefault))
	assert.Error(t, err)

	malformed := "node_types: [\n"
	_, err = LoadCatalog(strings.NewReader(malformed))
	assert.ErrorIs(t, err, errors.ErrParsingFailed)
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(slackCatalog), 0o600))

	defs, err := LoadCatalogFile(path)
	require.NoError(t, err)
	assert.Len(t, defs, 1)

	_, err = LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
