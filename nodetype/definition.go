// Package nodetype holds the catalog of node types a graph may instantiate:
// their ports, configuration schema and default configuration.
package nodetype

import (
	"github.com/c360/flowbuilder/port"
	"github.com/c360/flowbuilder/schema"
)

// Definition describes one node type. Definitions are owned by a Registry and
// handed out as copies.
type Definition struct {
	ID          string `json:"id" yaml:"id"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string `json:"category" yaml:"category"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`

	Inputs  []port.Spec `json:"inputs" yaml:"inputs"`
	Outputs []port.Spec `json:"outputs" yaml:"outputs"`

	Schema schema.Schema `json:"schema" yaml:"schema"`

	// Defaults is the configuration new instances start from. The registry
	// never hands it out directly.
	Defaults schema.Configuration `json:"defaults" yaml:"defaults"`
}

// Input returns the input port with the given id
func (d Definition) Input(id string) (port.Spec, bool) {
	return port.Find(d.Inputs, id)
}

// Output returns the output port with the given id
func (d Definition) Output(id string) (port.Spec, bool) {
	return port.Find(d.Outputs, id)
}

// RequiredInputs returns the required input ports in declaration order
func (d Definition) RequiredInputs() []port.Spec {
	var out []port.Spec
	for _, in := range d.Inputs {
		if in.Required {
			out = append(out, in)
		}
	}
	return out
}

// IsTrigger reports whether the type starts a workflow (it has no inputs)
func (d Definition) IsTrigger() bool {
	return len(d.Inputs) == 0
}

// Clone returns a deep copy of d
func (d Definition) Clone() Definition {
	c := d
	c.Inputs = append([]port.Spec(nil), d.Inputs...)
	c.Outputs = append([]port.Spec(nil), d.Outputs...)
	c.Schema = schema.Schema{Fields: make([]schema.Field, len(d.Schema.Fields))}
	for i, f := range d.Schema.Fields {
		f.Enum = append([]string(nil), f.Enum...)
		if f.Min != nil {
			v := *f.Min
			f.Min = &v
		}
		if f.Max != nil {
			v := *f.Max
			f.Max = &v
		}
		c.Schema.Fields[i] = f
	}
	c.Defaults = d.Defaults.Clone()
	return c
}
