// Package schema describes the configuration fields of a node type and checks
// configuration values against them.
package schema

import (
	"fmt"
	"sort"

	"github.com/c360/flowbuilder/errors"
)

// Kind is the expected shape of a field value
type Kind string

// Kind constants
const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindEnum    Kind = "enum"
)

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindNumber, KindInteger, KindBoolean, KindArray, KindObject, KindEnum:
		return true
	default:
		return false
	}
}

// Field declares one configurable value of a node type.
//
// Min and Max bound numbers by value, and strings and arrays by length.
// Rules holds a go-playground/validator tag applied to present values.
type Field struct {
	Section  Section  `json:"section" yaml:"section"`
	Name     string   `json:"name" yaml:"name"`
	Label    string   `json:"label,omitempty" yaml:"label,omitempty"`
	Kind     Kind     `json:"kind" yaml:"kind"`
	Required bool     `json:"required,omitempty" yaml:"required,omitempty"`
	NonEmpty bool     `json:"non_empty,omitempty" yaml:"non_empty,omitempty"`
	Min      *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Enum     []string `json:"enum,omitempty" yaml:"enum,omitempty"`
	Rules    string   `json:"rules,omitempty" yaml:"rules,omitempty"`
	Message  string   `json:"message,omitempty" yaml:"message,omitempty"`
}

// Path returns "section.name"
func (f Field) Path() string {
	return Path(f.Section, f.Name)
}

// DisplayName is the label used in messages, falling back to the field name
func (f Field) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Schema is the ordered set of fields declared by a node type
type Schema struct {
	Fields []Field `json:"fields" yaml:"fields"`
}

// New builds a schema from fields, later fields replacing earlier ones with the same path.
func New(fields ...Field) Schema {
	return Schema{}.With(fields...)
}

// With returns a copy of s with fields appended or replaced by path.
func (s Schema) With(fields ...Field) Schema {
	out := Schema{Fields: make([]Field, 0, len(s.Fields)+len(fields))}
	index := make(map[string]int, len(s.Fields)+len(fields))
	for _, f := range append(append([]Field(nil), s.Fields...), fields...) {
		if i, ok := index[f.Path()]; ok {
			out.Fields[i] = f
			continue
		}
		index[f.Path()] = len(out.Fields)
		out.Fields = append(out.Fields, f)
	}
	return out
}

// Field looks up a field by section and name
func (s Schema) Field(section Section, name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Section == section && f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// InSection returns the fields of one section in declaration order
func (s Schema) InSection(section Section) []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Section == section {
			out = append(out, f)
		}
	}
	return out
}

// Required returns the paths of every required field, sorted
func (s Schema) Required() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Path())
		}
	}
	sort.Strings(out)
	return out
}

// Verify checks the declarations themselves: known sections and kinds, enum
// values for enum fields, Min not above Max and parsable Rules.
func (s Schema) Verify() error {
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		switch {
		case f.Name == "":
			return errors.WrapInvalid(fmt.Errorf("field in section %s has no name", f.Section), "Schema", "Verify", "field declaration")
		case !f.Section.Valid():
			return errors.WrapInvalid(fmt.Errorf("field %s: unknown section %q", f.Name, f.Section), "Schema", "Verify", "field declaration")
		case !f.Kind.Valid():
			return errors.WrapInvalid(fmt.Errorf("field %s: unknown kind %q", f.Path(), f.Kind), "Schema", "Verify", "field declaration")
		case f.Kind == KindEnum && len(f.Enum) == 0:
			return errors.WrapInvalid(fmt.Errorf("field %s: enum kind without values", f.Path()), "Schema", "Verify", "field declaration")
		case f.Min != nil && f.Max != nil && *f.Min > *f.Max:
			return errors.WrapInvalid(fmt.Errorf("field %s: min %v above max %v", f.Path(), *f.Min, *f.Max), "Schema", "Verify", "field declaration")
		case seen[f.Path()]:
			return errors.WrapInvalid(fmt.Errorf("field %s declared twice", f.Path()), "Schema", "Verify", "field declaration")
		}
		if f.Rules != "" {
			if err := checkRuleSyntax(f.Rules); err != nil {
				return errors.WrapInvalid(fmt.Errorf("field %s: %w", f.Path(), err), "Schema", "Verify", "rules parsing")
			}
		}
		seen[f.Path()] = true
	}
	return nil
}

// VerifyDefaults checks that every value present in cfg for a declared field has
// the declared kind. Required and bound checks are left to validation.
func (s Schema) VerifyDefaults(cfg Configuration) error {
	for _, f := range s.Fields {
		v, ok := cfg.Get(f.Section, f.Name)
		if !ok || IsEmpty(v) {
			continue
		}
		if msg := f.checkKind(v); msg != "" {
			return errors.WrapInvalid(fmt.Errorf("default %s: %s", f.Path(), msg), "Schema", "VerifyDefaults", "kind check")
		}
	}
	return nil
}

// Float returns a pointer to v, for the Min and Max fields
func Float(v float64) *float64 {
	return &v
}
