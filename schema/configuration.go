package schema

import (
	"encoding/json"
	"reflect"

	"github.com/c360/flowbuilder/errors"
)

// Configuration maps a section to its field values. Which fields are legal is
// decided by a Schema, never by the Configuration itself.
type Configuration map[Section]map[string]any

// NewConfiguration returns a configuration with every section present and empty
func NewConfiguration() Configuration {
	cfg := make(Configuration, len(sectionLabels))
	for _, s := range Sections() {
		cfg[s] = map[string]any{}
	}
	return cfg
}

// Clone returns a deep copy. Nested maps and slices are copied so the result
// shares no mutable state with c.
func (c Configuration) Clone() Configuration {
	if c == nil {
		return nil
	}
	out := make(Configuration, len(c))
	for section, fields := range c {
		out[section] = cloneMap(fields)
	}
	return out
}

// Get returns the value stored at section.field
func (c Configuration) Get(section Section, field string) (any, bool) {
	fields, ok := c[section]
	if !ok {
		return nil, false
	}
	v, ok := fields[field]
	return v, ok
}

// Set stores a copy of value at section.field, creating the section if needed.
func (c Configuration) Set(section Section, field string, value any) {
	fields, ok := c[section]
	if !ok || fields == nil {
		fields = map[string]any{}
		c[section] = fields
	}
	fields[field] = CloneValue(value)
}

// Patch merges values into section one level deep. Each key present in values
// replaces the stored value, including with empty values and including whole
// nested objects; keys absent from values are kept.
func (c Configuration) Patch(section Section, values map[string]any) {
	fields, ok := c[section]
	if !ok || fields == nil {
		fields = map[string]any{}
	}
	for k, v := range values {
		fields[k] = CloneValue(v)
	}
	c[section] = fields
}

// CloneValue deep copies the JSON-like values found in configurations. Values
// of other types are copied through reflection when they are maps or slices and
// returned unchanged otherwise.
func CloneValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case string, bool, float64, float32, int, int64, int32, uint, uint64, uint32:
		return t
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneReflect(iter.Value()))
		}
		return out.Interface()
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneReflect(rv.Index(i)))
		}
		return out.Interface()
	default:
		return v
	}
}

func cloneReflect(v reflect.Value) reflect.Value {
	if !v.IsValid() || !v.CanInterface() {
		return v
	}
	c := CloneValue(v.Interface())
	if c == nil {
		return reflect.Zero(v.Type())
	}
	return reflect.ValueOf(c).Convert(v.Type())
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// EncodeSection converts a typed section struct into the generic map form.
// Values take their JSON shapes: numbers become float64, slices []any.
func EncodeSection(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Schema", "EncodeSection", "section marshaling")
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.WrapInvalid(err, "Schema", "EncodeSection", "section unmarshaling")
	}
	return out, nil
}

// DecodeSection reads a generic section map back into a typed struct.
func DecodeSection(fields map[string]any, out any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return errors.WrapInvalid(err, "Schema", "DecodeSection", "section marshaling")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.WrapInvalid(err, "Schema", "DecodeSection", "section unmarshaling")
	}
	return nil
}
