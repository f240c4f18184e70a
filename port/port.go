// Package port defines the typed connection points of a node type and the
// compatibility policy used when two of them are connected.
package port

import (
	"fmt"

	"github.com/c360/flowbuilder/errors"
)

// DataType is the payload type carried by a port
type DataType string

// DataType constants. The set is closed.
const (
	String  DataType = "string"
	Number  DataType = "number"
	Boolean DataType = "boolean"
	Array   DataType = "array"
	Object  DataType = "object"
	Any     DataType = "any"
)

// DataTypes lists every DataType in declaration order
func DataTypes() []DataType {
	return []DataType{String, Number, Boolean, Array, Object, Any}
}

// Valid reports whether d is one of the known data types
func (d DataType) Valid() bool {
	switch d {
	case String, Number, Boolean, Array, Object, Any:
		return true
	default:
		return false
	}
}

// ParseDataType converts s into a DataType
func ParseDataType(s string) (DataType, error) {
	d := DataType(s)
	if !d.Valid() {
		return "", errors.WrapInvalid(
			fmt.Errorf("unknown data type %q", s),
			"Port", "ParseDataType", "data type lookup",
		)
	}
	return d, nil
}

// Direction for data flow
type Direction string

// Direction constants for port data flow
const (
	Input  Direction = "input"
	Output Direction = "output"
)

// Spec describes one port on a node type. Required only has meaning for inputs.
type Spec struct {
	ID       string   `json:"id" yaml:"id"`
	Label    string   `json:"label,omitempty" yaml:"label,omitempty"`
	DataType DataType `json:"data_type" yaml:"data_type"`
	Required bool     `json:"required,omitempty" yaml:"required,omitempty"`
}

// Compatible reports whether a value of type a may flow into a port of type b.
// Any matches everything; otherwise the types must be identical. There is no
// coercion or widening.
func Compatible(a, b DataType) bool {
	return a == b || a == Any || b == Any
}

// Find returns the spec with the given id from specs.
func Find(specs []Spec, id string) (Spec, bool) {
	for _, s := range specs {
		if s.ID == id {
			return s, true
		}
	}
	return Spec{}, false
}
