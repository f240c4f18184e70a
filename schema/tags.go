package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/c360/flowbuilder/errors"
)

// ParseTag parses a schema struct tag into a Field. Name and Section are left
// for the caller.
//
// Directives are comma separated. Key-value pairs use a colon, flags stand
// alone, enum values are pipe separated:
//
//	schema:"kind:string,label:API Endpoint,required"
//	schema:"kind:integer,label:Timeout (seconds),min:1,max:300"
//	schema:"kind:enum,label:HTTP Method,enum:GET|POST|PUT|PATCH|DELETE,required"
func ParseTag(tag string) (Field, error) {
	var f Field
	if strings.TrimSpace(tag) == "" {
		return f, errors.WrapInvalid(fmt.Errorf("empty schema tag"), "SchemaTag", "ParseTag", "tag validation")
	}

	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, hasValue := strings.Cut(part, ":")
		if !hasValue {
			switch part {
			case "required":
				f.Required = true
			case "nonempty":
				f.NonEmpty = true
			default:
				return f, errors.WrapInvalid(fmt.Errorf("unknown flag: %s", part), "SchemaTag", "ParseTag", "flag parsing")
			}
			continue
		}

		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if value == "" {
			return f, errors.WrapInvalid(fmt.Errorf("empty value for directive: %s", key), "SchemaTag", "ParseTag", "value validation")
		}

		switch key {
		case "kind":
			k := Kind(value)
			if !k.Valid() {
				return f, errors.WrapInvalid(fmt.Errorf("invalid kind: %s", value), "SchemaTag", "ParseTag", "kind validation")
			}
			f.Kind = k
		case "label":
			f.Label = value
		case "message":
			f.Message = value
		case "min", "max":
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return f, errors.WrapInvalid(fmt.Errorf("invalid %s value: %s", key, value), "SchemaTag", "ParseTag", key+" parsing")
			}
			if key == "min" {
				f.Min = &n
			} else {
				f.Max = &n
			}
		case "enum":
			for _, e := range strings.Split(value, "|") {
				f.Enum = append(f.Enum, strings.TrimSpace(e))
			}
		default:
			return f, errors.WrapInvalid(fmt.Errorf("unknown directive: %s", key), "SchemaTag", "ParseTag", "directive validation")
		}
	}

	if f.Kind == "" {
		return f, errors.WrapInvalid(fmt.Errorf("kind directive is required"), "SchemaTag", "ParseTag", "required field validation")
	}
	return f, nil
}

// FromStruct reads the json, schema and validate tags of a section struct and
// returns its fields. Embedded structs are flattened the way encoding/json
// flattens them. Exported fields without a schema tag are skipped.
func FromStruct(section Section, v any) ([]Field, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, errors.WrapInvalid(fmt.Errorf("nil section value"), "Schema", "FromStruct", "type inspection")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.WrapInvalid(fmt.Errorf("%s is not a struct", t), "Schema", "FromStruct", "type inspection")
	}

	var fields []Field
	if err := collectFields(section, t, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func collectFields(section Section, t reflect.Type, out *[]Field) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && sf.Tag.Get("json") == "" {
			if err := collectFields(section, sf.Type, out); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}

		name := strings.Split(sf.Tag.Get("json"), ",")[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}

		tag := sf.Tag.Get("schema")
		if tag == "" {
			continue
		}

		f, err := ParseTag(tag)
		if err != nil {
			return errors.Wrap(err, "Schema", "FromStruct", "field "+sf.Name)
		}
		f.Section = section
		f.Name = name
		f.Rules = sf.Tag.Get("validate")
		*out = append(*out, f)
	}
	return nil
}

// MustFromStruct is FromStruct for package-level catalog declarations.
func MustFromStruct(section Section, v any) []Field {
	fields, err := FromStruct(section, v)
	if err != nil {
		panic(err)
	}
	return fields
}
