package nodetype

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/c360/flowbuilder/errors"
	"github.com/c360/flowbuilder/port"
	"github.com/c360/flowbuilder/schema"
)

//go:embed catalog_schema.json
var catalogMetaSchema []byte

var catalogSchemaLoader = gojsonschema.NewBytesLoader(catalogMetaSchema)

// catalogFile is the on-disk shape of a node type catalog. JSON documents are
// accepted too since YAML is a superset.
type catalogFile struct {
	Version   string        `yaml:"version"`
	NodeTypes []catalogType `yaml:"node_types"`
}

type catalogType struct {
	ID          string                    `yaml:"id"`
	Label       string                    `yaml:"label"`
	Description string                    `yaml:"description,omitempty"`
	Category    string                    `yaml:"category"`
	Icon        string                    `yaml:"icon,omitempty"`
	Color       string                    `yaml:"color,omitempty"`
	Inherit     bool                      `yaml:"inherit_sections,omitempty"`
	Inputs      []port.Spec               `yaml:"inputs,omitempty"`
	Outputs     []port.Spec               `yaml:"outputs,omitempty"`
	Fields      []schema.Field            `yaml:"fields,omitempty"`
	Defaults    map[string]map[string]any `yaml:"defaults,omitempty"`
}

// LoadCatalog parses a catalog document and returns its definitions. The
// document is checked against the catalog meta-schema before conversion, and
// each definition passes the same checks Register applies.
func LoadCatalog(r io.Reader) ([]Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapTransient(err, "Catalog", "LoadCatalog", "read")
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err), "Catalog", "LoadCatalog", "yaml parsing")
	}

	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: empty catalog document", errors.ErrInvalidData), "Catalog", "LoadCatalog", "yaml parsing")
	}

	var generic any
	if err := root.Decode(&generic); err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err), "Catalog", "LoadCatalog", "yaml decoding")
	}
	if err := validateDocument(generic); err != nil {
		return nil, err
	}

	var file catalogFile
	if err := root.Decode(&file); err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err), "Catalog", "LoadCatalog", "catalog decoding")
	}

	defs := make([]Definition, 0, len(file.NodeTypes))
	seen := make(map[string]bool, len(file.NodeTypes))
	for _, ct := range file.NodeTypes {
		if seen[ct.ID] {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %s listed twice", errors.ErrDuplicateNodeType, ct.ID),
				"Catalog", "LoadCatalog", "duplicate check",
			)
		}
		seen[ct.ID] = true

		def, err := ct.definition()
		if err != nil {
			return nil, err
		}
		if err := checkDefinition(def); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// LoadCatalogFile reads a catalog from path
func LoadCatalogFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Catalog", "LoadCatalogFile", "read "+path)
	}
	return LoadCatalog(bytes.NewReader(data))
}

// RegisterCatalog registers every definition, stopping at the first failure.
func (r *Registry) RegisterCatalog(defs []Definition) error {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func validateDocument(doc any) error {
	result, err := gojsonschema.Validate(catalogSchemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidData, err), "Catalog", "validateDocument", "meta-schema validation")
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s", errors.ErrInvalidData, strings.Join(problems, "; ")),
		"Catalog", "validateDocument", "meta-schema validation",
	)
}

func (ct catalogType) definition() (Definition, error) {
	def := Definition{
		ID:          ct.ID,
		Label:       ct.Label,
		Description: ct.Description,
		Category:    ct.Category,
		Icon:        ct.Icon,
		Color:       ct.Color,
		Inputs:      ct.Inputs,
		Outputs:     ct.Outputs,
	}

	if ct.Inherit {
		base, err := Typed(def, standardSections(common(ct.Label)))
		if err != nil {
			return Definition{}, err
		}
		def = base
	} else {
		def.Defaults = schema.NewConfiguration()
	}

	def.Schema = def.Schema.With(ct.Fields...)
	for section, values := range ct.Defaults {
		def.Defaults.Patch(schema.Section(section), values)
	}
	return def, nil
}
