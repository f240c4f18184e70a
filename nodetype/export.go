package nodetype

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/c360/flowbuilder/errors"
	"github.com/c360/flowbuilder/schema"
)

// ExportCatalog writes defs as a catalog document that LoadCatalog accepts.
// Definitions are written flat, with every field and default spelled out, and
// the document is checked against the catalog meta-schema before anything is
// written to w.
func ExportCatalog(w io.Writer, version string, defs []Definition) error {
	file := catalogFile{Version: version, NodeTypes: make([]catalogType, 0, len(defs))}
	for _, def := range defs {
		file.NodeTypes = append(file.NodeTypes, exportType(def))
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return errors.WrapInvalid(err, "Catalog", "ExportCatalog", "yaml encoding")
	}

	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return errors.WrapFatal(err, "Catalog", "ExportCatalog", "re-parse")
	}
	if err := validateDocument(generic); err != nil {
		return err
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return errors.WrapTransient(err, "Catalog", "ExportCatalog", "write")
	}
	return nil
}

func exportType(def Definition) catalogType {
	ct := catalogType{
		ID:          def.ID,
		Label:       def.Label,
		Description: def.Description,
		Category:    def.Category,
		Icon:        def.Icon,
		Color:       def.Color,
		Inputs:      def.Inputs,
		Outputs:     def.Outputs,
		Fields:      def.Schema.Fields,
	}
	for _, section := range schema.Sections() {
		values, ok := def.Defaults[section]
		if !ok || len(values) == 0 {
			continue
		}
		if ct.Defaults == nil {
			ct.Defaults = make(map[string]map[string]any)
		}
		ct.Defaults[string(section)] = schema.CloneValue(values).(map[string]any)
	}
	return ct
}
