package nodetype

import (
	"fmt"

	"github.com/c360/flowbuilder/errors"
	"github.com/c360/flowbuilder/schema"
)

// Sections carries the typed default value of each configuration section of a
// node type. Each value is a struct whose schema tags declare the section's
// fields; nil sections are left empty.
type Sections struct {
	Basic       any
	Advanced    any
	Input       any
	Output      any
	Connections any
}

func (s Sections) each(fn func(schema.Section, any) error) error {
	for _, entry := range []struct {
		section schema.Section
		value   any
	}{
		{schema.Basic, s.Basic},
		{schema.Advanced, s.Advanced},
		{schema.Input, s.Input},
		{schema.Output, s.Output},
		{schema.Connections, s.Connections},
	} {
		if entry.value == nil {
			continue
		}
		if err := fn(entry.section, entry.value); err != nil {
			return err
		}
	}
	return nil
}

// Typed completes def with the schema and defaults derived from sections.
func Typed(def Definition, sections Sections) (Definition, error) {
	var fields []schema.Field
	defaults := schema.NewConfiguration()

	err := sections.each(func(section schema.Section, value any) error {
		f, err := schema.FromStruct(section, value)
		if err != nil {
			return errors.Wrap(err, "NodeType", "Typed", fmt.Sprintf("%s %s schema", def.ID, section))
		}
		fields = append(fields, f...)

		values, err := schema.EncodeSection(value)
		if err != nil {
			return errors.Wrap(err, "NodeType", "Typed", fmt.Sprintf("%s %s defaults", def.ID, section))
		}
		defaults[section] = values
		return nil
	})
	if err != nil {
		return Definition{}, err
	}

	def.Schema = def.Schema.With(fields...)
	def.Defaults = defaults
	return def, nil
}

// Shared section structs. Every built-in type embeds CommonBasic and uses the
// shared advanced, input, output and connection sections.

// CommonBasic holds the basic fields every node has
type CommonBasic struct {
	Name        string `json:"name" schema:"kind:string,label:Node Name,required,max:120,message:Node name is required"`
	Description string `json:"description" schema:"kind:string,label:Description,max:2000"`
	Enabled     bool   `json:"enabled" schema:"kind:boolean,label:Enable Node"`
}

// KeyValue is one row of a header or environment table
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// AdvancedOptions is the advanced section
type AdvancedOptions struct {
	ExecutionMode       string     `json:"executionMode" schema:"kind:enum,label:Execution Mode,enum:sync|async|parallel"`
	LogLevel            string     `json:"logLevel" schema:"kind:enum,label:Log Level,enum:debug|info|warn|error"`
	MaxMemory           int        `json:"maxMemory" schema:"kind:integer,label:Max Memory (MB),min:128,max:4096"`
	Priority            int        `json:"priority" schema:"kind:integer,label:Priority,min:1,max:10"`
	ParallelWorkers     int        `json:"parallelWorkers" schema:"kind:integer,label:Parallel Workers,min:1,max:10"`
	ContinueOnError     bool       `json:"continueOnError" schema:"kind:boolean,label:Continue on Error"`
	EnableCaching       bool       `json:"enableCaching" schema:"kind:boolean,label:Enable Caching"`
	CacheDuration       int        `json:"cacheDuration" schema:"kind:integer,label:Cache Duration (minutes),min:1,max:10080"`
	Headers             []KeyValue `json:"headers" schema:"kind:array,label:Custom Headers"`
	EnvironmentVars     []KeyValue `json:"environmentVars" schema:"kind:array,label:Environment Variables"`
	PreExecutionScript  string     `json:"preExecutionScript" schema:"kind:string,label:Pre-execution Script"`
	PostExecutionScript string     `json:"postExecutionScript" schema:"kind:string,label:Post-execution Script"`
}

// InputMapping is the input section
type InputMapping struct {
	FieldMappings map[string]string `json:"fieldMappings" schema:"kind:object,label:Field Mappings"`
}

// OutputConfiguration is the output section
type OutputConfiguration struct {
	OutputFormat     string   `json:"outputFormat" schema:"kind:enum,label:Data Format,enum:json|xml|csv|text|binary"`
	Compression      string   `json:"compression" schema:"kind:enum,label:Compression,enum:none|gzip|deflate|brotli"`
	MaxFileSize      int      `json:"maxFileSize" schema:"kind:integer,label:Max File Size (MB),min:1,max:1000"`
	ChunkSize        int      `json:"chunkSize" schema:"kind:integer,label:Chunk Size (KB),min:64,max:10240"`
	Encoding         string   `json:"encoding" schema:"kind:string,label:Encoding"`
	OutputFields     []string `json:"outputFields" schema:"kind:array,label:Output Fields"`
	PrettyPrint      bool     `json:"prettyPrint" schema:"kind:boolean,label:Pretty Print"`
	IncludeMetadata  bool     `json:"includeMetadata" schema:"kind:boolean,label:Include Metadata"`
	OutputTransform  string   `json:"outputTransform" schema:"kind:string,label:Custom Output Transform"`
	ValidationSchema string   `json:"validationSchema" schema:"kind:string,label:Output Validation Schema"`
}

// ConnectionSettings is the connections section. Edges live in the graph;
// these maps only carry per-port display settings.
type ConnectionSettings struct {
	Inputs  map[string]any `json:"inputs" schema:"kind:object,label:Input Connections"`
	Outputs map[string]any `json:"outputs" schema:"kind:object,label:Output Connections"`
}

// DefaultAdvanced returns the advanced defaults shared by every built-in type
func DefaultAdvanced() AdvancedOptions {
	return AdvancedOptions{
		ExecutionMode:   "sync",
		LogLevel:        "info",
		MaxMemory:       512,
		Priority:        5,
		ParallelWorkers: 1,
		CacheDuration:   60,
		Headers:         []KeyValue{},
		EnvironmentVars: []KeyValue{},
	}
}

// DefaultOutput returns the output defaults shared by every built-in type
func DefaultOutput() OutputConfiguration {
	return OutputConfiguration{
		OutputFormat: "json",
		Compression:  "none",
		MaxFileSize:  10,
		ChunkSize:    1024,
		Encoding:     "utf-8",
		OutputFields: []string{},
	}
}

// standardSections wraps a basic section with the shared remaining sections
func standardSections(basic any) Sections {
	return Sections{
		Basic:       basic,
		Advanced:    DefaultAdvanced(),
		Input:       InputMapping{FieldMappings: map[string]string{}},
		Output:      DefaultOutput(),
		Connections: ConnectionSettings{Inputs: map[string]any{}, Outputs: map[string]any{}},
	}
}
