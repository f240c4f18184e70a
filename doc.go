// Package flowbuilder is the in-memory core of a visual workflow builder: a
// directed graph of typed processing steps connected through typed ports,
// configured through multi-section schemas, and validated before it may be
// tested or saved.
//
// # Architecture
//
// The packages form a strict dependency chain. Each layer only knows the ones
// below it:
//
//	┌─────────────────────────────────────┐
//	│            cmd/flowbuilder          │  Flags, logging, report
//	└─────────────────────────────────────┘
//	           ↓ drives
//	┌─────────────────────────────────────┐
//	│               editor                │  Locked session, auto-arrange,
//	│   (test and save collaborators)     │  retry, metrics, spans
//	└─────────────────────────────────────┘
//	           ↓ wraps
//	┌──────────────┐ ┌──────────┐ ┌───────┐
//	│  validation  │ │  layout  │ │ metric│  Error maps, placement,
//	└──────────────┘ └──────────┘ └───────┘  Prometheus collectors
//	           ↓ read
//	┌─────────────────────────────────────┐
//	│              flowgraph              │  Nodes, edges, events,
//	└─────────────────────────────────────┘  connectivity analysis
//	           ↓ instantiates
//	┌─────────────────────────────────────┐
//	│     nodetype → schema → port        │  Catalog, fields, data types
//	└─────────────────────────────────────┘
//
// # Graph Model
//
// A node is an instance of a node type from the catalog. It owns a deep copy
// of its type's default configuration and a canvas position. An edge runs from
// an output port to an input port. Connect admits it only when both ports
// exist, the data types are compatible, and a required input is still free.
// Every rejected mutation leaves the graph unchanged and returns an error from
// the errors package, so errors.Is against the taxonomy sentinels works
// through every wrapper.
//
// # Validation
//
// Validation produces a flat map from "section.field" paths to messages.
// Required inputs without an incoming edge appear under "connections.<port>",
// so one HasErrors check gates both testing a node and saving the workflow.
//
// # Collaborators
//
// Testing and saving are delegated to a Tester and a Saver supplied by the
// surrounding application. The editor session runs them with a per-attempt
// deadline and a bounded retry budget from pkg/retry. Only one of them may be
// in flight at a time, and nothing is committed unless the call succeeds.
//
// # Configuration
//
// The config package loads layout constants, editor timeouts, the retry
// budget, the catalog path and logging settings from JSON or YAML. Defaults
// are applied first and FLOWBUILDER_* environment variables last:
//
//	layout:
//	  strategy: lane
//	  node_width: 200
//	  horizontal_spacing: 100
//	editor:
//	  auto_arrange: true
//	  test_timeout: 5s
//	  retry:
//	    max_attempts: 3
//	catalog:
//	  path: catalog.yaml
package flowbuilder
