// Package metric provides the Prometheus registry used by the editor session
// and the validator.
//
// The package mirrors a two-layer design:
//
//  1. Core Metrics: graph mutations, connect rejections, validation passes and
//     collaborator attempts, registered automatically (Metrics type)
//  2. Component Registry: extensible registration for additional collectors
//     keyed by component and metric name (MetricsRegistrar interface)
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry(false)
//	core := registry.CoreMetrics()
//	core.RecordMutation("add_node")
//	core.RecordConnectRejection("incompatible_port_types")
//
// A nil *Metrics is accepted everywhere and records nothing:
//
//	var none *metric.Metrics
//	none.RecordMutation("add_node") // no-op
//
// # Reading values
//
// No HTTP endpoint is exposed. Snapshot gathers the registry into a flat map,
// which the demo command prints and tests assert on:
//
//	values, _ := registry.Snapshot()
//	values["flowbuilder_graph_mutations_total{operation=add_node}"]
package metric
