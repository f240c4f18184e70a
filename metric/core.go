package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the editor and validation metrics. A nil *Metrics is valid
// and records nothing, so components can take one optionally.
type Metrics struct {
	// Graph metrics
	GraphMutations    *prometheus.CounterVec
	ConnectRejections *prometheus.CounterVec
	GraphNodes        prometheus.Gauge
	GraphEdges        prometheus.Gauge

	// Validation metrics
	ValidationDuration *prometheus.HistogramVec
	ValidationErrors   *prometheus.CounterVec

	// Collaborator metrics (save and test runs)
	CollaboratorAttempts *prometheus.CounterVec
	CollaboratorDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		GraphMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowbuilder",
				Subsystem: "graph",
				Name:      "mutations_total",
				Help:      "Total number of applied graph mutations",
			},
			[]string{"operation"},
		),

		ConnectRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowbuilder",
				Subsystem: "graph",
				Name:      "connect_rejections_total",
				Help:      "Total number of refused connections by reason",
			},
			[]string{"reason"},
		),

		GraphNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "flowbuilder",
				Subsystem: "graph",
				Name:      "nodes",
				Help:      "Number of nodes in the session graph",
			},
		),

		GraphEdges: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "flowbuilder",
				Subsystem: "graph",
				Name:      "edges",
				Help:      "Number of edges in the session graph",
			},
		),

		ValidationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "flowbuilder",
				Subsystem: "validation",
				Name:      "duration_seconds",
				Help:      "Validation pass duration in seconds",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
			},
			[]string{"scope"},
		),

		ValidationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowbuilder",
				Subsystem: "validation",
				Name:      "errors_total",
				Help:      "Total number of field errors reported by section",
			},
			[]string{"section"},
		),

		CollaboratorAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowbuilder",
				Subsystem: "collaborator",
				Name:      "attempts_total",
				Help:      "Total number of save and test attempts by outcome",
			},
			[]string{"operation", "outcome"},
		),

		CollaboratorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "flowbuilder",
				Subsystem: "collaborator",
				Name:      "duration_seconds",
				Help:      "Duration of save and test operations including retries",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (c *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.GraphMutations,
		c.ConnectRejections,
		c.GraphNodes,
		c.GraphEdges,
		c.ValidationDuration,
		c.ValidationErrors,
		c.CollaboratorAttempts,
		c.CollaboratorDuration,
	}
}

// RecordMutation increments the mutation counter
func (c *Metrics) RecordMutation(operation string) {
	if c == nil {
		return
	}
	c.GraphMutations.WithLabelValues(operation).Inc()
}

// RecordConnectRejection increments the rejection counter for reason
func (c *Metrics) RecordConnectRejection(reason string) {
	if c == nil {
		return
	}
	c.ConnectRejections.WithLabelValues(reason).Inc()
}

// RecordGraphSize updates the node and edge gauges
func (c *Metrics) RecordGraphSize(nodes, edges int) {
	if c == nil {
		return
	}
	c.GraphNodes.Set(float64(nodes))
	c.GraphEdges.Set(float64(edges))
}

// RecordValidation observes one validation pass over scope ("node" or
// "graph") and counts its errors by section.
func (c *Metrics) RecordValidation(scope string, duration time.Duration, sections map[string]int) {
	if c == nil {
		return
	}
	c.ValidationDuration.WithLabelValues(scope).Observe(duration.Seconds())
	for section, n := range sections {
		c.ValidationErrors.WithLabelValues(section).Add(float64(n))
	}
}

// RecordAttempt counts one collaborator attempt
func (c *Metrics) RecordAttempt(operation, outcome string) {
	if c == nil {
		return
	}
	c.CollaboratorAttempts.WithLabelValues(operation, outcome).Inc()
}

// RecordCollaboratorDuration records the total time of a save or test run
func (c *Metrics) RecordCollaboratorDuration(operation string, duration time.Duration) {
	if c == nil {
		return
	}
	c.CollaboratorDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
