// Package metrics exposes the gateway's Prometheus metrics.
//
// A Collector owns a private registry and the metric groups for the HTTP
// surface, the processing pipeline, the usage quota, and the artifact store.
// The registry is scraped through the promhttp handler mounted by the
// server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Config contains configuration for the metrics collector.
type Config struct {
	// Namespace prefixes every metric name.
	Namespace string

	// RequestDurationBuckets are the histogram buckets for request
	// durations in seconds.
	RequestDurationBuckets []float64
}

// Collector bundles the registry and all metric groups.
type Collector struct {
	registry *prometheus.Registry

	// Request tracks the HTTP surface.
	Request *RequestMetrics

	// Pipeline tracks processing outcomes and quota decisions.
	Pipeline *PipelineMetrics

	// Artifacts tracks the artifact store.
	Artifacts *ArtifactMetrics
}

// NewCollector creates a collector with Go runtime and process collectors
// plus the gateway metric groups registered.
func NewCollector(cfg Config) *Collector {
	if cfg.Namespace == "" {
		cfg.Namespace = "vulcan"
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Collector{
		registry:  registry,
		Request:   NewRequestMetrics(cfg, registry),
		Pipeline:  NewPipelineMetrics(cfg, registry),
		Artifacts: NewArtifactMetrics(cfg, registry),
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
