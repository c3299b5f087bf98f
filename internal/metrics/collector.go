// Package metrics exposes command metrics to Prometheus
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rpg_helper"

// Collector records the metrics the command router reports by name.
// Each collector owns its registry so tests never touch the global one.
type Collector struct {
	registry   *prometheus.Registry
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// NewCollector creates a collector with the router metrics and the Go runtime collectors registered
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		counters: map[string]*prometheus.CounterVec{
			"commands_total": factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Chat commands routed, partitioned by command and outcome.",
			}, []string{"command", "status"}),
			"command_errors_total": factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "command_errors_total",
				Help:      "Failed chat commands, partitioned by command and error code.",
			}, []string{"command", "code"}),
		},
		histograms: map[string]*prometheus.HistogramVec{
			"command_duration_seconds": factory.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Time spent handling a chat command.",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			}, []string{"command"}),
		},
	}
}

// IncrementCounter adds one to a known counter. Unknown names are dropped.
func (c *Collector) IncrementCounter(name string, labels map[string]string) {
	counter, ok := c.counters[name]
	if !ok {
		return
	}
	counter.With(prometheus.Labels(labels)).Inc()
}

// ObserveHistogram records a value on a known histogram. Unknown names are dropped.
func (c *Collector) ObserveHistogram(name string, value float64, labels map[string]string) {
	histogram, ok := c.histograms[name]
	if !ok {
		return
	}
	histogram.With(prometheus.Labels(labels)).Observe(value)
}

// Registry is the registry the collector writes to
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
