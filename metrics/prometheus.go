/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps a dedicated Prometheus registry with the cleardata
// collectors registered on it.
type Registry struct {
	registry *prometheus.Registry

	requestCharge  *prometheus.HistogramVec
	batchChunks    *prometheus.CounterVec
	deleteFailures *prometheus.CounterVec
}

// NewRegistry creates a registry under namespace. Go runtime and process
// collectors are included.
func NewRegistry(namespace string) *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		requestCharge: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_charge",
			Help:      "Request units charged by the store per operation.",
			Buckets:   []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		}, []string{"op", "container"}),
		batchChunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_chunks_total",
			Help:      "Executed batch chunks by outcome.",
		}, []string{"container", "result"}),
		deleteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delete_all_failures_total",
			Help:      "Documents DeleteAll failed to remove.",
		}, []string{"container"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.requestCharge,
		r.batchChunks,
		r.deleteFailures,
	)
	return r
}

func (r *Registry) ObserveRequestCharge(op, container string, charge float64) {
	r.requestCharge.WithLabelValues(op, container).Observe(charge)
}

func (r *Registry) BatchChunk(container string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	r.batchChunks.WithLabelValues(container, result).Inc()
}

func (r *Registry) DeleteFailure(container string) {
	r.deleteFailures.WithLabelValues(container).Inc()
}

// Register adds an extra collector.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// Handler returns an HTTP handler serving the registry in the exposition
// format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Gatherer returns the underlying gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
