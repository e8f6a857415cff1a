package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the render counters of one server. Each server registers them
// on its own registry so tests can run servers side by side.
type Metrics struct {
	Registry *prometheus.Registry

	Renders    *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	Unresolved *prometheus.CounterVec
	Requests   *prometheus.CounterVec
}

// NewMetrics creates the server metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		Renders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formdoc_renders_total",
				Help: "Total number of document renders",
			},
			[]string{"form", "format", "status"},
		),

		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "formdoc_render_duration_seconds",
				Help:    "Time spent building and serializing a document",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"form", "format"},
		),

		Unresolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formdoc_unresolved_fields_total",
				Help: "Fields referenced by a template but missing from the request",
			},
			[]string{"form", "field"},
		),

		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formdoc_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}
}
