package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors a client reports into
type Metrics struct {
	CompletionsTotal   *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
	TokensUsed         *prometheus.CounterVec
	ErrorsTotal        *prometheus.CounterVec
	ChunksTotal        *prometheus.CounterVec
	InFlight           prometheus.Gauge
}

// NewMetrics registers the collectors with the default registry
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the collectors with the given registerer so
// callers can keep registries isolated
func NewMetricsWith(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "aiclient"
	}
	factory := promauto.With(registerer)

	return &Metrics{
		CompletionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "completions_total",
				Help:      "Completion exchanges by outcome",
			},
			[]string{"model", "outcome"},
		),
		CompletionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "completion_duration_seconds",
				Help:      "Time from dispatch to callback delivery",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"model"},
		),
		TokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_used_total",
				Help:      "Token usage reported by the service",
			},
			[]string{"model", "type"}, // type: input, output, total
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Failed exchanges by error kind",
			},
			[]string{"model", "kind"},
		),
		ChunksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_chunks_total",
				Help:      "Stream chunks delivered to callbacks",
			},
			[]string{"model"},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "in_flight_exchanges",
				Help:      "Exchanges dispatched but not yet delivered",
			},
		),
	}
}
