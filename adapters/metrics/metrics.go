// Package metrics provides Prometheus metrics collection for ToolGate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for ToolGate.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Compilation metrics
	CompilationsTotal *prometheus.CounterVec

	// Validation metrics
	ParsesTotal     *prometheus.CounterVec
	ParseDuration   *prometheus.HistogramVec
	ViolationsTotal *prometheus.CounterVec

	// Tool metrics
	ToolsRegistered prometheus.Gauge

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a new metrics collector with all metrics registered.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		// Request metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "toolgate",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "toolgate",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "toolgate",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),

		// Compilation metrics
		CompilationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "toolgate",
				Name:      "compilations_total",
				Help:      "Total number of schema compilations by result",
			},
			[]string{"type_id", "result"},
		),

		// Validation metrics
		ParsesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "toolgate",
				Name:      "parses_total",
				Help:      "Total number of argument validations by result",
			},
			[]string{"tool", "result"},
		),
		ParseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "toolgate",
				Name:      "parse_duration_seconds",
				Help:      "Argument validation duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"tool"},
		),
		ViolationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "toolgate",
				Name:      "violations_total",
				Help:      "Total number of schema violations by rule",
			},
			[]string{"tool", "rule"},
		),

		// Tool metrics
		ToolsRegistered: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "toolgate",
				Name:      "tools_registered",
				Help:      "Number of tools currently registered",
			},
		),

		// Config metrics
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "toolgate",
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "toolgate",
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "toolgate",
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// NormalizePath reduces label cardinality from dynamic path segments.
func NormalizePath(path string) string {
	if len(path) > 50 {
		return path[:50] + "..."
	}
	return path
}
