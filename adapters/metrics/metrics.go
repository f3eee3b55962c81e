// Package metrics provides Prometheus metrics collection for specgate.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/specgate/specgate/ports"
)

// Collector holds all Prometheus metrics for specgate.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Contract metrics
	ViolationsTotal        *prometheus.CounterVec
	UnspecifiedStatusTotal *prometheus.CounterVec

	// Document metrics
	SpecReloads      prometheus.Counter
	SpecReloadErrors prometheus.Counter
	SpecLastReload   prometheus.Gauge
}

// New creates a new metrics collector registered on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "specgate",
				Name:      "requests_total",
				Help:      "Total number of dispatched requests",
			},
			[]string{"method", "template", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "specgate",
				Name:      "request_duration_seconds",
				Help:      "Handler duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "template", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "specgate",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being served",
			},
		),
		ViolationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "specgate",
				Name:      "contract_violations_total",
				Help:      "Total responses that failed schema validation",
			},
			[]string{"method", "template", "status"},
		),
		UnspecifiedStatusTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "specgate",
				Name:      "unspecified_status_total",
				Help:      "Total responses with a status the document does not declare",
			},
			[]string{"method", "template", "status"},
		),
		SpecReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "specgate",
				Name:      "spec_reloads_total",
				Help:      "Total number of successful document reloads",
			},
		),
		SpecReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "specgate",
				Name:      "spec_reload_errors_total",
				Help:      "Total number of document reload errors",
			},
		),
		SpecLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "specgate",
				Name:      "spec_last_reload_timestamp",
				Help:      "Unix timestamp of last successful document reload",
			},
		),
	}
}

// RecordRequest observes one completed request.
func (c *Collector) RecordRequest(method, template string, status int, duration time.Duration) {
	s := strconv.Itoa(status)
	tpl := NormalizeTemplate(template)
	c.RequestsTotal.WithLabelValues(method, tpl, s).Inc()
	c.RequestDuration.WithLabelValues(method, tpl, s).Observe(duration.Seconds())
}

// RecordViolation counts a response-contract violation.
func (c *Collector) RecordViolation(method, template string, status int) {
	c.ViolationsTotal.WithLabelValues(method, NormalizeTemplate(template), strconv.Itoa(status)).Inc()
}

// RecordUnspecifiedStatus counts a response status the document does not
// declare.
func (c *Collector) RecordUnspecifiedStatus(method, template string, status int) {
	c.UnspecifiedStatusTotal.WithLabelValues(method, NormalizeTemplate(template), strconv.Itoa(status)).Inc()
}

// RecordSpecReload counts one document reload attempt.
func (c *Collector) RecordSpecReload(ok bool) {
	if ok {
		c.SpecReloads.Inc()
		c.SpecLastReload.SetToCurrentTime()
		return
	}
	c.SpecReloadErrors.Inc()
}

// Ensure interface compliance.
var _ ports.Metrics = (*Collector)(nil)

// NormalizeTemplate bounds label cardinality. Templates already collapse
// path parameters into placeholders, so only pathological lengths are cut.
func NormalizeTemplate(template string) string {
	if len(template) > 50 {
		return template[:50] + "..."
	}
	return template
}
