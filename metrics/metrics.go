// Package metrics exposes request evaluation counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"secwaf/waf"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements waf.Metrics.
type PrometheusMetrics struct {
	requestsTotal         *prometheus.CounterVec
	ruleMatchesTotal      *prometheus.CounterVec
	processingErrorsTotal *prometheus.CounterVec
	multipartIrregular    *prometheus.CounterVec
	requestDuration       *prometheus.HistogramVec
	gatherer              prometheus.Gatherer
}

// NewPrometheusMetrics registers the WAF collectors with reg. A nil reg uses a fresh registry.
func NewPrometheusMetrics(reg *prometheus.Registry) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &PrometheusMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "secwaf_requests_total", Help: "Total evaluated requests"},
			[]string{"decision"},
		),
		ruleMatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "secwaf_rule_matches_total", Help: "Total rule matches"},
			[]string{"rule_id", "builtin"},
		),
		processingErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "secwaf_processing_errors_total", Help: "Total requests that could not be fully inspected"},
			[]string{"stage"},
		),
		multipartIrregular: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "secwaf_multipart_irregularities_total", Help: "Total multipart bodies with framing deviations, by kind"},
			[]string{"kind"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "secwaf_request_duration_seconds",
				Help:    "Request evaluation duration in seconds",
				Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
			},
			[]string{"decision"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.requestsTotal,
		m.ruleMatchesTotal,
		m.processingErrorsTotal,
		m.multipartIrregular,
		m.requestDuration,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RequestEvaluated counts a request and records how long it took.
func (m *PrometheusMetrics) RequestEvaluated(decision waf.Decision, duration time.Duration) {
	d := decision.String()
	m.requestsTotal.WithLabelValues(d).Inc()
	m.requestDuration.WithLabelValues(d).Observe(duration.Seconds())
}

// RuleMatched counts a match of a rule or builtin anomaly.
func (m *PrometheusMetrics) RuleMatched(ruleID int, builtin bool) {
	m.ruleMatchesTotal.WithLabelValues(strconv.Itoa(ruleID), strconv.FormatBool(builtin)).Inc()
}

// ProcessingError counts an inspection failure in stage.
func (m *PrometheusMetrics) ProcessingError(stage waf.Stage) {
	m.processingErrorsTotal.WithLabelValues(stage.String()).Inc()
}

// MultipartIrregularity counts a multipart framing deviation.
func (m *PrometheusMetrics) MultipartIrregularity(kind string) {
	m.multipartIrregular.WithLabelValues(kind).Inc()
}
