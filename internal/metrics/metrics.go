// Package metrics holds the Prometheus collectors for the case desk.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"zakatdesk/pkg/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "zakatdesk"

type Metrics struct {
	registry *prometheus.Registry

	CaseTransitions     *prometheus.CounterVec
	ClaimConflicts      prometheus.Counter
	SideEffectFailures  *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New builds the collectors on their own registry so tests can create as
// many instances as they like.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CaseTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "case_transitions_total",
			Help:      "Case status transitions by source and target status.",
		}, []string{"from", "to"}),
		ClaimConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claim_conflicts_total",
			Help:      "Claims refused because the case was already assigned.",
		}),
		SideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failures_total",
			Help:      "History, notification and cache writes that failed after a successful mutation.",
		}, []string{"effect"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}

	m.registry.MustRegister(
		m.CaseTransitions,
		m.ClaimConflicts,
		m.SideEffectFailures,
		m.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Transition(from, to types.CaseStatus) {
	m.CaseTransitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) ClaimConflict() {
	m.ClaimConflicts.Inc()
}

func (m *Metrics) SideEffectFailure(effect string) {
	m.SideEffectFailures.WithLabelValues(effect).Inc()
}

func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
