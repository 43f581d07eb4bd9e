// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"auditpro/internal/domain"
)

const namespace = "auditpro"

// Audit outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	auditsTotal      *prometheus.CounterVec
	auditDuration    prometheus.Histogram
	findingsByDomain *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		auditsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audits_processed_total",
			Help:      "Audits processed, by outcome.",
		}, []string{"outcome"}),
		auditDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audit_duration_seconds",
			Help:      "Wall time of one audit run.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		findingsByDomain: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Findings produced, by domain.",
		}, []string{"domain"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method and status code.",
		}, []string{"method", "code"}),
	}
	m.registry.MustRegister(
		m.auditsTotal,
		m.auditDuration,
		m.findingsByDomain,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAudit records one finished audit.
func (m *Metrics) ObserveAudit(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.auditsTotal.WithLabelValues(outcome).Inc()
	m.auditDuration.Observe(elapsed.Seconds())
}

// CountFindings adds findings to the per-domain counter.
func (m *Metrics) CountFindings(findings []domain.Finding) {
	if m == nil {
		return
	}
	for _, f := range findings {
		m.findingsByDomain.WithLabelValues(string(f.Domain)).Inc()
	}
}

// InstrumentHandler counts requests served by next.
func (m *Metrics) InstrumentHandler(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return promhttp.InstrumentHandlerCounter(m.httpRequests, next)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
