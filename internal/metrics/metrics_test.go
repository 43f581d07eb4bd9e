package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditpro/internal/domain"
)

func TestMetrics_Record(t *testing.T) {
	m := New()
	m.ObserveAudit(OutcomeCompleted, 120*time.Millisecond)
	m.ObserveAudit(OutcomeCompleted, 80*time.Millisecond)
	m.ObserveAudit(OutcomeFailed, time.Second)
	m.CountFindings([]domain.Finding{
		{Domain: domain.DomainDataQuality},
		{Domain: domain.DomainDataQuality},
		{Domain: domain.DomainSecurity},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.auditsTotal.WithLabelValues(OutcomeCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.auditsTotal.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.findingsByDomain.WithLabelValues(string(domain.DomainDataQuality))))
	assert.Equal(t, 1, testutil.CollectAndCount(m.auditDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveAudit(OutcomeCompleted, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "auditpro_audits_processed_total")
	assert.Contains(t, string(body), "auditpro_audit_duration_seconds_bucket")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAudit(OutcomeFailed, time.Second)
	m.CountFindings([]domain.Finding{{}})

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	m.InstrumentHandler(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
