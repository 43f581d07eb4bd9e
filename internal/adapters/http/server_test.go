package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditpro/internal/adapters/memory"
	"auditpro/internal/collector/crm"
	"auditpro/internal/domain"
	"auditpro/internal/engine"
	"auditpro/internal/metrics"
	"auditpro/internal/ports"
	"auditpro/internal/services/audits"
	"auditpro/internal/services/business"
	"auditpro/internal/services/reports"
	"auditpro/internal/workers/auditrunner"
)

type testEnv struct {
	srv   *httptest.Server
	store *memory.Store
}

func newTestEnv(t *testing.T, factory crm.Factory) *testEnv {
	t.Helper()
	return newTestEnvWith(t, factory, nil)
}

// newTestEnvWith lets a test wrap the inline runner.
func newTestEnvWith(t *testing.T, factory crm.Factory, wrap func(InlineRunner, *memory.Store, *audits.Service) InlineRunner) *testEnv {
	t.Helper()
	log := zerolog.Nop()
	store := memory.New()
	m := metrics.New()
	auditSvc := audits.New(store, engine.New(engine.DefaultAssumptions()), factory, log).WithMetrics(m)
	var runner InlineRunner = &auditrunner.Runner{
		Jobs:         store,
		Sessions:     store,
		Processor:    auditSvc,
		PollInterval: 10 * time.Millisecond,
		Metrics:      m,
		Log:          log,
	}
	if wrap != nil {
		runner = wrap(runner, store, auditSvc)
	}

	s := New(Deps{
		Audits:     auditSvc,
		Businesses: business.New(store),
		Reports:    reports.New(auditSvc, log),
		Runner:     runner,
		Store:      store,
		Metrics:    m,
		Log:        log,
	})
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthAndRoot(t *testing.T) {
	env := newTestEnv(t, crm.MockFactory)

	for _, p := range []string{"/healthz", "/api/health"} {
		resp := env.do(t, http.MethodGet, p, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, p)
		assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))
	}

	resp := env.do(t, http.MethodGet, "/api/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decode[map[string]string](t, resp)["message"])

	resp = env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "auditpro_http_requests_total")
}

func TestOAuthConnect(t *testing.T) {
	env := newTestEnv(t, crm.MockFactory)

	resp := env.do(t, http.MethodPost, "/api/oauth/connect", map[string]string{"org_name": "Acme"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[connectResponse](t, resp)
	assert.True(t, got.Success)
	assert.Equal(t, "Acme", got.OrgName)
	assert.NotEmpty(t, got.ConnectionID)

	resp = env.do(t, http.MethodPost, "/api/oauth/connect", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBusinessInfo(t *testing.T) {
	env := newTestEnv(t, crm.MockFactory)

	resp := env.do(t, http.MethodPost, "/api/session/business-info", map[string]any{
		"revenue_bucket":   "3M–10M",
		"headcount_bucket": "20–49",
		"company_website":  "https://www.acme.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decode[domain.BusinessProfile](t, resp)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 6_500_000.0, p.AnnualRevenue)
	assert.Equal(t, 35.0, p.EmployeeHeadcount)
	assert.Equal(t, 4, p.Stage)

	resp = env.do(t, http.MethodGet, "/api/session/business-info/"+p.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, p.ID, decode[domain.BusinessProfile](t, resp).ID)

	resp = env.do(t, http.MethodGet, "/api/session/business-info/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode[map[string]string](t, resp)["code"])

	resp = env.do(t, http.MethodPost, "/api/session/business-info", map[string]any{"annual_revenue": -5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/session/business-info", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", decode[map[string]string](t, resp)["code"])
}

func TestStages(t *testing.T) {
	env := newTestEnv(t, crm.MockFactory)

	resp := env.do(t, http.MethodPost, "/api/business/stage", map[string]any{"annual_revenue": 150_000_000, "employee_headcount": 375})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[map[string]any](t, resp)
	assert.Equal(t, 9.0, st["stage"])
	assert.Nil(t, st["revenue_max"])
	assert.Contains(t, st, "revenue_max")

	resp = env.do(t, http.MethodGet, "/api/business/stages", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]map[string]any](t, resp), 10)

	resp = env.do(t, http.MethodPost, "/api/business/stage", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunAudit_Queued(t *testing.T) {
	env := newTestEnv(t, crm.MockFactory)

	resp := env.do(t, http.MethodPost, "/api/audit/run", map[string]any{"org_name": "Acme"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	sess := decode[domain.AuditSession](t, resp)
	assert.Equal(t, domain.StatusQueued, sess.Status)

	job, found, err := env.store.ClaimNext(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sess.ID, job.SessionID)

	resp = env.do(t, http.MethodGet, "/api/audit/sessions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]domain.AuditSession](t, resp), 1)
}

func TestRunAudit_Validation(t *testing.T) {
	env := newTestEnv(t, crm.MockFactory)

	resp := env.do(t, http.MethodPost, "/api/audit/run", map[string]any{"org_name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/audit/run", map[string]any{"org_name": "Acme", "business_session_id": "missing"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/audit/run?wait=maybe", map[string]any{"org_name": "Acme"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_PARAM", decode[map[string]string](t, resp)["code"])
}

func TestRunAudit_InlineThenReadBack(t *testing.T) {
	env := newTestEnv(t, crm.MockFactory)

	resp := env.do(t, http.MethodPost, "/api/audit/run?wait=true&timeout=5", map[string]any{
		"org_name":        "Acme",
		"business_inputs": map[string]any{"revenue_range": "1M–3M", "employee_range": "10–19"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d := decode[ports.AuditDetail](t, resp)
	assert.Equal(t, domain.StatusCompleted, d.Session.Status)
	require.NotEmpty(t, d.Findings)
	require.NotNil(t, d.Stage)
	assert.Equal(t, 3, d.Stage.Stage)
	assert.Equal(t, len(d.Findings), d.Summary.TotalFindings)

	resp = env.do(t, http.MethodGet, "/api/audit/"+d.Session.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	again := decode[ports.AuditDetail](t, resp)
	assert.Equal(t, d.Summary, again.Summary)

	resp = env.do(t, http.MethodPost, "/api/audit/"+d.Session.ID+"/update-assumptions", map[string]any{"admin_rate": 80})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	child := decode[ports.AuditDetail](t, resp)
	require.NotNil(t, child.Session.ParentSessionID)
	assert.Equal(t, d.Session.ID, *child.Session.ParentSessionID)

	resp = env.do(t, http.MethodGet, "/api/audit/"+d.Session.ID+"/pdf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/api/downloads/audit-report-"+d.Session.ID+".pdf", decode[ports.PDFLink](t, resp).DownloadURL)

	resp = env.do(t, http.MethodGet, "/api/audit/"+d.Session.ID+"/report", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	page, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(page), "Findings by priority")
}

// workerFirst claims the queued job the way a background worker would and
// settles it in the background before the inline run gets to it.
type workerFirst struct {
	inner InlineRunner
	store *memory.Store
	audit *audits.Service
}

func (w workerFirst) ProcessInline(ctx context.Context, sessionID string) error {
	job, found, err := w.store.ClaimNext(ctx)
	if err != nil {
		return err
	}
	if !found || job.SessionID != sessionID {
		return fmt.Errorf("expected queued job for %s", sessionID)
	}
	go func() {
		bg := context.Background()
		time.Sleep(30 * time.Millisecond)
		if err := w.audit.Process(bg, job.SessionID); err != nil {
			_ = w.store.MarkFailed(bg, job.ID, err.Error())
			return
		}
		_ = w.store.MarkCompleted(bg, job.ID)
	}()
	return w.inner.ProcessInline(ctx, sessionID)
}

func TestRunAudit_InlineWaitsForClaimingWorker(t *testing.T) {
	env := newTestEnvWith(t, crm.MockFactory, func(r InlineRunner, store *memory.Store, svc *audits.Service) InlineRunner {
		return workerFirst{inner: r, store: store, audit: svc}
	})

	resp := env.do(t, http.MethodPost, "/api/audit/run?wait=true&timeout=5", map[string]any{"org_name": "Acme"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d := decode[ports.AuditDetail](t, resp)
	assert.Equal(t, domain.StatusCompleted, d.Session.Status)
	assert.NotEmpty(t, d.Findings)
}

func TestRunAudit_InlineFailure(t *testing.T) {
	env := newTestEnv(t, func(context.Context, string, string) (crm.Client, error) {
		return nil, errors.New("token revoked")
	})

	resp := env.do(t, http.MethodPost, "/api/audit/run?wait=true", map[string]any{"org_name": "Acme"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	list, err := env.store.ListSessions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusFailed, list[0].Status)
	require.NotNil(t, list[0].FailureReason)
	assert.Contains(t, *list[0].FailureReason, "token revoked")
}

func TestRunAudit_InlineTimeout(t *testing.T) {
	env := newTestEnv(t, func(ctx context.Context, _, _ string) (crm.Client, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return nil, errors.New("unreachable")
		}
	})

	resp := env.do(t, http.MethodPost, "/api/audit/run?wait=true&timeout=1", map[string]any{"org_name": "Slow"})
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

func TestAuditNotFound(t *testing.T) {
	env := newTestEnv(t, crm.MockFactory)
	for _, p := range []string{"/api/audit/missing", "/api/audit/missing/pdf", "/api/audit/missing/report"} {
		resp := env.do(t, http.MethodGet, p, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, p)
	}
	resp := env.do(t, http.MethodPost, "/api/audit/missing/update-assumptions", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEvaluate(t *testing.T) {
	env := newTestEnv(t, crm.MockFactory)

	resp := env.do(t, http.MethodPost, "/api/audit/evaluate", map[string]any{
		"business_inputs": map[string]any{"revenue_range": "250k–500k", "employee_range": "5–9"},
		"org_signals":     map[string]any{"active_users": 7},
		"findings": []map[string]any{{
			"title":       "Unused Custom Fields",
			"description": "18 custom fields have no data",
			"category":    domain.CategoryTimeSavings,
			"impact":      domain.ImpactMedium,
			"field_count": 18,
		}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[domain.Evaluation](t, resp)
	assert.Equal(t, 2, res.Stage.Stage)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, 1672.65, res.Findings[0].TotalAnnualROI)
	assert.Equal(t, 1673.0, res.Summary.TotalAnnualROI)

	list, err := env.store.ListSessions(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
