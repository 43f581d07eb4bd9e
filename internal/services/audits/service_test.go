package audits

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditpro/internal/adapters/memory"
	"auditpro/internal/collector/crm"
	"auditpro/internal/domain"
	"auditpro/internal/engine"
	"auditpro/internal/ports"
	"auditpro/internal/services/business"
)

func strp(s string) *string { return &s }

func f64(v float64) *float64 { return &v }

func busyOrg() *crm.Mock {
	return &crm.Mock{
		Info:        crm.OrgInfo{Name: "Acme", Type: "Enterprise Edition"},
		ActiveUsers: 40,
		Records: map[string]int{
			crm.ObjectAccount:     1000,
			crm.ObjectOpportunity: 600,
			crm.ObjectLead:        5000,
			crm.ObjectCase:        750,
		},
		InactiveUsers:      12,
		UnusedFields:       47,
		UnusedFieldObjects: []string{"Account", "Contact"},
		DuplicateRules:     6,
		Orphaned:           map[string]int{crm.ObjectOpportunity: 234},
		Stale:              map[string]int{crm.ObjectLead: 1847},
		MissingShare:       map[string]float64{crm.ObjectOpportunity: 0.38},
		ManualShare:        map[string]float64{crm.ObjectCase: 0.9},
		ReportHoursPerWeek: 5,
	}
}

func fixedFactory(m *crm.Mock) crm.Factory {
	return func(context.Context, string, string) (crm.Client, error) { return m, nil }
}

func newService(t *testing.T, factory crm.Factory) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return New(store, engine.New(engine.DefaultAssumptions()), factory, zerolog.Nop()), store
}

// runAudit drives one session through the job lifecycle the way the worker
// pool does.
func runAudit(t *testing.T, svc *Service, store *memory.Store, id string) {
	t.Helper()
	ctx := context.Background()
	jobID, err := store.StartJobForSession(ctx, id)
	require.NoError(t, err)
	require.NoError(t, svc.Process(ctx, id))
	require.NoError(t, store.MarkCompleted(ctx, jobID))
}

func TestEnqueue_Validation(t *testing.T) {
	svc, _ := newService(t, fixedFactory(busyOrg()))
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, ports.AuditRequest{OrgName: "   "})
	assert.ErrorIs(t, err, ports.ErrInvalidInput)

	_, err = svc.Enqueue(ctx, ports.AuditRequest{OrgName: "Acme", BusinessSessionID: strp("missing")})
	assert.ErrorIs(t, err, ports.ErrInvalidInput)
}

func TestEnqueue_UsesBusinessProfile(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, fixedFactory(busyOrg()))
	profiles := business.New(store)
	p, err := profiles.CreateProfile(ctx, ports.BusinessInfoRequest{
		RevenueBucket:      strp("1M–3M"),
		HeadcountBucket:    strp("20–49"),
		DepartmentSalaries: &domain.DepartmentSalaries{Sales: f64(80_000)},
	})
	require.NoError(t, err)

	sess, err := svc.Enqueue(ctx, ports.AuditRequest{
		OrgName:           " Acme ",
		InstanceURL:       "https://acme.my.example.com",
		BusinessSessionID: &p.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", sess.OrgName)
	assert.Equal(t, domain.StatusQueued, sess.Status)
	require.NotNil(t, sess.OrgDomain)
	assert.Equal(t, "example.com", *sess.OrgDomain)

	in, err := store.SessionInput(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, in.Business.AnnualRevenue)
	assert.Equal(t, p.AnnualRevenue, *in.Business.AnnualRevenue)
	assert.Equal(t, p.EmployeeHeadcount, *in.Business.EmployeeHeadcount)
	require.NotNil(t, in.DepartmentSalaries)
	assert.Equal(t, 80_000.0, *in.DepartmentSalaries.Sales)
}

func TestProcess_ProducesRankedFindings(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, fixedFactory(busyOrg()))
	sess, err := svc.Enqueue(ctx, ports.AuditRequest{
		OrgName:  "Acme",
		Business: &domain.BusinessInput{AnnualRevenue: f64(5_000_000), EmployeeHeadcount: f64(30)},
	})
	require.NoError(t, err)
	runAudit(t, svc, store, sess.ID)

	d, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, d.Session.Status)
	assert.Equal(t, 1.0, d.Session.Progress)
	require.NotNil(t, d.Stage)
	assert.Equal(t, 4, d.Stage.Stage)
	require.Len(t, d.Findings, 9)
	assert.Equal(t, 9, d.Summary.TotalFindings)
	assert.Equal(t, 9, d.Session.FindingsCount)
	for i := 1; i < len(d.Findings); i++ {
		assert.GreaterOrEqual(t, d.Findings[i-1].PriorityScore, d.Findings[i].PriorityScore)
	}
	assert.Equal(t, d.Summary.TotalAnnualROI, d.Session.EstimatedSavings.AnnualDollars)
}

func TestProcess_CRMFailure(t *testing.T) {
	ctx := context.Background()
	failing := busyOrg()
	failing.Err = errors.New("session expired")
	svc, store := newService(t, fixedFactory(failing))
	sess, err := svc.Enqueue(ctx, ports.AuditRequest{OrgName: "Acme"})
	require.NoError(t, err)
	_, err = store.StartJobForSession(ctx, sess.ID)
	require.NoError(t, err)

	err = svc.Process(ctx, sess.ID)
	require.Error(t, err)
	assert.ErrorContains(t, err, "session expired")
}

func TestUpdateAssumptions(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, fixedFactory(busyOrg()))
	sess, err := svc.Enqueue(ctx, ports.AuditRequest{
		OrgName:     "Acme",
		Business:    &domain.BusinessInput{AnnualRevenue: f64(5_000_000), EmployeeHeadcount: f64(30)},
		Assumptions: &domain.AssumptionOverrides{WorkdaysPerMonth: f64(20)},
	})
	require.NoError(t, err)

	// still queued
	_, err = svc.UpdateAssumptions(ctx, sess.ID, domain.AssumptionOverrides{AdminRate: f64(70)})
	assert.ErrorIs(t, err, ports.ErrInvalidInput)

	runAudit(t, svc, store, sess.ID)
	before, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)

	child, err := svc.UpdateAssumptions(ctx, sess.ID, domain.AssumptionOverrides{AdminRate: f64(70)})
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, child.Session.ID)
	require.NotNil(t, child.Session.ParentSessionID)
	assert.Equal(t, sess.ID, *child.Session.ParentSessionID)
	assert.Equal(t, domain.StatusCompleted, child.Session.Status)
	require.Len(t, child.Findings, len(before.Findings))
	assert.NotEqual(t, before.Summary.TotalAnnualROI, child.Summary.TotalAnnualROI)

	in, err := store.SessionInput(ctx, child.Session.ID)
	require.NoError(t, err)
	require.NotNil(t, in.Assumptions)
	assert.Equal(t, 70.0, *in.Assumptions.AdminRate)
	assert.Equal(t, 20.0, *in.Assumptions.WorkdaysPerMonth)

	parent, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Summary, parent.Summary)

	_, err = svc.UpdateAssumptions(ctx, "missing", domain.AssumptionOverrides{})
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, crm.MockFactory)
	for _, org := range []string{"A", "B", "C"} {
		_, err := svc.Enqueue(ctx, ports.AuditRequest{OrgName: org})
		require.NoError(t, err)
	}
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestEvaluate_DoesNotPersist(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t, crm.MockFactory)
	res := svc.Evaluate(ctx, domain.AuditInput{
		Signals:  &domain.OrgSignals{ActiveUsers: 10},
		Findings: []domain.RawFinding{{Title: "Unused Custom Fields", Kind: domain.KindCustomFields, FieldCount: 10, Impact: domain.ImpactMedium}},
	})
	require.Len(t, res.Findings, 1)
	list, err := store.ListSessions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
