package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditpro/internal/collector/crm"
	"auditpro/internal/domain"
)

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
		UnusedFieldObjects: []string{"Account", "Contact", "Opportunity", "Lead", "Case"},
		DuplicateRules:     6,
		Orphaned:           map[string]int{crm.ObjectOpportunity: 234},
		Stale:              map[string]int{crm.ObjectLead: 1847},
		MissingShare:       map[string]float64{crm.ObjectOpportunity: 0.38},
		ManualShare:        map[string]float64{crm.ObjectCase: 0.9},
		EmailAlerts:        0,
		ReportHoursPerWeek: 5,
	}
}

func titles(fs []domain.RawFinding) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Title
	}
	return out
}

func TestRun_AllDetectorsFire(t *testing.T) {
	signals, findings, err := Run(context.Background(), busyOrg())
	require.NoError(t, err)

	assert.Equal(t, 40, signals.ActiveUsers)
	assert.Equal(t, 1000, signals.AccountCount)
	assert.Equal(t, 600, signals.OpportunityCount)
	assert.Equal(t, "Acme", signals.OrgName)
	assert.InDelta(t, 1.8, signals.ComplexityMultiplier, 1e-9)

	assert.Equal(t, []string{
		"Unused Custom Fields Detected",
		"Duplicate Validation Rules",
		"Inactive User Licenses",
		"Orphaned Opportunity Records",
		"Missing Required Fields in Deals",
		"Stale Lead Records",
		"Manual Case Assignment Process",
		"Email Alerts Not Configured",
		"Manual Report Generation",
	}, titles(findings))

	byTitle := map[string]domain.RawFinding{}
	for _, f := range findings {
		byTitle[f.Title] = f
	}
	assert.Equal(t, 47, byTitle["Unused Custom Fields Detected"].FieldCount)
	assert.Equal(t, 234, byTitle["Orphaned Opportunity Records"].RecordCount)
	assert.Equal(t, 22.5, byTitle["Manual Case Assignment Process"].EstimatedMonthlyHours)
	assert.Equal(t, 20.0, byTitle["Manual Report Generation"].EstimatedMonthlyHours)
	assert.Contains(t, byTitle["Inactive User Licenses"].Description, "$1800/month")
}

func TestDetect_QuietOrg(t *testing.T) {
	findings := Detect(Snapshot{EmailAlerts: 5, ManualCaseShare: 0.2, Cases: 100})
	assert.Empty(t, findings)
}

func TestDetect_Thresholds(t *testing.T) {
	s := Snapshot{
		DuplicateRules:        1,
		MissingDealFieldShare: 0.05,
		Opportunities:         100,
		EmailAlerts:           2,
		ManualCaseShare:       0.5,
		Cases:                 60,
	}
	assert.Equal(t, []string{"Manual Case Assignment Process"}, titles(Detect(s)))
}

func TestCollect_PropagatesClientError(t *testing.T) {
	boom := errors.New("session expired")
	m := busyOrg()
	m.Err = boom

	_, err := Collect(context.Background(), m)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestCollect_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(ctx, busyOrg())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewMock_Deterministic(t *testing.T) {
	a := crm.NewMock("Acme Corp", "")
	b := crm.NewMock("Acme Corp", "")
	assert.Equal(t, a, b)
	assert.Equal(t, "Acme Corp", a.Info.Name)
	assert.NotEmpty(t, a.Info.InstanceURL)
	assert.Positive(t, a.ActiveUsers)

	_, findings, err := Run(context.Background(), a)
	require.NoError(t, err)
	assert.NotEmpty(t, findings)
}
