package crm

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"time"
)

// Mock is an in-memory Client. Its values are plain fields so tests can set
// them directly; NewMock derives realistic ones from the org name.
type Mock struct {
	Info               OrgInfo
	ActiveUsers        int
	InactiveUsers      int
	Records            map[string]int
	UnusedFields       int
	UnusedFieldObjects []string
	DuplicateRules     int
	Orphaned           map[string]int
	Stale              map[string]int
	MissingShare       map[string]float64
	ManualShare        map[string]float64
	EmailAlerts        int
	ReportHoursPerWeek float64

	// Err, when set, is returned by every call.
	Err error
}

var _ Client = (*Mock)(nil)

// NewMock returns a mock whose numbers are a pure function of orgName, so the
// same org always audits the same way.
func NewMock(orgName, instanceURL string) *Mock {
	h := fnv.New64a()
	_, _ = h.Write([]byte(orgName))
	seed := h.Sum64()
	r := rand.New(rand.NewPCG(seed, seed>>1|1))

	between := func(lo, hi int) int { return lo + r.IntN(hi-lo+1) }

	users := between(8, 180)
	accounts := users * between(20, 60)
	opps := accounts * between(2, 5) / 2
	leads := accounts * between(2, 6)
	cases := users * between(10, 40)

	if instanceURL == "" {
		instanceURL = "https://demo.my.example.com"
	}
	return &Mock{
		Info:          OrgInfo{Name: orgName, Type: "Enterprise Edition", InstanceURL: instanceURL},
		ActiveUsers:   users,
		InactiveUsers: between(0, users/5+1),
		Records: map[string]int{
			ObjectAccount:     accounts,
			ObjectOpportunity: opps,
			ObjectLead:        leads,
			ObjectCase:        cases,
		},
		UnusedFields:       between(5, 60),
		UnusedFieldObjects: []string{"Account", "Contact", "Opportunity", "Lead", "Case"}[:between(2, 5)],
		DuplicateRules:     between(0, 8),
		Orphaned:           map[string]int{ObjectOpportunity: opps * between(1, 10) / 100},
		Stale:              map[string]int{ObjectLead: leads * between(5, 35) / 100},
		MissingShare:       map[string]float64{ObjectOpportunity: float64(between(5, 45)) / 100},
		ManualShare:        map[string]float64{ObjectCase: float64(between(40, 95)) / 100},
		EmailAlerts:        between(0, 3),
		ReportHoursPerWeek: float64(between(1, 8)),
	}
}

// MockFactory is a Factory backed by NewMock.
func MockFactory(_ context.Context, orgName, instanceURL string) (Client, error) {
	return NewMock(orgName, instanceURL), nil
}

func (m *Mock) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.Err
}

func (m *Mock) OrgInfo(ctx context.Context) (OrgInfo, error) {
	if err := m.check(ctx); err != nil {
		return OrgInfo{}, err
	}
	return m.Info, nil
}

func (m *Mock) CountActiveUsers(ctx context.Context) (int, error) {
	return m.ActiveUsers, m.check(ctx)
}

func (m *Mock) CountInactiveUsers(ctx context.Context, _ time.Duration) (int, error) {
	return m.InactiveUsers, m.check(ctx)
}

func (m *Mock) CountRecords(ctx context.Context, object string) (int, error) {
	return m.Records[object], m.check(ctx)
}

func (m *Mock) CountUnusedCustomFields(ctx context.Context, _ time.Duration) (int, []string, error) {
	if err := m.check(ctx); err != nil {
		return 0, nil, err
	}
	return m.UnusedFields, slices.Clone(m.UnusedFieldObjects), nil
}

func (m *Mock) CountDuplicateValidationRules(ctx context.Context) (int, error) {
	return m.DuplicateRules, m.check(ctx)
}

func (m *Mock) CountOrphanedRecords(ctx context.Context, object string) (int, error) {
	return m.Orphaned[object], m.check(ctx)
}

func (m *Mock) CountStaleRecords(ctx context.Context, object string, _ time.Duration) (int, error) {
	return m.Stale[object], m.check(ctx)
}

func (m *Mock) MissingFieldShare(ctx context.Context, object string, _ []string) (float64, error) {
	return m.MissingShare[object], m.check(ctx)
}

func (m *Mock) ManualAssignmentShare(ctx context.Context, object string) (float64, error) {
	return m.ManualShare[object], m.check(ctx)
}

func (m *Mock) CountEmailAlerts(ctx context.Context) (int, error) {
	return m.EmailAlerts, m.check(ctx)
}

func (m *Mock) ManualReportHoursPerWeek(ctx context.Context) (float64, error) {
	return m.ReportHoursPerWeek, m.check(ctx)
}
