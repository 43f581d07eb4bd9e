// Package collector gathers org signals from a CRM client and turns them into
// raw findings for the engine.
package collector

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"auditpro/internal/collector/crm"
	"auditpro/internal/domain"
)

const (
	fieldIdle = 90 * 24 * time.Hour
	loginIdle = 60 * 24 * time.Hour
	leadIdle  = 180 * 24 * time.Hour

	maxInFlight = 4
)

var requiredDealFields = []string{"NextStep", "Decision_Maker__c"}

// Snapshot is the raw result of one collection pass.
type Snapshot struct {
	Info                  crm.OrgInfo
	ActiveUsers           int
	InactiveUsers         int
	Accounts              int
	Opportunities         int
	Cases                 int
	UnusedFields          int
	UnusedFieldObjects    []string
	DuplicateRules        int
	OrphanedOpportunities int
	StaleLeads            int
	MissingDealFieldShare float64
	ManualCaseShare       float64
	EmailAlerts           int
	ReportHoursPerWeek    float64
}

// Signals projects the snapshot onto the engine's org signals.
func (s Snapshot) Signals() domain.OrgSignals {
	return domain.OrgSignals{
		ActiveUsers:      s.ActiveUsers,
		AccountCount:     s.Accounts,
		OpportunityCount: s.Opportunities,
		OrgType:          s.Info.Type,
		OrgName:          s.Info.Name,
	}.WithComplexity()
}

// Collect runs every count query concurrently. The first failure cancels the
// rest and is returned.
func Collect(ctx context.Context, c crm.Client) (Snapshot, error) {
	var s Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInFlight)

	g.Go(func() (err error) {
		s.Info, err = c.OrgInfo(ctx)
		return wrap("org info", err)
	})
	g.Go(func() (err error) {
		s.ActiveUsers, err = c.CountActiveUsers(ctx)
		return wrap("active users", err)
	})
	g.Go(func() (err error) {
		s.InactiveUsers, err = c.CountInactiveUsers(ctx, loginIdle)
		return wrap("inactive users", err)
	})
	g.Go(func() (err error) {
		s.Accounts, err = c.CountRecords(ctx, crm.ObjectAccount)
		return wrap("accounts", err)
	})
	g.Go(func() (err error) {
		s.Opportunities, err = c.CountRecords(ctx, crm.ObjectOpportunity)
		return wrap("opportunities", err)
	})
	g.Go(func() (err error) {
		s.Cases, err = c.CountRecords(ctx, crm.ObjectCase)
		return wrap("cases", err)
	})
	g.Go(func() (err error) {
		s.UnusedFields, s.UnusedFieldObjects, err = c.CountUnusedCustomFields(ctx, fieldIdle)
		return wrap("unused fields", err)
	})
	g.Go(func() (err error) {
		s.DuplicateRules, err = c.CountDuplicateValidationRules(ctx)
		return wrap("validation rules", err)
	})
	g.Go(func() (err error) {
		s.OrphanedOpportunities, err = c.CountOrphanedRecords(ctx, crm.ObjectOpportunity)
		return wrap("orphaned opportunities", err)
	})
	g.Go(func() (err error) {
		s.StaleLeads, err = c.CountStaleRecords(ctx, crm.ObjectLead, leadIdle)
		return wrap("stale leads", err)
	})
	g.Go(func() (err error) {
		s.MissingDealFieldShare, err = c.MissingFieldShare(ctx, crm.ObjectOpportunity, requiredDealFields)
		return wrap("missing deal fields", err)
	})
	g.Go(func() (err error) {
		s.ManualCaseShare, err = c.ManualAssignmentShare(ctx, crm.ObjectCase)
		return wrap("case assignment", err)
	})
	g.Go(func() (err error) {
		s.EmailAlerts, err = c.CountEmailAlerts(ctx)
		return wrap("email alerts", err)
	})
	g.Go(func() (err error) {
		s.ReportHoursPerWeek, err = c.ManualReportHoursPerWeek(ctx)
		return wrap("manual reports", err)
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Run collects a snapshot and runs the detectors over it.
func Run(ctx context.Context, c crm.Client) (domain.OrgSignals, []domain.RawFinding, error) {
	s, err := Collect(ctx, c)
	if err != nil {
		return domain.OrgSignals{}, nil, err
	}
	return s.Signals(), Detect(s), nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("collect %s: %w", what, err)
	}
	return nil
}
