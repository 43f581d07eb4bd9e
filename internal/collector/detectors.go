package collector

import (
	"fmt"
	"math"

	"auditpro/internal/domain"
)

const (
	licenseCostPerUser   = 150 // $/month
	assignMinutesPerCase = 2
	weeksPerMonth        = 4
)

type detector func(Snapshot) (domain.RawFinding, bool)

// detectors run in discovery order; findings keep this order until ranked.
var detectors = []detector{
	unusedCustomFields,
	duplicateValidationRules,
	inactiveLicenses,
	orphanedOpportunities,
	missingDealFields,
	staleLeads,
	manualCaseAssignment,
	missingEmailAlerts,
	manualReporting,
}

// Detect turns a snapshot into raw findings. Detectors whose condition is not
// met emit nothing.
func Detect(s Snapshot) []domain.RawFinding {
	out := make([]domain.RawFinding, 0, len(detectors))
	for _, d := range detectors {
		if f, ok := d(s); ok {
			out = append(out, f)
		}
	}
	return out
}

func unusedCustomFields(s Snapshot) (domain.RawFinding, bool) {
	if s.UnusedFields <= 0 {
		return domain.RawFinding{}, false
	}
	return domain.RawFinding{
		Kind:     domain.KindCustomFields,
		Category: domain.CategoryTimeSavings,
		Title:    "Unused Custom Fields Detected",
		Description: fmt.Sprintf("Found %d custom fields across %d objects that haven't been populated in the last 90 days. "+
			"These fields clutter page layouts and confuse users.", s.UnusedFields, len(s.UnusedFieldObjects)),
		Recommendation:  "Remove or consolidate unused fields to simplify the user experience. Review field usage before deletion.",
		Impact:          domain.ImpactMedium,
		AffectedObjects: s.UnusedFieldObjects,
		FieldCount:      s.UnusedFields,
	}, true
}

func duplicateValidationRules(s Snapshot) (domain.RawFinding, bool) {
	if s.DuplicateRules < 2 {
		return domain.RawFinding{}, false
	}
	target := max(1, s.DuplicateRules/3)
	return domain.RawFinding{
		Kind:     domain.KindAutomation,
		Category: domain.CategoryTimeSavings,
		Title:    "Duplicate Validation Rules",
		Description: fmt.Sprintf("Identified %d validation rules with overlapping logic that could be consolidated into %d.",
			s.DuplicateRules, target),
		Recommendation:        "Consolidate validation rules to reduce maintenance overhead and improve save performance.",
		Impact:                domain.ImpactLow,
		AffectedObjects:       []string{"Account", "Opportunity"},
		EstimatedMonthlyHours: float64(s.DuplicateRules) / 3,
		Roles:                 []string{domain.RoleAdmin},
	}, true
}

func inactiveLicenses(s Snapshot) (domain.RawFinding, bool) {
	if s.InactiveUsers <= 0 {
		return domain.RawFinding{}, false
	}
	return domain.RawFinding{
		Kind:     domain.KindGeneric,
		Category: domain.CategoryTimeSavings,
		Title:    "Inactive User Licenses",
		Description: fmt.Sprintf("%d users haven't logged in within the last 60 days but still consume licenses ($%d/month in idle license costs).",
			s.InactiveUsers, s.InactiveUsers*licenseCostPerUser),
		Recommendation:        "Deactivate idle accounts and reallocate licenses to active team members.",
		Impact:                domain.ImpactHigh,
		AffectedObjects:       []string{"User Management"},
		EstimatedMonthlyHours: 1,
		Roles:                 []string{domain.RoleAdmin},
	}, true
}

func orphanedOpportunities(s Snapshot) (domain.RawFinding, bool) {
	if s.OrphanedOpportunities <= 0 {
		return domain.RawFinding{}, false
	}
	return domain.RawFinding{
		Kind:     domain.KindRecordCleanup,
		Category: domain.CategoryRevenueLeak,
		Title:    "Orphaned Opportunity Records",
		Description: fmt.Sprintf("Found %d opportunities that lack an account association, making pipeline reporting inaccurate.",
			s.OrphanedOpportunities),
		Recommendation:        "Assign owners to clean up orphaned records and add validation rules that prevent new ones.",
		Impact:                domain.ImpactHigh,
		AffectedObjects:       []string{"Opportunity", "Account"},
		RecordCount:           s.OrphanedOpportunities,
		EstimatedMonthlyHours: 12,
	}, true
}

func missingDealFields(s Snapshot) (domain.RawFinding, bool) {
	if s.MissingDealFieldShare < 0.1 || s.Opportunities <= 0 {
		return domain.RawFinding{}, false
	}
	pct := int(math.Round(s.MissingDealFieldShare * 100))
	return domain.RawFinding{
		Kind:     domain.KindRecordCleanup,
		Category: domain.CategoryRevenueLeak,
		Title:    "Missing Required Fields in Deals",
		Description: fmt.Sprintf("%d%% of opportunities are missing critical fields like 'Next Steps' and 'Decision Maker', reducing forecast accuracy.",
			pct),
		Recommendation:        "Make critical fields required and train the sales team on data entry.",
		Impact:                domain.ImpactHigh,
		AffectedObjects:       []string{"Opportunity"},
		RecordCount:           int(float64(s.Opportunities) * s.MissingDealFieldShare),
		EstimatedMonthlyHours: 6,
	}, true
}

func staleLeads(s Snapshot) (domain.RawFinding, bool) {
	if s.StaleLeads <= 0 {
		return domain.RawFinding{}, false
	}
	return domain.RawFinding{
		Kind:                  domain.KindRecordCleanup,
		Category:              domain.CategoryRevenueLeak,
		Title:                 "Stale Lead Records",
		Description:           fmt.Sprintf("%d leads haven't been touched in 6+ months.", s.StaleLeads),
		Recommendation:        "Introduce lead scoring and nurture campaigns. Archive leads that are truly cold.",
		Impact:                domain.ImpactMedium,
		AffectedObjects:       []string{"Lead", "Campaign"},
		RecordCount:           s.StaleLeads,
		EstimatedMonthlyHours: 15,
		Roles:                 []string{domain.RoleSales, domain.RoleMarketing},
	}, true
}

func manualCaseAssignment(s Snapshot) (domain.RawFinding, bool) {
	if s.ManualCaseShare < 0.5 || s.Cases <= 0 {
		return domain.RawFinding{}, false
	}
	pct := int(math.Round(s.ManualCaseShare * 100))
	hours := float64(s.Cases) * s.ManualCaseShare * assignMinutesPerCase / 60
	return domain.RawFinding{
		Kind:                  domain.KindAutomation,
		Category:              domain.CategoryAutomation,
		Title:                 "Manual Case Assignment Process",
		Description:           fmt.Sprintf("Support team manually assigns %d%% of incoming cases, delaying first response.", pct),
		Recommendation:        "Implement case assignment rules based on product, region and expertise, with escalation workflows.",
		Impact:                domain.ImpactHigh,
		AffectedObjects:       []string{"Case", "Queue"},
		EstimatedMonthlyHours: math.Round(hours*10) / 10,
		Roles:                 []string{domain.RoleCustomerService},
	}, true
}

func missingEmailAlerts(s Snapshot) (domain.RawFinding, bool) {
	if s.EmailAlerts > 1 {
		return domain.RawFinding{}, false
	}
	return domain.RawFinding{
		Kind:            domain.KindEmailAlerts,
		Category:        domain.CategoryAutomation,
		Title:           "Email Alerts Not Configured",
		Description:     "Key business processes lack notifications, causing delays in follow-ups and approvals.",
		Recommendation:  "Set up email alerts for opportunity stage changes, case escalations and lead assignments.",
		Impact:          domain.ImpactMedium,
		AffectedObjects: []string{"Workflow", "Process Builder"},
	}, true
}

func manualReporting(s Snapshot) (domain.RawFinding, bool) {
	if s.ReportHoursPerWeek <= 0 {
		return domain.RawFinding{}, false
	}
	return domain.RawFinding{
		Kind:     domain.KindReporting,
		Category: domain.CategoryAutomation,
		Title:    "Manual Report Generation",
		Description: fmt.Sprintf("Sales managers spend %.0f hours weekly building reports that could be scheduled.",
			s.ReportHoursPerWeek),
		Recommendation:        "Set up scheduled report deliveries and dashboard subscriptions for key stakeholders.",
		Impact:                domain.ImpactMedium,
		AffectedObjects:       []string{"Report", "Dashboard"},
		EstimatedMonthlyHours: s.ReportHoursPerWeek * weeksPerMonth,
	}, true
}
