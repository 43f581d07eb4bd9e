package engine

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"auditpro/internal/domain"
)

// ROIResult is the dollar breakdown of one finding.
type ROIResult struct {
	Kind           domain.FindingKind
	CleanupHours   float64
	CleanupCost    float64
	MonthlyHours   float64
	MonthlySavings float64
	AnnualSavings  float64
	TotalAnnualROI float64
	Tasks          []domain.TaskItem
	Roles          map[string]domain.RoleShare
	Confidence     string
}

// defaultRoles lists who benefits from fixing each kind of finding.
var defaultRoles = map[domain.FindingKind][]string{
	domain.KindCustomFields:  {domain.RoleSales, domain.RoleCustomerService},
	domain.KindRecordCleanup: {domain.RoleSales},
	domain.KindAutomation:    {domain.RoleCustomerService},
	domain.KindEmailAlerts:   {domain.RoleSales, domain.RoleCustomerService},
	domain.KindReporting:     {domain.RoleSales},
	domain.KindGeneric:       {domain.RoleSales, domain.RoleCustomerService},
}

var oneTimeTaskNames = map[domain.FindingKind]string{
	domain.KindCustomFields:  "Field cleanup",
	domain.KindRecordCleanup: "Record cleanup",
	domain.KindAutomation:    "Automation setup",
	domain.KindEmailAlerts:   "Alert configuration",
	domain.KindReporting:     "Report scheduling setup",
}

var recurringTaskNames = map[domain.FindingKind]string{
	domain.KindCustomFields:  "Reduced field confusion",
	domain.KindRecordCleanup: "Less time working bad records",
	domain.KindAutomation:    "Manual work eliminated",
	domain.KindEmailAlerts:   "Faster follow-ups",
	domain.KindReporting:     "Report building eliminated",
	domain.KindGeneric:       "Time saved",
}

// ResolveKind returns the explicit kind when it is known, otherwise infers
// one from the populated counters.
func ResolveKind(f domain.RawFinding) domain.FindingKind {
	if _, ok := defaultRoles[f.Kind]; ok {
		return f.Kind
	}
	switch {
	case f.FieldCount > 0:
		return domain.KindCustomFields
	case f.RecordCount > 0:
		return domain.KindRecordCleanup
	case f.EstimatedMonthlyHours > 0:
		return domain.KindAutomation
	default:
		return domain.KindGeneric
	}
}

// CalculateROI computes one-time cost, recurring savings and net annual ROI
// for a finding. salaries switches on department mode when at least one
// positive salary is present. It never fails: counts that would lead to a
// division by zero or a meaningless estimate produce a zero result.
func CalculateROI(f domain.RawFinding, signals domain.OrgSignals, stage int, salaries *domain.DepartmentSalaries, a Assumptions) ROIResult {
	kind := ResolveKind(f)
	roles := f.Roles
	if len(roles) == 0 {
		roles = defaultRoles[kind]
	}
	avgRate := a.AverageRate(roles, salaries)
	mult := a.StageMultiplier(stage)

	res := ROIResult{
		Kind:       kind,
		Roles:      map[string]domain.RoleShare{},
		Confidence: domain.ConfidenceMedium,
	}
	if salaries.Supplied() {
		res.Confidence = domain.ConfidenceHigh
	}

	users := nonNegative(float64(signals.ActiveUsers))
	monthlyBase := nonNegative(f.EstimatedMonthlyHours)
	if monthlyBase == 0 {
		monthlyBase = nonNegative(f.TimeSavingsHours)
	}

	var oneTimeHours, monthlyHours float64
	var oneTimeDetail, monthlyDetail string
	switch kind {
	case domain.KindCustomFields:
		fields := nonNegative(float64(f.FieldCount))
		if fields == 0 || users == 0 {
			return res
		}
		oneTimeHours = fields * a.CleanupTimePerField
		monthlyHours = users * a.ConfusionTimePerField * fields / 60
		oneTimeDetail = fmt.Sprintf("%d fields at %s h each", f.FieldCount, trim(a.CleanupTimePerField))
		monthlyDetail = fmt.Sprintf("%d users lose %s min per field per month", signals.ActiveUsers, trim(a.ConfusionTimePerField))
	case domain.KindRecordCleanup:
		records := nonNegative(float64(f.RecordCount))
		oneTimeHours = records * a.CleanupMinutesPerRecord / 60
		monthlyHours = monthlyBase
		oneTimeDetail = fmt.Sprintf("%d records at %s min each", f.RecordCount, trim(a.CleanupMinutesPerRecord))
		monthlyDetail = fmt.Sprintf("%s h per month spent on unreliable records", trim(monthlyHours))
	case domain.KindAutomation:
		oneTimeHours = a.AutomationSetupHours
		monthlyHours = monthlyBase
		oneTimeDetail = "Build and test the automation"
		monthlyDetail = fmt.Sprintf("%s h per month of manual work", trim(monthlyHours))
	case domain.KindEmailAlerts:
		oneTimeHours = a.AutomationSetupHours
		monthlyHours = users * a.EmailAlertTime * a.WorkdaysPerMonth / 60
		oneTimeDetail = "Configure alerts for key process changes"
		monthlyDetail = fmt.Sprintf("%d users save %s min per workday", signals.ActiveUsers, trim(a.EmailAlertTime))
	case domain.KindReporting:
		oneTimeHours = a.AutomationSetupHours
		monthlyHours = monthlyBase * a.ReportingEfficiency / 100
		oneTimeDetail = "Schedule report deliveries and dashboard subscriptions"
		monthlyDetail = fmt.Sprintf("%s%% of %s h per month of report building", trim(a.ReportingEfficiency), trim(monthlyBase))
	default:
		monthlyHours = monthlyBase
		monthlyDetail = fmt.Sprintf("%s h per month", trim(monthlyHours))
	}
	if oneTimeHours == 0 && monthlyHours == 0 {
		return res
	}

	cleanupCost := oneTimeHours * a.AdminRate * mult
	monthlySavings := monthlyHours * avgRate * mult

	res.CleanupHours = round(oneTimeHours, 2)
	res.CleanupCost = cents(cleanupCost)
	res.MonthlyHours = round(monthlyHours, 2)
	res.MonthlySavings = cents(monthlySavings)
	annual := dec(res.MonthlySavings).Mul(decimal.NewFromInt(12))
	res.AnnualSavings = annual.Round(2).InexactFloat64()
	res.TotalAnnualROI = annual.Sub(dec(res.CleanupCost)).Round(2).InexactFloat64()

	if oneTimeHours > 0 {
		res.addTask(domain.TaskItem{
			Task:        oneTimeTaskNames[kind],
			Type:        domain.TaskOneTime,
			Hours:       res.CleanupHours,
			Cost:        ptr(res.CleanupCost),
			Role:        domain.RoleAdmin,
			Description: oneTimeDetail,
		})
	}
	if monthlyHours > 0 {
		share := monthlyHours / float64(len(roles))
		for _, role := range roles {
			res.addTask(domain.TaskItem{
				Task:            recurringTaskNames[kind],
				Type:            domain.TaskRecurring,
				Hours:           round(share, 2),
				SavingsPerMonth: ptr(cents(share * a.RoleRate(role, salaries) * mult)),
				Role:            role,
				Description:     monthlyDetail,
			})
		}
	}
	return res
}

func (r *ROIResult) addTask(t domain.TaskItem) {
	r.Tasks = append(r.Tasks, t)
	share := r.Roles[t.Role]
	switch t.Type {
	case domain.TaskOneTime:
		share.OneTimeHours = round(share.OneTimeHours+t.Hours, 2)
		share.OneTimeCost = cents(share.OneTimeCost + *t.Cost)
	case domain.TaskRecurring:
		share.MonthlyHours = round(share.MonthlyHours+t.Hours, 2)
		share.MonthlySavings = cents(share.MonthlySavings + *t.SavingsPerMonth)
	}
	r.Roles[t.Role] = share
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func trim(v float64) string {
	return dec(v).Round(2).String()
}
