package engine

import (
	"maps"
	"math"

	"auditpro/internal/domain"
)

// hoursPerYear converts an annual salary to an hourly rate.
const hoursPerYear = 2080

// Assumptions are the constants behind every dollar figure. A value is
// immutable once built; With returns a modified copy.
type Assumptions struct {
	AdminRate               float64
	CleanupTimePerField     float64 // hours
	ConfusionTimePerField   float64 // minutes per user per field per month
	ReportingEfficiency     float64 // percent
	EmailAlertTime          float64 // minutes per user per workday
	WorkdaysPerMonth        float64
	CleanupMinutesPerRecord float64
	AutomationSetupHours    float64
	HourlyRates             map[string]float64
	StageMultipliers        map[int]float64
}

var defaultDepartmentSalaries = map[string]float64{
	domain.RoleCustomerService: 45_000,
	domain.RoleSales:           65_000,
	domain.RoleMarketing:       60_000,
	domain.RoleEngineering:     95_000,
	domain.RoleExecutives:      150_000,
}

// DefaultAssumptions returns the stock assumption set.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		AdminRate:               35,
		CleanupTimePerField:     0.25,
		ConfusionTimePerField:   2,
		ReportingEfficiency:     50,
		EmailAlertTime:          3,
		WorkdaysPerMonth:        22,
		CleanupMinutesPerRecord: 8,
		AutomationSetupHours:    4,
		HourlyRates: map[string]float64{
			domain.RoleAdmin:           35,
			domain.RoleSales:           55,
			domain.RoleCustomerService: 25,
			domain.RoleMarketing:       45,
			domain.RoleEngineering:     75,
			domain.RoleExecutives:      95,
		},
		StageMultipliers: map[int]float64{
			0: 0.7, 1: 0.8, 2: 0.9, 3: 1.0, 4: 1.1,
			5: 1.2, 6: 1.3, 7: 1.4, 8: 1.5, 9: 1.6,
		},
	}
}

// With applies a partial override. Nil, negative and non-finite values are
// ignored so the result is always usable.
func (a Assumptions) With(o *domain.AssumptionOverrides) Assumptions {
	out := a
	out.HourlyRates = maps.Clone(a.HourlyRates)
	out.StageMultipliers = maps.Clone(a.StageMultipliers)
	if out.HourlyRates == nil {
		out.HourlyRates = map[string]float64{}
	}
	if out.StageMultipliers == nil {
		out.StageMultipliers = map[int]float64{}
	}
	if o == nil {
		return out
	}

	override(&out.AdminRate, o.AdminRate)
	override(&out.CleanupTimePerField, o.CleanupTimePerField)
	override(&out.ConfusionTimePerField, o.ConfusionTimePerField)
	override(&out.ReportingEfficiency, o.ReportingEfficiency)
	override(&out.EmailAlertTime, o.EmailAlertTime)
	override(&out.WorkdaysPerMonth, o.WorkdaysPerMonth)
	override(&out.CleanupMinutesPerRecord, o.CleanupMinutesPerRecord)
	override(&out.AutomationSetupHours, o.AutomationSetupHours)
	for role, rate := range o.HourlyRates {
		if usable(rate) {
			out.HourlyRates[role] = rate
		}
	}
	for stage, m := range o.StageMultipliers {
		if usable(m) {
			out.StageMultipliers[stage] = m
		}
	}
	return out
}

// StageMultiplier returns the labor-value multiplier for a stage, 1.0 when
// the stage is unknown.
func (a Assumptions) StageMultiplier(stage int) float64 {
	if m, ok := a.StageMultipliers[stage]; ok {
		return m
	}
	return 1.0
}

// RoleRate is the hourly rate of a role. Admin work always uses AdminRate.
// With salaries supplied, other roles use salary/2080, substituting the
// department default for absent or non-positive salaries.
func (a Assumptions) RoleRate(role string, salaries *domain.DepartmentSalaries) float64 {
	if role == domain.RoleAdmin {
		return a.AdminRate
	}
	if salaries.Supplied() {
		if s, ok := salaries.ByRole(role); ok && s > 0 && !math.IsInf(s, 0) {
			return s / hoursPerYear
		}
		if s, ok := defaultDepartmentSalaries[role]; ok {
			return s / hoursPerYear
		}
	}
	if r, ok := a.HourlyRates[role]; ok {
		return r
	}
	return a.AdminRate
}

// AverageRate is the mean RoleRate over roles; with no roles it is the
// sales/customer-service mean.
func (a Assumptions) AverageRate(roles []string, salaries *domain.DepartmentSalaries) float64 {
	if len(roles) == 0 {
		roles = []string{domain.RoleSales, domain.RoleCustomerService}
	}
	var sum float64
	for _, r := range roles {
		sum += a.RoleRate(r, salaries)
	}
	return sum / float64(len(roles))
}

func override(dst *float64, v *float64) {
	if v != nil && usable(*v) {
		*dst = *v
	}
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
