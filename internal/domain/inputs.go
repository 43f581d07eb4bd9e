package domain

import "maps"

// BusinessInput carries business context in either representation: explicit
// numbers, picklist labels, or a mix. Numbers win over labels per dimension.
type BusinessInput struct {
	AnnualRevenue     *float64 `json:"annual_revenue,omitempty"`
	EmployeeHeadcount *float64 `json:"employee_headcount,omitempty"`
	RevenueRange      *string  `json:"revenue_range,omitempty"`
	EmployeeRange     *string  `json:"employee_range,omitempty"`
}

// Figures is the canonical numeric form of a BusinessInput.
type Figures struct {
	Revenue   float64 `json:"annual_revenue"`
	Headcount float64 `json:"employee_headcount"`
}

// DepartmentSalaries holds annual salaries per department; nil, zero or
// negative entries fall back to defaults.
type DepartmentSalaries struct {
	CustomerService *float64 `json:"customer_service,omitempty"`
	Sales           *float64 `json:"sales,omitempty"`
	Marketing       *float64 `json:"marketing,omitempty"`
	Engineering     *float64 `json:"engineering,omitempty"`
	Executives      *float64 `json:"executives,omitempty"`
}

// ByRole returns the salary supplied for a role, if any.
func (d *DepartmentSalaries) ByRole(role string) (float64, bool) {
	if d == nil {
		return 0, false
	}
	var v *float64
	switch role {
	case RoleCustomerService:
		v = d.CustomerService
	case RoleSales:
		v = d.Sales
	case RoleMarketing:
		v = d.Marketing
	case RoleEngineering:
		v = d.Engineering
	case RoleExecutives:
		v = d.Executives
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Supplied reports whether at least one positive salary was provided.
func (d *DepartmentSalaries) Supplied() bool {
	if d == nil {
		return false
	}
	for _, v := range []*float64{d.CustomerService, d.Sales, d.Marketing, d.Engineering, d.Executives} {
		if v != nil && *v > 0 {
			return true
		}
	}
	return false
}

// AssumptionOverrides is a partial override of the ROI constants. Nil fields
// keep the default.
type AssumptionOverrides struct {
	AdminRate               *float64           `json:"admin_rate,omitempty"`
	CleanupTimePerField     *float64           `json:"cleanup_time_per_field,omitempty"`
	ConfusionTimePerField   *float64           `json:"confusion_time_per_field,omitempty"`
	ReportingEfficiency     *float64           `json:"reporting_efficiency,omitempty"`
	EmailAlertTime          *float64           `json:"email_alert_time,omitempty"`
	WorkdaysPerMonth        *float64           `json:"workdays_per_month,omitempty"`
	CleanupMinutesPerRecord *float64           `json:"cleanup_minutes_per_record,omitempty"`
	AutomationSetupHours    *float64           `json:"automation_setup_hours,omitempty"`
	HourlyRates             map[string]float64 `json:"hourly_rates,omitempty"`
	StageMultipliers        map[int]float64    `json:"stage_multipliers,omitempty"`
}

// Merge layers next over o field by field and returns a new value; neither
// argument is modified.
func (o *AssumptionOverrides) Merge(next *AssumptionOverrides) *AssumptionOverrides {
	var out AssumptionOverrides
	if o != nil {
		out = *o
	}
	if next == nil {
		out.HourlyRates = maps.Clone(out.HourlyRates)
		out.StageMultipliers = maps.Clone(out.StageMultipliers)
		return &out
	}
	for _, f := range []struct{ dst, src **float64 }{
		{&out.AdminRate, &next.AdminRate},
		{&out.CleanupTimePerField, &next.CleanupTimePerField},
		{&out.ConfusionTimePerField, &next.ConfusionTimePerField},
		{&out.ReportingEfficiency, &next.ReportingEfficiency},
		{&out.EmailAlertTime, &next.EmailAlertTime},
		{&out.WorkdaysPerMonth, &next.WorkdaysPerMonth},
		{&out.CleanupMinutesPerRecord, &next.CleanupMinutesPerRecord},
		{&out.AutomationSetupHours, &next.AutomationSetupHours},
	} {
		if *f.src != nil {
			*f.dst = *f.src
		}
	}
	out.HourlyRates = mergeMap(out.HourlyRates, next.HourlyRates)
	out.StageMultipliers = mergeMap(out.StageMultipliers, next.StageMultipliers)
	return &out
}

func mergeMap[K comparable](base, next map[K]float64) map[K]float64 {
	if base == nil && next == nil {
		return nil
	}
	out := maps.Clone(base)
	if out == nil {
		out = make(map[K]float64, len(next))
	}
	maps.Copy(out, next)
	return out
}
