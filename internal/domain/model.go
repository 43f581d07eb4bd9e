package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Core domain records shared by the engine, the collector, the stores and the
// HTTP adapter. JSON tags match the wire/persistence shape so findings can be
// stored verbatim.

// Domain is one of the five fixed areas a finding is classified into.
type Domain string

const (
	DomainDataQuality Domain = "Data Quality"
	DomainAutomation  Domain = "Automation"
	DomainReporting   Domain = "Reporting"
	DomainSecurity    Domain = "Security"
	DomainAdoption    Domain = "Adoption"
)

// Domains lists every domain in classifier priority order.
var Domains = []Domain{DomainDataQuality, DomainAutomation, DomainReporting, DomainSecurity, DomainAdoption}

// Legacy finding categories.
const (
	CategoryTimeSavings = "Time Savings"
	CategoryRevenueLeak = "Revenue Leaks"
	CategoryAutomation  = "Automation Opportunities"
)

const (
	ImpactHigh   = "High"
	ImpactMedium = "Medium"
	ImpactLow    = "Low"
)

const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// FindingKind selects the cost/savings shape used by the ROI calculator.
type FindingKind string

const (
	KindCustomFields  FindingKind = "custom_fields"
	KindRecordCleanup FindingKind = "record_cleanup"
	KindAutomation    FindingKind = "automation"
	KindEmailAlerts   FindingKind = "email_alerts"
	KindReporting     FindingKind = "reporting"
	KindGeneric       FindingKind = "generic"
)

// Roles used for labor rates and attribution.
const (
	RoleAdmin           = "admin"
	RoleSales           = "sales"
	RoleCustomerService = "customer_service"
	RoleMarketing       = "marketing"
	RoleEngineering     = "engineering"
	RoleExecutives      = "executives"
)

// BusinessStage is one entry of the static 0-9 growth-stage catalog.
type BusinessStage struct {
	Stage                 int      `json:"stage"`
	Name                  string   `json:"name"`
	Role                  string   `json:"role"`
	BottomLine            string   `json:"bottom_line"`
	HeadcountMin          float64  `json:"headcount_min"`
	HeadcountMax          float64  `json:"headcount_max"`
	RevenueMin            float64  `json:"revenue_min"`
	RevenueMax            float64  `json:"-"`
	RevenueRange          string   `json:"revenue_range"`
	HeadcountRange        string   `json:"headcount_range"`
	ConstraintsAndActions []string `json:"constraints_and_actions"`
}

// RevenueUnbounded reports whether the stage has no revenue ceiling.
func (s BusinessStage) RevenueUnbounded() bool { return math.IsInf(s.RevenueMax, 1) }

// MarshalJSON emits revenue_max as null for the unbounded top stage, since
// JSON has no infinity.
func (s BusinessStage) MarshalJSON() ([]byte, error) {
	type plain BusinessStage
	out := struct {
		plain
		RevenueMax *float64 `json:"revenue_max"`
	}{plain: plain(s)}
	if !s.RevenueUnbounded() {
		v := s.RevenueMax
		out.RevenueMax = &v
	}
	return json.Marshal(out)
}

// OrgSignals are the numeric facts gathered from the audited org.
type OrgSignals struct {
	ActiveUsers          int     `json:"active_users"`
	AccountCount         int     `json:"account_count"`
	OpportunityCount     int     `json:"opportunity_count"`
	OrgType              string  `json:"org_type"`
	OrgName              string  `json:"org_name"`
	ComplexityMultiplier float64 `json:"complexity_multiplier"`
}

// WithComplexity returns a copy with ComplexityMultiplier derived from the
// active user count.
func (o OrgSignals) WithComplexity() OrgSignals {
	users := o.ActiveUsers
	if users < 0 {
		users = 0
	}
	o.ComplexityMultiplier = math.Min(2.0, 1.0+float64(users)/50.0)
	return o
}

// RawFinding is one detected issue as emitted by the collector, before
// classification and ROI enrichment.
type RawFinding struct {
	Kind                  FindingKind `json:"kind,omitempty"`
	Category              string      `json:"category"`
	Title                 string      `json:"title"`
	Description           string      `json:"description"`
	Recommendation        string      `json:"recommendation,omitempty"`
	Impact                string      `json:"impact"`
	AffectedObjects       []string    `json:"affected_objects,omitempty"`
	FieldCount            int         `json:"field_count,omitempty"`
	RecordCount           int         `json:"record_count,omitempty"`
	EstimatedMonthlyHours float64     `json:"estimated_monthly_hours,omitempty"`
	TimeSavingsHours      float64     `json:"time_savings_hours,omitempty"`
	Roles                 []string    `json:"roles,omitempty"`
}

// TaskType distinguishes one-time work from recurring savings.
type TaskType string

const (
	TaskOneTime   TaskType = "one_time"
	TaskRecurring TaskType = "recurring"
)

// TaskItem is one role-attributed line of a finding's ROI breakdown. Cost is
// set on one-time tasks, SavingsPerMonth on recurring ones.
type TaskItem struct {
	Task            string   `json:"task"`
	Type            TaskType `json:"type"`
	Hours           float64  `json:"hours"`
	Cost            *float64 `json:"cost,omitempty"`
	SavingsPerMonth *float64 `json:"savings_per_month,omitempty"`
	Role            string   `json:"role"`
	Description     string   `json:"description"`
}

// RoleShare aggregates a role's hours and dollars across a finding's tasks.
type RoleShare struct {
	OneTimeHours   float64 `json:"one_time_hours"`
	OneTimeCost    float64 `json:"one_time_cost"`
	MonthlyHours   float64 `json:"monthly_hours"`
	MonthlySavings float64 `json:"monthly_savings"`
}

// Finding is a fully enriched audit finding.
type Finding struct {
	ID                  string               `json:"id"`
	Kind                FindingKind          `json:"kind"`
	Category            string               `json:"category"`
	Title               string               `json:"title"`
	Description         string               `json:"description"`
	Recommendation      string               `json:"recommendation"`
	Impact              string               `json:"impact"`
	AffectedObjects     []string             `json:"affected_objects"`
	TimeSavingsHours    float64              `json:"time_savings_hours"`
	ROIEstimate         float64              `json:"roi_estimate"`
	CleanupCost         float64              `json:"cleanup_cost"`
	CleanupHours        float64              `json:"cleanup_hours"`
	MonthlyUserSavings  float64              `json:"monthly_user_savings"`
	AnnualUserSavings   float64              `json:"annual_user_savings"`
	NetAnnualROI        float64              `json:"net_annual_roi"`
	TotalOneTimeCost    float64              `json:"total_one_time_cost"`
	TotalMonthlySavings float64              `json:"total_monthly_savings"`
	TotalAnnualROI      float64              `json:"total_annual_roi"`
	Domain              Domain               `json:"domain"`
	PriorityScore       int                  `json:"priority_score"`
	TaskBreakdown       []TaskItem           `json:"task_breakdown"`
	RoleAttribution     map[string]RoleShare `json:"role_attribution"`
	Confidence          string               `json:"confidence"`
}

// HasTaskROI reports whether the task-based ROI fields were populated.
func (f Finding) HasTaskROI() bool { return len(f.TaskBreakdown) > 0 }

// CategoryTotals is one entry of AuditSummary.CategoryBreakdown.
type CategoryTotals struct {
	Count   int     `json:"count"`
	Savings float64 `json:"savings"`
	ROI     float64 `json:"roi"`
}

// AuditSummary is a pure roll-up of a finding list.
type AuditSummary struct {
	TotalFindings         int                       `json:"total_findings"`
	TotalTimeSavingsHours float64                   `json:"total_time_savings_hours"`
	TotalAnnualROI        float64                   `json:"total_annual_roi"`
	CategoryBreakdown     map[string]CategoryTotals `json:"category_breakdown"`
	HighImpactCount       int                       `json:"high_impact_count"`
	MediumImpactCount     int                       `json:"medium_impact_count"`
	LowImpactCount        int                       `json:"low_impact_count"`
}

// Audit session states.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// EstimatedSavings is the headline figure stored on a session.
type EstimatedSavings struct {
	MonthlyHours  float64 `json:"monthly_hours"`
	AnnualDollars float64 `json:"annual_dollars"`
}

// AuditSession tracks one audit run of one org.
type AuditSession struct {
	ID                string           `json:"id"`
	ParentSessionID   *string          `json:"parent_session_id,omitempty"`
	BusinessSessionID *string          `json:"business_session_id,omitempty"`
	OrgName           string           `json:"org_name"`
	OrgDomain         *string          `json:"org_domain,omitempty"`
	InstanceURL       string           `json:"instance_url,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	StartedAt         *time.Time       `json:"started_at,omitempty"`
	FinishedAt        *time.Time       `json:"finished_at,omitempty"`
	Status            string           `json:"status"`
	Progress          float64          `json:"progress"`
	FindingsCount     int              `json:"findings_count"`
	EstimatedSavings  EstimatedSavings `json:"estimated_savings"`
	Stage             *int             `json:"stage,omitempty"`
	FailureReason     *string          `json:"failure_reason,omitempty"`
}

// AuditInput is everything needed to (re)compute an audit; stored alongside
// the session so assumption updates can replay it.
type AuditInput struct {
	Business           BusinessInput        `json:"business_inputs"`
	DepartmentSalaries *DepartmentSalaries  `json:"department_salaries,omitempty"`
	Assumptions        *AssumptionOverrides `json:"custom_assumptions,omitempty"`
	QuickEstimate      bool                 `json:"use_quick_estimate,omitempty"`
	Signals            *OrgSignals          `json:"org_signals,omitempty"`
	Findings           []RawFinding         `json:"findings,omitempty"`
}

// Evaluation is the output of one engine run.
type Evaluation struct {
	Stage    BusinessStage `json:"business_stage"`
	Figures  Figures       `json:"business_figures"`
	Signals  OrgSignals    `json:"org_signals"`
	Findings []Finding     `json:"findings"`
	Summary  AuditSummary  `json:"summary"`
}

// BusinessProfile is a stored business-context session.
type BusinessProfile struct {
	ID                 string              `json:"business_session_id"`
	RevenueRange       *string             `json:"revenue_range,omitempty"`
	EmployeeRange      *string             `json:"employee_range,omitempty"`
	AnnualRevenue      float64             `json:"annual_revenue"`
	EmployeeHeadcount  float64             `json:"employee_headcount"`
	CompanyDomain      *string             `json:"company_domain,omitempty"`
	DepartmentSalaries *DepartmentSalaries `json:"department_salaries,omitempty"`
	Stage              int                 `json:"stage"`
	StageName          string              `json:"stage_name"`
	CreatedAt          time.Time           `json:"created_at"`
}
