package ports

import (
	"context"
	"errors"

	"auditpro/internal/domain"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks a request the caller must fix.
	ErrInvalidInput = errors.New("invalid input")
)

// AuditRequest starts an audit of one org.
type AuditRequest struct {
	OrgName            string                      `json:"org_name"`
	InstanceURL        string                      `json:"instance_url,omitempty"`
	BusinessSessionID  *string                     `json:"business_session_id,omitempty"`
	Business           *domain.BusinessInput       `json:"business_inputs,omitempty"`
	DepartmentSalaries *domain.DepartmentSalaries  `json:"department_salaries,omitempty"`
	Assumptions        *domain.AssumptionOverrides `json:"custom_assumptions,omitempty"`
	QuickEstimate      bool                        `json:"use_quick_estimate,omitempty"`
}

// AuditDetail is a session with its findings and a freshly computed summary.
type AuditDetail struct {
	Session  domain.AuditSession   `json:"session"`
	Stage    *domain.BusinessStage `json:"business_stage,omitempty"`
	Summary  domain.AuditSummary   `json:"summary"`
	Findings []domain.Finding      `json:"findings"`
}

// BusinessInfoRequest creates a business profile. Bucket and range labels are
// accepted under either name.
type BusinessInfoRequest struct {
	RevenueBucket      *string                    `json:"revenue_bucket,omitempty"`
	RevenueRange       *string                    `json:"revenue_range,omitempty"`
	HeadcountBucket    *string                    `json:"headcount_bucket,omitempty"`
	EmployeeRange      *string                    `json:"employee_range,omitempty"`
	AnnualRevenue      *float64                   `json:"annual_revenue,omitempty"`
	EmployeeHeadcount  *float64                   `json:"employee_headcount,omitempty"`
	CompanyWebsite     *string                    `json:"company_website,omitempty"`
	DepartmentSalaries *domain.DepartmentSalaries `json:"department_salaries,omitempty"`
}

// Input merges the label aliases into a BusinessInput.
func (r BusinessInfoRequest) Input() domain.BusinessInput {
	in := domain.BusinessInput{
		AnnualRevenue:     r.AnnualRevenue,
		EmployeeHeadcount: r.EmployeeHeadcount,
		RevenueRange:      r.RevenueRange,
		EmployeeRange:     r.EmployeeRange,
	}
	if in.RevenueRange == nil {
		in.RevenueRange = r.RevenueBucket
	}
	if in.EmployeeRange == nil {
		in.EmployeeRange = r.HeadcountBucket
	}
	return in
}

// PDFLink is the response of the PDF export stub.
type PDFLink struct {
	DownloadURL string `json:"download_url"`
	Message     string `json:"message"`
}

// Audits runs and reads audits.
type Audits interface {
	Enqueue(ctx context.Context, req AuditRequest) (domain.AuditSession, error)
	Get(ctx context.Context, id string) (AuditDetail, error)
	List(ctx context.Context) ([]domain.AuditSession, error)
	UpdateAssumptions(ctx context.Context, id string, o domain.AssumptionOverrides) (AuditDetail, error)
	Evaluate(ctx context.Context, in domain.AuditInput) domain.Evaluation
}

// Businesses manages business context and the stage catalog.
type Businesses interface {
	CreateProfile(ctx context.Context, req BusinessInfoRequest) (domain.BusinessProfile, error)
	Profile(ctx context.Context, id string) (domain.BusinessProfile, error)
	ResolveStage(in domain.BusinessInput) domain.BusinessStage
	Stages() []domain.BusinessStage
}

// Reports renders audit results for people.
type Reports interface {
	HTML(ctx context.Context, sessionID string) ([]byte, error)
	PDF(ctx context.Context, sessionID string) (PDFLink, error)
}
