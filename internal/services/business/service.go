package business

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"auditpro/internal/domain"
	"auditpro/internal/engine"
	"auditpro/internal/ports"
)

// Service stores business profiles and answers stage questions.
type Service struct {
	profiles ports.BusinessRepository
	now      func() time.Time
}

var _ ports.Businesses = (*Service)(nil)

func New(profiles ports.BusinessRepository) *Service {
	return &Service{profiles: profiles, now: time.Now}
}

// CreateProfile normalizes the business context, resolves its stage and
// stores it.
func (s *Service) CreateProfile(ctx context.Context, req ports.BusinessInfoRequest) (domain.BusinessProfile, error) {
	if err := validateFigures(req.AnnualRevenue, req.EmployeeHeadcount); err != nil {
		return domain.BusinessProfile{}, err
	}
	in := req.Input()
	figures := engine.Normalize(in)
	stage := engine.ResolveStage(figures.Revenue, figures.Headcount)

	p := domain.BusinessProfile{
		ID:                 uuid.NewString(),
		RevenueRange:       in.RevenueRange,
		EmployeeRange:      in.EmployeeRange,
		AnnualRevenue:      figures.Revenue,
		EmployeeHeadcount:  figures.Headcount,
		DepartmentSalaries: req.DepartmentSalaries,
		Stage:              stage.Stage,
		StageName:          stage.Name,
		CreatedAt:          s.now().UTC(),
	}
	if req.CompanyWebsite != nil && strings.TrimSpace(*req.CompanyWebsite) != "" {
		d, err := RegistrableDomain(*req.CompanyWebsite)
		if err != nil {
			return domain.BusinessProfile{}, err
		}
		p.CompanyDomain = &d
	}
	if err := s.profiles.CreateProfile(ctx, p); err != nil {
		return domain.BusinessProfile{}, fmt.Errorf("store business profile: %w", err)
	}
	return p, nil
}

func (s *Service) Profile(ctx context.Context, id string) (domain.BusinessProfile, error) {
	return s.profiles.GetProfile(ctx, id)
}

// ResolveStage normalizes in and maps it to a stage.
func (s *Service) ResolveStage(in domain.BusinessInput) domain.BusinessStage {
	f := engine.Normalize(in)
	return engine.ResolveStage(f.Revenue, f.Headcount)
}

func (s *Service) Stages() []domain.BusinessStage { return engine.Stages() }

// RegistrableDomain reduces a website or URL to its eTLD+1. Hosts without a
// known public suffix are returned as-is.
func RegistrableDomain(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("website %q: %w", raw, ports.ErrInvalidInput)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("website %q has no host: %w", raw, ports.ErrInvalidInput)
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host, nil
	}
	return registrable, nil
}

func validateFigures(revenue, headcount *float64) error {
	if revenue != nil && *revenue < 0 {
		return fmt.Errorf("annual_revenue must not be negative: %w", ports.ErrInvalidInput)
	}
	if headcount != nil && *headcount < 0 {
		return fmt.Errorf("employee_headcount must not be negative: %w", ports.ErrInvalidInput)
	}
	return nil
}
