package audits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"auditpro/internal/collector"
	"auditpro/internal/collector/crm"
	"auditpro/internal/domain"
	"auditpro/internal/engine"
	"auditpro/internal/metrics"
	"auditpro/internal/ports"
	"auditpro/internal/services/business"
)

// listLimit caps GET /api/audit/sessions.
const listLimit = 50

// Service enqueues audits, processes them and serves their results.
type Service struct {
	sessions ports.SessionRepository
	findings ports.FindingRepository
	profiles ports.BusinessRepository
	jobs     ports.JobRepository
	engine   *engine.Engine
	crm      crm.Factory
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

var _ ports.Audits = (*Service)(nil)

func New(store ports.Store, eng *engine.Engine, factory crm.Factory, log zerolog.Logger) *Service {
	return &Service{
		sessions: store,
		findings: store,
		profiles: store,
		jobs:     store,
		engine:   eng,
		crm:      factory,
		log:      log.With().Str("component", "audits").Logger(),
		now:      time.Now,
	}
}

// WithMetrics makes Process count findings per domain.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Enqueue validates the request, resolves referenced business context and
// stores a queued session with its job.
func (s *Service) Enqueue(ctx context.Context, req ports.AuditRequest) (domain.AuditSession, error) {
	org := strings.TrimSpace(req.OrgName)
	if org == "" {
		return domain.AuditSession{}, fmt.Errorf("org_name is required: %w", ports.ErrInvalidInput)
	}

	in := domain.AuditInput{
		DepartmentSalaries: req.DepartmentSalaries,
		Assumptions:        req.Assumptions,
		QuickEstimate:      req.QuickEstimate,
	}
	if req.Business != nil {
		in.Business = *req.Business
	}
	if req.BusinessSessionID != nil {
		p, err := s.profiles.GetProfile(ctx, *req.BusinessSessionID)
		if errors.Is(err, ports.ErrNotFound) {
			return domain.AuditSession{}, fmt.Errorf("unknown business_session_id %q: %w", *req.BusinessSessionID, ports.ErrInvalidInput)
		}
		if err != nil {
			return domain.AuditSession{}, err
		}
		if req.Business == nil {
			rev, hc := p.AnnualRevenue, p.EmployeeHeadcount
			in.Business = domain.BusinessInput{AnnualRevenue: &rev, EmployeeHeadcount: &hc}
		}
		if in.DepartmentSalaries == nil {
			in.DepartmentSalaries = p.DepartmentSalaries
		}
	}

	sess := domain.AuditSession{
		ID:                uuid.NewString(),
		BusinessSessionID: req.BusinessSessionID,
		OrgName:           org,
		InstanceURL:       strings.TrimSpace(req.InstanceURL),
		CreatedAt:         s.now().UTC(),
		Status:            domain.StatusQueued,
	}
	if sess.InstanceURL != "" {
		d, err := business.RegistrableDomain(sess.InstanceURL)
		if err != nil {
			return domain.AuditSession{}, err
		}
		sess.OrgDomain = &d
	}
	if err := s.sessions.CreateSession(ctx, sess, in); err != nil {
		return domain.AuditSession{}, fmt.Errorf("create session: %w", err)
	}
	s.log.Info().Str("session_id", sess.ID).Str("org", org).Msg("audit queued")
	return sess, nil
}

// Process runs one audit: collect from the CRM, evaluate, persist. Job
// state transitions belong to the caller.
func (s *Service) Process(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	in, err := s.sessions.SessionInput(ctx, sessionID)
	if err != nil {
		return err
	}

	client, err := s.crm(ctx, sess.OrgName, sess.InstanceURL)
	if err != nil {
		return fmt.Errorf("open crm client: %w", err)
	}
	if err := s.jobs.UpdateProgress(ctx, sessionID, 0.1); err != nil {
		return err
	}
	signals, raw, err := collector.Run(ctx, client)
	if err != nil {
		return err
	}
	if err := s.jobs.UpdateProgress(ctx, sessionID, 0.6); err != nil {
		return err
	}

	in.Signals = &signals
	in.Findings = raw
	res := s.engine.Evaluate(in)
	if err := s.sessions.SaveResults(ctx, sessionID, resultsOf(in, res)); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	s.metrics.CountFindings(res.Findings)
	s.log.Debug().
		Str("session_id", sessionID).
		Int("stage", res.Stage.Stage).
		Int("findings", len(res.Findings)).
		Float64("annual_roi", res.Summary.TotalAnnualROI).
		Msg("audit evaluated")
	return s.jobs.UpdateProgress(ctx, sessionID, 0.9)
}

// Get returns a session with its findings in priority order and a summary
// recomputed from them.
func (s *Service) Get(ctx context.Context, id string) (ports.AuditDetail, error) {
	sess, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return ports.AuditDetail{}, err
	}
	findings, err := s.findings.ListFindings(ctx, id)
	if err != nil {
		return ports.AuditDetail{}, err
	}
	engine.SortByPriority(findings)

	d := ports.AuditDetail{
		Session:  sess,
		Summary:  engine.Summarize(findings),
		Findings: findings,
	}
	if sess.Stage != nil {
		if st, ok := engine.StageByIndex(*sess.Stage); ok {
			d.Stage = &st
		}
	}
	return d, nil
}

func (s *Service) List(ctx context.Context) ([]domain.AuditSession, error) {
	return s.sessions.ListSessions(ctx, listLimit)
}

// UpdateAssumptions re-prices a completed audit under new assumptions. The
// result is a new completed session pointing at its parent; the parent is
// left as it was.
func (s *Service) UpdateAssumptions(ctx context.Context, id string, o domain.AssumptionOverrides) (ports.AuditDetail, error) {
	parent, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return ports.AuditDetail{}, err
	}
	if parent.Status != domain.StatusCompleted {
		return ports.AuditDetail{}, fmt.Errorf("session %s is %s, not completed: %w", id, parent.Status, ports.ErrInvalidInput)
	}
	in, err := s.sessions.SessionInput(ctx, id)
	if err != nil {
		return ports.AuditDetail{}, err
	}
	in.Assumptions = in.Assumptions.Merge(&o)
	res := s.engine.Evaluate(in)

	now := s.now().UTC()
	child := domain.AuditSession{
		ID:                uuid.NewString(),
		ParentSessionID:   &parent.ID,
		BusinessSessionID: parent.BusinessSessionID,
		OrgName:           parent.OrgName,
		OrgDomain:         parent.OrgDomain,
		InstanceURL:       parent.InstanceURL,
		CreatedAt:         now,
		StartedAt:         &now,
		FinishedAt:        &now,
		Status:            domain.StatusCompleted,
		Progress:          1,
	}
	if err := s.sessions.CreateCompletedSession(ctx, child, resultsOf(in, res)); err != nil {
		return ports.AuditDetail{}, fmt.Errorf("create session: %w", err)
	}
	s.log.Info().Str("session_id", child.ID).Str("parent_id", parent.ID).Msg("assumptions updated")
	return s.Get(ctx, child.ID)
}

// Evaluate runs the engine without persisting anything.
func (s *Service) Evaluate(_ context.Context, in domain.AuditInput) domain.Evaluation {
	return s.engine.Evaluate(in)
}

func resultsOf(in domain.AuditInput, res domain.Evaluation) ports.AuditResults {
	return ports.AuditResults{
		Input:    in,
		Findings: res.Findings,
		Stage:    res.Stage.Stage,
		Savings: domain.EstimatedSavings{
			MonthlyHours:  res.Summary.TotalTimeSavingsHours,
			AnnualDollars: res.Summary.TotalAnnualROI,
		},
	}
}
