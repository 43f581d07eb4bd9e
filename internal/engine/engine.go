// Package engine turns org signals and business context into classified,
// priced and ranked findings. Everything here is pure: no I/O, no shared
// mutable state, no errors. Callers may use one Engine from many goroutines.
package engine

import (
	"slices"

	"github.com/google/uuid"

	"auditpro/internal/domain"
)

// Engine evaluates audits against a base assumption set.
type Engine struct {
	base  Assumptions
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator replaces the finding ID source.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// New builds an Engine; per-request overrides are layered over base.
func New(base Assumptions, opts ...Option) *Engine {
	e := &Engine{
		base:  base.With(nil),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Assumptions returns a copy of the base assumptions.
func (e *Engine) Assumptions() Assumptions { return e.base.With(nil) }

// Evaluate normalizes the business input, resolves the stage, prices and
// classifies every raw finding, ranks them and rolls up a summary.
func (e *Engine) Evaluate(in domain.AuditInput) domain.Evaluation {
	figures := Normalize(in.Business)
	stage := ResolveStage(figures.Revenue, figures.Headcount)
	a := e.base.With(in.Assumptions)

	salaries := in.DepartmentSalaries
	if in.QuickEstimate {
		salaries = nil
	}

	var signals domain.OrgSignals
	if in.Signals != nil {
		signals = *in.Signals
	}
	signals = signals.WithComplexity()

	findings := make([]domain.Finding, 0, len(in.Findings))
	for _, raw := range in.Findings {
		findings = append(findings, e.Enrich(raw, signals, stage.Stage, salaries, a))
	}
	SortByPriority(findings)

	return domain.Evaluation{
		Stage:    stage,
		Figures:  figures,
		Signals:  signals,
		Findings: findings,
		Summary:  Summarize(findings),
	}
}

// Enrich classifies, prices and scores a single raw finding.
func (e *Engine) Enrich(raw domain.RawFinding, signals domain.OrgSignals, stage int, salaries *domain.DepartmentSalaries, a Assumptions) domain.Finding {
	roi := CalculateROI(raw, signals, stage, salaries, a)

	affected := slices.Clone(raw.AffectedObjects)
	if affected == nil {
		affected = []string{}
	}
	tasks := roi.Tasks
	if tasks == nil {
		tasks = []domain.TaskItem{}
	}

	f := domain.Finding{
		ID:                  e.newID(),
		Kind:                roi.Kind,
		Category:            raw.Category,
		Title:               raw.Title,
		Description:         raw.Description,
		Recommendation:      raw.Recommendation,
		Impact:              raw.Impact,
		AffectedObjects:     affected,
		TimeSavingsHours:    roi.MonthlyHours,
		ROIEstimate:         roi.TotalAnnualROI,
		CleanupCost:         roi.CleanupCost,
		CleanupHours:        roi.CleanupHours,
		MonthlyUserSavings:  roi.MonthlySavings,
		AnnualUserSavings:   roi.AnnualSavings,
		NetAnnualROI:        roi.TotalAnnualROI,
		TotalOneTimeCost:    roi.CleanupCost,
		TotalMonthlySavings: roi.MonthlySavings,
		TotalAnnualROI:      roi.TotalAnnualROI,
		Domain:              ClassifyRaw(raw),
		TaskBreakdown:       tasks,
		RoleAttribution:     roi.Roles,
		Confidence:          roi.Confidence,
	}
	f.PriorityScore = Score(f, stage)
	return f
}
