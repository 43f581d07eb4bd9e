package engine

import (
	"cmp"
	"slices"
	"strings"

	"auditpro/internal/domain"
)

// stageDomainPriority[stage] ranks the domains (Data Quality, Automation,
// Reporting, Security, Adoption) by how much they matter at that stage.
var stageDomainPriority = [10][5]int{
	{1, 1, 1, 1, 3},
	{2, 1, 1, 1, 3},
	{2, 2, 1, 1, 3},
	{3, 2, 2, 1, 2},
	{3, 3, 2, 1, 2},
	{2, 3, 3, 2, 1},
	{2, 3, 3, 2, 1},
	{3, 2, 3, 2, 1},
	{3, 2, 2, 3, 1},
	{2, 2, 2, 3, 1},
}

// StageBonus returns the stage/domain alignment bonus, 1 when either is
// unknown.
func StageBonus(stage int, d domain.Domain) int {
	if stage < 0 || stage >= len(stageDomainPriority) {
		return 1
	}
	i := slices.Index(domain.Domains, d)
	if i < 0 {
		return 1
	}
	return stageDomainPriority[stage][i]
}

func impactWeight(impact string) int {
	switch strings.ToLower(strings.TrimSpace(impact)) {
	case "high":
		return 3
	case "medium":
		return 2
	default:
		return 1
	}
}

func roiBoost(roi float64) int {
	switch {
	case roi > 10_000:
		return 2
	case roi > 5_000:
		return 1
	default:
		return 0
	}
}

// Score is 1 + stage bonus + impact weight + ROI boost.
func Score(f domain.Finding, stage int) int {
	return 1 + StageBonus(stage, f.Domain) + impactWeight(f.Impact) + roiBoost(f.ROIEstimate)
}

// SortByPriority orders findings by descending PriorityScore in place,
// keeping discovery order among equal scores.
func SortByPriority(findings []domain.Finding) {
	slices.SortStableFunc(findings, func(a, b domain.Finding) int {
		return cmp.Compare(b.PriorityScore, a.PriorityScore)
	})
}
