package engine

import (
	"strings"

	"github.com/shopspring/decimal"

	"auditpro/internal/domain"
)

type categorySums struct {
	count      int
	hours, roi decimal.Decimal
}

// Summarize rolls a finding list up into totals, a per-category breakdown and
// impact counts. Hours are rounded to one decimal and ROI to whole dollars.
func Summarize(findings []domain.Finding) domain.AuditSummary {
	s := domain.AuditSummary{
		TotalFindings:     len(findings),
		CategoryBreakdown: map[string]domain.CategoryTotals{},
	}

	hours, roi := decimal.Zero, decimal.Zero
	byCategory := map[string]*categorySums{}
	for _, f := range findings {
		h := dec(f.TimeSavingsHours)
		r := dec(findingROI(f))
		hours = hours.Add(h)
		roi = roi.Add(r)

		c, ok := byCategory[f.Category]
		if !ok {
			c = &categorySums{}
			byCategory[f.Category] = c
		}
		c.count++
		c.hours = c.hours.Add(h)
		c.roi = c.roi.Add(r)

		switch strings.ToLower(strings.TrimSpace(f.Impact)) {
		case "high":
			s.HighImpactCount++
		case "medium":
			s.MediumImpactCount++
		case "low":
			s.LowImpactCount++
		}
	}

	s.TotalTimeSavingsHours = hours.Round(1).InexactFloat64()
	s.TotalAnnualROI = roi.Round(0).InexactFloat64()
	for cat, c := range byCategory {
		s.CategoryBreakdown[cat] = domain.CategoryTotals{
			Count:   c.count,
			Savings: c.hours.Round(1).InexactFloat64(),
			ROI:     c.roi.Round(0).InexactFloat64(),
		}
	}
	return s
}

func findingROI(f domain.Finding) float64 {
	if f.HasTaskROI() {
		return f.TotalAnnualROI
	}
	return f.ROIEstimate
}
