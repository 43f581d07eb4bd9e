package engine

import (
	"math"
	"slices"

	"auditpro/internal/domain"
)

// fallbackStage is returned when neither dimension places the business
// anywhere in the catalog.
const fallbackStage = 2

// stageCatalog is the immutable 0-9 growth-stage table. Ranges are inclusive
// and may overlap between neighbours; ResolveStage scores both dimensions to
// pick one.
var stageCatalog = []domain.BusinessStage{
	{
		Stage: 0, Name: "Improvise", Role: "Do everything",
		BottomLine: "Find something people will pay for.",
		RevenueMin: 0, RevenueMax: 0, HeadcountMin: 0, HeadcountMax: 1,
		RevenueRange: "0", HeadcountRange: "0–1",
		ConstraintsAndActions: []string{
			"No repeatable offer yet",
			"Talk to prospects before building anything in the CRM",
			"Keep the org minimal: one pipeline, default objects",
		},
	},
	{
		Stage: 1, Name: "Monetize", Role: "Sell",
		BottomLine: "Turn interest into the first paying customers.",
		RevenueMin: 0, RevenueMax: 100_000, HeadcountMin: 1, HeadcountMax: 1,
		RevenueRange: "0–100K", HeadcountRange: "1",
		ConstraintsAndActions: []string{
			"Founder is the only seller",
			"Track every deal, even small ones",
			"Avoid custom fields nobody fills in",
		},
	},
	{
		Stage: 2, Name: "Advertise", Role: "Market",
		BottomLine: "Get more leads than you can handle.",
		RevenueMin: 100_000, RevenueMax: 1_000_000, HeadcountMin: 1, HeadcountMax: 9,
		RevenueRange: "100K–1M", HeadcountRange: "1–9",
		ConstraintsAndActions: []string{
			"Lead flow is the bottleneck",
			"Capture lead source on every record",
			"Automate first-touch follow-up",
		},
	},
	{
		Stage: 3, Name: "Stabilize", Role: "Hire operators",
		BottomLine: "Deliver consistently at the new volume.",
		RevenueMin: 1_000_000, RevenueMax: 3_000_000, HeadcountMin: 10, HeadcountMax: 19,
		RevenueRange: "1M–3M", HeadcountRange: "10–19",
		ConstraintsAndActions: []string{
			"Fulfilment breaks as volume grows",
			"Clean up duplicate and orphaned records",
			"Document the sales process in stages and validation rules",
		},
	},
	{
		Stage: 4, Name: "Prioritize", Role: "Manage managers",
		BottomLine: "Focus the team on the few things that move revenue.",
		RevenueMin: 3_000_000, RevenueMax: 10_000_000, HeadcountMin: 20, HeadcountMax: 49,
		RevenueRange: "3M–10M", HeadcountRange: "20–49",
		ConstraintsAndActions: []string{
			"Too many initiatives at once",
			"Route cases and leads automatically",
			"Retire processes nobody owns",
		},
	},
	{
		Stage: 5, Name: "Productize", Role: "Build systems",
		BottomLine: "Make delivery independent of any one person.",
		RevenueMin: 10_000_000, RevenueMax: 30_000_000, HeadcountMin: 50, HeadcountMax: 99,
		RevenueRange: "10M–30M", HeadcountRange: "50–99",
		ConstraintsAndActions: []string{
			"Knowledge lives in people, not systems",
			"Standardise dashboards per team",
			"Automate recurring reports",
		},
	},
	{
		Stage: 6, Name: "Optimize", Role: "Improve efficiency",
		BottomLine: "Increase output per employee.",
		RevenueMin: 30_000_000, RevenueMax: 50_000_000, HeadcountMin: 100, HeadcountMax: 249,
		RevenueRange: "30M–50M", HeadcountRange: "100–249",
		ConstraintsAndActions: []string{
			"Margins erode with headcount",
			"Measure cycle times in every pipeline",
			"Consolidate overlapping automation",
		},
	},
	{
		Stage: 7, Name: "Categorize", Role: "Build departments",
		BottomLine: "Give each function its own leadership and metrics.",
		RevenueMin: 50_000_000, RevenueMax: 75_000_000, HeadcountMin: 250, HeadcountMax: 500,
		RevenueRange: "50M–75M", HeadcountRange: "250–500",
		ConstraintsAndActions: []string{
			"Cross-team visibility drops",
			"Forecast by department",
			"Separate record access by function",
		},
	},
	{
		Stage: 8, Name: "Specialize", Role: "Deepen expertise",
		BottomLine: "Win through depth in chosen segments.",
		RevenueMin: 75_000_000, RevenueMax: 100_000_000, HeadcountMin: 250, HeadcountMax: 1000,
		RevenueRange: "75M–100M", HeadcountRange: "250–1000",
		ConstraintsAndActions: []string{
			"Generalist processes stop scaling",
			"Segment-specific layouts and record types",
			"Audit permissions and profiles regularly",
		},
	},
	{
		Stage: 9, Name: "Capitalize", Role: "Allocate capital",
		BottomLine: "Deploy capital where it compounds.",
		RevenueMin: 100_000_000, RevenueMax: math.Inf(1), HeadcountMin: 250, HeadcountMax: 5000,
		RevenueRange: "≥100M", HeadcountRange: "≥250",
		ConstraintsAndActions: []string{
			"Governance and security risk dominate",
			"Enforce least-privilege access",
			"Consolidate reporting for the board",
		},
	},
}

// Stages returns a copy of the stage catalog in ascending order.
func Stages() []domain.BusinessStage {
	out := make([]domain.BusinessStage, len(stageCatalog))
	for i, s := range stageCatalog {
		out[i] = cloneStage(s)
	}
	return out
}

// StageByIndex returns the catalog entry for stage i.
func StageByIndex(i int) (domain.BusinessStage, bool) {
	if i < 0 || i >= len(stageCatalog) {
		return domain.BusinessStage{}, false
	}
	return cloneStage(stageCatalog[i]), true
}

// ResolveStageOptional treats missing revenue or headcount as zero.
func ResolveStageOptional(revenue, headcount *float64) domain.BusinessStage {
	var r, h float64
	if revenue != nil {
		r = *revenue
	}
	if headcount != nil {
		h = *headcount
	}
	return ResolveStage(r, h)
}

// ResolveStage maps revenue and headcount to a stage. Each stage scores 2 per
// dimension inside its range and 1 inside the 0.8x-1.2x tolerance band; the
// highest total wins, lowest stage on ties. With no score anywhere it falls
// back to a revenue-only match, then a headcount-only match, then stage 2.
func ResolveStage(revenue, headcount float64) domain.BusinessStage {
	revenue, headcount = nanToZero(revenue), nanToZero(headcount)
	if revenue == 0 && headcount == 0 {
		return cloneStage(stageCatalog[0])
	}

	best, bestScore := -1, 0
	for i, s := range stageCatalog {
		score := rangeScore(revenue, s.RevenueMin, s.RevenueMax) +
			rangeScore(headcount, s.HeadcountMin, s.HeadcountMax)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 {
		return cloneStage(stageCatalog[best])
	}

	for _, s := range stageCatalog {
		if within(revenue, s.RevenueMin, s.RevenueMax) {
			return cloneStage(s)
		}
	}
	for _, s := range stageCatalog {
		if within(headcount, s.HeadcountMin, s.HeadcountMax) {
			return cloneStage(s)
		}
	}
	return cloneStage(stageCatalog[fallbackStage])
}

func rangeScore(v, lo, hi float64) int {
	switch {
	case within(v, lo, hi):
		return 2
	case within(v, lo*0.8, hi*1.2):
		return 1
	default:
		return 0
	}
}

func within(v, lo, hi float64) bool { return v >= lo && v <= hi }

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func cloneStage(s domain.BusinessStage) domain.BusinessStage {
	s.ConstraintsAndActions = slices.Clone(s.ConstraintsAndActions)
	return s
}
