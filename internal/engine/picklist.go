package engine

import (
	"strings"

	"auditpro/internal/domain"
)

const (
	defaultRevenue   = 1_000_000
	defaultHeadcount = 50
)

// revenueBuckets maps canonical picklist keys (see labelKey) to the
// representative revenue of the bucket.
var revenueBuckets = map[string]float64{
	"<100k":     50_000,
	"0-100k":    50_000,
	"100k-250k": 175_000,
	"250k-500k": 375_000,
	"500k-1m":   750_000,
	"1m-3m":     2_000_000,
	"3m-10m":    6_500_000,
	"10m-30m":   20_000_000,
	"30m+":      150_000_000,
	">30m":      150_000_000,
}

var headcountBuckets = map[string]float64{
	"justmenorevenue":   1,
	"justmesomerevenue": 1,
	"me&vendors":        2,
	"0-none":            1,
	"0-some":            1,
	"0-vendors":         2,
	"1":                 1,
	"2-4":               3,
	"5-9":               7,
	"10-19":             15,
	"20-49":             35,
	"50-99":             75,
	"100-249":           175,
	"250-500":           375,
	"500+":              750,
}

var (
	labelCleaner = strings.NewReplacer(
		"–", "-", "—", "-", "‒", "-", "−", "-",
		"$", "", ",", "", " ", "", "\t", "",
	)
	labelPrefixes = strings.NewReplacer("lessthan", "<", "under", "<")
)

// Normalize reduces a BusinessInput to numbers. Per dimension an explicit
// number is used when present; otherwise the label is looked up. A dimension
// with neither is zero.
func Normalize(in domain.BusinessInput) domain.Figures {
	return domain.Figures{
		Revenue:   pick(in.AnnualRevenue, in.RevenueRange, RevenueForLabel),
		Headcount: pick(in.EmployeeHeadcount, in.EmployeeRange, HeadcountForLabel),
	}
}

// NormalizeLabels converts a pair of picklist labels. A nil or blank label
// yields zero.
func NormalizeLabels(revenueLabel, headcountLabel *string) (revenue, headcount float64) {
	f := Normalize(domain.BusinessInput{RevenueRange: revenueLabel, EmployeeRange: headcountLabel})
	return f.Revenue, f.Headcount
}

// RevenueForLabel returns the representative revenue for a picklist label,
// or 1,000,000 when the label is not recognised.
func RevenueForLabel(label string) float64 {
	if v, ok := revenueBuckets[labelKey(label)]; ok {
		return v
	}
	return defaultRevenue
}

// HeadcountForLabel returns the representative headcount for a picklist
// label, or 50 when the label is not recognised.
func HeadcountForLabel(label string) float64 {
	if v, ok := headcountBuckets[labelKey(label)]; ok {
		return v
	}
	return defaultHeadcount
}

func pick(number *float64, label *string, lookup func(string) float64) float64 {
	if number != nil {
		return nanToZero(*number)
	}
	if label != nil && strings.TrimSpace(*label) != "" {
		return lookup(*label)
	}
	return 0
}

// labelKey canonicalises a label: lower case, no currency symbols, commas or
// whitespace, every dash variant as "-", and "under X" as "<X".
func labelKey(label string) string {
	k := strings.ToLower(strings.TrimSpace(label))
	k = labelCleaner.Replace(k)
	return labelPrefixes.Replace(k)
}
