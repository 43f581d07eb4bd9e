package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

func dec(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// round rounds half away from zero to places decimals. Non-finite input
// becomes zero.
func round(v float64, places int32) float64 {
	return dec(v).Round(places).InexactFloat64()
}

func cents(v float64) float64 { return round(v, 2) }

func ptr(v float64) *float64 { return &v }
