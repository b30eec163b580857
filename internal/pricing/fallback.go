package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// fallbackCoefficients is the degraded-mode estimate per leasing duration.
// It is only used when the coefficient table cannot be consulted, and every
// value derived from it must be labelled SourceFallback.
var fallbackCoefficients = map[int]decimal.Decimal{
	24: decimal.RequireFromString("0.05"),
	36: decimal.RequireFromString("0.038"),
	48: decimal.RequireFromString("0.032"),
	60: decimal.RequireFromString("0.028"),
	72: decimal.RequireFromString("0.026"),
	84: decimal.RequireFromString("0.024"),
}

// Source labels where a displayed price came from.
type Source string

const (
	SourceServer   Source = "server"
	SourceFallback Source = "fallback"
)

// FallbackCoefficient returns the degraded-mode multiplier for a duration,
// DefaultCoefficient for durations outside the table.
func FallbackCoefficient(months int) decimal.Decimal {
	if c, ok := fallbackCoefficients[months]; ok {
		return c
	}
	return DefaultCoefficient
}

// FallbackDurations lists the durations known to the fallback table, ascending.
func FallbackDurations() []int {
	out := make([]int, 0, len(fallbackCoefficients))
	for m := range fallbackCoefficients {
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}

// FallbackRows expresses the fallback table as generic coefficient rows
// (any leaser, one open bracket per duration). Used to seed an empty database.
func FallbackRows() []CoefficientRow {
	rows := make([]CoefficientRow, 0, len(fallbackCoefficients))
	for _, m := range FallbackDurations() {
		months := m
		rows = append(rows, CoefficientRow{
			DurationMonths: &months,
			MinAmount:      decimal.Zero,
			Coefficient:    fallbackCoefficients[m].Mul(hundred),
		})
	}
	return rows
}
