package pricing

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// DefaultCoefficient is returned when no coefficient row exists at all.
	DefaultCoefficient = decimal.RequireFromString("0.035")

	hundred = decimal.NewFromInt(100)
)

// CoefficientRow is one sale-amount bracket of a leaser's rate table.
// Coefficient is stored in hundredths: 3.2 means a multiplier of 0.032.
type CoefficientRow struct {
	LeaserID       *uuid.UUID
	DurationMonths *int
	MinAmount      decimal.Decimal
	MaxAmount      decimal.NullDecimal // invalid means no upper bound
	Coefficient    decimal.Decimal
}

// Contains reports whether priceHT falls inside the bracket, bounds included.
func (r CoefficientRow) Contains(priceHT decimal.Decimal) bool {
	if r.MinAmount.GreaterThan(priceHT) {
		return false
	}
	return !r.MaxAmount.Valid || r.MaxAmount.Decimal.GreaterThanOrEqual(priceHT)
}

// Multiplier converts the stored hundredths into the monthly rent multiplier.
func (r CoefficientRow) Multiplier() decimal.Decimal {
	return r.Coefficient.Div(hundred)
}

func (r CoefficientRow) belongsTo(leaserID uuid.UUID) bool {
	return r.LeaserID != nil && *r.LeaserID == leaserID
}

// Match tells how a coefficient was selected.
type Match string

const (
	MatchBracket  Match = "bracket"
	MatchCheapest Match = "cheapest_fallback"
	MatchDefault  Match = "default"
)

// Table is an immutable coefficient table sorted ascending by coefficient.
type Table struct {
	rows []CoefficientRow
}

func NewTable(rows []CoefficientRow) Table {
	sorted := make([]CoefficientRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Coefficient.LessThan(sorted[j].Coefficient)
	})
	return Table{rows: sorted}
}

func (t Table) Len() int {
	return len(t.rows)
}

// Rows returns a copy of the rows in table order.
func (t Table) Rows() []CoefficientRow {
	out := make([]CoefficientRow, len(t.rows))
	copy(out, t.rows)
	return out
}

// ForDuration keeps the rows priced for the given duration plus the rows
// that apply to any duration.
func (t Table) ForDuration(months int) Table {
	out := make([]CoefficientRow, 0, len(t.rows))
	for _, r := range t.rows {
		if r.DurationMonths == nil || *r.DurationMonths == months {
			out = append(out, r)
		}
	}
	return Table{rows: out}
}

// Lookup selects the cheapest coefficient whose bracket contains priceHT.
// A leaser with no rows of its own falls back to the whole table, and a
// price outside every bracket gets the cheapest candidate row.
func (t Table) Lookup(priceHT decimal.Decimal, leaserID *uuid.UUID) (decimal.Decimal, Match) {
	if len(t.rows) == 0 {
		return DefaultCoefficient, MatchDefault
	}

	source := t.rows
	if leaserID != nil {
		pool := make([]CoefficientRow, 0, len(t.rows))
		for _, r := range t.rows {
			if r.belongsTo(*leaserID) {
				pool = append(pool, r)
			}
		}
		if len(pool) > 0 {
			source = pool
		}
	}

	var best *CoefficientRow
	for i := range source {
		r := &source[i]
		if !r.Contains(priceHT) {
			continue
		}
		if best == nil || r.Coefficient.LessThan(best.Coefficient) {
			best = r
		}
	}
	if best != nil {
		return best.Multiplier(), MatchBracket
	}
	return source[0].Multiplier(), MatchCheapest
}

// FindCoefficient is Lookup without the match kind.
func (t Table) FindCoefficient(priceHT decimal.Decimal, leaserID *uuid.UUID) decimal.Decimal {
	c, _ := t.Lookup(priceHT, leaserID)
	return c
}
