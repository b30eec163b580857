package pricing

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Candidate is a product or variant offered for cheapest-variant resolution.
type Candidate struct {
	ID              uuid.UUID
	Slug            string
	Image           string
	VariantData     map[string]string
	PurchasePriceHT decimal.NullDecimal
	MarginPercent   decimal.NullDecimal
	LeaserID        *uuid.UUID
}

// Priced reports whether the candidate carries both pricing inputs.
func (c Candidate) Priced() bool {
	return c.PurchasePriceHT.Valid && c.MarginPercent.Valid
}

// Representative is the entry shown for a product in the catalog.
type Representative struct {
	ID          uuid.UUID         `json:"id"`
	Slug        string            `json:"slug"`
	Image       string            `json:"image,omitempty"`
	VariantData map[string]string `json:"variant_data,omitempty"`
	Price       decimal.Decimal   `json:"price"`
	Coefficient decimal.Decimal   `json:"coefficient"`
}

// PriceCandidates computes the unit monthly HT of every priced candidate.
// Candidates without a leaser use fallbackLeaser. Unpriced candidates are
// dropped, never treated as free.
func PriceCandidates(candidates []Candidate, fallbackLeaser *uuid.UUID, table Table) []Representative {
	out := make([]Representative, 0, len(candidates))
	for _, c := range candidates {
		if !c.Priced() {
			continue
		}
		leaser := c.LeaserID
		if leaser == nil {
			leaser = fallbackLeaser
		}
		selling := SellingPrice(c.PurchasePriceHT.Decimal, c.MarginPercent.Decimal)
		coef := table.FindCoefficient(selling, leaser)
		out = append(out, Representative{
			ID:          c.ID,
			Slug:        c.Slug,
			Image:       c.Image,
			VariantData: c.VariantData,
			Price:       selling.Mul(coef),
			Coefficient: coef,
		})
	}
	return out
}

// ResolveCheapest prices the parent and its children and returns the
// cheapest entry. ok is false when nothing could be priced.
func ResolveCheapest(parent Candidate, children []Candidate, table Table) (Representative, bool) {
	all := make([]Candidate, 0, len(children)+1)
	all = append(all, parent)
	all = append(all, children...)

	priced := PriceCandidates(all, parent.LeaserID, table)
	if len(priced) == 0 {
		return Representative{}, false
	}
	sort.SliceStable(priced, func(i, j int) bool {
		return priced[i].Price.LessThan(priced[j].Price)
	})
	return priced[0], true
}
