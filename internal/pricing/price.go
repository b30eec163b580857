package pricing

import "github.com/shopspring/decimal"

// VATMultiplier turns an HT amount into TTC (fixed 20% VAT).
var VATMultiplier = decimal.RequireFromString("1.2")

// Computation holds the rent figures for one line.
type Computation struct {
	SellingPriceHT decimal.Decimal `json:"selling_price_ht"`
	MonthlyHT      decimal.Decimal `json:"monthly_ht"`
	MonthlyTTC     decimal.Decimal `json:"monthly_ttc"`
}

// SellingPrice applies the margin percentage to a purchase price.
func SellingPrice(purchasePriceHT, marginPercent decimal.Decimal) decimal.Decimal {
	return purchasePriceHT.Mul(decimal.NewFromInt(1).Add(marginPercent.Div(hundred)))
}

// TTC applies VAT. No rounding.
func TTC(ht decimal.Decimal) decimal.Decimal {
	return ht.Mul(VATMultiplier)
}

// ComputePrice derives selling price and monthly rent. Intermediate values
// are never rounded; round with Round2 only when displaying.
func ComputePrice(purchasePriceHT, marginPercent, coefficient decimal.Decimal, quantity int) Computation {
	selling := SellingPrice(purchasePriceHT, marginPercent)
	monthlyHT := selling.Mul(coefficient).Mul(decimal.NewFromInt(int64(quantity)))
	return Computation{
		SellingPriceHT: selling,
		MonthlyHT:      monthlyHT,
		MonthlyTTC:     TTC(monthlyHT),
	}
}

// Round2 rounds a display amount to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
