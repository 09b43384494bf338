package ledger

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)

	// DefaultTaxPercent is the VAT rate applied when a document does not set one.
	DefaultTaxPercent = decimal.NewFromInt(11)
)

// Totals are the derived document aggregates. They are never stored apart from
// the items they were computed from.
type Totals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	AfterDiscount   decimal.Decimal `json:"after_discount"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
}

// ComputeTotals is a pure function over items. Line totals are recomputed from
// quantity and price, percentages are clamped to [0, 100] and every amount is
// rounded to 2 places, so GrandTotal == Subtotal - DiscountAmount + TaxAmount.
func ComputeTotals(items []Item, discountPct, taxPct decimal.Decimal) Totals {
	discountPct = ClampPercent(discountPct)
	taxPct = ClampPercent(taxPct)

	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Quantity.Mul(it.Price))
	}
	subtotal = subtotal.Round(2)

	discount := subtotal.Mul(discountPct).Div(hundred).Round(2)
	after := subtotal.Sub(discount)
	tax := after.Mul(taxPct).Div(hundred).Round(2)

	return Totals{
		Subtotal:        subtotal,
		DiscountPercent: discountPct,
		DiscountAmount:  discount,
		AfterDiscount:   after,
		TaxPercent:      taxPct,
		TaxAmount:       tax,
		GrandTotal:      after.Add(tax),
	}
}

// ValidPercent reports whether p lies in [0, 100].
func ValidPercent(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}

func ClampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}
