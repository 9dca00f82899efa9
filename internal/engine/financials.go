package engine

import (
	"math"

	"cabquote/internal"
)

// QuoteTotals roll priced lines up into the figures printed on the quote.
// Cents precision here; line items are already whole dollars.
type QuoteTotals struct {
	Subtotal      float64 `json:"subtotal"`
	Discount      float64 `json:"discount"`
	Tax           float64 `json:"tax"`
	Shipping      float64 `json:"shipping"`
	FuelSurcharge float64 `json:"fuelSurcharge"`
	MiscCharge    float64 `json:"miscCharge"`
	GrandTotal    float64 `json:"grandTotal"`
}

// Totals applies the quote-level financials: discount off the subtotal, tax
// on the discounted amount, then the fixed charges.
func Totals(lines []internal.PricingLineItem, fin internal.ProjectFinancials) QuoteTotals {
	subtotal := 0.0
	for _, line := range lines {
		subtotal += line.TotalPrice
	}

	discount := roundCents(subtotal * fin.DiscountRate / 100)
	taxable := subtotal - discount
	tax := roundCents(taxable * fin.TaxRate / 100)

	return QuoteTotals{
		Subtotal:      roundCents(subtotal),
		Discount:      discount,
		Tax:           tax,
		Shipping:      fin.ShippingCost,
		FuelSurcharge: fin.FuelSurcharge,
		MiscCharge:    fin.MiscCharge,
		GrandTotal:    roundCents(taxable + tax + fin.ShippingCost + fin.FuelSurcharge + fin.MiscCharge),
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
