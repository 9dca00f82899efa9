package engine

import (
	"testing"

	"cabquote/internal"
)

func TestTotals(t *testing.T) {
	lines := []internal.PricingLineItem{
		{TotalPrice: 600},
		{TotalPrice: 400},
	}
	fin := internal.ProjectFinancials{
		TaxRate:       8.25,
		DiscountRate:  10,
		ShippingCost:  150,
		FuelSurcharge: 25,
		MiscCharge:    10,
	}

	got := Totals(lines, fin)
	if got.Subtotal != 1000 {
		t.Fatalf("subtotal = %v", got.Subtotal)
	}
	if got.Discount != 100 {
		t.Fatalf("discount = %v", got.Discount)
	}
	// tax on the discounted amount: 900 * 8.25% = 74.25
	if got.Tax != 74.25 {
		t.Fatalf("tax = %v", got.Tax)
	}
	// 900 + 74.25 + 150 + 25 + 10
	if got.GrandTotal != 1159.25 {
		t.Fatalf("grand total = %v", got.GrandTotal)
	}
}

func TestTotalsEmpty(t *testing.T) {
	got := Totals(nil, internal.ProjectFinancials{})
	if got.Subtotal != 0 || got.GrandTotal != 0 {
		t.Fatalf("empty quote totals: %+v", got)
	}
}
