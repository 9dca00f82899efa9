package engine

import (
	"strings"
	"testing"

	"cabquote/internal"
)

func testManufacturer(catalog internal.Catalog) internal.Manufacturer {
	return internal.Manufacturer{
		ID:                    "mfr-1",
		Name:                  "Test Cabinets",
		BasePricingMultiplier: 1.0,
		Tiers: []internal.PricingTier{
			{ID: "tier-std", Name: "Standard", Multiplier: 1.0},
		},
		Catalog: catalog,
	}
}

func stdTier() internal.PricingTier {
	return internal.PricingTier{ID: "tier-std", Name: "Standard", Multiplier: 1.0}
}

func TestComposeLineModifications(t *testing.T) {
	e := New()
	mfr := testManufacturer(internal.Catalog{"B15": {"Standard": 100}})
	item := internal.CabinetItem{
		OriginalCode: "B15",
		Type:         internal.TypeBase,
		Quantity:     1,
		Modifications: []internal.CabinetModification{
			{Description: "Cut down depth", Price: 25},
			{Description: "Bogus credit", Price: -10},
		},
	}

	line := e.composeLine(item, mfr, stdTier(), "Standard", nil)
	if line.OptionsPrice != 25 {
		t.Fatalf("negative modification must clamp to zero, got options %v", line.OptionsPrice)
	}
	if len(line.AppliedOptions) != 2 {
		t.Fatalf("both modifications recorded, got %d", len(line.AppliedOptions))
	}
	if line.AppliedOptions[0].SourceSection != "Document Extraction" {
		t.Fatalf("wrong source section: %q", line.AppliedOptions[0].SourceSection)
	}
	if line.FinalUnitPrice != 125 {
		t.Fatalf("unit = %v, want 125", line.FinalUnitPrice)
	}
}

func TestComposeLineFixedOptionApplicability(t *testing.T) {
	e := New()
	mfr := testManufacturer(internal.Catalog{
		"B15":   {"Standard": 100},
		"W3030": {"Standard": 100},
		"F3":    {"Standard": 100},
	})
	opts := []internal.ManufacturerOption{
		{ID: "o-drawer", Name: "Dovetail Drawers", Section: internal.SectionDrawer, PricingType: internal.PricingFixed, Price: 20},
		{ID: "o-hinge", Name: "Soft Close Hinges", Section: internal.SectionHinge, PricingType: internal.PricingFixed, Price: 5},
		{ID: "o-wall", Name: "Wall Crown Prep", Section: internal.SectionSeries, PricingType: internal.PricingFixed, Price: 15},
	}

	cases := []struct {
		code    string
		typ     internal.CabinetType
		options float64
	}{
		{"B15", internal.TypeBase, 25},   // drawer + hinge, no wall
		{"W3030", internal.TypeWall, 20}, // hinge + wall, no drawer
		{"F3", internal.TypeFiller, 0},   // hinges never on fillers
	}
	for _, tc := range cases {
		item := internal.CabinetItem{OriginalCode: tc.code, Type: tc.typ, Quantity: 1}
		line := e.composeLine(item, mfr, stdTier(), "Standard", opts)
		if line.OptionsPrice != tc.options {
			t.Fatalf("%s: options = %v, want %v", tc.code, line.OptionsPrice, tc.options)
		}
	}
}

func TestComposeLinePercentageOptionOnBase(t *testing.T) {
	e := New()
	mfr := testManufacturer(internal.Catalog{"B15": {"Standard": 200}})
	opts := []internal.ManufacturerOption{
		{ID: "o-fin", Name: "Painted Finish", Section: internal.SectionFinish, PricingType: internal.PricingPercentage, Price: 0.15},
	}
	item := internal.CabinetItem{OriginalCode: "B15", Type: internal.TypeBase, Quantity: 1}

	line := e.composeLine(item, mfr, stdTier(), "Standard", opts)
	if line.OptionsPrice != 30 {
		t.Fatalf("options = %v, want 30 (15%% of 200)", line.OptionsPrice)
	}
	if line.AppliedOptions[0].Name != "Painted Finish (%)" {
		t.Fatalf("percentage options are labeled: %q", line.AppliedOptions[0].Name)
	}
	if line.FinalUnitPrice != 230 {
		t.Fatalf("unit = %v, want 230", line.FinalUnitPrice)
	}
}

func TestComposeLineSimilarKeyProvenance(t *testing.T) {
	e := New()
	mfr := testManufacturer(internal.Catalog{"B15": {"Standard": 50}})
	// B015 does not resolve directly; the normalized candidate B15 does.
	item := internal.CabinetItem{OriginalCode: "B015", Type: internal.TypeBase, Quantity: 1}

	line := e.composeLine(item, mfr, stdTier(), "Standard", nil)
	if line.FinalUnitPrice != 50 {
		t.Fatalf("unit = %v, want 50", line.FinalUnitPrice)
	}
	if line.Source != "Catalog (Similar 'B15')" {
		t.Fatalf("source = %q", line.Source)
	}
	if line.NormalizedCode != "B15" {
		t.Fatalf("normalized code must carry the matched sku, got %q", line.NormalizedCode)
	}
	if line.OriginalCode != "B015" {
		t.Fatalf("original code must survive untouched, got %q", line.OriginalCode)
	}
}

func TestComposeLineExtractedPriceFallback(t *testing.T) {
	e := New()
	mfr := testManufacturer(internal.Catalog{"B15": {"Standard": 50}})
	item := internal.CabinetItem{
		OriginalCode:   "ZZTOP99",
		Type:           internal.TypeAccessory,
		Quantity:       2,
		ExtractedPrice: 42.4,
	}

	line := e.composeLine(item, mfr, stdTier(), "Standard", nil)
	if line.Source != sourceExtracted {
		t.Fatalf("source = %q", line.Source)
	}
	if line.FinalUnitPrice != 42 || line.TotalPrice != 85 {
		t.Fatalf("unit/total = %v/%v, want 42/85 (rounded independently)", line.FinalUnitPrice, line.TotalPrice)
	}
}

func TestComposeLineNotFound(t *testing.T) {
	e := New()
	mfr := testManufacturer(internal.Catalog{"B15": {"Standard": 50}})
	item := internal.CabinetItem{OriginalCode: "XQJ77", Type: internal.TypeAccessory, Quantity: 3}

	line := e.composeLine(item, mfr, stdTier(), "Standard", nil)
	if line.Source != sourceNotFound {
		t.Fatalf("source = %q", line.Source)
	}
	if line.BasePrice != 0 || line.FinalUnitPrice != 0 || line.TotalPrice != 0 {
		t.Fatalf("unmatched items price at zero: %+v", line)
	}
	if line.Quantity != 3 {
		t.Fatalf("quantity must survive: %d", line.Quantity)
	}
}

func TestComposeLineQuantityDefaultsToOne(t *testing.T) {
	e := New()
	mfr := testManufacturer(internal.Catalog{"B15": {"Standard": 50}})
	item := internal.CabinetItem{OriginalCode: "B15", Type: internal.TypeBase}

	line := e.composeLine(item, mfr, stdTier(), "Standard", nil)
	if line.Quantity != 1 || line.TotalPrice != 50 {
		t.Fatalf("qty/total = %d/%v, want 1/50", line.Quantity, line.TotalPrice)
	}
}

func TestComposeLineIndependentRounding(t *testing.T) {
	e := New()
	mfr := testManufacturer(internal.Catalog{"B15": {"Standard": 33.33}})
	mfr.BasePricingMultiplier = 1.0
	item := internal.CabinetItem{OriginalCode: "B15", Type: internal.TypeBase, Quantity: 3}
	tier := internal.PricingTier{ID: "t", Name: "Standard", Multiplier: 1.0}

	line := e.composeLine(item, mfr, tier, "Standard", nil)
	// 33.33 rounds to 33 for display, but the total is rounded from the
	// unrounded intermediate: 33.33 * 3 = 99.99 -> 100.
	if line.BasePrice != 33 || line.FinalUnitPrice != 33 || line.TotalPrice != 100 {
		t.Fatalf("base/unit/total = %v/%v/%v, want 33/33/100", line.BasePrice, line.FinalUnitPrice, line.TotalPrice)
	}
}

func TestOptionAppliesNameKeywords(t *testing.T) {
	wall := internal.ManufacturerOption{Name: "Wall Glass Doors", Section: internal.SectionSeries}
	base := internal.ManufacturerOption{Name: "Base Rollouts", Section: internal.SectionSeries}

	if optionApplies(wall, internal.TypeBase) {
		t.Fatal("wall-named option applied to a base cabinet")
	}
	if !optionApplies(wall, internal.TypeWall) {
		t.Fatal("wall-named option rejected on a wall cabinet")
	}
	if optionApplies(base, internal.TypeTall) {
		t.Fatal("base-named option applied to a tall cabinet")
	}
}

func TestComposeLineTierAndManufacturerMultipliers(t *testing.T) {
	e := New()
	mfr := testManufacturer(internal.Catalog{"B15": {"Standard": 100}})
	mfr.BasePricingMultiplier = 1.05
	tier := internal.PricingTier{ID: "t2", Name: "Premium", Multiplier: 1.2}
	item := internal.CabinetItem{OriginalCode: "B15", Type: internal.TypeBase, Quantity: 1}

	line := e.composeLine(item, mfr, tier, "Standard", nil)
	// adjusted base 105, unit 105 * 1.2 = 126
	if line.BasePrice != 105 {
		t.Fatalf("base = %v, want 105", line.BasePrice)
	}
	if line.FinalUnitPrice != 126 {
		t.Fatalf("unit = %v, want 126", line.FinalUnitPrice)
	}
	if line.TierName != "Premium" || line.TierMultiplier != 1.2 {
		t.Fatalf("tier fields: %q %v", line.TierName, line.TierMultiplier)
	}
	if !strings.Contains(line.Source, "Catalog") {
		t.Fatalf("source = %q", line.Source)
	}
}
