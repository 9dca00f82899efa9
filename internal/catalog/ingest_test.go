package catalog

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"cabquote/internal"
)

func mkWorkbook(t *testing.T, sheets map[string][][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			_ = f.SetSheetName(f.GetSheetName(0), name)
			first = false
		} else {
			_, _ = f.NewSheet(name)
		}
		for r, row := range rows {
			for c, v := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
				_ = f.SetCellValue(name, cell, v)
			}
		}
	}
	buf := bytes.NewBuffer(nil)
	if _, err := f.WriteTo(buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImportPriceBook(t *testing.T) {
	blob := mkWorkbook(t, map[string][][]any{
		"Base Price List": {
			{"Base Cabinets"},
			{""},
			{"SKU", "Description", "Standard", "Premium"},
			{"B15", "15in base", 100, 120},
			{"B18", "18in base", "$110.00", 130},
			{"", "spacer row"},
			{"SUBTOTAL", "", "", ""},
		},
	})

	result, err := ImportPriceBook(bytes.NewReader(blob))
	if err != nil {
		t.Fatal(err)
	}
	if result.SKUCount != 2 {
		t.Fatalf("sku count = %d", result.SKUCount)
	}
	if result.Catalog["B15"]["Standard"] != 100 || result.Catalog["B15"]["Premium"] != 120 {
		t.Fatalf("B15 = %v", result.Catalog["B15"])
	}
	if result.Catalog["B18"]["Standard"] != 110 {
		t.Fatalf("B18 = %v", result.Catalog["B18"])
	}
	if len(result.Tiers) != 2 || result.Tiers[0].Name != "Premium" || result.Tiers[1].Name != "Standard" {
		t.Fatalf("tiers = %+v", result.Tiers)
	}
}

func TestImportPriceBookOptionSheet(t *testing.T) {
	blob := mkWorkbook(t, map[string][][]any{
		"Hinge Upgrades": {
			{"Hardware"},
			{""},
			{"Soft Close Upgrade", "$5.00"},
			{"Standard Hinge", "N/C"},
			{"Premium Glide", 12},
		},
	})

	result, err := ImportPriceBook(bytes.NewReader(blob))
	if err != nil {
		t.Fatal(err)
	}

	var soft, std *internal.ManufacturerOption
	for i := range result.Options {
		switch result.Options[i].Name {
		case "Soft Close Upgrade":
			soft = &result.Options[i]
		case "Standard Hinge":
			std = &result.Options[i]
		}
	}
	if soft == nil || soft.Price != 5 || soft.PricingType != internal.PricingFixed {
		t.Fatalf("soft close: %+v", soft)
	}
	if soft.Section != internal.SectionHinge {
		t.Fatalf("section = %q", soft.Section)
	}
	if std == nil || std.PricingType != internal.PricingIncluded {
		t.Fatalf("standard hinge: %+v", std)
	}
}

func TestGuessSection(t *testing.T) {
	cases := []struct {
		sheet string
		want  string
	}{
		{"Wall Price List", internal.SectionWallPrice},
		{"Door Styles", internal.SectionDoor},
		{"Paint & Stain", internal.SectionFinish},
		{"Tall Pantry", internal.SectionTallPrice},
		{"Project Info", "A-Context"},
		{"Misc", internal.SectionUnknown},
	}
	for _, tc := range cases {
		if got := guessSection(tc.sheet); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.sheet, got, tc.want)
		}
	}
}

func TestParseOptionPrice(t *testing.T) {
	cases := []struct {
		cell   string
		header string
		price  float64
		typ    internal.OptionPricing
	}{
		{"$150", "", 150, internal.PricingFixed},
		{"15%", "", 0.15, internal.PricingPercentage},
		{"0.08", "", 0.08, internal.PricingPercentage},
		{"no charge", "", 0, internal.PricingIncluded},
		{"-", "", 0, internal.PricingIncluded},
		{"12", "UPCHARGE %", 0.12, internal.PricingPercentage},
	}
	for _, tc := range cases {
		price, typ := parseOptionPrice(tc.cell, tc.header)
		if price != tc.price || typ != tc.typ {
			t.Fatalf("%q: got %v/%s want %v/%s", tc.cell, price, typ, tc.price, tc.typ)
		}
	}
}
