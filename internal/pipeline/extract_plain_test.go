package pipeline

import (
	"testing"

	"cabquote/internal"
)

func TestParseEmailText(t *testing.T) {
	text := "\nB15 qty: 2\n(3) W3030 white\nThanks,\n"
	items := parseEmailText(text)
	if len(items) != 2 {
		t.Fatalf("len=%d", len(items))
	}
	if items[0].Item.OriginalCode != "B15" || items[0].Item.Quantity != 2 {
		t.Fatalf("first item: %+v", items[0].Item)
	}
	if items[1].Item.OriginalCode != "W3030" || items[1].Item.Quantity != 3 {
		t.Fatalf("second item: %+v", items[1].Item)
	}
}

func TestLineToItemQtyForms(t *testing.T) {
	cases := []struct {
		line string
		code string
		qty  int
	}{
		{"B15 qty: 2", "B15", 2},
		{"(4) W3030", "W3030", 4},
		{"VDB27AH-3 x2", "VDB27AH-3", 2},
		{"2 ea B18", "B18", 2},
		{"W3612 wall cabinet", "W3612", 1},
	}
	for _, tc := range cases {
		item := lineToItem(internal.SourceEmailText, tc.line)
		if item == nil {
			t.Fatalf("%q: no item", tc.line)
		}
		if item.Item.OriginalCode != tc.code || item.Item.Quantity != tc.qty {
			t.Fatalf("%q: got %s/%d", tc.line, item.Item.OriginalCode, item.Item.Quantity)
		}
	}
}

func TestLineToItemPrice(t *testing.T) {
	item := lineToItem(internal.SourceEmailText, "B15 base cabinet $129.50")
	if item == nil {
		t.Fatal("no item")
	}
	if item.Item.ExtractedPrice != 129.5 {
		t.Fatalf("price = %v", item.Item.ExtractedPrice)
	}
}

func TestLineToItemNoise(t *testing.T) {
	for _, line := range []string{"", "Thanks for your business", "http://example.com/order", "---", "Sent from my phone"} {
		if item := lineToItem(internal.SourceEmailText, line); item != nil {
			t.Fatalf("%q: expected nil, got %+v", line, item)
		}
	}
}

func TestInferTypeFromCode(t *testing.T) {
	cases := []struct {
		code string
		want internal.CabinetType
	}{
		{"B15", internal.TypeBase},
		{"W3030", internal.TypeWall},
		{"WDH24", internal.TypeBase},
		{"U188424", internal.TypeTall},
		{"T2484", internal.TypeTall},
		{"F3", internal.TypeFiller},
		{"PNL2496", internal.TypePanel},
		{"BP24", internal.TypePanel},
		{"VDB27", internal.TypeBase},
	}
	for _, tc := range cases {
		if got := InferTypeFromCode(tc.code); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.code, got, tc.want)
		}
	}
}

func TestFillDimensionsFromCode(t *testing.T) {
	wall := internal.CabinetItem{OriginalCode: "W3036", Type: internal.TypeWall}
	FillDimensionsFromCode(&wall)
	if wall.Width != 30 || wall.Height != 36 {
		t.Fatalf("wall dims: %v x %v", wall.Width, wall.Height)
	}

	base := internal.CabinetItem{OriginalCode: "B15", Type: internal.TypeBase}
	FillDimensionsFromCode(&base)
	if base.Width != 15 || base.Height != 34.5 {
		t.Fatalf("base dims: %v x %v", base.Width, base.Height)
	}

	tall := internal.CabinetItem{OriginalCode: "U18", Type: internal.TypeTall}
	FillDimensionsFromCode(&tall)
	if tall.Height != 84 {
		t.Fatalf("tall height: %v", tall.Height)
	}

	// Explicit dimensions win over the code.
	given := internal.CabinetItem{OriginalCode: "W3036", Type: internal.TypeWall, Width: 33, Height: 42}
	FillDimensionsFromCode(&given)
	if given.Width != 33 || given.Height != 42 {
		t.Fatalf("given dims overwritten: %v x %v", given.Width, given.Height)
	}
}
