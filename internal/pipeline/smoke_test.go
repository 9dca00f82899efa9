package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"cabquote/internal"
	"cabquote/internal/config"
	"cabquote/internal/storage"
)

func TestSmokeEmailToQuoteXLSX(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mfr := internal.Manufacturer{
		ID:                    "mfr-1",
		Name:                  "Test Cabinets",
		BasePricingMultiplier: 1.0,
		Tiers:                 []internal.PricingTier{{ID: "tier-std", Name: "Standard", Multiplier: 1.0}},
	}
	if err := db.UpsertManufacturer(mfr); err != nil {
		t.Fatal(err)
	}
	catalog := internal.Catalog{
		"B15":   {"Standard": 100},
		"W3030": {"Standard": 120},
		"VDB27": {"Standard": 80},
	}
	if err := db.UpsertCatalogEntries(mfr.ID, catalog); err != nil {
		t.Fatal(err)
	}

	rawBlob, err := os.ReadFile(filepath.Join("testdata", "sample_order.eml"))
	if err != nil {
		t.Fatal(err)
	}
	rawPath := filepath.Join(tmp, "fixture.eml")
	if err := os.WriteFile(rawPath, rawBlob, 0o644); err != nil {
		t.Fatal(err)
	}

	request, err := db.UpsertRequest("gmail", "<fixture-1@example.com>", "Cabinet order - Smith kitchen", "dealer@example.com", "2026-08-10T10:00:00Z", "hash", rawPath, "fetched")
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	cfg.DefaultManufacturerID = "mfr-1"
	cfg.DefaultTierID = "tier-std"

	proc := NewProcessingService(db, cfg)
	res, err := proc.ProcessRequest(request)
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped {
		t.Fatal("order email was skipped")
	}
	if res.Priced != 3 {
		t.Fatalf("priced %d lines", res.Priced)
	}
	if res.NotFound != 0 {
		t.Fatalf("notFound = %d", res.NotFound)
	}

	quote, err := db.GetQuote(request.ID)
	if err != nil {
		t.Fatal(err)
	}
	if quote == nil || len(quote.Lines) != 3 {
		t.Fatalf("quote = %+v", quote)
	}
	// qty 2 of B15 at 100 = 200
	if quote.Lines[0].TotalPrice != 200 {
		t.Fatalf("first line total = %v", quote.Lines[0].TotalPrice)
	}

	out := filepath.Join(tmp, "result.xlsx")
	if err := ExportQuoteToXLSX(quote, out); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatal(err)
	}
}
