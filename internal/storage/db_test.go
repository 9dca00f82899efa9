package storage

import (
	"path/filepath"
	"testing"

	"cabquote/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestManufacturerCatalogRoundTrip(t *testing.T) {
	db := openTestDB(t)

	mfr := internal.Manufacturer{
		ID:                    "mfr-1",
		Name:                  "Test Cabinets",
		BasePricingMultiplier: 1.1,
		Tiers:                 []internal.PricingTier{{ID: "t1", Name: "Standard", Multiplier: 1.0}},
	}
	if err := db.UpsertManufacturer(mfr); err != nil {
		t.Fatal(err)
	}
	catalog := internal.Catalog{
		"B15":   {"Standard": 100},
		"W3030": {"Standard": 120},
	}
	if err := db.UpsertCatalogEntries(mfr.ID, catalog); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetManufacturer("mfr-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("manufacturer not found after upsert")
	}
	if got.BasePricingMultiplier != 1.1 {
		t.Fatalf("multiplier = %v", got.BasePricingMultiplier)
	}
	if got.SKUCount != 2 {
		t.Fatalf("skuCount = %d", got.SKUCount)
	}
	if got.Catalog["B15"]["Standard"] != 100 {
		t.Fatalf("catalog = %v", got.Catalog)
	}

	// Re-upserting the same SKU must update, not duplicate.
	if err := db.UpsertCatalogEntries(mfr.ID, internal.Catalog{"B15": {"Standard": 105}}); err != nil {
		t.Fatal(err)
	}
	got, err = db.GetManufacturer("mfr-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.SKUCount != 2 || got.Catalog["B15"]["Standard"] != 105 {
		t.Fatalf("after re-upsert: skuCount=%d price=%v", got.SKUCount, got.Catalog["B15"]["Standard"])
	}

	missing, err := db.GetManufacturer("nope")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown manufacturer")
	}
}

func TestRequestLifecycle(t *testing.T) {
	db := openTestDB(t)

	req, err := db.UpsertRequest("gmail", "<m1@example.com>", "Order", "dealer@example.com", "2026-08-10T10:00:00Z", "h1", "/tmp/m1.eml", "fetched")
	if err != nil {
		t.Fatal(err)
	}
	if req.ID == 0 || req.Status != "fetched" {
		t.Fatalf("request = %+v", req)
	}

	// Same provider+messageId upserts onto the same row.
	again, err := db.UpsertRequest("gmail", "<m1@example.com>", "Order (updated)", "dealer@example.com", "2026-08-10T10:00:00Z", "h1", "/tmp/m1.eml", "fetched")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != req.ID {
		t.Fatalf("duplicate row: %d vs %d", again.ID, req.ID)
	}
	if again.Subject != "Order (updated)" {
		t.Fatalf("subject = %q", again.Subject)
	}

	if _, err := db.InsertExtraction(req.ID, internal.ExtractedItem{
		LineNo:  1,
		Source:  internal.SourceEmailText,
		RawLine: "B15 qty: 2",
		Item:    internal.CabinetItem{OriginalCode: "B15", Quantity: 2},
	}); err != nil {
		t.Fatal(err)
	}

	lines := []internal.PricingLineItem{{CabinetItem: internal.CabinetItem{OriginalCode: "B15", Quantity: 2}, TotalPrice: 200}}
	if err := db.SaveQuote(req.ID, "mfr-1", "t1", lines, `{"subtotal":200}`); err != nil {
		t.Fatal(err)
	}

	if err := db.UpdateRequestStatus(req.ID, "processed"); err != nil {
		t.Fatal(err)
	}
	pending, err := db.ListRequestsByStatus("processed", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != req.ID {
		t.Fatalf("processed list = %+v", pending)
	}

	quote, err := db.GetQuote(req.ID)
	if err != nil {
		t.Fatal(err)
	}
	if quote == nil || len(quote.Lines) != 1 || quote.Lines[0].TotalPrice != 200 {
		t.Fatalf("quote = %+v", quote)
	}

	items, err := db.ListExtractions(req.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Item.OriginalCode != "B15" {
		t.Fatalf("extractions = %+v", items)
	}

	// Clearing removes quote and extractions so the request can re-run.
	if err := db.ClearRequestProcessing(req.ID); err != nil {
		t.Fatal(err)
	}
	quote, err = db.GetQuote(req.ID)
	if err != nil {
		t.Fatal(err)
	}
	if quote != nil {
		t.Fatal("quote survived clear")
	}
	items, err = db.ListExtractions(req.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("extractions survived clear: %+v", items)
	}
}

func TestProjectRoundTrip(t *testing.T) {
	db := openTestDB(t)

	p := internal.Project{
		ID:             "proj-1",
		Name:           "Smith kitchen",
		ManufacturerID: "mfr-1",
		Items:          []internal.CabinetItem{{OriginalCode: "B15", Quantity: 2}},
		Financials:     &internal.ProjectFinancials{TaxRate: 8.25, DiscountRate: 10},
	}
	if err := db.SaveProject(p); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetProject("proj-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Name != "Smith kitchen" {
		t.Fatalf("project = %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].OriginalCode != "B15" {
		t.Fatalf("items = %+v", got.Items)
	}
	if got.Financials == nil || got.Financials.TaxRate != 8.25 {
		t.Fatalf("financials = %+v", got.Financials)
	}

	missing, err := db.GetProject("nope")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatal("expected nil for unknown project")
	}
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)

	got, err := db.GetMetadata("k")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("expected nil for unset key")
	}

	if err := db.SetMetadata("k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("k", "v2"); err != nil {
		t.Fatal(err)
	}
	got, err = db.GetMetadata("k")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != "v2" {
		t.Fatalf("metadata = %v", got)
	}
}
