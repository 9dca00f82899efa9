package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"cabquote/internal"
	"cabquote/internal/engine"
)

// ExportQuoteToXLSX writes a priced quote to a workbook: one row per line
// item, then the rolled-up totals block underneath.
func ExportQuoteToXLSX(quote *internal.StoredQuote, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"line_no", "original_code", "matched_sku", "type", "description",
		"qty", "width", "height", "depth",
		"base_price", "options_price", "tier", "tier_multiplier",
		"unit_price", "total_price", "source",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	r := 1
	for i, line := range quote.Lines {
		r = i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, i+1)
		set(2, line.OriginalCode)
		set(3, line.NormalizedCode)
		set(4, string(line.Type))
		set(5, line.Description)
		set(6, line.Quantity)
		set(7, line.Width)
		set(8, line.Height)
		set(9, line.Depth)
		set(10, line.BasePrice)
		set(11, line.OptionsPrice)
		set(12, line.TierName)
		set(13, line.TierMultiplier)
		set(14, line.FinalUnitPrice)
		set(15, line.TotalPrice)
		set(16, line.Source)
	}

	var totals engine.QuoteTotals
	if quote.TotalsJSON != "" {
		_ = json.Unmarshal([]byte(quote.TotalsJSON), &totals)
	}

	r += 2
	writeTotal := func(label string, value float64) {
		labelCell, _ := excelize.CoordinatesToCellName(14, r)
		valueCell, _ := excelize.CoordinatesToCellName(15, r)
		_ = f.SetCellValue(sheet, labelCell, label)
		_ = f.SetCellValue(sheet, valueCell, value)
		r++
	}
	writeTotal("Subtotal", totals.Subtotal)
	if totals.Discount != 0 {
		writeTotal("Discount", -totals.Discount)
	}
	if totals.Tax != 0 {
		writeTotal("Tax", totals.Tax)
	}
	if totals.Shipping != 0 {
		writeTotal("Shipping", totals.Shipping)
	}
	if totals.FuelSurcharge != 0 {
		writeTotal("Fuel Surcharge", totals.FuelSurcharge)
	}
	if totals.MiscCharge != 0 {
		writeTotal("Misc", totals.MiscCharge)
	}
	writeTotal("Grand Total", totals.GrandTotal)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
