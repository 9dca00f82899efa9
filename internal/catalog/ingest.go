package catalog

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"cabquote/internal"
	"cabquote/internal/util"
)

// ImportResult is everything a price-book workbook yields: the SKU price
// matrix, the tier columns discovered from price headers, and the upgrade
// options found on option sheets.
type ImportResult struct {
	Catalog      internal.Catalog
	Tiers        []internal.PricingTier
	Options      []internal.ManufacturerOption
	SheetsParsed int
	SKUCount     int
}

var (
	reSKU         = regexp.MustCompile(`^[A-Z]{1,4}\d{1,4}[A-Z0-9\-.]*$`)
	reColumnNoise = regexp.MustCompile(`^(PAGE|ITEM|QTY|NOTE|DESC|PRICE|WIDTH|HEIGHT|DEPTH|SKU|CODE)`)
	rePriceHeader = regexp.MustCompile(`PRICE|GROUP|TIER|COST|LIST|%|\$`)
	reHasLetter   = regexp.MustCompile(`[A-Z]`)
	reHasDigit    = regexp.MustCompile(`\d`)
	reNonPrice    = regexp.MustCompile(`[^0-9.\-]`)
)

var optionSections = map[string]bool{
	internal.SectionDoor:         true,
	internal.SectionFinish:       true,
	internal.SectionDrawer:       true,
	internal.SectionHinge:        true,
	internal.SectionConstruction: true,
	internal.SectionPrintedEnds:  true,
}

// ImportPriceBook parses a manufacturer price-book workbook. Sheet names
// route each sheet to a section; price sheets feed the catalog, option
// sheets feed the option list.
func ImportPriceBook(r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	result := &ImportResult{Catalog: internal.Catalog{}}
	tierNames := map[string]bool{}

	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		if len(rows) < 5 {
			continue
		}

		section := guessSection(sheetName)
		if section == "A-Context" || section == "L-Summary" {
			continue
		}

		if optionSections[section] {
			parseOptionSheet(result, rows, sheetName, section)
			result.SheetsParsed++
			continue
		}

		header := findHeaderRow(rows)
		if header == nil {
			continue
		}

		for _, row := range rows {
			sku := findBestSKUInRow(row, header.skuCol)
			if sku == "" {
				continue
			}
			entry := result.Catalog[sku]
			if entry == nil {
				entry = map[string]float64{}
			}
			for _, pc := range header.priceCols {
				if pc.index >= len(row) {
					continue
				}
				price := parsePriceCell(row[pc.index])
				if price <= 0 {
					continue
				}
				entry[pc.name] = price
				tierNames[pc.name] = true
			}
			if len(entry) > 0 {
				result.Catalog[sku] = entry
			}
		}
		result.SheetsParsed++
	}

	for name := range tierNames {
		result.Tiers = append(result.Tiers, internal.PricingTier{ID: name, Name: name, Multiplier: 1.0})
	}
	sort.Slice(result.Tiers, func(i, j int) bool { return result.Tiers[i].Name < result.Tiers[j].Name })
	result.SKUCount = len(result.Catalog)

	return result, nil
}

// guessSection routes a sheet by its name. Order matters: "wall price"
// must hit the price bucket before the generic construction keywords.
func guessSection(sheetName string) string {
	s := strings.ToLower(sheetName)
	switch {
	case strings.Contains(s, "series") || strings.Contains(s, "line"):
		return internal.SectionSeries
	case strings.Contains(s, "printed") || (strings.Contains(s, "options") && strings.Contains(s, "end")):
		return internal.SectionPrintedEnds
	case strings.Contains(s, "door") || strings.Contains(s, "style"):
		return internal.SectionDoor
	case strings.Contains(s, "finish") || strings.Contains(s, "paint") || strings.Contains(s, "stain") || strings.Contains(s, "wood") || strings.Contains(s, "specie"):
		return internal.SectionFinish
	case strings.Contains(s, "drawer") || strings.Contains(s, "box") || strings.Contains(s, "front"):
		return internal.SectionDrawer
	case strings.Contains(s, "hinge") || strings.Contains(s, "hardware") || strings.Contains(s, "close"):
		return internal.SectionHinge
	case strings.Contains(s, "construction") || strings.Contains(s, "panel") || strings.Contains(s, "end") || strings.Contains(s, "upgrade"):
		return internal.SectionConstruction
	case strings.Contains(s, "wall"):
		return internal.SectionWallPrice
	case strings.Contains(s, "base"):
		return internal.SectionBasePrice
	case strings.Contains(s, "tall") || strings.Contains(s, "pantry") || strings.Contains(s, "utility"):
		return internal.SectionTallPrice
	case strings.Contains(s, "accessory") || strings.Contains(s, "filler") || strings.Contains(s, "toe") || strings.Contains(s, "molding"):
		return internal.SectionAccessory
	case strings.Contains(s, "summary") || strings.Contains(s, "total") || strings.Contains(s, "note"):
		return "L-Summary"
	case strings.Contains(s, "project") || strings.Contains(s, "area") || strings.Contains(s, "info"):
		return "A-Context"
	default:
		return internal.SectionUnknown
	}
}

func sectionToCategory(section string) string {
	switch section {
	case internal.SectionSeries:
		return "Series"
	case internal.SectionDoor:
		return "Door"
	case internal.SectionFinish:
		return "Finish"
	case internal.SectionDrawer:
		return "Drawer"
	case internal.SectionHinge:
		return "Hinge"
	case internal.SectionConstruction:
		return "Construction"
	case internal.SectionPrintedEnds:
		return "PrintedEnd"
	default:
		return "Other"
	}
}

type headerLayout struct {
	skuCol    int
	priceCols []priceColumn
}

type priceColumn struct {
	index int
	name  string
}

// findHeaderRow scans the top of a sheet for the row holding the SKU column
// and the tier price headers. The tier names become catalog price columns.
func findHeaderRow(rows [][]string) *headerLayout {
	limit := len(rows)
	if limit > 40 {
		limit = 40
	}

	for r := 0; r < limit; r++ {
		row := rows[r]
		skuCol := -1
		for c, cell := range row {
			v := strings.ToUpper(strings.TrimSpace(cell))
			if v == "SKU" || v == "CODE" || v == "ITEM" || v == "ITEM CODE" || v == "CABINET" {
				skuCol = c
				break
			}
		}
		if skuCol == -1 {
			continue
		}

		layout := &headerLayout{skuCol: skuCol}
		for c := skuCol + 1; c < len(row); c++ {
			name := strings.TrimSpace(row[c])
			if name == "" {
				continue
			}
			upper := strings.ToUpper(name)
			if upper == "DESCRIPTION" || upper == "DESC" || upper == "NOTES" {
				continue
			}
			if rePriceHeader.MatchString(upper) || looksLikeTierName(name) {
				layout.priceCols = append(layout.priceCols, priceColumn{index: c, name: name})
			}
		}
		if len(layout.priceCols) > 0 {
			return layout
		}
	}
	return nil
}

// looksLikeTierName accepts short word-ish headers such as "Standard",
// "Group 4" or a wood species; real tier columns rarely run past a few words.
func looksLikeTierName(name string) bool {
	if len(name) < 2 || len(name) > 30 {
		return false
	}
	return len(strings.Fields(name)) <= 4
}

func findBestSKUInRow(row []string, primary int) string {
	if primary >= 0 && primary < len(row) && row[primary] != "" {
		val := normalizeImportSKU(row[primary])
		if reSKU.MatchString(val) && len(val) >= 2 && len(val) < 15 {
			return val
		}
	}

	limit := len(row)
	if limit > 12 {
		limit = 12
	}
	for i := 0; i < limit; i++ {
		if row[i] == "" {
			continue
		}
		val := normalizeImportSKU(row[i])
		if len(val) < 2 || len(val) > 20 {
			continue
		}
		if reColumnNoise.MatchString(val) {
			continue
		}
		if !reHasLetter.MatchString(val) || !reHasDigit.MatchString(val) {
			continue
		}
		if reSKU.MatchString(val) {
			return val
		}
	}
	return ""
}

func normalizeImportSKU(val string) string {
	s := strings.ToUpper(strings.TrimSpace(val))
	s = strings.NewReplacer("–", "-", "—", "-").Replace(s)
	return util.CollapseKey(s)
}

func parsePriceCell(cell string) float64 {
	s := reNonPrice.ReplaceAllString(strings.TrimSpace(cell), "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseOptionPrice reads an option price cell: "-", "N/C" and "no charge"
// mean included; a % sign (in the cell or its header) or a fraction below 1
// means percentage; anything else is a fixed dollar amount.
func parseOptionPrice(cell, header string) (float64, internal.OptionPricing) {
	s := strings.TrimSpace(cell)
	lower := strings.ToLower(s)
	if s == "" || s == "-" || strings.Contains(lower, "n/c") || strings.Contains(lower, "no charge") {
		return 0, internal.PricingIncluded
	}

	isPercent := strings.Contains(s, "%") || strings.Contains(header, "%") || strings.Contains(strings.ToUpper(header), "PCT")
	val := parsePriceCell(s)
	if val == 0 {
		return 0, internal.PricingIncluded
	}

	if isPercent {
		if val > 1 {
			val = val / 100
		}
		return val, internal.PricingPercentage
	}
	if val < 1.0 && val > -1.0 {
		return val, internal.PricingPercentage
	}
	return val, internal.PricingFixed
}

// parseOptionSheet reads an option sheet as name/price pairs: the first
// text-ish column is the option name, the first price-looking cell to its
// right is the charge.
func parseOptionSheet(result *ImportResult, rows [][]string, sheetName, section string) {
	for _, row := range rows {
		nameIdx := -1
		for c, cell := range row {
			v := strings.TrimSpace(cell)
			if len(v) < 3 {
				continue
			}
			upper := strings.ToUpper(v)
			if reColumnNoise.MatchString(upper) || upper == "FINISH" || upper == "STAIN" || upper == "PAINT" {
				continue
			}
			nameIdx = c
			break
		}
		if nameIdx == -1 {
			continue
		}

		name := strings.TrimSpace(row[nameIdx])
		priceCell := ""
		for c := nameIdx + 1; c < len(row) && c <= nameIdx+3; c++ {
			if isPriceCell(row[c]) || isIncludedCell(row[c]) {
				priceCell = row[c]
				break
			}
		}

		price, pricingType := parseOptionPrice(priceCell, "")
		if priceCell == "" && pricingType == internal.PricingIncluded && section != internal.SectionFinish {
			// Rows with no price at all on non-finish sheets are headings.
			continue
		}

		result.Options = append(result.Options, internal.ManufacturerOption{
			ID:          "opt_" + uuid.NewString()[:8],
			Name:        name,
			Category:    sectionToCategory(section),
			Section:     section,
			PricingType: pricingType,
			Price:       price,
			SourceSheet: sheetName,
		})
	}
}

// isIncludedCell spots the "no charge" spellings so an included option is
// not mistaken for a heading row.
func isIncludedCell(cell string) bool {
	s := strings.ToLower(strings.TrimSpace(cell))
	return s == "-" || strings.Contains(s, "n/c") || strings.Contains(s, "no charge")
}

func isPriceCell(cell string) bool {
	s := strings.TrimSpace(cell)
	if s == "" || s == "-" {
		return false
	}
	if strings.Contains(s, "$") || strings.Contains(s, "%") {
		return true
	}
	_, err := strconv.ParseFloat(reNonPrice.ReplaceAllString(s, ""), 64)
	return err == nil
}
