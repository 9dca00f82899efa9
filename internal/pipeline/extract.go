package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"cabquote/internal"
	"cabquote/internal/util"
)

var ignorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^--+$`),
	regexp.MustCompile(`(?i)^(thanks|thank you|regards|best|sincerely)`),
	regexp.MustCompile(`(?i)^(tel|phone|fax|cell)[:\s]`),
	regexp.MustCompile(`(?i)^e-?mail[:\s]`),
	regexp.MustCompile(`(?i)^http`),
	regexp.MustCompile(`(?i)^sent from`),
}

var (
	reQtyLabel    = regexp.MustCompile(`(?i)\bqty[:.\s]*(\d{1,3})\b`)
	reQtyTimes    = regexp.MustCompile(`(?i)\b(?:x\s*(\d{1,3})|(\d{1,3})\s*x)\b`)
	reQtyEach     = regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:ea|each|pcs?)\b`)
	reLeadingQty  = regexp.MustCompile(`^\((\d{1,3})\)`)
	rePriceToken  = regexp.MustCompile(`\$\s*[\d,]+(?:\.\d+)?`)
	reLeadLetters = regexp.MustCompile(`^[A-Z]+`)
	reDigitRun    = regexp.MustCompile(`\d+`)
)

// ExtractItemsFromEmailRaw pulls cabinet order lines out of a raw RFC 5322
// message: the plain-text body, any HTML order table, and XLSX, PDF or
// vision-JSON attachments.
func ExtractItemsFromEmailRaw(raw []byte) ([]internal.ExtractedItem, string, string, []string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, "", "", nil, err
	}

	items := make([]internal.ExtractedItem, 0)
	if env.Text != "" {
		items = append(items, parseEmailText(env.Text)...)
	}
	if env.HTML != "" {
		items = append(items, parseEmailHTMLTable(env.HTML)...)
	}

	attachmentNames := make([]string, 0, len(env.Attachments))
	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		if filename == "" {
			filename = "attachment"
		}
		attachmentNames = append(attachmentNames, filename)
		lower := strings.ToLower(filename)

		var extra []internal.ExtractedItem
		switch {
		case strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls"):
			extra, _ = parseOrderXLSX(att.Content)
		case strings.HasSuffix(lower, ".pdf"):
			extra, _ = parsePDF(att.Content)
		case strings.HasSuffix(lower, ".json"):
			if vision, err := ParseVisionPayload(att.Content); err == nil {
				for i, item := range vision.Items {
					extra = append(extra, internal.ExtractedItem{
						LineNo:  i + 1,
						Source:  internal.SourceVisionJSON,
						RawLine: item.OriginalCode + " " + item.Description,
						Item:    item,
					})
				}
			}
		}
		items = append(items, extra...)
	}

	items = dedupeItems(items)
	for i := range items {
		items[i].LineNo = i + 1
	}

	return items, env.GetHeader("Subject"), env.Text, attachmentNames, nil
}

func parseEmailText(text string) []internal.ExtractedItem {
	lines := splitLines(text)
	out := make([]internal.ExtractedItem, 0, len(lines))
	for _, line := range lines {
		item := lineToItem(internal.SourceEmailText, line)
		if item == nil {
			continue
		}
		out = append(out, *item)
	}
	return out
}

func parseEmailHTMLTable(html string) []internal.ExtractedItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	out := []internal.ExtractedItem{}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return
		}

		headers := []string{}
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.ToLower(strings.TrimSpace(cell.Text())))
		})

		codeIdx := findHeaderIndex(headers, []string{"code", "sku", "item", "cabinet", "model"})
		qtyIdx := findHeaderIndex(headers, []string{"qty", "quantity", "count"})
		descIdx := findHeaderIndex(headers, []string{"desc", "description", "name"})
		priceIdx := findHeaderIndex(headers, []string{"price", "cost", "amount"})

		// No recognizable header row: if the first row already carries a
		// code it is data, not a header.
		start := 1
		if codeIdx < 0 && qtyIdx < 0 && descIdx < 0 && priceIdx < 0 {
			for _, h := range headers {
				if util.LooksLikeCode(util.CollapseKey(h)) {
					start = 0
					break
				}
			}
		}

		rows.Slice(start, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.NormalizeSpaces(cell.Text()))
			})
			if len(cells) == 0 {
				return
			}

			code := pickCell(cells, codeIdx, 0)
			if !util.LooksLikeCode(util.CollapseKey(code)) {
				// A table without a header row still often leads with
				// the code column.
				code = ""
				for _, c := range cells {
					if util.LooksLikeCode(util.CollapseKey(c)) {
						code = c
						break
					}
				}
				if code == "" {
					return
				}
			}

			item := internal.CabinetItem{
				OriginalCode: strings.ToUpper(strings.TrimSpace(code)),
				Description:  pickCell(cells, descIdx, -1),
				Quantity:     util.ParseQuantity(pickCell(cells, qtyIdx, -1)),
			}
			if priceIdx >= 0 && priceIdx < len(cells) {
				item.ExtractedPrice = util.ParseMoney(cells[priceIdx])
			}
			item.Type = InferTypeFromCode(item.OriginalCode)
			FillDimensionsFromCode(&item)

			out = append(out, internal.ExtractedItem{
				Source:  internal.SourceEmailHTMLTable,
				RawLine: strings.Join(cells, " | "),
				Item:    item,
			})
		})
	})

	return out
}

func parseOrderXLSX(content []byte) ([]internal.ExtractedItem, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := []internal.ExtractedItem{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		codeIdx, qtyIdx, descIdx := -1, -1, -1
		for i, row := range rows {
			cells := normalizeCells(row)
			if len(cells) == 0 {
				continue
			}
			if i < 5 && codeIdx < 0 {
				codeIdx, qtyIdx, descIdx = inferOrderColumns(cells)
				if codeIdx >= 0 {
					continue
				}
			}

			var code string
			if codeIdx >= 0 && codeIdx < len(cells) {
				code = util.CollapseKey(cells[codeIdx])
			}
			if !util.LooksLikeCode(code) {
				code = ""
				for _, c := range cells {
					if util.LooksLikeCode(util.CollapseKey(c)) {
						code = util.CollapseKey(c)
						break
					}
				}
			}
			if code == "" {
				continue
			}

			item := internal.CabinetItem{
				OriginalCode: code,
				Description:  pickCell(cells, descIdx, -1),
				Quantity:     util.ParseQuantity(pickCell(cells, qtyIdx, -1)),
			}
			item.Type = InferTypeFromCode(code)
			FillDimensionsFromCode(&item)

			out = append(out, internal.ExtractedItem{
				Source:  internal.SourceXLSX,
				RawLine: strings.Join(cells, " | "),
				Item:    item,
			})
		}
	}

	return out, nil
}

func parsePDF(content []byte) ([]internal.ExtractedItem, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	out := []internal.ExtractedItem{}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		for _, line := range splitLines(text) {
			item := lineToItem(internal.SourcePDF, line)
			if item == nil {
				continue
			}
			out = append(out, *item)
		}
	}
	return out, nil
}

// lineToItem turns one free-text line into an order item: the first
// code-looking token is the cabinet code, a qty marker sets the count, a
// dollar amount becomes the extracted price, the rest is description.
func lineToItem(source internal.ItemSource, rawLine string) *internal.ExtractedItem {
	compact := util.NormalizeSpaces(rawLine)
	if compact == "" || isLikelyNoise(compact) {
		return nil
	}

	tokens := strings.Fields(compact)
	code := ""
	codeIdx := -1
	for i, tok := range tokens {
		candidate := util.CollapseKey(strings.Trim(tok, ".,;:()"))
		if util.LooksLikeCode(candidate) {
			code = candidate
			codeIdx = i
			break
		}
	}
	if code == "" {
		return nil
	}

	quantity := 1
	if m := reQtyLabel.FindStringSubmatch(compact); m != nil {
		quantity = util.ParseQuantity(m[1])
	} else if m := reLeadingQty.FindStringSubmatch(compact); m != nil {
		quantity = util.ParseQuantity(m[1])
	} else if m := reQtyTimes.FindStringSubmatch(compact); m != nil {
		quantity = util.ParseQuantity(m[1] + m[2])
	} else if m := reQtyEach.FindStringSubmatch(compact); m != nil {
		quantity = util.ParseQuantity(m[1])
	}

	price := 0.0
	if m := rePriceToken.FindString(compact); m != "" {
		price = util.ParseMoney(m)
	}

	descTokens := append([]string{}, tokens[:codeIdx]...)
	descTokens = append(descTokens, tokens[codeIdx+1:]...)
	desc := util.NormalizeSpaces(strings.Join(descTokens, " "))

	item := internal.CabinetItem{
		OriginalCode:   code,
		Description:    desc,
		Quantity:       quantity,
		ExtractedPrice: price,
	}
	item.Type = InferTypeFromCode(code)
	FillDimensionsFromCode(&item)

	return &internal.ExtractedItem{
		Source:  source,
		RawLine: compact,
		Item:    item,
	}
}

// InferTypeFromCode guesses the cabinet family from the code's letter
// prefix. WDH codes are deep drawer bases despite the W.
func InferTypeFromCode(code string) internal.CabinetType {
	prefix := reLeadLetters.FindString(strings.ToUpper(strings.TrimSpace(code)))
	switch {
	case prefix == "PNL" || prefix == "BP" || prefix == "EP":
		return internal.TypePanel
	case prefix == "F":
		return internal.TypeFiller
	case prefix == "WDH":
		return internal.TypeBase
	case strings.HasPrefix(prefix, "U") || strings.HasPrefix(prefix, "T"):
		return internal.TypeTall
	case strings.HasPrefix(prefix, "W"):
		return internal.TypeWall
	default:
		return internal.TypeBase
	}
}

// FillDimensionsFromCode reads the width (and, for walls, the height) out
// of the digit run: W3030 is 30 wide and 30 high. Standard heights fill in
// what the code does not carry.
func FillDimensionsFromCode(item *internal.CabinetItem) {
	digits := reDigitRun.FindString(item.OriginalCode)
	if item.Width == 0 && len(digits) >= 2 {
		if w, err := strconv.Atoi(digits[:2]); err == nil {
			item.Width = float64(w)
		}
	}
	if item.Height == 0 && item.Type == internal.TypeWall && len(digits) >= 4 {
		if h, err := strconv.Atoi(digits[2:4]); err == nil {
			item.Height = float64(h)
		}
	}
	if item.Height == 0 {
		switch item.Type {
		case internal.TypeBase:
			item.Height = 34.5
		case internal.TypeWall:
			item.Height = 30
		case internal.TypeTall:
			item.Height = 84
		}
	}
}

// VisionResult is the payload produced by the document-vision step: the
// extracted items plus the project-level selections it spotted.
type VisionResult struct {
	Items        []internal.CabinetItem
	Specs        internal.ProjectSpecs
	Manufacturer string
}

// ParseVisionPayload decodes a vision-extraction JSON document. Fields are
// coerced defensively: the producer is not a typed system.
func ParseVisionPayload(blob []byte) (*VisionResult, error) {
	var payload map[string]any
	if err := json.Unmarshal(blob, &payload); err != nil {
		return nil, fmt.Errorf("vision payload: %w", err)
	}

	result := &VisionResult{}

	if specs, ok := payload["specs"].(map[string]any); ok {
		result.Manufacturer = util.ToString(specs["manufacturer"])
		result.Specs.PriceGroup = util.ToString(specs["priceGroup"])
		notes := util.ToString(specs["notes"])
		if construction := util.ToString(specs["construction"]); construction != "" {
			notes += " [Construction: " + construction + "]"
		}
		result.Specs.Notes = strings.TrimSpace(notes)
	}

	rawItems, _ := payload["items"].([]any)
	for i, raw := range rawItems {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if isApplianceRow(m) {
			continue
		}

		code := strings.ToUpper(util.ToString(m["code"]))
		if code == "" {
			code = "UNKNOWN"
		}

		item := internal.CabinetItem{
			ID:             fmt.Sprintf("extracted-%d", i),
			OriginalCode:   code,
			NormalizedCode: util.CollapseKey(util.ToString(m["normalizedCode"])),
			Description:    util.ToString(m["description"]),
			Type:           visionType(util.ToString(m["type"]), code),
			Width:          util.ToFloat(m["width"], 0),
			Height:         util.ToFloat(m["height"], 0),
			Depth:          util.ToFloat(m["depth"], 0),
			Quantity:       util.ToInt(m["qty"], 1),
			Notes:          util.ToString(m["notes"]),
			ExtractedPrice: util.ToFloat(m["extractedPrice"], 0),
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		if item.Description == "" {
			item.Description = fmt.Sprintf("Item %d", i+1)
		}

		if mods, ok := m["modifications"].([]any); ok {
			for _, rawMod := range mods {
				mm, ok := rawMod.(map[string]any)
				if !ok {
					continue
				}
				desc := util.ToString(mm["description"])
				if desc == "" {
					continue
				}
				item.Modifications = append(item.Modifications, internal.CabinetModification{
					Description: desc,
					Price:       util.ToFloat(mm["price"], 0),
				})
			}
		}

		FillDimensionsFromCode(&item)
		result.Items = append(result.Items, item)
	}

	return result, nil
}

// isApplianceRow drops appliance callouts that slip past the vision step:
// a refrigerator opening is not a cabinet unless it names a panel.
func isApplianceRow(m map[string]any) bool {
	desc := strings.ToUpper(util.ToString(m["description"]))
	code := strings.ToUpper(util.ToString(m["code"]))

	if strings.Contains(desc, "FRIDGE") && !strings.Contains(desc, "PANEL") && !strings.Contains(desc, "CABINET") {
		return true
	}
	if strings.Contains(desc, "DISHWASHER") && !strings.Contains(desc, "PANEL") && !strings.Contains(desc, "RETURN") {
		return true
	}
	if strings.Contains(desc, "RANGE") && !strings.Contains(desc, "HOOD") && !strings.Contains(desc, "CABINET") {
		return true
	}
	if strings.Contains(desc, "SINK") && !strings.Contains(desc, "BASE") && !strings.Contains(desc, "FRONT") && !strings.Contains(desc, "CABINET") {
		return true
	}
	return code == "PAGE" || strings.HasPrefix(code, "PAGE ")
}

func visionType(rawType, code string) internal.CabinetType {
	t := strings.ToLower(rawType)
	switch {
	case strings.Contains(t, "wall"):
		return internal.TypeWall
	case strings.Contains(t, "tall") || strings.Contains(t, "pantry"):
		return internal.TypeTall
	case strings.Contains(t, "filler"):
		return internal.TypeFiller
	case strings.Contains(t, "panel") || strings.Contains(t, "skin"):
		return internal.TypePanel
	case strings.Contains(t, "accessory") || strings.Contains(t, "molding") || strings.Contains(t, "kit") || strings.Contains(t, "toe"):
		return internal.TypeAccessory
	case strings.HasPrefix(code, "U") || strings.HasPrefix(code, "T"):
		return internal.TypeTall
	default:
		return internal.TypeBase
	}
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isLikelyNoise(line string) bool {
	for _, re := range ignorePatterns {
		if re.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

func dedupeItems(items []internal.ExtractedItem) []internal.ExtractedItem {
	seen := map[string]struct{}{}
	out := make([]internal.ExtractedItem, 0, len(items))
	for _, item := range items {
		key := string(item.Source) + "|" + item.RawLine + "|" + strconv.Itoa(item.Item.Quantity)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func findHeaderIndex(headers []string, probes []string) int {
	for i, h := range headers {
		for _, probe := range probes {
			if strings.Contains(h, probe) {
				return i
			}
		}
	}
	return -1
}

func pickCell(cells []string, idx int, fallback int) string {
	if idx >= 0 && idx < len(cells) {
		return strings.TrimSpace(cells[idx])
	}
	if fallback >= 0 && fallback < len(cells) {
		return strings.TrimSpace(cells[fallback])
	}
	return ""
}

func inferOrderColumns(headers []string) (codeIdx, qtyIdx, descIdx int) {
	norm := make([]string, 0, len(headers))
	for _, h := range headers {
		norm = append(norm, strings.ToLower(h))
	}
	codeIdx = findHeaderIndex(norm, []string{"code", "sku", "item", "cabinet", "model"})
	qtyIdx = findHeaderIndex(norm, []string{"qty", "quantity", "count"})
	descIdx = findHeaderIndex(norm, []string{"desc", "name"})
	return
}

func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, util.NormalizeSpaces(c))
	}
	return out
}
