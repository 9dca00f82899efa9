package engine

import (
	"regexp"
	"strings"

	"cabquote/internal"
)

// Structural markers from order documents that upstream extraction sometimes
// emits as items: page furniture, totals, job metadata, spec headers.
var garbagePhrases = []string{
	"PAGE ", "OF PAGE", "SUB TOTAL", "SUBTOTAL", "GRAND TOTAL", "ORDER TOTAL",
	"TAX", "SHIPPING", "JOB NAME", "PROJECT:", "QUOTE:", "DATE:", "SIGNATURE",
	"CABINET SPECIFICATIONS", "CONSTRUCTION:", "DOOR STYLE:", "LAYOUT",
}

var rePageOf = regexp.MustCompile(`PAGE\s+\d+\s+OF\s+\d+`)

// IsGarbage flags rows that are document noise rather than cabinet lines.
// Flagged items are dropped silently: they are extraction artifacts, not user
// mistakes.
func IsGarbage(item internal.CabinetItem) bool {
	text := strings.ToUpper(item.OriginalCode + " " + item.Description)

	if rePageOf.MatchString(text) {
		return true
	}
	for _, phrase := range garbagePhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}

	// A "code" that is a long multi-word sentence came from a header row.
	if len(item.OriginalCode) > 20 && strings.Contains(item.OriginalCode, " ") {
		return true
	}
	if strings.EqualFold(item.OriginalCode, "KITCHEN") || strings.EqualFold(item.Description, "KITCHEN") {
		return true
	}

	// Appliance callouts are placement notes, not cabinets, unless the line
	// is about the panel or cabinet around the appliance.
	if strings.Contains(text, "REFRIGERATOR") && !strings.Contains(text, "PANEL") && !strings.Contains(text, "CABINET") {
		return true
	}
	if strings.Contains(text, "RANGE") && !strings.Contains(text, "HOOD") && !strings.Contains(text, "CABINET") {
		return true
	}

	return false
}
