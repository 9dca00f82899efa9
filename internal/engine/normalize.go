package engine

import (
	"regexp"
	"strings"
)

var (
	reWhitespace    = regexp.MustCompile(`\s+`)
	reSpuriousTen   = regexp.MustCompile(`^([A-Z]+)10(\d{2})`)
	reSpuriousZero  = regexp.MustCompile(`^([A-Z]+)0(\d{2})`)
	reCosmeticTwoB  = regexp.MustCompile(`-?2B$`)
	reCosmeticButt  = regexp.MustCompile(`-?BUTT$`)
	reDirectional   = regexp.MustCompile(`[0-9]-?(LH|RH|L|R)$`)
	reDirectionalTail = regexp.MustCompile(`-?(LH|RH|L|R)$`)
	reFinishedEnd   = regexp.MustCompile(`-?FE[LR]?$`)
)

// NormalizeCode produces the canonical form of a raw product code: the form
// used for every catalog-key comparison and for display. The pipeline is
// order-sensitive and idempotent.
//
// Steps: upper-case and trim; repair OCR symbol confusions; remove internal
// whitespace; repair a spurious "10" or a spurious leading zero between the
// letter run and a two-digit tail (BD1015 -> BD15, B015 -> B15); strip
// cosmetic suffixes (-2B, -BUTT); strip directional -L/-R/-LH/-RH only when
// digit-preceded, so a drawer-count tail like VDB27AH-3 survives; strip
// finished-end markers (-FE, -FEL, -FER).
func (e *Engine) NormalizeCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return ""
	}

	for _, repair := range e.conf.Symbols {
		code = strings.ReplaceAll(code, strings.ToUpper(repair.From), repair.To)
	}
	code = reWhitespace.ReplaceAllString(code, "")

	if reSpuriousTen.MatchString(code) {
		code = reSpuriousTen.ReplaceAllString(code, "$1$2")
	}
	if reSpuriousZero.MatchString(code) {
		code = reSpuriousZero.ReplaceAllString(code, "$1$2")
	}

	// Suffixes can stack (B15-2B-FE); strip to a fixed point so the result
	// normalizes to itself.
	for {
		next := stripSuffixes(code)
		if next == code {
			break
		}
		code = next
	}

	return code
}

func stripSuffixes(code string) string {
	code = reCosmeticTwoB.ReplaceAllString(code, "")
	code = reCosmeticButt.ReplaceAllString(code, "")
	if reDirectional.MatchString(code) {
		code = reDirectionalTail.ReplaceAllString(code, "")
	}
	return reFinishedEnd.ReplaceAllString(code, "")
}
