package engine

import (
	"regexp"
	"strconv"
	"strings"

	"cabquote/internal"
	"cabquote/internal/util"
)

var (
	reLettersDigits = regexp.MustCompile(`^([A-Z]+)(\d+)$`)
	reHeightTail    = regexp.MustCompile(`^([0-9A-Z]+)(\d{2})$`)
	reMiddleInfix   = regexp.MustCompile(`^([A-Z0-9]+)(\d{2})([A-Z]+)(-\d+)$`)
	reBaseFamily    = regexp.MustCompile(`^([A-Z]+)(\d+)`)
)

// Candidates derives the ordered, deduplicated list of lookup keys for an
// item. Order is priority: the resolver takes the first key that matches, so
// explicit codes come first, heuristic rewrites after, dimension-synthesized
// keys last.
func (e *Engine) Candidates(item internal.CabinetItem) []string {
	g := &keyGen{seen: map[string]struct{}{}}

	clean := e.NormalizeCode(item.OriginalCode)
	cleanNorm := e.NormalizeCode(item.NormalizedCode)

	// 1. Explicit codes, literal and canonical.
	g.add(item.OriginalCode)
	g.add(clean)
	if item.NormalizedCode != "" {
		g.add(item.NormalizedCode)
		g.add(cleanNorm)
	}

	// 2. Known letter-pair transpositions, both directions.
	for _, pair := range e.conf.Transpositions {
		if strings.Contains(clean, pair[0]) {
			g.add(strings.Replace(clean, pair[0], pair[1], 1))
		}
		if strings.Contains(clean, pair[1]) {
			g.add(strings.Replace(clean, pair[1], pair[0], 1))
		}
	}

	// 3. Height-suffix reduction: a trailing pair of digits in cabinet-height
	// range is often redundant for base/vanity pricing (3DB2136 -> 3DB21).
	if m := reHeightTail.FindStringSubmatch(clean); m != nil {
		if h, err := strconv.Atoi(m[2]); err == nil && h >= 30 && h <= 42 {
			g.add(m[1])
		}
	}

	// 4. Family remaps for misread prefixes, numeric remainder kept.
	for _, remap := range e.conf.FamilyRemaps {
		if strings.HasPrefix(clean, remap.Prefix) {
			remainder := clean[len(remap.Prefix):]
			for _, repl := range remap.Replacements {
				g.add(repl + remainder)
			}
		}
	}

	// 5. Drop a cosmetic letter infix: VDB27AH-3 -> VDB27-3.
	if m := reMiddleInfix.FindStringSubmatch(clean); m != nil {
		g.add(m[1] + m[2] + m[4])
	}

	// 6. Base-family fallback: the leading letters+digits run alone, with its
	// transposed sibling when the prefix is a known confusion.
	if m := reBaseFamily.FindStringSubmatch(clean); m != nil {
		g.add(m[1] + m[2])
		for _, pair := range e.conf.Transpositions {
			if m[1] == pair[0] {
				g.add(pair[1] + m[2])
			} else if m[1] == pair[1] {
				g.add(pair[0] + m[2])
			}
		}
	}

	// 7. Dash collapse when more than one dash is present.
	if strings.Count(clean, "-") > 1 {
		g.add(strings.ReplaceAll(clean, "-", ""))
	}

	// 8. Keys synthesized from dimensions, per cabinet family.
	if item.Width > 0 {
		w := util.FormatDim(item.Width)
		switch item.Type {
		case internal.TypeWall:
			h := item.Height
			if h == 0 {
				h = 30
			}
			g.add("W" + w + util.FormatDim(h))
			if item.Depth > 12 {
				g.add("W" + w + util.FormatDim(h) + "-24")
			}
		case internal.TypeBase:
			g.add("B" + w)
			g.add("DB" + w)
			g.add("SB" + w)
			g.add("3DB" + w)
			g.add("B" + w + "D")
		case internal.TypeTall:
			h := item.Height
			if h == 0 {
				h = 84
			}
			g.add("U" + w + util.FormatDim(h))
			g.add("T" + w + util.FormatDim(h))
		case internal.TypeFiller:
			g.add("F" + w)
		case internal.TypePanel:
			g.add("PNL" + w)
			g.add("BP" + w)
		}
	}

	return g.keys
}

type keyGen struct {
	keys []string
	seen map[string]struct{}
}

// add records a key plus its mechanical variants: a hyphenated form for a
// pure letters+digits key, and the bare base for a single-letter dash suffix.
func (g *keyGen) add(key string) {
	if key == "" {
		return
	}
	upper := util.CollapseKey(key)
	if upper == "" {
		return
	}
	g.push(upper)

	if m := reLettersDigits.FindStringSubmatch(upper); m != nil {
		g.push(m[1] + "-" + m[2])
	}

	if strings.Contains(upper, "-") {
		parts := strings.Split(upper, "-")
		if len(parts[0]) > 2 && len(parts[1]) == 1 {
			g.push(parts[0])
		}
	}
}

func (g *keyGen) push(key string) {
	if _, ok := g.seen[key]; ok {
		return
	}
	g.seen[key] = struct{}{}
	g.keys = append(g.keys, key)
}
