package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cabquote/internal"
)

// Resolution is a successful catalog lookup with full provenance: which
// strategy fired, the concrete catalog key it matched, and the tier price.
type Resolution struct {
	Price      float64
	Source     string
	MatchedSKU string
	Strategy   string
}

// A matchStrategy is one independent, pure rule of the cascade. It returns
// the catalog entry it found, the key that held it, and a human-readable
// method label for the provenance string.
type matchStrategy struct {
	name string
	try  func(key string, catalog internal.Catalog) (entry map[string]float64, matched string, method string, ok bool)
}

var strategies = []matchStrategy{
	{name: "exact", try: tryExact},
	{name: "hyphen-insensitive", try: tryHyphenInsensitive},
	{name: "hyphen-insertion", try: tryHyphenInsertion},
	{name: "neighbor", try: tryNeighborHeight},
	{name: "suffix-strip", try: trySuffixStrip},
	{name: "core-extraction", try: tryCoreExtraction},
}

var (
	reDash         = regexp.MustCompile(`\x{2013}|\x{2014}`)
	reTrailDigits  = regexp.MustCompile(`(\d+)$`)
	reNeighborCode = regexp.MustCompile(`^([A-Z]{1,2}\d{2})(\d{2})([A-Z]*)$`)
	reCoreRun      = regexp.MustCompile(`^[A-Z]{1,4}\d{2,5}`)
)

// normalizeLookup applies the catalog-key invariant to a query: upper-case,
// typographic dashes folded, all whitespace removed.
func normalizeLookup(sku string) string {
	s := strings.ToUpper(strings.TrimSpace(sku))
	s = reDash.ReplaceAllString(s, "-")
	return reWhitespace.ReplaceAllString(s, "")
}

// ResolveCode runs the full matching cascade for a single key and picks the
// tier price from the first entry any strategy finds. Returns nil when no
// strategy matches; the caller then moves to its next candidate key.
func ResolveCode(key string, catalog internal.Catalog, tierName string) *Resolution {
	clean := normalizeLookup(key)
	if clean == "" || clean == "UNKNOWN" || len(catalog) == 0 {
		return nil
	}

	for _, s := range strategies {
		entry, matched, method, ok := s.try(clean, catalog)
		if !ok || len(entry) == 0 {
			continue
		}
		if res := tierPrice(entry, tierName, matched, method); res != nil {
			res.Strategy = s.name
			return res
		}
	}
	return nil
}

func tryExact(key string, catalog internal.Catalog) (map[string]float64, string, string, bool) {
	entry, ok := catalog[key]
	return entry, key, "Exact", ok
}

func tryHyphenInsensitive(key string, catalog internal.Catalog) (map[string]float64, string, string, bool) {
	noDash := strings.ReplaceAll(key, "-", "")
	if noDash == key {
		return nil, "", "", false
	}
	entry, ok := catalog[noDash]
	return entry, noDash, "Hyphen-Insensitive", ok
}

// tryHyphenInsertion splits a trailing digit run off a letter: VDB27AH3 is
// often catalogued as VDB27AH-3.
func tryHyphenInsertion(key string, catalog internal.Catalog) (map[string]float64, string, string, bool) {
	m := reTrailDigits.FindStringSubmatch(key)
	if m == nil {
		return nil, "", "", false
	}
	prefix := key[:len(key)-len(m[1])]
	if prefix == "" || prefix[len(prefix)-1] < 'A' || prefix[len(prefix)-1] > 'Z' {
		return nil, "", "", false
	}
	candidate := prefix + "-" + m[1]
	entry, ok := catalog[candidate]
	return entry, candidate, "Inserted-Hyphen", ok
}

// tryNeighborHeight walks the height digits of a {prefix}{width}{height}
// shaped key outward by one then two inches, with and without the trailing
// letters. Wall runs come in close height steps, so the nearest neighbor is
// the right price surrogate.
func tryNeighborHeight(key string, catalog internal.Catalog) (map[string]float64, string, string, bool) {
	m := reNeighborCode.FindStringSubmatch(key)
	if m == nil {
		return nil, "", "", false
	}
	prefix, suffix := m[1], m[3]
	h, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, "", "", false
	}

	for _, nh := range []int{h + 1, h - 1, h + 2, h - 2} {
		candidate := fmt.Sprintf("%s%d%s", prefix, nh, suffix)
		if entry, ok := catalog[candidate]; ok {
			return entry, candidate, fmt.Sprintf("Neighbor (Matched %s)", candidate), true
		}
		if suffix != "" {
			bare := fmt.Sprintf("%s%d", prefix, nh)
			if entry, ok := catalog[bare]; ok {
				return entry, bare, fmt.Sprintf("Neighbor (Matched %s)", bare), true
			}
		}
	}
	return nil, "", "", false
}

// trySuffixStrip shortens the key from the right, one rune at a time, down to
// three characters. The stripped remainder goes into the provenance string
// for audit.
func trySuffixStrip(key string, catalog internal.Catalog) (map[string]float64, string, string, bool) {
	for i := len(key) - 1; i > 2; i-- {
		sub := key[:i]
		if entry, ok := catalog[sub]; ok {
			return entry, sub, fmt.Sprintf("Similar (Stripped %s)", key[i:]), true
		}
	}
	return nil, "", "", false
}

func tryCoreExtraction(key string, catalog internal.Catalog) (map[string]float64, string, string, bool) {
	core := reCoreRun.FindString(key)
	if core == "" {
		return nil, "", "", false
	}
	entry, ok := catalog[core]
	return entry, core, "Core Extraction", ok
}

// tierPrice selects a price out of a catalog entry: exact tier name, then a
// case-insensitive substring match in either direction, then the first
// available column as a last resort. Tier names are walked in sorted order so
// the fallback is deterministic.
func tierPrice(entry map[string]float64, tierName, matchedSKU, method string) *Resolution {
	if price, ok := entry[tierName]; ok {
		return &Resolution{
			Price:      price,
			Source:     fmt.Sprintf("Catalog (%s Tier)", method),
			MatchedSKU: matchedSKU,
		}
	}

	names := make([]string, 0, len(entry))
	for name := range entry {
		names = append(names, name)
	}
	sort.Strings(names)

	want := strings.ToLower(tierName)
	for _, name := range names {
		if want == "" {
			break
		}
		have := strings.ToLower(name)
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return &Resolution{
				Price:      entry[name],
				Source:     fmt.Sprintf("Catalog (%s Fuzzy '%s')", method, name),
				MatchedSKU: matchedSKU,
			}
		}
	}

	if len(names) > 0 {
		return &Resolution{
			Price:      entry[names[0]],
			Source:     fmt.Sprintf("Catalog (%s Fallback '%s')", method, names[0]),
			MatchedSKU: matchedSKU,
		}
	}
	return nil
}
