package engine

// Confusions captures the OCR failure modes observed for a manufacturer's
// documents. Every repair the normalizer and key generator apply beyond
// generic cleanup is data here, so a new manufacturer ships a table, not code.
type Confusions struct {
	// Symbols are literal sequence repairs applied before whitespace removal,
	// in order.
	Symbols []SymbolRepair
	// Transpositions are letter-run pairs tried in both directions when
	// generating candidate keys (a misread prefix like VDB/VBD).
	Transpositions [][2]string
	// FamilyRemaps substitute a whole code family for a misread prefix,
	// keeping the numeric remainder.
	FamilyRemaps []FamilyRemap
}

type SymbolRepair struct {
	From string
	To   string
}

type FamilyRemap struct {
	Prefix       string
	Replacements []string
}

// DefaultConfusions is the table for the vendors seen so far: dollar-sign for
// B, a mojibake euro sequence for E, at-sign for zero, the vanity drawer-base
// transposition, and the wall-diagonal prefix that is usually a misread
// vanity or sink base.
func DefaultConfusions() Confusions {
	return Confusions{
		Symbols: []SymbolRepair{
			{From: "$", To: "B"},
			{From: "â‚¬", To: "E"},
			{From: "Â‚¬", To: "E"},
			{From: "@", To: "0"},
		},
		Transpositions: [][2]string{
			{"VDB", "VBD"},
		},
		FamilyRemaps: []FamilyRemap{
			{Prefix: "WDH", Replacements: []string{"VDB", "VBD", "VSB", "SB", "DB", "B"}},
		},
	}
}
