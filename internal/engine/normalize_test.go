package engine

import "testing"

func TestNormalizeCode(t *testing.T) {
	e := New()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "upper and trim", input: "  b15 ", want: "B15"},
		{name: "internal space", input: "W30 30", want: "W3030"},
		{name: "dollar for B", input: "3D$21", want: "3DB21"},
		{name: "at for zero", input: "W3@30", want: "W3030"},
		{name: "spurious ten", input: "BD1015", want: "BD15"},
		{name: "spurious zero", input: "B015", want: "B15"},
		{name: "cosmetic 2B", input: "B15-2B", want: "B15"},
		{name: "butt suffix", input: "W3612-BUTT", want: "W3612"},
		{name: "left after digit", input: "B12-L", want: "B12"},
		{name: "right hinge after digit", input: "SB36RH", want: "SB36"},
		{name: "drawer count survives", input: "VDB27AH-3", want: "VDB27AH-3"},
		{name: "finished end", input: "B15-FE", want: "B15"},
		{name: "finished end left", input: "W3030-FEL", want: "W3030"},
		{name: "stacked suffixes", input: "B15-2B-FE", want: "B15"},
		{name: "empty", input: "", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.NormalizeCode(tc.input)
			if got != tc.want {
				t.Fatalf("normalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeCodeIdempotent(t *testing.T) {
	e := New()
	inputs := []string{
		"B015", "BD1015", "W30 30", "3D$21", "VDB27AH-3", "B15-2B-FE",
		"b12-lh", "SB36-FER", "W3612BUTT", "PAGE 1 OF 3", "", "---", "B15-FE-FE",
	}
	for _, in := range inputs {
		once := e.NormalizeCode(in)
		twice := e.NormalizeCode(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}
