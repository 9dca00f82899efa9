package util

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	reMoney  = regexp.MustCompile(`\$?\s*(\d{1,3}(?:,\d{3})+|\d+)(\.\d+)?`)
	reNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// ToFloat coerces loosely typed upstream values (JSON payloads, spreadsheet
// cells) to a float, falling back instead of failing.
func ToFloat(v any, fallback float64) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
	case string:
		if f, ok := ParseNumber(t); ok {
			return f
		}
	}
	return fallback
}

func ToInt(v any, fallback int) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
	case string:
		if f, ok := ParseNumber(t); ok {
			return int(f)
		}
	}
	return fallback
}

func ToString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// ParseNumber reads the first numeric token out of a cell or fragment,
// tolerating currency signs and thousands separators.
func ParseNumber(input string) (float64, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, false
	}
	m := reMoney.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	token := strings.ReplaceAll(m[1], ",", "") + m[2]
	parsed, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// ParseMoney is ParseNumber restricted to non-negative results; malformed or
// negative input degrades to 0.
func ParseMoney(input string) float64 {
	v, ok := ParseNumber(input)
	if !ok || v < 0 {
		return 0
	}
	return v
}

// ParseQuantity reads a count, defaulting to 1 on missing or invalid input.
func ParseQuantity(input string) int {
	v, ok := ParseNumber(input)
	if !ok || v < 1 {
		return 1
	}
	return int(v)
}

// ParseDimension reads an inch measurement like `24`, `34.5` or `15"`,
// 0 meaning unknown.
func ParseDimension(input string) float64 {
	m := reNumber.FindString(input)
	if m == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(m, 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

// FormatDim renders an inch value the way it appears inside SKUs: no
// exponent, no trailing zeros (15, 34.5).
func FormatDim(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
