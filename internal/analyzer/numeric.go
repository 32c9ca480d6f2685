package analyzer

import (
	"strconv"
	"strings"
)

// ParseNumber coerces spreadsheet text such as "$1,200.50" to a float. Every
// rune that is not a digit, sign or decimal point is removed before parsing.
// The second result is false when nothing parseable remains, in which case
// the value is 0.
func ParseNumber(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-', r == '+':
			return r
		default:
			return -1
		}
	}, s)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseCount coerces a headshot cell to an integer, truncating any fraction.
func parseCount(s string) int {
	v, _ := ParseNumber(s)
	return int(v)
}
