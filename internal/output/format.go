package output

import (
	"math"
	"strconv"
	"strings"

	"github.com/blackwell-systems/clientdash/internal/analyzer"
)

// Currency formats v as dollars with thousands separators and at most three
// fraction digits, trailing zeros trimmed: 1200.5 -> "$1,200.5".
func Currency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := strconv.FormatFloat(math.Round(v*1000)/1000, 'f', 3, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	frac = strings.TrimRight(frac, "0")

	out := sign + "$" + group(intPart)
	if frac != "" {
		out += "." + frac
	}
	return out
}

// OptionalCurrency formats v, or "n/a" when v is nil.
func OptionalCurrency(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return Currency(*v)
}

// Price formats a raw price cell for display. Cells with no parseable number
// are shown verbatim.
func Price(raw string) string {
	v, ok := analyzer.ParseNumber(raw)
	if !ok {
		return raw
	}
	return Currency(v)
}

// Percent formats a ratio in [0,1] as "42.0%", or "n/a" when nil.
func Percent(ratio *float64) string {
	if ratio == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*ratio*100, 'f', 1, 64) + "%"
}

// group inserts thousands separators into a string of digits.
func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var sb strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		sb.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
