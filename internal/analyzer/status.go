package analyzer

import (
	"fmt"
	"math"
	"strings"

	"github.com/blackwell-systems/clientdash/internal/records"
)

// classifyRules are evaluated in order; the first rule with a matching
// substring wins.
var classifyRules = []struct {
	category Category
	needles  []string
}{
	{CategoryActive, []string{"active", "completed"}},
	{CategoryPending, []string{"pending", "progress"}},
	{CategoryInactive, []string{"inactive", "cancelled"}},
}

// Classify maps a free-text status to a Category using a case-insensitive
// substring match. Note that "inactive" contains "active", so it lands in
// Active under this precedence.
func Classify(status string) Category {
	s := strings.ToLower(status)
	for _, rule := range classifyRules {
		for _, n := range rule.needles {
			if strings.Contains(s, n) {
				return rule.category
			}
		}
	}
	return CategoryOther
}

// Breakdown groups records by Classify and returns the count and percentage
// for each category present, in display order.
func Breakdown(rs records.RecordSet) StatusBreakdown {
	total := rs.Len()
	if total == 0 {
		return StatusBreakdown{}
	}

	counts := make(map[Category]int, len(Categories))
	for i := 0; i < total; i++ {
		counts[Classify(rs.At(i).Status)]++
	}

	out := make(StatusBreakdown, 0, len(counts))
	exact := make([]float64, 0, len(counts))
	for _, c := range Categories {
		n := counts[c]
		if n == 0 {
			continue
		}
		pct := float64(n) / float64(total) * 100
		exact = append(exact, pct)
		out = append(out, StatusShare{
			Category:   c,
			Count:      n,
			Percentage: roundTo(pct, 1),
		})
	}
	correctDrift(out, exact)
	return out
}

// correctDrift nudges rounded percentages by a tenth, starting with the entry
// that rounding moved the furthest, until their sum is within 0.1 of 100.
func correctDrift(out StatusBreakdown, exact []float64) {
	const tolerance = 0.1 + 1e-9
	for range out {
		var sum float64
		for _, s := range out {
			sum += s.Percentage
		}
		drift := sum - 100
		if math.Abs(drift) <= tolerance {
			return
		}

		pick, worst := 0, math.Inf(-1)
		for i, s := range out {
			moved := s.Percentage - exact[i]
			if drift < 0 {
				moved = -moved
			}
			if moved > worst {
				pick, worst = i, moved
			}
		}
		if drift > 0 {
			out[pick].Percentage = roundTo(out[pick].Percentage-0.1, 1)
		} else {
			out[pick].Percentage = roundTo(out[pick].Percentage+0.1, 1)
		}
	}
}

// StatusSeries is the chart-facing projection of Breakdown.
func StatusSeries(rs records.RecordSet) StatusBreakdown {
	return Breakdown(rs)
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(name string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(name)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown status category %q", name)
}

// FilterByCategory returns the records whose status classifies as c, in
// their original order.
func FilterByCategory(rs records.RecordSet, c Category) records.RecordSet {
	var out []records.ClientRecord
	for _, r := range rs.All() {
		if Classify(r.Status) == c {
			out = append(out, r)
		}
	}
	return records.NewRecordSet(out)
}
