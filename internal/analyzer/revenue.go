package analyzer

import (
	"strings"
	"time"

	"github.com/blackwell-systems/clientdash/internal/records"
)

// RevenueOptions configures the revenue series window and its target line.
type RevenueOptions struct {
	// Periods is the number of calendar months in the window, ending with
	// the month of Now. Defaults to 6.
	Periods int

	// Baseline is the target for the first period.
	Baseline float64

	// Increment is added to the target for each following period.
	Increment float64

	// Now anchors the window. Zero means time.Now().
	Now time.Time
}

// dateLayouts are tried in order when bucketing a record by its Date cell.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"2006-01",
	"Jan 2006",
	"January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// RevenueSeries buckets revenue by calendar month. Records without a usable
// Date, or dated outside the window, fall into the current month. Months
// that receive no record are zero-filled with Measured set to false.
func RevenueSeries(rs records.RecordSet, opts RevenueOptions) []RevenuePoint {
	periods := opts.Periods
	if periods <= 0 {
		periods = 6
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	current := monthIndex(now)
	first := current - periods + 1

	actual := make([]float64, periods)
	measured := make([]bool, periods)
	for i := 0; i < rs.Len(); i++ {
		r := rs.At(i)
		slot := periods - 1
		if t, ok := parseDate(r.Date); ok {
			if idx := monthIndex(t) - first; idx >= 0 && idx < periods {
				slot = idx
			}
		}
		price, _ := ParseNumber(r.Price)
		actual[slot] += price
		measured[slot] = true
	}

	out := make([]RevenuePoint, periods)
	for i := range out {
		idx := first + i
		label := time.Date(idx/12, time.Month(idx%12+1), 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
		out[i] = RevenuePoint{
			Period:          label,
			Actual:          actual[i],
			Measured:        measured[i],
			SyntheticTarget: opts.Baseline + float64(i)*opts.Increment,
		}
	}
	return out
}

// monthIndex returns a monotonically increasing month number for t.
func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
