// Package analyzer derives dashboard metrics, status breakdowns and chart
// series from a client RecordSet. Every function is a pure single pass over
// its input.
package analyzer

// Category is the normalized status bucket of a client.
type Category string

const (
	CategoryActive   Category = "Active"
	CategoryPending  Category = "Pending"
	CategoryInactive Category = "Inactive"
	CategoryOther    Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryActive, CategoryPending, CategoryInactive, CategoryOther}

// Metrics are the scalar summary statistics shown on the dashboard cards.
type Metrics struct {
	// TotalClients is the number of records.
	TotalClients int `json:"total_clients"`

	// TotalHeadshots sums the parsed headshot counts; unparseable cells count as 0.
	TotalHeadshots int `json:"total_headshots"`

	// TotalRevenue sums the parsed prices; unparseable cells count as 0.
	TotalRevenue float64 `json:"total_revenue"`

	// ActiveClients counts records whose status classifies as Active.
	ActiveClients int `json:"active_clients"`

	// AveragePrice is TotalRevenue / TotalClients. Nil when there are no clients.
	AveragePrice *float64 `json:"average_price"`

	// ActiveRatio is ActiveClients / TotalClients. Nil when there are no clients.
	ActiveRatio *float64 `json:"active_ratio"`
}

// StatusShare is one category entry of a StatusBreakdown.
type StatusShare struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`

	// Percentage is count/total*100 rounded to one decimal.
	Percentage float64 `json:"percentage"`
}

// StatusBreakdown lists the categories present in a RecordSet in display
// order. It is empty when the RecordSet is empty.
type StatusBreakdown []StatusShare

// Count returns the count for c, or 0 when c is absent.
func (b StatusBreakdown) Count(c Category) int {
	for _, s := range b {
		if s.Category == c {
			return s.Count
		}
	}
	return 0
}

// Percentage returns the percentage for c, or 0 when c is absent.
func (b StatusBreakdown) Percentage(c Category) float64 {
	for _, s := range b {
		if s.Category == c {
			return s.Percentage
		}
	}
	return 0
}

// RevenuePoint is one period of the revenue chart.
type RevenuePoint struct {
	// Period is the display label, e.g. "Mar 2026".
	Period string `json:"period"`

	// Actual is the summed revenue of the records bucketed into this period.
	Actual float64 `json:"actual"`

	// Measured is false when no record fell into this period and Actual is a
	// zero fill.
	Measured bool `json:"measured"`

	// SyntheticTarget is a configured goal line, not derived from data.
	SyntheticTarget float64 `json:"synthetic_target"`
}
