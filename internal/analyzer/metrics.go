package analyzer

import "github.com/blackwell-systems/clientdash/internal/records"

// Aggregate computes the dashboard summary metrics in a single pass.
func Aggregate(rs records.RecordSet) Metrics {
	m := Metrics{TotalClients: rs.Len()}
	if m.TotalClients == 0 {
		return m
	}

	for i := 0; i < rs.Len(); i++ {
		r := rs.At(i)
		m.TotalHeadshots += parseCount(r.HeadshotCount)
		price, _ := ParseNumber(r.Price)
		m.TotalRevenue += price
		if Classify(r.Status) == CategoryActive {
			m.ActiveClients++
		}
	}

	n := float64(m.TotalClients)
	avg := m.TotalRevenue / n
	ratio := float64(m.ActiveClients) / n
	m.AveragePrice = &avg
	m.ActiveRatio = &ratio

	return m
}
