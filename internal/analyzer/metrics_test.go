package analyzer

import (
	"math"
	"testing"

	"github.com/blackwell-systems/clientdash/internal/records"
)

func TestAggregate_Empty(t *testing.T) {
	m := Aggregate(records.RecordSet{})

	if m.TotalClients != 0 || m.TotalRevenue != 0 || m.TotalHeadshots != 0 || m.ActiveClients != 0 {
		t.Errorf("expected zero totals, got %+v", m)
	}
	if m.AveragePrice != nil {
		t.Errorf("AveragePrice = %v, want nil", *m.AveragePrice)
	}
	if m.ActiveRatio != nil {
		t.Errorf("ActiveRatio = %v, want nil", *m.ActiveRatio)
	}
}

func TestAggregate_Totals(t *testing.T) {
	rs := records.NewRecordSet([]records.ClientRecord{
		{Name: "Alpha", HeadshotCount: "10", Price: "$1,200.50", Status: "Completed"},
		{Name: "Bravo", HeadshotCount: "5", Price: "1200.5", Status: "In progress"},
		{Name: "Charlie", HeadshotCount: "n/a", Price: "N/A", Status: "Active"},
		{Name: "Delta", HeadshotCount: "2.5", Price: "", Status: ""},
	})

	m := Aggregate(rs)

	if m.TotalClients != 4 {
		t.Errorf("TotalClients = %d, want 4", m.TotalClients)
	}
	if m.TotalHeadshots != 17 {
		t.Errorf("TotalHeadshots = %d, want 17", m.TotalHeadshots)
	}
	if math.Abs(m.TotalRevenue-2401) > 1e-9 {
		t.Errorf("TotalRevenue = %v, want 2401", m.TotalRevenue)
	}
	if m.ActiveClients != 2 {
		t.Errorf("ActiveClients = %d, want 2", m.ActiveClients)
	}
	if m.AveragePrice == nil || math.Abs(*m.AveragePrice-600.25) > 1e-9 {
		t.Errorf("AveragePrice = %v, want 600.25", m.AveragePrice)
	}
	if m.ActiveRatio == nil || *m.ActiveRatio != 0.5 {
		t.Errorf("ActiveRatio = %v, want 0.5", m.ActiveRatio)
	}
}

func TestAggregate_ActiveCountMatchesBreakdown(t *testing.T) {
	rs := recordsWithStatuses("Active", "Inactive", "cancelled", "completed", "pending", "")
	m := Aggregate(rs)
	b := Breakdown(rs)

	if m.ActiveClients != b.Count(CategoryActive) {
		t.Errorf("ActiveClients = %d, breakdown Active = %d", m.ActiveClients, b.Count(CategoryActive))
	}
}
