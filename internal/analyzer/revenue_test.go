package analyzer

import (
	"testing"
	"time"

	"github.com/blackwell-systems/clientdash/internal/records"
)

var revenueNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func TestRevenueSeries_UndatedRecordsFallIntoCurrentPeriod(t *testing.T) {
	rs := records.NewRecordSet([]records.ClientRecord{
		{Name: "Alpha", Price: "$1,000"},
		{Name: "Bravo", Price: "500"},
	})

	series := RevenueSeries(rs, RevenueOptions{Periods: 6, Baseline: 45000, Increment: 2000, Now: revenueNow})
	if len(series) != 6 {
		t.Fatalf("got %d points, want 6", len(series))
	}

	wantLabels := []string{"Oct 2025", "Nov 2025", "Dec 2025", "Jan 2026", "Feb 2026", "Mar 2026"}
	for i, p := range series {
		if p.Period != wantLabels[i] {
			t.Errorf("point %d period = %q, want %q", i, p.Period, wantLabels[i])
		}
		if want := 45000 + float64(i)*2000; p.SyntheticTarget != want {
			t.Errorf("point %d target = %v, want %v", i, p.SyntheticTarget, want)
		}
	}

	last := series[5]
	if last.Actual != 1500 || !last.Measured {
		t.Errorf("current period = %+v, want actual 1500 measured", last)
	}
	for _, p := range series[:5] {
		if p.Actual != 0 || p.Measured {
			t.Errorf("period %s should be an unmeasured zero fill, got %+v", p.Period, p)
		}
	}
}

func TestRevenueSeries_BucketsByDate(t *testing.T) {
	rs := records.NewRecordSet([]records.ClientRecord{
		{Name: "Alpha", Price: "100", Date: "2026-01-20"},
		{Name: "Bravo", Price: "200", Date: "01/05/2026"},
		{Name: "Charlie", Price: "300", Date: "Feb 2026"},
		{Name: "Delta", Price: "400", Date: "2019-01-01"},
		{Name: "Echo", Price: "500", Date: "not a date"},
	})

	series := RevenueSeries(rs, RevenueOptions{Periods: 3, Now: revenueNow})
	want := []struct {
		period   string
		actual   float64
		measured bool
	}{
		{"Jan 2026", 300, true},
		{"Feb 2026", 300, true},
		{"Mar 2026", 900, true},
	}
	for i, w := range want {
		p := series[i]
		if p.Period != w.period || p.Actual != w.actual || p.Measured != w.measured {
			t.Errorf("point %d = %+v, want %+v", i, p, w)
		}
	}
}

func TestRevenueSeries_DefaultsAndDeterminism(t *testing.T) {
	a := RevenueSeries(records.RecordSet{}, RevenueOptions{Now: revenueNow})
	b := RevenueSeries(records.RecordSet{}, RevenueOptions{Now: revenueNow})

	if len(a) != 6 {
		t.Fatalf("default periods = %d, want 6", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("series not deterministic at %d: %+v vs %+v", i, a[i], b[i])
		}
		if a[i].Measured {
			t.Errorf("empty record set should not produce measured periods")
		}
	}
}

func TestRevenueSeries_YearBoundary(t *testing.T) {
	now := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)
	series := RevenueSeries(records.RecordSet{}, RevenueOptions{Periods: 2, Now: now})
	if series[0].Period != "Dec 2025" || series[1].Period != "Jan 2026" {
		t.Errorf("unexpected labels %q, %q", series[0].Period, series[1].Period)
	}
}
