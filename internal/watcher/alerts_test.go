package watcher

import (
	"strings"
	"testing"

	"github.com/blackwell-systems/clientdash/internal/source"
)

func makeState(revenue, activeShare float64, names ...string) *WatchState {
	s := &WatchState{
		Version:      1,
		Origin:       source.OriginFetch,
		TotalClients: len(names),
		TotalRevenue: revenue,
		ActiveShare:  activeShare,
		clients:      make(map[string]bool),
	}
	for _, n := range names {
		s.clients[n] = true
	}
	return s
}

func titles(alerts []Alert) []string {
	var out []string
	for _, a := range alerts {
		out = append(out, a.Level+": "+a.Title)
	}
	return out
}

func findAlert(alerts []Alert, title string) *Alert {
	for i := range alerts {
		if alerts[i].Title == title {
			return &alerts[i]
		}
	}
	return nil
}

func TestCompare_NoChanges(t *testing.T) {
	prev := makeState(5000, 50, "Acme", "Bolt")
	curr := makeState(5000, 50, "Acme", "Bolt")

	alerts := Compare(prev, curr)
	if len(alerts) != 0 {
		t.Errorf("expected 0 alerts for identical states, got %v", titles(alerts))
	}
}

func TestCompare_EmptyStates(t *testing.T) {
	alerts := Compare(makeState(0, 0), makeState(0, 0))
	if len(alerts) != 0 {
		t.Errorf("expected 0 alerts for empty identical states, got %v", titles(alerts))
	}
}

func TestCompare_NewAndRemovedClients(t *testing.T) {
	prev := makeState(1000, 50, "Acme", "Bolt")
	curr := makeState(1000, 50, "Acme", "Cinder", "Dune")

	alerts := Compare(prev, curr)

	added := findAlert(alerts, "2 new client(s)")
	if added == nil {
		t.Fatalf("expected new clients alert, got %v", titles(alerts))
	}
	if added.Level != "info" || added.Message != "Cinder, Dune" {
		t.Errorf("unexpected alert: %+v", *added)
	}

	removed := findAlert(alerts, "1 client(s) removed")
	if removed == nil {
		t.Fatalf("expected removed clients alert, got %v", titles(alerts))
	}
	if removed.Level != "warning" || removed.Message != "Bolt" {
		t.Errorf("unexpected alert: %+v", *removed)
	}
}

func TestCompare_ManyNewClientsAreSummarized(t *testing.T) {
	prev := makeState(0, 0)
	curr := makeState(0, 0, "A", "B", "C", "D", "E")

	a := findAlert(Compare(prev, curr), "5 new client(s)")
	if a == nil {
		t.Fatal("expected new clients alert")
	}
	if a.Message != "A, B, C and 2 more" {
		t.Errorf("message = %q", a.Message)
	}
}

func TestCompare_Revenue(t *testing.T) {
	tests := []struct {
		name      string
		prev      float64
		curr      float64
		wantTitle string
		wantLevel string
	}{
		{"large drop", 10000, 8000, "Revenue dropped", "warning"},
		{"small drop ignored", 10000, 9500, "", ""},
		{"increase", 10000, 10001, "Revenue increased", "info"},
		{"from zero", 0, 200, "Revenue increased", "info"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			alerts := Compare(makeState(tc.prev, 50, "A"), makeState(tc.curr, 50, "A"))
			if tc.wantTitle == "" {
				if len(alerts) != 0 {
					t.Errorf("expected no alerts, got %v", titles(alerts))
				}
				return
			}
			a := findAlert(alerts, tc.wantTitle)
			if a == nil {
				t.Fatalf("expected %q, got %v", tc.wantTitle, titles(alerts))
			}
			if a.Level != tc.wantLevel {
				t.Errorf("level = %q, want %q", a.Level, tc.wantLevel)
			}
		})
	}
}

func TestCompare_RevenueDropThreshold(t *testing.T) {
	prev := makeState(10000, 50, "A")
	curr := makeState(9500, 50, "A")

	if a := findAlert(compareWith(prev, curr, 5), "Revenue dropped"); a == nil {
		t.Error("expected drop alert at a 5% threshold")
	}
}

func TestCompare_ActiveShareShift(t *testing.T) {
	alerts := Compare(makeState(0, 60, "A", "B"), makeState(0, 50, "A", "B"))
	a := findAlert(alerts, "Active share dropped")
	if a == nil {
		t.Fatalf("expected active share alert, got %v", titles(alerts))
	}
	if !strings.Contains(a.Message, "50.0%") || !strings.Contains(a.Message, "60.0%") {
		t.Errorf("message = %q", a.Message)
	}

	alerts = Compare(makeState(0, 50, "A", "B"), makeState(0, 75, "A", "B"))
	if findAlert(alerts, "Active share increased") == nil {
		t.Errorf("expected active share increase, got %v", titles(alerts))
	}

	alerts = Compare(makeState(0, 50, "A", "B"), makeState(0, 52, "A", "B"))
	if len(alerts) != 0 {
		t.Errorf("small shift should not alert, got %v", titles(alerts))
	}
}

func TestCompare_RefreshFailedAndRecovered(t *testing.T) {
	ok := makeState(1000, 50, "A")
	failed := makeState(1000, 50, "A")
	failed.Failed = true
	failed.Err = "unexpected status 502"

	alerts := Compare(ok, failed)
	if len(alerts) != 1 || alerts[0].Level != "critical" || alerts[0].Title != "Refresh failed" {
		t.Fatalf("expected one critical alert, got %v", titles(alerts))
	}
	if !strings.Contains(alerts[0].Message, "502") {
		t.Errorf("message = %q", alerts[0].Message)
	}

	if alerts := Compare(failed, failed); len(alerts) != 0 {
		t.Errorf("repeated failure should not alert again, got %v", titles(alerts))
	}

	recovered := makeState(1000, 50, "A")
	recovered.Version = 2
	if findAlert(Compare(failed, recovered), "Refresh recovered") == nil {
		t.Error("expected recovery alert")
	}
}

func TestCompare_ExternalUpdate(t *testing.T) {
	prev := makeState(1000, 50, "A")
	curr := makeState(1000, 50, "A")
	curr.Version = 2
	curr.Origin = source.OriginExternal

	if findAlert(Compare(prev, curr), "Dashboard updated") == nil {
		t.Error("expected dashboard updated alert")
	}
}
