package watcher

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/blackwell-systems/clientdash/internal/source"
)

// activeShiftPoints is the change in active share, in percentage points,
// worth reporting.
const activeShiftPoints = 5.0

// maxListedClients caps how many names an alert message spells out.
const maxListedClients = 3

// Compare detects notable changes between two watch states and returns alerts.
// It checks for critical, warning, and info-level changes.
func Compare(prev, curr *WatchState) []Alert {
	return compareWith(prev, curr, 10)
}

func compareWith(prev, curr *WatchState, dropPct float64) []Alert {
	var alerts []Alert

	alerts = append(alerts, compareCritical(prev, curr)...)
	if curr.Failed {
		// A failed refresh retains the old snapshot; there is nothing new
		// to compare.
		return alerts
	}
	alerts = append(alerts, compareWarning(prev, curr, dropPct)...)
	alerts = append(alerts, compareInfo(prev, curr)...)

	return alerts
}

// compareCritical detects critical-level changes.
func compareCritical(prev, curr *WatchState) []Alert {
	if curr.Failed && !prev.Failed {
		return []Alert{refreshFailedAlert(curr)}
	}
	return nil
}

func refreshFailedAlert(curr *WatchState) Alert {
	return Alert{
		Level:   "critical",
		Title:   "Refresh failed",
		Message: fmt.Sprintf("Showing data from version %d: %s", curr.Version, curr.Err),
		Time:    time.Now(),
	}
}

// compareWarning detects warning-level changes.
func compareWarning(prev, curr *WatchState, dropPct float64) []Alert {
	var alerts []Alert
	now := time.Now()

	if removed := diffClients(prev.clients, curr.clients); len(removed) > 0 {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   fmt.Sprintf("%d client(s) removed", len(removed)),
			Message: listClients(removed),
			Time:    now,
		})
	}

	if prev.TotalRevenue > 0 && curr.TotalRevenue < prev.TotalRevenue {
		drop := (prev.TotalRevenue - curr.TotalRevenue) / prev.TotalRevenue * 100
		if drop >= dropPct {
			alerts = append(alerts, Alert{
				Level:   "warning",
				Title:   "Revenue dropped",
				Message: fmt.Sprintf("Total revenue fell from $%.2f to $%.2f (-%.0f%%)", prev.TotalRevenue, curr.TotalRevenue, drop),
				Time:    now,
			})
		}
	}

	if prev.TotalClients > 0 && curr.TotalClients > 0 && prev.ActiveShare-curr.ActiveShare >= activeShiftPoints {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   "Active share dropped",
			Message: fmt.Sprintf("Active clients are %.1f%% of the total (was %.1f%%)", curr.ActiveShare, prev.ActiveShare),
			Time:    now,
		})
	}

	return alerts
}

// compareInfo detects informational changes.
func compareInfo(prev, curr *WatchState) []Alert {
	var alerts []Alert
	now := time.Now()

	if prev.Failed {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "Refresh recovered",
			Message: fmt.Sprintf("Dashboard data loaded again (%d clients)", curr.TotalClients),
			Time:    now,
		})
	}

	if curr.Version != prev.Version && curr.Origin == source.OriginExternal {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "Dashboard updated",
			Message: "Data was replaced by an assistant update",
			Time:    now,
		})
	}

	if added := diffClients(curr.clients, prev.clients); len(added) > 0 {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   fmt.Sprintf("%d new client(s)", len(added)),
			Message: listClients(added),
			Time:    now,
		})
	}

	if curr.TotalRevenue > prev.TotalRevenue {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "Revenue increased",
			Message: fmt.Sprintf("Total revenue rose from $%.2f to $%.2f", prev.TotalRevenue, curr.TotalRevenue),
			Time:    now,
		})
	}

	if prev.TotalClients > 0 && curr.TotalClients > 0 && curr.ActiveShare-prev.ActiveShare >= activeShiftPoints {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "Active share increased",
			Message: fmt.Sprintf("Active clients are %.1f%% of the total (was %.1f%%)", curr.ActiveShare, prev.ActiveShare),
			Time:    now,
		})
	}

	return alerts
}

// diffClients returns the names in a that are not in b, sorted.
func diffClients(a, b map[string]bool) []string {
	var out []string
	for name := range a {
		if !b[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func listClients(names []string) string {
	if len(names) <= maxListedClients {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(names[:maxListedClients], ", "), len(names)-maxListedClients)
}
