// Package watcher refreshes the client sheet on an interval and emits alerts
// when the dashboard changes in a notable way.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blackwell-systems/clientdash/internal/analyzer"
	"github.com/blackwell-systems/clientdash/internal/source"
)

// WatchState captures what the watcher compares between two checks.
type WatchState struct {
	Timestamp    time.Time
	Version      uint64
	Origin       source.Origin
	TotalClients int
	TotalRevenue float64
	ActiveShare  float64 // percentage of clients classified Active
	Failed       bool
	Err          string

	clients map[string]bool
}

// Alert represents a notable event detected by the watcher.
type Alert struct {
	Level   string // "info", "warning", "critical"
	Title   string
	Message string
	Time    time.Time
}

// Refresher is the part of the data source controller the watcher drives.
type Refresher interface {
	Refresh(ctx context.Context) (*source.Snapshot, error)
	Snapshot() *source.Snapshot
}

// Watcher refreshes the dashboard data at a regular interval and emits alerts
// when notable changes are detected.
type Watcher struct {
	src           Refresher
	interval      time.Duration
	previous      *WatchState
	alertFn       func(Alert)     // callback for emitting alerts
	lastAlertKeys map[string]bool // dedup: suppress repeated identical alerts

	// RevenueDropPct is the relative revenue drop, in percent, that raises a
	// warning. Zero uses 10.
	RevenueDropPct float64
}

// New creates a Watcher over the given controller.
func New(src Refresher, interval time.Duration, alertFn func(Alert)) *Watcher {
	return &Watcher{
		src:           src,
		interval:      interval,
		alertFn:       alertFn,
		lastAlertKeys: make(map[string]bool),
	}
}

// Run starts the watch loop. It checks immediately, then at every interval.
// Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", w.interval)
	}

	w.emit(w.Check(ctx))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.emit(w.Check(ctx))
		}
	}
}

func (w *Watcher) emit(alerts []Alert) {
	if w.alertFn == nil {
		return
	}
	for _, a := range alerts {
		w.alertFn(a)
	}
}

// Check performs a single check cycle: refreshes the source, compares against
// the previous state, updates the previous state, and returns any alerts.
// Identical alerts are suppressed until the underlying data changes.
func (w *Watcher) Check(ctx context.Context) []Alert {
	curr := w.State(ctx)

	var raw []Alert
	if w.previous != nil {
		raw = compareWith(w.previous, curr, w.dropThreshold())
	} else if curr.Failed {
		raw = []Alert{refreshFailedAlert(curr)}
	}

	// Deduplicate: suppress alerts with the same title+message as last cycle.
	currentKeys := make(map[string]bool, len(raw))
	var alerts []Alert
	for _, a := range raw {
		key := a.Level + ":" + a.Title + ":" + a.Message
		currentKeys[key] = true
		if !w.lastAlertKeys[key] {
			alerts = append(alerts, a)
		}
	}
	w.lastAlertKeys = currentKeys

	w.previous = curr
	return alerts
}

// State refreshes the source and captures the result. A failed refresh
// still describes the retained snapshot, flagged as failed. A refresh
// superseded by a newer update describes the newer snapshot.
func (w *Watcher) State(ctx context.Context) *WatchState {
	snap, err := w.src.Refresh(ctx)
	if errors.Is(err, source.ErrSuperseded) {
		err = nil
	}
	if snap == nil {
		snap = w.src.Snapshot()
	}
	state := stateFrom(snap)
	if err != nil {
		state.Failed = true
		state.Err = err.Error()
	}
	return state
}

func stateFrom(snap *source.Snapshot) *WatchState {
	state := &WatchState{
		Timestamp:    time.Now(),
		Version:      snap.Version,
		Origin:       snap.Origin,
		TotalClients: snap.Metrics.TotalClients,
		TotalRevenue: snap.Metrics.TotalRevenue,
		ActiveShare:  snap.Status.Percentage(analyzer.CategoryActive),
		clients:      make(map[string]bool, snap.Records.Len()),
	}
	for _, r := range snap.Records.All() {
		state.clients[r.Name] = true
	}
	return state
}

func (w *Watcher) dropThreshold() float64 {
	if w.RevenueDropPct > 0 {
		return w.RevenueDropPct
	}
	return 10
}
