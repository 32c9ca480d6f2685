// Package source owns the lifecycle of the authoritative client RecordSet:
// loading it from the sheet, refreshing it, and replacing it from external
// updates. Every commit publishes an immutable Snapshot whose derivations
// were computed before it became visible.
package source

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/blackwell-systems/clientdash/internal/analyzer"
	"github.com/blackwell-systems/clientdash/internal/logger"
	"github.com/blackwell-systems/clientdash/internal/records"
)

const logModule = "source"

// State is the lifecycle state of a Controller.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Origin records what produced a Snapshot.
type Origin string

const (
	OriginNone     Origin = ""
	OriginFetch    Origin = "fetch"
	OriginExternal Origin = "external_update"
)

// Snapshot is an immutable view of the RecordSet together with every
// derivation computed from it.
type Snapshot struct {
	// Version increases by one with every commit. The initial empty
	// snapshot is version 0.
	Version     uint64                   `json:"version"`
	Origin      Origin                   `json:"origin,omitempty"`
	LoadedAt    time.Time                `json:"loaded_at"`
	Records     records.RecordSet        `json:"-"`
	Diagnostics records.Diagnostics      `json:"diagnostics"`
	Metrics     analyzer.Metrics         `json:"metrics"`
	Status      analyzer.StatusBreakdown `json:"status"`
	Revenue     []analyzer.RevenuePoint  `json:"revenue"`
}

// EventKind identifies a Controller notification.
type EventKind string

const (
	EventLoaded  EventKind = "loaded"
	EventUpdated EventKind = "external_update"
	EventFailed  EventKind = "failed"
)

// Event is delivered to subscribers after a commit or a failed load.
type Event struct {
	Kind    EventKind
	Version uint64
	Err     error
	Time    time.Time
}

// Options configures a Controller.
type Options struct {
	// Revenue configures the revenue series; its Now field is ignored in
	// favor of the controller clock at commit time.
	Revenue analyzer.RevenueOptions

	Logger logger.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Controller is the single owner of the RecordSet.
type Controller struct {
	fetcher Fetcher
	log     logger.Logger
	revenue analyzer.RevenueOptions
	now     func() time.Time

	group singleflight.Group
	snap  atomic.Pointer[Snapshot]

	mu      sync.Mutex
	ref     string
	state   State
	lastErr error
	issued  uint64
	subs    map[int]func(Event)
	nextSub int
}

// NewController creates an idle controller holding an empty snapshot.
func NewController(f Fetcher, opts Options) *Controller {
	c := &Controller{
		fetcher: f,
		log:     opts.Logger,
		revenue: opts.Revenue,
		now:     opts.Now,
		state:   StateIdle,
		subs:    make(map[int]func(Event)),
	}
	if c.log == nil {
		c.log = logger.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.snap.Store(c.build(0, OriginNone, records.RecordSet{}, records.Diagnostics{}))
	return c
}

// Load fetches ref, makes it the source reference for later refreshes, and
// commits the result. On failure the previous snapshot is kept and the
// controller moves to StateError. A superseded load returns ErrSuperseded
// along with the snapshot that replaced it.
func (c *Controller) Load(ctx context.Context, ref string) (*Snapshot, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrNoSource
	}
	c.mu.Lock()
	c.ref = ref
	c.mu.Unlock()
	return c.do(ctx, ref)
}

// Refresh reloads the current source reference. Concurrent calls share one
// fetch and all receive its result.
func (c *Controller) Refresh(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	ref := c.ref
	c.mu.Unlock()
	if ref == "" {
		return nil, ErrNoSource
	}
	return c.do(ctx, ref)
}

func (c *Controller) do(ctx context.Context, ref string) (*Snapshot, error) {
	// The shared fetch must outlive any single caller's cancellation; the
	// fetcher's own timeout bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(ref, func() (any, error) {
		return c.fetchAndCommit(fetchCtx, ref)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		snap, _ := res.Val.(*Snapshot)
		return snap, res.Err
	}
}

func (c *Controller) fetchAndCommit(ctx context.Context, ref string) (*Snapshot, error) {
	seq := c.begin(true)
	c.log.Debug(logModule, "fetching source", map[string]any{"seq": seq})

	raw, err := c.fetcher.Fetch(ctx, ref)
	if err != nil {
		var ferr *FetchError
		if !errors.As(err, &ferr) {
			err = &FetchError{URL: ref, Err: err}
		}
		return c.fail(seq, err)
	}

	rs, diag, err := records.Normalize(raw)
	if err != nil {
		return c.fail(seq, err)
	}

	return c.commit(seq, OriginFetch, rs, diag)
}

// ApplyExternalUpdate replaces the RecordSet from an update payload without
// a network round-trip. Invalid payloads return *ValidationError and leave
// the controller untouched.
func (c *Controller) ApplyExternalUpdate(payload UpdatePayload) (*Snapshot, error) {
	rs, diag, err := decodePayload(payload)
	if err != nil {
		c.log.Warn(logModule, "rejected external update", map[string]any{"error": err.Error()})
		return nil, err
	}
	seq := c.begin(false)
	return c.commit(seq, OriginExternal, rs, diag)
}

// begin issues the next request sequence number.
func (c *Controller) begin(loading bool) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	if loading {
		c.state = StateLoading
	}
	return c.issued
}

func (c *Controller) commit(seq uint64, origin Origin, rs records.RecordSet, diag records.Diagnostics) (*Snapshot, error) {
	c.mu.Lock()
	if latest := c.issued; seq < latest {
		c.mu.Unlock()
		c.log.Info(logModule, "discarded superseded result", map[string]any{"seq": seq, "latest": latest})
		return c.snap.Load(), ErrSuperseded
	}
	snap := c.build(c.snap.Load().Version+1, origin, rs, diag)
	c.snap.Store(snap)
	c.state = StateReady
	c.lastErr = nil
	subs := c.subscribers()
	c.mu.Unlock()

	c.log.Info(logModule, "record set committed", map[string]any{
		"version":      snap.Version,
		"origin":       string(origin),
		"records":      rs.Len(),
		"dropped_rows": diag.DroppedRows,
	})

	kind := EventLoaded
	if origin == OriginExternal {
		kind = EventUpdated
	}
	notify(subs, Event{Kind: kind, Version: snap.Version, Time: snap.LoadedAt})
	return snap, nil
}

// fail records err unless a newer request was issued. Only a superseded
// failure returns a snapshot.
func (c *Controller) fail(seq uint64, err error) (*Snapshot, error) {
	c.mu.Lock()
	if seq < c.issued {
		c.mu.Unlock()
		c.log.Info(logModule, "discarded superseded failure", map[string]any{"seq": seq, "error": err.Error()})
		return c.snap.Load(), ErrSuperseded
	}
	c.state = StateError
	c.lastErr = err
	version := c.snap.Load().Version
	subs := c.subscribers()
	c.mu.Unlock()

	c.log.Warn(logModule, "load failed, keeping previous snapshot", map[string]any{
		"error":   err.Error(),
		"version": version,
	})
	notify(subs, Event{Kind: EventFailed, Version: version, Err: err, Time: c.now()})
	return nil, err
}

// build computes every derivation for rs. Called before publication so a
// reader never sees metrics from a different RecordSet.
func (c *Controller) build(version uint64, origin Origin, rs records.RecordSet, diag records.Diagnostics) *Snapshot {
	now := c.now()
	rev := c.revenue
	rev.Now = now
	return &Snapshot{
		Version:     version,
		Origin:      origin,
		LoadedAt:    now,
		Records:     rs,
		Diagnostics: diag,
		Metrics:     analyzer.Aggregate(rs),
		Status:      analyzer.Breakdown(rs),
		Revenue:     analyzer.RevenueSeries(rs, rev),
	}
}

// Subscribe registers fn for commit and failure events and returns a function
// that removes it. fn runs on the goroutine that committed, after the
// controller lock is released.
func (c *Controller) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// subscribers copies the subscriber list. Caller holds c.mu.
func (c *Controller) subscribers() []func(Event) {
	out := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}

// Snapshot returns the last committed snapshot. It never returns nil.
func (c *Controller) Snapshot() *Snapshot {
	return c.snap.Load()
}

// Records returns the current RecordSet.
func (c *Controller) Records() records.RecordSet {
	return c.snap.Load().Records
}

// Metrics returns the metrics of the current RecordSet.
func (c *Controller) Metrics() analyzer.Metrics {
	return c.snap.Load().Metrics
}

// StatusBreakdown returns the status breakdown of the current RecordSet.
func (c *Controller) StatusBreakdown() analyzer.StatusBreakdown {
	return c.snap.Load().Status
}

// RevenueSeries returns the revenue series of the current RecordSet.
func (c *Controller) RevenueSeries() []analyzer.RevenuePoint {
	return c.snap.Load().Revenue
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the error behind StateError, or nil.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// SourceRef returns the current source reference.
func (c *Controller) SourceRef() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ref
}
