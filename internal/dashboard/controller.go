// Package dashboard owns the fetched state slots and the timers that keep
// them fresh.
package dashboard

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/runnerr0/quix/internal/api"
	"github.com/runnerr0/quix/internal/view"
)

// Source is the subset of the API client the controller polls.
type Source interface {
	Dashboard(ctx context.Context) (*api.DashboardSnapshot, error)
	Events(ctx context.Context, limit int) ([]api.Event, error)
	Summary(ctx context.Context) (*api.Summary, error)
	ActualEvents(ctx context.Context) ([]api.CasualtyEvent, error)
	Collect(ctx context.Context) error
}

// Slot names one of the four independently refreshed pieces of state.
type Slot string

const (
	SlotDashboard    Slot = "dashboard"
	SlotEvents       Slot = "events"
	SlotSummary      Slot = "summary"
	SlotActualEvents Slot = "actual-events"
)

// Slots lists the slots in fetch order.
func Slots() []Slot {
	return []Slot{SlotDashboard, SlotEvents, SlotSummary, SlotActualEvents}
}

// State is a point-in-time copy of the controller's slots. Slices are shared
// with the controller and must be treated as read-only.
type State struct {
	Snapshot    *api.DashboardSnapshot `json:"dashboard"`
	Events      []api.Event            `json:"events"`
	Summary     *api.Summary           `json:"summary"`
	Casualties  []api.CasualtyEvent    `json:"actual_events"`
	Loading     bool                   `json:"loading"`
	LastUpdated time.Time              `json:"last_updated"`
	CurrentTime time.Time              `json:"current_time"`
}

// Data converts the state into the input of view.BuildPage.
func (s State) Data() view.Data {
	return view.Data{
		Snapshot:    s.Snapshot,
		Events:      s.Events,
		Summary:     s.Summary,
		Casualties:  s.Casualties,
		Loading:     s.Loading,
		LastUpdated: s.LastUpdated,
	}
}

// RefreshResult describes one completed refresh cycle.
type RefreshResult struct {
	Started  time.Time
	Duration time.Duration
	Errors   map[Slot]error
	State    State
	// Applied is false when the controller was closed before the cycle
	// settled.
	Applied bool
}

// OK reports whether every slot was refreshed.
func (r RefreshResult) OK() bool { return len(r.Errors) == 0 }

// Failed returns the slots that kept their previous value, sorted.
func (r RefreshResult) Failed() []Slot {
	out := make([]Slot, 0, len(r.Errors))
	for s := range r.Errors {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger fetch failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithEventLimit sets the per-feed event limit.
func WithEventLimit(n int) Option {
	return func(c *Controller) { c.limit = n }
}

// WithCollectDelay sets how long after a collect the follow-up refresh runs.
func WithCollectDelay(d time.Duration) Option {
	return func(c *Controller) { c.collectDelay = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller holds the dashboard state and applies fetch results to it.
type Controller struct {
	src          Source
	limit        int
	collectDelay time.Duration
	logger       *slog.Logger
	now          func() time.Time

	mu        sync.Mutex
	state     State
	closed    bool
	timers    map[*time.Timer]struct{}
	subs      []func(State)
	onRefresh []func(RefreshResult)
	onCollect []func(error)
}

// NewController creates a controller in the loading state. Nothing is
// fetched until Refresh is called.
func NewController(src Source, opts ...Option) *Controller {
	c := &Controller{
		src:          src,
		limit:        10,
		collectDelay: 3 * time.Second,
		logger:       slog.Default(),
		now:          time.Now,
		timers:       make(map[*time.Timer]struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	c.state = State{Loading: true, CurrentTime: c.now()}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to be called with the new state after every
// applied change, including clock ticks.
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

// OnRefresh registers fn to be called after every refresh cycle settles.
func (c *Controller) OnRefresh(fn func(RefreshResult)) {
	c.mu.Lock()
	c.onRefresh = append(c.onRefresh, fn)
	c.mu.Unlock()
}

// OnCollect registers fn to be called with the outcome of every collect.
func (c *Controller) OnCollect(fn func(error)) {
	c.mu.Lock()
	c.onCollect = append(c.onCollect, fn)
	c.mu.Unlock()
}

// Refresh fetches all four slots concurrently. Each success replaces its
// slot as soon as it arrives; each failure is logged and leaves the slot as
// it was. LastUpdated advances once all four have settled, whatever the
// outcome.
func (c *Controller) Refresh(ctx context.Context) RefreshResult {
	res := RefreshResult{Started: c.now(), Errors: make(map[Slot]error)}

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
	)
	fail := func(slot Slot, err error) {
		c.logger.Warn("fetch failed", "endpoint", string(slot), "err", err)
		errMu.Lock()
		res.Errors[slot] = err
		errMu.Unlock()
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		snap, err := c.src.Dashboard(ctx)
		if err != nil {
			fail(SlotDashboard, err)
			return
		}
		c.apply(func(s *State) { s.Snapshot = snap })
	}()
	go func() {
		defer wg.Done()
		events, err := c.src.Events(ctx, c.limit)
		if err != nil {
			fail(SlotEvents, err)
			return
		}
		c.apply(func(s *State) { s.Events = events })
	}()
	go func() {
		defer wg.Done()
		sum, err := c.src.Summary(ctx)
		if err != nil {
			fail(SlotSummary, err)
			return
		}
		c.apply(func(s *State) { s.Summary = sum })
	}()
	go func() {
		defer wg.Done()
		cas, err := c.src.ActualEvents(ctx)
		if err != nil {
			fail(SlotActualEvents, err)
			return
		}
		c.apply(func(s *State) { s.Casualties = cas })
	}()
	wg.Wait()

	c.mu.Lock()
	if c.closed {
		res.State = c.state
		c.mu.Unlock()
		res.Duration = c.now().Sub(res.Started)
		return res
	}
	c.state.LastUpdated = c.now()
	c.state.Loading = false
	res.State = c.state
	res.Applied = true
	subs := append([]func(State){}, c.subs...)
	hooks := append([]func(RefreshResult){}, c.onRefresh...)
	c.mu.Unlock()

	res.Duration = res.State.LastUpdated.Sub(res.Started)
	c.logger.Debug("refresh complete",
		"duration", res.Duration,
		"failed", len(res.Errors),
	)
	for _, fn := range subs {
		fn(res.State)
	}
	for _, fn := range hooks {
		fn(res)
	}
	return res
}

// apply mutates the state unless the controller has been closed.
func (c *Controller) apply(fn func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	fn(&c.state)
}

// Tick moves the clock shown by the dashboard.
func (c *Controller) Tick(now time.Time) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state.CurrentTime = now
	st := c.state
	subs := append([]func(State){}, c.subs...)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

// TriggerCollect asks the backend to gather new data and, whatever the
// outcome, schedules a single refresh after the collect delay. The POST
// error is logged and returned.
func (c *Controller) TriggerCollect(ctx context.Context) error {
	err := c.src.Collect(ctx)
	if err != nil {
		c.logger.Warn("collect failed", "err", err)
	} else {
		c.logger.Info("collection triggered", "refresh_in", c.collectDelay)
	}

	c.mu.Lock()
	hooks := append([]func(error){}, c.onCollect...)
	c.mu.Unlock()
	for _, fn := range hooks {
		fn(err)
	}

	c.scheduleRefresh()
	return err
}

func (c *Controller) scheduleRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(c.collectDelay, func() {
		c.mu.Lock()
		delete(c.timers, t)
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		c.Refresh(context.Background())
	})
	c.timers[t] = struct{}{}
}

// Pending returns the number of delayed refreshes not yet started.
func (c *Controller) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Close stops pending delayed refreshes. Fetches already in flight are left
// to finish and their responses are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for t := range c.timers {
		t.Stop()
		delete(c.timers, t)
	}
	c.mu.Unlock()
}
