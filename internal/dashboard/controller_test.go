package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/quix/internal/api"
	"github.com/runnerr0/quix/internal/logging"
)

type fakeSource struct {
	mu         sync.Mutex
	level      float64
	failFor    map[Slot]bool
	collectErr error
	gate       chan struct{}

	dashboardCalls atomic.Int32
	collectCalls   atomic.Int32
	settled        atomic.Int32
	cancelled      atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{level: 42, failFor: map[Slot]bool{}}
}

func (f *fakeSource) fail(s Slot, on bool) {
	f.mu.Lock()
	f.failFor[s] = on
	f.mu.Unlock()
}

func (f *fakeSource) check(ctx context.Context, s Slot) error {
	defer f.settled.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
		}
	}
	if ctx.Err() != nil {
		f.cancelled.Add(1)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[s] {
		return &api.FetchError{Endpoint: "/" + string(s), Err: errors.New("boom")}
	}
	return nil
}

func (f *fakeSource) Dashboard(ctx context.Context) (*api.DashboardSnapshot, error) {
	f.dashboardCalls.Add(1)
	if err := f.check(ctx, SlotDashboard); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &api.DashboardSnapshot{CurrentThreatLevel: f.level}, nil
}

func (f *fakeSource) Events(ctx context.Context, limit int) ([]api.Event, error) {
	if err := f.check(ctx, SlotEvents); err != nil {
		return nil, err
	}
	return []api.Event{{ID: "1", Platform: api.PlatformRSS}}, nil
}

func (f *fakeSource) Summary(ctx context.Context) (*api.Summary, error) {
	if err := f.check(ctx, SlotSummary); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &api.Summary{EventCount: int(f.level), Summary: "fresh"}, nil
}

func (f *fakeSource) ActualEvents(ctx context.Context) ([]api.CasualtyEvent, error) {
	if err := f.check(ctx, SlotActualEvents); err != nil {
		return nil, err
	}
	return []api.CasualtyEvent{}, nil
}

func (f *fakeSource) Collect(ctx context.Context) error {
	f.collectCalls.Add(1)
	return f.collectErr
}

func newTestController(src Source, opts ...Option) *Controller {
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	return NewController(src, opts...)
}

func TestNewControllerStartsLoading(t *testing.T) {
	c := newTestController(newFakeSource())
	st := c.State()
	assert.True(t, st.Loading)
	assert.True(t, st.LastUpdated.IsZero())
	assert.True(t, st.Data().Loading)
}

func TestRefreshFillsAllSlots(t *testing.T) {
	c := newTestController(newFakeSource())

	res := c.Refresh(context.Background())
	assert.True(t, res.OK())
	assert.True(t, res.Applied)

	st := c.State()
	assert.False(t, st.Loading)
	assert.False(t, st.LastUpdated.IsZero())
	require.NotNil(t, st.Snapshot)
	assert.Equal(t, 42.0, st.Snapshot.CurrentThreatLevel)
	assert.Len(t, st.Events, 1)
	require.NotNil(t, st.Summary)
	assert.NotNil(t, st.Casualties)
}

func TestRefreshFailureKeepsPreviousSlot(t *testing.T) {
	src := newFakeSource()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTestController(src, WithClock(func() time.Time { return now }))

	c.Refresh(context.Background())
	first := c.State()

	src.mu.Lock()
	src.level = 80
	src.mu.Unlock()
	src.fail(SlotSummary, true)
	now = now.Add(5 * time.Minute)

	res := c.Refresh(context.Background())
	assert.False(t, res.OK())
	assert.Equal(t, []Slot{SlotSummary}, res.Failed())

	var fe *api.FetchError
	assert.ErrorAs(t, res.Errors[SlotSummary], &fe)

	st := c.State()
	assert.Equal(t, 80.0, st.Snapshot.CurrentThreatLevel)
	assert.Same(t, first.Summary, st.Summary)
	assert.Equal(t, 42, st.Summary.EventCount)
	assert.True(t, st.LastUpdated.After(first.LastUpdated))
}

func TestRefreshAllFailingStillAdvancesLastUpdated(t *testing.T) {
	src := newFakeSource()
	for _, s := range Slots() {
		src.fail(s, true)
	}
	c := newTestController(src)

	res := c.Refresh(context.Background())
	assert.Len(t, res.Failed(), 4)

	st := c.State()
	assert.False(t, st.Loading)
	assert.False(t, st.LastUpdated.IsZero())
	assert.Nil(t, st.Snapshot)
	assert.Nil(t, st.Summary)
}

func TestSubscribersAndHooks(t *testing.T) {
	c := newTestController(newFakeSource())

	var states []State
	var results []RefreshResult
	c.Subscribe(func(s State) { states = append(states, s) })
	c.OnRefresh(func(r RefreshResult) { results = append(results, r) })

	c.Refresh(context.Background())
	tick := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.Tick(tick)

	require.Len(t, states, 2)
	assert.Equal(t, tick, states[1].CurrentTime)
	require.Len(t, results, 1)
	assert.True(t, results[0].OK())
}

func TestTriggerCollectSchedulesRefresh(t *testing.T) {
	src := newFakeSource()
	c := newTestController(src, WithCollectDelay(20*time.Millisecond))
	defer c.Close()

	var collected []error
	c.OnCollect(func(err error) { collected = append(collected, err) })

	require.NoError(t, c.TriggerCollect(context.Background()))
	assert.Equal(t, int32(1), src.collectCalls.Load())
	require.Len(t, collected, 1)

	require.Eventually(t, func() bool {
		return src.dashboardCalls.Load() == 1 && !c.State().LastUpdated.IsZero()
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, c.Pending())
}

func TestTriggerCollectFailureStillRefreshes(t *testing.T) {
	src := newFakeSource()
	src.collectErr = errors.New("backend down")
	c := newTestController(src, WithCollectDelay(10*time.Millisecond))
	defer c.Close()

	assert.Error(t, c.TriggerCollect(context.Background()))
	require.Eventually(t, func() bool {
		return src.dashboardCalls.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCloseStopsPendingRefresh(t *testing.T) {
	src := newFakeSource()
	c := newTestController(src, WithCollectDelay(time.Hour))

	_ = c.TriggerCollect(context.Background())
	_ = c.TriggerCollect(context.Background())
	assert.Equal(t, 2, c.Pending())

	c.Close()
	assert.Equal(t, 0, c.Pending())
	assert.Equal(t, int32(0), src.dashboardCalls.Load())

	// Collecting after close does not schedule anything.
	_ = c.TriggerCollect(context.Background())
	assert.Equal(t, 0, c.Pending())
}

func TestResponsesAfterCloseAreDiscarded(t *testing.T) {
	src := newFakeSource()
	src.gate = make(chan struct{})
	c := newTestController(src)

	done := make(chan RefreshResult)
	go func() { done <- c.Refresh(context.Background()) }()

	require.Eventually(t, func() bool {
		return src.dashboardCalls.Load() == 1
	}, time.Second, 5*time.Millisecond)
	c.Close()
	close(src.gate)

	res := <-done
	assert.False(t, res.Applied)
	st := c.State()
	assert.Nil(t, st.Snapshot)
	assert.True(t, st.Loading)
	assert.True(t, st.LastUpdated.IsZero())
}

func TestCloseLeavesInFlightDelayedRefreshRunning(t *testing.T) {
	src := newFakeSource()
	src.gate = make(chan struct{})
	c := newTestController(src, WithCollectDelay(time.Millisecond))

	require.NoError(t, c.TriggerCollect(context.Background()))
	require.Eventually(t, func() bool {
		return src.dashboardCalls.Load() == 1 && c.Pending() == 0
	}, 2*time.Second, 5*time.Millisecond)

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on an in-flight refresh")
	}

	close(src.gate)
	require.Eventually(t, func() bool {
		return src.settled.Load() == 4
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), src.cancelled.Load())

	st := c.State()
	assert.Nil(t, st.Snapshot)
	assert.True(t, st.LastUpdated.IsZero())
}
