package countdown

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/events"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/models"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturePublisher records every broadcast for assertions.
type capturePublisher struct {
	mu   sync.Mutex
	room []events.Message
}

func (p *capturePublisher) PublishToAuction(ctx context.Context, auctionID string, message events.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.room = append(p.room, message)
	return nil
}

func (p *capturePublisher) PublishToAdmins(ctx context.Context, message events.Message) error {
	return nil
}

func (p *capturePublisher) types() []events.MessageType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.MessageType, len(p.room))
	for i, m := range p.room {
		out[i] = m.Type
	}
	return out
}

func (p *capturePublisher) last(t *testing.T) events.Message {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.room)
	return p.room[len(p.room)-1]
}

func (p *capturePublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.room = nil
}

// captureFinalizer records every auto-finalize invocation.
type captureFinalizer struct {
	mu    sync.Mutex
	calls []string // "auctionID/trigger"
	err   error
}

func (f *captureFinalizer) AutoFinalizeWinner(ctx context.Context, auctionID, trigger string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, auctionID+"/"+trigger)
	return f.err
}

func (f *captureFinalizer) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// captureScheduler records durable deadline enqueues.
type captureScheduler struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (s *captureScheduler) ScheduleFinalize(ctx context.Context, auctionID string, endTime time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, endTime)
	return s.err
}

func (s *captureScheduler) recorded() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.calls...)
}

type fixture struct {
	coord     *Coordinator
	store     *memory.Store
	pub       *capturePublisher
	finalizer *captureFinalizer
	sched     *captureScheduler
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	pub := &capturePublisher{}
	fin := &captureFinalizer{}
	sched := &captureScheduler{}

	coord := New(store, fin, pub, sched, 15*time.Second, slog.New(slog.NewTextHandler(testWriter{t}, nil)))

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	coord.now = func() time.Time { return now }
	// Ticks are driven by hand; keep the background loop quiet.
	coord.tickInterval = time.Hour

	return &fixture{coord: coord, store: store, pub: pub, finalizer: fin, sched: sched, now: now}
}

// testWriter routes coordinator logs through the test log.
type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", p)
	return len(p), nil
}

func (f *fixture) addLiveAuction(t *testing.T, id string, endTime time.Time) {
	t.Helper()
	_, err := f.store.CreateAuction(context.Background(), &models.Auction{
		Id:      id,
		Title:   "Test Lot",
		Status:  models.AuctionLive,
		EndTime: endTime,
		Version: 1,
	})
	require.NoError(t, err)
}

// timerFor fetches the live timer without racing the tick loop.
func (f *fixture) timerFor(id string) *timer {
	f.coord.mu.Lock()
	defer f.coord.mu.Unlock()
	return f.coord.timers[id]
}

func TestStart(t *testing.T) {
	t.Run("Broadcasts Remaining Time Immediately", func(t *testing.T) {
		f := newFixture(t)
		defer f.coord.stopAll()

		f.coord.Start("auction1", f.now.Add(90*time.Second))

		types := f.pub.types()
		require.NotEmpty(t, types)
		assert.Equal(t, events.MessageCountdownUpdate, types[0])

		payload, ok := f.pub.room[0].Payload.(events.CountdownUpdatePayload)
		require.True(t, ok)
		assert.Equal(t, int64(90), payload.Remaining)
		assert.True(t, payload.Active)
	})

	t.Run("Schedules The Durable Deadline", func(t *testing.T) {
		f := newFixture(t)
		defer f.coord.stopAll()

		end := f.now.Add(time.Minute)
		f.coord.Start("auction1", end)

		require.Len(t, f.sched.recorded(), 1)
		assert.True(t, end.Equal(f.sched.recorded()[0]))
	})

	t.Run("Replaces An Existing Timer", func(t *testing.T) {
		f := newFixture(t)
		defer f.coord.stopAll()

		f.coord.Start("auction1", f.now.Add(time.Minute))
		first := f.timerFor("auction1")
		f.coord.Start("auction1", f.now.Add(2*time.Minute))
		second := f.timerFor("auction1")

		require.NotNil(t, second)
		assert.NotSame(t, first, second)
		assert.True(t, second.endTime.Equal(f.now.Add(2*time.Minute)))
	})

	t.Run("Scheduler Failure Is Not Fatal", func(t *testing.T) {
		f := newFixture(t)
		defer f.coord.stopAll()
		f.sched.err = errors.New("queue unavailable")

		f.coord.Start("auction1", f.now.Add(time.Minute))

		assert.NotNil(t, f.timerFor("auction1"))
	})
}

func TestExtend(t *testing.T) {
	t.Run("Moves The Deadline Forward", func(t *testing.T) {
		f := newFixture(t)
		defer f.coord.stopAll()
		end := f.now.Add(30 * time.Second)
		f.addLiveAuction(t, "auction1", end)
		f.coord.Start("auction1", end)
		f.pub.reset()

		err := f.coord.Extend(context.Background(), "auction1", 2, "soft_close")
		require.NoError(t, err)

		newEnd := end.Add(2 * time.Minute)
		tm := f.timerFor("auction1")
		require.NotNil(t, tm)
		assert.True(t, tm.endTime.Equal(newEnd))
		assert.True(t, tm.extended)

		// The new deadline is persisted, not just held in memory.
		auction, err := f.store.GetAuction(context.Background(), "auction1")
		require.NoError(t, err)
		assert.True(t, auction.EndTime.Equal(newEnd))

		types := f.pub.types()
		require.Len(t, types, 2)
		assert.Equal(t, events.MessageCountdownExtended, types[0])
		assert.Equal(t, events.MessageCountdownUpdate, types[1])

		payload, ok := f.pub.room[0].Payload.(events.CountdownExtendedPayload)
		require.True(t, ok)
		assert.True(t, payload.NewEndTime.Equal(newEnd))
		assert.Equal(t, "soft_close", payload.Reason)
	})

	t.Run("Re-Schedules The Durable Deadline", func(t *testing.T) {
		f := newFixture(t)
		defer f.coord.stopAll()
		end := f.now.Add(30 * time.Second)
		f.addLiveAuction(t, "auction1", end)
		f.coord.Start("auction1", end)

		require.NoError(t, f.coord.Extend(context.Background(), "auction1", 1, "soft_close"))

		scheduled := f.sched.recorded()
		require.Len(t, scheduled, 2)
		assert.True(t, scheduled[1].Equal(end.Add(time.Minute)))
	})

	t.Run("Clears Fired Warnings", func(t *testing.T) {
		f := newFixture(t)
		defer f.coord.stopAll()
		end := f.now.Add(25 * time.Second)
		f.addLiveAuction(t, "auction1", end)
		f.coord.Start("auction1", end)

		tm := f.timerFor("auction1")
		require.NotNil(t, tm)
		f.coord.tick(tm) // fires the 30-second warning
		f.coord.mu.Lock()
		warned := len(tm.warned)
		f.coord.mu.Unlock()
		require.NotZero(t, warned)

		require.NoError(t, f.coord.Extend(context.Background(), "auction1", 5, "admin"))

		f.coord.mu.Lock()
		assert.Empty(t, tm.warned)
		f.coord.mu.Unlock()
	})

	t.Run("Rejects Non-Positive Minutes", func(t *testing.T) {
		f := newFixture(t)
		defer f.coord.stopAll()
		f.coord.Start("auction1", f.now.Add(time.Minute))

		assert.Error(t, f.coord.Extend(context.Background(), "auction1", 0, "soft_close"))
		assert.Error(t, f.coord.Extend(context.Background(), "auction1", -3, "soft_close"))
	})

	t.Run("Unknown Auction", func(t *testing.T) {
		f := newFixture(t)
		assert.Error(t, f.coord.Extend(context.Background(), "ghost", 1, "soft_close"))
	})
}

func TestPauseResume(t *testing.T) {
	f := newFixture(t)
	defer f.coord.stopAll()
	end := f.now.Add(time.Minute)
	f.coord.Start("auction1", end)
	f.pub.reset()

	f.coord.Pause("auction1")

	tm := f.timerFor("auction1")
	require.NotNil(t, tm)
	f.coord.mu.Lock()
	active := tm.active
	f.coord.mu.Unlock()
	assert.False(t, active)

	payload, ok := f.pub.last(t).Payload.(events.CountdownUpdatePayload)
	require.True(t, ok)
	assert.False(t, payload.Active)
	assert.True(t, payload.EndTime.Equal(end))

	// A paused tick rebroadcasts state but never ends the auction.
	f.pub.reset()
	ended := f.coord.tick(tm)
	assert.False(t, ended)
	assert.Empty(t, f.finalizer.recorded())

	f.coord.Resume("auction1")
	payload, ok = f.pub.last(t).Payload.(events.CountdownUpdatePayload)
	require.True(t, ok)
	assert.True(t, payload.Active)
}

func TestTick(t *testing.T) {
	t.Run("Broadcasts Countdown Update", func(t *testing.T) {
		f := newFixture(t)
		defer f.coord.stopAll()
		f.coord.Start("auction1", f.now.Add(5*time.Minute))
		tm := f.timerFor("auction1")
		require.NotNil(t, tm)
		f.pub.reset()

		ended := f.coord.tick(tm)

		assert.False(t, ended)
		types := f.pub.types()
		require.Len(t, types, 1)
		assert.Equal(t, events.MessageCountdownUpdate, types[0])
		payload := f.pub.room[0].Payload.(events.CountdownUpdatePayload)
		assert.Equal(t, int64(300), payload.Remaining)
	})

	t.Run("Fires Warning At Threshold Once", func(t *testing.T) {
		f := newFixture(t)
		defer f.coord.stopAll()
		f.coord.Start("auction1", f.now.Add(58*time.Second))
		tm := f.timerFor("auction1")
		require.NotNil(t, tm)
		f.pub.reset()

		f.coord.tick(tm)
		f.coord.tick(tm)

		types := f.pub.types()
		require.Len(t, types, 3)
		assert.Equal(t, events.MessageCountdownWarning, types[1])
		assert.Equal(t, events.MessageCountdownUpdate, types[2])

		payload := f.pub.room[1].Payload.(events.CountdownWarningPayload)
		assert.Equal(t, "one_minute", payload.Type)
	})

	t.Run("Tightest Threshold Wins", func(t *testing.T) {
		f := newFixture(t)
		defer f.coord.stopAll()
		f.coord.Start("auction1", f.now.Add(4*time.Second))
		tm := f.timerFor("auction1")
		require.NotNil(t, tm)
		f.pub.reset()

		f.coord.tick(tm)

		payload := f.pub.room[1].Payload.(events.CountdownWarningPayload)
		assert.Equal(t, "five_seconds", payload.Type)
	})

	t.Run("Deadline Passed Triggers Finalize", func(t *testing.T) {
		f := newFixture(t)
		f.coord.Start("auction1", f.now.Add(-time.Second))
		tm := f.timerFor("auction1")
		require.NotNil(t, tm)

		ended := f.coord.tick(tm)

		assert.True(t, ended)
		assert.Equal(t, []string{"auction1/timer"}, f.finalizer.recorded())
		assert.Nil(t, f.timerFor("auction1"))
	})

	t.Run("Failed Finalize Still Removes The Timer", func(t *testing.T) {
		f := newFixture(t)
		f.finalizer.err = errors.New("store unavailable")
		f.coord.Start("auction1", f.now.Add(-time.Second))
		tm := f.timerFor("auction1")
		require.NotNil(t, tm)

		ended := f.coord.tick(tm)

		assert.True(t, ended)
		// The sweep retries; a dead timer must not keep ticking.
		assert.Nil(t, f.timerFor("auction1"))
	})
}

func TestStop(t *testing.T) {
	f := newFixture(t)
	f.coord.Start("auction1", f.now.Add(time.Minute))
	require.NotNil(t, f.timerFor("auction1"))

	f.coord.Stop("auction1")

	assert.Nil(t, f.timerFor("auction1"))
	// Stopping again is harmless.
	f.coord.Stop("auction1")
}

func TestSweep(t *testing.T) {
	t.Run("Finalizes Overdue Live Auctions", func(t *testing.T) {
		f := newFixture(t)
		defer f.coord.stopAll()
		f.addLiveAuction(t, "overdue1", f.now.Add(-time.Minute))
		f.addLiveAuction(t, "overdue2", f.now.Add(-time.Second))
		f.addLiveAuction(t, "future", f.now.Add(time.Hour))

		f.coord.sweep(context.Background())

		calls := f.finalizer.recorded()
		assert.ElementsMatch(t, []string{"overdue1/sweep", "overdue2/sweep"}, calls)
	})

	t.Run("One Failure Does Not Abort The Scan", func(t *testing.T) {
		f := newFixture(t)
		f.finalizer.err = errors.New("store unavailable")
		f.addLiveAuction(t, "overdue1", f.now.Add(-time.Minute))
		f.addLiveAuction(t, "overdue2", f.now.Add(-time.Minute))

		f.coord.sweep(context.Background())

		assert.Len(t, f.finalizer.recorded(), 2)
	})
}

func TestReconstruct(t *testing.T) {
	f := newFixture(t)
	defer f.coord.stopAll()
	f.addLiveAuction(t, "future1", f.now.Add(time.Minute))
	f.addLiveAuction(t, "future2", f.now.Add(time.Hour))
	f.addLiveAuction(t, "overdue", f.now.Add(-time.Minute))

	f.coord.reconstruct(context.Background())

	assert.NotNil(t, f.timerFor("future1"))
	assert.NotNil(t, f.timerFor("future2"))
	// Overdue auctions belong to the sweep, not to a fresh timer.
	assert.Nil(t, f.timerFor("overdue"))
}

func TestRemainingSeconds(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(0), remainingSeconds(now, now))
	assert.Equal(t, int64(0), remainingSeconds(now.Add(-time.Second), now))
	// Rounds up so the countdown reads 1 until the deadline passes.
	assert.Equal(t, int64(1), remainingSeconds(now.Add(200*time.Millisecond), now))
	assert.Equal(t, int64(90), remainingSeconds(now.Add(90*time.Second), now))
}
