package countdown

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/events"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/metrics"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/scheduler"
	"github.com/Quickbid0/quick-bid-jan-6-sub005/pkg/storage"
)

// Finalizer is the single auction-ending operation the coordinator is
// allowed to invoke. The coordinator never mutates auction status
// itself; the timer's natural end and the periodic sweep both funnel
// into this idempotent call.
type Finalizer interface {
	AutoFinalizeWinner(ctx context.Context, auctionID, trigger string) error
}

// warningThresholds are the remaining-seconds marks that trigger an
// additional countdown-warning broadcast.
var warningThresholds = []int64{60, 30, 10, 5}

// timer is the ephemeral per-auction countdown state. It is never
// persisted; it is reconstructed from the auction's end_time on
// process start.
type timer struct {
	auctionID string
	endTime   time.Time
	active    bool
	extended  bool
	warned    map[int64]bool
	stop      chan struct{}
	done      chan struct{}
}

// Coordinator maintains one live countdown per active auction,
// broadcasts remaining time and threshold warnings, extends deadlines,
// and drives natural auction end. The timer map is owned exclusively by
// the coordinator; other components interact through method calls.
type Coordinator struct {
	store     storage.Storage
	finalizer Finalizer
	pub       events.Publisher
	sched     scheduler.Scheduler
	logger    *slog.Logger

	mu     sync.Mutex
	timers map[string]*timer

	tickInterval  time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	wg sync.WaitGroup
}

// New creates a Coordinator. sweepInterval controls how often the
// defensive deadline sweep re-scans for overdue live auctions. sched
// may be nil; when set, every started or extended countdown also
// enqueues a durable finalize message so the deadline survives a
// process that dies with its timers.
func New(store storage.Storage, finalizer Finalizer, pub events.Publisher, sched scheduler.Scheduler, sweepInterval time.Duration, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if sweepInterval <= 0 {
		sweepInterval = 15 * time.Second
	}
	return &Coordinator{
		store:         store,
		finalizer:     finalizer,
		pub:           pub,
		sched:         sched,
		logger:        logger,
		timers:        make(map[string]*timer),
		tickInterval:  time.Second,
		sweepInterval: sweepInterval,
		now:           time.Now,
	}
}

// Run reconstructs timers for every live auction and then runs the
// deadline sweep until ctx is cancelled. It blocks; callers run it in
// its own goroutine and cancel ctx to shut down.
func (c *Coordinator) Run(ctx context.Context) {
	c.reconstruct(ctx)

	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	// One sweep up front so auctions that went overdue while the
	// process was down end promptly.
	c.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			c.stopAll()
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

// reconstruct starts a timer for every live auction whose deadline is
// still ahead. Overdue live auctions are left to the sweep.
func (c *Coordinator) reconstruct(ctx context.Context) {
	auctions, err := c.store.ListLiveAuctions(ctx)
	if err != nil {
		c.logger.Error("timer reconstruction failed", "error", err)
		return
	}
	now := c.now()
	restored := 0
	for i := range auctions {
		if auctions[i].EndTime.After(now) {
			c.Start(auctions[i].Id, auctions[i].EndTime)
			restored++
		}
	}
	c.logger.Info("countdown timers reconstructed", "live_auctions", len(auctions), "timers", restored)
}

// sweep finalizes every live auction whose deadline has passed. A
// single auction's failure is logged and skipped rather than aborting
// the scan.
func (c *Coordinator) sweep(ctx context.Context) {
	overdue, err := c.store.ListOverdueLiveAuctions(ctx, c.now())
	if err != nil {
		c.logger.Error("deadline sweep query failed", "error", err)
		return
	}
	for i := range overdue {
		if err := c.finalizer.AutoFinalizeWinner(ctx, overdue[i].Id, "sweep"); err != nil {
			c.logger.Error("sweep finalize failed", "auction_id", overdue[i].Id, "error", err)
			continue
		}
		c.Stop(overdue[i].Id)
	}
}

// Start begins (or replaces) the countdown for an auction and
// immediately broadcasts the remaining time.
func (c *Coordinator) Start(auctionID string, endTime time.Time) {
	c.mu.Lock()
	if old, ok := c.timers[auctionID]; ok {
		c.stopTimerLocked(old)
	}
	t := &timer{
		auctionID: auctionID,
		endTime:   endTime,
		active:    true,
		warned:    make(map[int64]bool),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	c.timers[auctionID] = t
	metrics.LiveTimers.Set(float64(len(c.timers)))
	c.mu.Unlock()

	c.broadcastUpdate(t)
	c.scheduleFinalize(auctionID, endTime)

	c.wg.Add(1)
	go c.run(t)
}

// scheduleFinalize enqueues the durable deadline message. Failures are
// logged, not fatal: the sweep remains the backstop of last resort.
func (c *Coordinator) scheduleFinalize(auctionID string, endTime time.Time) {
	if c.sched == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.sched.ScheduleFinalize(ctx, auctionID, endTime); err != nil {
		c.logger.Error("failed to schedule finalize message", "auction_id", auctionID, "error", err)
	}
}

// Extend moves the auction's deadline forward by the given number of
// minutes, persists the new end_time, and broadcasts the extension.
// The deadline only ever moves forward.
func (c *Coordinator) Extend(ctx context.Context, auctionID string, minutes int64, reason string) error {
	if minutes <= 0 {
		return errors.New("extension must be a positive number of minutes")
	}

	c.mu.Lock()
	t, ok := c.timers[auctionID]
	if !ok {
		c.mu.Unlock()
		return errors.New("no running countdown for auction")
	}
	newEnd := t.endTime.Add(time.Duration(minutes) * time.Minute)
	t.endTime = newEnd
	t.extended = true
	for k := range t.warned {
		delete(t.warned, k)
	}
	c.mu.Unlock()

	if err := c.store.UpdateAuctionEndTime(ctx, auctionID, newEnd); err != nil {
		return err
	}

	c.publish(auctionID, events.Message{
		Type:    events.MessageCountdownExtended,
		Payload: events.CountdownExtendedPayload{NewEndTime: newEnd, Reason: reason},
	})
	c.broadcastUpdate(t)
	c.scheduleFinalize(auctionID, newEnd)
	return nil
}

// Pause suspends the countdown without altering end_time.
func (c *Coordinator) Pause(auctionID string) {
	c.setActive(auctionID, false)
}

// Resume reactivates a paused countdown.
func (c *Coordinator) Resume(auctionID string) {
	c.setActive(auctionID, true)
}

func (c *Coordinator) setActive(auctionID string, active bool) {
	c.mu.Lock()
	t, ok := c.timers[auctionID]
	if ok {
		t.active = active
	}
	c.mu.Unlock()
	if ok {
		c.broadcastUpdate(t)
	}
}

// Stop synchronously halts and removes the auction's timer. After Stop
// returns no further tick from that timer can broadcast.
func (c *Coordinator) Stop(auctionID string) {
	c.mu.Lock()
	t, ok := c.timers[auctionID]
	if ok {
		c.stopTimerLocked(t)
	}
	c.mu.Unlock()
	if ok {
		<-t.done
	}
}

// stopTimerLocked signals the timer's loop and removes it from the map.
// Callers must hold c.mu.
func (c *Coordinator) stopTimerLocked(t *timer) {
	select {
	case <-t.stop:
	default:
		close(t.stop)
	}
	delete(c.timers, t.auctionID)
	metrics.LiveTimers.Set(float64(len(c.timers)))
}

func (c *Coordinator) stopAll() {
	c.mu.Lock()
	for _, t := range c.timers {
		c.stopTimerLocked(t)
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// run is the per-timer loop: one tick per second until the deadline
// passes or the timer is stopped.
func (c *Coordinator) run(t *timer) {
	defer c.wg.Done()
	defer close(t.done)

	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			if c.tick(t) {
				return
			}
		}
	}
}

// tick broadcasts the current countdown state and reports whether the
// timer has ended.
func (c *Coordinator) tick(t *timer) bool {
	c.mu.Lock()
	endTime := t.endTime
	active := t.active
	c.mu.Unlock()

	if !active {
		c.broadcastUpdate(t)
		return false
	}

	remaining := remainingSeconds(endTime, c.now())
	if remaining <= 0 {
		c.end(t)
		return true
	}

	c.publish(t.auctionID, events.Message{
		Type:    events.MessageCountdownUpdate,
		Payload: events.CountdownUpdatePayload{Remaining: remaining, EndTime: endTime, Active: true},
	})

	if threshold, ok := crossedThreshold(remaining); ok {
		c.mu.Lock()
		fire := !t.warned[threshold]
		t.warned[threshold] = true
		c.mu.Unlock()
		if fire {
			c.publish(t.auctionID, events.Message{
				Type:    events.MessageCountdownWarning,
				Payload: events.CountdownWarningPayload{Type: warningType(threshold), Remaining: remaining},
			})
		}
	}
	return false
}

// end finalizes the auction through the engine and removes the timer.
// Stopping is synchronous with removal so a stale tick can never
// re-broadcast after the auction has ended.
func (c *Coordinator) end(t *timer) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.finalizer.AutoFinalizeWinner(ctx, t.auctionID, "timer"); err != nil {
		c.logger.Error("timer finalize failed", "auction_id", t.auctionID, "error", err)
		// The sweep retries; keep the timer out of the map regardless so
		// it cannot tick again.
	}

	c.mu.Lock()
	if current, ok := c.timers[t.auctionID]; ok && current == t {
		c.stopTimerLocked(t)
	}
	c.mu.Unlock()
}

func (c *Coordinator) broadcastUpdate(t *timer) {
	c.mu.Lock()
	endTime := t.endTime
	active := t.active
	c.mu.Unlock()
	c.publish(t.auctionID, events.Message{
		Type: events.MessageCountdownUpdate,
		Payload: events.CountdownUpdatePayload{
			Remaining: remainingSeconds(endTime, c.now()),
			EndTime:   endTime,
			Active:    active,
		},
	})
}

func (c *Coordinator) publish(auctionID string, msg events.Message) {
	if c.pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.pub.PublishToAuction(ctx, auctionID, msg); err != nil {
		c.logger.Error("countdown broadcast failed", "auction_id", auctionID, "type", msg.Type, "error", err)
	}
}

// remainingSeconds rounds up so the countdown reads 1 until the
// deadline actually passes.
func remainingSeconds(endTime, now time.Time) int64 {
	d := endTime.Sub(now)
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}

// crossedThreshold reports the tightest warning threshold the given
// remaining seconds has reached, if any. Thresholds are declared in
// descending order, so the last match is the tightest.
func crossedThreshold(remaining int64) (int64, bool) {
	var match int64
	found := false
	for _, th := range warningThresholds {
		if remaining <= th {
			match = th
			found = true
		}
	}
	return match, found
}

func warningType(threshold int64) string {
	switch threshold {
	case 60:
		return "one_minute"
	case 30:
		return "thirty_seconds"
	case 10:
		return "ten_seconds"
	case 5:
		return "five_seconds"
	}
	return "imminent"
}
