// Package nowline places the "now" marker on the timeline and keeps it fresh.
package nowline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dayplan/dayplan/internal/position"
)

const (
	// Margin is how far outside the visible axis now may be and still be drawn
	// (pinned to the nearest edge).
	Margin = 30 * time.Minute

	// DefaultRefreshInterval is how often the Refresher samples the clock.
	DefaultRefreshInterval = 30 * time.Second
)

// InRange reports whether now lies within
// [first tick - Margin, last tick + step + Margin].
func InRange(ticks []time.Time, step time.Duration, now time.Time) bool {
	if len(ticks) == 0 {
		return false
	}
	lo := ticks[0].Add(-Margin)
	hi := ticks[len(ticks)-1].Add(step + Margin)
	return !now.Before(lo) && !now.After(hi)
}

// Position returns the vertical offset of the now marker and whether it should
// be drawn at all.
func Position(ctx *position.Context, now time.Time) (float64, bool) {
	if ctx == nil || !InRange(ctx.Ticks(), ctx.Step(), now) {
		return 0, false
	}
	return ctx.OffsetAt(now), true
}

// Refresher calls a function with the current time on a fixed cadence until
// it is stopped.
type Refresher struct {
	interval   time.Duration
	clock      func() time.Time
	onTick     func(time.Time)
	logger     *slog.Logger
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithInterval sets the refresh cadence.
func WithInterval(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(clock func() time.Time) RefresherOption {
	return func(r *Refresher) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *slog.Logger) RefresherOption {
	return func(r *Refresher) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRefresher creates a Refresher that calls onTick every interval.
func NewRefresher(onTick func(time.Time), opts ...RefresherOption) *Refresher {
	r := &Refresher{
		interval: DefaultRefreshInterval,
		clock:    time.Now,
		onTick:   onTick,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins polling in a background goroutine. Calling Start on a running
// Refresher restarts it.
func (r *Refresher) Start(ctx context.Context) {
	r.Stop()

	r.mu.Lock()
	ctx, cancel := context.WithCancel(ctx)
	r.cancelFunc = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go r.run(ctx)
	r.logger.Debug("now refresher started", "interval", r.interval)
}

// Stop cancels the polling goroutine and waits for it to exit. It is safe to
// call more than once.
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel := r.cancelFunc
	r.cancelFunc = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	r.wg.Wait()
	r.logger.Debug("now refresher stopped")
}

// Running reports whether the polling goroutine is active.
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelFunc != nil
}

func (r *Refresher) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.onTick != nil {
				r.onTick(r.clock())
			}
		}
	}
}
