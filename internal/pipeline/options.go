package pipeline

import (
	"context"
	"time"
)

// Defaults for a Controller built without options.
const (
	DefaultQuotaWaitTicks = 65
	DefaultTickLength     = time.Second
	DefaultPacingFloor    = 4 * time.Second
	DefaultLogCap         = 50
)

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithSleep replaces the context-aware sleep used for quota waits.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) { c.sleep = sleep }
}

// WithEmitter sets the receiver of progress snapshots.
func WithEmitter(e Emitter) Option {
	return func(c *Controller) { c.emitter = e }
}

// WithQuotaWait sets the countdown length after a quota error. Non-positive
// values keep the defaults.
func WithQuotaWait(ticks int, tick time.Duration) Option {
	return func(c *Controller) {
		if ticks > 0 {
			c.quotaTicks = ticks
		}
		if tick > 0 {
			c.tick = tick
		}
	}
}

// WithPacing sets the minimum interval between external calls on the free tier.
func WithPacing(floor time.Duration) Option {
	return func(c *Controller) { c.pacingFloor = floor }
}

// WithLogCap sets how many log lines a snapshot keeps.
func WithLogCap(n int) Option {
	return func(c *Controller) { c.logCap = n }
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
