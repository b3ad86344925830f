// Package clock provides the optional real-time driver that advances the
// active city on a schedule. The simulation itself has no timers; the
// clock only calls OnMonth.
package clock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// pausePoll is how often a paused clock checks whether it was resumed.
const pausePoll = 100 * time.Millisecond

// Clock calls OnMonth once per Interval/Speed while running.
type Clock struct {
	Interval time.Duration // Real time per month at speed 1
	OnMonth  func()        // Called from the Run goroutine

	mu      sync.Mutex
	speed   float64 // 0 = paused
	running bool
	months  uint64 // Months driven since start
	cancel  context.CancelFunc
}

// New creates a paused clock.
func New(interval time.Duration, onMonth func()) *Clock {
	return &Clock{
		Interval: interval,
		OnMonth:  onMonth,
	}
}

// Speed returns the current multiplier.
func (c *Clock) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// SetSpeed changes the multiplier; zero or below pauses the clock.
func (c *Clock) SetSpeed(speed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speed = speed
}

// Running reports whether Run is active.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Months returns how many months the clock has driven.
func (c *Clock) Months() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.months
}

// Run drives the clock until ctx is done or Stop is called.
func (c *Clock) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.running = true
	c.cancel = cancel
	c.mu.Unlock()

	slog.Info("clock started", "interval", c.Interval, "speed", c.Speed())

	for {
		speed := c.Speed()
		wait := pausePoll
		if speed > 0 {
			wait = time.Duration(float64(c.Interval) / speed)
		}

		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.running = false
			c.cancel = nil
			c.mu.Unlock()
			slog.Info("clock stopped", "months", c.Months())
			return
		case <-time.After(wait):
		}

		// Re-read: the clock may have been paused while waiting.
		if c.Speed() > 0 {
			c.Step()
		}
	}
}

// Stop halts a running clock.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// Step advances one month immediately.
func (c *Clock) Step() {
	c.mu.Lock()
	c.months++
	c.mu.Unlock()

	if c.OnMonth != nil {
		c.OnMonth()
	}
}

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Date returns a human-readable calendar date for a 1-based month number.
func Date(month int) string {
	if month < 1 {
		return "Before founding"
	}
	m := month - 1
	return fmt.Sprintf("%s, Year %d", monthNames[m%12], m/12+1)
}
