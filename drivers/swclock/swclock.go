// Package swclock backs the device contract with host time. Clock
// counts nanoseconds on the runtime monotonic clock and Alarm fires a
// callback through the runtime timer wheel, so a full logical timer can
// run in an ordinary process with no hardware behind it.
package swclock

import (
	"time"

	"periph.io/x/conn/v3/physic"

	"timerhal-go/ltimer"
)

// Clock counts nanoseconds since Start on the host monotonic clock.
type Clock struct {
	epoch  time.Time
	frozen uint64
	run    bool
}

// NewClock returns a stopped clock.
func NewClock() *Clock { return &Clock{} }

// Start begins counting from zero.
func (c *Clock) Start() error {
	c.epoch = time.Now()
	c.frozen = 0
	c.run = true
	return nil
}

// Stop freezes the count.
func (c *Clock) Stop() error {
	c.frozen = c.Ticks()
	c.run = false
	return nil
}

// Ticks returns nanoseconds since Start, or the frozen count while
// stopped.
func (c *Clock) Ticks() uint64 {
	if !c.run {
		return c.frozen
	}
	return uint64(time.Since(c.epoch))
}

// Frequency returns one tick per nanosecond.
func (c *Clock) Frequency() physic.Frequency { return physic.GigaHertz }

// AckIRQ is a no-op; the clock never interrupts.
func (c *Clock) AckIRQ() error { return nil }

var _ ltimer.Counter = (*Clock)(nil)
