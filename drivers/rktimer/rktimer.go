package rktimer

import (
	"periph.io/x/conn/v3/physic"

	"timerhal-go/errcode"
	"timerhal-go/ltimer"
	"timerhal-go/x/mmio"
)

// Role selects how the channel is programmed.
type Role uint8

const (
	// RoleCount runs the channel free, counting up through 64 bits.
	RoleCount Role = iota
	// RoleAlarm holds the channel stopped until armed, then counts up
	// to the programmed load value in user-defined mode.
	RoleAlarm
)

// DefaultClock is the input clock on every RK3399 board we drive.
const DefaultClock = 24 * physic.MegaHertz

// Config describes one channel of the timer block.
type Config struct {
	// Window covers the registers of exactly one channel. For channel
	// n of a block map the block and slice at n*ChannelStride.
	Window mmio.Window

	Role Role

	// Clock is the channel input clock. Zero means DefaultClock.
	Clock physic.Frequency
}

// Validate reports whether the configuration can drive a channel.
func (c *Config) Validate() error {
	if len(c.Window) < regIntStat+4 {
		return &errcode.E{C: errcode.InvalidArgument, Op: "rktimer.Validate", Msg: "window smaller than one channel"}
	}
	if c.Role != RoleCount && c.Role != RoleAlarm {
		return &errcode.E{C: errcode.InvalidArgument, Op: "rktimer.Validate", Msg: "unknown role"}
	}
	if c.Clock < 0 {
		return &errcode.E{C: errcode.InvalidArgument, Op: "rktimer.Validate", Msg: "negative clock"}
	}
	return nil
}

// Timer is one channel of the block.
type Timer struct {
	w       mmio.Window
	role    Role
	clock   physic.Frequency
	oneshot bool
}

// New wraps a mapped channel. The channel is left untouched until
// Start.
func New(c Config) (*Timer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Clock == 0 {
		c.Clock = DefaultClock
	}
	return &Timer{w: c.Window, role: c.Role, clock: c.Clock}, nil
}

// Start programs the channel for its role. The counting role begins a
// free run from zero with the interrupt masked; the timeout role is
// left disabled until armed.
func (t *Timer) Start() error {
	t.w.Write32(regControl, 0)
	t.w.Write32(regIntStat, intPending)
	if t.role == RoleCount {
		t.w.Write32(regLoad0, 0)
		t.w.Write32(regLoad1, 0)
		t.w.Write32(regControl, ctlEnable)
	}
	t.oneshot = false
	return nil
}

// Stop disables the channel and drops any pending interrupt.
func (t *Timer) Stop() error {
	t.w.Write32(regControl, 0)
	t.w.Write32(regIntStat, intPending)
	t.oneshot = false
	return nil
}

// Ticks returns the current 64-bit count. The two halves latch
// separately so the high word is re-read until it is stable across the
// low word read.
func (t *Timer) Ticks() uint64 {
	for {
		hi := t.w.Read32(regValue1)
		lo := t.w.Read32(regValue0)
		if t.w.Read32(regValue1) == hi {
			return uint64(hi)<<32 | uint64(lo)
		}
	}
}

// Frequency returns the channel input clock.
func (t *Timer) Frequency() physic.Frequency { return t.clock }

// Arm programs a firing ticks from now. The channel restarts from zero
// on its own after each firing, so periodic requests need no further
// programming; one-shots are disabled when acknowledged.
func (t *Timer) Arm(ticks uint64, periodic bool) error {
	if t.role == RoleCount {
		return errcode.Unsupported
	}
	if ticks == 0 {
		ticks = 1
	}
	t.w.Write32(regControl, 0)
	t.w.Write32(regLoad0, uint32(ticks))
	t.w.Write32(regLoad1, uint32(ticks>>32))
	t.w.Write32(regIntStat, intPending)
	t.w.Write32(regControl, ctlEnable|ctlUserMode|ctlIntEn)
	t.oneshot = !periodic
	return nil
}

// Disarm stops the channel so no firing is outstanding.
func (t *Timer) Disarm() error {
	t.w.Write32(regControl, 0)
	t.w.Write32(regIntStat, intPending)
	t.oneshot = false
	return nil
}

// AckIRQ clears the pending interrupt. A one-shot firing also disables
// the channel so the hardware restart cannot fire it again.
func (t *Timer) AckIRQ() error {
	t.w.Write32(regIntStat, intPending)
	if t.role == RoleAlarm && t.oneshot {
		t.w.Write32(regControl, 0)
		t.oneshot = false
	}
	return nil
}

var (
	_ ltimer.Counter = (*Timer)(nil)
	_ ltimer.Armer   = (*Timer)(nil)
)
