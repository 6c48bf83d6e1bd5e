package bcmst

import (
	"periph.io/x/conn/v3/physic"

	"timerhal-go/errcode"
	"timerhal-go/ltimer"
	"timerhal-go/x/mmio"
)

// Config wires one Timer over a mapped register window.
type Config struct {
	Window  mmio.Window
	Channel int // compare channel, 1 or 3 (0 and 2 are the GPU's)
}

func (c Config) Validate() error {
	if len(c.Window) < regC3+4 {
		return &errcode.E{C: errcode.InvalidArgument, Op: "bcmst.New", Msg: "window too small"}
	}
	if c.Channel != 1 && c.Channel != 3 {
		return &errcode.E{C: errcode.InvalidArgument, Op: "bcmst.New", Msg: "channel must be 1 or 3"}
	}
	return nil
}

// Timer is one compare channel plus the shared free-running counter.
type Timer struct {
	w    mmio.Window
	ch   int
	base uint64 // counter reading at Start; Ticks counts from here
}

func New(cfg Config) (*Timer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Timer{w: cfg.Window, ch: cfg.Channel}, nil
}

// Start latches the zero point. The hardware counter free-runs and
// cannot be halted; starting means counting from here on.
func (t *Timer) Start() error {
	t.base = t.raw()
	t.w.Write32(regCS, 1<<uint(t.ch)) // drop any stale match
	return nil
}

// Stop parks the comparator. The free-running counter itself keeps
// going.
func (t *Timer) Stop() error { return t.Disarm() }

func (t *Timer) Ticks() uint64 { return t.raw() - t.base }

// raw reads the 64-bit counter with the high-low-high dance so a
// low-word wrap between the reads cannot tear the value.
func (t *Timer) raw() uint64 {
	for {
		hi := t.w.Read32(regCHI)
		lo := t.w.Read32(regCLO)
		if t.w.Read32(regCHI) == hi {
			return uint64(hi)<<32 | uint64(lo)
		}
	}
}

func (t *Timer) Frequency() physic.Frequency { return physic.MegaHertz }

// Arm schedules a match ticks steps from now (one step per
// microsecond). The channel has no reload hardware, so periodic mode is
// refused; deadlines beyond half the 32-bit horizon would be ambiguous
// against the moving counter and are refused rather than silently
// wrapped.
func (t *Timer) Arm(ticks uint64, periodic bool) error {
	if periodic {
		return errcode.Unsupported
	}
	if ticks >= maxSpan {
		return errcode.Range
	}
	if ticks == 0 {
		ticks = 1
	}
	lo := t.w.Read32(regCLO)
	t.w.Write32(regCS, 1<<uint(t.ch))
	t.w.Write32(compareReg(t.ch), lo+uint32(ticks))
	return nil
}

// Disarm pushes the comparator a full horizon behind now, the closest
// this hardware has to "never".
func (t *Timer) Disarm() error {
	lo := t.w.Read32(regCLO)
	t.w.Write32(compareReg(t.ch), lo-1)
	t.w.Write32(regCS, 1<<uint(t.ch))
	return nil
}

// AckIRQ clears the channel's match bit.
func (t *Timer) AckIRQ() error {
	t.w.Write32(regCS, 1<<uint(t.ch))
	return nil
}

var (
	_ ltimer.Counter = (*Timer)(nil)
	_ ltimer.Armer   = (*Timer)(nil)
)
