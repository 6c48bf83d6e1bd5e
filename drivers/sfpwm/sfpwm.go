package sfpwm

import (
	"periph.io/x/conn/v3/physic"

	"timerhal-go/errcode"
	"timerhal-go/ltimer"
	"timerhal-go/x/mmio"
)

// Role selects what a PWM block does for the logical timer.
type Role uint8

const (
	RoleCount Role = iota // continuous clock source
	RoleAlarm             // deadline comparator
)

// Config wires one PWM block.
type Config struct {
	Window mmio.Window
	Role   Role
	Clock  physic.Frequency // input clock (tlclk); required
	Scale  uint8            // input divide of 2^Scale, 0..15
}

func (c Config) Validate() error {
	if len(c.Window) < regCmp0+4 {
		return &errcode.E{C: errcode.InvalidArgument, Op: "sfpwm.New", Msg: "window too small"}
	}
	if c.Role != RoleCount && c.Role != RoleAlarm {
		return &errcode.E{C: errcode.InvalidArgument, Op: "sfpwm.New", Msg: "bad role"}
	}
	if c.Clock <= 0 {
		return &errcode.E{C: errcode.InvalidArgument, Op: "sfpwm.New", Msg: "input clock required"}
	}
	if c.Scale > 15 {
		return &errcode.E{C: errcode.InvalidArgument, Op: "sfpwm.New", Msg: "scale beyond 4 bits"}
	}
	return nil
}

// PWM is one FU540 PWM block in a fixed role.
type PWM struct {
	w     mmio.Window
	role  Role
	scale uint8
	clock physic.Frequency
	accum uint64 // whole wraps banked by AckIRQ in RoleCount
}

func New(cfg Config) (*PWM, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &PWM{w: cfg.Window, role: cfg.Role, scale: cfg.Scale, clock: cfg.Clock}, nil
}

func (p *PWM) baseCfg() uint32 {
	return uint32(p.scale)&cfgScaleMask | cfgSticky
}

func (p *PWM) Start() error {
	switch p.role {
	case RoleCount:
		p.accum = 0
		p.w.Write32(regCmp0, wrapSpan)
		p.w.Write32(regCount, 0)
		p.w.Write32(regCfg, p.baseCfg()|cfgZeroCmp|cfgEnAlways)
	case RoleAlarm:
		p.w.Write32(regCmp0, countMask)
		p.w.Write32(regCount, 0)
		p.w.Write32(regCfg, p.baseCfg()) // parked, not counting
	}
	return nil
}

// Stop halts counting and drops any pending interrupt.
func (p *PWM) Stop() error {
	p.w.Write32(regCfg, p.baseCfg())
	return nil
}

// Ticks extends the 31-bit hardware count with the banked wraps. A wrap
// that has fired but is not yet acknowledged shows up through the sticky
// pending flag, so the reading does not dip while an interrupt is in
// flight. Only one outstanding wrap can be accounted for; wrap
// interrupts must be serviced within a wrap span.
func (p *PWM) Ticks() uint64 {
	for {
		ip := p.w.Read32(regCfg) & cfgCmp0IP
		count := p.w.Read32(regCount) & countMask
		if p.w.Read32(regCfg)&cfgCmp0IP != ip {
			continue // wrapped between the reads, go again
		}
		pending := uint64(0)
		if ip != 0 {
			pending = wrapSpan
		}
		return p.accum + pending + uint64(count)
	}
}

// Frequency is the input clock divided by 2^scale.
func (p *PWM) Frequency() physic.Frequency {
	return p.clock >> p.scale
}

// Arm programs a firing ticks from now. One-shot firings use the
// self-clearing enable; periodic firings use reset-at-compare, so the
// hardware reloads the interval with no software help.
func (p *PWM) Arm(ticks uint64, periodic bool) error {
	if p.role != RoleAlarm {
		return errcode.Unsupported
	}
	if ticks > countMask {
		return errcode.Range
	}
	if ticks == 0 {
		ticks = 1
	}
	base := p.baseCfg()
	p.w.Write32(regCfg, base) // halt and clear pending
	p.w.Write32(regCount, 0)
	p.w.Write32(regCmp0, uint32(ticks))
	if periodic {
		p.w.Write32(regCfg, base|cfgZeroCmp|cfgEnAlways)
	} else {
		p.w.Write32(regCfg, base|cfgEnOneShot)
	}
	return nil
}

func (p *PWM) Disarm() error {
	p.w.Write32(regCfg, p.baseCfg())
	p.w.Write32(regCmp0, countMask)
	return nil
}

// AckIRQ clears the pending flag; in RoleCount it first banks the wrap
// the interrupt announced.
func (p *PWM) AckIRQ() error {
	if p.role == RoleCount {
		p.accum += wrapSpan
	}
	p.w.ClearBits32(regCfg, cfgCmp0IP)
	return nil
}

var (
	_ ltimer.Counter = (*PWM)(nil)
	_ ltimer.Armer   = (*PWM)(nil)
)
