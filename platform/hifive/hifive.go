// Package hifive assembles the HiFive Unleashed logical timer from two
// FU540 PWM blocks: PWM0 wrap-extended as the clock, PWM1 as the
// deadline comparator with hardware periodic reload.
package hifive

import (
	"periph.io/x/conn/v3/physic"

	"timerhal-go/drivers/sfpwm"
	"timerhal-go/env"
	"timerhal-go/errcode"
	"timerhal-go/ltimer"
	"timerhal-go/platform"
	"timerhal-go/x/tickmath"
)

// Name is the board name in the platform registry.
const Name = "hifive"

const (
	pwm0Base = 0x10020000
	pwm1Base = 0x10021000
	pwmSize  = 0x1000

	irqPWM0 = 42
	irqPWM1 = 46

	defaultClock = 500 * physic.MegaHertz
	defaultScale = 6
)

// Params tunes the blocks for boards clocked away from the defaults.
type Params struct {
	// Clock is the PWM input clock (tlclk). Zero means 500 MHz.
	Clock physic.Frequency
	// Scale divides the input clock by 2^Scale. Zero means 6, which
	// puts one tick at 128 ns and the wrap bridge minutes apart.
	Scale uint8
}

func (p Params) withDefaults() Params {
	if p.Clock == 0 {
		p.Clock = defaultClock
	}
	if p.Scale == 0 {
		p.Scale = defaultScale
	}
	return p
}

// TickRate returns the counting tick rate the params produce, defaults
// applied: the input clock divided by 2^Scale.
func (p Params) TickRate() physic.Frequency {
	p = p.withDefaults()
	return p.Clock >> p.Scale
}

func init() { platform.Register(Name, builder{}) }

type builder struct{}

func (builder) Describe() ltimer.Description {
	return ltimer.Description{
		IRQs: []ltimer.IRQ{{Number: irqPWM0}, {Number: irqPWM1}},
		Regions: []ltimer.MemRegion{
			{Addr: pwm0Base, Size: pwmSize},
			{Addr: pwm1Base, Size: pwmSize},
		},
	}
}

func (b builder) Build(in platform.BuildInput) (ltimer.LogicalTimer, error) {
	if in.Env == nil {
		return nil, &errcode.E{C: errcode.InvalidArgument, Op: "hifive.Build", Msg: "nil environment"}
	}
	p, _ := in.Params.(Params)
	p = p.withDefaults()

	desc := b.Describe()
	var cl env.Cleanup

	winCount, err := in.Env.Map(desc.NthRegion(0))
	if err != nil {
		return nil, err
	}
	cl.Add(func() { _ = in.Env.Unmap(winCount, desc.NthRegion(0)) })

	winAlarm, err := in.Env.Map(desc.NthRegion(1))
	if err != nil {
		cl.Run()
		return nil, err
	}
	cl.Add(func() { _ = in.Env.Unmap(winAlarm, desc.NthRegion(1)) })

	count, err := sfpwm.New(sfpwm.Config{Window: winCount, Role: sfpwm.RoleCount, Clock: p.Clock, Scale: p.Scale})
	if err != nil {
		cl.Run()
		return nil, err
	}
	alarm, err := sfpwm.New(sfpwm.Config{Window: winAlarm, Role: sfpwm.RoleAlarm, Clock: p.Clock, Scale: p.Scale})
	if err != nil {
		cl.Run()
		return nil, err
	}

	g, err := ltimer.New(ltimer.Config{
		Counter: count,
		Timeout: alarm,
		Routes: []ltimer.Route{
			{IRQ: desc.NthIRQ(0), Dev: count},
			{IRQ: desc.NthIRQ(1), Dev: alarm},
		},
		AutoReload: true,
		Resolution: tickmath.ExactPeriodNs(count.Frequency()),
		Release:    cl.Detach(),
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}
