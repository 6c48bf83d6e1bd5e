// Package rockpro64 assembles the ROCKPro64 logical timer from two
// channels of the RK3399 timer block: channel 0 free-running as the
// clock, channel 1 in user-defined mode as the deadline comparator with
// hardware periodic restart.
package rockpro64

import (
	"timerhal-go/drivers/rktimer"
	"timerhal-go/env"
	"timerhal-go/errcode"
	"timerhal-go/ltimer"
	"timerhal-go/platform"
	"timerhal-go/x/tickmath"
)

// Name is the board name in the platform registry.
const Name = "rockpro64"

const (
	blockBase = 0xFF850000

	irqChan0 = 113
	irqChan1 = 114
)

func init() { platform.Register(Name, builder{}) }

type builder struct{}

func (builder) Describe() ltimer.Description {
	return ltimer.Description{
		IRQs: []ltimer.IRQ{{Number: irqChan0}, {Number: irqChan1}},
		Regions: []ltimer.MemRegion{
			{Addr: blockBase, Size: rktimer.ChannelStride},
			{Addr: blockBase + rktimer.ChannelStride, Size: rktimer.ChannelStride},
		},
	}
}

func (b builder) Build(in platform.BuildInput) (ltimer.LogicalTimer, error) {
	if in.Env == nil {
		return nil, &errcode.E{C: errcode.InvalidArgument, Op: "rockpro64.Build", Msg: "nil environment"}
	}
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

	count, err := rktimer.New(rktimer.Config{Window: winCount, Role: rktimer.RoleCount})
	if err != nil {
		cl.Run()
		return nil, err
	}
	alarm, err := rktimer.New(rktimer.Config{Window: winAlarm, Role: rktimer.RoleAlarm})
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
		// 24 MHz ticks are not whole nanoseconds; no resolution to report.
		Resolution: tickmath.ExactPeriodNs(count.Frequency()),
		Release:    cl.Detach(),
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}
