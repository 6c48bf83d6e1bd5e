// Package rpi3 assembles the Raspberry Pi 3 logical timer from the
// BCM2837 system timer: the shared microsecond counter is the clock and
// one compare channel fires the timeout, so a single device and a
// single interrupt line cover both roles.
package rpi3

import (
	"timerhal-go/drivers/bcmst"
	"timerhal-go/env"
	"timerhal-go/errcode"
	"timerhal-go/ltimer"
	"timerhal-go/platform"
	"timerhal-go/x/tickmath"
)

// Name is the board name in the platform registry.
const Name = "rpi3"

const (
	stBase = 0x3F003000
	stSize = 0x1000

	// Channels 0 and 2 belong to the GPU. Compare channel n signals
	// interrupt line n.
	channel = 3
	irqLine = 3
)

func init() { platform.Register(Name, builder{}) }

type builder struct{}

func (builder) Describe() ltimer.Description {
	return ltimer.Description{
		IRQs:    []ltimer.IRQ{{Number: irqLine}},
		Regions: []ltimer.MemRegion{{Addr: stBase, Size: stSize}},
	}
}

func (b builder) Build(in platform.BuildInput) (ltimer.LogicalTimer, error) {
	if in.Env == nil {
		return nil, &errcode.E{C: errcode.InvalidArgument, Op: "rpi3.Build", Msg: "nil environment"}
	}
	desc := b.Describe()
	var cl env.Cleanup

	region := desc.NthRegion(0)
	win, err := in.Env.Map(region)
	if err != nil {
		return nil, err
	}
	cl.Add(func() { _ = in.Env.Unmap(win, region) })

	st, err := bcmst.New(bcmst.Config{Window: win, Channel: channel})
	if err != nil {
		cl.Run()
		return nil, err
	}

	g, err := ltimer.New(ltimer.Config{
		Counter:    st,
		Timeout:    st,
		Routes:     []ltimer.Route{{IRQ: desc.NthIRQ(0), Dev: st}},
		Resolution: tickmath.ExactPeriodNs(st.Frequency()),
		Release:    cl.Detach(),
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}
