// Package hostsim assembles a logical timer with no hardware at all:
// host monotonic time is the clock and the runtime timer wheel fires
// the deadlines. Firings arrive through the Deliver hook as the
// synthetic interrupt IRQLine, giving tests and host binaries the same
// composition and interrupt flow a board has.
package hostsim

import (
	"timerhal-go/drivers/swclock"
	"timerhal-go/errcode"
	"timerhal-go/ltimer"
	"timerhal-go/platform"
)

// Name is the board name in the platform registry.
const Name = "hostsim"

// IRQLine is the synthetic interrupt identity alarm firings arrive as.
const IRQLine = 0

func init() { platform.Register(Name, builder{}) }

type builder struct{}

func (builder) Describe() ltimer.Description {
	return ltimer.Description{
		IRQs: []ltimer.IRQ{{Number: IRQLine}},
	}
}

func (b builder) Build(in platform.BuildInput) (ltimer.LogicalTimer, error) {
	if in.Deliver == nil {
		return nil, &errcode.E{C: errcode.InvalidArgument, Op: "hostsim.Build",
			Msg: "nil Deliver hook, firings would be lost"}
	}
	deliver := in.Deliver
	alarm := swclock.NewAlarm(func() { deliver(ltimer.IRQ{Number: IRQLine}) })

	g, err := ltimer.New(ltimer.Config{
		Counter:    swclock.NewClock(),
		Timeout:    alarm,
		Routes:     []ltimer.Route{{IRQ: b.Describe().NthIRQ(0), Dev: alarm}},
		AutoReload: true,
		Resolution: 1,
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}
