// Package pcfrtc assembles a logical timer around the countdown timer
// of a bus-attached PCF8563 real-time clock. The part has no readable
// count worth using as a clock, so the counting role falls to the host
// monotonic clock and the part only fires deadlines.
//
// The part's interrupt pin reaches the host over whatever line the
// board routes it to; callers translate that line to IRQLine before
// calling HandleIRQ.
package pcfrtc

import (
	"timerhal-go/drivers/pcf8563"
	"timerhal-go/drivers/swclock"
	"timerhal-go/errcode"
	"timerhal-go/ltimer"
	"timerhal-go/platform"
)

// Name is the board name in the platform registry.
const Name = "pcfrtc"

// IRQLine is the single interrupt identity the timer answers for.
const IRQLine = 0

// Params tunes the part.
type Params struct {
	// Address overrides the fixed part address. Zero keeps it.
	Address uint16
	// Source selects the countdown clock.
	Source pcf8563.Source
}

func init() { platform.Register(Name, builder{}) }

type builder struct{}

func (builder) Describe() ltimer.Description {
	return ltimer.Description{
		IRQs: []ltimer.IRQ{{Number: IRQLine}},
	}
}

func (b builder) Build(in platform.BuildInput) (ltimer.LogicalTimer, error) {
	if in.I2C == nil {
		return nil, &errcode.E{C: errcode.InvalidArgument, Op: "pcfrtc.Build", Msg: "nil I2C bus"}
	}
	p, _ := in.Params.(Params)

	rtc, err := pcf8563.New(in.I2C, pcf8563.Config{Address: p.Address, Source: p.Source})
	if err != nil {
		return nil, err
	}

	g, err := ltimer.New(ltimer.Config{
		Counter:    swclock.NewClock(),
		Timeout:    rtc,
		Routes:     []ltimer.Route{{IRQ: b.Describe().NthIRQ(0), Dev: rtc}},
		AutoReload: true,
		Resolution: 1,
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}
