package ltimer

import (
	"periph.io/x/conn/v3/physic"

	"timerhal-go/errcode"
	"timerhal-go/x/tickmath"
)

// Route binds one interrupt identity to the device that owns it.
type Route struct {
	IRQ IRQ
	Dev Device
}

// Config wires a Group. Platforms fill one of these from the devices
// they constructed over their mapped register windows.
type Config struct {
	// Counter supplies the monotonic clock. Required.
	Counter Counter

	// Timeout fires the schedulable deadline. Required; may be the same
	// device as Counter for single-device platforms.
	Timeout Armer

	// Routes lists every interrupt identity the group answers for, one
	// per line in the platform's Description.
	Routes []Route

	// AutoReload marks Timeout as reloading periodic intervals in
	// hardware. Without it the group re-arms in software on every
	// acknowledged firing.
	AutoReload bool

	// Resolution is the nanosecond size of one counter step, reported
	// by Resolution. Zero means the platform has no meaningful value.
	Resolution uint64

	// Release runs last during Close: the platform's hook for unmapping
	// register windows and the like. May be nil.
	Release func()
}

// Validate rejects wirings that could never operate. Configuration
// errors are reported before any hardware is touched.
func (c Config) Validate() error {
	if c.Counter == nil {
		return &errcode.E{C: errcode.InvalidArgument, Op: "ltimer.New", Msg: "nil counter device"}
	}
	if c.Timeout == nil {
		return &errcode.E{C: errcode.InvalidArgument, Op: "ltimer.New", Msg: "nil timeout device"}
	}
	if len(c.Routes) == 0 {
		return &errcode.E{C: errcode.InvalidArgument, Op: "ltimer.New", Msg: "no interrupt routes"}
	}
	seen := make(map[uint32]bool, len(c.Routes))
	for _, r := range c.Routes {
		if r.Dev == nil || (r.Dev != Device(c.Counter) && r.Dev != Device(c.Timeout)) {
			return &errcode.E{C: errcode.InvalidArgument, Op: "ltimer.New",
				Msg: "route to a device the group does not own"}
		}
		if seen[r.IRQ.Number] {
			return &errcode.E{C: errcode.InvalidArgument, Op: "ltimer.New",
				Msg: "duplicate interrupt route"}
		}
		seen[r.IRQ.Number] = true
	}
	return nil
}

// Group composes one or two physical timer devices into a LogicalTimer.
// The zero value is not usable; construct with New.
type Group struct {
	cfg       Config
	counterHz physic.Frequency
	timeoutHz physic.Frequency
	sameDev   bool

	period    uint64 // active periodic interval in ns, 0 = none
	counterOn bool
	timeoutOn bool
	closed    bool
}

var _ LogicalTimer = (*Group)(nil)

// New builds and starts a Group: it validates the wiring, reads both
// device frequencies (a zero read is fatal, not a degraded timer),
// starts the counter, then parks the timeout device disarmed. Any
// failure releases exactly what was acquired, through the same path
// Close takes, and returns the cause.
func New(cfg Config) (*Group, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Group{
		cfg:     cfg,
		sameDev: Device(cfg.Counter) == Device(cfg.Timeout),
	}
	g.counterHz = cfg.Counter.Frequency()
	g.timeoutHz = cfg.Timeout.Frequency()
	if tickmath.Hz(g.counterHz) == 0 || tickmath.Hz(g.timeoutHz) == 0 {
		g.Close()
		return nil, &errcode.E{C: errcode.DeviceNotReady, Op: "ltimer.New",
			Msg: "device frequency reads zero"}
	}
	if err := cfg.Counter.Start(); err != nil {
		g.Close()
		return nil, &errcode.E{C: errcode.DeviceNotReady, Op: "ltimer.New",
			Msg: "counter start", Err: err}
	}
	g.counterOn = true
	if !g.sameDev {
		if err := cfg.Timeout.Start(); err != nil {
			g.Close()
			return nil, &errcode.E{C: errcode.DeviceNotReady, Op: "ltimer.New",
				Msg: "timeout start", Err: err}
		}
		g.timeoutOn = true
	}
	if err := cfg.Timeout.Disarm(); err != nil {
		g.Close()
		return nil, &errcode.E{C: errcode.DeviceNotReady, Op: "ltimer.New",
			Msg: "park timeout disarmed", Err: err}
	}
	return g, nil
}

// Time returns nanoseconds since Start, converted from the counter's
// native ticks at its observed frequency.
func (g *Group) Time() uint64 {
	return tickmath.TicksToNs(g.cfg.Counter.Ticks(), g.counterHz)
}

// Period returns the active periodic interval in nanoseconds, 0 when no
// periodic timeout is active.
func (g *Group) Period() uint64 { return g.period }

func (g *Group) Resolution() (uint64, error) {
	if g.cfg.Resolution == 0 {
		return 0, errcode.Unsupported
	}
	return g.cfg.Resolution, nil
}

func (g *Group) SetTimeout(k Kind, ns uint64) error {
	now := g.Time()
	deadline, period, err := deadlineFor(k, ns, now)
	if err != nil {
		return err
	}
	if deadline <= now {
		// Arming a doomed deadline would silently wrap on devices with
		// narrow comparators; reject with hardware untouched.
		return errcode.AlreadyElapsed
	}
	ticks := tickmath.NsToTicks(deadline-now, g.timeoutHz)
	if err := g.cfg.Timeout.Arm(ticks, period > 0 && g.cfg.AutoReload); err != nil {
		return err
	}
	// Commit the period only once the hardware accepted the deadline, so
	// a rejected request cannot leave acknowledgments rearming it.
	g.period = period
	return nil
}

func (g *Group) HandleIRQ(irq IRQ) error {
	dev := g.route(irq)
	if dev == nil {
		// A line nobody owns means the caller's registration and our
		// description disagree. Report it; the instance stays usable.
		return errcode.InvalidArgument
	}
	if err := dev.AckIRQ(); err != nil {
		return err
	}
	if dev != Device(g.cfg.Timeout) || g.cfg.AutoReload {
		return nil
	}
	if g.period > 0 {
		return g.cfg.Timeout.Arm(tickmath.NsToTicks(g.period, g.timeoutHz), false)
	}
	return g.cfg.Timeout.Disarm()
}

func (g *Group) route(irq IRQ) Device {
	for _, r := range g.cfg.Routes {
		if r.IRQ == irq {
			return r.Dev
		}
	}
	return nil
}

func (g *Group) Reset() error {
	g.period = 0
	if err := g.cfg.Timeout.Disarm(); err != nil {
		return err
	}
	if err := g.cfg.Counter.Stop(); err != nil {
		return err
	}
	return g.cfg.Counter.Start()
}

// Close releases in reverse-acquisition order, touching only resources
// that were actually acquired, then runs the platform release hook.
func (g *Group) Close() {
	if g.closed {
		return
	}
	g.closed = true
	g.period = 0
	if g.timeoutOn {
		g.timeoutOn = false
		_ = g.cfg.Timeout.Disarm()
		_ = g.cfg.Timeout.Stop()
	}
	if g.counterOn {
		g.counterOn = false
		if g.sameDev {
			_ = g.cfg.Timeout.Disarm()
		}
		_ = g.cfg.Counter.Stop()
	}
	if g.cfg.Release != nil {
		g.cfg.Release()
	}
}
