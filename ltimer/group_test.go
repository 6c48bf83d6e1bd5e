package ltimer

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/physic"

	"timerhal-go/errcode"
)

type armCall struct {
	ticks    uint64
	periodic bool
}

// fakeDev is a manually advanced timer device implementing both Counter
// and Armer.
type fakeDev struct {
	name  string
	freq  physic.Frequency
	ticks uint64

	startErr error
	armErr   error

	starts  int
	stops   int
	acks    int
	disarms int
	arms    []armCall

	events *[]string // shared ordering log, optional
}

func (d *fakeDev) log(ev string) {
	if d.events != nil {
		*d.events = append(*d.events, d.name+":"+ev)
	}
}

func (d *fakeDev) Start() error {
	if d.startErr != nil {
		return d.startErr
	}
	d.starts++
	d.ticks = 0
	d.log("start")
	return nil
}

func (d *fakeDev) Stop() error {
	d.stops++
	d.log("stop")
	return nil
}

func (d *fakeDev) AckIRQ() error {
	d.acks++
	return nil
}

func (d *fakeDev) Frequency() physic.Frequency { return d.freq }
func (d *fakeDev) Ticks() uint64               { return d.ticks }

func (d *fakeDev) Arm(ticks uint64, periodic bool) error {
	if d.armErr != nil {
		return d.armErr
	}
	d.arms = append(d.arms, armCall{ticks, periodic})
	return nil
}

func (d *fakeDev) Disarm() error {
	d.disarms++
	d.log("disarm")
	return nil
}

const testIRQ = 27

func newMHzDev() *fakeDev { return &fakeDev{name: "dev", freq: physic.MegaHertz} }

func newSingleGroup(t *testing.T, dev *fakeDev) *Group {
	t.Helper()
	g, err := New(Config{
		Counter: dev,
		Timeout: dev,
		Routes:  []Route{{IRQ: IRQ{Number: testIRQ}, Dev: dev}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestTimeIsMonotonicAndConverted(t *testing.T) {
	dev := newMHzDev()
	g := newSingleGroup(t, dev)

	prev := uint64(0)
	for _, ticks := range []uint64{0, 1, 1, 5, 900, 900, 12345} {
		dev.ticks = ticks
		now := g.Time()
		if now < prev {
			t.Fatalf("Time regressed: %d after %d", now, prev)
		}
		if want := ticks * 1000; now != want {
			t.Fatalf("Time at %d ticks = %d ns, want %d", ticks, now, want)
		}
		prev = now
	}
}

func TestAbsoluteAtOrBeforeNowIsRejected(t *testing.T) {
	dev := newMHzDev()
	g := newSingleGroup(t, dev)
	dev.ticks = 5 // now = 5000 ns

	for _, ns := range []uint64{0, 4999, 5000} {
		if err := g.SetTimeout(Absolute, ns); errcode.Of(err) != errcode.AlreadyElapsed {
			t.Fatalf("SetTimeout(Absolute, %d) = %v, want already_elapsed", ns, err)
		}
	}
	if len(dev.arms) != 0 {
		t.Fatalf("rejected timeouts armed hardware: %v", dev.arms)
	}

	if err := g.SetTimeout(Absolute, 7000); err != nil {
		t.Fatalf("SetTimeout(Absolute, 7000): %v", err)
	}
	if len(dev.arms) != 1 || dev.arms[0] != (armCall{ticks: 2, periodic: false}) {
		t.Fatalf("arm calls = %v, want one {2 false}", dev.arms)
	}
}

func TestRelativeArmsOnceAndStoresNoPeriod(t *testing.T) {
	dev := newMHzDev()
	g := newSingleGroup(t, dev)

	if err := g.SetTimeout(Relative, 2500); err != nil {
		t.Fatalf("SetTimeout: %v", err)
	}
	// 2500 ns at 1 MHz rounds up to 3 ticks so the firing is never early.
	if len(dev.arms) != 1 || dev.arms[0] != (armCall{ticks: 3, periodic: false}) {
		t.Fatalf("arm calls = %v, want one {3 false}", dev.arms)
	}
	if g.Period() != 0 {
		t.Fatalf("relative timeout stored period %d", g.Period())
	}

	disarms := dev.disarms
	if err := g.HandleIRQ(IRQ{Number: testIRQ}); err != nil {
		t.Fatalf("HandleIRQ: %v", err)
	}
	if dev.acks != 1 {
		t.Fatalf("acks = %d, want 1", dev.acks)
	}
	if dev.disarms != disarms+1 {
		t.Fatal("one-shot acknowledgment did not disarm")
	}
	if len(dev.arms) != 1 {
		t.Fatalf("one-shot acknowledgment rearmed: %v", dev.arms)
	}
}

func TestPeriodicRearmsOnEveryAck(t *testing.T) {
	dev := newMHzDev()
	g := newSingleGroup(t, dev)

	if err := g.SetTimeout(Periodic, 3000); err != nil {
		t.Fatalf("SetTimeout: %v", err)
	}
	if g.Period() != 3000 {
		t.Fatalf("Period = %d, want 3000", g.Period())
	}
	for i := 0; i < 3; i++ {
		if err := g.HandleIRQ(IRQ{Number: testIRQ}); err != nil {
			t.Fatalf("HandleIRQ %d: %v", i, err)
		}
	}
	if len(dev.arms) != 4 {
		t.Fatalf("arm calls = %d, want initial + 3 rearms", len(dev.arms))
	}
	for i, a := range dev.arms {
		if a != (armCall{ticks: 3, periodic: false}) {
			t.Fatalf("arm %d = %v, want {3 false}", i, a)
		}
	}

	if err := g.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if g.Period() != 0 {
		t.Fatalf("Period after Reset = %d", g.Period())
	}
	if dev.starts != 2 || dev.stops != 1 {
		t.Fatalf("Reset did not restart the counter (starts=%d stops=%d)", dev.starts, dev.stops)
	}
	arms := len(dev.arms)
	if err := g.HandleIRQ(IRQ{Number: testIRQ}); err != nil {
		t.Fatalf("HandleIRQ after Reset: %v", err)
	}
	if len(dev.arms) != arms {
		t.Fatal("acknowledgment after Reset rearmed a cleared period")
	}
}

func TestPeriodicWithHardwareReload(t *testing.T) {
	dev := newMHzDev()
	g, err := New(Config{
		Counter:    dev,
		Timeout:    dev,
		Routes:     []Route{{IRQ: IRQ{Number: testIRQ}, Dev: dev}},
		AutoReload: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := g.SetTimeout(Periodic, 4000); err != nil {
		t.Fatalf("SetTimeout: %v", err)
	}
	if len(dev.arms) != 1 || dev.arms[0] != (armCall{ticks: 4, periodic: true}) {
		t.Fatalf("arm calls = %v, want one {4 true}", dev.arms)
	}

	disarms := dev.disarms
	for i := 0; i < 3; i++ {
		if err := g.HandleIRQ(IRQ{Number: testIRQ}); err != nil {
			t.Fatalf("HandleIRQ %d: %v", i, err)
		}
	}
	if len(dev.arms) != 1 || dev.disarms != disarms {
		t.Fatal("hardware-reload device was rearmed or disarmed in software")
	}
}

func TestUnknownIRQIsInvalidArgument(t *testing.T) {
	dev := newMHzDev()
	g := newSingleGroup(t, dev)
	if err := g.SetTimeout(Periodic, 3000); err != nil {
		t.Fatalf("SetTimeout: %v", err)
	}
	arms, disarms := len(dev.arms), dev.disarms

	err := g.HandleIRQ(IRQ{Number: 99})
	if err != errcode.InvalidArgument {
		t.Fatalf("HandleIRQ(99) = %v, want invalid_argument", err)
	}
	if dev.acks != 0 || len(dev.arms) != arms || dev.disarms != disarms {
		t.Fatal("unknown interrupt identity changed device state")
	}
	if g.Period() != 3000 {
		t.Fatal("unknown interrupt identity changed periodic state")
	}
}

func TestCounterIRQDoesNotTouchTimeout(t *testing.T) {
	events := []string{}
	counter := &fakeDev{name: "counter", freq: physic.MegaHertz, events: &events}
	timeout := &fakeDev{name: "timeout", freq: 32768 * physic.Hertz, events: &events}
	g, err := New(Config{
		Counter: counter,
		Timeout: timeout,
		Routes: []Route{
			{IRQ: IRQ{Number: 42}, Dev: counter},
			{IRQ: IRQ{Number: 46}, Dev: timeout},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	disarms := timeout.disarms
	if err := g.HandleIRQ(IRQ{Number: 42}); err != nil {
		t.Fatalf("HandleIRQ(counter): %v", err)
	}
	if counter.acks != 1 || timeout.acks != 0 {
		t.Fatalf("acks counter=%d timeout=%d, want 1/0", counter.acks, timeout.acks)
	}
	if timeout.disarms != disarms || len(timeout.arms) != 0 {
		t.Fatal("counter interrupt drove the timeout device")
	}

	g.Close()
	// reverse-acquisition order: timeout wound down before the counter
	want := []string{
		"counter:start", "timeout:start", "timeout:disarm",
		"timeout:disarm", "timeout:stop", "counter:stop",
	}
	if len(events) != len(want) {
		t.Fatalf("event log = %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d = %q, want %q (log %v)", i, events[i], want[i], events)
		}
	}
}

func TestZeroFrequencyIsFatal(t *testing.T) {
	dev := &fakeDev{name: "dev", freq: 0}
	released := 0
	_, err := New(Config{
		Counter: dev,
		Timeout: dev,
		Routes:  []Route{{IRQ: IRQ{Number: testIRQ}, Dev: dev}},
		Release: func() { released++ },
	})
	if errcode.Of(err) != errcode.DeviceNotReady {
		t.Fatalf("New = %v, want device_not_ready", err)
	}
	if dev.starts != 0 {
		t.Fatal("device was started despite a zero frequency read")
	}
	if released != 1 {
		t.Fatalf("release hook ran %d times, want 1", released)
	}
}

func TestTimeoutStartFailureUnwindsCounter(t *testing.T) {
	counter := newMHzDev()
	timeout := &fakeDev{name: "timeout", freq: physic.MegaHertz, startErr: errors.New("wedged")}
	released := 0
	_, err := New(Config{
		Counter: counter,
		Timeout: timeout,
		Routes:  []Route{{IRQ: IRQ{Number: testIRQ}, Dev: counter}},
		Release: func() { released++ },
	})
	if errcode.Of(err) != errcode.DeviceNotReady {
		t.Fatalf("New = %v, want device_not_ready", err)
	}
	if counter.starts != 1 || counter.stops != 1 {
		t.Fatalf("counter starts=%d stops=%d, want 1/1", counter.starts, counter.stops)
	}
	if timeout.stops != 0 {
		t.Fatal("never-started timeout device was stopped")
	}
	if released != 1 {
		t.Fatalf("release hook ran %d times, want 1", released)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	dev := newMHzDev()
	released := 0
	g, err := New(Config{
		Counter: dev,
		Timeout: dev,
		Routes:  []Route{{IRQ: IRQ{Number: testIRQ}, Dev: dev}},
		Release: func() { released++ },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g.Close()
	g.Close()
	if dev.stops != 1 {
		t.Fatalf("stops = %d, want 1", dev.stops)
	}
	if released != 1 {
		t.Fatalf("release hook ran %d times, want 1", released)
	}
}

func TestRejectedArmKeepsPreviousPeriod(t *testing.T) {
	dev := newMHzDev()
	g := newSingleGroup(t, dev)

	if err := g.SetTimeout(Periodic, 3000); err != nil {
		t.Fatalf("SetTimeout: %v", err)
	}
	dev.armErr = errcode.Range
	if err := g.SetTimeout(Periodic, 9_000_000); errcode.Of(err) != errcode.Range {
		t.Fatalf("SetTimeout = %v, want out_of_range", err)
	}
	if g.Period() != 3000 {
		t.Fatalf("rejected request replaced the period: %d", g.Period())
	}
}

func TestInvalidKind(t *testing.T) {
	dev := newMHzDev()
	g := newSingleGroup(t, dev)
	if err := g.SetTimeout(Kind(9), 100); errcode.Of(err) != errcode.InvalidArgument {
		t.Fatalf("SetTimeout(kind 9) = %v, want invalid_argument", err)
	}
}

func TestResolution(t *testing.T) {
	dev := newMHzDev()
	g, err := New(Config{
		Counter:    dev,
		Timeout:    dev,
		Routes:     []Route{{IRQ: IRQ{Number: testIRQ}, Dev: dev}},
		Resolution: 1000,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if res, err := g.Resolution(); err != nil || res != 1000 {
		t.Fatalf("Resolution = %d, %v", res, err)
	}

	g2 := newSingleGroup(t, newMHzDev())
	if _, err := g2.Resolution(); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("Resolution without a value = %v, want unsupported", err)
	}
}

func TestConfigValidate(t *testing.T) {
	dev := newMHzDev()
	other := newMHzDev()
	route := []Route{{IRQ: IRQ{Number: testIRQ}, Dev: dev}}

	cases := []struct {
		name string
		cfg  Config
	}{
		{"nil counter", Config{Timeout: dev, Routes: route}},
		{"nil timeout", Config{Counter: dev, Routes: route}},
		{"no routes", Config{Counter: dev, Timeout: dev}},
		{"foreign device", Config{Counter: dev, Timeout: dev,
			Routes: []Route{{IRQ: IRQ{Number: 1}, Dev: other}}}},
		{"duplicate irq", Config{Counter: dev, Timeout: dev,
			Routes: []Route{{IRQ: IRQ{Number: 1}, Dev: dev}, {IRQ: IRQ{Number: 1}, Dev: dev}}}},
	}
	for _, c := range cases {
		if _, err := New(c.cfg); errcode.Of(err) != errcode.InvalidArgument {
			t.Errorf("%s: New = %v, want invalid_argument", c.name, err)
		}
	}
	if dev.starts != 0 || other.starts != 0 {
		t.Fatal("invalid config touched hardware")
	}
}
