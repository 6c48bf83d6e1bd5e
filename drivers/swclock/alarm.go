package swclock

import (
	"math"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"

	"timerhal-go/errcode"
	"timerhal-go/ltimer"
)

// Alarm schedules a callback through the runtime timer wheel. The
// callback runs on a background goroutine, so whatever it does must be
// safe to call from there; delivering into a channel or an interrupt
// injection hook is the intended use.
//
// Periodic firings reschedule themselves, which makes the alarm behave
// like hardware with native reload.
type Alarm struct {
	fire func()

	mu     sync.Mutex
	gen    uint64
	t      *time.Timer
	period time.Duration
}

// NewAlarm returns a disarmed alarm. fire is invoked on every firing.
func NewAlarm(fire func()) *Alarm { return &Alarm{fire: fire} }

// Start is a no-op; the alarm stays disarmed until armed.
func (a *Alarm) Start() error { return nil }

// Stop cancels any outstanding firing.
func (a *Alarm) Stop() error { return a.Disarm() }

// Frequency returns one tick per nanosecond.
func (a *Alarm) Frequency() physic.Frequency { return physic.GigaHertz }

// Arm schedules a firing ticks nanoseconds from now, replacing any
// earlier schedule. Periodic firings repeat at the same interval until
// disarmed.
func (a *Alarm) Arm(ticks uint64, periodic bool) error {
	if ticks > math.MaxInt64 {
		return errcode.Range
	}
	if ticks == 0 {
		ticks = 1
	}
	d := time.Duration(ticks)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	if a.t != nil {
		a.t.Stop()
	}
	a.period = 0
	if periodic {
		a.period = d
	}
	g := a.gen
	a.t = time.AfterFunc(d, func() { a.fired(g) })
	return nil
}

// Disarm cancels any outstanding firing. A firing already in flight on
// the timer goroutine is dropped by its stale generation.
func (a *Alarm) Disarm() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	if a.t != nil {
		a.t.Stop()
		a.t = nil
	}
	a.period = 0
	return nil
}

// AckIRQ is a no-op; one-shots go dormant by themselves and periodic
// firings are rescheduled at fire time.
func (a *Alarm) AckIRQ() error { return nil }

func (a *Alarm) fired(g uint64) {
	a.mu.Lock()
	if g != a.gen || a.t == nil {
		a.mu.Unlock()
		return
	}
	if a.period > 0 {
		a.t.Reset(a.period)
	} else {
		a.t = nil
	}
	fire := a.fire
	a.mu.Unlock()

	if fire != nil {
		fire()
	}
}

var _ ltimer.Armer = (*Alarm)(nil)
