// Package ticker owns a logical timer on a single goroutine and
// exposes it over the bus: control verbs arrive as requests, firings
// leave as events, and the current programming is kept retained for
// late joiners.
//
// Interrupt delivery enters through InjectIRQ, which never blocks, so
// platform hooks may call it from notification context. Everything
// else, including device acknowledgement, runs on the Run goroutine.
package ticker

import (
	"context"
	"sync/atomic"

	"timerhal-go/bus"
	"timerhal-go/errcode"
	"timerhal-go/ltimer"
	"timerhal-go/types"
	"timerhal-go/x/mathx"
	"timerhal-go/x/timex"
)

// Config tunes the service. The zero value is usable.
type Config struct {
	// QueueLen sizes the interrupt injection buffer, clamped to
	// [1, 1024]. 0 means 64.
	QueueLen int

	// FiredOn narrows which interrupt identities count as firings.
	// Empty means every successfully handled interrupt does, which is
	// right for single-line platforms. Platforms that also route a
	// counting-device line (overflow bookkeeping) list the timeout
	// line here so housekeeping interrupts do not publish events.
	FiredOn []ltimer.IRQ
}

// Service drives one ltimer.LogicalTimer. Construct with New, feed
// interrupts with InjectIRQ, and let Run own everything else.
type Service struct {
	conn *bus.Connection
	lt   ltimer.LogicalTimer

	irqQ    chan ltimer.IRQ
	drops   uint32 // atomic
	firedOn []ltimer.IRQ

	// Owned by the Run goroutine.
	state types.TimerState
	seq   uint64
}

func New(conn *bus.Connection, lt ltimer.LogicalTimer, cfg Config) *Service {
	qlen := cfg.QueueLen
	if qlen == 0 {
		qlen = 64
	}
	return &Service{
		conn:    conn,
		lt:      lt,
		irqQ:    make(chan ltimer.IRQ, mathx.Clamp(qlen, 1, 1024)),
		firedOn: cfg.FiredOn,
	}
}

// InjectIRQ hands an interrupt identity to the service. It never
// blocks: when the queue is full the interrupt is dropped, counted,
// and the caller sees false.
func (s *Service) InjectIRQ(irq ltimer.IRQ) bool {
	select {
	case s.irqQ <- irq:
		return true
	default:
		atomic.AddUint32(&s.drops, 1)
		return false
	}
}

// Drops reports how many injections have been discarded so far.
func (s *Service) Drops() uint32 { return atomic.LoadUint32(&s.drops) }

// Run services the timer until ctx is cancelled, then closes it.
// Single-threaded publication: every bus message the service emits
// originates here.
func (s *Service) Run(ctx context.Context) {
	ctl := s.conn.Subscribe(ctlWildcard())
	defer s.conn.Unsubscribe(ctl)

	defer func() {
		s.lt.Close()
		s.state = types.TimerState{Fired: s.seq, Dropped: s.Drops(), TSms: timex.NowMs()}
		s.publishState()
	}()

	s.state = types.TimerState{Running: true, TSms: timex.NowMs()}
	s.publishState()

	for {
		select {
		case <-ctx.Done():
			return
		case irq := <-s.irqQ:
			s.handleIRQ(irq)
		case m, ok := <-ctl.Channel():
			if !ok {
				return
			}
			s.handleControl(m)
		}
	}
}

func (s *Service) handleIRQ(irq ltimer.IRQ) {
	if err := s.lt.HandleIRQ(irq); err != nil {
		s.conn.Publish(s.conn.NewMessage(ErrorTopic(),
			types.TimerError{IRQ: irq.Number, Error: string(errcode.Of(err))}, false))
		return
	}
	if !s.fires(irq) {
		return
	}
	s.seq++
	s.conn.Publish(s.conn.NewMessage(FiredTopic(),
		types.Fired{Seq: s.seq, NS: s.lt.Time(), TSms: timex.NowMs()}, false))
	if s.state.PeriodNS == 0 {
		// One-shot spent.
		s.state.Kind = ""
		s.state.NS = 0
	}
	s.refreshState()
}

func (s *Service) fires(irq ltimer.IRQ) bool {
	if len(s.firedOn) == 0 {
		return true
	}
	for _, want := range s.firedOn {
		if want == irq {
			return true
		}
	}
	return false
}

func (s *Service) handleControl(m *bus.Message) {
	if len(m.Topic) != 3 {
		s.replyErr(m, errcode.InvalidArgument)
		return
	}
	switch m.Topic[2] {
	case "set":
		s.ctlSet(m)
	case "reset":
		s.ctlReset(m)
	case "time":
		s.reply(m, types.TimeReply{OK: true, NS: s.lt.Time()})
	case "resolution":
		ns, err := s.lt.Resolution()
		if err != nil {
			s.replyErr(m, errcode.Of(err))
			return
		}
		s.reply(m, types.TimeReply{OK: true, NS: ns})
	default:
		s.replyErr(m, errcode.InvalidArgument)
	}
}

func (s *Service) ctlSet(m *bus.Message) {
	req, ok := m.Payload.(types.SetTimeout)
	if !ok {
		s.replyErr(m, errcode.InvalidArgument)
		return
	}
	kind, ok := parseKind(req.Kind)
	if !ok {
		s.replyErr(m, errcode.InvalidArgument)
		return
	}
	if err := s.lt.SetTimeout(kind, req.NS); err != nil {
		s.replyErr(m, errcode.Of(err))
		return
	}
	s.state.Kind = req.Kind
	s.state.NS = req.NS
	if kind == ltimer.Periodic {
		s.state.PeriodNS = req.NS
	} else {
		s.state.PeriodNS = 0
	}
	s.refreshState()
	s.replyOK(m)
}

func (s *Service) ctlReset(m *bus.Message) {
	if err := s.lt.Reset(); err != nil {
		s.replyErr(m, errcode.Of(err))
		return
	}
	s.state.Kind = ""
	s.state.NS = 0
	s.state.PeriodNS = 0
	s.refreshState()
	s.replyOK(m)
}

func (s *Service) refreshState() {
	s.state.Fired = s.seq
	s.state.Dropped = s.Drops()
	s.state.TSms = timex.NowMs()
	s.publishState()
}

func (s *Service) publishState() {
	s.conn.Publish(s.conn.NewMessage(StateTopic(), s.state, true))
}

func parseKind(s string) (ltimer.Kind, bool) {
	switch s {
	case "relative":
		return ltimer.Relative, true
	case "absolute":
		return ltimer.Absolute, true
	case "periodic":
		return ltimer.Periodic, true
	}
	return 0, false
}
