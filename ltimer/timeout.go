package ltimer

import (
	"timerhal-go/errcode"
	"timerhal-go/x/tickmath"
)

// deadlineFor converts one timeout request into the absolute deadline it
// means and the periodic interval it establishes, both in nanoseconds of
// logical time. now is the caller's reading of Time.
//
// Relative requests land at now+ns and establish no period. Absolute
// requests are the deadline verbatim. Periodic requests establish ns as
// the interval with the first firing one period from now. Sums saturate
// rather than wrap, so a huge relative request becomes "effectively
// never" instead of an accidental past deadline.
func deadlineFor(k Kind, ns, now uint64) (deadline, period uint64, err error) {
	switch k {
	case Relative:
		return tickmath.SatAdd(now, ns), 0, nil
	case Absolute:
		return ns, 0, nil
	case Periodic:
		return tickmath.SatAdd(now, ns), ns, nil
	default:
		return 0, 0, errcode.InvalidArgument
	}
}
