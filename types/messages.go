package types

// Bus payload contracts shared by the timer service and its clients.
// Everything is JSON-tagged so payloads survive a marshalling
// transport unchanged.

// ------------------------
// Control payloads (timer/ctl/<verb>)
// ------------------------

// SetTimeout programs the single timeout. Kind is one of "relative",
// "absolute" or "periodic"; NS is the delta, deadline or period in
// nanoseconds.
type SetTimeout struct {
	Kind string `json:"kind"`
	NS   uint64 `json:"ns"`
}

// ------------------------
// Replies
// ------------------------

type OKReply struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"` // machine-readable short code
}

// TimeReply answers the "time" and "resolution" verbs. NS carries
// nanoseconds in both cases.
type TimeReply struct {
	OK bool   `json:"ok"`
	NS uint64 `json:"ns"`
}

// ------------------------
// Events
// ------------------------

// Fired is published on timer/evt/fired for every acknowledged firing.
type Fired struct {
	Seq  uint64 `json:"seq"`   // 1-based firing counter
	NS   uint64 `json:"ns"`    // logical clock at acknowledge
	TSms int64  `json:"ts_ms"` // wall clock, for log correlation only
}

// TimerError is published on timer/evt/error when an interrupt could
// not be acknowledged.
type TimerError struct {
	IRQ   uint32 `json:"irq"`
	Error string `json:"error"`
}

// ------------------------
// Retained state (timer/state)
// ------------------------

type TimerState struct {
	Running  bool   `json:"running"`
	Kind     string `json:"kind,omitempty"` // active timeout kind, "" when unarmed
	NS       uint64 `json:"ns,omitempty"`   // interval or deadline as requested
	PeriodNS uint64 `json:"period_ns,omitempty"`
	Fired    uint64 `json:"fired"`   // firings acknowledged so far
	Dropped  uint32 `json:"dropped"` // interrupt injections lost at the queue
	TSms     int64  `json:"ts_ms"`
}
