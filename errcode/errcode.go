package errcode

// Code is a stable, caller-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error,
// so interrupt-context paths can return a sentinel without allocating.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK              Code = "ok"
	Busy            Code = "busy"
	Unsupported     Code = "unsupported"
	InvalidArgument Code = "invalid_argument"

	// AlreadyElapsed rejects a timeout whose deadline is not strictly in
	// the future. Recoverable; hardware state is left unchanged.
	AlreadyElapsed Code = "already_elapsed"

	// Range rejects a deadline a device comparator cannot represent.
	Range Code = "out_of_range"

	ResourceUnavailable Code = "resource_unavailable"
	DeviceNotReady      Code = "device_not_ready"
	Closed              Code = "closed"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
