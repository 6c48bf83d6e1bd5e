// Package ltimer composes register-level timer devices into a logical
// timer: one monotonic nanosecond clock plus a single schedulable
// timeout, uniform across hardware whose native capabilities differ.
//
// A platform package assembles one or two devices into a Group and hands
// callers a LogicalTimer. Callers program against the interface only.
package ltimer

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// Kind selects the timeout arming semantics.
type Kind uint8

const (
	// Relative fires once, the given number of nanoseconds from now.
	Relative Kind = iota
	// Absolute fires once, when Time reaches the given nanosecond value.
	Absolute
	// Periodic fires every given number of nanoseconds, the first firing
	// one period from now.
	Periodic
)

func (k Kind) String() string {
	switch k {
	case Relative:
		return "relative"
	case Absolute:
		return "absolute"
	case Periodic:
		return "periodic"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IRQ identifies one interrupt line.
type IRQ struct {
	Number uint32
}

// MemRegion is one physical register window a platform needs mapped.
type MemRegion struct {
	Addr uint64
	Size uint64
}

// Description enumerates the interrupt lines and register windows a
// platform's logical timer requires. Descriptions are fixed per platform
// and valid before any instance exists, so the host environment can
// register interrupts and map memory ahead of initialization.
type Description struct {
	IRQs    []IRQ
	Regions []MemRegion
}

func (d Description) IRQCount() int    { return len(d.IRQs) }
func (d Description) RegionCount() int { return len(d.Regions) }

// NthIRQ returns the i-th interrupt line. An out-of-range index is a
// programming error and panics.
func (d Description) NthIRQ(i int) IRQ {
	if i < 0 || i >= len(d.IRQs) {
		panic(fmt.Sprintf("ltimer: irq index %d out of range (have %d)", i, len(d.IRQs)))
	}
	return d.IRQs[i]
}

// NthRegion returns the i-th register window. An out-of-range index is a
// programming error and panics.
func (d Description) NthRegion(i int) MemRegion {
	if i < 0 || i >= len(d.Regions) {
		panic(fmt.Sprintf("ltimer: region index %d out of range (have %d)", i, len(d.Regions)))
	}
	return d.Regions[i]
}

// LogicalTimer is the operation set every platform composition offers.
//
// Instances are not internally synchronized. They expect a single-owner
// discipline: HandleIRQ must never run concurrently with the other
// operations on the same instance. The services/ticker package provides
// that serialization where wanted.
type LogicalTimer interface {
	// Time returns nanoseconds since the instance started, monotonically
	// non-decreasing for the life of the instance.
	Time() uint64

	// Resolution returns the nanosecond size of one counter step, or
	// errcode.Unsupported on platforms without a meaningful value.
	Resolution() (uint64, error)

	// SetTimeout arms the single schedulable timeout. An accepted
	// timeout replaces any previous one; a rejected one (already
	// elapsed, out of comparator range, bad kind) leaves hardware and
	// periodic state unchanged.
	SetTimeout(k Kind, ns uint64) error

	// HandleIRQ routes an interrupt identity to the owning device,
	// acknowledges it and maintains periodic rearm. Unknown identities
	// return errcode.InvalidArgument with no state changed; that path
	// never blocks and never allocates. Acknowledge cost is the owning
	// device's: memory-mapped devices stay allocation-free, bus-attached
	// ones inherit their bus.
	HandleIRQ(irq IRQ) error

	// Reset disarms any pending timeout, clears periodic state and
	// restarts the clock from zero. Frequencies and mappings are
	// untouched.
	Reset() error

	// Close stops the owned devices and releases everything acquired at
	// construction. It never fails and may be called more than once.
	Close()
}

// Device is the contract common to all physical timer drivers.
type Device interface {
	// Start brings the device out of reset and, for counting devices,
	// restarts the tick count from zero.
	Start() error
	Stop() error

	// AckIRQ acknowledges a pending interrupt at the hardware level.
	// Drivers with hardware auto-reload quiesce a fired one-shot here.
	AckIRQ() error

	// Frequency reports the native tick rate. Zero means the device is
	// unusable and construction must fail.
	Frequency() physic.Frequency
}

// Counter is a device with a readable monotonic tick count.
type Counter interface {
	Device
	Ticks() uint64
}

// Armer is a device that can fire an interrupt at a deadline.
type Armer interface {
	Device

	// Arm schedules a firing the given number of ticks from now, in the
	// device's own tick domain. A zero count is clamped up to one tick;
	// counts beyond the comparator's horizon fail with errcode.Range.
	// periodic requests hardware reload of the same interval on every
	// firing and is only passed to devices wired with AutoReload.
	// A failed Arm leaves the device unchanged.
	Arm(ticks uint64, periodic bool) error

	// Disarm parks the comparator at "never".
	Disarm() error
}
