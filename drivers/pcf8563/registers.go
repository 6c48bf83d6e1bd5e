// Package pcf8563 drives the countdown timer of the PCF8563 real-time
// clock. The part hangs off an I2C bus and offers one 8-bit countdown
// register clocked from a selectable source; the countdown reloads
// itself when it reaches zero, so periodic firings need no
// reprogramming. There is no readable count wide enough to serve as a
// clock, so the part only ever fills the timeout role.
package pcf8563

// Address is the fixed I2C address of the part.
const Address = 0x51

const (
	// --- Register map (8-bit registers) ---
	regCtrl1     = 0x00
	regCtrl2     = 0x01
	regTimerCtrl = 0x0E
	regTimer     = 0x0F // countdown value, reloads at zero

	// --- Control/status 1 ---
	ctl1Stop = 1 << 5 // halts the source clock

	// --- Control/status 2. Flags clear on writing 0 and are left
	// alone on writing 1, so read-modify-write never loses the
	// neighbouring alarm state.
	ctl2TIE  = 1 << 0 // timer interrupt enable
	ctl2AIE  = 1 << 1 // alarm interrupt enable
	ctl2TF   = 1 << 2 // timer fired
	ctl2AF   = 1 << 3 // alarm fired
	ctl2TITP = 1 << 4 // pulse interrupts instead of level

	// --- Timer control ---
	tmrEnable  = 1 << 7
	tmrSrcMask = 0x03 // 00: 4096 Hz, 01: 64 Hz, 10: 1 Hz, 11: 1/60 Hz

	// The 1/60 Hz source encoding exists but is not exposed: a tick
	// slower than a second cannot carry a nanosecond deadline.
)

// MaxTicks is the widest countdown the 8-bit register can hold; with a
// source it bounds the scheduling horizon.
const MaxTicks = 0xFF
