// Package sfpwm drives one SiFive FU540 PWM block as a timer. The block
// has a 31-bit up-counter clocked at the input clock divided by 2^scale,
// one usable compare slot for timing, a sticky interrupt-pending flag,
// and two count modes: continuous (optionally resetting at the compare
// value) and one-shot (the enable bit self-clears at the first match).
//
// A block is wired for one of two roles. RoleCount runs continuously and
// extends the 31-bit count into 64 bits by accumulating wrap interrupts.
// RoleAlarm is the deadline comparator: one-shot for single firings,
// reset-at-compare for hardware-reloaded periodic firings.
package sfpwm

const (
	// --- Register offsets ---
	regCfg   = 0x00 // configuration and interrupt-pending
	regCount = 0x08 // 31-bit count
	regS     = 0x10 // scaled count (unused here)
	regCmp0  = 0x20 // compare slot 0

	// --- pwmcfg bits ---
	cfgScaleMask = 0xF
	cfgSticky    = 1 << 8  // ip stays set until cleared
	cfgZeroCmp   = 1 << 9  // count resets to zero at cmp0 match
	cfgDeglitch  = 1 << 10
	cfgEnAlways  = 1 << 12 // count continuously
	cfgEnOneShot = 1 << 13 // count until the first match, then self-clear
	cfgCmp0IP    = 1 << 28 // compare 0 interrupt pending

	countMask = 0x7FFF_FFFF // pwmcount is 31 bits

	// wrapSpan is where RoleCount resets the hardware count; each wrap
	// interrupt accounts for exactly this many ticks.
	wrapSpan = 1 << 30
)
