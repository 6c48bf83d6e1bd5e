// Package rktimer drives one RK3399 timer channel. A block carries
// several identical 64-bit channels at a 0x20 register stride, each
// clocked at 24 MHz: a pair of load words, a pair of current-value
// words, a control register and a write-one-to-clear interrupt status.
//
// Free-running mode counts up through the full 64 bits and is the
// counting role. User-defined mode counts up to the load value, fires,
// and restarts from zero by itself, which gives the timeout role
// hardware-reloaded periodic firings for free; one-shots are quiesced at
// acknowledge time.
package rktimer

const (
	// --- Register offsets within one channel ---
	regLoad0   = 0x00 // load count, low word
	regLoad1   = 0x04 // load count, high word
	regValue0  = 0x08 // current value, low word, R
	regValue1  = 0x0C // current value, high word, R
	regControl = 0x10
	regIntStat = 0x18 // bit 0, W1C

	// --- CONTROLREG bits ---
	ctlEnable   = 1 << 0
	ctlUserMode = 1 << 1 // count to load value, fire, restart
	ctlIntEn    = 1 << 2

	intPending = 1 << 0

	// ChannelStride is the register distance between channels in one
	// block.
	ChannelStride = 0x20
)
