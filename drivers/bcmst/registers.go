// Package bcmst drives the BCM283x system timer: a free-running 64-bit
// counter at a fixed 1 MHz with four 32-bit compare channels matching on
// the counter's low word. Channels 0 and 2 belong to the GPU; 1 and 3
// are free for the ARM side.
//
// One Timer value serves both logical-timer roles at once: the shared
// counter supplies monotonic ticks and one compare channel fires
// deadlines.
package bcmst

const (
	// --- Register offsets ---
	regCS  = 0x00 // match status, one bit per channel, W1C
	regCLO = 0x04 // counter low word, R
	regCHI = 0x08 // counter high word, R
	regC0  = 0x0C // compare 0 (GPU)
	regC1  = 0x10 // compare 1
	regC2  = 0x14 // compare 2 (GPU)
	regC3  = 0x18 // compare 3

	// maxSpan is the furthest deadline the 32-bit low-word comparator
	// can express unambiguously against the moving counter.
	maxSpan = 1 << 31
)

func compareReg(ch int) uintptr { return regC0 + uintptr(ch)*4 }
