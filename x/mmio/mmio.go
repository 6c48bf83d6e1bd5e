// Package mmio provides 32-bit access to memory-mapped register windows.
package mmio

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Window is a mapped register region. Register accesses are aligned
// 32-bit atomic loads and stores, so each one is a single untorn 4-byte
// transaction the compiler cannot merge or elide across.
//
// A misaligned or out-of-range offset is a programming error and panics.
type Window []byte

func (w Window) reg32(off uintptr) *uint32 {
	if off+4 > uintptr(len(w)) {
		panic(fmt.Sprintf("mmio: offset %#x beyond %d-byte window", off, len(w)))
	}
	p := unsafe.Pointer(&w[off])
	if uintptr(p)%4 != 0 {
		panic(fmt.Sprintf("mmio: offset %#x not 32-bit aligned", off))
	}
	return (*uint32)(p)
}

// Read32 returns the register at byte offset off.
func (w Window) Read32(off uintptr) uint32 { return atomic.LoadUint32(w.reg32(off)) }

// Write32 stores v to the register at byte offset off.
func (w Window) Write32(off uintptr, v uint32) { atomic.StoreUint32(w.reg32(off), v) }

// SetBits32 ORs mask into the register at off (read-modify-write).
func (w Window) SetBits32(off uintptr, mask uint32) { w.Write32(off, w.Read32(off)|mask) }

// ClearBits32 clears mask from the register at off (read-modify-write).
func (w Window) ClearBits32(off uintptr, mask uint32) { w.Write32(off, w.Read32(off)&^mask) }
