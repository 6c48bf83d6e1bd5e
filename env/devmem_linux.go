//go:build linux

package env

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"timerhal-go/errcode"
	"timerhal-go/ltimer"
)

// DevMem maps physical register windows through /dev/mem. Region
// addresses need not be page-aligned: windows are carved out of
// page-aligned mappings internally and the exact window is returned.
type DevMem struct {
	f    *os.File
	mu   sync.Mutex
	live map[uint64]devMapping
}

type devMapping struct {
	full []byte // the page-aligned mmap
	win  []byte // the window handed out
}

// OpenDevMem opens /dev/mem for register access. Requires root and a
// kernel that permits the target range.
func OpenDevMem() (*DevMem, error) {
	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, &errcode.E{C: errcode.ResourceUnavailable, Op: "env.OpenDevMem", Err: err}
	}
	return &DevMem{f: f, live: make(map[uint64]devMapping)}, nil
}

func (d *DevMem) Map(r ltimer.MemRegion) ([]byte, error) {
	if r.Size == 0 {
		return nil, &errcode.E{C: errcode.InvalidArgument, Op: "env.Map", Msg: "zero-size region"}
	}
	page := uint64(os.Getpagesize())
	base := r.Addr &^ (page - 1)
	off := r.Addr - base

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[r.Addr]; ok {
		return nil, &errcode.E{C: errcode.Busy, Op: "env.Map",
			Msg: fmt.Sprintf("region %#x already mapped", r.Addr)}
	}
	full, err := unix.Mmap(int(d.f.Fd()), int64(base), int(off+r.Size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, &errcode.E{C: errcode.ResourceUnavailable, Op: "env.Map",
			Msg: fmt.Sprintf("region %#x", r.Addr), Err: err}
	}
	win := full[off : off+r.Size : off+r.Size]
	d.live[r.Addr] = devMapping{full: full, win: win}
	return win, nil
}

func (d *DevMem) Unmap(b []byte, r ltimer.MemRegion) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.live[r.Addr]
	if !ok {
		return &errcode.E{C: errcode.InvalidArgument, Op: "env.Unmap",
			Msg: fmt.Sprintf("region %#x was never mapped", r.Addr)}
	}
	if len(b) != len(m.win) || (len(b) > 0 && &b[0] != &m.win[0]) {
		return &errcode.E{C: errcode.InvalidArgument, Op: "env.Unmap",
			Msg: fmt.Sprintf("window does not belong to region %#x", r.Addr)}
	}
	delete(d.live, r.Addr)
	if err := unix.Munmap(m.full); err != nil {
		return &errcode.E{C: errcode.ResourceUnavailable, Op: "env.Unmap", Err: err}
	}
	return nil
}

// Close unmaps anything still live and closes the device file.
func (d *DevMem) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for addr, m := range d.live {
		_ = unix.Munmap(m.full)
		delete(d.live, addr)
	}
	return d.f.Close()
}

var _ Ops = (*DevMem)(nil)
