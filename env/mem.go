package env

import (
	"fmt"

	"timerhal-go/errcode"
	"timerhal-go/ltimer"
)

// Mem is an in-memory Ops for tests and host simulation: every mapped
// region is a zeroed buffer standing in for the register window. It
// records mapping traffic and can inject per-address failures, which is
// what the rollback tests are built on.
type Mem struct {
	fail map[uint64]error
	live map[uint64][]byte

	// Events logs "map"/"unmap" with the region address, in call order.
	Events []string
}

func NewMem() *Mem {
	return &Mem{
		fail: make(map[uint64]error),
		live: make(map[uint64][]byte),
	}
}

// FailMap makes the next and all further Map calls for addr fail with err.
func (m *Mem) FailMap(addr uint64, err error) { m.fail[addr] = err }

// Live returns how many regions are currently mapped.
func (m *Mem) Live() int { return len(m.live) }

// Window returns the live buffer for addr so a test can play hardware
// behind a driver, or nil if the region is not mapped.
func (m *Mem) Window(addr uint64) []byte { return m.live[addr] }

func (m *Mem) Map(r ltimer.MemRegion) ([]byte, error) {
	if r.Size == 0 {
		return nil, &errcode.E{C: errcode.InvalidArgument, Op: "env.Map", Msg: "zero-size region"}
	}
	if err := m.fail[r.Addr]; err != nil {
		return nil, &errcode.E{C: errcode.ResourceUnavailable, Op: "env.Map",
			Msg: fmt.Sprintf("region %#x", r.Addr), Err: err}
	}
	if _, ok := m.live[r.Addr]; ok {
		return nil, &errcode.E{C: errcode.Busy, Op: "env.Map",
			Msg: fmt.Sprintf("region %#x already mapped", r.Addr)}
	}
	b := make([]byte, r.Size)
	m.live[r.Addr] = b
	m.Events = append(m.Events, fmt.Sprintf("map %#x", r.Addr))
	return b, nil
}

func (m *Mem) Unmap(b []byte, r ltimer.MemRegion) error {
	cur, ok := m.live[r.Addr]
	if !ok {
		return &errcode.E{C: errcode.InvalidArgument, Op: "env.Unmap",
			Msg: fmt.Sprintf("region %#x was never mapped", r.Addr)}
	}
	// Catch mismatched unmap pairings, not just unknown regions.
	if len(b) != len(cur) || (len(b) > 0 && &b[0] != &cur[0]) {
		return &errcode.E{C: errcode.InvalidArgument, Op: "env.Unmap",
			Msg: fmt.Sprintf("window does not belong to region %#x", r.Addr)}
	}
	delete(m.live, r.Addr)
	m.Events = append(m.Events, fmt.Sprintf("unmap %#x", r.Addr))
	return nil
}

var _ Ops = (*Mem)(nil)
