//go:build !linux

package env

import (
	"timerhal-go/errcode"
	"timerhal-go/ltimer"
)

// DevMem is only functional on linux hosts.
type DevMem struct{}

func OpenDevMem() (*DevMem, error) { return nil, errcode.Unsupported }

func (d *DevMem) Map(r ltimer.MemRegion) ([]byte, error) { return nil, errcode.Unsupported }

func (d *DevMem) Unmap(b []byte, r ltimer.MemRegion) error { return errcode.Unsupported }

func (d *DevMem) Close() error { return nil }

var _ Ops = (*DevMem)(nil)
