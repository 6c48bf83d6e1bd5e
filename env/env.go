// Package env abstracts the hosting environment's physical-memory
// services: mapping register windows in and out of the address space.
// Platform initializers consume Ops so that resource acquisition policy
// stays outside the timer composition logic, and hand the accumulated
// teardown to the timer instance they build.
package env

import "timerhal-go/ltimer"

// Ops maps physical register windows.
type Ops interface {
	// Map makes the region's registers addressable and returns a window
	// of exactly region.Size bytes.
	Map(r ltimer.MemRegion) ([]byte, error)

	// Unmap releases a window previously returned by Map for the same
	// region. Unmapping a region that was never mapped, or a window
	// that does not belong to it, is an error.
	Unmap(b []byte, r ltimer.MemRegion) error
}

// Cleanup is a release stack for initializers that acquire resources in
// sequence: push the undo for each resource as it is acquired, and on
// failure Run releases exactly what was pushed, most recent first.
type Cleanup struct {
	fns []func()
}

func (c *Cleanup) Add(f func()) { c.fns = append(c.fns, f) }

// Run releases everything added so far, in reverse order, and empties
// the stack.
func (c *Cleanup) Run() {
	for i := len(c.fns) - 1; i >= 0; i-- {
		c.fns[i]()
	}
	c.fns = nil
}

// Detach hands the accumulated releases over as a single function and
// empties the stack, so a successful initializer can transfer teardown
// to the instance that now owns the resources.
func (c *Cleanup) Detach() func() {
	fns := c.fns
	c.fns = nil
	return func() {
		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	}
}
