// Package platform resolves board names to logical-timer builders.
// Each board package describes its timer hardware statically and knows
// how to bring it up; they install themselves here from init, so a
// blank import of a board package makes it buildable by name.
package platform

import (
	"fmt"
	"sort"
	"sync"

	"tinygo.org/x/drivers"

	"timerhal-go/env"
	"timerhal-go/ltimer"
)

// BuildInput carries the resources a builder may draw on. Boards use
// what they need and ignore the rest.
type BuildInput struct {
	// Env maps and unmaps the register regions the board names in its
	// description.
	Env env.Ops

	// I2C carries bus-attached timer parts. Boards without bus devices
	// ignore it.
	I2C drivers.I2C

	// Deliver receives firings from boards that synthesise their own
	// interrupts instead of signalling a routed hardware line. It must
	// be safe to call from a background goroutine.
	Deliver func(ltimer.IRQ)

	// Params is board-specific trim, decoded by the builder.
	Params any
}

// Builder describes and constructs the logical timer of one board.
type Builder interface {
	// Describe returns the board's static resource needs without
	// touching hardware.
	Describe() ltimer.Description

	// Build acquires resources, brings the devices up and returns a
	// running timer with no timeout outstanding.
	Build(in BuildInput) (ltimer.LogicalTimer, error)
}

var (
	muBuilders sync.RWMutex
	builders   = map[string]Builder{}
)

// Register installs a builder under a board name. It panics on
// duplicate registration to catch mistakes at start-up.
func Register(name string, b Builder) {
	muBuilders.Lock()
	defer muBuilders.Unlock()
	if name == "" {
		panic("platform: empty board name")
	}
	if _, exists := builders[name]; exists {
		panic(fmt.Sprintf("platform: builder already registered for %q", name))
	}
	builders[name] = b
}

// Lookup returns the builder registered under a board name.
func Lookup(name string) (Builder, bool) {
	muBuilders.RLock()
	defer muBuilders.RUnlock()
	b, ok := builders[name]
	return b, ok
}

// Names returns the registered board names, sorted.
func Names() []string {
	muBuilders.RLock()
	defer muBuilders.RUnlock()
	names := make([]string, 0, len(builders))
	for n := range builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
