package eventhub

import (
	"slices"
	"sync"
	"sync/atomic"
)

// registration is one subscriber callback on a channel.
type registration struct {
	id     uint64
	cb     Callback
	active atomic.Bool
}

// channel holds the ordered registrations for one event name.
// Once created it lives as long as its router, even with no subscribers.
type channel struct {
	name Name

	mu   sync.Mutex
	regs []*registration
}

func newChannel(name Name) *channel {
	return &channel{name: name}
}

// add appends reg; it is delivered to after every earlier registration.
func (c *channel) add(reg *registration) {
	reg.active.Store(true)

	c.mu.Lock()
	c.regs = append(c.regs, reg)
	c.mu.Unlock()
}

// remove deactivates reg and drops it from the list.
// Returns false if reg was already removed.
func (c *channel) remove(reg *registration) bool {
	if !reg.active.CompareAndSwap(true, false) {
		return false
	}

	c.mu.Lock()
	c.regs = slices.DeleteFunc(c.regs, func(r *registration) bool { return r == reg })
	c.mu.Unlock()
	return true
}

// snapshot returns the registrations at this instant. Delivery iterates the
// snapshot, so registrations added during delivery wait for the next notify
// and ones removed during delivery are skipped via their active flag.
func (c *channel) snapshot() []*registration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.regs)
}

func (c *channel) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.regs)
}
