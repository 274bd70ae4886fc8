package ebr

import "sync/atomic"

// Collector owns one reclamation scheme: a participant registry, a global
// epoch, and a queue of retired bags shared by every Handle produced from
// it. Go has no destructor to notice when the last reference to a value
// disappears, so Collector keeps its own manual reference count instead -
// every live Handle (and the Collector value itself) holds one reference,
// and the backing globalState is drained only once the last reference is
// released.
type Collector struct {
	global      *globalState
	refs        atomic.Int64
	bagCapacity int
}

// NewCollector constructs a Collector using the default per-handle bag
// capacity.
func NewCollector() *Collector {
	return newCollector(defaultBagCapacity)
}

// NewCollectorWithBagCapacity constructs a Collector whose handles retire
// closures into bags of the given capacity rather than the default. This
// exists chiefly so tests can force frequent bag handoffs without
// retiring thousands of closures; production callers should use
// NewCollector.
func NewCollectorWithBagCapacity(capacity int) *Collector {
	if capacity <= 0 {
		panic("ebr: collector: bag capacity must be positive")
	}
	return newCollector(capacity)
}

func newCollector(capacity int) *Collector {
	c := &Collector{global: newGlobalState(), bagCapacity: capacity}
	c.refs.Store(1)
	return c
}

// Handle registers a new participant and returns the Handle it owns. Each
// Handle must be used by only one goroutine at a time - see the Handle
// doc comment - but a Collector may have arbitrarily many outstanding
// Handles, from arbitrarily many goroutines.
func (c *Collector) Handle() *Handle {
	c.refs.Add(1)
	return &Handle{
		collector: c,
		node:      c.global.registerParticipant(),
		bag:       newBag(c.bagCapacity),
	}
}

// Collect drives one bounded round of epoch advancement and garbage
// collection directly on the Collector, without needing a Handle pinned
// first. It is unsafe in the sense that calling it concurrently with any
// pinned participant is fine, but calling it while the caller itself holds
// pointers loaded from this Collector's Atomic cells under a Guard that is
// about to be released, with no other active pin, can race a reclamation
// the caller did not expect. Prefer driving collection via Guard.Flush or
// the periodic sweep built into Handle.Pin.
func (c *Collector) Collect() {
	c.global.tryAdvance()
	c.global.collect()
}

// release drops one reference, draining every remaining bag unconditionally
// once the count reaches zero.
func (c *Collector) release() {
	if c.refs.Add(-1) == 0 {
		c.global.drainAll()
	}
}

// Close drops the Collector's own reference. Any Handles still outstanding
// keep the underlying state alive until they too are Closed.
func (c *Collector) Close() {
	c.release()
}
