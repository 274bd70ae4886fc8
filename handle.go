package ebr

import "github.com/joeycumines/go-ebr/internal/ilist"

// Handle is one participant in a Collector's reclamation scheme. A Handle
// belongs to a single goroutine: its pin depth, pin counter, and current
// bag are read and written without synchronization, on the understanding
// that nothing but the owning goroutine ever touches them. Go has no
// compile-time marker to enforce that a type must stay on one goroutine,
// so callers are responsible for not sharing a Handle (or a Guard it
// produced) across goroutines. See default.go for a pool-based convenience
// that sidesteps this by handing out a pooled Handle, owned exclusively for
// the duration of one call, instead of trying to pin one down to a
// particular goroutine.
type Handle struct {
	collector *Collector
	node      *ilist.Node[*registryEntry]
	bag       *bag
	depth     int
	pinCount  uint64
	closed    bool
}

// IsPinned reports whether h currently has at least one outstanding Guard.
func (h *Handle) IsPinned() bool {
	return h.depth > 0
}

// flushBag hands the current bag off to the global queue, tagged with the
// epoch observed right now, and replaces it with a fresh empty bag. Callers
// must check isEmpty themselves first if an unconditional handoff (Flush)
// versus a conditional one (overflow in Defer) matters.
func (h *Handle) flushBag() {
	e := h.collector.global.epoch.load()
	old := h.bag
	h.bag = newBag(h.collector.bagCapacity)
	h.collector.global.pushBag(e, old)
}

// Pin announces that h's owning goroutine may dereference pointers loaded
// through Atomic cells until the returned Guard is released, and returns
// that Guard. Pinning is reentrant: pinning an already-pinned handle just
// bumps a depth counter and returns a new Guard cheaply, without
// re-announcing or touching the pin counter.
func (h *Handle) Pin() *Guard {
	if h.depth > 0 {
		h.depth++
		return &Guard{handle: h}
	}

	h.pinCount++
	e := h.collector.global.epoch.load()
	h.node.Value.announcePinned(e)
	h.depth = 1

	if h.pinCount%pinsBetweenCollect == 0 {
		h.collector.global.tryAdvance()
		h.collector.global.collect()
	}

	return &Guard{handle: h}
}

// Close releases h's registration from the collector: any non-empty
// current bag is handed off to the global queue, and h's registry entry is
// removed so it is no longer consulted by epoch advancement. Close is
// idempotent. It must not be called while h still has an outstanding Guard.
func (h *Handle) Close() {
	if h.closed {
		return
	}
	if h.depth != 0 {
		panic("ebr: handle: close: called while still pinned")
	}
	h.closed = true
	if !h.bag.isEmpty() {
		h.flushBag()
	}
	h.collector.global.unregisterParticipant(h.node)
	h.collector.release()
}
