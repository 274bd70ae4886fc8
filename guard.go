package ebr

// Guard witnesses that its producing Handle is pinned: every Shared
// pointer load in this package takes one as proof that the caller may
// safely dereference what it returns. A Guard produced by Handle.Pin must
// be released explicitly with Unpin (letting it go out of scope does not
// release it) before the goroutine that holds it pins again for an
// unrelated reason, though the reentrant case - pinning again while
// already pinned - is exactly what nested Guards are for.
//
// The zero Guard (handle == nil) is the "unprotected" sentinel: it proves
// nothing, but Defer and Flush on it still work, degrading to running the
// closure immediately and to a no-op respectively, so code that sometimes
// runs outside of any pin doesn't need a separate code path.
type Guard struct {
	handle *Handle
}

// Unprotected returns an unprotected Guard: one not backed by any Handle.
// Loads through it work as usual, but it vouches for nothing by itself: a
// Shared loaded through it is safe to dereference only while no other
// goroutine is concurrently modifying or reclaiming the cells involved.
func Unprotected() *Guard {
	return &Guard{}
}

// Defer schedules fn to run no earlier than the point at which no
// participant could still be pinned at an epoch old enough to observe
// whatever fn is cleaning up. Called on an unprotected Guard, fn runs
// immediately instead, since there is no pin to defer past.
func (g *Guard) Defer(fn func()) {
	if g.handle == nil {
		fn()
		return
	}
	h := g.handle
	d := newDeferred(fn)
	if h.bag.tryPush(d) {
		return
	}
	h.flushBag()
	if !h.bag.tryPush(d) {
		panic("ebr: guard: defer: fresh bag rejected its first push")
	}
}

// Flush hands off the guard's handle's current bag to the global queue
// (if non-empty) and opportunistically tries to advance the epoch and
// collect. Flush on an unprotected Guard is a no-op.
func (g *Guard) Flush() {
	if g.handle == nil {
		return
	}
	h := g.handle
	if !h.bag.isEmpty() {
		h.flushBag()
	}
	h.collector.global.tryAdvance()
	h.collector.global.collect()
}

// Unpin releases one level of pinning on the Guard's handle. Once depth
// reaches zero the handle's registry entry is marked unpinned again, which
// is what lets epoch advancement proceed past it. Unpin on an unprotected
// Guard is a no-op. Calling Unpin more than once on the same Guard is a
// caller error: each extra call releases one more level of the handle's
// pin depth, and it is detected (by a panic) only once the handle is
// already fully unpinned.
func (g *Guard) Unpin() {
	if g.handle == nil {
		return
	}
	h := g.handle
	if h.depth == 0 {
		panic("ebr: guard: unpin: handle already fully unpinned")
	}
	h.depth--
	if h.depth == 0 {
		h.node.Value.releasePin()
	}
}
