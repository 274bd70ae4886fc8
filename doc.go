// Package ebr implements an epoch-based memory reclamation core: a
// concurrency primitive that lets many goroutines safely read and retire
// heap-allocated objects inside lock-free data structures, without per-object
// reference counts and without stop-the-world tracing collection.
//
// The core answers one question: given that goroutines may hold pointers
// into shared memory while other goroutines unlink objects from that
// memory, when is it safe to actually drop those objects?
//
// # Pinning
//
// A [Handle] is a per-goroutine participant in the reclamation scheme.
// Pinning a handle (Handle.Pin) announces "I may still be looking at
// objects retired up to two epochs ago" and returns a [Guard] that must be
// released (via Guard.Unpin, typically deferred) once the goroutine is done
// dereferencing shared pointers. Guard.Defer hands the collector a closure
// to run once it is safe to do so - typically "drop this object".
//
// # Atomic pointers
//
// [Atomic] is an atomically-updated cell holding a tagged pointer: an
// address paired with a small integer tag, manipulated as a single logical
// unit. [Shared] is a borrowed, copyable view of that pointer whose
// lifetime is tied to a Guard; [Owned] is an exclusively-owned pointer that
// has not yet been published to an Atomic cell.
//
// ebr is not a tracing collector: it does not discover roots, does not move
// memory, and does not break reference cycles. It guarantees eventual
// reclamation once pinned participants unpin, not any bound on reclamation
// latency.
package ebr
