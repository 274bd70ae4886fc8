package ebr

import (
	"sync/atomic"
	"unsafe"
)

// Atomic is an atomically-updated cell holding a tagged pointer to T. It is
// the building block every lock-free data structure built on this core
// uses in place of a plain pointer field.
type Atomic[T any] struct {
	v atomic.Value // word[T]
}

// NewAtomic allocates value on the heap and returns a cell that owns it,
// with a zero tag.
func NewAtomic[T any](value T) *Atomic[T] {
	p := new(T)
	*p = value
	a := &Atomic[T]{}
	a.v.Store(word[T]{ptr: p})
	return a
}

// NullAtomic returns a cell holding a null pointer.
func NullAtomic[T any]() *Atomic[T] {
	a := &Atomic[T]{}
	a.v.Store(word[T]{})
	return a
}

// AtomicFromOwned returns a cell initialized by consuming o.
func AtomicFromOwned[T any](o Owned[T]) *Atomic[T] {
	a := &Atomic[T]{}
	a.v.Store(word[T]{ptr: o.ptr, tag: o.tag})
	return a
}

// AtomicFromRaw returns a cell initialized from a raw pointer and tag,
// panicking if p is non-nil and misaligned.
func AtomicFromRaw[T any](p *T, tag uintptr) *Atomic[T] {
	checkAligned[T](unsafe.Pointer(p), "atomic")
	a := &Atomic[T]{}
	a.v.Store(word[T]{ptr: p, tag: maskTag[T](tag)})
	return a
}

func (a *Atomic[T]) load() word[T] {
	w, _ := a.v.Load().(word[T])
	return w
}

// Load reads the cell. guard proves the returned Shared's lifetime is
// bounded by the pin currently held.
func (a *Atomic[T]) Load(_ *Guard) Shared[T] {
	w := a.load()
	return Shared[T]{ptr: w.ptr, tag: w.tag}
}

// StoreShared overwrites the cell with a borrowed pointer, a trivial copy
// of the word.
func (a *Atomic[T]) StoreShared(s Shared[T]) {
	a.v.Store(word[T]{ptr: s.ptr, tag: s.tag})
}

// StoreOwned overwrites the cell, consuming o. The allocation o owned is
// deliberately not released - ownership has transferred to the cell.
func (a *Atomic[T]) StoreOwned(o Owned[T]) {
	a.v.Store(word[T]{ptr: o.ptr, tag: o.tag})
}

// Swap atomically replaces the cell's contents with s and returns the
// previous value.
func (a *Atomic[T]) Swap(s Shared[T], _ *Guard) Shared[T] {
	old, _ := a.v.Swap(word[T]{ptr: s.ptr, tag: s.tag}).(word[T])
	return Shared[T]{ptr: old.ptr, tag: old.tag}
}

// SwapOwned is the Owned-accepting counterpart to Swap.
func (a *Atomic[T]) SwapOwned(o Owned[T], _ *Guard) Shared[T] {
	old, _ := a.v.Swap(word[T]{ptr: o.ptr, tag: o.tag}).(word[T])
	return Shared[T]{ptr: old.ptr, tag: old.tag}
}

// CompareAndSwap stores new into the cell if its current value equals
// expected (by address and tag), and reports whether it did. On failure,
// actual is the value observed instead.
//
// There is deliberately no "weak" variant that may fail spuriously even
// when the comparison would have succeeded: sync/atomic exposes only a
// strong compare-and-swap on every platform Go supports, so a caller
// looping on failure here just retries slightly less often than it would
// against a weak primitive.
func (a *Atomic[T]) CompareAndSwap(expected, new Shared[T], _ *Guard) (ok bool, actual Shared[T]) {
	oldWord := word[T]{ptr: expected.ptr, tag: expected.tag}
	newWord := word[T]{ptr: new.ptr, tag: new.tag}
	if a.v.CompareAndSwap(oldWord, newWord) {
		return true, new
	}
	w := a.load()
	return false, Shared[T]{ptr: w.ptr, tag: w.tag}
}

// CompareAndSwapOwned is the Owned-accepting counterpart to CompareAndSwap.
// On failure it returns new back to the caller unconsumed (rejected), so
// the caller's allocation is not leaked.
func (a *Atomic[T]) CompareAndSwapOwned(expected Shared[T], new Owned[T], _ *Guard) (ok bool, actual Shared[T], rejected Owned[T]) {
	oldWord := word[T]{ptr: expected.ptr, tag: expected.tag}
	newWord := word[T]{ptr: new.ptr, tag: new.tag}
	if a.v.CompareAndSwap(oldWord, newWord) {
		return true, Shared[T]{ptr: new.ptr, tag: new.tag}, Owned[T]{}
	}
	w := a.load()
	return false, Shared[T]{ptr: w.ptr, tag: w.tag}, new
}

func (a *Atomic[T]) fetchTagOp(val uintptr, op func(old, val uintptr) uintptr, _ *Guard) Shared[T] {
	val = maskTag[T](val)
	for {
		old := a.load()
		newWord := word[T]{ptr: old.ptr, tag: maskTag[T](op(old.tag, val))}
		if a.v.CompareAndSwap(old, newWord) {
			return Shared[T]{ptr: old.ptr, tag: old.tag}
		}
	}
}

// FetchAnd atomically ANDs the cell's tag with val, leaving the address
// untouched, and returns the value observed before the operation.
func (a *Atomic[T]) FetchAnd(val uintptr, guard *Guard) Shared[T] {
	return a.fetchTagOp(val, func(old, val uintptr) uintptr { return old & val }, guard)
}

// FetchOr atomically ORs the cell's tag with val, leaving the address
// untouched, and returns the value observed before the operation.
func (a *Atomic[T]) FetchOr(val uintptr, guard *Guard) Shared[T] {
	return a.fetchTagOp(val, func(old, val uintptr) uintptr { return old | val }, guard)
}

// FetchXor atomically XORs the cell's tag with val, leaving the address
// untouched, and returns the value observed before the operation.
func (a *Atomic[T]) FetchXor(val uintptr, guard *Guard) Shared[T] {
	return a.fetchTagOp(val, func(old, val uintptr) uintptr { return old ^ val }, guard)
}
