// Package ilist implements a lock-free, intrusive, singly-linked list used
// by the collector to enumerate live participants without taking a lock.
//
// Deletion is logical: Delete marks a node's own successor pointer with a
// tombstone bit (Harris's technique), and a later Iterate call physically
// unlinks it from whichever predecessor it is currently traversing from.
// Nodes present at the start of a traversal and not yet logically deleted
// when the traversal reaches them are always yielded at least once.
package ilist

import "sync/atomic"

// link is the value stored atomically in a node's next pointer (or in the
// list head): ptr is the next real node, and tomb marks that the node
// *holding* this link has been logically deleted. link is a plain
// comparable struct so it can be stored in, and compare-and-swapped out of,
// an atomic.Value the same way the low bits of a tagged pointer would be in
// a language with pointer tagging.
type link[T any] struct {
	ptr  *Node[T]
	tomb bool
}

// Node is one element of the list, holding a payload and the atomically
// updated link to its successor.
type Node[T any] struct {
	Value T
	next  atomic.Value // link[T]
}

func (n *Node[T]) loadNext() link[T] {
	v, _ := n.next.Load().(link[T])
	return v
}

// List is a lock-free singly-linked list supporting insert-at-head, logical
// delete, and an iterator that physically unlinks deleted nodes as it goes.
type List[T any] struct {
	head atomic.Value // link[T]
}

func (l *List[T]) loadHead() link[T] {
	v, _ := l.head.Load().(link[T])
	return v
}

// Insert publishes value at the head of the list and returns the node
// handle, which callers keep in order to later Delete it.
func (l *List[T]) Insert(value T) *Node[T] {
	n := &Node[T]{Value: value}
	for {
		// compare against exactly what was loaded: nil if the head was never
		// stored, otherwise the stored link (which may be the zero link once
		// every node has been unlinked).
		old := l.head.Load()
		head, _ := old.(link[T])
		n.next.Store(link[T]{ptr: head.ptr})
		if l.head.CompareAndSwap(old, link[T]{ptr: n}) {
			return n
		}
	}
}

// asAny returns nil in place of the zero link, so a CompareAndSwap racing an
// atomic.Value's first-ever Store (which Load reports as the zero value,
// untyped) compares against the same nil old-value CompareAndSwap itself
// treats as "never stored".
func asAny[T any](v link[T]) any {
	if v == (link[T]{}) {
		return nil
	}
	return v
}

// Delete logically removes node from the list. The node remains reachable
// through any predecessor link a concurrent traversal has already loaded,
// until that traversal unlinks it via Iterate.
func (n *Node[T]) Delete() {
	for {
		old := n.loadNext()
		if old.tomb {
			return
		}
		if n.next.CompareAndSwap(old, link[T]{ptr: old.ptr, tomb: true}) {
			return
		}
	}
}

// Iterator is a restartable, single-pass cursor over a List. A single
// traversal either runs to completion (Next returns false with LostRace
// false) or aborts after losing a race to unlink a deleted node (Next
// returns false with LostRace true); callers that need the full list must
// start a fresh Iterator.
type Iterator[T any] struct {
	pred     *atomic.Value
	onUnlink func(*Node[T])
	lostRace bool
}

// Iterate starts a new traversal. onUnlink, if non-nil, is invoked
// synchronously with every node this traversal physically unlinks -
// callers that need to defer freeing a node's resources until it is safe
// to do so should do that from onUnlink.
func (l *List[T]) Iterate(onUnlink func(*Node[T])) *Iterator[T] {
	return &Iterator[T]{pred: &l.head, onUnlink: onUnlink}
}

// Next advances the iterator, returning the next live value. The second
// return is false once the list is exhausted or a race was lost; callers
// must check LostRace to distinguish the two.
func (it *Iterator[T]) Next() (value T, ok bool) {
	var zero T
	for {
		predVal, _ := it.pred.Load().(link[T])
		curr := predVal.ptr
		if curr == nil {
			return zero, false
		}

		succ := curr.loadNext()
		if succ.tomb {
			// curr is logically deleted: try to swing our predecessor past
			// it, preserving whatever tomb bit predVal itself already
			// carried (the predecessor may have been concurrently deleted
			// too; that must not be forgotten).
			next := link[T]{ptr: succ.ptr, tomb: predVal.tomb}
			if it.pred.CompareAndSwap(asAny(predVal), next) {
				if it.onUnlink != nil {
					it.onUnlink(curr)
				}
				continue
			}
			it.lostRace = true
			return zero, false
		}

		it.pred = &curr.next
		return curr.Value, true
	}
}

// LostRace reports whether the traversal ended because it lost a race to
// unlink a deleted node, rather than by reaching the end of the list.
// Callers that treat iteration as "advance as far as safely possible" (the
// epoch advancer) should abandon the current operation when this is true
// and let whichever goroutine won the race make progress instead.
func (it *Iterator[T]) LostRace() bool {
	return it.lostRace
}
