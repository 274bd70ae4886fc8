// Package msqueue implements a lock-free, multi-producer multi-consumer
// FIFO queue, the Michael & Scott two-lock-free-pointer algorithm ("Simple,
// Fast, and Practical Non-Blocking and Blocking Concurrent Queue
// Algorithms", PODC '96), with a dummy head/sentinel node so Push and Pop
// never need to special-case an empty queue.
//
// Unlike a plain queue, Pop is conditional: TryPopIf only dequeues the head
// element when a predicate over it holds, and otherwise leaves the queue
// untouched. This is what the collector needs to pop only bags whose epoch
// is far enough in the past to be safely reclaimed.
package msqueue

import "sync/atomic"

type link[T any] struct {
	ptr *entry[T]
}

type entry[T any] struct {
	value T
	next  atomic.Value // link[T]
}

func (e *entry[T]) loadNext() link[T] {
	v, _ := e.next.Load().(link[T])
	return v
}

func asAny[T any](v link[T]) any {
	if v == (link[T]{}) {
		return nil
	}
	return v
}

// Queue is a lock-free FIFO of T.
type Queue[T any] struct {
	head atomic.Value // link[T]
	tail atomic.Value // link[T]
}

// New returns an empty, ready-to-use queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{}
	sentinel := &entry[T]{}
	sentinel.next.Store(link[T]{})
	l := link[T]{ptr: sentinel}
	q.head.Store(l)
	q.tail.Store(l)
	return q
}

func (q *Queue[T]) loadHead() link[T] {
	v, _ := q.head.Load().(link[T])
	return v
}

func (q *Queue[T]) loadTail() link[T] {
	v, _ := q.tail.Load().(link[T])
	return v
}

// Push unconditionally enqueues value.
func (q *Queue[T]) Push(value T) {
	n := &entry[T]{value: value}
	n.next.Store(link[T]{})
	for {
		tail := q.loadTail()
		next := tail.ptr.loadNext()
		if tail != q.loadTail() {
			continue // tail changed underfoot, retry
		}
		if next.ptr == nil {
			if tail.ptr.next.CompareAndSwap(next, link[T]{ptr: n}) {
				// best-effort: swing tail to the node we just linked. If this
				// CAS loses, the next Push or TryPopIf will swing it instead.
				q.tail.CompareAndSwap(asAny(tail), link[T]{ptr: n})
				return
			}
			continue
		}
		// tail is lagging behind the real last node: help it catch up.
		q.tail.CompareAndSwap(asAny(tail), link[T]{ptr: next.ptr})
	}
}

// TryPopIf dequeues and returns the head element if, and only if, pred
// reports true for it. If pred returns false, or the queue is empty, the
// queue is left unchanged and ok is false.
func (q *Queue[T]) TryPopIf(pred func(T) bool) (value T, ok bool) {
	var zero T
	for {
		head := q.loadHead()
		tail := q.loadTail()
		next := head.ptr.loadNext()
		if head != q.loadHead() {
			continue
		}
		if head.ptr == tail.ptr {
			if next.ptr == nil {
				return zero, false // queue is empty
			}
			// tail is lagging behind: help it catch up, then retry.
			q.tail.CompareAndSwap(asAny(tail), link[T]{ptr: next.ptr})
			continue
		}
		// read the candidate value before attempting the CAS: once the CAS
		// on head succeeds, a concurrent popper could reuse next.ptr.
		v := next.ptr.value
		if !pred(v) {
			return zero, false
		}
		if q.head.CompareAndSwap(asAny(head), link[T]{ptr: next.ptr}) {
			return v, true
		}
	}
}

// Drain unconditionally pops every remaining element, in FIFO order. It is
// meant for use at teardown, where the caller is the last reference to the
// queue and needs to run whatever cleanup is associated with any items that
// never got collected by TryPopIf.
func (q *Queue[T]) Drain() []T {
	var out []T
	for {
		v, ok := q.TryPopIf(func(T) bool { return true })
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}
