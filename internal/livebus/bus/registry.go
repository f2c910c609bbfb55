package bus

import (
	"livebus/internal/lifecycle"
	"livebus/internal/livebus"
)

// registry is an insertion-ordered map from observer identity to wrapper:
// a doubly linked list for order plus an index for O(1) lookup. It is
// built to be traversed while being mutated, which dispatch sweeps do.
type registry[T any] struct {
	head, tail *regNode[T]
	index      map[livebus.EventObserver[T]]*regNode[T]
}

type regNode[T any] struct {
	wrapper    *wrapper[T]
	prev, next *regNode[T]
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{index: make(map[livebus.EventObserver[T]]*regNode[T])}
}

func (r *registry[T]) len() int {
	return len(r.index)
}

// putIfAbsent appends the wrapper at the tail and returns nil, or leaves
// the registry untouched and returns the wrapper already registered for
// this observer.
func (r *registry[T]) putIfAbsent(observer livebus.EventObserver[T], w *wrapper[T]) *wrapper[T] {
	if n, ok := r.index[observer]; ok {
		return n.wrapper
	}
	n := &regNode[T]{wrapper: w, prev: r.tail}
	if r.tail == nil {
		r.head = n
	} else {
		r.tail.next = n
	}
	r.tail = n
	r.index[observer] = n
	return nil
}

// remove unlinks the observer's node and returns its wrapper, or nil if
// the observer was not registered. The unlinked node keeps its next
// pointer so an iterator currently holding it can continue into the live
// remainder of the list.
func (r *registry[T]) remove(observer livebus.EventObserver[T]) *wrapper[T] {
	n, ok := r.index[observer]
	if !ok {
		return nil
	}
	delete(r.index, observer)
	if n.prev == nil {
		r.head = n.next
	} else {
		n.prev.next = n.next
	}
	if n.next == nil {
		r.tail = n.prev
	} else {
		n.next.prev = n.prev
	}
	return n.wrapper
}

// observersOf returns the observers bound to the given owner, in
// registration order.
func (r *registry[T]) observersOf(owner lifecycle.Owner) []livebus.EventObserver[T] {
	var observers []livebus.EventObserver[T]
	for n := r.head; n != nil; n = n.next {
		if n.wrapper.attachedTo(owner) {
			observers = append(observers, n.wrapper.observer)
		}
	}
	return observers
}

// iterate returns an iterator over the wrappers in insertion order. Nodes
// appended during iteration are visited; a node removed mid-iteration is
// simply passed through on the way to its successor.
func (r *registry[T]) iterate() *regIterator[T] {
	return &regIterator[T]{cursor: r.head}
}

type regIterator[T any] struct {
	cursor *regNode[T]
}

func (it *regIterator[T]) next() (*wrapper[T], bool) {
	n := it.cursor
	if n == nil {
		return nil, false
	}
	it.cursor = n.next
	return n.wrapper, true
}
