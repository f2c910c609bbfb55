package bus

// entry is one queued event plus the number of observers that still have
// to consume it.
type entry[T any] struct {
	refs  int
	event T
}

// store is the pending-event map, keyed by sequence id. Ids can be sparse
// once entries are released out of order. A single scratch slot recycles
// the last released entry, so the common no-backlog case sends events
// without allocating.
type store[T any] struct {
	entries map[int]*entry[T]
	scratch *entry[T]
}

func newStore[T any]() *store[T] {
	return &store[T]{
		entries: make(map[int]*entry[T], 1),
		scratch: &entry[T]{},
	}
}

func (s *store[T]) len() int {
	return len(s.entries)
}

// obtain returns an entry initialized with the given refcount and event,
// reusing the scratch slot when one is available.
func (s *store[T]) obtain(refs int, event T) *entry[T] {
	e := s.scratch
	if e == nil {
		e = &entry[T]{}
	}
	s.scratch = nil
	e.refs = refs
	e.event = event
	return e
}

func (s *store[T]) put(id int, e *entry[T]) {
	s.entries[id] = e
}

// getAndDecrement returns the event at id and consumes by references from
// its entry. An entry reaching zero references is removed and released.
// The second return is false when no entry exists at id.
func (s *store[T]) getAndDecrement(id, by int) (T, bool) {
	e, ok := s.entries[id]
	if !ok {
		var zero T
		return zero, false
	}
	e.refs -= by
	event := e.event
	if e.refs <= 0 {
		delete(s.entries, id)
		s.release(e)
	}
	return event, true
}

// decrementAll consumes by references from every pending entry.
func (s *store[T]) decrementAll(by int) {
	for id := range s.entries {
		s.getAndDecrement(id, by)
	}
}

func (s *store[T]) release(e *entry[T]) {
	var zero T
	e.event = zero
	if s.scratch == nil {
		s.scratch = e
	}
}
