package livebus

// EventObserver receives events delivered by a Bus. The callback may itself
// call back into the bus (send, observe, remove); such re-entrant calls are
// deferred until the in-progress dispatch pass finishes rather than run
// nested.
type EventObserver[T any] interface {
	// OnEvent is invoked once per delivered event.
	OnEvent(event T)
}

// funcObserver adapts a plain function to EventObserver. It is returned by
// pointer so each adapter has a distinct identity in the bus registry.
type funcObserver[T any] struct {
	fn func(T)
}

func (o *funcObserver[T]) OnEvent(event T) {
	o.fn(event)
}

// NewObserver wraps fn in an EventObserver. Every call returns a distinct
// observer: registering it twice is a no-op for the same registration, and
// removing it requires the value returned here. The bus identifies
// observers by identity, which is why a bare func type cannot serve as an
// observer directly.
func NewObserver[T any](fn func(T)) EventObserver[T] {
	return &funcObserver[T]{fn: fn}
}
