package livebus

import "livebus/internal/lifecycle"

// Bus defines the interface for a lifecycle-aware single-dispatch event bus.
// Events sent through a Bus are delivered exactly once per registered
// observer: observers whose owning lifecycle is inactive have events queued
// for them, and events sent while no observer is registered at all are
// dropped. All mutating operations are confined to a single main context
// (see Executor); Post is the only entry point safe to call from other
// goroutines.
type Bus[T any] interface {
	// Observe registers the observer bound to the owner's lifecycle. The
	// observer only receives events while the owner's state is at least
	// Started; events sent while it is inactive are queued and delivered
	// in order once it activates. When the owner reaches Destroyed the
	// observer is removed automatically. Registering against an already
	// destroyed owner is a no-op, re-registering the same (owner,
	// observer) pair is a no-op, and registering an observer that is
	// already bound elsewhere returns ErrConflictingRegistration.
	Observe(owner lifecycle.Owner, observer EventObserver[T]) error

	// ObserveForever registers the observer as always active. It receives
	// every event until RemoveObserver is called; it is never removed
	// automatically. Returns ErrConflictingRegistration if the observer
	// is already lifecycle-bound.
	ObserveForever(observer EventObserver[T]) error

	// RemoveObserver removes the observer, detaching it from any owner and
	// releasing its claim on every queued event. Must be called on the
	// main context; returns ErrWrongThread otherwise.
	RemoveObserver(observer EventObserver[T]) error

	// RemoveObservers removes every observer bound to the given owner.
	// Must be called on the main context; returns ErrWrongThread
	// otherwise.
	RemoveObservers(owner lifecycle.Owner) error

	// Send dispatches the event. Active observers receive it immediately,
	// inactive ones have it queued, and if no observer is registered the
	// event is dropped. Must be called on the main context; returns
	// ErrWrongThread otherwise.
	Send(event T) error

	// Post schedules Send(event) on the main context and returns
	// immediately. Safe to call from any goroutine. Multiple posts run in
	// the order they were posted, but a synchronous Send issued after a
	// Post may still be dispatched first.
	Post(event T)

	// HasObservers reports whether any observer is registered.
	HasObservers() bool

	// HasActiveObservers reports whether any registered observer is
	// currently active.
	HasActiveObservers() bool
}
