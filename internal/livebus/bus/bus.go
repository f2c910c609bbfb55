// Package bus contains the concrete livebus.Bus implementation along with
// its metrics and tracing decorators.
package bus

import (
	"fmt"

	"go.uber.org/zap"

	"livebus/internal/lifecycle"
	"livebus/internal/livebus"
	"livebus/internal/validator"
)

// Bus is the core event-dispatch implementation of livebus.Bus. It owns the
// observer registry and the pending-event store and runs the dispatch loop.
//
// All state is confined to the main context provided by the Executor;
// there is no internal locking. Send, RemoveObserver and RemoveObservers
// fail fast when called from anywhere else. Post is the bridge for other
// goroutines.
type Bus[T any] struct {
	name   string
	exec   livebus.Executor
	logger *zap.Logger

	observers *registry[T]
	pending   *store[T]

	// version is the bus-wide sequence counter: the key of the next
	// pending entry and the starting cursor of newly added observers.
	version     int
	activeCount int

	dispatching bool
	invalidated bool

	onActive   func()
	onInactive func()
}

// New creates a bus with the given name. The executor provides the main
// context all mutation is confined to.
func New[T any](name string, exec livebus.Executor, logger *zap.Logger, opts ...Option) (*Bus[T], error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	b := Bus[T]{
		name:       name,
		exec:       exec,
		observers:  newRegistry[T](),
		pending:    newStore[T](),
		onActive:   s.onActive,
		onInactive: s.onInactive,
	}

	if err := validator.Validate("bus", name, exec, logger); err != nil {
		return nil, fmt.Errorf("failed to validate bus deps: %w", err)
	}
	b.logger = logger.Named("bus").With(zap.String("bus", name))

	return &b, nil
}

// Name returns the bus name used by the observability decorators.
func (b *Bus[T]) Name() string {
	return b.name
}

// Observe implements livebus.Bus.Observe.
func (b *Bus[T]) Observe(owner lifecycle.Owner, observer livebus.EventObserver[T]) error {
	if owner.Lifecycle().State() == lifecycle.Destroyed {
		// The owner can never become active again; registering would only
		// leak the observer.
		return nil
	}

	w := newWrapper(b, observer, owner)
	existing := b.observers.putIfAbsent(observer, w)
	if existing != nil && !existing.attachedTo(owner) {
		return fmt.Errorf("observer already registered with another lifecycle: %w", livebus.ErrConflictingRegistration)
	}
	if existing != nil {
		return nil
	}

	// The registry notifies new observers of the current state right
	// away, so an already-started owner activates the wrapper here.
	owner.Lifecycle().AddObserver(w)

	return nil
}

// ObserveForever implements livebus.Bus.ObserveForever.
func (b *Bus[T]) ObserveForever(observer livebus.EventObserver[T]) error {
	w := newWrapper[T](b, observer, nil)
	existing := b.observers.putIfAbsent(observer, w)
	if existing != nil && existing.owner != nil {
		return fmt.Errorf("observer already registered with a lifecycle: %w", livebus.ErrConflictingRegistration)
	}
	if existing != nil {
		return nil
	}

	w.activeStateChanged(true)

	return nil
}

// RemoveObserver implements livebus.Bus.RemoveObserver. Every still-pending
// entry loses one reference, including entries this observer already
// consumed; an entry reaching zero references is released.
func (b *Bus[T]) RemoveObserver(observer livebus.EventObserver[T]) error {
	if err := b.assertMainThread("RemoveObserver"); err != nil {
		return err
	}

	removed := b.observers.remove(observer)
	if removed == nil {
		return nil
	}
	removed.detach()
	removed.activeStateChanged(false)
	b.pending.decrementAll(1)

	b.logger.Debug("observer removed", zap.Int("remaining", b.observers.len()))

	return nil
}

// RemoveObservers implements livebus.Bus.RemoveObservers by removing each
// observer bound to the owner in turn, so the pending-event refcounts are
// decremented exactly once per removed observer.
func (b *Bus[T]) RemoveObservers(owner lifecycle.Owner) error {
	if err := b.assertMainThread("RemoveObservers"); err != nil {
		return err
	}

	for _, observer := range b.observers.observersOf(owner) {
		if err := b.RemoveObserver(observer); err != nil {
			return fmt.Errorf("failed to remove observer for owner: %w", err)
		}
	}

	return nil
}

// Send implements livebus.Bus.Send.
func (b *Bus[T]) Send(event T) error {
	if err := b.assertMainThread("Send"); err != nil {
		return err
	}

	if b.observers.len() == 0 {
		// Nothing could ever consume the event; queueing it would leak.
		b.logger.Debug("event dropped, no observers")
		return nil
	}

	b.pending.put(b.version, b.pending.obtain(b.observers.len(), event))
	b.version++
	b.dispatch(nil)

	return nil
}

// Post implements livebus.Bus.Post.
func (b *Bus[T]) Post(event T) {
	b.exec.PostToMain(func() {
		if err := b.Send(event); err != nil {
			b.logger.Error("failed to send posted event", zap.Error(err))
		}
	})
}

// HasObservers implements livebus.Bus.HasObservers.
func (b *Bus[T]) HasObservers() bool {
	return b.observers.len() > 0
}

// HasActiveObservers implements livebus.Bus.HasActiveObservers.
func (b *Bus[T]) HasActiveObservers() bool {
	return b.activeCount > 0
}

// Observers returns the number of registered observers.
func (b *Bus[T]) Observers() int {
	return b.observers.len()
}

// ActiveObservers returns the number of currently active observers.
func (b *Bus[T]) ActiveObservers() int {
	return b.activeCount
}

// PendingEvents returns the number of queued, not yet fully delivered
// events.
func (b *Bus[T]) PendingEvents() int {
	return b.pending.len()
}

// considerNotify delivers every queued event from the wrapper's cursor
// forward, or deactivates the wrapper if its owner went inactive since it
// was last marked active.
func (b *Bus[T]) considerNotify(w *wrapper[T]) {
	if !w.active {
		return
	}
	if !w.shouldBeActive() {
		w.activeStateChanged(false)
		return
	}
	id := w.nextID
	for {
		event, ok := b.pending.getAndDecrement(id, 1)
		if !ok {
			// Caught up.
			break
		}
		w.observer.OnEvent(event)
		id++
	}
	w.nextID = id
}

// dispatch runs one delivery pass: a pass targeted at the initiator when it
// just activated, or a sweep over all observers in registration order.
// Dispatch never nests. A pass started while another is running only marks
// it invalidated; the running pass then restarts a full sweep until one
// completes clean, so events sent from inside an observer callback are
// delivered without growing the call stack.
func (b *Bus[T]) dispatch(initiator *wrapper[T]) {
	if b.dispatching {
		b.invalidated = true
		return
	}
	b.dispatching = true
	for {
		b.invalidated = false
		if initiator != nil {
			b.considerNotify(initiator)
			initiator = nil
		} else {
			for it := b.observers.iterate(); ; {
				w, ok := it.next()
				if !ok {
					break
				}
				b.considerNotify(w)
				if b.invalidated {
					break
				}
			}
		}
		if !b.invalidated {
			break
		}
	}
	b.dispatching = false
}

func (b *Bus[T]) assertMainThread(op string) error {
	if !b.exec.IsMainThread() {
		return fmt.Errorf("cannot invoke %s on a background goroutine: %w", op, livebus.ErrWrongThread)
	}
	return nil
}
