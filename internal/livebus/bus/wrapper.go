package bus

import (
	"go.uber.org/zap"

	"livebus/internal/lifecycle"
	"livebus/internal/livebus"
)

// wrapper carries the per-observer bookkeeping: the active flag and the
// delivery cursor. A nil owner means the observer was registered with
// ObserveForever and is always active; otherwise the wrapper subscribes to
// the owner's lifecycle and follows its transitions.
type wrapper[T any] struct {
	bus      *Bus[T]
	observer livebus.EventObserver[T]
	owner    lifecycle.Owner

	// nextID is the cursor: the sequence id of the next event to deliver
	// to this observer. Starting it at the current bus version means new
	// observers only see future events.
	nextID int
	active bool
}

func newWrapper[T any](b *Bus[T], observer livebus.EventObserver[T], owner lifecycle.Owner) *wrapper[T] {
	return &wrapper[T]{
		bus:      b,
		observer: observer,
		owner:    owner,
		nextID:   b.version,
	}
}

func (w *wrapper[T]) shouldBeActive() bool {
	if w.owner == nil {
		return true
	}
	state := w.owner.Lifecycle().State()
	return state != lifecycle.Destroyed && state.AtLeast(lifecycle.Started)
}

func (w *wrapper[T]) attachedTo(owner lifecycle.Owner) bool {
	return w.owner != nil && w.owner == owner
}

func (w *wrapper[T]) detach() {
	if w.owner != nil {
		w.owner.Lifecycle().RemoveObserver(w)
	}
}

// OnStateChanged implements lifecycle.Observer for lifecycle-bound
// wrappers. Reaching the terminal state unregisters the observer; any
// other transition recomputes the active state, delivering queued events
// on an inactive-to-active flip.
func (w *wrapper[T]) OnStateChanged(owner lifecycle.Owner, state lifecycle.State) {
	if w.owner.Lifecycle().State() == lifecycle.Destroyed {
		if err := w.bus.RemoveObserver(w.observer); err != nil {
			w.bus.logger.Error("failed to remove observer of destroyed owner", zap.Error(err))
		}
		return
	}
	w.activeStateChanged(w.shouldBeActive())
}

// activeStateChanged applies an active-state transition. It maintains the
// bus-wide active count, fires the onActive/onInactive hooks on the 0-to-1
// and 1-to-0 edges, and starts a delivery pass targeted at this wrapper
// when it activates. Requesting the current state is a no-op.
func (w *wrapper[T]) activeStateChanged(newActive bool) {
	if newActive == w.active {
		return
	}
	// Flip the flag first so nothing dispatches to an inactive owner
	// mid-transition.
	w.active = newActive
	wasInactive := w.bus.activeCount == 0
	if newActive {
		w.bus.activeCount++
	} else {
		w.bus.activeCount--
	}
	if wasInactive && newActive && w.bus.onActive != nil {
		w.bus.onActive()
	}
	if w.bus.activeCount == 0 && !newActive && w.bus.onInactive != nil {
		w.bus.onInactive()
	}
	if newActive {
		w.bus.dispatch(w)
	}
}
