// Package lifecycle provides a minimal lifecycle state machine for scoping
// observers to an owning component. The event bus only depends on the
// interfaces defined here; Registry is the reference implementation used by
// tests and the demo binary.
package lifecycle

// State represents the position of an owner in its lifecycle. States are
// ordered, so "at least started" style checks work with a plain comparison.
type State int

const (
	// Initialized is the state of an owner before it has been created.
	Initialized State = iota
	// Created means the owner exists but is not yet visible/running.
	Created
	// Started means the owner is running and may receive events.
	Started
	// Resumed means the owner is running and in the foreground.
	Resumed
	// Destroyed is the terminal state. Observers bound to a destroyed
	// owner are automatically removed and the owner never leaves this
	// state.
	Destroyed
)

// AtLeast reports whether s is at or past the given state in lifecycle order.
func (s State) AtLeast(other State) bool {
	return s >= other
}

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Created:
		return "created"
	case Started:
		return "started"
	case Resumed:
		return "resumed"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Observer receives a callback on every state transition of a lifecycle,
// including the transition into Destroyed.
type Observer interface {
	OnStateChanged(owner Owner, state State)
}

// Lifecycle exposes the current state of an owner and supports subscribing
// to its transitions.
type Lifecycle interface {
	// State returns the current lifecycle state.
	State() State

	// AddObserver subscribes the observer to state transitions. The
	// observer is immediately notified of the current state so it can
	// catch up with transitions it missed.
	AddObserver(o Observer)

	// RemoveObserver unsubscribes the observer. Unknown observers are
	// ignored.
	RemoveObserver(o Observer)
}

// Owner is a component with a lifecycle, such as a screen or a session.
type Owner interface {
	Lifecycle() Lifecycle
}
