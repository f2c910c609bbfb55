package lifecycle

// Registry is the concrete Lifecycle implementation. State transitions are
// driven through MarkState and fan out synchronously to every subscribed
// observer, on the caller's goroutine. Registry is not safe for concurrent
// use; it is meant to be driven from the same main context as the bus.
type Registry struct {
	owner     Owner
	state     State
	observers []Observer
}

// NewRegistry creates a registry for the given owner, starting at
// Initialized.
func NewRegistry(owner Owner) *Registry {
	return &Registry{owner: owner, state: Initialized}
}

// State implements Lifecycle.State.
func (r *Registry) State() State {
	return r.state
}

// AddObserver implements Lifecycle.AddObserver. The new observer is brought
// up to the current state right away, which is what lets a bus observer
// registered against an already-started owner activate without waiting for
// the next transition.
func (r *Registry) AddObserver(o Observer) {
	for _, existing := range r.observers {
		if existing == o {
			return
		}
	}
	r.observers = append(r.observers, o)
	o.OnStateChanged(r.owner, r.state)
}

// RemoveObserver implements Lifecycle.RemoveObserver.
func (r *Registry) RemoveObserver(o Observer) {
	for i, existing := range r.observers {
		if existing == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

// MarkState moves the registry to the given state and notifies observers.
// Marking the current state again is a no-op. Once Destroyed is reached all
// further transitions are ignored.
func (r *Registry) MarkState(s State) {
	if r.state == Destroyed || s == r.state {
		return
	}
	r.state = s

	// Observers may remove themselves (or others) from within the
	// callback, so walk a snapshot.
	observers := make([]Observer, len(r.observers))
	copy(observers, r.observers)
	for _, o := range observers {
		o.OnStateChanged(r.owner, s)
	}
}

// Holder is a minimal Owner backed by its own Registry. It is the owner
// implementation used by tests and the demo binary.
type Holder struct {
	registry *Registry
}

// NewHolder creates an owner in the Initialized state.
func NewHolder() *Holder {
	h := &Holder{}
	h.registry = NewRegistry(h)
	return h
}

// Lifecycle implements Owner.
func (h *Holder) Lifecycle() Lifecycle {
	return h.registry
}

// MarkState drives the holder's lifecycle.
func (h *Holder) MarkState(s State) {
	h.registry.MarkState(s)
}
