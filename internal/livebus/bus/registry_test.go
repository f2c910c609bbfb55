package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livebus/internal/lifecycle"
	"livebus/internal/livebus"
)

// fakeOwner only provides identity; registry filtering never touches the
// lifecycle itself. The name field keeps distinct fakes at distinct
// addresses.
type fakeOwner struct {
	name string
}

func (o *fakeOwner) Lifecycle() lifecycle.Lifecycle { return nil }

func wrappersOf(r *registry[string]) []*wrapper[string] {
	var ws []*wrapper[string]
	for it := r.iterate(); ; {
		w, ok := it.next()
		if !ok {
			return ws
		}
		ws = append(ws, w)
	}
}

func TestRegistry_PreservesInsertionOrder(t *testing.T) {
	r := newRegistry[string]()
	o1, o2, o3 := &recordingObserver{}, &recordingObserver{}, &recordingObserver{}
	w1 := &wrapper[string]{observer: o1}
	w2 := &wrapper[string]{observer: o2}
	w3 := &wrapper[string]{observer: o3}

	require.Nil(t, r.putIfAbsent(o1, w1))
	require.Nil(t, r.putIfAbsent(o2, w2))
	require.Nil(t, r.putIfAbsent(o3, w3))

	assert.Equal(t, []*wrapper[string]{w1, w2, w3}, wrappersOf(r))
	assert.Equal(t, 3, r.len())
}

func TestRegistry_PutIfAbsentReturnsExisting(t *testing.T) {
	r := newRegistry[string]()
	o := &recordingObserver{}
	w1 := &wrapper[string]{observer: o}
	w2 := &wrapper[string]{observer: o}

	require.Nil(t, r.putIfAbsent(o, w1))
	existing := r.putIfAbsent(o, w2)

	assert.Same(t, w1, existing)
	assert.Equal(t, 1, r.len())
}

func TestRegistry_RemoveUnlinks(t *testing.T) {
	r := newRegistry[string]()
	o1, o2, o3 := &recordingObserver{}, &recordingObserver{}, &recordingObserver{}
	w1 := &wrapper[string]{observer: o1}
	w2 := &wrapper[string]{observer: o2}
	w3 := &wrapper[string]{observer: o3}
	r.putIfAbsent(o1, w1)
	r.putIfAbsent(o2, w2)
	r.putIfAbsent(o3, w3)

	assert.Same(t, w2, r.remove(o2))
	assert.Equal(t, []*wrapper[string]{w1, w3}, wrappersOf(r))

	assert.Same(t, w1, r.remove(o1))
	assert.Same(t, w3, r.remove(o3))
	assert.Equal(t, 0, r.len())
	assert.Nil(t, r.remove(o1))
}

func TestRegistry_AdditionsDuringIterationAreVisible(t *testing.T) {
	r := newRegistry[string]()
	o1, o2 := &recordingObserver{}, &recordingObserver{}
	w1 := &wrapper[string]{observer: o1}
	w2 := &wrapper[string]{observer: o2}
	r.putIfAbsent(o1, w1)

	it := r.iterate()
	first, ok := it.next()
	require.True(t, ok)
	assert.Same(t, w1, first)

	// Appended mid-iteration; the walk must pick it up.
	r.putIfAbsent(o2, w2)

	second, ok := it.next()
	require.True(t, ok)
	assert.Same(t, w2, second)

	_, ok = it.next()
	assert.False(t, ok)
}

func TestRegistry_RemovalDuringIterationKeepsWalking(t *testing.T) {
	r := newRegistry[string]()
	o1, o2, o3 := &recordingObserver{}, &recordingObserver{}, &recordingObserver{}
	w1 := &wrapper[string]{observer: o1}
	w2 := &wrapper[string]{observer: o2}
	w3 := &wrapper[string]{observer: o3}
	r.putIfAbsent(o1, w1)
	r.putIfAbsent(o2, w2)
	r.putIfAbsent(o3, w3)

	it := r.iterate()
	first, _ := it.next()
	assert.Same(t, w1, first)

	// The iterator is parked on w2's node; removing it must not cut the
	// walk off from the rest of the list.
	r.remove(o2)

	second, ok := it.next()
	require.True(t, ok)
	assert.Same(t, w2, second)

	third, ok := it.next()
	require.True(t, ok)
	assert.Same(t, w3, third)
}

func TestRegistry_ObserversOfFiltersByOwner(t *testing.T) {
	r := newRegistry[string]()
	var o1, o2, o3 livebus.EventObserver[string] = &recordingObserver{}, &recordingObserver{}, &recordingObserver{}
	owner := &fakeOwner{name: "owner"}
	other := &fakeOwner{name: "other"}
	r.putIfAbsent(o1, &wrapper[string]{observer: o1, owner: owner})
	r.putIfAbsent(o2, &wrapper[string]{observer: o2, owner: other})
	r.putIfAbsent(o3, &wrapper[string]{observer: o3, owner: owner})

	assert.Equal(t, []livebus.EventObserver[string]{o1, o3}, r.observersOf(owner))
	assert.Equal(t, []livebus.EventObserver[string]{o2}, r.observersOf(other))
}
