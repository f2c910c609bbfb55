package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"livebus/internal/lifecycle"
	"livebus/internal/livebus"
	"livebus/internal/mainloop"
)

// chainObserver sends a follow-up event from inside its own callback.
type chainObserver struct {
	bus    *Bus[string]
	on     string
	send   string
	sent   bool
	events []string
}

func (o *chainObserver) OnEvent(event string) {
	o.events = append(o.events, event)
	if event == o.on && !o.sent {
		o.sent = true
		if err := o.bus.Send(o.send); err != nil {
			panic(err)
		}
	}
}

func TestBus_ReentrantSendDeliversToAllObserversOnce(t *testing.T) {
	b := newTestBus(t)
	chained := &chainObserver{bus: b, on: "first", send: "second"}
	plain := &recordingObserver{}

	require.NoError(t, b.ObserveForever(chained))
	require.NoError(t, b.ObserveForever(plain))
	require.NoError(t, b.Send("first"))

	assert.Equal(t, []string{"first", "second"}, chained.events)
	assert.Equal(t, []string{"first", "second"}, plain.events)
}

func TestBus_ReentrantSendDoesNotRecurse(t *testing.T) {
	// Each event below the cap triggers another send from inside the
	// callback. With nested dispatch this would recurse a hundred deep;
	// the invalidation loop must flatten it instead.
	b, err := New[int]("test", mainloop.Immediate{}, zap.NewNop())
	require.NoError(t, err)

	var depth, maxDepth, count int
	observer := livebus.NewObserver(func(n int) {
		depth++
		if depth > maxDepth {
			maxDepth = depth
		}
		count++
		if n < 100 {
			if err := b.Send(n + 1); err != nil {
				panic(err)
			}
		}
		depth--
	})

	require.NoError(t, b.ObserveForever(observer))
	require.NoError(t, b.Send(1))

	assert.Equal(t, 100, count)
	assert.Equal(t, 1, maxDepth)
	assert.Equal(t, 0, b.PendingEvents())
}

func TestBus_ObserverAddedDuringDispatchSeesOnlyFutureEvents(t *testing.T) {
	b := newTestBus(t)
	late := &recordingObserver{}
	adder := livebus.NewObserver(func(event string) {
		if event == "first" {
			if err := b.ObserveForever(late); err != nil {
				panic(err)
			}
		}
	})

	require.NoError(t, b.ObserveForever(adder))
	require.NoError(t, b.Send("first"))
	require.NoError(t, b.Send("second"))

	assert.Equal(t, []string{"second"}, late.events)
}

func TestBus_ObserverRemovedDuringDispatchStopsReceiving(t *testing.T) {
	b := newTestBus(t)
	victim := &recordingObserver{}
	remover := livebus.NewObserver(func(event string) {
		if event == "first" {
			if err := b.RemoveObserver(victim); err != nil {
				panic(err)
			}
		}
	})

	// remover registers first, so it handles "first" before the sweep
	// reaches victim.
	require.NoError(t, b.ObserveForever(remover))
	require.NoError(t, b.ObserveForever(victim))
	require.NoError(t, b.Send("first"))
	require.NoError(t, b.Send("second"))

	assert.Empty(t, victim.events)
}

func TestBus_ReentrantSendFromLifecycleActivation(t *testing.T) {
	// The queued event's delivery happens inside the activation pass;
	// sending from that callback must still reach every active observer.
	b := newTestBus(t)
	owner := lifecycle.NewHolder()
	owner.MarkState(lifecycle.Created)
	plain := &recordingObserver{}
	chained := &chainObserver{bus: b, on: "queued", send: "followup"}

	require.NoError(t, b.ObserveForever(plain))
	require.NoError(t, b.Observe(owner, chained))
	require.NoError(t, b.Send("queued"))

	require.Equal(t, []string{"queued"}, plain.events)

	owner.MarkState(lifecycle.Started)

	assert.Equal(t, []string{"queued", "followup"}, chained.events)
	assert.Equal(t, []string{"queued", "followup"}, plain.events)

	owner.MarkState(lifecycle.Destroyed)
}
