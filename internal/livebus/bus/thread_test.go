package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"livebus/internal/lifecycle"
	"livebus/internal/livebus"
)

// backgroundExecutor reports every caller as off the main context, the way
// the real loop does for goroutines it does not own.
type backgroundExecutor struct {
	posted []func()
}

func (e *backgroundExecutor) PostToMain(task func()) {
	e.posted = append(e.posted, task)
}

func (e *backgroundExecutor) IsMainThread() bool {
	return false
}

func TestBus_SendOffMainContextFails(t *testing.T) {
	b, err := New[string]("test", &backgroundExecutor{}, zap.NewNop())
	require.NoError(t, err)
	observer := &recordingObserver{}
	require.NoError(t, b.ObserveForever(observer))

	err = b.Send("test")

	require.ErrorIs(t, err, livebus.ErrWrongThread)
	assert.Empty(t, observer.events)
	assert.Equal(t, 0, b.PendingEvents())
}

func TestBus_RemoveObserverOffMainContextFails(t *testing.T) {
	b, err := New[string]("test", &backgroundExecutor{}, zap.NewNop())
	require.NoError(t, err)
	observer := &recordingObserver{}
	require.NoError(t, b.ObserveForever(observer))

	err = b.RemoveObserver(observer)

	require.ErrorIs(t, err, livebus.ErrWrongThread)
	assert.True(t, b.HasObservers(), "bus must be left unchanged")
}

func TestBus_RemoveObserversOffMainContextFails(t *testing.T) {
	b, err := New[string]("test", &backgroundExecutor{}, zap.NewNop())
	require.NoError(t, err)
	owner := lifecycle.NewHolder()
	owner.MarkState(lifecycle.Started)
	observer := &recordingObserver{}
	require.NoError(t, b.Observe(owner, observer))

	err = b.RemoveObservers(owner)

	require.ErrorIs(t, err, livebus.ErrWrongThread)
	assert.True(t, b.HasObservers(), "bus must be left unchanged")
}

func TestBus_PostMarshalsOntoExecutor(t *testing.T) {
	exec := &backgroundExecutor{}
	b, err := New[string]("test", exec, zap.NewNop())
	require.NoError(t, err)

	b.Post("one")
	b.Post("two")

	assert.Len(t, exec.posted, 2)
}
