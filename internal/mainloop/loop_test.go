package mainloop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestImmediate_RunsInline(t *testing.T) {
	var ran bool
	exec := Immediate{}

	exec.PostToMain(func() { ran = true })

	assert.True(t, ran)
	assert.True(t, exec.IsMainThread())
}

func TestLoop_RunsTasksInPostingOrder(t *testing.T) {
	loop, err := NewLoop(zap.NewNop(), 16)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	var order []int
	finished := make(chan struct{})
	for i := 1; i <= 5; i++ {
		loop.PostToMain(func() { order = append(order, i) })
	}
	loop.PostToMain(func() { close(finished) })

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("loop did not run posted tasks")
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, order)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestLoop_IsMainThreadOnlyInsideLoop(t *testing.T) {
	loop, err := NewLoop(zap.NewNop(), 16)
	require.NoError(t, err)

	assert.False(t, loop.IsMainThread(), "loop not running yet")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	inside := make(chan bool, 1)
	loop.PostToMain(func() { inside <- loop.IsMainThread() })

	select {
	case v := <-inside:
		assert.True(t, v, "task runs on the main context")
	case <-time.After(time.Second):
		t.Fatal("loop did not run posted task")
	}
	assert.False(t, loop.IsMainThread(), "test goroutine is not the main context")

	cancel()
	err = <-done
	require.True(t, errors.Is(err, context.Canceled))
	assert.False(t, loop.IsMainThread(), "no main context after shutdown")
}

func TestNewLoop_ValidatesDeps(t *testing.T) {
	_, err := NewLoop(zap.NewNop(), 0)

	require.Error(t, err)
}
