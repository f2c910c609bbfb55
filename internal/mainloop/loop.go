// Package mainloop provides implementations of the livebus.Executor
// contract: Loop, a single-goroutine run loop that serves as the main
// context of an application, and Immediate, an inline executor for tests.
package mainloop

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"

	"livebus/internal/validator"
)

// Loop is a FIFO task executor backed by a single goroutine. Tasks posted
// with PostToMain run in posting order on the goroutine that called Run.
type Loop struct {
	tasks  chan func()
	logger *zap.Logger
	gid    atomic.Uint64
}

// NewLoop creates a loop with the given task queue depth.
func NewLoop(logger *zap.Logger, queueDepth int) (*Loop, error) {
	if err := validator.Validate("mainloop", logger, queueDepth); err != nil {
		return nil, fmt.Errorf("failed to validate mainloop deps: %w", err)
	}

	l := Loop{
		tasks:  make(chan func(), queueDepth),
		logger: logger.Named("mainloop"),
	}

	return &l, nil
}

// Run executes posted tasks on the calling goroutine until ctx is done.
// The calling goroutine becomes the main context for IsMainThread checks.
// Returns ctx.Err() on shutdown.
func (l *Loop) Run(ctx context.Context) error {
	l.gid.Store(goroutineID())
	l.logger.Info("main loop running")

	for {
		select {
		case <-ctx.Done():
			l.gid.Store(0)
			l.logger.Info("main loop stopped")
			return ctx.Err()
		case task := <-l.tasks:
			task()
		}
	}
}

// PostToMain implements livebus.Executor.PostToMain. It blocks only if the
// queue is full.
func (l *Loop) PostToMain(task func()) {
	l.tasks <- task
}

// IsMainThread implements livebus.Executor.IsMainThread by comparing the
// caller's goroutine against the one running the loop.
func (l *Loop) IsMainThread() bool {
	gid := l.gid.Load()
	return gid != 0 && gid == goroutineID()
}

// goroutineID parses the current goroutine's id out of the runtime stack
// header ("goroutine N [running]: ..."). There is no runtime API for this;
// the header format has been stable across Go releases.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
