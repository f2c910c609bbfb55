package livebus

import "errors"

var (
	// ErrConflictingRegistration is returned when an observer is
	// registered a second time with a different owner, or both
	// lifecycle-bound and forever. It signals a usage bug in the caller;
	// the bus is left unchanged.
	ErrConflictingRegistration = errors.New("conflicting registration")

	// ErrWrongThread is returned when a main-context-only operation is
	// invoked from another goroutine. It signals a usage bug in the
	// caller; the bus is left unchanged. Use Post to send from other
	// goroutines.
	ErrWrongThread = errors.New("wrong thread")
)
