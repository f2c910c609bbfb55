package livebus

// Executor abstracts the single main execution context that all bus
// mutation and delivery is confined to. The bus uses IsMainThread for its
// fail-fast checks on mutating entry points and PostToMain to marshal Post
// calls from other goroutines.
type Executor interface {
	// PostToMain enqueues the task for execution on the main context.
	// Fire and forget: there is no result channel or back-pressure.
	PostToMain(task func())

	// IsMainThread reports whether the caller is running on the main
	// context.
	IsMainThread() bool
}
