package mainloop

// Immediate is an executor that runs every task inline on the calling
// goroutine and treats every caller as the main context. It makes posted
// sends synchronous, which is exactly what bus tests want.
type Immediate struct{}

// PostToMain runs the task immediately on the calling goroutine.
func (Immediate) PostToMain(task func()) {
	task()
}

// IsMainThread always reports true.
func (Immediate) IsMainThread() bool {
	return true
}
