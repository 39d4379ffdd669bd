package loom

import "context"

// taskContextKey is a unique type used as a key for storing the
// current Task in a context.
type taskContextKey struct{}

func withTaskContext(ctx context.Context, task *Task) context.Context {
	return context.WithValue(ctx, taskContextKey{}, task)
}

// TaskFromContext retrieves the Task carried by ctx, if any. The
// package-level helpers (Spawn, Run, All, Race, Sleep, Offload) use
// this to find the calling task; when it reports false, the caller is
// outside any execution (the runtime's "root").
func TaskFromContext(ctx context.Context) (*Task, bool) {
	val, ok := ctx.Value(taskContextKey{}).(*Task)
	return val, ok
}

// MustTaskFromContext retrieves the Task carried by ctx, panicking
// with a caller-bug message if ctx carries none.
func MustTaskFromContext(ctx context.Context) *Task {
	task, ok := TaskFromContext(ctx)
	if !ok {
		callerBug("runtime primitive invoked outside an execution")
	}
	return task
}
