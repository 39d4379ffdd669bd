package loom

import "context"

// defaultRuntime is the process-wide scheduler the package-level
// helpers use when no Task in ctx identifies a more specific one, kept
// as an explicit package variable rather than a goroutine-local, since
// Go has no implicit per-thread scheduler handle the way a
// single-threaded host runtime does.
var defaultRuntime = NewRuntime()

// WithRuntime scopes rt as the active runtime for the duration of fn,
// restoring the previous default on every exit path. Useful for tests
// that want an isolated Runtime instead of sharing the package
// default.
func WithRuntime(rt *Runtime, fn func()) {
	prev := defaultRuntime
	defaultRuntime = rt
	defer func() { defaultRuntime = prev }()
	fn()
}

func activeRuntime(ctx context.Context) *Runtime {
	if t, ok := TaskFromContext(ctx); ok {
		return t.rt
	}
	return defaultRuntime
}

// normalize accepts either a *Task (used as-is) or a Func, which it
// queues immediately.
func normalize(ctx context.Context, v any) *Task {
	switch x := v.(type) {
	case *Task:
		return x
	case Func:
		return Spawn(ctx, x)
	case func(context.Context, *Task) (any, error):
		return Spawn(ctx, Func(x))
	default:
		callerBug("all/race require a *Task or a Func, got %T", v)
		return nil
	}
}

func awaitFrom(ctx context.Context, target *Task) (any, error) {
	if t, ok := TaskFromContext(ctx); ok {
		return t.Await(target)
	}
	return activeRuntime(ctx).Await(target)
}

// Spawn queues fn on the active runtime and returns immediately with
// its Task.
func Spawn(ctx context.Context, fn Func) *Task {
	return activeRuntime(ctx).Queue(ctx, fn)
}

// Run spawns fn and awaits it.
func Run(ctx context.Context, fn Func) (any, error) {
	task := Spawn(ctx, fn)
	return awaitFrom(ctx, task)
}

// Sleep delegates to Delay on the calling task.
func Sleep(ctx context.Context, seconds float64) {
	MustTaskFromContext(ctx).Delay(seconds)
}

// All normalizes every value in items, drives until every one is
// done, and returns a map of resolved results keyed the same way.
// Every task is awaited before any error is surfaced, so that by the
// time All returns (successfully or not) nothing it started is still
// running.
func All[K comparable](ctx context.Context, items map[K]any) (map[K]any, error) {
	tasks := make(map[K]*Task, len(items))
	keys := make([]K, 0, len(items))
	for k, v := range items {
		keys = append(keys, k)
		tasks[k] = normalize(ctx, v)
	}

	results := make(map[K]any, len(items))
	errs := make(map[K]error, len(items))
	for _, k := range keys {
		val, err := awaitFrom(ctx, tasks[k])
		results[k] = val
		errs[k] = err
	}
	for _, k := range keys {
		if errs[k] != nil {
			return nil, errs[k]
		}
	}
	return results, nil
}

// Race normalizes every value in items (which must be non-empty),
// drives until at least one is done, cancels every other task, and
// returns the winner's awaited result.
func Race(ctx context.Context, items []any) (any, error) {
	if len(items) == 0 {
		callerBug("race requires a non-empty list of tasks or closures")
	}

	tasks := make([]*Task, len(items))
	for i, v := range items {
		tasks[i] = normalize(ctx, v)
	}

	winner, err := firstDone(ctx, tasks)
	if err != nil {
		return nil, err
	}

	for i, tk := range tasks {
		if i != winner {
			tk.Cancel()
		}
	}
	return tasks[winner].Result()
}

// firstDone drives (or suspends, when called from inside an
// execution) until at least one of tasks is done, returning its
// index.
func firstDone(ctx context.Context, tasks []*Task) (int, error) {
	if t, ok := TaskFromContext(ctx); ok {
		return t.awaitAny(tasks), nil
	}

	rt := activeRuntime(ctx)
	winner := -1
	err := rt.Drive(func() bool {
		for i, tk := range tasks {
			if tk.Done() {
				winner = i
				return true
			}
		}
		return false
	})
	return winner, err
}

// Offload runs fn on its own goroutine and suspends the calling task
// until it completes, resuming with its result from the scheduler's
// own goroutine. This is the bridge for blocking operations the
// runtime does not reactor-ize -- a TCP connect, a TLS handshake, or
// TLS record read/write.
func Offload(ctx context.Context, fn func() (any, error)) (any, error) {
	t := MustTaskFromContext(ctx)
	t.rt.inflight++
	go func() {
		val, err := fn()
		t.rt.offloaded <- offloadResult{task: t, sig: wakeSignal{val: val, err: err}}
	}()
	sig := t.suspend()
	return sig.val, sig.err
}

// Timeout races fn against a timer that throws a *TimeoutError after
// seconds elapse: equivalent to racing fn against a task that delays
// for seconds and then fails.
func Timeout(ctx context.Context, fn Func, seconds float64) (any, error) {
	timer := Func(func(_ context.Context, task *Task) (any, error) {
		task.Delay(seconds)
		return nil, &TimeoutError{Seconds: seconds}
	})
	return Race(ctx, []any{fn, timer})
}
