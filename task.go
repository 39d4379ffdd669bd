package loom

import (
	"context"
	"fmt"
	"runtime/trace"
	"strings"

	"github.com/webriots/coro"
)

const (
	taskTraceTaskType   = "loom-task"
	taskTraceRegionType = "loom-region"
	taskTraceCategory   = "loom"
)

// Func is the body of a Task: a plain Go function receiving the
// task's context (carrying the Task itself, retrievable with
// TaskFromContext) and the Task handle, returning its result the
// ordinary Go way.
type Func func(ctx context.Context, task *Task) (any, error)

// taskOutcome is the final value a Task's coroutine produces when its
// Func returns, or when a CancelledError thrown into it is recovered
// at the top of the coroutine — so a cancelled task's completion looks
// exactly like a task that returned that error itself.
type taskOutcome struct {
	val any
	err error
}

// Task is the handle for one cooperative unit of work: it holds
// execution state, a result slot, an error slot, the child tasks
// spawned while it was executing, and the tasks currently awaiting its
// completion.
//
// At most one of the result slot and the error slot is set once the
// task is done, and neither is mutated again afterward. A Task must
// not be copied after its coroutine starts: its suspend/resume
// closures and its embedded noCopy guard are tied to one goroutine.
type Task struct {
	noCopy noCopy

	ctx      context.Context
	suspend  func() wakeSignal
	resume   func(wakeSignal) (taskOutcome, bool)
	cancelFn func()

	rt       *Runtime
	parent   *Task
	children []*Task
	awaiters    []*Task
	awaiting    *Task   // non-nil while suspended inside Await(awaiting)
	awaitingAny []*Task // non-nil while suspended inside awaitAny(awaitingAny)

	result    any
	resultSet bool
	err       error
	done      bool

	single *singleFlight
}

// newTask constructs a Task wrapping fn as a stackful coroutine: the
// body captures its result/error in its own return values instead of
// going through a separate resolve step.
func newTask(ctx context.Context, rt *Runtime, parent *Task, fn Func) *Task {
	task := &Task{rt: rt, parent: parent}

	if parent != nil {
		task.single = parent.single
		parent.children = append(parent.children, task)
	} else {
		task.single = newSingleFlight()
	}

	task.ctx = withTaskContext(ctx, task)

	resume, cancel := coro.New(
		func(yield func(taskOutcome) wakeSignal, suspend func() wakeSignal) (z taskOutcome) {
			region := trace.StartRegion(task.ctx, taskTraceRegionType)
			defer region.End()

			task.suspend = suspend

			defer func() {
				if p := recover(); p != nil {
					if ce, ok := p.(CancelledError); ok {
						z = taskOutcome{err: ce}
						return
					}
					panic(p)
				}
			}()

			val, err := fn(task.ctx, task)
			z = taskOutcome{val: val, err: err}
			return
		},
	)

	task.resume = resume
	task.cancelFn = cancel
	return task
}

// start kicks off the coroutine's first step: execution starts
// synchronously and Queue returns after its first suspension or
// immediate completion.
func (t *Task) start() { t.advance(wakeSignal{}) }

// advance resumes the coroutine with sig and, if it has terminated,
// finalizes the task's result/error and wakes its awaiters.
func (t *Task) advance(sig wakeSignal) {
	if t.done {
		return
	}
	t.Log("RESUME")
	outcome, ok := t.resume(sig)
	if ok {
		return
	}
	t.finish(outcome)
}

func (t *Task) finish(outcome taskOutcome) {
	t.done = true
	if outcome.err != nil {
		t.err = outcome.err
	} else {
		t.result = outcome.val
		t.resultSet = true
	}
	t.Log("DONE")

	if t.cancelFn != nil {
		t.cancelFn()
	}

	awaiters := t.awaiters
	t.awaiters = nil
	for _, a := range awaiters {
		a.awaiting = nil
		a.advance(wakeSignal{})
	}
}

// Done reports whether the task's execution has terminated, normally
// or by throw-in.
func (t *Task) Done() bool { return t.done }

// Result returns the task's resolved value and error. Calling it
// before the task is done is a caller bug.
func (t *Task) Result() (any, error) {
	if !t.done {
		callerBug("task not completed")
	}
	return t.result, t.err
}

// Await suspends the calling task t until target completes, the
// in-execution branch of the await contract. Awaiting oneself is a
// caller bug. Awaiters are resumed in registration order.
func (t *Task) Await(target *Task) (any, error) {
	if target == t {
		callerBug("circular await")
	}
	if target.done {
		return target.result, target.err
	}
	target.awaiters = append(target.awaiters, t)
	t.awaiting = target
	if sig := t.suspend(); sig.err != nil {
		panic(sig.err)
	}
	return target.result, target.err
}

// awaitAny suspends t until at least one of targets is done, then
// deregisters t from every other target's awaiters before returning
// the winning index. Used by the in-execution branch of Race: a
// single Task can only be parked on one suspend point at a time, so
// unlike Await it registers on every target up front and cleans up
// the ones that did not fire.
func (t *Task) awaitAny(targets []*Task) int {
	for i, target := range targets {
		if target.done {
			return i
		}
	}
	for _, target := range targets {
		target.awaiters = append(target.awaiters, t)
	}
	t.awaitingAny = targets
	sig := t.suspend()
	t.awaitingAny = nil
	if sig.err != nil {
		for _, target := range targets {
			removeAwaiter(target, t)
		}
		panic(sig.err)
	}
	for i, target := range targets {
		if !target.done {
			continue
		}
		for j, other := range targets {
			if j != i {
				removeAwaiter(other, t)
			}
		}
		return i
	}
	callerBug("awaitAny resumed with no target done")
	return -1
}

// Cancel is a no-op if the task is already done; otherwise it
// delegates to the runtime's cancel.
func (t *Task) Cancel() { t.rt.cancel(t) }

// Go spawns a child task sharing t's context, the way Queue does for
// a freestanding task, recording t as the child's parent.
func (t *Task) Go(fn Func) *Task { return t.rt.queue(t.ctx, t, fn) }

// Do executes fn for key, deduplicating concurrent calls sharing the
// same key within t's task tree.
func (t *Task) Do(key any, fn func() (any, error)) (any, error, bool) {
	t.Logf("DO %v", key)
	return t.single.do(t, key, fn)
}

func (t *Task) context() context.Context { return t.ctx }

func (t *Task) parenttask() *Task {
	if t == nil {
		return nil
	}
	return t.parent
}

// Log emits a trace breadcrumb under the runtime/trace region for this
// task: loom depends on runtime/trace for logging rather than a
// third-party logging library.
func (t *Task) Log(msg string) {
	if trace.IsEnabled() {
		var sb strings.Builder
		taskpath(&sb, t)
		sb.WriteRune(' ')
		sb.WriteString(msg)
		trace.Log(t.ctx, taskTraceCategory, sb.String())
	}
}

func (t *Task) Logf(format string, args ...any) {
	if trace.IsEnabled() {
		var sb strings.Builder
		taskpath(&sb, t)
		sb.WriteRune(' ')
		fmt.Fprintf(&sb, format, args...)
		trace.Log(t.ctx, taskTraceCategory, sb.String())
	}
}

func taskpath(sb *strings.Builder, t *Task) {
	if t == nil {
		return
	}
	taskpath(sb, t.parenttask())
	fmt.Fprintf(sb, "%p|", t)
}
