package loom

import (
	"context"
	"runtime/trace"
	"time"
)

// IOChunk is the fixed per-tick-per-watcher byte budget: the maximum
// progress any single read- or write-watcher makes in one tick.
const IOChunk = 8192

// Runtime is the scheduler: it owns the read-watcher map, the
// write-watcher map, and the timer wheel, and exposes Queue, Await,
// and Drive; cancellation goes through Task.Cancel. All of its state is mutated only from the single
// goroutine that calls Drive.
type Runtime struct {
	noCopy noCopy

	read  map[Stream]*Watcher
	write map[Stream]*Watcher

	timers   timerHeap
	timerSeq uint64

	poller netPoller
	now    func() time.Time

	offloaded chan offloadResult
	inflight  int
}

// offloadResult is the completion envelope an Offload goroutine hands
// back to the owning tick, so the resume happens on the scheduler's
// own goroutine rather than racing it.
type offloadResult struct {
	task *Task
	sig  wakeSignal
}

// NewRuntime constructs an empty Runtime.
func NewRuntime() *Runtime {
	return &Runtime{
		read:      make(map[Stream]*Watcher),
		write:     make(map[Stream]*Watcher),
		poller:    newNetPoller(),
		now:       time.Now,
		offloaded: make(chan offloadResult, 64),
	}
}

func (rt *Runtime) clock() time.Time {
	if rt.now != nil {
		return rt.now()
	}
	return time.Now()
}

// Queue constructs a Task running fn, starts it synchronously, and
// returns it after its first suspension or immediate completion.
// Calling it from inside another execution records the new Task as
// that execution's child.
func (rt *Runtime) Queue(ctx context.Context, fn Func) *Task {
	parent, _ := TaskFromContext(ctx)
	return rt.queue(ctx, parent, fn)
}

func (rt *Runtime) queue(ctx context.Context, parent *Task, fn Func) *Task {
	task := newTask(ctx, rt, parent, fn)
	task.Log("QUEUE")
	task.start()
	return task
}

// Await is the root-level await: from outside any execution, drive
// the scheduler until target is done, then return its result or
// error.
func (rt *Runtime) Await(target *Task) (any, error) {
	if err := rt.Drive(func() bool { return target.done }); err != nil {
		return nil, err
	}
	return target.Result()
}

// Drive loops: while predicate is false, it checks that at least one
// of the read map, the write map, or the timer heap is non-empty, or
// that an Offload call is still pending; if none of these holds it
// returns ErrDeadlock, otherwise it runs one tick. Drive is the only function in the runtime that blocks the
// calling goroutine.
func (rt *Runtime) Drive(predicate func() bool) error {
	for !predicate() {
		if len(rt.read) == 0 && len(rt.write) == 0 && rt.timers.Len() == 0 && rt.inflight == 0 {
			return ErrDeadlock
		}
		rt.tick()
	}
	return nil
}

// tick runs one scheduler pass: Phase A resumes every timer whose
// deadline has passed; Phase B waits for I/O readiness (bounded by the
// earliest remaining timer, if any) and advances ready watchers by up
// to IOChunk bytes each. A third, supplemental phase drains completed
// Offload calls, resuming their tasks from this goroutine rather than
// from whatever goroutine the blocking work actually ran on.
func (rt *Runtime) tick() {
	trace.Log(context.Background(), taskTraceCategory, "TICK")

	now := rt.clock()
	nextAt, hasNext := rt.tickTimers(now)
	rt.drainOffloads()

	if len(rt.read) == 0 && len(rt.write) == 0 {
		if rt.inflight > 0 {
			rt.waitOffloadOrTimer(nextAt, hasNext)
			return
		}
		if hasNext {
			sleepUntil(rt, nextAt)
		}
		return
	}
	rt.tickIO(nextAt, hasNext)
}

// drainOffloads resumes every Offload completion already waiting,
// without blocking.
func (rt *Runtime) drainOffloads() {
	for {
		select {
		case r := <-rt.offloaded:
			rt.inflight--
			r.task.advance(r.sig)
		default:
			return
		}
	}
}

// waitOffloadOrTimer blocks for the next Offload completion or the
// earliest timer deadline, whichever comes first, used when no
// watcher is pending but an Offload call or a timer is.
func (rt *Runtime) waitOffloadOrTimer(nextAt time.Time, hasNext bool) {
	if !hasNext {
		r := <-rt.offloaded
		rt.inflight--
		r.task.advance(r.sig)
		return
	}

	d := nextAt.Sub(rt.clock())
	if d < 0 {
		d = 0
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case r := <-rt.offloaded:
		rt.inflight--
		r.task.advance(r.sig)
	case <-timer.C:
	}
}

func (rt *Runtime) tickIO(nextAt time.Time, hasNext bool) {
	if len(rt.read) == 0 && len(rt.write) == 0 {
		if hasNext {
			sleepUntil(rt, nextAt)
		}
		return
	}

	var timeout time.Duration
	if hasNext {
		timeout = nextAt.Sub(rt.clock())
		if timeout < 0 {
			timeout = 0
		}
	} else {
		timeout = -1 // unbounded
	}

	readyRead, readyWrite, ok := rt.poller.poll(rt.read, rt.write, timeout)
	if !ok {
		return
	}

	for _, s := range readyWrite {
		rt.processWriteReady(s)
	}
	for _, s := range readyRead {
		rt.processReadReady(s)
	}
}

func sleepUntil(rt *Runtime, at time.Time) {
	d := at.Sub(rt.clock())
	if d > 0 {
		time.Sleep(d)
	}
}

// cancel implements the cancel contract: children are cancelled
// before the target's own watchers and timers are torn down, teardown
// of maps is synchronous, and a throw-in failure to an already-
// terminated or unresponsive target is swallowed.
func (rt *Runtime) cancel(t *Task) {
	if t.done {
		return
	}

	for _, c := range t.children {
		rt.cancel(c)
	}

	rt.removeWatchersFor(t)
	rt.removeTimersFor(t)

	if t.awaiting != nil {
		removeAwaiter(t.awaiting, t)
		t.awaiting = nil
	}
	for _, target := range t.awaitingAny {
		removeAwaiter(target, t)
	}
	t.awaitingAny = nil

	if !t.done {
		func() {
			defer func() { _ = recover() }()
			t.advance(wakeSignal{err: CancelledError{}})
		}()
	}
}

func removeAwaiter(target, awaiter *Task) {
	kept := target.awaiters[:0]
	for _, a := range target.awaiters {
		if a != awaiter {
			kept = append(kept, a)
		}
	}
	target.awaiters = kept
}
