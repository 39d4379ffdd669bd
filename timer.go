package loom

import (
	"container/heap"
	"time"
)

// timerEntry pairs a deadline with the suspended task waiting on it.
// It is a pointer only so container/heap can reorder entries cheaply;
// callers never see a timerEntry mutate once it is on the heap except
// for the cancelled tombstone flag, a flag on an otherwise-dead value
// rather than a rewrite of its deadline or task.
type timerEntry struct {
	deadline  time.Time
	task      *Task
	seq       uint64
	cancelled bool
}

// timerHeap is a min-heap over deadline, broken by insertion sequence.
// Timers are unordered as an external contract: no ordering is
// promised to callers, and timers whose deadlines have all passed may
// fire in any relative order. Internally a heap tracks the minimum
// deadline so Phase A of tick doesn't have to scan every pending timer
// to find the next one.
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	entry, ok := x.(*timerEntry)
	if !ok || entry == nil {
		return
	}
	*h = append(*h, entry)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	if n == 0 {
		return (*timerEntry)(nil)
	}
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// scheduleTimer appends a new Timer with deadline now+delay for task.
func (rt *Runtime) scheduleTimer(deadline time.Time, task *Task) *timerEntry {
	rt.timerSeq++
	entry := &timerEntry{deadline: deadline, task: task, seq: rt.timerSeq}
	heap.Push(&rt.timers, entry)
	return entry
}

func (rt *Runtime) cancelTimer(entry *timerEntry) {
	if entry == nil {
		return
	}
	entry.cancelled = true
}

// removeTimersFor tombstones every pending timer belonging to task,
// as Cancel requires.
func (rt *Runtime) removeTimersFor(task *Task) {
	for _, entry := range rt.timers {
		if entry != nil && entry.task == task {
			entry.cancelled = true
		}
	}
}

// tickTimers implements tick's Phase A: every timer whose deadline has
// passed is popped and, if its task is not done, resumed with no
// value. The earliest still-future deadline is returned so Phase B can
// derive its poll timeout.
func (rt *Runtime) tickTimers(now time.Time) (nextAt time.Time, hasNext bool) {
	for rt.timers.Len() > 0 {
		top := rt.timers[0]
		if top.cancelled {
			heap.Pop(&rt.timers)
			continue
		}
		if top.deadline.After(now) {
			return top.deadline, true
		}
		heap.Pop(&rt.timers)
		if !top.task.done {
			top.task.advance(wakeSignal{})
		}
	}
	return time.Time{}, false
}

// Delay suspends the calling task for at least seconds (clamped to
// >= 0). A zero delay is the canonical "yield to next tick".
func (t *Task) Delay(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	deadline := t.rt.clock().Add(time.Duration(seconds * float64(time.Second)))
	t.rt.scheduleTimer(deadline, t)
	if sig := t.suspend(); sig.err != nil {
		panic(sig.err)
	}
}

