package loom

// WaitGroup waits for a collection of tasks to finish: tasks call
// Add(1) when they start and Done() when they finish, and any task
// can call Wait to suspend until the counter returns to zero.
type WaitGroup struct {
	noCopy noCopy
	v      int32
	w      uint32
	sema   sema
}

// Add adds delta to the counter. If the counter reaches zero while
// tasks are waiting, every waiter is resumed. Add panics if the
// counter goes negative, or if it is raised from zero concurrently
// with a pending Wait (the same caller-bug discipline as the rest of
// the runtime's misuse checks).
func (wg *WaitGroup) Add(delta int) {
	wg.v += int32(delta)

	if wg.v < 0 {
		callerBug("negative WaitGroup counter")
	}
	if wg.w != 0 && delta > 0 && wg.v == int32(delta) {
		callerBug("WaitGroup misuse: Add called concurrently with Wait")
	}

	if wg.v > 0 || wg.w == 0 {
		return
	}

	for ; wg.w != 0; wg.w-- {
		wg.sema.release()
	}
}

// Done decrements the counter by one, equivalent to Add(-1).
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Wait suspends t until the counter is zero. It returns immediately if
// the counter is already zero.
func (wg *WaitGroup) Wait(t *Task) {
	if wg.v == 0 {
		return
	}

	wg.w++
	wg.sema.acquire(t)
}
