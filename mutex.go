package loom

// Mutex grants mutual exclusion to tasks: only one task holds the
// lock at a time, and a task that calls Lock while it is held suspends
// until it is released.
type Mutex struct {
	noCopy noCopy
	held   *Task
	sema   sema
}

// Lock acquires the mutex for t, suspending t if it is already held.
func (m *Mutex) Lock(t *Task) {
	if m.held == nil {
		m.held = t
		return
	}

	m.sema.acquire(t)
	m.held = t
}

// Unlock releases the mutex, resuming one waiting task if any are
// queued.
func (m *Mutex) Unlock() {
	m.held = nil
	if m.sema.w.Len() > 0 {
		m.sema.release()
	}
}

// WaitCount returns the number of tasks currently queued on the
// mutex.
func (m *Mutex) WaitCount() int {
	return m.sema.w.Len()
}
