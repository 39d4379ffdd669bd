package loom

import "github.com/gammazero/deque"

// sema is a counting semaphore for task synchronization: it manages a
// count of available resources and a queue of waiting tasks.
type sema struct {
	noCopy noCopy
	v      uint32
	w      deque.Deque[*Task]
}

// acquire attempts to acquire the semaphore for t. If no resources
// are available, t is suspended and queued.
func (s *sema) acquire(t *Task) {
	if s.v > 0 {
		s.v--
		return
	}

	s.w.PushBack(t)
	t.suspend()
}

// release releases the semaphore. If a task is waiting, it is resumed
// instead of the count being incremented.
func (s *sema) release() {
	if s.w.Len() == 0 {
		s.v++
		return
	}

	task := s.w.PopFront()
	task.advance(wakeSignal{})
}
