//go:build unix

package loom

import (
	"golang.org/x/sys/unix"
)

// Write installs a write-watcher for stream carrying data and
// suspends the calling task until every byte has been delivered or a
// failure is thrown in. Empty data is a no-op.
func (t *Task) Write(stream Stream, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if _, exists := t.rt.write[stream]; exists {
		callerBug("stream %d already has a write watcher", stream)
	}
	if err := unix.SetNonblock(int(stream), true); err != nil {
		return &IOFailure{Kind: IOWriteFailed, Stream: stream, Err: err}
	}

	t.rt.write[stream] = &Watcher{stream: stream, task: t, buffer: data, count: 0}
	sig := t.suspend()
	return sig.err
}

// ReadAll installs a read-watcher for stream with a byte cap of
// maxBytes (which must be positive) and suspends the calling task
// until the stream reaches EOF, a failure is thrown in, or the
// accumulated buffer exceeds the cap.
func (t *Task) ReadAll(stream Stream, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		callerBug("read_all requires max_bytes > 0, got %d", maxBytes)
	}
	if _, exists := t.rt.read[stream]; exists {
		callerBug("stream %d already has a read watcher", stream)
	}
	if err := unix.SetNonblock(int(stream), true); err != nil {
		return nil, &IOFailure{Kind: IOReadFailed, Stream: stream, Err: err}
	}

	t.rt.read[stream] = &Watcher{stream: stream, task: t, buffer: nil, count: maxBytes}
	sig := t.suspend()
	if sig.err != nil {
		return nil, sig.err
	}
	return sig.data, nil
}

// removeWatchersFor removes and closes every watcher (both
// directions) belonging to task, for Cancel.
func (rt *Runtime) removeWatchersFor(task *Task) {
	for s, w := range rt.write {
		if w.task == task {
			delete(rt.write, s)
			closeStream(s)
		}
	}
	for s, w := range rt.read {
		if w.task == task {
			delete(rt.read, s)
			closeStream(s)
		}
	}
}

func closeStream(s Stream) {
	_ = unix.Close(int(s))
}

// processWriteReady advances one ready write-watcher by at most
// IOChunk bytes.
func (rt *Runtime) processWriteReady(s Stream) {
	w, ok := rt.write[s]
	if !ok {
		return
	}

	end := w.count + IOChunk
	if end > len(w.buffer) {
		end = len(w.buffer)
	}
	chunk := w.buffer[w.count:end]

	n, err := unix.Write(int(s), chunk)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return
		}
		delete(rt.write, s)
		closeStream(s)
		w.task.advance(wakeSignal{err: &IOFailure{Kind: IOWriteFailed, Stream: s, Err: err}})
		return
	}
	if n == 0 {
		return
	}

	newCount := w.count + n
	if newCount < len(w.buffer) {
		rt.write[s] = &Watcher{stream: s, task: w.task, buffer: w.buffer, count: newCount}
		return
	}

	delete(rt.write, s)
	if !w.task.done {
		w.task.advance(wakeSignal{})
	}
}

// processReadReady advances one ready read-watcher by at most IOChunk
// bytes.
func (rt *Runtime) processReadReady(s Stream) {
	w, ok := rt.read[s]
	if !ok {
		return
	}

	buf := make([]byte, IOChunk)
	n, err := unix.Read(int(s), buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return
		}
		delete(rt.read, s)
		closeStream(s)
		w.task.advance(wakeSignal{err: &IOFailure{Kind: IOReadFailed, Stream: s, Err: err}})
		return
	}

	if n == 0 {
		// EOF.
		delete(rt.read, s)
		closeStream(s)
		if !w.task.done {
			w.task.advance(wakeSignal{data: w.buffer})
		}
		return
	}

	grown := append(append([]byte(nil), w.buffer...), buf[:n]...)
	if len(grown) > w.count {
		delete(rt.read, s)
		closeStream(s)
		w.task.advance(wakeSignal{err: &IOFailure{Kind: IOTooLarge, Stream: s}})
		return
	}

	rt.read[s] = &Watcher{stream: s, task: w.task, buffer: grown, count: w.count}
}
