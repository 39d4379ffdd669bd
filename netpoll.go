package loom

import "time"

// netPoller is the OS readiness primitive the scheduler's I/O phase
// calls: given the current read- and write-watcher maps and a timeout
// (negative meaning unbounded), it blocks until at least one stream is
// ready or the timeout elapses, and reports which streams are ready in
// each direction. ok is false when the primitive reported no readiness
// at all, whether from a zero-fd wait or the underlying poll call
// erroring; the caller simply returns and lets the next tick retry.
type netPoller interface {
	poll(read, write map[Stream]*Watcher, timeout time.Duration) (readyRead, readyWrite []Stream, ok bool)
}
