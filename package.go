// Package loom provides a single-threaded cooperative concurrency
// runtime: a scheduler that multiplexes user-defined tasks over
// byte-oriented streams and wall-clock timers, with structured
// parent/child task relationships and best-effort cancellation.
//
// Key components:
//
//   - Task: the handle for one cooperative unit of work. Tasks can
//     spawn child tasks, suspend on I/O or a timer, and be awaited by
//     other tasks.
//
//   - Runtime: owns the read-watcher map, the write-watcher map, and
//     the timer wheel. Exposes Queue, Await, and Drive; the suspending
//     primitives Delay, Write, ReadAll, and Cancel are methods on Task.
//
//   - Structured helpers: Spawn, Run, All, Race, and Timeout compose
//     tasks using only the runtime's primitives.
//
//   - Synchronization primitives: Mutex, WaitGroup, singleFlight (via
//     Task.Do), and ErrGroup (via Task.Group), for coordinating tasks
//     that share state.
//
//   - Offload: a bridge for blocking operations the scheduler does not
//     reactor-ize, such as a TCP connect or a TLS handshake.
//
// The httpclient package builds an HTTP request/response collaborator
// on top of Write/ReadAll; cmd/loomctl is a small demo CLI for both.
package loom
