//go:build unix

package loom

import (
	"time"

	"fortio.org/safecast"
	"golang.org/x/sys/unix"
)

// unixPoller implements netPoller with unix.Poll over the runtime's
// direct read/write watcher maps.
type unixPoller struct{}

func newNetPoller() netPoller { return unixPoller{} }

func (unixPoller) poll(read, write map[Stream]*Watcher, timeout time.Duration) (readyRead, readyWrite []Stream, ok bool) {
	if len(read) == 0 && len(write) == 0 {
		return nil, nil, false
	}

	pfds := make([]unix.PollFd, 0, len(read)+len(write))
	order := make([]Stream, 0, len(read)+len(write))
	events := make(map[Stream]int16, len(read)+len(write))

	for s := range read {
		events[s] |= unix.POLLIN
	}
	for s := range write {
		events[s] |= unix.POLLOUT
	}
	for s, ev := range events {
		fd, err := safecast.Conv[int32](int(s))
		if err != nil {
			continue
		}
		pfds = append(pfds, unix.PollFd{Fd: fd, Events: ev})
		order = append(order, s)
	}
	if len(pfds) == 0 {
		return nil, nil, false
	}

	timeoutMs := -1
	if timeout >= 0 {
		timeoutMs = int(timeout / time.Millisecond)
		if timeoutMs < 0 {
			timeoutMs = 0
		}
	}

	var n int
	var err error
	for {
		n, err = unix.Poll(pfds, timeoutMs)
		if err == unix.EINTR {
			continue
		}
		break
	}
	if err != nil || n == 0 {
		return nil, nil, false
	}

	for i, pfd := range pfds {
		if pfd.Revents == 0 {
			continue
		}
		s := order[i]
		if _, isRead := read[s]; isRead && pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			readyRead = append(readyRead, s)
		}
		if _, isWrite := write[s]; isWrite && pfd.Revents&(unix.POLLOUT|unix.POLLHUP|unix.POLLERR) != 0 {
			readyWrite = append(readyWrite, s)
		}
	}
	return readyRead, readyWrite, len(readyRead) > 0 || len(readyWrite) > 0
}
