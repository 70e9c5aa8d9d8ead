//go:build unix

package loop

import (
	"time"

	"golang.org/x/sys/unix"
)

// pollBackend is the portable poll(2)-based fallback Backend (spec.md
// §4.3's third tier), used when no accelerated backend is available or
// when a caller forces it via WithBackend(BackendPoll). Unlike epoll/kqueue
// it rebuilds its pollfd slice from the interest map on every Poll call,
// trading O(n) setup per tick for no platform-specific kernel object.
type pollBackend struct {
	interest map[int][2]bool // fd -> (readable, writable)
}

func newPollBackend() (Backend, error) {
	return &pollBackend{interest: make(map[int][2]bool)}, nil
}

func (b *pollBackend) Add(fd int, readable, writable bool) error {
	if _, ok := b.interest[fd]; ok {
		return &ResourceBusyError{Resource: "fd"}
	}
	b.interest[fd] = [2]bool{readable, writable}
	return nil
}

func (b *pollBackend) Modify(fd int, readable, writable bool) error {
	if _, ok := b.interest[fd]; !ok {
		return &ResourceBusyError{Resource: "fd not registered"}
	}
	b.interest[fd] = [2]bool{readable, writable}
	return nil
}

func (b *pollBackend) Remove(fd int) error {
	delete(b.interest, fd)
	return nil
}

func (b *pollBackend) Poll(timeout time.Duration, ready func(fd int, readable, writable bool)) error {
	if len(b.interest) == 0 {
		if timeout > 0 {
			time.Sleep(timeout)
		}
		return nil
	}
	fds := make([]unix.PollFd, 0, len(b.interest))
	order := make([]int, 0, len(b.interest))
	for fd, rw := range b.interest {
		var events int16
		if rw[0] {
			events |= unix.POLLIN
		}
		if rw[1] {
			events |= unix.POLLOUT
		}
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: events})
		order = append(order, fd)
	}

	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	n, err := unix.Poll(fds, ms)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return &RuntimeFailure{Op: "poll", Cause: err}
	}
	if n == 0 {
		return nil
	}
	for i, pfd := range fds {
		if pfd.Revents == 0 {
			continue
		}
		readable := pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0
		writable := pfd.Revents&(unix.POLLOUT|unix.POLLERR) != 0
		ready(order[i], readable, writable)
	}
	return nil
}

func (b *pollBackend) Reinit() error {
	b.interest = make(map[int][2]bool)
	return nil
}

func (b *pollBackend) Close() error {
	b.interest = nil
	return nil
}
