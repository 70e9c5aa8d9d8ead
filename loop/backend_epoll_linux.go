//go:build linux

package loop

import (
	"time"

	"golang.org/x/sys/unix"
)

func newNativeBackendPlatform() (Backend, error) {
	return newEpollBackend()
}

// epollBackend is the accelerated Linux Backend, grounded on the eventloop
// package's FastPoller: one epoll instance, a preallocated event buffer,
// and a map from fd to its registered interest set so Modify/Remove know
// which epoll flags to rewrite.
type epollBackend struct {
	epfd     int
	eventBuf []unix.EpollEvent
	interest map[int]uint32
}

func newEpollBackend() (Backend, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, &RuntimeFailure{Op: "epoll_create1", Cause: err}
	}
	return &epollBackend{
		epfd:     fd,
		eventBuf: make([]unix.EpollEvent, 128),
		interest: make(map[int]uint32),
	}, nil
}

func epollFlags(readable, writable bool) uint32 {
	var flags uint32
	if readable {
		flags |= unix.EPOLLIN
	}
	if writable {
		flags |= unix.EPOLLOUT
	}
	return flags
}

func (b *epollBackend) Add(fd int, readable, writable bool) error {
	if _, ok := b.interest[fd]; ok {
		return &ResourceBusyError{Resource: "fd"}
	}
	flags := epollFlags(readable, writable)
	ev := unix.EpollEvent{Events: flags, Fd: int32(fd)}
	if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return &RuntimeFailure{Op: "epoll_ctl(ADD)", Cause: err}
	}
	b.interest[fd] = flags
	return nil
}

func (b *epollBackend) Modify(fd int, readable, writable bool) error {
	flags := epollFlags(readable, writable)
	ev := unix.EpollEvent{Events: flags, Fd: int32(fd)}
	if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return &RuntimeFailure{Op: "epoll_ctl(MOD)", Cause: err}
	}
	b.interest[fd] = flags
	return nil
}

func (b *epollBackend) Remove(fd int) error {
	if _, ok := b.interest[fd]; !ok {
		return nil
	}
	delete(b.interest, fd)
	if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return &RuntimeFailure{Op: "epoll_ctl(DEL)", Cause: err}
	}
	return nil
}

func (b *epollBackend) Poll(timeout time.Duration, ready func(fd int, readable, writable bool)) error {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	n, err := unix.EpollWait(b.epfd, b.eventBuf, ms)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return &RuntimeFailure{Op: "epoll_wait", Cause: err}
	}
	for i := 0; i < n; i++ {
		ev := b.eventBuf[i]
		readable := ev.Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0
		writable := ev.Events&(unix.EPOLLOUT|unix.EPOLLERR) != 0
		ready(int(ev.Fd), readable, writable)
	}
	return nil
}

func (b *epollBackend) Reinit() error {
	if err := unix.Close(b.epfd); err != nil {
		return &RuntimeFailure{Op: "close", Cause: err}
	}
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return &RuntimeFailure{Op: "epoll_create1", Cause: err}
	}
	b.epfd = fd
	b.interest = make(map[int]uint32)
	return nil
}

func (b *epollBackend) Close() error {
	return unix.Close(b.epfd)
}
