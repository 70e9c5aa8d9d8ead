//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package loop

import (
	"time"

	"golang.org/x/sys/unix"
)

func newNativeBackendPlatform() (Backend, error) {
	return newKqueueBackend()
}

// kqueueBackend is the accelerated Darwin/BSD Backend, grounded on the
// eventloop package's Darwin fastPoller: one kqueue instance, a
// preallocated kevent buffer, and per-fd interest tracked so Modify can
// compute the add/delete delta kqueue requires.
type kqueueBackend struct {
	kq       int
	eventBuf []unix.Kevent_t
	interest map[int][2]bool // fd -> (readable, writable)
}

func newKqueueBackend() (Backend, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, &RuntimeFailure{Op: "kqueue", Cause: err}
	}
	unix.CloseOnExec(kq)
	return &kqueueBackend{
		kq:       kq,
		eventBuf: make([]unix.Kevent_t, 128),
		interest: make(map[int][2]bool),
	}, nil
}

func kevents(fd int, readable, writable bool, flags uint16) []unix.Kevent_t {
	var evs []unix.Kevent_t
	if readable {
		evs = append(evs, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if writable {
		evs = append(evs, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	return evs
}

func (b *kqueueBackend) Add(fd int, readable, writable bool) error {
	if _, ok := b.interest[fd]; ok {
		return &ResourceBusyError{Resource: "fd"}
	}
	evs := kevents(fd, readable, writable, unix.EV_ADD|unix.EV_ENABLE)
	if len(evs) > 0 {
		if _, err := unix.Kevent(b.kq, evs, nil, nil); err != nil {
			return &RuntimeFailure{Op: "kevent(ADD)", Cause: err}
		}
	}
	b.interest[fd] = [2]bool{readable, writable}
	return nil
}

func (b *kqueueBackend) Modify(fd int, readable, writable bool) error {
	old, ok := b.interest[fd]
	if !ok {
		return &ResourceBusyError{Resource: "fd not registered"}
	}
	if del := kevents(fd, old[0] && !readable, old[1] && !writable, unix.EV_DELETE); len(del) > 0 {
		unix.Kevent(b.kq, del, nil, nil)
	}
	if add := kevents(fd, readable && !old[0], writable && !old[1], unix.EV_ADD|unix.EV_ENABLE); len(add) > 0 {
		if _, err := unix.Kevent(b.kq, add, nil, nil); err != nil {
			return &RuntimeFailure{Op: "kevent(MOD)", Cause: err}
		}
	}
	b.interest[fd] = [2]bool{readable, writable}
	return nil
}

func (b *kqueueBackend) Remove(fd int) error {
	old, ok := b.interest[fd]
	if !ok {
		return nil
	}
	delete(b.interest, fd)
	if del := kevents(fd, old[0], old[1], unix.EV_DELETE); len(del) > 0 {
		unix.Kevent(b.kq, del, nil, nil)
	}
	return nil
}

func (b *kqueueBackend) Poll(timeout time.Duration, ready func(fd int, readable, writable bool)) error {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}
	n, err := unix.Kevent(b.kq, nil, b.eventBuf, ts)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return &RuntimeFailure{Op: "kevent", Cause: err}
	}
	for i := 0; i < n; i++ {
		ev := b.eventBuf[i]
		fd := int(ev.Ident)
		readable := ev.Filter == unix.EVFILT_READ
		writable := ev.Filter == unix.EVFILT_WRITE
		ready(fd, readable, writable)
	}
	return nil
}

func (b *kqueueBackend) Reinit() error {
	if err := unix.Close(b.kq); err != nil {
		return &RuntimeFailure{Op: "close", Cause: err}
	}
	kq, err := unix.Kqueue()
	if err != nil {
		return &RuntimeFailure{Op: "kqueue", Cause: err}
	}
	unix.CloseOnExec(kq)
	b.kq = kq
	b.interest = make(map[int][2]bool)
	return nil
}

func (b *kqueueBackend) Close() error {
	return unix.Close(b.kq)
}
