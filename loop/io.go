package loop

import "time"

// IO is a one-shot watcher on a file descriptor's readability/writability,
// per spec.md §4.4. The loop never reads or writes fd itself — readable and
// writable on the callback only report that the fd would not block,
// matching the level-triggered epoll/kqueue/poll(2) semantics underneath.
//
// An armed IO watcher fires its callback exactly once, either when the fd
// becomes ready or when its per-arming timeout elapses first, whichever
// comes first, and then disarms itself (spec.md §4.3-step-4, §5). Re-arming
// requires another call to Loop.IO.
type IO struct {
	watcher
	mgr      *ioManager
	fd       int
	readable bool
	writable bool
	timeout  time.Duration
	timer    *Timer
	cb       func(io *IO, readable, writable, timedOut bool)
}

type ioManager struct {
	l       *Loop
	backend Backend
	byFD    map[int]*IO
}

func newIOManager(l *Loop, backend Backend) *ioManager {
	return &ioManager{l: l, backend: backend, byFD: make(map[int]*IO)}
}

func (m *ioManager) add(fd int, readable, writable bool, timeout time.Duration, cb func(io *IO, readable, writable, timedOut bool)) (*IO, error) {
	if _, exists := m.byFD[fd]; exists {
		return nil, &ResourceBusyError{Resource: "fd already watched"}
	}
	if err := m.backend.Add(fd, readable, writable); err != nil {
		return nil, err
	}
	io := &IO{watcher: newWatcher("io"), mgr: m, fd: fd, readable: readable, writable: writable, timeout: timeout, cb: cb}
	m.byFD[fd] = io
	if timeout > 0 {
		io.timer = m.l.Timer(timeout, func() { io.fire(false, false, true) })
		io.timer.Unref()
	}
	return io, nil
}

// fire invokes the watcher's callback at most once and disarms it
// afterward (one-shot arming). If the firing is due to readiness rather
// than the timeout itself, it also cancels the now-unneeded timeout timer.
func (io *IO) fire(readable, writable, timedOut bool) {
	if !io.active {
		return
	}
	io.active = false
	if io.timer != nil && !timedOut {
		io.timer.Cancel()
	}
	delete(io.mgr.byFD, io.fd)
	if err := io.mgr.backend.Remove(io.fd); err != nil {
		io.mgr.l.reportRuntimeFailure("io_remove", err)
	}
	if perr := guardLoop(func() { io.cb(io, readable, writable, timedOut) }); perr != nil {
		io.mgr.l.reportRuntimeFailure("io", perr)
	}
}

// Modify changes the interest set for an armed IO watcher.
func (io *IO) Modify(readable, writable bool) error {
	if err := io.checkFreed(); err != nil {
		return err
	}
	if err := io.mgr.backend.Modify(io.fd, readable, writable); err != nil {
		return err
	}
	io.readable, io.writable = readable, writable
	return nil
}

// Cancel disarms the watcher and removes fd from the backend without
// invoking the callback.
func (io *IO) Cancel() error {
	if io.freed {
		return nil
	}
	io.freed = true
	if io.active {
		io.active = false
		delete(io.mgr.byFD, io.fd)
		if io.timer != nil {
			io.timer.Cancel()
		}
		return io.mgr.backend.Remove(io.fd)
	}
	return nil
}

func (io *IO) Ref()   { io.ref() }
func (io *IO) Unref() { io.unref() }

func (m *ioManager) hasReferenced() bool {
	for _, io := range m.byFD {
		if io.active && io.referenced {
			return true
		}
	}
	return false
}

func (m *ioManager) empty() bool { return len(m.byFD) == 0 }

func (m *ioManager) poll(timeout time.Duration) {
	err := m.backend.Poll(timeout, func(fd int, readable, writable bool) {
		io, ok := m.byFD[fd]
		if !ok || !io.active {
			return
		}
		io.fire(readable, writable, false)
	})
	if err != nil {
		m.l.reportRuntimeFailure("io_poll", err)
	}
}

// reinit re-registers every still-live watcher with the backend after
// Backend.Reinit has recreated its underlying kernel object. The backend
// itself has no visibility into which fds the manager still holds, so
// preserving watchers across a reInit (spec.md §6) is the manager's job.
func (m *ioManager) reinit() error {
	for fd, io := range m.byFD {
		if !io.active {
			continue
		}
		if err := m.backend.Add(fd, io.readable, io.writable); err != nil {
			return err
		}
	}
	return nil
}
