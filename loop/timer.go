package loop

import "time"

// Timer is a single-shot or periodic watcher, per spec.md §4.4. A periodic
// timer re-arms from time.Now() at the moment it fires rather than from a
// fixed origin, so a callback that itself blocks the loop delays every
// subsequent firing by the same amount instead of causing a burst of
// catch-up callbacks (spec.md §4.3's REDESIGN-confirmed interval rule).
type Timer struct {
	watcher
	mgr      *timerManager
	entry    *timerEntry
	interval time.Duration
}

type timerEntry struct {
	deadline time.Time
	seq      uint64
	interval time.Duration
	cb       func()
	t        *Timer
	canceled bool
}

func (e *timerEntry) less(v *timerEntry) bool {
	if e.deadline.Equal(v.deadline) {
		return e.seq < v.seq
	}
	return e.deadline.Before(v.deadline)
}

type timerManager struct {
	l    *Loop
	pq   priorityqueue[*timerEntry]
	seq  uint64
	live int
}

func newTimerManager(l *Loop) *timerManager {
	return &timerManager{l: l}
}

func (m *timerManager) add(delay time.Duration, interval time.Duration, cb func()) *Timer {
	t := &Timer{watcher: newWatcher("timer"), mgr: m, interval: interval}
	e := &timerEntry{
		deadline: time.Now().Add(delay),
		seq:      m.seq,
		interval: interval,
		cb:       cb,
		t:        t,
	}
	m.seq++
	t.entry = e
	m.pq.Push(e)
	m.live++
	return t
}

// Cancel stops the timer. A periodic timer's current pending firing is
// also canceled.
func (t *Timer) Cancel() error {
	if err := t.checkFreed(); err != nil {
		return err
	}
	if t.entry != nil && !t.entry.canceled {
		t.entry.canceled = true
		t.mgr.live--
	}
	t.freed = true
	t.active = false
	return nil
}

// Ref/Unref toggle whether this timer alone keeps the owning loop's Run
// from returning (spec.md §4.4).
func (t *Timer) Ref()   { t.ref() }
func (t *Timer) Unref() { t.unref() }

func (m *timerManager) nextDeadline() (time.Time, bool) {
	for !m.pq.Empty() {
		e := m.pq.Peek()
		if e.canceled {
			m.pq.Pop()
			continue
		}
		return e.deadline, true
	}
	return time.Time{}, false
}

// hasReferenced reports whether any live, referenced timer remains.
func (m *timerManager) hasReferenced() bool {
	for _, e := range append(append([]*timerEntry{}, m.pq.head...), m.pq.tail...) {
		if !e.canceled && e.t.referenced {
			return true
		}
	}
	return false
}

// runDue pops and invokes every timer entry whose deadline is <= now,
// re-arming periodic ones from now() rather than from the original
// deadline.
func (m *timerManager) runDue(now time.Time) {
	for !m.pq.Empty() {
		e := m.pq.Peek()
		if e.canceled {
			m.pq.Pop()
			continue
		}
		if e.deadline.After(now) {
			return
		}
		m.pq.Pop()
		m.live--

		if perr := guardLoop(e.cb); perr != nil {
			m.l.reportRuntimeFailure("timer", perr)
		}

		if e.interval > 0 && !e.canceled {
			e.deadline = time.Now().Add(e.interval)
			e.seq = m.seq
			m.seq++
			m.pq.Push(e)
			m.live++
		}
	}
}
