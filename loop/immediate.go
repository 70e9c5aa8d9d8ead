package loop

// Immediate is a watcher that fires once, after the current tick's timers
// and I/O poll but before the loop blocks again, per spec.md §4.4.
type Immediate struct {
	watcher
	mgr *immediateManager
	cb  func()
}

type immediateManager struct {
	l       *Loop
	pending []*Immediate
}

func newImmediateManager(l *Loop) *immediateManager {
	return &immediateManager{l: l}
}

func (m *immediateManager) add(cb func()) *Immediate {
	im := &Immediate{watcher: newWatcher("immediate"), mgr: m, cb: cb}
	m.pending = append(m.pending, im)
	return im
}

func (im *Immediate) Cancel() error {
	if err := im.checkFreed(); err != nil {
		return err
	}
	im.freed = true
	im.active = false
	return nil
}

func (im *Immediate) Ref()   { im.ref() }
func (im *Immediate) Unref() { im.unref() }

func (m *immediateManager) hasReferenced() bool {
	for _, im := range m.pending {
		if im.active && im.referenced {
			return true
		}
	}
	return false
}

// run fires every immediate pending at the start of this call, including
// ones queued as a side effect of running earlier ones in the same tick —
// mirroring the deferred queue's drain semantics but as its own phase,
// per spec.md §4.3.
func (m *immediateManager) run() {
	for len(m.pending) > 0 {
		batch := m.pending
		m.pending = nil
		for _, im := range batch {
			if !im.active {
				continue
			}
			im.active = false
			im.freed = true
			if perr := guardLoop(im.cb); perr != nil {
				m.l.reportRuntimeFailure("immediate", perr)
			}
		}
	}
}
