// Package loop implements the watcher-based event loop reactor: a single
// goroutine's cooperative scheduler over deferred callbacks, timers,
// immediates, I/O readiness, and signals, matching spec.md §4.3-§4.5.
package loop

import (
	"os"
	"time"
)

// Option configures a Loop at construction.
type Option func(*options)

type options struct {
	cfg     Config
	backend BackendKind
}

// WithConfig supplies a Config other than DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithBackend forces a specific Backend, overriding Config.Backend. Used
// for tests and for the explicit portability escape hatch described in
// the backend selection rules.
func WithBackend(kind BackendKind) Option {
	return func(o *options) { o.cfg.Backend = kind }
}

// Loop is a single-threaded event loop: all of its methods, and every
// watcher callback it drives, must run on the same goroutine — the one
// that calls Run or Tick. It is not safe for concurrent use from multiple
// goroutines except via Queue, which is the one thread-safe entry point
// a foreign goroutine may use to hand work to the loop.
type Loop struct {
	id      watcherID
	backend Backend
	cfg     Config

	deferred   *deferredQueue
	io         *ioManager
	timers     *timerManager
	immediates *immediateManager
	signals    *signalManager

	running bool
	stopped bool

	uncaughtSink func(error)
}

// New constructs a Loop. With no options it behaves exactly as spec.md's
// zero-config assumptions describe: auto backend selection, unbounded
// deferred queue, signal handling enabled.
func New(opts ...Option) (*Loop, error) {
	o := options{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	backend, err := newBackend(o.cfg.Backend)
	if err != nil {
		return nil, err
	}

	l := &Loop{
		id:      newWatcherID(),
		backend: backend,
		cfg:     o.cfg,
	}
	l.deferred = newDeferredQueue(o.cfg.MaxQueueDepth)
	l.io = newIOManager(l, backend)
	l.timers = newTimerManager(l)
	l.immediates = newImmediateManager(l)
	l.signals = newSignalManager(l, o.cfg.SignalHandlingEnabled)
	l.uncaughtSink = l.defaultUncaughtSink

	Logger().Debug("loop constructed", loopField(l), backendField(o.cfg.Backend))
	return l, nil
}

func (l *Loop) defaultUncaughtSink(err error) {
	Logger().Error("uncaught rejection", loopField(l))
	panic(err)
}

// SetUncaughtHandler installs a sink for UncaughtError values reported by
// Done chains with no error handler (spec.md §7). The default sink logs err
// and panics with it; since Tick runs deferred callbacks under its panic
// guard, that panic is recovered and logged as a failed callback, and the
// loop is not terminated.
func (l *Loop) SetUncaughtHandler(sink func(error)) {
	if sink == nil {
		sink = l.defaultUncaughtSink
	}
	l.uncaughtSink = sink
}

// ReportUncaught delivers err to the installed uncaught-error sink. The
// async package calls this rather than handling the sink itself so that
// loop, not async, owns the process-visible side effect (and so async
// need not import os/signal's panic-on-uncaught policy directly).
func (l *Loop) ReportUncaught(err error) {
	l.uncaughtSink(err)
}

func (l *Loop) reportRuntimeFailure(op string, cause error) {
	Logger().Warn("watcher callback failed",
		loopField(l), opField(op), errField(cause))
}

// Queue appends fn to the deferred queue, to run at the start of the next
// tick (or later in the current tick's drain, if called from within a
// callback already running on the loop's own goroutine). This is the
// mechanism Awaitable continuation dispatch uses, and the one
// thread-safe-from-anywhere entry point into the loop (spec.md §5).
func (l *Loop) Queue(fn func()) error {
	return l.deferred.push(fn)
}

// SetMaxQueueDepth installs a new per-tick deferred-queue drain budget and
// returns the previous one, backing the loop facade's maxQueueDepth(n)
// accessor (spec.md §6). 0 means unlimited.
func (l *Loop) SetMaxQueueDepth(n int) int {
	return l.deferred.setMax(n)
}

// Timer arms a one-shot timer that fires cb after delay.
func (l *Loop) Timer(delay time.Duration, cb func()) *Timer {
	return l.timers.add(delay, 0, cb)
}

// Periodic arms a repeating timer that fires cb every interval, re-armed
// from the moment it fires rather than from a fixed origin.
func (l *Loop) Periodic(interval time.Duration, cb func()) *Timer {
	return l.timers.add(interval, interval, cb)
}

// Immediate arms a watcher that fires cb once, after this tick's timers
// and I/O poll but before the loop blocks again.
func (l *Loop) Immediate(cb func()) *Immediate {
	return l.immediates.add(cb)
}

// IO arms a one-shot watcher on fd's readiness. If timeout is positive and
// no readiness event arrives first, cb fires with timedOut=true instead;
// either way the watcher disarms itself after exactly one callback
// invocation (spec.md §4.3-step-4, §5). Re-arming requires another IO call.
func (l *Loop) IO(fd int, readable, writable bool, timeout time.Duration, cb func(io *IO, readable, writable, timedOut bool)) (*IO, error) {
	return l.io.add(fd, readable, writable, timeout, cb)
}

// Signal arms a watcher that fires cb whenever the process receives sig.
func (l *Loop) Signal(sig os.Signal, cb func(os.Signal)) (*Signal, error) {
	return l.signals.add(sig, cb)
}

// SignalHandlingEnabled reports whether this loop traps OS signals, per
// its Config.
func (l *Loop) SignalHandlingEnabled() bool { return l.cfg.SignalHandlingEnabled }

// IsRunning reports whether Run is currently blocked in its loop (true
// from the moment Run is called until it returns).
func (l *Loop) IsRunning() bool { return l.running }

// IsEmpty reports whether the loop holds no referenced watchers and no
// queued deferred work — the condition under which Run would return
// immediately.
func (l *Loop) IsEmpty() bool {
	return l.deferred.empty() &&
		!l.timers.hasReferenced() &&
		!l.immediates.hasReferenced() &&
		!l.io.hasReferenced() &&
		!l.signals.hasReferenced()
}

// Tick runs one iteration of the phase order spec.md §4.3 assumes: drain
// the deferred queue, dispatch due timers, poll I/O (blocking for up to
// the next timer deadline when block is true and no work is otherwise
// pending), then run immediates queued during this tick. It returns
// whether any referenced work remains afterward.
func (l *Loop) Tick(block bool) bool {
	var budget *int
	if l.deferred.max > 0 {
		b := l.deferred.max
		budget = &b
	}

	l.runGuarded(func() { l.deferred.drain(l.runGuarded, budget) })

	now := time.Now()
	l.runGuarded(func() { l.timers.runDue(now) })

	timeout := time.Duration(0)
	if block && l.deferred.empty() && !l.immediates.hasReferenced() {
		if deadline, ok := l.timers.nextDeadline(); ok {
			if d := deadline.Sub(time.Now()); d > 0 {
				timeout = d
			}
		} else {
			timeout = -1 // no timers pending: block until I/O activity.
		}
	}
	if !l.io.empty() {
		l.runGuarded(func() { l.io.poll(timeout) })
	} else if timeout > 0 {
		time.Sleep(timeout)
	}

	l.runGuarded(func() { l.immediates.run() })
	l.runGuarded(func() { l.deferred.drain(l.runGuarded, budget) })

	return !l.IsEmpty()
}

func (l *Loop) runGuarded(fn func()) {
	if perr := guardLoop(fn); perr != nil {
		l.reportRuntimeFailure("tick", perr)
	}
}

// Run ticks the loop until no referenced watcher and no deferred work
// remains, per spec.md §4.5.
func (l *Loop) Run() {
	l.running = true
	l.stopped = false
	defer func() { l.running = false }()
	for !l.stopped && l.Tick(true) {
	}
}

// Stop requests Run return after the current tick.
func (l *Loop) Stop() {
	l.stopped = true
}

// Clear cancels every live watcher and drops all deferred work, without
// closing the backend (the loop remains usable afterward).
func (l *Loop) Clear() {
	l.deferred.items = nil
	for _, io := range l.io.byFD {
		io.Cancel()
	}
	for !l.timers.pq.Empty() {
		e := l.timers.pq.Pop()
		e.canceled = true
	}
	l.immediates.pending = nil
	for sig := range l.signals.bySig {
		for _, s := range append([]*Signal(nil), l.signals.bySig[sig]...) {
			s.Cancel()
		}
	}
}

// ReInit recreates the backend's underlying kernel object, for use after a
// fork (spec.md §6). Watchers already registered in the I/O manager survive
// the call: every still-live fd is re-added to the freshly created backend
// object. It must not be called while Run is active.
func (l *Loop) ReInit() error {
	if l.running {
		return &RunningError{Op: "ReInit"}
	}
	if err := l.backend.Reinit(); err != nil {
		return err
	}
	return l.io.reinit()
}

// Close releases the loop's backend and stops signal relaying. The loop
// is unusable afterward.
func (l *Loop) Close() error {
	l.signals.close()
	return l.backend.Close()
}
