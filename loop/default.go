package loop

import (
	"sync"
	"time"
)

var (
	defaultLoop     *Loop
	defaultLoopOnce sync.Once
)

// Default returns the process-wide default Loop, constructing it lazily
// with DefaultConfig on first use. Awaitables and coroutines created
// without an explicit *Loop bind to this one, matching spec.md §4.5's
// zero-config default loop.
func Default() *Loop {
	defaultLoopOnce.Do(func() {
		l, err := New()
		if err != nil {
			// DefaultConfig's BackendAuto always has a working
			// fallback (the portable poll backend) on every
			// supported Unix target, so this should be
			// unreachable; surviving it with a poll-forced loop
			// is safer than leaving defaultLoop nil.
			l, err = New(WithBackend(BackendPoll))
			if err != nil {
				panic(err)
			}
		}
		defaultLoop = l
	})
	return defaultLoop
}

// With temporarily swaps the process-wide default loop for l (or, if l is
// nil, a freshly constructed one, per spec.md §4.5's `alt?` allowance),
// running fn, then restoring the previous default. Intended for tests that
// need an isolated Loop without threading it through every call.
//
// With calls Default() before swapping, so the process-wide default is
// constructed (if it was not already) and is what gets restored after fn;
// calls to Default() inside fn return l, and the default is never left nil.
func With(l *Loop, fn func()) {
	if l == nil {
		fresh, err := New()
		if err != nil {
			fresh, err = New(WithBackend(BackendPoll))
			if err != nil {
				panic(err)
			}
		}
		l = fresh
	}
	prev := Default()
	defaultLoop = l
	defer func() { defaultLoop = prev }()
	fn()
}

// The following are convenience wrappers over Default(), for application
// code that does not need an explicit *Loop.

func Queue(fn func()) error { return Default().Queue(fn) }

// SetMaxQueueDepth installs a new per-tick deferred-queue drain budget on
// the default loop and returns the previous one (spec.md §6's
// maxQueueDepth(n) accessor). 0 means unlimited.
func SetMaxQueueDepth(n int) int { return Default().SetMaxQueueDepth(n) }

func Periodic(interval time.Duration, cb func()) *Timer { return Default().Periodic(interval, cb) }

func Tick(block bool) bool { return Default().Tick(block) }

func Run() { Default().Run() }

func Stop() { Default().Stop() }

func IsRunning() bool { return Default().IsRunning() }

func IsEmpty() bool { return Default().IsEmpty() }

func Clear() { Default().Clear() }

func ReInit() error { return Default().ReInit() }

func SignalHandlingEnabled() bool { return Default().SignalHandlingEnabled() }
