// Package async implements the awaitable (promise) abstraction and the
// coroutine driver that adapts generator-style functions into awaitables,
// on top of the event loop in the sibling loop package.
//
// Since this is a single-threaded cooperative runtime, every awaitable is
// pinned to the [loop.Loop] it (or its ancestor in a Then chain) was
// created against: settle, cancel, and continuation dispatch must only
// ever be driven from that loop's own goroutine. Crossing loops, like
// crossing goroutines without the loop's own handoff machinery, is
// undefined, exactly as spec'd for watchers.
package async

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/silkloop/async/loop"
)

type awaitableState uint8

const (
	statePending awaitableState = iota
	stateFulfilled
	stateRejected
)

// core is the type-erased heart of an Awaitable[T]. Generics live only at
// the edges (Awaitable[T], Then, combinators); everything that needs to
// treat awaitables uniformly — the coroutine driver, the loop's deferred
// queue dispatch, combinators across mixed call sites — operates on *core.
type core struct {
	l *loop.Loop

	state awaitableState
	value any
	err   error

	conts []continuation

	onCancel func(reason error)
	parent   *core
	deps     int // number of live Then-children; see Cancel's doc comment.

	adopting *core // set while resolve(v) is waiting for v (itself an awaitable) to settle
}

type continuation struct {
	onFulfilled func(any) (any, error)
	onRejected  func(error) (any, error)
	child       *core
}

func newCore(l *loop.Loop) *core {
	if l == nil {
		l = loop.Default()
	}
	return &core{l: l, state: statePending}
}

func (c *core) isPending() bool   { return c.state == statePending }
func (c *core) isFulfilled() bool { return c.state == stateFulfilled }
func (c *core) isRejected() bool  { return c.state == stateRejected }

// resolve transitions c to fulfilled with v, unless v is itself an
// awaitable, in which case c adopts v's eventual state. Resolving an
// awaitable with itself is a LogicError rejection rather than an infinite
// adoption loop.
func (c *core) resolve(v any) {
	if c.state != statePending {
		return
	}
	if next, ok := v.(anyAwaitable); ok {
		nc := next.core()
		if nc == c {
			c.reject(newLogicError("awaitable resolved with itself"))
			return
		}
		c.adopting = nc
		nc.subscribeRaw(
			func(val any) { c.adopting = nil; c.resolve(val) },
			func(err error) { c.adopting = nil; c.reject(err) },
		)
		return
	}
	c.settle(stateFulfilled, v, nil)
}

func (c *core) reject(err error) {
	if c.state != statePending {
		return
	}
	if err == nil {
		err = newLogicError("reject called with nil error")
	}
	c.settle(stateRejected, nil, err)
}

func (c *core) settle(state awaitableState, value any, err error) {
	c.state = state
	c.value = value
	c.err = err
	conts := c.conts
	c.conts = nil
	for _, cont := range conts {
		cont := cont
		c.l.Queue(func() { c.dispatch(cont) })
	}
}

// subscribeRaw registers callbacks invoked (via the loop's deferred queue)
// exactly once when c settles, without creating a Then-child (no effect on
// deps/cancellation bookkeeping). Used internally for adoption and for
// Done.
func (c *core) subscribeRaw(onFulfilled func(any), onRejected func(error)) {
	cont := continuation{
		onFulfilled: func(v any) (any, error) { onFulfilled(v); return nil, nil },
		onRejected:  func(e error) (any, error) { onRejected(e); return nil, nil },
	}
	if c.state == statePending {
		c.conts = append(c.conts, cont)
		return
	}
	c.l.Queue(func() { c.dispatch(cont) })
}

// then appends a continuation and returns the child *core, wiring parent
// bookkeeping for cancellation propagation (spec.md §4.1, §5).
func (c *core) then(onFulfilled func(any) (any, error), onRejected func(error) (any, error)) *core {
	child := newCore(c.l)
	child.parent = c
	c.deps++

	cont := continuation{onFulfilled: onFulfilled, onRejected: onRejected, child: child}
	if c.state == statePending {
		c.conts = append(c.conts, cont)
	} else {
		c.l.Queue(func() { c.dispatch(cont) })
	}
	return child
}

func (c *core) dispatch(cont continuation) {
	child := cont.child

	var (
		result any
		err    error
		ran    bool
	)

	switch c.state {
	case stateFulfilled:
		if cont.onFulfilled != nil {
			if perr := guard(func() { result, err = cont.onFulfilled(c.value) }); perr != nil {
				err = perr
			}
			ran = true
		}
	case stateRejected:
		if cont.onRejected != nil {
			if perr := guard(func() { result, err = cont.onRejected(c.err) }); perr != nil {
				err = perr
			}
			ran = true
		}
	default:
		panic("async: internal error: dispatch on pending awaitable")
	}

	if child == nil {
		return // subscribeRaw / Done: no downstream to settle.
	}

	switch {
	case ran && err != nil:
		child.reject(err)
	case ran:
		child.resolve(result)
	case c.state == stateFulfilled:
		child.resolve(c.value)
	default:
		child.reject(c.err)
	}
}

// cancel implements spec.md §4.1/§5's reference-counted cancel: calling it
// on any awaitable releases one claim on it; once every claim (Then-child)
// has released, the on_cancel handler (if any) runs, a still-pending
// awaitable rejects with reason, and the release propagates to its own
// parent in turn. A leaf with no Then-children cancels immediately, which
// is why deps starts at zero rather than matching a caller-supplied count.
func (c *core) cancel(reason error) {
	if c.state != statePending {
		return
	}
	c.deps--
	if c.deps > 0 {
		return
	}
	if c.onCancel != nil {
		c.onCancel(reason)
	}
	if c.state == statePending {
		c.reject(&CancellationError{Reason: reason})
	}
	if c.parent != nil {
		c.parent.cancel(reason)
	}
}

// anyAwaitable is the type-erased view every Awaitable[T] satisfies, used
// by the coroutine driver and combinators to hold awaitables of differing
// T uniformly.
type anyAwaitable interface {
	core() *core
}

// Awaitable is a single-assignment value cell with composable
// continuations, matching spec.md §3's Awaitable(T).
type Awaitable[T any] struct {
	c *core
}

func (a Awaitable[T]) core() *core { return a.c }

func wrap[T any](c *core) *Awaitable[T] {
	return &Awaitable[T]{c: c}
}

// Executor is the function signature New accepts: it is invoked
// synchronously, and a panic inside it rejects the returned awaitable.
type Executor[T any] func(resolve func(T), reject func(error))

// New creates a pending Awaitable[T] and synchronously invokes executor
// with resolve/reject closures bound to it, on l (or the default loop if
// l is nil). A panic inside executor rejects the awaitable instead of
// propagating.
func New[T any](l *loop.Loop, onCancel func(reason error), executor Executor[T]) *Awaitable[T] {
	c := newCore(l)
	c.onCancel = onCancel
	a := wrap[T](c)

	resolve := func(v T) { c.resolve(v) }
	reject := func(err error) { c.reject(err) }

	if perr := guard(func() { executor(resolve, reject) }); perr != nil {
		c.reject(perr)
	}
	return a
}

// Resolved returns an already-fulfilled Awaitable[T] bound to the default
// loop.
func Resolved[T any](v T) *Awaitable[T] {
	c := newCore(nil)
	c.resolve(v)
	return wrap[T](c)
}

// Rejected returns an already-rejected Awaitable[T] bound to the default
// loop.
func Rejected[T any](err error) *Awaitable[T] {
	c := newCore(nil)
	c.reject(err)
	return wrap[T](c)
}

// Then appends a continuation and returns a new awaitable derived from
// its return value, per spec.md §4.1. Either callback may be nil, in
// which case the corresponding outcome passes through unchanged.
func Then[T, R any](a *Awaitable[T], onFulfilled func(T) (R, error), onRejected func(error) (R, error)) *Awaitable[R] {
	var wrapFulfilled func(any) (any, error)
	if onFulfilled != nil {
		wrapFulfilled = func(v any) (any, error) { return onFulfilled(v.(T)) }
	}
	var wrapRejected func(error) (any, error)
	if onRejected != nil {
		wrapRejected = func(e error) (any, error) { return onRejected(e) }
	}
	return wrap[R](a.c.then(wrapFulfilled, wrapRejected))
}

// Then is the method form of the package-level Then, for the common case
// where the continuation's result type matches T.
func (a *Awaitable[T]) Then(onFulfilled func(T) (T, error), onRejected func(error) (T, error)) *Awaitable[T] {
	return Then(a, onFulfilled, onRejected)
}

// Done is the terminal form of Then: it creates no child awaitable, so
// cancellation never propagates past it (spec.md §4.1, §5), and an
// uncaught rejection is reported to the owning loop's uncaught-error sink
// (spec.md §7) instead of being silently dropped.
func (a *Awaitable[T]) Done(onFulfilled func(T), onRejected func(error)) {
	c := a.c
	caught := onRejected != nil
	c.subscribeRaw(
		func(v any) {
			if onFulfilled != nil {
				onFulfilled(v.(T))
			}
		},
		func(err error) {
			if caught {
				onRejected(err)
				return
			}
			reportUncaught(c.l, err)
		},
	)
}

// Cancel releases one claim on a, per the reference-counting rule
// documented on core.cancel.
func (a *Awaitable[T]) Cancel(reason error) { a.c.cancel(reason) }

// IsPending, IsFulfilled and IsRejected are non-blocking state
// introspection, per spec.md §6.
func (a *Awaitable[T]) IsPending() bool   { return a.c.isPending() }
func (a *Awaitable[T]) IsFulfilled() bool { return a.c.isFulfilled() }
func (a *Awaitable[T]) IsRejected() bool  { return a.c.isRejected() }

// GetResult returns the fulfilled value, an error if a is pending, or the
// rejection reason if a is rejected, per spec.md §6.
func (a *Awaitable[T]) GetResult() (T, error) {
	var zero T
	switch a.c.state {
	case stateFulfilled:
		return a.c.value.(T), nil
	case stateRejected:
		return zero, a.c.err
	default:
		return zero, fmt.Errorf("async: GetResult called on pending awaitable")
	}
}

func reportUncaught(l *loop.Loop, reason error) {
	ue := &UncaughtError{Reason: reason}
	Logger().Error("unhandled rejection reaching a Done chain",
		zap.String("kind", string(classify(reason))))
	l.Queue(func() { l.ReportUncaught(ue) })
}
