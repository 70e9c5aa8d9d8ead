package async

import (
	"time"

	"github.com/silkloop/async/loop"
)

// Delay returns an awaitable that, once a fulfils, schedules a timer and
// resolves with the same value after d has elapsed. Rejection forwards
// immediately, without waiting out d (spec.md §4.1). Cancelling the result
// cancels the pending timer, if one has been armed, and (via the usual
// parent-chain propagation) releases a claim on a.
func Delay[T any](a *Awaitable[T], d time.Duration) *Awaitable[T] {
	c := newCore(a.c.l)
	out := wrap[T](c)
	c.parent = a.c
	a.c.deps++

	var timer *loop.Timer

	a.c.subscribeRaw(
		func(v any) {
			timer = c.l.Timer(d, func() { c.resolve(v) })
		},
		func(err error) { c.reject(err) },
	)

	c.onCancel = func(reason error) {
		if timer != nil {
			timer.Cancel()
		}
	}
	return out
}

// Timeout returns an awaitable that mirrors a's outcome if a settles
// within d, or rejects with a TimeoutError (and cancels a) once d elapses
// first.
func Timeout[T any](a *Awaitable[T], d time.Duration) *Awaitable[T] {
	c := newCore(a.c.l)
	out := wrap[T](c)
	c.parent = a.c
	a.c.deps++

	timer := c.l.Timer(d, func() {
		c.reject(&TimeoutError{})
		a.Cancel(&TimeoutError{})
	})

	a.c.subscribeRaw(
		func(v any) { timer.Cancel(); c.resolve(v) },
		func(err error) { timer.Cancel(); c.reject(err) },
	)

	c.onCancel = func(reason error) {
		timer.Cancel()
	}
	return out
}
