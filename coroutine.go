package async

import "github.com/silkloop/async/loop"

// Go starts a coroutine: it runs body on its own goroutine via a
// generator, and returns an awaitable that settles with body's eventual
// return value or error. body suspends by calling the yield callback with
// an awaitable and resumes once that awaitable settles, matching spec.md
// §4.2's generator-driven coroutine.
//
// Cancelling the returned awaitable injects a CancellationError at body's
// current suspension point (as if the awaited awaitable had rejected with
// it), giving body's own defers a chance to run before its final return
// settles the coroutine.
func Go[T any](body func(y Yield) (T, error)) *Awaitable[T] {
	return GoOn[T](nil, body)
}

// GoOn is Go, pinned to an explicit loop rather than the default one.
func GoOn[T any](l *loop.Loop, body func(y Yield) (T, error)) *Awaitable[T] {
	c := newCore(l)
	a := wrap[T](c)

	g := newGenerator(func(y Yield) (any, error) {
		return body(y)
	})

	c.onCancel = func(reason error) {
		driveCoroutine(c, g, resumeMsg{err: &CancellationError{Reason: reason}})
	}

	settleFromGenerator(c, g)
	return a
}

// settleFromGenerator resolves/rejects c if g has finished, or subscribes
// to g's currently pending awaitable so the coroutine resumes when it
// settles.
func settleFromGenerator(c *core, g *generator) {
	if !g.valid() {
		if g.err != nil {
			c.reject(g.err)
		} else {
			c.resolve(g.result)
		}
		return
	}

	pending := g.pending.core()
	pending.subscribeRaw(
		func(v any) { driveCoroutine(c, g, resumeMsg{value: v}) },
		func(err error) { driveCoroutine(c, g, resumeMsg{err: err}) },
	)
}

func driveCoroutine(c *core, g *generator, msg resumeMsg) {
	if !g.valid() {
		return // already settled (e.g. a second cancel after completion).
	}
	if msg.err != nil {
		g.throw(msg.err)
	} else {
		g.send(msg.value)
	}
	settleFromGenerator(c, g)
}

// Await is a convenience for the common case where a coroutine body wants
// a typed result back from yield instead of handling the any/error pair
// itself every time.
func Await[T any](y Yield, a *Awaitable[T]) (T, error) {
	v, err := y(a)
	var zero T
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
