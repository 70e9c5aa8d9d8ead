package async

import "errors"

// errWon is the cancellation reason Any and Choose give the inputs they no
// longer need once one of the siblings has fulfilled — there being no
// rejection error to carry forward in that case.
var errWon = errors.New("async: a sibling input won the combinator")

// cancelOthers cancels every input except the one at index except (or all
// of them, when except is negative) with reason. Shared by All, Any, and
// Choose, which all promise to release the inputs they no longer need.
func cancelOthers[T any](xs []*Awaitable[T], except int, reason error) {
	for i, x := range xs {
		if i != except {
			x.Cancel(reason)
		}
	}
}

// All returns an awaitable that fulfils with every input's value, in
// input order, once all of them have fulfilled, or rejects with the first
// rejection seen — the other inputs are then canceled with that same
// rejection. Adapted from the teacher's Join, which joins the same way
// across child coroutines instead of awaitables.
//
// All of no arguments never settles, matching Join's "never ends" case.
func All[T any](xs ...*Awaitable[T]) *Awaitable[[]T] {
	if len(xs) == 0 {
		return wrap[[]T](newCore(nil))
	}
	c := newCore(xs[0].c.l)
	a := wrap[[]T](c)

	values := make([]T, len(xs))
	remaining := len(xs)

	for i, x := range xs {
		idx := i
		x.c.then(
			func(v any) (any, error) {
				values[idx] = v.(T)
				remaining--
				if remaining == 0 {
					c.resolve(append([]T(nil), values...))
				}
				return nil, nil
			},
			func(err error) (any, error) {
				c.reject(err)
				cancelOthers(xs, idx, err)
				return nil, nil
			},
		)
	}

	c.onCancel = func(reason error) { cancelOthers(xs, -1, reason) }
	return a
}

// Any returns an awaitable that fulfils with the first input to fulfil —
// the rest are then canceled — or rejects with a MultiReasonError
// aggregating every rejection, in input order, if all of them reject.
// Adapted from the teacher's Select.
//
// Any of no arguments never settles, matching Select's "never ends" case.
func Any[T any](xs ...*Awaitable[T]) *Awaitable[T] {
	if len(xs) == 0 {
		return wrap[T](newCore(nil))
	}
	c := newCore(xs[0].c.l)
	a := wrap[T](c)

	reasons := make([]error, len(xs))
	remaining := len(xs)

	for i, x := range xs {
		idx := i
		x.c.then(
			func(v any) (any, error) {
				c.resolve(v)
				cancelOthers(xs, idx, errWon)
				return nil, nil
			},
			func(err error) (any, error) {
				reasons[idx] = err
				remaining--
				if remaining == 0 {
					c.reject(&MultiReasonError{Reasons: reasons})
				}
				return nil, nil
			},
		)
	}

	c.onCancel = func(reason error) { cancelOthers(xs, -1, reason) }
	return a
}

// Choose returns an awaitable that settles the same way as whichever input
// settles first, fulfilment or rejection alike, cancelling the rest.
// Unlike Any, a fast rejection among slower fulfilments rejects the result
// instead of being absorbed into a MultiReasonError.
func Choose[T any](xs ...*Awaitable[T]) *Awaitable[T] {
	if len(xs) == 0 {
		return wrap[T](newCore(nil))
	}
	c := newCore(xs[0].c.l)
	a := wrap[T](c)

	for i, x := range xs {
		idx := i
		x.c.then(
			func(v any) (any, error) {
				c.resolve(v)
				cancelOthers(xs, idx, errWon)
				return nil, nil
			},
			func(err error) (any, error) {
				c.reject(err)
				cancelOthers(xs, idx, err)
				return nil, nil
			},
		)
	}

	c.onCancel = func(reason error) { cancelOthers(xs, -1, reason) }
	return a
}

// Outcome is one input's final state as reported by Settle.
type Outcome[T any] struct {
	Value       T
	Err         error
	IsFulfilled bool
}

// Settle returns an awaitable that always fulfils, once every input has
// settled, with each input's Outcome in input order. It never rejects and
// never cancels any input itself.
func Settle[T any](xs ...*Awaitable[T]) *Awaitable[[]Outcome[T]] {
	if len(xs) == 0 {
		c := newCore(nil)
		a := wrap[[]Outcome[T]](c)
		c.resolve([]Outcome[T]{})
		return a
	}
	c := newCore(xs[0].c.l)
	a := wrap[[]Outcome[T]](c)

	outcomes := make([]Outcome[T], len(xs))
	remaining := len(xs)

	for i, x := range xs {
		idx := i
		x.c.then(
			func(v any) (any, error) {
				outcomes[idx] = Outcome[T]{Value: v.(T), IsFulfilled: true}
				remaining--
				if remaining == 0 {
					c.resolve(append([]Outcome[T](nil), outcomes...))
				}
				return nil, nil
			},
			func(err error) (any, error) {
				outcomes[idx] = Outcome[T]{Err: err}
				remaining--
				if remaining == 0 {
					c.resolve(append([]Outcome[T](nil), outcomes...))
				}
				return nil, nil
			},
		)
	}
	return a
}

// Map chains f onto a's fulfilled value, turning a .then(f)-style
// continuation into a standalone function for use in pipelines.
func Map[T, R any](a *Awaitable[T], f func(T) (R, error)) *Awaitable[R] {
	return Then(a, f, func(err error) (R, error) {
		var zero R
		return zero, err
	})
}

// Reduce sequentially folds f over xs's fulfilled values, in order,
// starting from init, short-circuiting on the first rejection. It is
// implemented as a coroutine since it needs a typed value back from each
// awaitable in turn before deciding whether to continue.
func Reduce[T, A any](xs []*Awaitable[T], init A, f func(acc A, v T) (A, error)) *Awaitable[A] {
	return Go(func(y Yield) (A, error) {
		acc := init
		for _, x := range xs {
			v, err := Await(y, x)
			if err != nil {
				return acc, err
			}
			acc, err = f(acc, v)
			if err != nil {
				return acc, err
			}
		}
		return acc, nil
	})
}
