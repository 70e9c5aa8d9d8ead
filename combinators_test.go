package async

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silkloop/async/loop"
)

func TestAllFulfilsInInputOrder(t *testing.T) {
	l := newTestLoop(t)
	a := New[int](l, nil, func(resolve func(int), reject func(error)) { resolve(1) })
	b := New[int](l, nil, func(resolve func(int), reject func(error)) { resolve(2) })
	c := New[int](l, nil, func(resolve func(int), reject func(error)) { resolve(3) })

	all := All(a, b, c)
	drain(t, l, func() bool { return !all.IsPending() })

	v, err := all.GetResult()
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, v)
}

func TestAllRejectsOnFirstRejectionAndCancelsTheRest(t *testing.T) {
	l := newTestLoop(t)
	boom := errors.New("boom")

	var bCancelReason error
	a := New[int](l, nil, func(resolve func(int), reject func(error)) { reject(boom) })
	b := New[int](l, func(reason error) { bCancelReason = reason }, func(resolve func(int), reject func(error)) {})

	all := All(a, b)
	drain(t, l, func() bool { return !all.IsPending() })

	_, err := all.GetResult()
	require.Equal(t, boom, err)
	require.Equal(t, boom, bCancelReason)
}

func TestAllOfNoArgumentsNeverSettles(t *testing.T) {
	l := newTestLoop(t)
	all := All[int]()
	l.Tick(false)
	require.True(t, all.IsPending())
}

func TestAnyFulfilsWithTheFirstSuccessAndCancelsTheRest(t *testing.T) {
	l := newTestLoop(t)
	var loserCanceled bool
	winner := New[int](l, nil, func(resolve func(int), reject func(error)) { resolve(42) })
	loser := New[int](l, func(reason error) { loserCanceled = true }, func(resolve func(int), reject func(error)) {})

	res := Any(winner, loser)
	drain(t, l, func() bool { return !res.IsPending() })

	v, err := res.GetResult()
	require.NoError(t, err)
	require.Equal(t, 42, v)
	require.True(t, loserCanceled)
}

func TestAnyRejectsWithMultiReasonErrorWhenAllFail(t *testing.T) {
	l := newTestLoop(t)
	e1 := errors.New("e1")
	e2 := errors.New("e2")
	a := New[int](l, nil, func(resolve func(int), reject func(error)) { reject(e1) })
	b := New[int](l, nil, func(resolve func(int), reject func(error)) { reject(e2) })

	res := Any(a, b)
	drain(t, l, func() bool { return !res.IsPending() })

	_, err := res.GetResult()
	var multi *MultiReasonError
	require.ErrorAs(t, err, &multi)
	require.Equal(t, []error{e1, e2}, multi.Reasons)
}

func TestChooseSettlesOnFirstFulfilmentAndCancelsTheRest(t *testing.T) {
	l := newTestLoop(t)
	var loserCanceled bool
	winner := New[int](l, nil, func(resolve func(int), reject func(error)) { resolve(7) })
	loser := New[int](l, func(reason error) { loserCanceled = true }, func(resolve func(int), reject func(error)) {})

	res := Choose(winner, loser)
	drain(t, l, func() bool { return !res.IsPending() })

	v, err := res.GetResult()
	require.NoError(t, err)
	require.Equal(t, 7, v)
	require.True(t, loserCanceled)
}

// TestChooseSettlesOnFirstRejectionUnlikeAny checks the property that
// distinguishes Choose from Any: a fast rejection among slower fulfilments
// rejects the result, instead of being absorbed while waiting on the rest.
func TestChooseSettlesOnFirstRejectionUnlikeAny(t *testing.T) {
	l := newTestLoop(t)
	boom := errors.New("boom")
	var slowCanceled bool
	fastReject := New[int](l, nil, func(resolve func(int), reject func(error)) { reject(boom) })
	slow := New[int](l, func(reason error) { slowCanceled = true }, func(resolve func(int), reject func(error)) {})

	res := Choose(fastReject, slow)
	drain(t, l, func() bool { return !res.IsPending() })

	_, err := res.GetResult()
	require.Equal(t, boom, err)
	require.True(t, slowCanceled)
}

func TestChooseOfNoArgumentsNeverSettles(t *testing.T) {
	l := newTestLoop(t)
	res := Choose[int]()
	l.Tick(false)
	require.True(t, res.IsPending())
}

func TestSettleNeverRejectsAndReportsEveryOutcome(t *testing.T) {
	l := newTestLoop(t)
	boom := errors.New("boom")
	a := New[int](l, nil, func(resolve func(int), reject func(error)) { resolve(1) })
	b := New[int](l, nil, func(resolve func(int), reject func(error)) { reject(boom) })

	s := Settle(a, b)
	drain(t, l, func() bool { return !s.IsPending() })

	outcomes, err := s.GetResult()
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	require.True(t, outcomes[0].IsFulfilled)
	require.Equal(t, 1, outcomes[0].Value)
	require.False(t, outcomes[1].IsFulfilled)
	require.Equal(t, boom, outcomes[1].Err)
}

func TestMapTransformsTheFulfilledValue(t *testing.T) {
	l := newTestLoop(t)
	a := New[int](l, nil, func(resolve func(int), reject func(error)) { resolve(3) })
	m := Map(a, func(v int) (string, error) { return "x", nil })

	drain(t, l, func() bool { return !m.IsPending() })
	v, err := m.GetResult()
	require.NoError(t, err)
	require.Equal(t, "x", v)
}

// TestReduceFoldsSequentiallyAndShortCircuits pins Reduce's underlying
// coroutine to an isolated loop via loop.With, since Reduce (like Go) binds
// to the default loop unless construction happens while that loop is
// temporarily swapped in.
func TestReduceFoldsSequentiallyAndShortCircuits(t *testing.T) {
	l := newTestLoop(t)
	boom := errors.New("boom")

	var r *Awaitable[int]
	loop.With(l, func() {
		xs := []*Awaitable[int]{
			New[int](l, nil, func(resolve func(int), reject func(error)) { resolve(1) }),
			New[int](l, nil, func(resolve func(int), reject func(error)) { resolve(2) }),
			New[int](l, nil, func(resolve func(int), reject func(error)) { reject(boom) }),
			New[int](l, nil, func(resolve func(int), reject func(error)) { resolve(100) }),
		}
		r = Reduce(xs, 0, func(acc int, v int) (int, error) { return acc + v, nil })
	})

	drain(t, l, func() bool { return !r.IsPending() })
	_, err := r.GetResult()
	require.Equal(t, boom, err)
}
