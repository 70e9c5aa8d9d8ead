package async

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silkloop/async/loop"
)

func TestIterateStopsOnTheNilSentinelAndReturnsTheLastValue(t *testing.T) {
	l := newTestLoop(t)

	var r *Awaitable[int]
	loop.With(l, func() {
		r = Iterate(func(i int) *Awaitable[int] {
			if i >= 3 {
				return nil
			}
			return New[int](l, nil, func(resolve func(int), reject func(error)) { resolve(i) })
		})
	})

	drain(t, l, func() bool { return !r.IsPending() })
	v, err := r.GetResult()
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestIteratePropagatesARejection(t *testing.T) {
	l := newTestLoop(t)
	boom := errors.New("boom")

	var r *Awaitable[int]
	loop.With(l, func() {
		r = Iterate(func(i int) *Awaitable[int] {
			if i == 1 {
				return New[int](l, nil, func(resolve func(int), reject func(error)) { reject(boom) })
			}
			return New[int](l, nil, func(resolve func(int), reject func(error)) { resolve(i) })
		})
	})

	drain(t, l, func() bool { return !r.IsPending() })
	_, err := r.GetResult()
	require.Equal(t, boom, err)
}

func TestRetrySucceedsOnceAnAttemptFulfils(t *testing.T) {
	l := newTestLoop(t)
	boom := errors.New("boom")

	var r *Awaitable[int]
	loop.With(l, func() {
		r = Retry(3, func(attempt int) *Awaitable[int] {
			if attempt < 2 {
				return New[int](l, nil, func(resolve func(int), reject func(error)) { reject(boom) })
			}
			return New[int](l, nil, func(resolve func(int), reject func(error)) { resolve(99) })
		})
	})

	drain(t, l, func() bool { return !r.IsPending() })
	v, err := r.GetResult()
	require.NoError(t, err)
	require.Equal(t, 99, v)
}

func TestRetryAggregatesEveryFailureWhenAllAttemptsFail(t *testing.T) {
	l := newTestLoop(t)

	var r *Awaitable[int]
	loop.With(l, func() {
		r = Retry(3, func(attempt int) *Awaitable[int] {
			return New[int](l, nil, func(resolve func(int), reject func(error)) {
				reject(errors.New("attempt failed"))
			})
		})
	})

	drain(t, l, func() bool { return !r.IsPending() })
	_, err := r.GetResult()
	var multi *MultiReasonError
	require.ErrorAs(t, err, &multi)
	require.Len(t, multi.Reasons, 3)
}
