package async

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDelayWaitsAtLeastTheGivenDuration(t *testing.T) {
	l := newTestLoop(t)
	a := New[int](l, nil, func(resolve func(int), reject func(error)) { resolve(5) })

	start := time.Now()
	d := Delay(a, 30*time.Millisecond)

	drain(t, l, func() bool { return !d.IsPending() })
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	v, err := d.GetResult()
	require.NoError(t, err)
	require.Equal(t, 5, v)
}

func TestDelayMirrorsARejection(t *testing.T) {
	l := newTestLoop(t)
	boom := errors.New("boom")
	a := New[int](l, nil, func(resolve func(int), reject func(error)) { reject(boom) })

	d := Delay(a, 10*time.Millisecond)
	drain(t, l, func() bool { return !d.IsPending() })

	_, err := d.GetResult()
	require.Equal(t, boom, err)
}

func TestTimeoutRejectsWhenTheSourceIsTooSlow(t *testing.T) {
	l := newTestLoop(t)
	var sourceCanceled bool
	never := New[int](l, func(reason error) { sourceCanceled = true }, func(resolve func(int), reject func(error)) {})

	to := Timeout(never, 10*time.Millisecond)
	drain(t, l, func() bool { return !to.IsPending() })

	_, err := to.GetResult()
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.True(t, sourceCanceled)
}

func TestTimeoutMirrorsASourceThatSettlesInTime(t *testing.T) {
	l := newTestLoop(t)
	a := New[int](l, nil, func(resolve func(int), reject func(error)) { resolve(9) })

	to := Timeout(a, 100*time.Millisecond)
	drain(t, l, func() bool { return !to.IsPending() })

	v, err := to.GetResult()
	require.NoError(t, err)
	require.Equal(t, 9, v)
}
